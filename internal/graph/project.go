package graph

import (
	"io/fs"
	"time"

	"github.com/agentic-research/quickdir/internal/tree"
)

// ProjectOptions controls how a layout tree maps onto files and directories.
type ProjectOptions struct {
	// LeavesAsDirs makes leaf nodes empty directories instead of empty files.
	LeavesAsDirs bool
	// ModTime stamps every node; zero means time.Now().
	ModTime time.Time
}

// FromTree projects root into a new MemoryStore. Nodes with children become
// directories. A sibling whose name repeats an earlier sibling is dropped
// together with its subtree, since a directory cannot hold two entries of
// the same name.
func FromTree(root *tree.Node, opts ProjectOptions) *MemoryStore {
	store := NewMemoryStore()
	if root == nil {
		return store
	}
	if opts.ModTime.IsZero() {
		opts.ModTime = time.Now()
	}
	p := &projector{store: store, opts: opts}
	store.AddRoot(p.node(root, root.Name))
	return store
}

type projector struct {
	store *MemoryStore
	opts  ProjectOptions
}

func (p *projector) node(n *tree.Node, id string) *Node {
	out := &Node{
		ID:      id,
		ModTime: p.opts.ModTime,
		Level:   n.Level,
	}
	if n.IsLeaf() {
		if p.opts.LeavesAsDirs {
			out.Mode = fs.ModeDir
		}
		return out
	}

	out.Mode = fs.ModeDir
	seen := make(map[string]bool, len(n.Children))
	for _, c := range n.Children {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		childID := id + "/" + c.Name
		out.Children = append(out.Children, childID)
		// A child is indexed after its own subtree but before its next
		// sibling, so AtLevel still yields pre-order within each level.
		p.store.AddNode(p.node(c, childID))
	}
	return out
}
