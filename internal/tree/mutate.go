package tree

import (
	"errors"
	"fmt"
	"slices"

	"github.com/agentic-research/quickdir/internal/rules"
)

var (
	ErrInvalidName           = errors.New("invalid node name")
	ErrNodeNotFound          = errors.New("node not found")
	ErrParentNotFound        = errors.New("parent node not found")
	ErrRootDeletionForbidden = errors.New("cannot delete the root node")
)

// Kind selects the name prefix of a node created by Add.
type Kind int

const (
	KindContainer Kind = iota
	KindLeaf
)

// Prefix returns the name stem used for new nodes of this kind.
func (k Kind) Prefix() string {
	if k == KindLeaf {
		return "new_file"
	}
	return "new_folder"
}

func (k Kind) String() string {
	if k == KindLeaf {
		return "file"
	}
	return "folder"
}

// ParseKind accepts "folder"/"container" and "file"/"leaf".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "folder", "container", "dir":
		return KindContainer, nil
	case "file", "leaf":
		return KindLeaf, nil
	}
	return 0, fmt.Errorf("unknown node kind %q (want folder or file)", s)
}

// Rename replaces the name of the node at addr.
func Rename(root *Node, addr Address, newName string) (*Node, error) {
	if !rules.IsSymbol(newName) {
		return root, fmt.Errorf("%w %q: use only letters, numbers, underscores and hyphens", ErrInvalidName, newName)
	}
	p, ok := Locate(root, addr)
	if !ok {
		return root, fmt.Errorf("%w: %s", ErrNodeNotFound, addr)
	}
	return replaceAt(root, p, func(n *Node) *Node {
		return &Node{Name: newName, Children: n.Children, Level: n.Level}
	}), nil
}

// Delete removes the node at addr, with its subtree, from the first parent
// that holds a child of that name. A missing node is not an error: the input
// root is returned unchanged.
func Delete(root *Node, addr Address) (*Node, error) {
	if root != nil && addr.matches(root) {
		return root, fmt.Errorf("%w: %s", ErrRootDeletionForbidden, addr)
	}
	p, idx, ok := LocateParent(root, addr)
	if !ok {
		return root, nil
	}
	return removeAt(root, append(p, idx)), nil
}

// removeAt drops the node at p (which must not be the root).
func removeAt(root *Node, p Path) *Node {
	parent, idx := p[:len(p)-1], p[len(p)-1]
	return replaceAt(root, parent, func(n *Node) *Node {
		return n.withChildren(slices.Delete(slices.Clone(n.Children), idx, idx+1))
	})
}

// Add creates an empty child under the node at parentAddr. Its name is the
// kind's prefix followed by the smallest positive integer not already used
// by a sibling. The parent's children are re-sorted by name.
// Add returns the new root and the generated name.
func Add(root *Node, parentAddr Address, kind Kind) (*Node, string, error) {
	p, ok := Locate(root, parentAddr)
	if !ok {
		return root, "", fmt.Errorf("%w: %s", ErrParentNotFound, parentAddr)
	}
	parent := At(root, p)
	name := uniqueName(parent, kind.Prefix())

	out := replaceAt(root, p, func(n *Node) *Node {
		children := append(slices.Clone(n.Children), &Node{Name: name, Level: n.Level + 1})
		slices.SortStableFunc(children, byName)
		return n.withChildren(children)
	})
	return out, name, nil
}

func uniqueName(parent *Node, prefix string) string {
	used := make(map[string]struct{}, len(parent.Children))
	for _, c := range parent.Children {
		used[c.Name] = struct{}{}
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		if _, taken := used[name]; !taken {
			return name
		}
	}
}

// Move cuts the subtree at src and attaches it under the node at dst,
// re-levelling it to dst.Level+1 and re-sorting dst's children.
//
// An unresolvable src, or a dst inside the moved subtree, leaves the tree
// unchanged. If dst cannot be found once src has been cut, the tree is
// returned without src.
func Move(root *Node, src, dst Address) (*Node, error) {
	sp, ok := Locate(root, src)
	if !ok {
		return root, nil
	}
	if len(sp) == 0 {
		return root, fmt.Errorf("%w: %s", ErrRootDeletionForbidden, src)
	}
	if dp, ok := Locate(root, dst); ok && sp.contains(dp) {
		return root, nil
	}

	moved := At(root, sp)
	cut := removeAt(root, sp)

	tp, ok := Locate(cut, dst)
	if !ok {
		return cut, nil
	}
	return replaceAt(cut, tp, func(n *Node) *Node {
		children := append(slices.Clone(n.Children), relevel(moved, n.Level+1))
		slices.SortStableFunc(children, byName)
		return n.withChildren(children)
	}), nil
}
