// Package scaffold materializes a layout tree as real directories and files
// on a billy filesystem.
package scaffold

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/tliron/commonlog"

	"github.com/agentic-research/quickdir/internal/graph"
	"github.com/agentic-research/quickdir/internal/tree"
)

var log = commonlog.GetLogger("quickdir.scaffold")

// DefaultFileMode is the permission of created leaf files.
const DefaultFileMode os.FileMode = 0o644

const dirMode os.FileMode = 0o755

type Options struct {
	// LeavesAsDirs creates leaf nodes as empty directories.
	LeavesAsDirs bool
	// FileMode is used for created files; zero means DefaultFileMode.
	FileMode os.FileMode
	// DryRun reports what would happen without touching the filesystem.
	DryRun bool
}

type Action int

const (
	// ActionCreated means the entry did not exist and was created.
	ActionCreated Action = iota
	// ActionExisting means an entry of the right type was already there.
	ActionExisting
	// ActionConflict means the path exists with the other type. Nothing
	// below a conflicting directory is visited.
	ActionConflict
)

func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "create"
	case ActionExisting:
		return "exists"
	default:
		return "conflict"
	}
}

type Entry struct {
	Path   string
	Dir    bool
	Action Action
}

type Result struct {
	Entries []Entry
}

// Count returns how many entries ended with action a.
func (r *Result) Count(a Action) int {
	n := 0
	for _, e := range r.Entries {
		if e.Action == a {
			n++
		}
	}
	return n
}

// Conflicts returns the entries that could not be materialized.
func (r *Result) Conflicts() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Action == ActionConflict {
			out = append(out, e)
		}
	}
	return out
}

// Apply creates root under the working directory of fsys. Existing entries
// are kept untouched; file contents are never overwritten.
func Apply(fsys billy.Filesystem, root *tree.Node, opts Options) (*Result, error) {
	if opts.FileMode == 0 {
		opts.FileMode = DefaultFileMode
	}
	g := graph.FromTree(root, graph.ProjectOptions{LeavesAsDirs: opts.LeavesAsDirs})

	w := &walker{fs: fsys, g: g, opts: opts, res: &Result{}}
	ids, err := g.ListChildren("")
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := w.visit(id); err != nil {
			return w.res, err
		}
	}
	log.Infof("scaffold: %d created, %d existing, %d conflicts",
		w.res.Count(ActionCreated), w.res.Count(ActionExisting), w.res.Count(ActionConflict))
	return w.res, nil
}

type walker struct {
	fs   billy.Filesystem
	g    graph.Graph
	opts Options
	res  *Result
}

func (w *walker) visit(id string) error {
	n, err := w.g.GetNode(id)
	if err != nil {
		return err
	}
	dir := n.Mode.IsDir()

	action, err := w.materialize(id, dir)
	if err != nil {
		return err
	}
	w.res.Entries = append(w.res.Entries, Entry{Path: id, Dir: dir, Action: action})
	if action == ActionConflict || !dir {
		return nil
	}

	for _, child := range n.Children {
		if err := w.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) materialize(path string, dir bool) (Action, error) {
	fi, err := w.fs.Lstat(path)
	switch {
	case err == nil:
		if fi.IsDir() != dir {
			log.Warningf("scaffold: %s exists as %s", path, kindOf(fi.IsDir()))
			return ActionConflict, nil
		}
		return ActionExisting, nil
	case !errors.Is(err, os.ErrNotExist):
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	if w.opts.DryRun {
		return ActionCreated, nil
	}
	if dir {
		if err := w.fs.MkdirAll(path, dirMode); err != nil {
			return 0, fmt.Errorf("mkdir %s: %w", path, err)
		}
	} else if err := util.WriteFile(w.fs, path, nil, w.opts.FileMode); err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	return ActionCreated, nil
}

func kindOf(dir bool) string {
	if dir {
		return "a directory"
	}
	return "a file"
}
