// Package tree holds the expanded directory tree and every operation on it:
// expansion from a rule set, position-derived addressing, copy-on-write
// mutations and canonical serialization.
//
// A Node is never modified once built. Every mutation returns a new root that
// shares all untouched subtrees with its input, so a caller holding an older
// root keeps a consistent view.
package tree

import (
	"fmt"
	"slices"
	"strings"
)

// Node is one entry of an expanded tree.
type Node struct {
	Name     string
	Children []*Node // nil for leaves
	Level    int
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits n and its descendants in depth-first pre-order.
// Returning false from fn stops the walk below the current node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(*Node) bool {
		total++
		return true
	})
	return total
}

// Depth returns the largest level found in the subtree rooted at n.
func (n *Node) Depth() int {
	deepest := 0
	n.Walk(func(c *Node) bool {
		if c.Level > deepest {
			deepest = c.Level
		}
		return true
	})
	return deepest
}

// withChildren returns a shallow copy of n carrying children.
func (n *Node) withChildren(children []*Node) *Node {
	if len(children) == 0 {
		children = nil
	}
	return &Node{Name: n.Name, Children: children, Level: n.Level}
}

// relevel returns a copy of n whose level is level, with every descendant
// shifted by the same delta.
func relevel(n *Node, level int) *Node {
	out := &Node{Name: n.Name, Level: level}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = relevel(c, level+1)
		}
	}
	return out
}

func byName(a, b *Node) int {
	return strings.Compare(a.Name, b.Name)
}

// sortedChildren returns n's children ordered by name without touching n.
func sortedChildren(n *Node) []*Node {
	out := slices.Clone(n.Children)
	slices.SortStableFunc(out, byName)
	return out
}

// Equal reports whether a and b have the same shape, names and levels.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || a.Level != b.Level || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Canonical returns a copy of n with every child list sorted by name.
func Canonical(n *Node) *Node {
	if n == nil {
		return nil
	}
	children := sortedChildren(n)
	for i, c := range children {
		children[i] = Canonical(c)
	}
	return n.withChildren(children)
}

// Check verifies the level invariant: the root is at level 0 and every child
// sits exactly one level below its parent.
func Check(root *Node) error {
	if root == nil {
		return nil
	}
	if root.Level != 0 {
		return fmt.Errorf("root %q has level %d, want 0", root.Name, root.Level)
	}
	var err error
	root.Walk(func(n *Node) bool {
		if err != nil {
			return false
		}
		for _, c := range n.Children {
			if c.Level != n.Level+1 {
				err = fmt.Errorf("node %q has level %d under %q at level %d", c.Name, c.Level, n.Name, n.Level)
				return false
			}
		}
		return true
	})
	return err
}
