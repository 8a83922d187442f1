package tree

import (
	"slices"
	"strings"
)

// Serialize renders root back to call-grammar source, one declaration per
// line: name(c1, c2) for names with children and a bare name for leaves.
//
// The grammar binds one child list per name, so every occurrence of a name
// is merged into a single declaration: a child is listed as many times as
// the occurrence that holds it most often. A leaf occurrence never hides the
// children of another occurrence, so an edit made under any copy of a shared
// name survives a round trip. Declarations follow a name-ordered depth-first
// walk of the merged rules from the root, each name declared once.
//
// Serialize is a fixed point after one application:
// Serialize(Parse(Serialize(t))) == Serialize(t).
func Serialize(root *Node) string {
	if root == nil {
		return ""
	}
	s := &serializer{
		decls: make(map[string][]string),
		seen:  make(map[string]struct{}),
	}
	s.collect(root)
	s.visit(root.Name)
	return strings.Join(s.lines, "\n")
}

type serializer struct {
	decls map[string][]string
	seen  map[string]struct{}
	lines []string
}

func (s *serializer) collect(n *Node) {
	if _, ok := s.decls[n.Name]; !ok {
		s.decls[n.Name] = nil
	}
	if len(n.Children) > 0 {
		s.decls[n.Name] = mergeChildren(s.decls[n.Name], n.Children)
	}
	for _, c := range n.Children {
		s.collect(c)
	}
}

// mergeChildren adds to have the children of one occurrence that it does not
// already hold, counting repeated names.
func mergeChildren(have []string, children []*Node) []string {
	held := make(map[string]int, len(have))
	for _, name := range have {
		held[name]++
	}
	want := make(map[string]int, len(children))
	for _, c := range children {
		want[c.Name]++
		if want[c.Name] > held[c.Name] {
			have = append(have, c.Name)
		}
	}
	return have
}

func (s *serializer) visit(name string) {
	if _, dup := s.seen[name]; dup {
		return
	}
	s.seen[name] = struct{}{}
	children := slices.Clone(s.decls[name])
	slices.Sort(children)
	s.lines = append(s.lines, declaration(name, children))
	for _, c := range children {
		s.visit(c)
	}
}

func declaration(name string, children []string) string {
	if len(children) == 0 {
		return name
	}
	return name + "(" + strings.Join(children, ", ") + ")"
}
