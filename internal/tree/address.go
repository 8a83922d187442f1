package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Address locates a node by its depth and name. It is derived from position,
// not identity: two nodes with the same level and name share an address and
// lookups resolve to the first one in depth-first pre-order.
type Address struct {
	Level int
	Name  string
}

// AddressOf returns the address of n.
func AddressOf(n *Node) Address {
	return Address{Level: n.Level, Name: n.Name}
}

// String renders the composite key "<level>-<name>".
func (a Address) String() string {
	return strconv.Itoa(a.Level) + "-" + a.Name
}

// ParseAddress parses "<level>-<name>". Only the first '-' separates the
// level, so names that contain '-' survive the round trip.
func ParseAddress(s string) (Address, error) {
	lvl, name, ok := strings.Cut(s, "-")
	if !ok || name == "" {
		return Address{}, fmt.Errorf("address %q: want <level>-<name>", s)
	}
	level, err := strconv.Atoi(lvl)
	if err != nil || level < 0 {
		return Address{}, fmt.Errorf("address %q: invalid level %q", s, lvl)
	}
	return Address{Level: level, Name: name}, nil
}

func (a Address) matches(n *Node) bool {
	return n.Level == a.Level && n.Name == a.Name
}

// Path is the list of child indices leading from the root to a node.
// The root itself has the empty path.
type Path []int

// Locate returns the path of the first node, in depth-first pre-order,
// whose level and name equal addr.
func Locate(root *Node, addr Address) (Path, bool) {
	return locate(root, func(n *Node) bool { return addr.matches(n) })
}

// LocateParent returns the path of the first node at addr.Level-1 that has
// a child named addr.Name, together with that child's index.
func LocateParent(root *Node, addr Address) (Path, int, bool) {
	idx := -1
	p, ok := locate(root, func(n *Node) bool {
		if n.Level != addr.Level-1 {
			return false
		}
		for i, c := range n.Children {
			if c.Name == addr.Name {
				idx = i
				return true
			}
		}
		return false
	})
	return p, idx, ok
}

func locate(root *Node, match func(*Node) bool) (Path, bool) {
	if root == nil {
		return nil, false
	}
	if match(root) {
		return Path{}, true
	}
	for i, c := range root.Children {
		if p, ok := locate(c, match); ok {
			return append(Path{i}, p...), true
		}
	}
	return nil, false
}

// At returns the node at p.
func At(root *Node, p Path) *Node {
	n := root
	for _, i := range p {
		n = n.Children[i]
	}
	return n
}

// Find returns the first node matching addr.
func Find(root *Node, addr Address) (*Node, bool) {
	p, ok := Locate(root, addr)
	if !ok {
		return nil, false
	}
	return At(root, p), true
}

// FindParent returns the parent of the first node matching addr.
func FindParent(root *Node, addr Address) (*Node, bool) {
	p, _, ok := LocateParent(root, addr)
	if !ok {
		return nil, false
	}
	return At(root, p), true
}

// contains reports whether q lies inside the subtree at p (p itself included).
func (p Path) contains(q Path) bool {
	if len(q) < len(p) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// replaceAt rebuilds the spine from root to p, substituting fn's result for
// the node at p. Subtrees off the spine are shared with the input.
func replaceAt(root *Node, p Path, fn func(*Node) *Node) *Node {
	if len(p) == 0 {
		return fn(root)
	}
	children := make([]*Node, len(root.Children))
	copy(children, root.Children)
	children[p[0]] = replaceAt(root.Children[p[0]], p[1:], fn)
	return root.withChildren(children)
}
