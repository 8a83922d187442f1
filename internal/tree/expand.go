package tree

import (
	"slices"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/agentic-research/quickdir/internal/rules"
)

var log = commonlog.GetLogger("quickdir.tree")

// Cycle records a reference that was cut because its symbol was already on
// the expansion path. The truncated node is a leaf at Level.
type Cycle struct {
	Symbol string
	Path   []string // symbols from the root down to and including Symbol
	Level  int
}

func (c Cycle) String() string {
	return "circular reference: " + strings.Join(c.Path, " -> ")
}

// MaxNodes bounds the size of a tree built by Expand. Every reference is
// expanded into its own copy, so a few lines that each name a child twice
// describe an exponentially large tree.
const MaxNodes = 100_000

// Expansion is the outcome of ExpandLimit.
type Expansion struct {
	Root   *Node
	Cycles []Cycle
	// Truncated counts nodes left as leaves because the node budget ran out.
	Truncated int
}

// Expand turns a rule set into a tree rooted at the rule set's root symbol.
// Each reference is expanded into its own copy, so a symbol used by two
// parents yields two independent subtrees. A symbol already on the current
// path is truncated to a leaf and reported as a Cycle.
//
// The tree holds at most MaxNodes nodes. Expand returns nil when the rule set
// has no root declaration.
func Expand(rs *rules.RuleSet) (*Node, []Cycle) {
	x := ExpandLimit(rs, MaxNodes)
	return x.Root, x.Cycles
}

// ExpandLimit is Expand with an explicit node budget. A node whose children
// would exceed maxNodes is kept as a leaf and counted in Truncated.
// maxNodes <= 0 means no limit.
func ExpandLimit(rs *rules.RuleSet, maxNodes int) Expansion {
	if rs == nil || !rs.HasRoot() {
		return Expansion{}
	}
	e := &expander{rs: rs, limit: maxNodes, count: 1}
	root := e.expand(rs.Root, 0, nil)
	if e.truncated > 0 {
		log.Warningf("expansion of %q stopped at %d nodes, %d left unexpanded", rs.Root, e.count, e.truncated)
	}
	return Expansion{Root: root, Cycles: e.cycles, Truncated: e.truncated}
}

type expander struct {
	rs        *rules.RuleSet
	cycles    []Cycle
	limit     int
	count     int
	truncated int
}

// path holds the ancestors of the symbol being expanded; it is only ever
// appended to on the way down, so siblings never see each other's entries.
func (e *expander) expand(sym string, level int, path []string) *Node {
	n := &Node{Name: e.rs.DisplayName(sym), Level: level}

	if slices.Contains(path, sym) {
		c := Cycle{Symbol: sym, Path: append(slices.Clone(path), sym), Level: level}
		log.Warningf("%s", c)
		e.cycles = append(e.cycles, c)
		return n
	}

	children, _ := e.rs.Children(sym)
	if len(children) == 0 {
		return n
	}
	if e.limit > 0 && e.count+len(children) > e.limit {
		e.truncated++
		return n
	}
	e.count += len(children)

	path = append(slices.Clip(path), sym)
	n.Children = make([]*Node, len(children))
	for i, child := range children {
		n.Children[i] = e.expand(child, level+1, path)
	}
	return n
}

// Parse reads text with either grammar and expands it. It never fails:
// malformed lines are skipped and a buffer with no usable root yields nil.
func Parse(text string) *Node {
	root, _ := Expand(rules.Read(text))
	return root
}
