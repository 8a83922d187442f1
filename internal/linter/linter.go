// Package linter reports problems in layout source that parsing silently
// tolerates: unrecognized lines, overridden declarations, unreachable rules
// and reference cycles.
package linter

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/quickdir/internal/rules"
	"github.com/agentic-research/quickdir/internal/tree"
)

type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int // 1-based; 0 when the problem has no single line
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Severity, d.Message)
}

// Lint parses text and returns its diagnostics ordered by line.
func Lint(text string) []Diagnostic {
	return LintRules(rules.Read(text))
}

// LintRules runs every check against an already parsed rule set.
func LintRules(rs *rules.RuleSet) []Diagnostic {
	var diags []Diagnostic

	for _, line := range rs.Skipped {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Message:  "unrecognized line ignored",
			Line:     line,
		})
	}

	for _, r := range rs.Redeclared {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%q redeclared on line %d; this declaration is ignored", r.Symbol, r.By),
			Line:     r.Line,
		})
	}

	if !rs.HasRoot() {
		diags = append(diags, Diagnostic{Severity: SeverityError, Message: missingRoot(rs), Line: rs.RootLine})
		sortByLine(diags)
		return diags
	}

	x := tree.ExpandLimit(rs, tree.MaxNodes)
	if x.Truncated > 0 {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("expansion stopped at %d nodes; %d references left unexpanded", tree.MaxNodes, x.Truncated),
			Line:     rs.RootLine,
		})
	}
	seen := make(map[string]bool)
	for _, c := range x.Cycles {
		// One report per offending reference, however many times the
		// enclosing rule is expanded.
		parent := c.Path[len(c.Path)-2]
		key := parent + "->" + c.Symbol
		if seen[key] {
			continue
		}
		seen[key] = true
		line := 0
		if r, ok := rs.Rule(parent); ok {
			line = r.Line
		}
		diags = append(diags, Diagnostic{Severity: SeverityWarning, Message: c.String(), Line: line})
	}

	for _, sym := range Unreachable(rs) {
		diags = append(diags, Diagnostic{
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("%q is not reachable from root %q", sym, rs.Root),
			Line:     rs.DeclLine(sym),
		})
	}

	sortByLine(diags)
	return diags
}

func missingRoot(rs *rules.RuleSet) string {
	switch rs.Grammar {
	case rules.GrammarAssign:
		return fmt.Sprintf("no %q declaration; nothing to expand", rules.RootSymbol)
	case rules.GrammarNone:
		return "no declarations found"
	default:
		if rs.Root == "" {
			return fmt.Sprintf("line %d is not a declaration; nothing to expand", rs.RootLine)
		}
		return fmt.Sprintf("root %q is not declared", rs.Root)
	}
}

// Unreachable returns declared symbols that no path from the root reaches,
// in declaration order.
func Unreachable(rs *rules.RuleSet) []string {
	ids := make(map[string]uint32, rs.Len())
	for i, sym := range rs.Order {
		ids[sym] = uint32(i)
	}

	reached := roaring.New()
	if id, ok := ids[rs.Root]; ok {
		queue := []string{rs.Root}
		reached.Add(id)
		for len(queue) > 0 {
			sym := queue[0]
			queue = queue[1:]
			children, _ := rs.Children(sym)
			for _, c := range children {
				cid, ok := ids[c]
				if !ok || reached.Contains(cid) {
					continue
				}
				reached.Add(cid)
				queue = append(queue, c)
			}
		}
	}

	all := roaring.New()
	all.AddRange(0, uint64(len(rs.Order)))
	all.AndNot(reached)

	var out []string
	for _, id := range all.ToArray() {
		out = append(out, rs.Order[id])
	}
	return out
}

func sortByLine(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		return a.Line - b.Line
	})
}
