// Package rules reads layout source text into a RuleSet: a mapping from
// symbol to its ordered child symbols. Two surface grammars are accepted and
// both produce the same RuleSet shape.
package rules

import (
	"regexp"
	"strings"
)

// RootSymbol is the fixed root variable of the assignment grammar.
const RootSymbol = "level0"

var symbolRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// IsSymbol reports whether s is a valid symbol (letters, digits, '_' and '-').
func IsSymbol(s string) bool {
	return symbolRe.MatchString(s)
}

// Grammar identifies the surface syntax a buffer was written in.
type Grammar int

const (
	// GrammarNone means no line of the buffer was recognized.
	GrammarNone Grammar = iota
	// GrammarCall is name(child1, child2, ...).
	GrammarCall
	// GrammarAssign is var = value / var = child(c1 c2 ...).
	GrammarAssign
)

func (g Grammar) String() string {
	switch g {
	case GrammarCall:
		return "call"
	case GrammarAssign:
		return "assign"
	default:
		return "none"
	}
}

// Rule is one declaration: a symbol bound to its ordered children.
type Rule struct {
	Symbol   string
	Children []string
	Line     int // 1-based line of the declaration that won
}

// Redeclaration records a declaration that was overridden by a later one.
type Redeclaration struct {
	Symbol string
	Line   int // overridden declaration
	By     int // overriding declaration
}

// RuleSet is the intermediate form shared by both grammars.
// It is built fresh on every read and never mutated afterwards.
type RuleSet struct {
	Grammar Grammar
	Root    string
	// RootLine is the 1-based line the root was taken from, or 0.
	RootLine int
	// Order lists declared symbols in first-declaration order.
	Order []string

	rules     map[string]*Rule
	names     map[string]string // assignment grammar display names
	nameLines map[string]int
	lines     map[string]int // line of each symbol's first declaration

	// Skipped holds 1-based line numbers that matched no grammar.
	Skipped []int
	// Redeclared holds every overridden declaration.
	Redeclared []Redeclaration
}

func newRuleSet(g Grammar) *RuleSet {
	return &RuleSet{
		Grammar:   g,
		rules:     make(map[string]*Rule),
		names:     make(map[string]string),
		nameLines: make(map[string]int),
		lines:     make(map[string]int),
	}
}

// Children returns the ordered child symbols bound to sym.
// ok is false when sym has no rule.
func (rs *RuleSet) Children(sym string) ([]string, bool) {
	r, ok := rs.rules[sym]
	if !ok {
		return nil, false
	}
	return r.Children, true
}

// Rule returns the declaration bound to sym.
func (rs *RuleSet) Rule(sym string) (Rule, bool) {
	r, ok := rs.rules[sym]
	if !ok {
		return Rule{}, false
	}
	return *r, true
}

// DisplayName returns the name a node expanded from sym carries.
// Only the assignment grammar separates variables from display names.
func (rs *RuleSet) DisplayName(sym string) string {
	if n, ok := rs.names[sym]; ok {
		return n
	}
	return sym
}

// Declared reports whether sym was declared at all (with or without children).
func (rs *RuleSet) Declared(sym string) bool {
	_, ok := rs.lines[sym]
	return ok
}

// DeclLine returns the 1-based line where sym was first declared, or 0.
func (rs *RuleSet) DeclLine(sym string) int {
	return rs.lines[sym]
}

// Len returns the number of declared symbols.
func (rs *RuleSet) Len() int {
	return len(rs.Order)
}

// HasRoot reports whether the root symbol resolves to a declaration.
func (rs *RuleSet) HasRoot() bool {
	return rs.Root != "" && rs.Declared(rs.Root)
}

func (rs *RuleSet) declare(sym string, line int) {
	if _, ok := rs.lines[sym]; !ok {
		rs.lines[sym] = line
		rs.Order = append(rs.Order, sym)
	}
}

// bind applies last-declaration-wins.
func (rs *RuleSet) bind(sym string, children []string, line int) {
	rs.declare(sym, line)
	if prev, ok := rs.rules[sym]; ok {
		rs.Redeclared = append(rs.Redeclared, Redeclaration{Symbol: sym, Line: prev.Line, By: line})
	}
	rs.rules[sym] = &Rule{Symbol: sym, Children: children, Line: line}
}

func (rs *RuleSet) rename(sym, name string, line int) {
	rs.declare(sym, line)
	if prev, ok := rs.nameLines[sym]; ok {
		rs.Redeclared = append(rs.Redeclared, Redeclaration{Symbol: sym, Line: prev, By: line})
	}
	rs.names[sym] = name
	rs.nameLines[sym] = line
}

// lineReader recognizes a single trimmed, non-comment line.
// It returns false when the line does not belong to its grammar.
type lineReader interface {
	grammar() Grammar
	recognizes(line string) bool
	apply(rs *RuleSet, line string, lineNo int) bool
}

var readers = []lineReader{callReader{}, assignReader{}}

// Read parses text into a RuleSet. It never fails: lines that match no
// grammar are recorded in Skipped and contribute nothing.
//
// The first recognized line decides the grammar of the whole buffer. In the
// call grammar the root is the symbol of the first non-comment line, so a
// buffer whose first line is malformed has no root.
func Read(text string) *RuleSet {
	var (
		rs     *RuleSet
		reader lineReader
	)
	var pending []int
	first, firstNo := "", 0

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if firstNo == 0 {
			first, firstNo = line, lineNo
		}

		if reader == nil {
			for _, r := range readers {
				if r.recognizes(line) {
					reader = r
					break
				}
			}
			if reader == nil {
				pending = append(pending, lineNo)
				continue
			}
			rs = newRuleSet(reader.grammar())
			rs.Skipped = append(rs.Skipped, pending...)
		}

		if !reader.apply(rs, line, lineNo) {
			rs.Skipped = append(rs.Skipped, lineNo)
		}
	}

	if rs == nil {
		rs = newRuleSet(GrammarNone)
		rs.Skipped = pending
		return rs
	}

	switch rs.Grammar {
	case GrammarAssign:
		rs.Root = RootSymbol
		rs.RootLine = rs.DeclLine(RootSymbol)
	case GrammarCall:
		if m := callLine.FindStringSubmatch(first); m != nil {
			rs.Root = m[1]
		}
		rs.RootLine = firstNo
	}
	return rs
}

// splitSymbols splits a child list on commas and whitespace.
// It returns false if any entry is not a valid symbol.
func splitSymbols(list string) ([]string, bool) {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, true
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !IsSymbol(f) {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}
