package rules

import "regexp"

// callLine matches name or name(child, child, ...).
var callLine = regexp.MustCompile(`^([A-Za-z0-9_-]+)\s*(?:\((.*)\))?$`)

// callReader reads the call grammar.
type callReader struct{}

func (callReader) grammar() Grammar { return GrammarCall }

func (callReader) recognizes(line string) bool {
	return callLine.MatchString(line)
}

func (callReader) apply(rs *RuleSet, line string, lineNo int) bool {
	m := callLine.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	children, ok := splitSymbols(m[2])
	if !ok {
		return false
	}
	rs.bind(m[1], children, lineNo)
	return true
}
