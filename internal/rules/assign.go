package rules

import "regexp"

var (
	// assignLine matches var = <rhs>.
	assignLine = regexp.MustCompile(`^([A-Za-z0-9_-]+)\s*=\s*(.*)$`)
	// childList matches the child(...) right-hand side.
	childList = regexp.MustCompile(`^child\s*\((.*)\)$`)
)

// assignReader reads the assignment grammar:
//
//	level0 = my_project
//	level0 = child(src docs)
//	src = child(components)
//
// "var = value" sets the display name of var, "var = child(...)" its children.
type assignReader struct{}

func (assignReader) grammar() Grammar { return GrammarAssign }

func (assignReader) recognizes(line string) bool {
	return assignLine.MatchString(line)
}

func (assignReader) apply(rs *RuleSet, line string, lineNo int) bool {
	m := assignLine.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	variable, rhs := m[1], m[2]

	if cm := childList.FindStringSubmatch(rhs); cm != nil {
		children, ok := splitSymbols(cm[1])
		if !ok {
			return false
		}
		rs.bind(variable, children, lineNo)
		return true
	}

	if !IsSymbol(rhs) {
		return false
	}
	rs.rename(variable, rhs, lineNo)
	return true
}
