package export

import (
	"fmt"

	"github.com/ohler55/ojg/jp"

	"github.com/agentic-research/quickdir/internal/tree"
)

// Query evaluates a JSONPath expression against the document form of root,
// e.g. "$..children[?(@.level == 2)].name".
func Query(root *tree.Node, selector string) ([]any, error) {
	if root == nil {
		return nil, ErrEmptyTree
	}
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	return x.Get(toGeneric(root)), nil
}
