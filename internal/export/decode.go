package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/xeipuuv/gojsonschema"

	"github.com/agentic-research/quickdir/api"
	"github.com/agentic-research/quickdir/internal/tree"
)

var (
	ErrEmptyTree       = errors.New("no tree to export")
	ErrInvalidDocument = errors.New("invalid tree document")
)

var treeSchema = gojsonschema.NewStringLoader(api.TreeSchema)

// Problem is one schema violation in an imported document.
type Problem struct {
	Field       string
	Description string
}

// ValidationError lists every schema violation of a rejected document.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Field + ": " + p.Description
	}
	return fmt.Sprintf("%s: %s", ErrInvalidDocument, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDocument }

// Decode reads a JSON tree document. Levels in the document are ignored and
// recomputed from the root.
func Decode(data []byte) (*tree.Node, error) {
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	result, err := gojsonschema.Validate(treeSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate tree document: %w", err)
	}
	if !result.Valid() {
		verr := &ValidationError{}
		for _, re := range result.Errors() {
			verr.Problems = append(verr.Problems, Problem{Field: re.Field(), Description: re.Description()})
		}
		return nil, verr
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidDocument)
	}
	return fromGeneric(obj, 0), nil
}

// fromGeneric assumes obj already passed schema validation.
func fromGeneric(obj map[string]any, level int) *tree.Node {
	n := &tree.Node{Level: level}
	n.Name, _ = obj["name"].(string)
	children, _ := obj["children"].([]any)
	for _, c := range children {
		if m, ok := c.(map[string]any); ok {
			n.Children = append(n.Children, fromGeneric(m, level+1))
		}
	}
	return n
}
