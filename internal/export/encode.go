// Package export converts expanded trees to and from interchange formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agentic-research/quickdir/api"
	"github.com/agentic-research/quickdir/internal/tree"
)

// Encoder writes a tree in one output format.
type Encoder interface {
	Encode(w io.Writer, root *tree.Node) error
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(w io.Writer, root *tree.Node) error

func (f EncoderFunc) Encode(w io.Writer, root *tree.Node) error { return f(w, root) }

var encoders = map[string]Encoder{
	"json":   EncoderFunc(encodeJSON),
	"txt":    EncoderFunc(encodeText),
	"yaml":   EncoderFunc(encodeYAML),
	"layout": EncoderFunc(encodeLayout),
	"debug":  EncoderFunc(encodeDebug),
}

// Formats lists the registered format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFormat returns the encoder registered under name.
func ForFormat(name string) (Encoder, error) {
	enc, ok := encoders[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (want one of %s)", name, strings.Join(Formats(), ", "))
	}
	return enc, nil
}

// ToAPI converts root into its document shape.
func ToAPI(root *tree.Node) api.Tree {
	out := api.Tree{Name: root.Name, Level: root.Level, Children: make([]api.Tree, len(root.Children))}
	for i, c := range root.Children {
		out.Children[i] = ToAPI(c)
	}
	return out
}

// toGeneric builds the plain map/slice form used by JSONPath queries.
func toGeneric(root *tree.Node) map[string]any {
	children := make([]any, len(root.Children))
	for i, c := range root.Children {
		children[i] = toGeneric(c)
	}
	return map[string]any{
		"name":     root.Name,
		"level":    int64(root.Level),
		"children": children,
	}
}

func encodeJSON(w io.Writer, root *tree.Node) error {
	if root == nil {
		return ErrEmptyTree
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToAPI(root))
}

func encodeYAML(w io.Writer, root *tree.Node) error {
	if root == nil {
		return ErrEmptyTree
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ToAPI(root)); err != nil {
		return err
	}
	return enc.Close()
}

// encodeText writes one "- name" line per node, indented two spaces a level.
func encodeText(w io.Writer, root *tree.Node) error {
	if root == nil {
		return ErrEmptyTree
	}
	var b strings.Builder
	var visit func(n *tree.Node, depth int)
	visit = func(n *tree.Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("- ")
		b.WriteString(n.Name)
		b.WriteByte('\n')
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(root, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

func encodeLayout(w io.Writer, root *tree.Node) error {
	if root == nil {
		return ErrEmptyTree
	}
	_, err := io.WriteString(w, tree.Serialize(root)+"\n")
	return err
}

func encodeDebug(w io.Writer, root *tree.Node) error {
	if root == nil {
		return ErrEmptyTree
	}
	_, err := io.WriteString(w, tree.Dump(root))
	return err
}
