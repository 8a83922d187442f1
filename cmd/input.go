package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/quickdir/internal/tree"
)

var (
	errNoRoot     = errors.New("layout has no root declaration")
	errWriteStdin = errors.New("-w needs a file argument, not stdin")
)

// readSource reads the layout named by the first argument, or stdin when
// there is none or it is "-". path is empty for stdin.
func readSource(cmd *cobra.Command, args []string) (text, path string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("read layout: %w", err)
	}
	return string(data), args[0], nil
}

// parseSource reads and expands the layout; a layout without a root is an
// error.
func parseSource(cmd *cobra.Command, args []string) (*tree.Node, string, error) {
	text, path, err := readSource(cmd, args)
	if err != nil {
		return nil, "", err
	}
	root := tree.Parse(text)
	if root == nil {
		return nil, path, fmt.Errorf("%s: %w", displayPath(path), errNoRoot)
	}
	return root, path, nil
}

// canonical returns the formatted text of a layout, newline terminated.
func canonical(text string) (string, error) {
	root := tree.Parse(text)
	if root == nil {
		return "", errNoRoot
	}
	return tree.Serialize(root) + "\n", nil
}

func displayPath(path string) string {
	if path == "" {
		return "<stdin>"
	}
	return path
}
