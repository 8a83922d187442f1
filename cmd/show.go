package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/spf13/cobra"

	"github.com/agentic-research/quickdir/internal/export"
	"github.com/agentic-research/quickdir/internal/session"
	"github.com/agentic-research/quickdir/internal/tree"
)

// formatTree is the interactive outline rendered with go-pretty.
const formatTree = "tree"

var showStatus bool

func init() {
	showCmd.Flags().BoolVar(&showStatus, "status", false, "Print the parse status line after the tree")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Expand a layout and print it as a tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, path, err := readSource(cmd, args)
		if err != nil {
			return err
		}
		sess, err := session.New(text, cfg.Session.CacheSize)
		if err != nil {
			return err
		}
		snap := sess.Current()
		if snap.Tree == nil {
			return fmt.Errorf("%s: %w", displayPath(path), errNoRoot)
		}

		out := cmd.OutOrStdout()
		if err := render(out, snap.Tree, formatTree); err != nil {
			return err
		}
		if showStatus {
			fmt.Fprintln(out, snap.Status())
		}
		return nil
	},
}

// render writes root in the named format: "tree" or any export format.
func render(w io.Writer, root *tree.Node, format string) error {
	if format == formatTree {
		_, err := fmt.Fprintln(w, renderList(root))
		return err
	}
	enc, err := export.ForFormat(format)
	if err != nil {
		return err
	}
	return enc.Encode(w, root)
}

func renderList(root *tree.Node) string {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)

	var add func(n *tree.Node)
	add = func(n *tree.Node) {
		l.AppendItem(n.Name)
		if n.IsLeaf() {
			return
		}
		l.Indent()
		for _, c := range n.Children {
			add(c)
		}
		l.UnIndent()
	}
	add(root)
	return l.Render()
}
