package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/agentic-research/quickdir/internal/graph"
	"github.com/agentic-research/quickdir/internal/linter"
	"github.com/agentic-research/quickdir/internal/rules"
	"github.com/agentic-research/quickdir/internal/tree"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Summarize a layout: declarations, nodes and nodes per level",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, path, err := readSource(cmd, args)
		if err != nil {
			return err
		}
		rs := rules.Read(text)
		x := tree.ExpandLimit(rs, tree.MaxNodes)
		root := x.Root
		if root == nil {
			return fmt.Errorf("%s: %w", displayPath(path), errNoRoot)
		}

		leaves := 0
		root.Walk(func(n *tree.Node) bool {
			if n.IsLeaf() {
				leaves++
			}
			return true
		})

		summary := table.NewWriter()
		summary.SetStyle(table.StyleLight)
		summary.AppendHeader(table.Row{"Metric", "Value"})
		summary.AppendRows([]table.Row{
			{"Grammar", rs.Grammar},
			{"Declarations", humanize.Comma(int64(rs.Len()))},
			{"Unreachable", humanize.Comma(int64(len(linter.Unreachable(rs))))},
			{"Skipped lines", humanize.Comma(int64(len(rs.Skipped)))},
			{"Cycles", humanize.Comma(int64(len(x.Cycles)))},
			{"Truncated", humanize.Comma(int64(x.Truncated))},
			{"Nodes", humanize.Comma(int64(root.Count()))},
			{"Leaves", humanize.Comma(int64(leaves))},
			{"Depth", root.Depth()},
		})

		g := graph.FromTree(root, graph.ProjectOptions{LeavesAsDirs: cfg.LeavesAsDirs()})
		levels := table.NewWriter()
		levels.SetStyle(table.StyleLight)
		levels.AppendHeader(table.Row{"Level", "Entries", "Directories"})
		for l := 0; l < g.Levels(); l++ {
			nodes := g.AtLevel(l)
			dirs := 0
			for _, n := range nodes {
				if n.Mode.IsDir() {
					dirs++
				}
			}
			levels.AppendRow(table.Row{l, humanize.Comma(int64(len(nodes))), humanize.Comma(int64(dirs))})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, summary.Render())
		fmt.Fprintln(out, levels.Render())
		return nil
	},
}
