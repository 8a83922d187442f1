package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/quickdir/internal/export"
	"github.com/agentic-research/quickdir/internal/tree"
	"github.com/agentic-research/quickdir/internal/writeback"
)

var (
	exportFormat string
	exportOutput string
	importOutput string
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "",
		fmt.Sprintf("Output format: %s or %s (default from output.format)", formatTree, strings.Join(export.Formats(), ", ")))
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Write the layout to a file instead of stdout")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(queryCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Convert a layout to JSON, text, YAML or debug output",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, _, err := parseSource(cmd, args)
		if err != nil {
			return err
		}
		format := exportFormat
		if format == "" {
			format = cfg.Output.Format
		}

		if exportOutput == "" {
			return render(cmd.OutOrStdout(), root, format)
		}
		var buf bytes.Buffer
		if err := render(&buf, root, format); err != nil {
			return err
		}
		return writeback.WriteFile(exportOutput, buf.Bytes())
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file.json]",
	Short: "Convert an exported JSON tree back into a layout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, path, err := readSource(cmd, args)
		if err != nil {
			return err
		}
		root, err := export.Decode([]byte(data))
		if err != nil {
			return fmt.Errorf("%s: %w", displayPath(path), err)
		}

		layout := tree.Serialize(root) + "\n"
		if importOutput == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), layout)
			return err
		}
		return writeback.WriteFile(importOutput, []byte(layout))
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <selector> [file]",
	Short: "Run a JSONPath selector over the expanded tree",
	Example: `  quickdir query '$..children[?(@.level == 2)].name' layout.qd
  quickdir query '$.children[*].name' < layout.qd`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, _, err := parseSource(cmd, args[1:])
		if err != nil {
			return err
		}
		results, err := export.Query(root, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, r := range results {
			fmt.Fprintln(out, oj.JSON(r, &oj.Options{Sort: true}))
		}
		return nil
	},
}

// exists reports whether path names an existing file.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
