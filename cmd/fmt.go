package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/agentic-research/quickdir/internal/writeback"
)

var (
	fmtWrite bool
	fmtDiff  bool
)

func init() {
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Write the result to the source file instead of stdout")
	fmtCmd.Flags().BoolVarP(&fmtDiff, "diff", "d", false, "Print a line diff instead of the formatted layout")
	rootCmd.AddCommand(fmtCmd)
}

var fmtCmd = &cobra.Command{
	Use:   "fmt [file]",
	Short: "Rewrite a layout in canonical form",
	Long: `Rewrite a layout in canonical form: call grammar, children sorted by
name, one declaration per line in depth-first order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, path, err := readSource(cmd, args)
		if err != nil {
			return err
		}
		formatted, err := canonical(text)
		if err != nil {
			return fmt.Errorf("%s: %w", displayPath(path), err)
		}

		out := cmd.OutOrStdout()
		if fmtDiff {
			writeDiff(out, text, formatted)
		}
		if fmtWrite {
			if path == "" {
				return errWriteStdin
			}
			changed, err := writeback.Rewrite(path, func([]byte) ([]byte, error) {
				return []byte(formatted), nil
			})
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintln(cmd.ErrOrStderr(), path)
			}
			return nil
		}
		if !fmtDiff {
			_, err = io.WriteString(out, formatted)
		}
		return err
	},
}

// writeDiff prints a line diff from before to after. Removed lines are
// prefixed with '-', added lines with '+'.
func writeDiff(w io.Writer, before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				removed.Fprintf(w, "-%s\n", line)
			case diffmatchpatch.DiffInsert:
				added.Fprintf(w, "+%s\n", line)
			default:
				fmt.Fprintf(w, " %s\n", line)
			}
		}
	}
}
