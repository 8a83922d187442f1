package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentic-research/quickdir/internal/linter"
)

var errLintFailed = errors.New("lint found errors")

var lintNoColor bool

func init() {
	lintCmd.Flags().BoolVar(&lintNoColor, "no-color", false, "Disable colored output")
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint [file]",
	Short: "Report problems in a layout",
	Long: `Report unrecognized lines, redeclared symbols, reference cycles,
unreachable declarations and a missing root. Exits non-zero when any
problem has error severity.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, path, err := readSource(cmd, args)
		if err != nil {
			return err
		}
		if lintNoColor || !cfg.Output.Color {
			color.NoColor = true
		}

		diags := linter.Lint(text)
		failed := writeDiagnostics(cmd.OutOrStdout(), displayPath(path), diags)
		if failed {
			return errLintFailed
		}
		return nil
	},
}

// writeDiagnostics prints one line per diagnostic and reports whether any
// has error severity.
func writeDiagnostics(w io.Writer, name string, diags []linter.Diagnostic) bool {
	failed := false
	for _, d := range diags {
		c := severityColor(d.Severity)
		if d.Severity == linter.SeverityError {
			failed = true
		}
		if d.Line > 0 {
			fmt.Fprintf(w, "%s:%d: ", name, d.Line)
		} else {
			fmt.Fprintf(w, "%s: ", name)
		}
		c.Fprintf(w, "%s", d.Severity)
		fmt.Fprintf(w, ": %s\n", d.Message)
	}
	return failed
}

func severityColor(s linter.Severity) *color.Color {
	switch s {
	case linter.SeverityError:
		return color.New(color.FgRed, color.Bold)
	case linter.SeverityWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}
