package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/quickdir/internal/writeback"
)

const exampleLayout = `// quickdir layout
// Each line declares a directory and its children.

my_project(src, docs, tests)

src(components, utils, types)
components(ui, core)
utils(helpers, constants)

docs(api, guides, examples)
tests(unit, integration, e2e)
`

const exampleAssignLayout = `// quickdir layout, assignment form

level0 = my_project
level0 = child(src docs tests)

src = child(components utils types)
components = child(ui core)
utils = child(helpers constants)

docs = child(api guides examples)
tests = child(unit integration e2e)
`

var (
	initForce  bool
	initAssign bool
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
	initCmd.Flags().BoolVar(&initAssign, "assign", false, "Write the example in assignment form (level0 = ...)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write an example layout to start from",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "layout.qd"
		if len(args) == 1 {
			path = args[0]
		}
		if exists(path) && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		content := exampleLayout
		if initAssign {
			content = exampleAssignLayout
		}
		if err := writeback.WriteFile(path, []byte(content)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}
