package cmd

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/quickdir/internal/scaffold"
)

var (
	scaffoldDir    string
	scaffoldLeaves string
	scaffoldDryRun bool
)

func init() {
	scaffoldCmd.Flags().StringVarP(&scaffoldDir, "dir", "C", ".", "Directory to create the layout in")
	scaffoldCmd.Flags().StringVar(&scaffoldLeaves, "leaves", "", "Create leaves as file or dir (default from scaffold.leaves)")
	scaffoldCmd.Flags().BoolVarP(&scaffoldDryRun, "dry-run", "n", false, "Print what would be created without touching the disk")
	rootCmd.AddCommand(scaffoldCmd)
}

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold [file]",
	Short: "Create the directories and files of a layout on disk",
	Long: `Create the directories and files of a layout on disk. Existing entries
are left untouched; a path that exists with the other type (a file where a
directory is expected, or the reverse) is reported as a conflict.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, _, err := parseSource(cmd, args)
		if err != nil {
			return err
		}

		leavesAsDirs := cfg.LeavesAsDirs()
		switch scaffoldLeaves {
		case "":
		case "dir":
			leavesAsDirs = true
		case "file":
			leavesAsDirs = false
		default:
			return fmt.Errorf("--leaves: want file or dir, got %q", scaffoldLeaves)
		}

		if !scaffoldDryRun {
			if err := os.MkdirAll(scaffoldDir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", scaffoldDir, err)
			}
		}
		res, err := scaffold.Apply(osfs.New(scaffoldDir), root, scaffold.Options{
			LeavesAsDirs: leavesAsDirs,
			FileMode:     os.FileMode(cfg.Scaffold.FileMode),
			DryRun:       scaffoldDryRun,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, e := range res.Entries {
			suffix := ""
			if e.Dir {
				suffix = "/"
			}
			fmt.Fprintf(out, "%-8s %s%s\n", e.Action, e.Path, suffix)
		}
		if n := len(res.Conflicts()); n > 0 {
			return fmt.Errorf("%d conflicting paths left untouched", n)
		}
		return nil
	},
}
