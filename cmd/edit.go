package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/quickdir/internal/tree"
	"github.com/agentic-research/quickdir/internal/writeback"
)

var (
	editWrite bool
	addKind   string
)

func init() {
	for _, c := range []*cobra.Command{renameCmd, addCmd, rmCmd, mvCmd} {
		c.Flags().BoolVarP(&editWrite, "write", "w", false, "Write the result back to the layout file")
		rootCmd.AddCommand(c)
	}
	addCmd.Flags().StringVarP(&addKind, "kind", "k", "folder", "Kind of node to add: folder or file")
}

// runEdit loads the layout in path, applies fn to its tree and prints the
// re-serialized layout, or writes it back with -w.
func runEdit(cmd *cobra.Command, path string, fn func(*tree.Node) (*tree.Node, error)) error {
	root, _, err := parseSource(cmd, []string{path})
	if err != nil {
		return err
	}
	out, err := fn(root)
	if err != nil {
		return err
	}
	layout := tree.Serialize(out) + "\n"

	if !editWrite {
		_, err = fmt.Fprint(cmd.OutOrStdout(), layout)
		return err
	}
	if path == "-" {
		return errWriteStdin
	}
	_, err = writeback.Rewrite(path, func([]byte) ([]byte, error) {
		return []byte(layout), nil
	})
	return err
}

func parseAddresses(addrs ...string) ([]tree.Address, error) {
	out := make([]tree.Address, len(addrs))
	for i, s := range addrs {
		a, err := tree.ParseAddress(s)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

var renameCmd = &cobra.Command{
	Use:     "rename <file> <level-name> <new-name>",
	Short:   "Rename a node",
	Example: "  quickdir rename layout.qd 1-src lib",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs, err := parseAddresses(args[1])
		if err != nil {
			return err
		}
		return runEdit(cmd, args[0], func(root *tree.Node) (*tree.Node, error) {
			return tree.Rename(root, addrs[0], args[2])
		})
	},
}

var addCmd = &cobra.Command{
	Use:     "add <file> <parent level-name>",
	Short:   "Add a new folder or file under a node",
	Example: "  quickdir add layout.qd 1-src --kind file",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs, err := parseAddresses(args[1])
		if err != nil {
			return err
		}
		kind, err := tree.ParseKind(addKind)
		if err != nil {
			return err
		}
		return runEdit(cmd, args[0], func(root *tree.Node) (*tree.Node, error) {
			out, name, err := tree.Add(root, addrs[0], kind)
			if err == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "added %s %s\n", kind, name)
			}
			return out, err
		})
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <file> <level-name>",
	Short:   "Delete a node and its subtree",
	Example: "  quickdir rm layout.qd 2-components",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs, err := parseAddresses(args[1])
		if err != nil {
			return err
		}
		return runEdit(cmd, args[0], func(root *tree.Node) (*tree.Node, error) {
			return tree.Delete(root, addrs[0])
		})
	},
}

var mvCmd = &cobra.Command{
	Use:     "mv <file> <level-name> <new-parent level-name>",
	Short:   "Move a subtree under another node",
	Example: "  quickdir mv layout.qd 2-components 1-docs",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs, err := parseAddresses(args[1], args[2])
		if err != nil {
			return err
		}
		return runEdit(cmd, args[0], func(root *tree.Node) (*tree.Node, error) {
			return tree.Move(root, addrs[0], addrs[1])
		})
	},
}
