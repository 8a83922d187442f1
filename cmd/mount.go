package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/agentic-research/quickdir/internal/graph"
	"github.com/agentic-research/quickdir/internal/nfsmount"
	"github.com/agentic-research/quickdir/internal/session"
	"github.com/agentic-research/quickdir/internal/tree"
)

var mountLog = commonlog.GetLogger("quickdir.mount")

var (
	mountPoll   time.Duration
	mountLeaves bool
)

func init() {
	mountCmd.Flags().DurationVar(&mountPoll, "poll", time.Second, "How often to check the layout file for changes (0 disables)")
	mountCmd.Flags().BoolVar(&mountLeaves, "leaves-as-dirs", false, "Show leaves as empty directories (default from scaffold.leaves)")
	rootCmd.AddCommand(mountCmd)
}

var mountCmd = &cobra.Command{
	Use:   "mount <file> <mountpoint>",
	Short: "Mount a layout read-only over NFS and follow edits to the file",
	Long: `Mount a layout read-only over NFS. Directories and empty files appear
as the layout declares them; /_layout.qd holds the layout source. The mount
follows edits to the layout file until interrupted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, mountPoint := args[0], args[1]

		absSource, err := filepath.Abs(source)
		if err != nil {
			return fmt.Errorf("resolve source: %w", err)
		}
		absMount, err := filepath.Abs(mountPoint)
		if err != nil {
			return fmt.Errorf("resolve mountpoint: %w", err)
		}
		if err := os.MkdirAll(absMount, 0o755); err != nil {
			return fmt.Errorf("create mountpoint: %w", err)
		}

		text, _, err := readSource(cmd, []string{absSource})
		if err != nil {
			return err
		}
		sess, err := session.New(text, cfg.Session.CacheSize)
		if err != nil {
			return err
		}

		opts := graph.ProjectOptions{LeavesAsDirs: mountLeaves || cfg.LeavesAsDirs()}
		project := func(root *tree.Node) graph.Graph {
			return graph.FromTree(root, opts)
		}
		hs := graph.NewHotSwapGraph(project(sess.Current().Tree))
		cancelSub := sess.Subscribe(func(snap *session.Snapshot) {
			if snap.Tree == nil {
				mountLog.Warningf("%s no longer parses; keeping the last tree", absSource)
				return
			}
			hs.Swap(project(snap.Tree))
			mountLog.Infof("layout reloaded: %s", snap.Status())
		})
		defer cancelSub()

		fsys := nfsmount.NewGraphFS(hs, func() []byte {
			return []byte(sess.Current().Text)
		})
		srv, err := nfsmount.NewServer(fsys, cfg.Mount.CacheSize)
		if err != nil {
			return err
		}
		defer func() { _ = srv.Close() }()

		if err := nfsmount.Mount(srv.Port(), absMount); err != nil {
			return err
		}
		meta := &MountMetadata{
			PID:        os.Getpid(),
			Source:     absSource,
			MountPoint: absMount,
			Port:       srv.Port(),
			Timestamp:  time.Now(),
		}
		if err := saveMountMetadata(meta); err != nil {
			mountLog.Warningf("save mount metadata: %v", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Mounted %s at %s (port %d). Press Ctrl+C to unmount.\n", absSource, absMount, srv.Port())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if mountPoll > 0 {
			go watchFile(ctx, absSource, mountPoll, sess)
		}
		<-ctx.Done()

		removeMountMetadata(absMount)
		return nfsmount.Unmount(absMount)
	},
}

// watchFile feeds the file into sess whenever its modification time moves.
func watchFile(ctx context.Context, path string, every time.Duration, sess *session.Session) {
	var last time.Time
	if fi, err := os.Stat(path); err == nil {
		last = fi.ModTime()
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fi, err := os.Stat(path)
			if err != nil || !fi.ModTime().After(last) {
				continue
			}
			last = fi.ModTime()
			data, err := os.ReadFile(path)
			if err != nil {
				mountLog.Warningf("reload %s: %v", path, err)
				continue
			}
			sess.SetText(string(data))
		}
	}
}
