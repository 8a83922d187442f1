package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/agentic-research/quickdir/internal/liveview"
	"github.com/agentic-research/quickdir/internal/session"
	"github.com/agentic-research/quickdir/internal/writeback"
)

var serveLog = commonlog.GetLogger("quickdir.serve")

var (
	serveAddr  string
	serveWrite bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from serve.addr)")
	serveCmd.Flags().BoolVarP(&serveWrite, "write", "w", false, "Save every edit back to the layout file")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve a live, editable view of a layout over websockets",
	Long: `Serve a live view of a layout. Clients connect to /ws, receive the
current tree and every change, and may send edits (text, rename, delete, add,
move). GET / returns the current layout source.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, path, err := readSource(cmd, args)
		if err != nil {
			return err
		}
		if serveWrite && path == "" {
			return errWriteStdin
		}
		sess, err := session.New(text, cfg.Session.CacheSize)
		if err != nil {
			return err
		}

		if serveWrite {
			cancel := sess.Subscribe(func(snap *session.Snapshot) {
				if err := writeback.WriteFile(path, []byte(snap.Text)); err != nil {
					serveLog.Errorf("save %s: %v", path, err)
				}
			})
			defer cancel()
		}

		mux := http.NewServeMux()
		mux.Handle("/ws", liveview.NewHandler(sess))
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = fmt.Fprint(w, sess.Current().Text)
		})

		addr := serveAddr
		if addr == "" {
			addr = cfg.Serve.Addr
		}
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			serveLog.Infof("live view on http://%s (websocket at /ws)", addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
