package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// MountMetadata records a live mount so other invocations can list it.
type MountMetadata struct {
	PID        int       `json:"pid"`
	Source     string    `json:"source"`
	MountPoint string    `json:"mount_point"`
	Port       int       `json:"port"`
	Timestamp  time.Time `json:"timestamp"`
}

func init() {
	rootCmd.AddCommand(mountsCmd)
}

var mountsCmd = &cobra.Command{
	Use:   "mounts",
	Short: "List layouts mounted by running quickdir processes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		mounts, err := listActiveMounts()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(mounts) == 0 {
			fmt.Fprintln(out, "No active mounts.")
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"PID", "Source", "Mount", "Port", "Since"})
		for _, m := range mounts {
			t.AppendRow(table.Row{m.PID, m.Source, m.MountPoint, m.Port, humanize.Time(m.Timestamp)})
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

// mountsDir returns the directory holding mount metadata files.
func mountsDir() (string, error) {
	dir := filepath.Join(os.TempDir(), "quickdir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// metadataName derives a readable, collision-free file name for a mount
// point: basename-hash (e.g. "my_project-a1b2c3.meta.json").
func metadataName(mountPoint string) string {
	hash := sha256.Sum256([]byte(mountPoint))
	return fmt.Sprintf("%s-%s.meta.json", filepath.Base(mountPoint), hex.EncodeToString(hash[:3]))
}

func saveMountMetadata(meta *MountMetadata) error {
	dir, err := mountsDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metadataName(meta.MountPoint)), data, 0o644)
}

func removeMountMetadata(mountPoint string) {
	dir, err := mountsDir()
	if err != nil {
		return
	}
	_ = os.Remove(filepath.Join(dir, metadataName(mountPoint)))
}

// listActiveMounts reads every metadata file whose process is still alive.
// Files left behind by dead processes are removed.
func listActiveMounts() ([]*MountMetadata, error) {
	dir, err := mountsDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var mounts []*MountMetadata
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".meta.json") {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var meta MountMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		if !isProcessRunning(meta.PID) {
			_ = os.Remove(path)
			continue
		}
		mounts = append(mounts, &meta)
	}
	return mounts, nil
}

func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds. Signal 0 checks liveness.
	return process.Signal(syscall.Signal(0)) == nil
}
