package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layout = "my_project(src, docs)\nsrc(components)\n"

// run executes the CLI in a clean working directory with flags reset.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func writeLayout(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, "layout.qd")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestShow(t *testing.T) {
	workdir(t)
	out, err := run(t, layout, "show", "--status")
	require.NoError(t, err)
	for _, name := range []string{"my_project", "src", "components", "docs"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "Tree parsed successfully: Root is 'my_project' with 2 children")
}

func TestShow_NoRoot(t *testing.T) {
	workdir(t)
	_, err := run(t, "// nothing here", "show")
	assert.ErrorIs(t, err, errNoRoot)
}

func TestFmt(t *testing.T) {
	dir := workdir(t)
	path := writeLayout(t, dir, layout)

	out, err := run(t, "", "fmt", path)
	require.NoError(t, err)
	assert.Equal(t, "my_project(docs, src)\ndocs\nsrc(components)\ncomponents\n", out)
	assert.Equal(t, layout, readFile(t, path), "fmt without -w leaves the file alone")

	_, err = run(t, "", "fmt", "-w", path)
	require.NoError(t, err)
	assert.Equal(t, "my_project(docs, src)\ndocs\nsrc(components)\ncomponents\n", readFile(t, path))
}

func TestFmt_Diff(t *testing.T) {
	workdir(t)
	out, err := run(t, "b(a)\n", "fmt", "-d")
	require.NoError(t, err)
	assert.Equal(t, " b(a)\n+a\n", out)
}

func TestFmt_WriteStdin(t *testing.T) {
	workdir(t)
	_, err := run(t, layout, "fmt", "-w")
	assert.ErrorIs(t, err, errWriteStdin)
}

func TestLint(t *testing.T) {
	workdir(t)
	out, err := run(t, "a(b)\n???\n", "lint")
	require.NoError(t, err)
	assert.Equal(t, "<stdin>:2: warning: unrecognized line ignored\n", out)

	out, err = run(t, "// empty\n", "lint")
	assert.ErrorIs(t, err, errLintFailed)
	assert.Contains(t, out, "<stdin>: error: ")
}

func TestExport(t *testing.T) {
	workdir(t)

	out, err := run(t, layout, "export", "-f", "txt")
	require.NoError(t, err)
	assert.Equal(t, "- my_project\n  - src\n    - components\n  - docs\n", out)

	out, err = run(t, layout, "export", "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "my_project"`)

	_, err = run(t, layout, "export", "-f", "xml")
	assert.Error(t, err)
}

func TestExport_ToFile(t *testing.T) {
	dir := workdir(t)
	target := filepath.Join(dir, "out.yaml")
	_, err := run(t, layout, "export", "-f", "yaml", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, readFile(t, target), "name: my_project")
}

func TestImport(t *testing.T) {
	workdir(t)
	doc := `{"name": "app", "children": [{"name": "web", "children": []}, {"name": "api", "children": []}]}`
	out, err := run(t, doc, "import")
	require.NoError(t, err)
	assert.Equal(t, "app(api, web)\napi\nweb\n", out)

	_, err = run(t, `{"children": []}`, "import")
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	workdir(t)
	out, err := run(t, layout, "query", "$.children[*].name")
	require.NoError(t, err)
	assert.Equal(t, "\"src\"\n\"docs\"\n", out)
}

func TestEditCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"rename", []string{"rename", "1-src", "lib"}, "my_project(docs, lib)\ndocs\nlib(components)\ncomponents\n"},
		{"add", []string{"add", "1-docs", "--kind", "file"}, "my_project(docs, src)\ndocs(new_file1)\nnew_file1\nsrc(components)\ncomponents\n"},
		{"rm", []string{"rm", "1-src"}, "my_project(docs)\ndocs\n"},
		{"mv", []string{"mv", "2-components", "1-docs"}, "my_project(docs, src)\ndocs(components)\ncomponents\nsrc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := workdir(t)
			path := writeLayout(t, dir, layout)
			args := append([]string{tt.args[0], path}, tt.args[1:]...)

			out, err := run(t, "", args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
			assert.Equal(t, layout, readFile(t, path))

			_, err = run(t, "", append(args, "-w")...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, readFile(t, path))
		})
	}
}

func TestEditCommands_Errors(t *testing.T) {
	dir := workdir(t)
	path := writeLayout(t, dir, layout)

	_, err := run(t, "", "rename", path, "src", "lib")
	assert.Error(t, err, "address without level")

	_, err = run(t, "", "rm", path, "0-my_project")
	assert.ErrorContains(t, err, "cannot delete the root node")

	_, err = run(t, "", "add", path, "1-src", "--kind", "socket")
	assert.Error(t, err)
	assert.Equal(t, layout, readFile(t, path))
}

func TestScaffold(t *testing.T) {
	dir := workdir(t)
	target := filepath.Join(dir, "out")

	out, err := run(t, layout, "scaffold", "-C", target)
	require.NoError(t, err)
	assert.Contains(t, out, "create   my_project/src/")

	fi, err := os.Stat(filepath.Join(target, "my_project", "src", "components"))
	require.NoError(t, err)
	assert.False(t, fi.IsDir())

	out, err = run(t, layout, "scaffold", "-C", target)
	require.NoError(t, err)
	assert.Contains(t, out, "exists   my_project/docs")
}

func TestScaffold_DryRunAndLeaves(t *testing.T) {
	dir := workdir(t)
	target := filepath.Join(dir, "out")

	_, err := run(t, layout, "scaffold", "-C", target, "-n")
	require.NoError(t, err)
	_, err = os.Stat(target)
	assert.True(t, os.IsNotExist(err))

	_, err = run(t, layout, "scaffold", "-C", target, "--leaves", "dir")
	require.NoError(t, err)
	fi, err := os.Stat(filepath.Join(target, "my_project", "docs"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	_, err = run(t, layout, "scaffold", "--leaves", "symlink")
	assert.Error(t, err)
}

func TestScaffold_Conflict(t *testing.T) {
	dir := workdir(t)
	target := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "my_project"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "my_project", "src"), nil, 0o644))

	out, err := run(t, layout, "scaffold", "-C", target)
	assert.ErrorContains(t, err, "1 conflicting paths")
	assert.Contains(t, out, "conflict my_project/src/")
}

func TestStats(t *testing.T) {
	workdir(t)
	out, err := run(t, layout, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Declarations")
	assert.Contains(t, out, "Leaves")
	assert.Contains(t, out, "call")
}

func TestInit(t *testing.T) {
	dir := workdir(t)
	_, err := run(t, "", "init")
	require.NoError(t, err)
	path := filepath.Join(dir, "layout.qd")
	assert.Equal(t, exampleLayout, readFile(t, path))

	_, err = run(t, "", "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "", "init", "--force", "--assign")
	require.NoError(t, err)
	assert.Equal(t, exampleAssignLayout, readFile(t, path))
}

func TestExampleLayouts_Agree(t *testing.T) {
	call, err := canonical(exampleLayout)
	require.NoError(t, err)
	assign, err := canonical(exampleAssignLayout)
	require.NoError(t, err)
	assert.Equal(t, call, assign)
}

func TestConfig(t *testing.T) {
	dir := workdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".quickdir.yaml"), []byte("output:\n  format: json\n"), 0o644))

	out, err := run(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "format: json")

	out, err = run(t, layout, "export")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "my_project"`)
}

func TestConfig_Invalid(t *testing.T) {
	workdir(t)
	t.Setenv("QUICKDIR_SCAFFOLD_LEAVES", "socket")
	_, err := run(t, "", "config")
	assert.Error(t, err)
}

func TestMountMetadata(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	meta := &MountMetadata{
		PID:        os.Getpid(),
		Source:     "/src/layout.qd",
		MountPoint: "/mnt/my_project",
		Port:       2049,
		Timestamp:  time.Now().Truncate(time.Second),
	}
	require.NoError(t, saveMountMetadata(meta))

	mounts, err := listActiveMounts()
	require.NoError(t, err)
	require.Len(t, mounts, 1)
	assert.Equal(t, meta.MountPoint, mounts[0].MountPoint)
	assert.Equal(t, meta.Port, mounts[0].Port)

	removeMountMetadata(meta.MountPoint)
	mounts, err = listActiveMounts()
	require.NoError(t, err)
	assert.Empty(t, mounts)
}

func TestMetadataName(t *testing.T) {
	a := metadataName("/mnt/a/proj")
	b := metadataName("/mnt/b/proj")
	assert.True(t, strings.HasPrefix(a, "proj-"))
	assert.True(t, strings.HasSuffix(a, ".meta.json"))
	assert.NotEqual(t, a, b)
}
