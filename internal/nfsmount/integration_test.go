package nfsmount_test

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/quickdir/internal/graph"
	"github.com/agentic-research/quickdir/internal/nfsmount"
	"github.com/agentic-research/quickdir/internal/scaffold"
	"github.com/agentic-research/quickdir/internal/session"
	"github.com/agentic-research/quickdir/internal/tree"
	"github.com/agentic-research/quickdir/internal/writeback"
)

// testFixture bundles a layout file on disk, the session editing it, and a
// GraphFS that follows the session through a hot-swapped projection. Every
// snapshot is also written back to the file, the way `serve -w` does.
type testFixture struct {
	srcFile string
	sess    *session.Session
	hot     *graph.HotSwapGraph
	gfs     *nfsmount.GraphFS
}

const testLayout = `// demo
level0 = my_project
level0 = child(src docs)

src = child(components)
components = child(Button Header)
`

func setup(t *testing.T) *testFixture {
	t.Helper()

	srcFile := filepath.Join(t.TempDir(), "layout.qd")
	require.NoError(t, os.WriteFile(srcFile, []byte(testLayout), 0o644))

	data, err := os.ReadFile(srcFile)
	require.NoError(t, err)
	sess, err := session.New(string(data), 0)
	require.NoError(t, err)

	hot := graph.NewHotSwapGraph(graph.FromTree(sess.Current().Tree, graph.ProjectOptions{}))
	cancel := sess.Subscribe(func(snap *session.Snapshot) {
		if snap.Tree != nil {
			hot.Swap(graph.FromTree(snap.Tree, graph.ProjectOptions{}))
		}
		if err := writeback.WriteFile(srcFile, []byte(snap.Text)); err != nil {
			t.Errorf("write back: %v", err)
		}
	})
	t.Cleanup(cancel)

	gfs := nfsmount.NewGraphFS(hot, func() []byte {
		return []byte(sess.Current().Text)
	})
	return &testFixture{srcFile: srcFile, sess: sess, hot: hot, gfs: gfs}
}

func readAll(t *testing.T, fs billy.Filesystem, path string) string {
	t.Helper()
	f, err := fs.Open(path)
	require.NoError(t, err, "open %s", path)
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(data)
}

// listing walks fs from dir and returns every path relative to the root,
// with a trailing '/' on directories and the virtual layout file skipped.
func listing(t *testing.T, fs billy.Filesystem, dir string) []string {
	t.Helper()
	var out []string
	var walk func(dir string)
	walk = func(dir string) {
		entries, err := fs.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			if e.Name() == nfsmount.LayoutFile {
				continue
			}
			p := fs.Join(dir, e.Name())
			rel := strings.TrimPrefix(p, "/")
			if e.IsDir() {
				out = append(out, rel+"/")
				walk(p)
				continue
			}
			out = append(out, rel)
		}
	}
	walk(dir)
	sort.Strings(out)
	return out
}

func TestIntegration_ProjectsLayout(t *testing.T) {
	fix := setup(t)

	assert.Equal(t, []string{
		"my_project/",
		"my_project/docs",
		"my_project/src/",
		"my_project/src/components/",
		"my_project/src/components/Button",
		"my_project/src/components/Header",
	}, listing(t, fix.gfs, "/"))
	assert.Equal(t, testLayout, readAll(t, fix.gfs, "/"+nfsmount.LayoutFile))
}

func TestIntegration_MountFollowsEdits(t *testing.T) {
	fix := setup(t)

	_, err := fix.sess.Rename(tree.Address{Level: 1, Name: "src"}, "lib")
	require.NoError(t, err)

	_, err = fix.gfs.Stat("/my_project/src")
	assert.True(t, os.IsNotExist(err))
	info, err := fix.gfs.Stat("/my_project/lib/components")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	want := "my_project(docs, lib)\ndocs\nlib(components)\ncomponents(Button, Header)\nButton\nHeader"
	assert.Equal(t, want+"\n", readAll(t, fix.gfs, "/"+nfsmount.LayoutFile))

	onDisk, err := os.ReadFile(fix.srcFile)
	require.NoError(t, err)
	assert.Equal(t, want, string(onDisk))
}

func TestIntegration_BrokenTextKeepsLastTree(t *testing.T) {
	fix := setup(t)

	fix.sess.SetText("// nothing declared")
	assert.Nil(t, fix.sess.Current().Tree)

	_, err := fix.gfs.Stat("/my_project/src/components/Button")
	assert.NoError(t, err, "mount keeps serving the last good projection")
	assert.Equal(t, "// nothing declared\n", readAll(t, fix.gfs, "/"+nfsmount.LayoutFile))
}

func TestIntegration_ScaffoldMatchesMount(t *testing.T) {
	fix := setup(t)

	_, _, err := fix.sess.Add(tree.Address{Level: 1, Name: "docs"}, tree.KindLeaf)
	require.NoError(t, err)

	disk := memfs.New()
	res, err := scaffold.Apply(disk, fix.sess.Current().Tree, scaffold.Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts())

	assert.Equal(t, listing(t, fix.gfs, "/"), listing(t, disk, "/"))
}

func TestIntegration_ReloadFromDisk(t *testing.T) {
	fix := setup(t)

	_, err := fix.sess.Move(tree.Address{Level: 2, Name: "components"}, tree.Address{Level: 1, Name: "docs"})
	require.NoError(t, err)

	data, err := os.ReadFile(fix.srcFile)
	require.NoError(t, err)
	reloaded := tree.Parse(string(data))
	require.NotNil(t, reloaded)
	assert.True(t, tree.Equal(tree.Canonical(fix.sess.Current().Tree), reloaded))
}
