package scaffold

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/quickdir/internal/tree"
)

const layout = "my_project(src, docs, README)\nsrc(components)\ndocs(guides)"

func paths(res *Result, a Action) []string {
	var out []string
	for _, e := range res.Entries {
		if e.Action == a {
			out = append(out, e.Path)
		}
	}
	return out
}

func TestApply_CreatesLayout(t *testing.T) {
	fs := memfs.New()
	res, err := Apply(fs, tree.Parse(layout), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"my_project",
		"my_project/src",
		"my_project/src/components",
		"my_project/docs",
		"my_project/docs/guides",
		"my_project/README",
	}, paths(res, ActionCreated))
	assert.Empty(t, res.Conflicts())

	fi, err := fs.Stat("my_project/src")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	fi, err = fs.Stat("my_project/README")
	require.NoError(t, err)
	assert.False(t, fi.IsDir())
	assert.Equal(t, int64(0), fi.Size())
}

func TestApply_LeavesAsDirs(t *testing.T) {
	fs := memfs.New()
	_, err := Apply(fs, tree.Parse(layout), Options{LeavesAsDirs: true})
	require.NoError(t, err)

	fi, err := fs.Stat("my_project/README")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestApply_KeepsExistingContent(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "my_project/README", []byte("hello"), 0o644))

	res, err := Apply(fs, tree.Parse(layout), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"my_project", "my_project/README"}, paths(res, ActionExisting))

	data, err := util.ReadFile(fs, "my_project/README")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestApply_ReportsConflicts(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "my_project/src", []byte("not a dir"), 0o644))
	require.NoError(t, fs.MkdirAll("my_project/README", 0o755))

	res, err := Apply(fs, tree.Parse(layout), Options{})
	require.NoError(t, err)

	conflicts := res.Conflicts()
	require.Len(t, conflicts, 2)
	assert.Equal(t, "my_project/src", conflicts[0].Path)
	assert.True(t, conflicts[0].Dir)
	assert.Equal(t, "my_project/README", conflicts[1].Path)
	assert.False(t, conflicts[1].Dir)

	_, err = fs.Stat("my_project/src/components")
	assert.Error(t, err, "nothing is created below a conflict")
	assert.Contains(t, paths(res, ActionCreated), "my_project/docs/guides")
}

func TestApply_DryRun(t *testing.T) {
	fs := memfs.New()
	res, err := Apply(fs, tree.Parse(layout), Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Count(ActionCreated))

	_, err = fs.Stat("my_project")
	assert.Error(t, err)
}

func TestApply_DuplicateSiblingsCollapse(t *testing.T) {
	fs := memfs.New()
	res, err := Apply(fs, tree.Parse("root(a, a)"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "root/a"}, paths(res, ActionCreated))
}

func TestApply_NilTree(t *testing.T) {
	res, err := Apply(memfs.New(), nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "create", ActionCreated.String())
	assert.Equal(t, "exists", ActionExisting.String())
	assert.Equal(t, "conflict", ActionConflict.String())
}
