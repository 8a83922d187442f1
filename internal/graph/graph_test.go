package graph

import (
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/quickdir/internal/tree"
)

func TestMemoryStore_AddRootAndGetNode(t *testing.T) {
	store := NewMemoryStore()
	store.AddRoot(&Node{
		ID:       "my_project",
		Mode:     fs.ModeDir,
		Children: []string{"my_project/src"},
	})

	node, err := store.GetNode("my_project")
	if err != nil {
		t.Fatalf("GetNode(my_project) returned error: %v", err)
	}
	if !node.Mode.IsDir() {
		t.Error("my_project should be a directory")
	}
	if len(node.Children) != 1 {
		t.Errorf("my_project children = %d, want 1", len(node.Children))
	}
}

func TestMemoryStore_GetNodeNormalizesLeadingSlash(t *testing.T) {
	store := NewMemoryStore()
	store.AddNode(&Node{ID: "foo", Mode: fs.ModeDir})

	node, err := store.GetNode("/foo")
	if err != nil {
		t.Fatalf("GetNode(/foo) should resolve to foo: %v", err)
	}
	if node.ID != "foo" {
		t.Errorf("ID = %q, want %q", node.ID, "foo")
	}
}

func TestMemoryStore_GetNodeNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetNode("nonexistent")
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_AddRootDeduplicates(t *testing.T) {
	store := NewMemoryStore()
	store.AddRoot(&Node{ID: "app", Mode: fs.ModeDir})
	store.AddRoot(&Node{ID: "app", Mode: fs.ModeDir})

	roots, err := store.ListChildren("/")
	if err != nil {
		t.Fatalf("ListChildren(/) returned error: %v", err)
	}
	if len(roots) != 1 {
		t.Errorf("roots = %d, want 1 (deduped)", len(roots))
	}
}

func TestMemoryStore_ReadContent(t *testing.T) {
	store := NewMemoryStore()
	store.AddNode(&Node{ID: "app/README", Data: []byte("hello world")})

	buf := make([]byte, 5)
	n, err := store.ReadContent("app/README", buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf[:n]))

	n, err = store.ReadContent("app/README", buf, 100)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.ReadContent("missing", buf, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFromTree(t *testing.T) {
	root := tree.Parse("my_project(src, docs)\nsrc(components)\ncomponents(Button, Header)")
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store := FromTree(root, ProjectOptions{ModTime: stamp})

	roots, err := store.ListChildren("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"my_project"}, roots)

	children, err := store.ListChildren("my_project")
	require.NoError(t, err)
	assert.Equal(t, []string{"my_project/src", "my_project/docs"}, children)

	docs, err := store.GetNode("/my_project/docs")
	require.NoError(t, err)
	assert.False(t, docs.Mode.IsDir(), "leaves are files by default")
	assert.Equal(t, 1, docs.Level)
	assert.Equal(t, stamp, docs.ModTime)

	button, err := store.GetNode("my_project/src/components/Button")
	require.NoError(t, err)
	assert.Equal(t, 3, button.Level)
	assert.Equal(t, "Button", button.Name())

	assert.Equal(t, 6, store.Len())
	assert.Equal(t, 4, store.Levels())
}

func TestFromTree_LeavesAsDirs(t *testing.T) {
	store := FromTree(tree.Parse("app(assets)"), ProjectOptions{LeavesAsDirs: true})
	assets, err := store.GetNode("app/assets")
	require.NoError(t, err)
	assert.True(t, assets.Mode.IsDir())
	assert.Empty(t, assets.Children)
}

func TestFromTree_DuplicateSiblingsCollapse(t *testing.T) {
	store := FromTree(tree.Parse("r(a, a)\na(x)"), ProjectOptions{})
	children, err := store.ListChildren("r")
	require.NoError(t, err)
	assert.Equal(t, []string{"r/a"}, children)
	assert.Equal(t, 3, store.Len())
}

func TestFromTree_Nil(t *testing.T) {
	store := FromTree(nil, ProjectOptions{})
	roots, err := store.ListChildren("")
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestMemoryStore_AtLevelPreOrder(t *testing.T) {
	store := FromTree(tree.Parse("r(b, a)\nb(b2, b1)\na(a1)"), ProjectOptions{})

	ids := func(nodes []*Node) []string {
		out := make([]string, len(nodes))
		for i, n := range nodes {
			out[i] = n.ID
		}
		return out
	}
	assert.Equal(t, []string{"r"}, ids(store.AtLevel(0)))
	assert.Equal(t, []string{"r/b", "r/a"}, ids(store.AtLevel(1)))
	assert.Equal(t, []string{"r/b/b2", "r/b/b1", "r/a/a1"}, ids(store.AtLevel(2)))
	assert.Nil(t, store.AtLevel(3))
}

func TestHotSwapGraph(t *testing.T) {
	first := FromTree(tree.Parse("one(x)"), ProjectOptions{})
	second := FromTree(tree.Parse("two(y)"), ProjectOptions{})

	h := NewHotSwapGraph(first)
	_, err := h.GetNode("one/x")
	require.NoError(t, err)

	h.Swap(second)
	_, err = h.GetNode("one/x")
	assert.ErrorIs(t, err, ErrNotFound)

	children, err := h.ListChildren("two")
	require.NoError(t, err)
	assert.Equal(t, []string{"two/y"}, children)
	assert.Same(t, second, h.Current())
}
