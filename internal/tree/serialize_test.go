package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_Project(t *testing.T) {
	want := strings.Join([]string{
		"my_project(docs, src)",
		"docs",
		"src(components)",
		"components(Button, Header)",
		"Button",
		"Header",
	}, "\n")
	assert.Equal(t, want, Serialize(Parse(projectSrc)))
}

func TestSerialize_Nil(t *testing.T) {
	assert.Equal(t, "", Serialize(nil))
}

func TestSerialize_FixedPoint(t *testing.T) {
	sources := []string{
		projectSrc,
		"a(a)",
		"a(b)\nb(c)\nc(a)",
		"r(x, y)\nx(lib)\ny(lib)\nlib(core)",
		"level0 = app\nlevel0 = child(zeta alpha)\nalpha = child(one two)",
		"single",
		"level0 = r\nlevel0 = child(a b)\na = X\nb = X\na = child(p)\nb = child(q)",
	}
	for _, src := range sources {
		t.Run(strings.SplitN(src, "\n", 2)[0], func(t *testing.T) {
			once := Serialize(Parse(src))
			twice := Serialize(Parse(once))
			assert.Equal(t, once, twice)
		})
	}
}

func TestSerialize_ReparseEqualsCanonical(t *testing.T) {
	root := Parse("r(c, a, b)\nb(z, y)\na(q)")
	back := Parse(Serialize(root))
	require.NotNil(t, back)
	assert.True(t, Equal(Canonical(root), back))
}

func TestSerialize_AfterMutations(t *testing.T) {
	root := Parse(projectSrc)
	root, err := Move(root, Address{Level: 1, Name: "docs"}, Address{Level: 1, Name: "src"})
	require.NoError(t, err)
	root, _, err = Add(root, Address{Level: 2, Name: "docs"}, KindLeaf)
	require.NoError(t, err)

	want := strings.Join([]string{
		"my_project(src)",
		"src(components, docs)",
		"components(Button, Header)",
		"Button",
		"Header",
		"docs(new_file1)",
		"new_file1",
	}, "\n")
	assert.Equal(t, want, Serialize(root))
}

func TestSerialize_KeepsAddUnderLaterOccurrence(t *testing.T) {
	root := Parse("r(x, y)\ny(x)")
	root, name, err := Add(root, Address{Level: 2, Name: "x"}, KindLeaf)
	require.NoError(t, err)
	require.Equal(t, "new_file1", name)

	text := Serialize(root)
	assert.Equal(t, "r(x, y)\nx(new_file1)\nnew_file1\ny(x)", text)

	back := Parse(text)
	_, ok := Find(back, Address{Level: 3, Name: "new_file1"})
	assert.True(t, ok, "added node survives serialize and parse")
	assert.Equal(t, text, Serialize(back))
}

func TestSerialize_KeepsRenameUnderLaterOccurrence(t *testing.T) {
	root := Parse("r(x, y)\nx(a)\ny(x)")
	root, err := Rename(root, Address{Level: 3, Name: "a"}, "b")
	require.NoError(t, err)

	text := Serialize(root)
	assert.Equal(t, "r(x, y)\nx(a, b)\na\nb\ny(x)", text)

	back := Parse(text)
	_, ok := Find(back, Address{Level: 3, Name: "b"})
	assert.True(t, ok)
	_, ok = Find(back, Address{Level: 2, Name: "a"})
	assert.True(t, ok)
}

func TestSerialize_MergesOccurrences(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"repeated child kept",
			"r(x, y)\nx(a, a)\ny(x)",
			"r(x, y)\nx(a, a)\na\ny(x)",
		},
		{
			"display name collision",
			"level0 = r\nlevel0 = child(a b)\na = X\nb = X\na = child(p)\nb = child(q)",
			"r(X, X)\nX(p, q)\np\nq",
		},
		{
			"cycle leaf does not hide children",
			"a(b)\nb(a)",
			"a(b)\nb(a)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Serialize(Parse(tt.src)))
		})
	}
}

func TestDump(t *testing.T) {
	got := Dump(Parse("r(a)\na(b)"))
	want := "• r (Level: 0)\n" +
		"  • a (Level: 1)\n" +
		"    • b (Level: 2)\n" +
		"      (No children)\n"
	assert.Equal(t, want, got)
	assert.Equal(t, "", Dump(nil))
}
