package tree

import (
	"fmt"
	"strings"
)

// Dump renders a human-readable outline of root for debugging.
func Dump(root *Node) string {
	var b strings.Builder
	dump(&b, root, 0)
	return b.String()
}

func dump(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s• %s (Level: %d)\n", indent, n.Name, n.Level)
	if n.IsLeaf() {
		fmt.Fprintf(b, "%s  (No children)\n", indent)
		return
	}
	for _, c := range n.Children {
		dump(b, c, depth+1)
	}
}
