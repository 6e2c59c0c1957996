package trellis

import (
	"fmt"
	"strings"
)

// String renders a sideways ASCII view of the derived shape, rebuilding it
// first if stale. Intended for debugging and the demo tools.
func (t *Tree[T]) String() string {
	root := t.Root()
	if root == nil {
		return "(empty)\n"
	}
	var b strings.Builder
	renderShape(&b, root, "")
	return b.String()
}

func renderShape[T any](b *strings.Builder, n *Node[T], prefix string) {
	if n.right != nil {
		renderShape(b, n.right, prefix+"    ")
	}
	fmt.Fprintf(b, "%s%v [%d]\n", prefix, n.value, n.index)
	if n.left != nil {
		renderShape(b, n.left, prefix+"    ")
	}
}
