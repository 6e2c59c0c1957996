package trellis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRebuildBalancedHeight(t *testing.T) {
	tests := []struct {
		size       int
		wantHeight int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{7, 3},
		{8, 4},
		{100, 7},
		{1023, 10},
	}

	for _, tt := range tests {
		tree := New[int]()
		// Ascending inserts would degenerate a naive BST; the midpoint
		// rebuild keeps the height logarithmic regardless.
		for i := 0; i < tt.size; i++ {
			tree.Insert(i)
		}
		tree.Rebuild()
		require.Equal(t, tt.wantHeight, tree.Stats().ShapeHeight, "size %d", tt.size)
	}
}

func TestRebuildIsLazy(t *testing.T) {
	tree := New(1, 2, 3)
	require.True(t, tree.Stats().ShapeStale)

	tree.Rebuild()
	require.False(t, tree.Stats().ShapeStale)

	tree.Insert(4)
	require.True(t, tree.Stats().ShapeStale)

	// Reads that need the shape resolve staleness immediately.
	tree.Root()
	require.False(t, tree.Stats().ShapeStale)
}

func TestRebuildNoOpWhenFresh(t *testing.T) {
	tree := New(1, 2, 3)
	tree.Rebuild()
	root := tree.Root()
	tree.Rebuild()
	require.Same(t, root, tree.Root())
}

func TestDeferredRebuildFires(t *testing.T) {
	tree := NewWithOptions([]int{1, 2, 3}, Options[int]{RebuildDelay: 5 * time.Millisecond})
	require.True(t, tree.Stats().ShapeStale)

	require.Eventually(t, func() bool {
		return !tree.Stats().ShapeStale
	}, time.Second, time.Millisecond)
}

func TestDeferredRebuildSuperseded(t *testing.T) {
	tree := NewWithOptions([]int{1}, Options[int]{RebuildDelay: 20 * time.Millisecond})
	// A burst of writes keeps rearming the timer; they batch into one
	// eventual rebuild.
	for i := 2; i <= 10; i++ {
		tree.Insert(i)
	}
	require.Eventually(t, func() bool {
		return !tree.Stats().ShapeStale
	}, time.Second, time.Millisecond)
	require.Equal(t, 4, tree.Stats().ShapeHeight)
}

func TestDisabledDeferredRebuild(t *testing.T) {
	tree := NewWithOptions([]int{1, 2, 3}, Options[int]{RebuildDelay: -1})
	require.True(t, tree.Stats().ShapeStale)
	time.Sleep(10 * time.Millisecond)
	require.True(t, tree.Stats().ShapeStale, "no timer should fire")

	require.NotNil(t, tree.Root())
	require.False(t, tree.Stats().ShapeStale)
}

func TestShapeLinksMatchOrderedArray(t *testing.T) {
	tree := New(5, 3, 8, 1, 9, 7, 2)
	root := tree.Root()

	// An in-order walk of the shape must reproduce the ordered array.
	var walk func(n *Node[int], out *[]int)
	walk = func(n *Node[int], out *[]int) {
		if n == nil {
			return
		}
		walk(n.left, out)
		*out = append(*out, n.value)
		walk(n.right, out)
	}
	var got []int
	walk(root, &got)
	require.Equal(t, tree.Values(), got)
}
