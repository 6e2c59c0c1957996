package trellis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetachJoinRoundTrip(t *testing.T) {
	tree := New(10, 20, 30)
	n := tree.At(1)
	require.False(t, n.IsDetached())

	n.Detach()
	require.Equal(t, []int{10, 30}, tree.Values())
	require.True(t, n.IsDetached())
	require.Same(t, tree, n.Tree())

	require.NoError(t, n.Join())
	require.Equal(t, []int{10, 20, 30}, tree.Values())
	require.False(t, n.IsDetached())
	require.Equal(t, 1, n.OrderIndex())
}

func TestDetachIsIdempotent(t *testing.T) {
	tree := New(1, 2)
	n := tree.At(0)
	n.Detach()
	n.Detach()
	require.Equal(t, []int{2}, tree.Values())
}

func TestJoinRecomputesPosition(t *testing.T) {
	tree := New(10, 20, 30)
	n := tree.At(0)
	n.Detach()
	tree.Insert(5)
	tree.Insert(15)

	require.NoError(t, n.Join())
	require.Equal(t, []int{5, 10, 15, 20, 30}, tree.Values())
	require.Equal(t, 1, n.OrderIndex())
}

func TestJoinOnLiveNodeIsNoOp(t *testing.T) {
	tree := New(1, 2)
	require.NoError(t, tree.At(0).Join())
	require.Equal(t, []int{1, 2}, tree.Values())
}

func TestJoinWithoutTree(t *testing.T) {
	tree := New(1, 2)
	n := tree.At(0)
	n.Free()
	require.ErrorIs(t, n.Join(), ErrNoTree)
}

func TestJoinLosesToDuplicate(t *testing.T) {
	tree := New(10, 20)
	n := tree.At(0)
	n.Detach()
	tree.Insert(10)

	require.NoError(t, n.Join())
	require.True(t, n.IsDetached(), "node should stay detached when an equal value took its place")
	require.Equal(t, []int{10, 20}, tree.Values())
}

func TestFreeTerminality(t *testing.T) {
	tree := New(1, 2, 3)
	n := tree.At(1)

	n.Free()
	require.True(t, n.IsFree())
	require.Nil(t, n.Tree())
	require.True(t, n.IsDetached())
	require.Equal(t, []int{1, 3}, tree.Values())

	// Second free is a no-op, no duplicate side effect.
	n.Free()
	require.Equal(t, []int{1, 3}, tree.Values())
}

func TestFreeDetachedNode(t *testing.T) {
	tree := New(1, 2, 3)
	n := tree.At(1)
	n.Detach()
	require.Equal(t, 1, tree.Stats().Detached)

	n.Free()
	require.True(t, n.IsFree())
	require.Equal(t, 0, tree.Stats().Detached)
}

func TestSetValueSynchronizes(t *testing.T) {
	tree := New(0, 3, 6, 9)
	n := tree.At(3)

	n.SetValue(4)
	require.Equal(t, []int{0, 3, 4, 6}, tree.Values())
	require.Equal(t, 2, n.OrderIndex())
	require.False(t, n.IsDetached())
}

func TestSetValueDuplicateDetaches(t *testing.T) {
	tree := New(0, 3, 6, 9)
	n := tree.At(3)

	n.SetValue(3)
	require.Equal(t, []int{0, 3, 6}, tree.Values())
	require.True(t, n.IsDetached())
	require.Same(t, tree, n.Tree())
	require.Equal(t, 1, tree.Stats().Detached)
}

func TestSetValueSamePosition(t *testing.T) {
	tree := New(0, 10, 20)
	n := tree.At(1)

	n.SetValue(15)
	require.Equal(t, []int{0, 15, 20}, tree.Values())
	require.Equal(t, 1, n.OrderIndex())
}

func TestSetValueIdenticalIsNoOp(t *testing.T) {
	tree := New(1, 2, 3)
	n := tree.At(1)
	n.SetValue(2)
	require.Equal(t, []int{1, 2, 3}, tree.Values())
	require.False(t, n.IsDetached())
}

func TestSetValueOnDetachedNode(t *testing.T) {
	tree := New(1, 2, 3)
	n := tree.At(1)
	n.Detach()

	n.SetValue(99)
	require.Equal(t, []int{1, 3}, tree.Values())
	require.Equal(t, 99, n.Value())

	require.NoError(t, n.Join())
	require.Equal(t, []int{1, 3, 99}, tree.Values())
}

func TestSynchronizeValidation(t *testing.T) {
	tree := New(1, 2)
	other := New(9)
	require.ErrorIs(t, tree.Synchronize(&Node[int]{}), ErrInvalidNode)
	require.ErrorIs(t, tree.Synchronize(other.At(0)), ErrTreeMismatch)
	require.NoError(t, tree.Synchronize(tree.At(0)))
}

func TestSetTree(t *testing.T) {
	t.Run("nil tree", func(t *testing.T) {
		tree := New(1)
		require.ErrorIs(t, tree.At(0).SetTree(nil), ErrUnsetTree)
	})

	t.Run("invalid tree", func(t *testing.T) {
		tree := New(1)
		require.ErrorIs(t, tree.At(0).SetTree(&Tree[int]{}), ErrInvalidTree)
	})

	t.Run("same tree is a no-op", func(t *testing.T) {
		tree := New(1, 2)
		n := tree.At(0)
		require.NoError(t, n.SetTree(tree))
		require.Equal(t, []int{1, 2}, tree.Values())
	})

	t.Run("re-parents across trees", func(t *testing.T) {
		src := New(5)
		dst := New(1, 9)
		n := src.At(0)

		require.NoError(t, n.SetTree(dst))
		require.Equal(t, 0, src.Size())
		require.Equal(t, []int{1, 5, 9}, dst.Values())
		require.Same(t, dst, n.Tree())
		require.False(t, n.IsDetached())
	})
}

func TestShapeAccessors(t *testing.T) {
	tree := New(1, 2, 3)

	root := tree.Root()
	require.NotNil(t, root)
	require.Equal(t, 2, root.Value())
	require.Nil(t, root.Parent())

	left, right := root.Left(), root.Right()
	require.Equal(t, 1, left.Value())
	require.Equal(t, 3, right.Value())
	require.Same(t, root, left.Parent())
	require.Same(t, root, right.Parent())

	children := root.Children()
	require.Len(t, children, 2)
	assert.Same(t, left, children[0])
	assert.Same(t, right, children[1])

	require.Empty(t, left.Children())
}

func TestShapeAccessorsRefreshAfterMutation(t *testing.T) {
	tree := New(1, 2, 3)
	tree.Rebuild()
	tree.Insert(4)
	tree.Insert(5)

	// Accessing a link forces a rebuild of the stale shape.
	// Lower-midpoint rule over [1..5]: root 3, children 1 and 4.
	root := tree.Root()
	require.Equal(t, 3, root.Value())
	require.Equal(t, 1, root.Left().Value())
	require.Equal(t, 4, root.Right().Value())
}
