package trellis

// transitionPhase tracks which state-changing operation, if any, is mid-flight
// on a node, so re-entrant calls through the tree take the direct splice path
// instead of double-processing.
type transitionPhase int

const (
	phaseComplete transitionPhase = iota
	phaseDetaching
	phaseJoining
	phaseDisassociating
)

// Node is a handle to one entry of a Tree. A node is in exactly one of three
// states: live (associated with a tree and present in its ordered array),
// detached (associated but excluded from the array), or free (no owning
// tree). Handles remain valid across mutations of the owning tree; the shape
// links (Left, Right, Parent) are recomputed wholesale on every rebuild and
// carry no durable identity.
type Node[T any] struct {
	value T

	// index is the node's left-to-right in-order position. Authoritative
	// only while the node is live; stale while detached.
	index int

	// Shape links, owned by the tree's rebuild step.
	left, right, parent *Node[T]

	tree     *Tree[T]
	detached bool
	phase    transitionPhase
	created  bool
}

func newNode[T any](value T, t *Tree[T]) *Node[T] {
	return &Node[T]{value: value, tree: t, created: true}
}

// Value returns the stored value.
func (n *Node[T]) Value() T {
	return n.value
}

// SetValue replaces the stored value. On a live node this re-sorts the node
// into its correct position in the owning tree; if the new value duplicates
// an existing live node's value, this node loses and is left detached.
// Setting a value identical to the current one is a no-op.
func (n *Node[T]) SetValue(value T) {
	if Identical(value, n.value) {
		return
	}
	n.value = value
	if t := n.tree; t != nil && !n.detached {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.synchronizeLocked(n)
	}
}

// OrderIndex returns the node's last-known in-order position. It is only
// authoritative while the node is live.
func (n *Node[T]) OrderIndex() int {
	return n.index
}

// Tree returns the owning tree, or nil if the node is free.
func (n *Node[T]) Tree() *Tree[T] {
	return n.tree
}

// SetTree re-parents the node onto another tree. If the node currently has a
// tree it is first freed from it, then joined onto the new one. Assigning the
// same tree is a no-op. The association cannot be cleared this way; release
// it with Free.
func (n *Node[T]) SetTree(t *Tree[T]) error {
	if t == nil {
		return ErrUnsetTree
	}
	if !IsValidTree(t) {
		return ErrInvalidTree
	}
	if t == n.tree {
		return nil
	}
	n.Free()
	n.tree = t
	n.detached = true
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.joinNodeLocked(n)
}

// IsDetached reports whether the node is excluded from its tree's ordered
// array. Free nodes report true.
func (n *Node[T]) IsDetached() bool {
	return n.detached
}

// IsFree reports whether the node has no owning tree.
func (n *Node[T]) IsFree() bool {
	return n.tree == nil
}

// Detach removes the node from the owner's ordered array while keeping the
// tree association. The node will be freed automatically if the tree is
// cleaned up while it remains detached. No-op if already detached or free.
func (n *Node[T]) Detach() {
	t := n.tree
	if t == nil || n.detached {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detachNodeLocked(n)
}

// Join re-inserts a detached node into the owner's array at its recomputed
// sorted position. No-op if the node is not detached. Joining a free node
// fails with ErrNoTree. If an equal value entered the tree while the node was
// detached, the node stays detached.
func (n *Node[T]) Join() error {
	if !n.detached {
		return nil
	}
	t := n.tree
	if t == nil {
		return ErrNoTree
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.joinNodeLocked(n)
}

// Free releases the node from its tree entirely: a live node is first removed
// from the ordered array, then the association is cleared. No-op if already
// free. The node reports detached afterwards.
func (n *Node[T]) Free() {
	t := n.tree
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.freeNodeLocked(n)
}

// Left returns the node's left child in the derived shape, rebuilding the
// shape first if it is stale. Nil for detached and free nodes.
func (n *Node[T]) Left() *Node[T] {
	n.freshenShape()
	return n.left
}

// Right returns the node's right child in the derived shape, rebuilding the
// shape first if it is stale. Nil for detached and free nodes.
func (n *Node[T]) Right() *Node[T] {
	n.freshenShape()
	return n.right
}

// Parent returns the node's parent in the derived shape, rebuilding the shape
// first if it is stale. Nil for the shape root and for detached and free
// nodes.
func (n *Node[T]) Parent() *Node[T] {
	n.freshenShape()
	return n.parent
}

// Children returns the non-nil subset of {left child, right child}, in that
// order.
func (n *Node[T]) Children() []*Node[T] {
	n.freshenShape()
	children := make([]*Node[T], 0, 2)
	if n.left != nil {
		children = append(children, n.left)
	}
	if n.right != nil {
		children = append(children, n.right)
	}
	return children
}

// freshenShape forces a rebuild of the owning tree's shape if stale.
func (n *Node[T]) freshenShape() {
	if t := n.tree; t != nil {
		t.mu.Lock()
		t.rebuildLocked()
		t.mu.Unlock()
	}
}
