package trellis

import "time"

// Stats describes the current state of a tree for diagnostics.
type Stats struct {
	Size        int  // live nodes
	Detached    int  // detached nodes still associated with the tree
	ShapeHeight int  // height of the derived shape, 0 for an empty tree
	ShapeStale  bool // whether a rebuild is pending
}

// Rebuild recomputes the derived binary shape from the ordered array
// immediately if it is stale, cancelling any pending deferred rebuild. It is
// a no-op when the shape is fresh. Shape-reading operations call this
// implicitly.
func (t *Tree[T]) Rebuild() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rebuildLocked()
}

// Root returns the root node of the derived shape, rebuilding it first if
// stale. Nil for an empty tree.
func (t *Tree[T]) Root() *Node[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rebuildLocked()
	return t.shapeRoot
}

// Stats returns current size, detached-node count, shape height, and
// staleness.
func (t *Tree[T]) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Size:        len(t.nodes),
		Detached:    len(t.cleanupWatch),
		ShapeHeight: shapeHeight(t.shapeRoot),
		ShapeStale:  t.shapeStale,
	}
}

// markStaleLocked records a structural mutation: the shape is stale and a
// deferred rebuild is (re)armed, superseding any pending one. Caller must
// hold the lock.
func (t *Tree[T]) markStaleLocked() {
	t.shapeStale = true
	if t.rebuildTimer != nil {
		t.rebuildTimer.Stop()
		t.rebuildTimer = nil
	}
	if t.rebuildDelay > 0 {
		t.rebuildTimer = time.AfterFunc(t.rebuildDelay, t.deferredRebuild)
	}
}

// cancelRebuildLocked stops any pending deferred rebuild without resolving
// staleness. Caller must hold the lock.
func (t *Tree[T]) cancelRebuildLocked() {
	if t.rebuildTimer != nil {
		t.rebuildTimer.Stop()
		t.rebuildTimer = nil
	}
}

// deferredRebuild is the timer callback; it batches a burst of writes into a
// single rebuild.
func (t *Tree[T]) deferredRebuild() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rebuildLocked()
}

// rebuildLocked recomputes the shape if stale. The previous shape is
// discarded entirely; shape links carry no durable identity, so a wholesale
// midpoint rebuild is cheap and yields O(log n) height regardless of
// insertion history. Caller must hold the lock.
func (t *Tree[T]) rebuildLocked() {
	if !t.shapeStale {
		return
	}
	t.cancelRebuildLocked()
	t.shapeRoot = t.buildShape(0, len(t.nodes)-1, nil)
	t.shapeStale = false

	if t.logger != nil {
		t.logger.Debug("rebuilt shape", "size", len(t.nodes), "height", shapeHeight(t.shapeRoot))
	}
}

// buildShape recursively partitions nodes[start..end]: the midpoint becomes
// the subroot, the halves become its subtrees.
func (t *Tree[T]) buildShape(start, end int, parent *Node[T]) *Node[T] {
	if start > end {
		return nil
	}
	mid := start + (end-start)/2
	n := t.nodes[mid]
	n.parent = parent
	n.left = t.buildShape(start, mid-1, n)
	n.right = t.buildShape(mid+1, end, n)
	return n
}

func shapeHeight[T any](n *Node[T]) int {
	if n == nil {
		return 0
	}
	left := shapeHeight(n.left)
	right := shapeHeight(n.right)
	if left > right {
		return left + 1
	}
	return right + 1
}
