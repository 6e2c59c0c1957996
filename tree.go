package trellis

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Tree maintains a sorted, deduplicated array of live nodes plus a derived
// balanced binary shape rebuilt lazily from it. All mutation enters through
// the tree's methods or through node methods that delegate back into the
// owning tree.
//
// The tree assumes a single mutating actor; the mutex only serializes the
// deferred shape rebuild (which runs on a timer goroutine) against other
// operations.
type Tree[T any] struct {
	mu sync.Mutex

	// nodes is the authoritative ordered array of live nodes, always
	// sorted under isBefore with no two adjacent entries isSame-equal.
	nodes []*Node[T]

	isSame          SameFunc[T]
	isBefore        BeforeFunc[T]
	sameIsDefault   bool
	beforeIsDefault bool

	// Derived shape.
	shapeRoot    *Node[T]
	shapeStale   bool
	rebuildTimer *time.Timer
	rebuildDelay time.Duration

	// Detached nodes to free when the tree is cleaned up.
	cleanupWatch map[*Node[T]]struct{}
	disposing    bool

	logger      *slog.Logger
	initialized bool
}

// Size returns the number of live nodes.
func (t *Tree[T]) Size() int {
	return len(t.nodes)
}

// Values returns the live values in order.
func (t *Tree[T]) Values() []T {
	values := make([]T, len(t.nodes))
	for i, n := range t.nodes {
		values[i] = n.value
	}
	return values
}

// At returns the live node at the given order index, or nil if the index is
// out of range.
func (t *Tree[T]) At(index int) *Node[T] {
	if index < 0 || index >= len(t.nodes) {
		return nil
	}
	return t.nodes[index]
}

// Min returns the smallest live value. The second result is false on an
// empty tree.
func (t *Tree[T]) Min() (T, bool) {
	if len(t.nodes) == 0 {
		var zero T
		return zero, false
	}
	return t.nodes[0].value, true
}

// Max returns the largest live value. The second result is false on an empty
// tree.
func (t *Tree[T]) Max() (T, bool) {
	if len(t.nodes) == 0 {
		var zero T
		return zero, false
	}
	return t.nodes[len(t.nodes)-1].value, true
}

// Has reports whether a live node equal to value exists.
func (t *Tree[T]) Has(value T) bool {
	return t.IndexOf(value) >= 0
}

// Insert adds value as a new live node at its sorted position. It reports
// whether the value was inserted; inserting a value equal to an existing one
// is a no-op.
func (t *Tree[T]) Insert(value T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	index, ok := t.insertionIndexLocked(value)
	if !ok {
		return false
	}
	t.spliceInLocked(newNode(value, t), index)
	return true
}

// Remove finds the live node equal to value and frees it. It reports whether
// a node was removed; removing from an empty tree or removing an absent value
// is a no-op.
func (t *Tree[T]) Remove(value T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.nodes) == 0 {
		return false
	}
	index := t.indexOfLocked(value, 0, len(t.nodes)-1)
	if index < 0 {
		return false
	}
	t.freeNodeLocked(t.nodes[index])
	return true
}

// InsertNode adds an existing node handle to the tree. A free node is
// associated and joined; a live node of this tree is a no-op; a detached node
// is joined. Nodes created by other trees are rejected with ErrTreeMismatch.
func (t *Tree[T]) InsertNode(n *Node[T]) error {
	if !IsValidNode(n) {
		return ErrInvalidNode
	}
	if n.tree == nil {
		return n.SetTree(t)
	}
	if n.tree != t {
		return ErrTreeMismatch
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insertNodeLocked(n)
}

// RemoveNode frees the given node of this tree. Validation mirrors
// InsertNode. Removing an already-free node is a no-op.
func (t *Tree[T]) RemoveNode(n *Node[T]) error {
	if !IsValidNode(n) {
		return ErrInvalidNode
	}
	if n.tree != nil && n.tree != t {
		return ErrTreeMismatch
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeNodeLocked(n)
	return nil
}

// Synchronize re-sorts a live node after an external mutation of its value.
// It is invoked automatically by Node.SetValue. No-op on detached nodes. If
// the node's value now duplicates another live node's, the node loses and is
// left detached.
func (t *Tree[T]) Synchronize(n *Node[T]) error {
	if !IsValidNode(n) {
		return ErrInvalidNode
	}
	if n.tree != nil && n.tree != t {
		return ErrTreeMismatch
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.synchronizeLocked(n)
	return nil
}

// SetValues replaces the live node set with new nodes wrapping the given
// values, sorted and deduplicated under the active criteria. Every
// previously-live node is freed; detached nodes keep their association and
// survive the replacement. If the new value sequence is identical to the
// current one, the assignment is a no-op. An empty slice clears the tree.
func (t *Tree[T]) SetValues(values []T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replaceValuesLocked(values)
}

// Clear removes and frees every live node.
func (t *Tree[T]) Clear() {
	t.SetValues(nil)
}

// Criteria is a partial replacement of a tree's comparison criteria. A nil
// field leaves that criterion unchanged; a non-nil field pointing at a nil
// function resets that criterion to its default.
type Criteria[T any] struct {
	IsSameValue   *SameFunc[T]
	IsValueBefore *BeforeFunc[T]
}

// SetCriteria replaces the tree's comparison criteria. Setting a criterion to
// its existing value is a no-op; any effective change re-sorts and re-dedupes
// the tree from its current value sequence under the new criteria.
func (t *Tree[T]) SetCriteria(c Criteria[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := false
	if c.IsSameValue != nil {
		changed = t.setSameLocked(*c.IsSameValue) || changed
	}
	if c.IsValueBefore != nil {
		changed = t.setBeforeLocked(*c.IsValueBefore) || changed
	}
	if changed {
		t.replaceValuesForcedLocked(t.Values())
	}
}

// SetIsSameValue replaces the equality criterion. Nil resets it to the
// default.
func (t *Tree[T]) SetIsSameValue(fn SameFunc[T]) {
	t.SetCriteria(Criteria[T]{IsSameValue: &fn})
}

// SetIsValueBefore replaces the ordering criterion. Nil resets it to the
// default.
func (t *Tree[T]) SetIsValueBefore(fn BeforeFunc[T]) {
	t.SetCriteria(Criteria[T]{IsValueBefore: &fn})
}

// IsSameValue returns the active equality criterion.
func (t *Tree[T]) IsSameValue() SameFunc[T] {
	return t.isSame
}

// IsValueBefore returns the active ordering criterion.
func (t *Tree[T]) IsValueBefore() BeforeFunc[T] {
	return t.isBefore
}

// Cleanup deterministically frees every detached node still associated with
// the tree. Call it before discarding a tree that handed out node handles;
// nothing else releases detached nodes. The tree remains usable afterwards.
func (t *Tree[T]) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disposing = true
	freed := 0
	for n := range t.cleanupWatch {
		t.freeNodeLocked(n)
		freed++
	}
	clear(t.cleanupWatch)
	t.disposing = false
	t.cancelRebuildLocked()

	if t.logger != nil {
		t.logger.Debug("cleanup released detached nodes", "freed", freed)
	}
}

// setSameLocked installs a new equality criterion, reporting whether it
// effectively changed. Caller must hold the lock.
func (t *Tree[T]) setSameLocked(fn SameFunc[T]) bool {
	if fn == nil {
		if t.sameIsDefault {
			return false
		}
		t.isSame = Identical[T]
		t.sameIsDefault = true
		return true
	}
	if !t.sameIsDefault && funcIdentity(fn, t.isSame) {
		return false
	}
	t.isSame = fn
	t.sameIsDefault = false
	return true
}

// setBeforeLocked installs a new ordering criterion, reporting whether it
// effectively changed. Caller must hold the lock.
func (t *Tree[T]) setBeforeLocked(fn BeforeFunc[T]) bool {
	if fn == nil {
		if t.beforeIsDefault {
			return false
		}
		t.isBefore = OrderedBefore[T]
		t.beforeIsDefault = true
		return true
	}
	if !t.beforeIsDefault && funcIdentity(fn, t.isBefore) {
		return false
	}
	t.isBefore = fn
	t.beforeIsDefault = false
	return true
}

// replaceValuesLocked implements bulk value assignment. Caller must hold the
// lock.
func (t *Tree[T]) replaceValuesLocked(values []T) {
	next := t.wrapSortedLocked(values)

	// Full pass to detect a no-op assignment: identical value sequence
	// means no node churn and no rebuild.
	if len(next) == len(t.nodes) {
		same := true
		for i, n := range next {
			if !Identical(n.value, t.nodes[i].value) {
				same = false
				break
			}
		}
		if same {
			return
		}
	}

	t.installNodesLocked(next)
}

// replaceValuesForcedLocked is replaceValuesLocked without the no-op
// detection, used by criteria changes where node churn is required even when
// the sequence is unchanged. Caller must hold the lock.
func (t *Tree[T]) replaceValuesForcedLocked(values []T) {
	t.installNodesLocked(t.wrapSortedLocked(values))
}

// wrapSortedLocked wraps values in fresh nodes, sorted under the active
// criteria with adjacent duplicates dropped (first occurrence in sorted order
// wins). Caller must hold the lock.
func (t *Tree[T]) wrapSortedLocked(values []T) []*Node[T] {
	wrapped := make([]*Node[T], len(values))
	for i, v := range values {
		wrapped[i] = newNode(v, t)
	}
	sort.Slice(wrapped, func(i, j int) bool {
		return t.compare(wrapped[i].value, wrapped[j].value) < 0
	})

	deduped := wrapped[:0]
	for _, n := range wrapped {
		if len(deduped) > 0 && t.isSame(n.value, deduped[len(deduped)-1].value) {
			continue
		}
		deduped = append(deduped, n)
	}
	return deduped
}

// installNodesLocked frees the current live nodes and installs the given
// sorted node array. Caller must hold the lock.
func (t *Tree[T]) installNodesLocked(next []*Node[T]) {
	for _, n := range t.nodes {
		n.tree = nil
		n.detached = true
		n.left, n.right, n.parent = nil, nil, nil
	}
	replaced := len(t.nodes)

	t.nodes = next
	for i, n := range t.nodes {
		n.index = i
		n.detached = false
	}
	t.markStaleLocked()

	if t.logger != nil {
		t.logger.Debug("replaced live node set", "freed", replaced, "live", len(t.nodes))
	}
}

// spliceInLocked inserts a node into the ordered array at index, renumbering
// every node from index onward and scheduling a shape rebuild. Caller must
// hold the lock.
func (t *Tree[T]) spliceInLocked(n *Node[T], index int) {
	t.nodes = append(t.nodes, nil)
	copy(t.nodes[index+1:], t.nodes[index:])
	t.nodes[index] = n
	n.detached = false
	for i := index; i < len(t.nodes); i++ {
		t.nodes[i].index = i
	}
	t.markStaleLocked()
}

// spliceOutLocked removes the node at its current index, renumbering every
// subsequent node and scheduling a shape rebuild. Caller must hold the lock.
func (t *Tree[T]) spliceOutLocked(n *Node[T]) {
	index := n.index
	copy(t.nodes[index:], t.nodes[index+1:])
	t.nodes[len(t.nodes)-1] = nil
	t.nodes = t.nodes[:len(t.nodes)-1]
	for i := index; i < len(t.nodes); i++ {
		t.nodes[i].index = i
	}
	t.markStaleLocked()
}

// detachNodeLocked implements Node.Detach. Caller must hold the lock.
func (t *Tree[T]) detachNodeLocked(n *Node[T]) {
	if n.detached {
		return
	}
	n.phase = phaseDetaching
	t.removeNodeLocked(n)
	n.phase = phaseComplete
	n.detached = true
	n.left, n.right, n.parent = nil, nil, nil
	t.cleanupWatch[n] = struct{}{}
}

// joinNodeLocked implements Node.Join. Caller must hold the lock.
func (t *Tree[T]) joinNodeLocked(n *Node[T]) error {
	if !n.detached {
		return nil
	}
	n.phase = phaseJoining
	t.insertNodeLocked(n)
	n.phase = phaseComplete
	if !n.detached {
		delete(t.cleanupWatch, n)
	}
	return nil
}

// freeNodeLocked implements Node.Free: detach side effect (skipped while the
// tree is disposing, the array teardown already happened), listener
// cancellation, then disassociation. Caller must hold the lock.
func (t *Tree[T]) freeNodeLocked(n *Node[T]) {
	if n.tree == nil {
		return
	}
	n.phase = phaseDisassociating
	if !n.detached && !t.disposing {
		t.removeNodeLocked(n)
	}
	if !t.disposing {
		delete(t.cleanupWatch, n)
	}
	n.phase = phaseComplete
	n.detached = true
	n.tree = nil
	n.left, n.right, n.parent = nil, nil, nil
}

// insertNodeLocked is the re-entrant core of InsertNode. A node mid-Joining
// is spliced directly at its recomputed position; any other detached node is
// routed through the full join path. Live nodes are a no-op. Caller must hold
// the lock.
func (t *Tree[T]) insertNodeLocked(n *Node[T]) error {
	if !n.detached {
		return nil
	}
	if n.phase == phaseJoining {
		index, ok := t.insertionIndexLocked(n.value)
		if !ok {
			// An equal value entered while the node was detached;
			// the node stays detached, mirroring Synchronize.
			return nil
		}
		t.spliceInLocked(n, index)
		return nil
	}
	return t.joinNodeLocked(n)
}

// removeNodeLocked is the re-entrant core of RemoveNode. A node mid-Detaching
// or mid-Disassociating is spliced out directly; any other node is fully
// freed. Caller must hold the lock.
func (t *Tree[T]) removeNodeLocked(n *Node[T]) {
	switch n.phase {
	case phaseDetaching, phaseDisassociating:
		t.spliceOutLocked(n)
	default:
		t.freeNodeLocked(n)
	}
}

// synchronizeLocked re-sorts a live node whose value changed. Caller must
// hold the lock.
func (t *Tree[T]) synchronizeLocked(n *Node[T]) {
	if n.detached || n.tree != t {
		return
	}

	old := n.index
	copy(t.nodes[old:], t.nodes[old+1:])
	t.nodes[len(t.nodes)-1] = nil
	t.nodes = t.nodes[:len(t.nodes)-1]

	index, ok := t.insertionIndexLocked(n.value)
	if !ok {
		// The new value duplicates an existing live node: this node
		// loses and is left associated-but-detached. Intervening
		// indexes are intentionally left unrenumbered, matching the
		// insert path's silent refusal only in outcome, not bookkeeping.
		n.detached = true
		n.left, n.right, n.parent = nil, nil, nil
		t.cleanupWatch[n] = struct{}{}
		t.markStaleLocked()
		return
	}

	t.nodes = append(t.nodes, nil)
	copy(t.nodes[index+1:], t.nodes[index:])
	t.nodes[index] = n

	if index == old {
		// Spliced straight back into the same slot: no renumbering
		// needed.
		n.index = index
		return
	}

	lo, hi := old, index
	if lo > hi {
		lo, hi = hi, lo
	}
	for i := lo; i <= hi && i < len(t.nodes); i++ {
		t.nodes[i].index = i
	}
	t.markStaleLocked()
}
