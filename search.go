package trellis

// compare is the 3-way comparison every search and insert path is expressed
// in: 0 if the equality criterion matches, -1 if value orders before the
// node's value, 1 otherwise. Custom criteria fully control the outcome;
// inconsistent criteria give undefined behavior.
func (t *Tree[T]) compare(value, against T) int {
	if t.isSame(value, against) {
		return 0
	}
	if t.isBefore(value, against) {
		return -1
	}
	return 1
}

// IndexOf returns the order index of the live node equal to value, or -1.
func (t *Tree[T]) IndexOf(value T) int {
	if len(t.nodes) == 0 {
		return -1
	}
	return t.indexOfLocked(value, 0, len(t.nodes)-1)
}

// IndexOfRange is IndexOf restricted to [start, end]. Negative indices
// resolve against the tree size and clamp to 0 if still negative; a start
// beyond the last index returns -1 immediately; an end beyond the last index
// clamps to it.
func (t *Tree[T]) IndexOfRange(value T, start, end int) int {
	size := len(t.nodes)
	if size == 0 {
		return -1
	}
	if start < 0 {
		start = size + start
		if start < 0 {
			start = 0
		}
	}
	if start >= size {
		return -1
	}
	if end < 0 {
		end = size + end
		if end < 0 {
			end = 0
		}
	}
	if end >= size {
		end = size - 1
	}
	return t.indexOfLocked(value, start, end)
}

// indexOfLocked is a binary search over the ordered array restricted to
// [start, end]. It only reads the array, which never changes under the
// deferred-rebuild goroutine; callers on mutation paths hold the lock.
func (t *Tree[T]) indexOfLocked(value T, start, end int) int {
	for start <= end {
		mid := start + (end-start)/2
		switch t.compare(value, t.nodes[mid].value) {
		case 0:
			return mid
		case -1:
			end = mid - 1
		default:
			start = mid + 1
		}
	}
	return -1
}

// insertionIndexLocked computes where value belongs in the ordered array,
// detecting exact duplicates on the way: when a strict comparison resolves at
// the midpoint, the immediate neighbor in the search direction is checked for
// equality, so no separate duplicate pass is needed. The second result is
// false when an equal entry already exists (no insertion). Caller must hold
// the lock.
func (t *Tree[T]) insertionIndexLocked(value T) (int, bool) {
	lo, hi := 0, len(t.nodes)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		switch t.compare(value, t.nodes[mid].value) {
		case 0:
			return mid, false
		case -1:
			if mid > 0 && t.isSame(value, t.nodes[mid-1].value) {
				return mid - 1, false
			}
			hi = mid - 1
		default:
			if mid+1 < len(t.nodes) && t.isSame(value, t.nodes[mid+1].value) {
				return mid + 1, false
			}
			lo = mid + 1
		}
	}
	return lo, true
}
