package trellis

import (
	"fmt"
	"iter"
)

// Direction selects which way a traversal walks the ordered sequence.
type Direction int

const (
	// DirectionRight walks left to right (ascending). The default.
	DirectionRight Direction = iota

	// DirectionLeft walks right to left (descending).
	DirectionLeft
)

func (d Direction) String() string {
	switch d {
	case DirectionRight:
		return "right"
	case DirectionLeft:
		return "left"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Order selects the visitation order of a traversal.
type Order int

const (
	// OrderIn visits nodes in sorted order. The default. Serviced
	// directly from the ordered array.
	OrderIn Order = iota

	// OrderPre visits each node before its subtrees, walking the derived
	// shape.
	OrderPre

	// OrderPost visits each node after its subtrees, walking the derived
	// shape.
	OrderPost
)

func (o Order) String() string {
	switch o {
	case OrderIn:
		return "in"
	case OrderPre:
		return "pre"
	case OrderPost:
		return "post"
	}
	return fmt.Sprintf("Order(%d)", int(o))
}

// TraversalOptions configures Traversal, Traverse, and Collect. The zero
// value is an unbounded in-order, left-to-right traversal.
type TraversalOptions struct {
	Direction Direction
	Order     Order

	// Start is an optional order index to begin at; negative counts from
	// the end. For in-order traversal the walk begins at this index (the
	// leftmost or rightmost index by default, per direction). For pre- and
	// post-order the sequence begins at this node's occurrence within the
	// full shape walk.
	Start *int

	// MaxLength optionally caps the number of nodes visited. Zero yields
	// nothing.
	MaxLength *int
}

// Traversal returns a lazy, restartable sequence of nodes per the options.
// The shape is rebuilt first if stale. Unknown directions or orders and
// out-of-range or negative option values are rejected with an error naming
// the offending option.
func (t *Tree[T]) Traversal(options TraversalOptions) (iter.Seq[*Node[T]], error) {
	dir := options.Direction
	if dir != DirectionRight && dir != DirectionLeft {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDirection, dir)
	}
	order := options.Order
	if order != OrderIn && order != OrderPre && order != OrderPost {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, order)
	}

	maxLength := -1
	if options.MaxLength != nil {
		maxLength = *options.MaxLength
		if maxLength < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidMaxLength, maxLength)
		}
	}

	t.mu.Lock()
	t.rebuildLocked()
	t.mu.Unlock()

	size := len(t.nodes)
	start := -1
	if options.Start != nil {
		start = *options.Start
		if start < 0 {
			start = size + start
		}
		if start < 0 || start >= size {
			return nil, fmt.Errorf("%w: %d", ErrInvalidStart, *options.Start)
		}
	}

	if order == OrderIn {
		return t.inOrderSeq(dir, start, maxLength), nil
	}
	var from *Node[T]
	if start >= 0 {
		from = t.nodes[start]
	}
	return t.shapeSeq(order, dir, from, maxLength), nil
}

// Traverse runs the traversal and invokes fn once per visited node.
func (t *Tree[T]) Traverse(fn func(*Node[T]), options TraversalOptions) error {
	seq, err := t.Traversal(options)
	if err != nil {
		return err
	}
	for n := range seq {
		fn(n)
	}
	return nil
}

// Collect runs the traversal and materializes the visited nodes.
func (t *Tree[T]) Collect(options TraversalOptions) ([]*Node[T], error) {
	seq, err := t.Traversal(options)
	if err != nil {
		return nil, err
	}
	var nodes []*Node[T]
	for n := range seq {
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// inOrderSeq is the efficient in-order path: a bounded scan of the ordered
// array, no shape needed. start < 0 means the direction's natural first
// index.
func (t *Tree[T]) inOrderSeq(dir Direction, start, maxLength int) iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		count := 0
		if dir == DirectionRight {
			if start < 0 {
				start = 0
			}
			for i := start; i < len(t.nodes); i++ {
				if maxLength >= 0 && count >= maxLength {
					return
				}
				if !yield(t.nodes[i]) {
					return
				}
				count++
			}
			return
		}
		if start < 0 {
			start = len(t.nodes) - 1
		}
		for i := start; i >= 0 && i < len(t.nodes); i-- {
			if maxLength >= 0 && count >= maxLength {
				return
			}
			if !yield(t.nodes[i]) {
				return
			}
			count++
		}
	}
}

// shapeSeq walks the derived shape in pre- or post-order with an explicit
// stack. When from is non-nil the sequence begins at that node's occurrence
// within the walk.
func (t *Tree[T]) shapeSeq(order Order, dir Direction, from *Node[T], maxLength int) iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		skipping := from != nil
		count := 0
		emit := func(n *Node[T]) bool {
			if skipping {
				if n != from {
					return true
				}
				skipping = false
			}
			if maxLength >= 0 && count >= maxLength {
				return false
			}
			count++
			return yield(n)
		}

		if order == OrderPre {
			stack := []*Node[T]{t.shapeRoot}
			for len(stack) > 0 {
				n := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if n == nil {
					continue
				}
				if !emit(n) {
					return
				}
				if dir == DirectionRight {
					stack = append(stack, n.right, n.left)
				} else {
					stack = append(stack, n.left, n.right)
				}
			}
			return
		}

		type frame struct {
			n     *Node[T]
			ready bool
		}
		stack := []frame{{t.shapeRoot, false}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if f.n == nil {
				continue
			}
			if f.ready {
				if !emit(f.n) {
					return
				}
				continue
			}
			stack = append(stack, frame{f.n, true})
			if dir == DirectionRight {
				stack = append(stack, frame{f.n.right, false}, frame{f.n.left, false})
			} else {
				stack = append(stack, frame{f.n.left, false}, frame{f.n.right, false})
			}
		}
	}
}

// Ancestors returns a lazy sequence of the node's ancestors, walking parent
// links up to the shape root. maxDepth caps the number yielded; negative
// means unbounded.
func (n *Node[T]) Ancestors(maxDepth int) iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		n.freshenShape()
		depth := 0
		for p := n.parent; p != nil; p = p.parent {
			if maxDepth >= 0 && depth >= maxDepth {
				return
			}
			if !yield(p) {
				return
			}
			depth++
		}
	}
}

// Descendants returns a lazy in-order sequence over the subtree rooted at
// this node's children, excluding the node itself. maxDepth caps how far
// below the node the walk descends (1 = direct children only); negative
// means unbounded.
func (n *Node[T]) Descendants(maxDepth int) iter.Seq[*Node[T]] {
	type frame struct {
		n     *Node[T]
		depth int
	}
	return func(yield func(*Node[T]) bool) {
		n.freshenShape()
		var stack []frame
		descend := func(nd *Node[T], depth int) {
			for nd != nil && (maxDepth < 0 || depth <= maxDepth) {
				stack = append(stack, frame{nd, depth})
				nd = nd.left
				depth++
			}
		}
		for _, root := range []*Node[T]{n.left, n.right} {
			stack = stack[:0]
			descend(root, 1)
			for len(stack) > 0 {
				f := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if !yield(f.n) {
					return
				}
				descend(f.n.right, f.depth+1)
			}
		}
	}
}

// ParentsUntil walks parent links upward like Ancestors, unbounded, stopping
// after yielding stop if encountered. If stop is never found the full
// ancestor chain is yielded.
func (n *Node[T]) ParentsUntil(stop *Node[T]) iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		n.freshenShape()
		for p := n.parent; p != nil; p = p.parent {
			if !yield(p) {
				return
			}
			if stop != nil && p == stop {
				return
			}
		}
	}
}
