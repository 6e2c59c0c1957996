// Package trellis provides a self-balancing, array-backed binary search tree
// holding an ordered, deduplicated collection of values, with node handles
// whose lifecycle (live, detached, free) is explicitly tracked and survives
// mutations of the owning tree.
package trellis

import "errors"

// Node argument errors
var (
	// ErrInvalidNode indicates that a caller-supplied node was not created
	// by a tree.
	ErrInvalidNode = errors.New("invalid node")

	// ErrTreeMismatch indicates that a node belongs to a different tree
	// than the one being operated on.
	ErrTreeMismatch = errors.New("tree mismatch")
)

// Node lifecycle errors
var (
	// ErrNoTree indicates an attempt to join a node that has no owning tree.
	ErrNoTree = errors.New("cannot join: no tree")

	// ErrUnsetTree indicates an attempt to clear a node's tree association
	// directly; association must be released through Free.
	ErrUnsetTree = errors.New("cannot directly unset tree")

	// ErrInvalidTree indicates an attempt to attach a node to a tree that
	// was not created by New.
	ErrInvalidTree = errors.New("cannot attach to invalid tree")
)

// Traversal option errors
var (
	// ErrInvalidDirection indicates an unknown traversal direction.
	ErrInvalidDirection = errors.New("invalid traversal direction")

	// ErrInvalidOrder indicates an unknown traversal order.
	ErrInvalidOrder = errors.New("invalid traversal order")

	// ErrInvalidStart indicates a traversal start index outside the tree.
	ErrInvalidStart = errors.New("invalid traversal start")

	// ErrInvalidMaxLength indicates a negative traversal length cap.
	ErrInvalidMaxLength = errors.New("invalid traversal maxLength")
)
