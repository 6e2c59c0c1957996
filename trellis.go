package trellis

import (
	"log/slog"
	"reflect"
	"time"
)

// DefaultRebuildDelay is how long a tree waits after a structural mutation
// before rebuilding the derived shape in the background. Any read that needs
// the shape rebuilds it immediately instead of waiting.
const DefaultRebuildDelay = 30 * time.Second

// SameFunc reports whether two values are the same under a tree's equality
// criterion. Two live nodes of a tree never compare as same.
type SameFunc[T any] func(a, b T) bool

// BeforeFunc reports whether a orders strictly before b under a tree's
// ordering criterion.
type BeforeFunc[T any] func(a, b T) bool

// Options configures a Tree.
type Options[T any] struct {
	// IsSameValue is the equality criterion. Nil selects the default:
	// language identity for comparable values, never-equal otherwise.
	IsSameValue SameFunc[T]

	// IsValueBefore is the ordering criterion. Nil selects the default:
	// "<" for strings and numeric kinds, never-before otherwise (values of
	// other types are effectively append-only).
	IsValueBefore BeforeFunc[T]

	// RebuildDelay overrides DefaultRebuildDelay. Zero keeps the default;
	// a negative value disables deferred rebuilds entirely, leaving the
	// shape to be rebuilt on demand by shape-reading operations.
	RebuildDelay time.Duration

	// Logger receives debug-level events (rebuilds, bulk replacement,
	// cleanup). Nil disables logging.
	Logger *slog.Logger
}

// New creates a tree from the given values, sorted and deduplicated under the
// default criteria. Each value is wrapped in a new live node.
func New[T any](values ...T) *Tree[T] {
	return NewWithOptions(values, Options[T]{})
}

// NewWithOptions creates a tree from the given values using the supplied
// options.
func NewWithOptions[T any](values []T, options Options[T]) *Tree[T] {
	t := &Tree[T]{
		initialized:  true,
		rebuildDelay: DefaultRebuildDelay,
		cleanupWatch: make(map[*Node[T]]struct{}),
		logger:       options.Logger,
	}

	t.isSame = options.IsSameValue
	if t.isSame == nil {
		t.isSame = Identical[T]
		t.sameIsDefault = true
	}
	t.isBefore = options.IsValueBefore
	if t.isBefore == nil {
		t.isBefore = OrderedBefore[T]
		t.beforeIsDefault = true
	}

	if options.RebuildDelay != 0 {
		t.rebuildDelay = options.RebuildDelay
	}

	if len(values) > 0 {
		t.mu.Lock()
		t.replaceValuesLocked(values)
		t.mu.Unlock()
	}
	return t
}

// IsValidTree reports whether t is a tree created by New. Used to validate
// caller-supplied tree arguments before trusting them.
func IsValidTree[T any](t *Tree[T]) bool {
	return t != nil && t.initialized
}

// IsValidNode reports whether n is a node created by a tree. Nodes cannot be
// constructed directly.
func IsValidNode[T any](n *Node[T]) bool {
	return n != nil && n.created
}

// Identical is the default equality criterion: it reports whether a and b are
// identical under the language's own equality. Values that are not comparable
// are never identical.
func Identical[T any](a, b T) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}

// OrderedBefore is the default ordering criterion: "<" for strings and
// numeric kinds. Values of any other kind never order before one another.
func OrderedBefore[T any](a, b T) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Kind() != vb.Kind() {
		return false
	}
	switch va.Kind() {
	case reflect.String:
		return va.String() < vb.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return va.Int() < vb.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return va.Uint() < vb.Uint()
	case reflect.Float32, reflect.Float64:
		return va.Float() < vb.Float()
	}
	return false
}

// funcIdentity reports whether two criterion functions are the same function.
func funcIdentity(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.IsNil() || vb.IsNil() {
		return false
	}
	return va.Pointer() == vb.Pointer()
}
