// Package ir defines the contract between graph nodes and the native-function
// builder their Compile methods emit instructions into.
//
// The builder is opaque to nodes: Value, Variable and Location are handles a
// FunctionEmitter implementation hands out, and nodes only sequence calls to
// the emission primitives. Loop and conditional bodies are emitted through
// synchronous callbacks, invoked exactly once per call site.
//
// The package also carries the Comparison policy shared by the interpreted
// and compiled evaluation paths, and the loop-vs-unroll strategy selector
// used by every node that emits per-element code.
package ir

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"golang.org/x/exp/constraints"
)

// Value is an opaque handle to an SSA-like value inside the function being
// built. It is only meaningful to the FunctionEmitter that created it.
type Value any

// Variable is an opaque handle to a mutable local scalar variable.
type Variable any

// Location is an opaque handle to a materialized buffer: a function
// parameter, an output buffer, or an embedded constant vector.
type Location any

// Comparison selects the predicate of an extremal reduction: Greater keeps
// the maximum, Less keeps the minimum. The same tag drives both the
// interpreted comparison and the emitted comparison instruction.
type Comparison int

const (
	ComparisonInvalid Comparison = iota

	// Greater selects the maximum.
	Greater

	// Less selects the minimum.
	Less
)

//go:generate go tool enumer -type Comparison -output=gen_comparison_enumer.go ir.go

// Better reports whether a beats b under cmp. The comparison is strict, so a
// scan that only updates its best-so-far when Better is true keeps the first
// occurrence on ties.
func Better[T constraints.Ordered](cmp Comparison, a, b T) bool {
	switch cmp {
	case Greater:
		return a > b
	case Less:
		return a < b
	}
	exceptions.Panicf("invalid Comparison %d", cmp)
	return false
}

// FunctionEmitter is the native-function builder nodes emit code into during
// the compile pass. It is an exclusively-owned, single-writer resource for
// the duration of the pass.
//
// All emission methods panic on structural misuse (foreign handles, dtype
// mismatches, emission after the function was finalized): a malformed graph
// must not silently emit incorrect code.
type FunctionEmitter interface {
	// Name of the function being built.
	Name() string

	// Parameter declares a named input buffer fed by the caller at runtime.
	Parameter(name string, dtype dtypes.DType, size int) Location

	// Buffer declares a named writable buffer, used for node outputs.
	Buffer(name string, dtype dtypes.DType, size int) Location

	// ConstantVector embeds a read-only coefficient table in the function.
	ConstantVector(name string, dtype dtypes.DType, values []float64) Location

	// Constant yields a scalar immediate of the given dtype.
	Constant(dtype dtypes.DType, value float64) Value

	// LocalScalar declares a mutable scalar local variable.
	LocalScalar(name string, dtype dtypes.DType) Variable

	// Load reads the current value of a local variable.
	Load(v Variable) Value

	// Store overwrites a local variable.
	Store(v Variable, value Value)

	// LoadElement reads buffer element loc[index]. index must be an integer
	// typed Value.
	LoadElement(loc Location, index Value) Value

	// StoreElement writes buffer element loc[index].
	StoreElement(loc Location, index Value, value Value)

	// Add emits a+b. Both operands must have the same dtype.
	Add(a, b Value) Value

	// Mul emits a*b. Both operands must have the same dtype.
	Mul(a, b Value) Value

	// Compare emits the comparison selected by cmp and yields a boolean Value.
	Compare(cmp Comparison, a, b Value) Value

	// For emits a counted loop running body count times, with the iteration
	// index (int32, starting at 0) passed as a Value. count is fixed at
	// emission time; count <= 0 emits a loop that never runs its body.
	For(count int, body func(index Value))

	// If emits a conditional guarding the instructions emitted by body.
	// cond must be a boolean Value (from Compare).
	If(cond Value, body func())
}
