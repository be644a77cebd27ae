package model

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// Port is the common view of a node's typed, fixed-size data slot, input or
// output. The Node back reference is observational, a port never owns its
// node.
type Port interface {
	// Name of the port, unique among the ports of its node.
	Name() string

	// DType of the port's elements.
	DType() dtypes.DType

	// Size is the fixed element count, set at construction.
	Size() int

	// Node owning this port.
	Node() Node
}

// OutputPort is a node's output: it owns its computed buffer for the lifetime
// of the node.
type OutputPort[T NumericConstraints] struct {
	name string
	node Node
	data []T
}

// NewOutputPort creates an output port with a zero-filled buffer of the given
// fixed size. Called by node constructors.
func NewOutputPort[T NumericConstraints](node Node, name string, size int) *OutputPort[T] {
	if size < 1 {
		exceptions.Panicf("model: output port %q must have size >= 1, got %d", name, size)
	}
	return &OutputPort[T]{name: name, node: node, data: make([]T, size)}
}

// Name implements Port.
func (p *OutputPort[T]) Name() string { return p.name }

// DType implements Port.
func (p *OutputPort[T]) DType() dtypes.DType { return dtypes.FromGenericsType[T]() }

// Size implements Port.
func (p *OutputPort[T]) Size() int { return len(p.data) }

// Node implements Port.
func (p *OutputPort[T]) Node() Node { return p.node }

// Data returns the live computed buffer.
func (p *OutputPort[T]) Data() []T { return p.data }

// Set overwrites the computed buffer. values must match the port size.
func (p *OutputPort[T]) Set(values []T) {
	if len(values) != len(p.data) {
		exceptions.Panicf("model: output port %q has size %d, got %d values",
			p.name, len(p.data), len(values))
	}
	copy(p.data, values)
}

// PortRange is a contiguous slice [Start, Start+Count) of one output port.
type PortRange[T NumericConstraints] struct {
	Source *OutputPort[T]
	Start  int
	Count  int
}

// PortElements is what an input port observes: an ordered composition of
// ranges over upstream output ports. A single range is a "pure vector" (one
// contiguous block of storage); anything else is an indirect view whose
// elements must be addressed individually.
//
// PortElements never owns the referenced outputs.
type PortElements[T NumericConstraints] struct {
	ranges []PortRange[T]
}

// FullOutput returns elements covering the whole of an output port.
func FullOutput[T NumericConstraints](port *OutputPort[T]) PortElements[T] {
	return OutputRange(port, 0, port.Size())
}

// OutputRange returns elements covering [start, start+count) of an output
// port.
func OutputRange[T NumericConstraints](port *OutputPort[T], start, count int) PortElements[T] {
	if start < 0 || count < 1 || start+count > port.Size() {
		exceptions.Panicf("model: range [%d, %d) out of bounds of output port %q (size %d)",
			start, start+count, port.Name(), port.Size())
	}
	return PortElements[T]{ranges: []PortRange[T]{{Source: port, Start: start, Count: count}}}
}

// Concat composes elements left-to-right.
func Concat[T NumericConstraints](parts ...PortElements[T]) PortElements[T] {
	var combined PortElements[T]
	for _, part := range parts {
		combined.ranges = append(combined.ranges, part.ranges...)
	}
	return combined
}

// Size is the total element count.
func (e PortElements[T]) Size() int {
	total := 0
	for _, r := range e.ranges {
		total += r.Count
	}
	return total
}

// DType of the referenced elements.
func (e PortElements[T]) DType() dtypes.DType { return dtypes.FromGenericsType[T]() }

// IsPureVector reports whether the elements are one contiguous block of a
// single output port, which allows loop-based code generation.
func (e PortElements[T]) IsPureVector() bool { return len(e.ranges) == 1 }

// Value reads element i through the composition.
func (e PortElements[T]) Value(i int) T {
	source, offset := e.resolve(i)
	return source.data[offset]
}

// ResolveElement maps element i to its source output port and the offset
// within that port's buffer. Used by unrolled code generation, where each
// element's source is statically known.
func (e PortElements[T]) ResolveElement(i int) (Port, int) {
	source, offset := e.resolve(i)
	return source, offset
}

func (e PortElements[T]) resolve(i int) (*OutputPort[T], int) {
	if i >= 0 {
		remaining := i
		for _, r := range e.ranges {
			if remaining < r.Count {
				return r.Source, r.Start + remaining
			}
			remaining -= r.Count
		}
	}
	exceptions.Panicf("model: element index %d out of range [0, %d)", i, e.Size())
	return nil, 0
}

// ResolvedRange is the type-erased view of one range, for code generation and
// serialization.
type ResolvedRange struct {
	Source Port
	Start  int
	Count  int
}

// Ranges returns the type-erased composition.
func (e PortElements[T]) Ranges() []ResolvedRange {
	resolved := make([]ResolvedRange, len(e.ranges))
	for i, r := range e.ranges {
		resolved[i] = ResolvedRange{Source: r.Source, Start: r.Start, Count: r.Count}
	}
	return resolved
}

// InputPort is a node's named handle to upstream elements. It observes, never
// owns, the upstream outputs.
type InputPort[T NumericConstraints] struct {
	name     string
	node     Node
	elements PortElements[T]
}

// NewInputPort creates an input port referencing the given upstream elements.
// Called by node constructors.
func NewInputPort[T NumericConstraints](node Node, name string, elements PortElements[T]) *InputPort[T] {
	return &InputPort[T]{name: name, node: node, elements: elements}
}

// Name implements Port.
func (p *InputPort[T]) Name() string { return p.name }

// DType implements Port.
func (p *InputPort[T]) DType() dtypes.DType { return dtypes.FromGenericsType[T]() }

// Size implements Port.
func (p *InputPort[T]) Size() int { return p.elements.Size() }

// Node implements Port.
func (p *InputPort[T]) Node() Node { return p.node }

// Elements returns the upstream composition this port observes.
func (p *InputPort[T]) Elements() PortElements[T] { return p.elements }

// IsPureVector reports whether the observed elements are one contiguous block.
func (p *InputPort[T]) IsPureVector() bool { return p.elements.IsPureVector() }

// Value reads element i of the observed elements.
func (p *InputPort[T]) Value(i int) T { return p.elements.Value(i) }
