// Package nodes implements the concrete computation-graph nodes: the
// extremal-value reduction (ArgMax/ArgMin) and the filter-bank family.
//
// Every node here honors the dual-execution contract of package model: its
// Compile emission, run on any conforming backend, produces exactly the
// values its Compute produces. Code generation picks between a runtime loop
// and fully unrolled emission through ir.Unrolled, driven by whether the
// operand is a pure contiguous vector and by the global unroll option.
package nodes

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/emgraph/emgraph/archives"
	"github.com/emgraph/emgraph/ir"
	"github.com/emgraph/emgraph/model"
)

// ExtremalValueNode reduces its input vector to the best value under its
// comparison (maximum for Greater, minimum for Less) and the 0-based position
// of the first element achieving it.
//
// Outputs: "val" (size 1, element type T) and "argVal" (size 1, int32).
type ExtremalValueNode[T model.NumericConstraints] struct {
	model.NodeBase
	cmp    ir.Comparison
	input  *model.InputPort[T]
	val    *model.OutputPort[T]
	argVal *model.OutputPort[int32]
}

// NewArgMaxNode creates the maximum-selecting variant.
func NewArgMaxNode[T model.NumericConstraints](m *model.Model, input model.PortElements[T]) *ExtremalValueNode[T] {
	return newExtremalValueNode(m, input, ir.Greater)
}

// NewArgMinNode creates the minimum-selecting variant.
func NewArgMinNode[T model.NumericConstraints](m *model.Model, input model.PortElements[T]) *ExtremalValueNode[T] {
	return newExtremalValueNode(m, input, ir.Less)
}

func newExtremalValueNode[T model.NumericConstraints](m *model.Model, input model.PortElements[T], cmp ir.Comparison) *ExtremalValueNode[T] {
	if input.Size() < 1 {
		exceptions.Panicf("nodes: %s input must have at least one element", extremalKind(cmp))
	}
	n := &ExtremalValueNode[T]{cmp: cmp}
	n.NodeBase = model.NewNodeBase(m, n)
	n.input = model.NewInputPort(n, "input", input)
	n.val = model.NewOutputPort[T](n, "val", 1)
	n.argVal = model.NewOutputPort[int32](n, "argVal", 1)
	return n
}

func extremalKind(cmp ir.Comparison) string {
	if cmp == ir.Greater {
		return "ArgMaxNode"
	}
	return "ArgMinNode"
}

// Comparison returns the node's max/min tag.
func (n *ExtremalValueNode[T]) Comparison() ir.Comparison { return n.cmp }

// Val returns the best-value output port.
func (n *ExtremalValueNode[T]) Val() *model.OutputPort[T] { return n.val }

// ArgVal returns the best-index output port.
func (n *ExtremalValueNode[T]) ArgVal() *model.OutputPort[int32] { return n.argVal }

// TypeName implements model.Node.
func (n *ExtremalValueNode[T]) TypeName() string {
	return model.CompositeTypeName[T](extremalKind(n.cmp))
}

// InputPorts implements model.Node.
func (n *ExtremalValueNode[T]) InputPorts() []model.Port { return []model.Port{n.input} }

// OutputPorts implements model.Node.
func (n *ExtremalValueNode[T]) OutputPorts() []model.Port { return []model.Port{n.val, n.argVal} }

// Compute implements model.Node: a single scan with strict comparisons, so
// ties keep the first occurrence.
func (n *ExtremalValueNode[T]) Compute() {
	best := n.input.Value(0)
	bestIndex := 0
	size := n.input.Size()
	for i := 1; i < size; i++ {
		if v := n.input.Value(i); ir.Better(n.cmp, v, best) {
			best = v
			bestIndex = i
		}
	}
	n.val.Set([]T{best})
	n.argVal.Set([]int32{int32(bestIndex)})
}

// Compile implements model.Node.
func (n *ExtremalValueNode[T]) Compile(c *model.Compiler, fn ir.FunctionEmitter) {
	if n.val.Size() != 1 || n.argVal.Size() != 1 {
		exceptions.Panicf("nodes: %s outputs must be scalar, got val=%d argVal=%d",
			n.TypeName(), n.val.Size(), n.argVal.Size())
	}
	valLoc := c.AllocateOutput(n.val)
	argValLoc := c.AllocateOutput(n.argVal)

	elements := n.input.Elements()
	bestVal := fn.LocalScalar("best_value", n.val.DType())
	bestIndex := fn.LocalScalar("best_index", dtypes.Int32)

	// Initialize the running best from element 0 at index 0.
	source0, offset0 := elements.ResolveElement(0)
	fn.Store(bestVal, fn.LoadElement(c.PortLocation(source0), fn.Constant(dtypes.Int32, float64(offset0))))
	fn.Store(bestIndex, fn.Constant(dtypes.Int32, 0))

	if ir.Unrolled(elements.IsPureVector(), c.Options()) {
		n.compileExpanded(c, fn, bestVal, bestIndex)
	} else {
		n.compileLoop(c, fn, bestVal, bestIndex)
	}

	first := fn.Constant(dtypes.Int32, 0)
	fn.StoreElement(valLoc, first, fn.Load(bestVal))
	fn.StoreElement(argValLoc, first, fn.Load(bestIndex))
}

// compileLoop emits a single counted loop over elements 1..N-1. Only valid
// for pure-vector inputs: the loop body addresses one contiguous buffer.
// Code size is independent of N; N=1 emits a loop that never runs.
func (n *ExtremalValueNode[T]) compileLoop(c *model.Compiler, fn ir.FunctionEmitter, bestVal, bestIndex ir.Variable) {
	elements := n.input.Elements()
	r := elements.Ranges()[0]
	inLoc := c.PortLocation(r.Source)
	fn.For(elements.Size()-1, func(i ir.Value) {
		index := fn.Add(i, fn.Constant(dtypes.Int32, 1))
		element := fn.LoadElement(inLoc, fn.Add(i, fn.Constant(dtypes.Int32, float64(r.Start+1))))
		better := fn.Compare(n.cmp, element, fn.Load(bestVal))
		fn.If(better, func() {
			fn.Store(bestVal, element)
			fn.Store(bestIndex, index)
		})
	})
}

// compileExpanded emits one compare-and-conditionally-store sequence per
// element, each referencing its statically-known source. Used when the input
// is a composed view or when unrolling was requested.
func (n *ExtremalValueNode[T]) compileExpanded(c *model.Compiler, fn ir.FunctionEmitter, bestVal, bestIndex ir.Variable) {
	elements := n.input.Elements()
	size := elements.Size()
	for i := 1; i < size; i++ {
		source, offset := elements.ResolveElement(i)
		element := fn.LoadElement(c.PortLocation(source), fn.Constant(dtypes.Int32, float64(offset)))
		better := fn.Compare(n.cmp, element, fn.Load(bestVal))
		fn.If(better, func() {
			fn.Store(bestVal, element)
			fn.Store(bestIndex, fn.Constant(dtypes.Int32, float64(i)))
		})
	}
}

// WriteToArchive implements model.Node. The node owns no constant state, only
// its linkage and declared output sizes.
func (n *ExtremalValueNode[T]) WriteToArchive(ar *archives.Archiver) {
	model.WriteElements(ar, "input", n.input.Elements())
	ar.Write("valSize", n.val.Size())
	ar.Write("argValSize", n.argVal.Size())
}

// Copy implements model.Node.
func (n *ExtremalValueNode[T]) Copy(t *model.Transformer) {
	input := model.TransformElements(t, n.input.Elements())
	copied := newExtremalValueNode(t.Destination(), input, n.cmp)
	t.MapOutput(n.val, copied.val)
	t.MapOutput(n.argVal, copied.argVal)
}

func registerExtremalValueNode[T model.NumericConstraints](cmp ir.Comparison) {
	model.RegisterNodeType(model.CompositeTypeName[T](extremalKind(cmp)),
		func(m *model.Model, u *archives.Unarchiver, resolver *model.PortResolver) (model.Node, error) {
			input, err := model.ReadElements[T](u, resolver, "input")
			if err != nil {
				return nil, err
			}
			var valSize, argValSize int
			if err := u.Read("valSize", &valSize); err != nil {
				return nil, err
			}
			if err := u.Read("argValSize", &argValSize); err != nil {
				return nil, err
			}
			if valSize != 1 || argValSize != 1 {
				return nil, errors.Errorf("extremal-value outputs must be scalar, got valSize=%d argValSize=%d",
					valSize, argValSize)
			}
			return newExtremalValueNode(m, input, cmp), nil
		})
}

func init() {
	registerExtremalValueNode[float32](ir.Greater)
	registerExtremalValueNode[float64](ir.Greater)
	registerExtremalValueNode[int32](ir.Greater)
	registerExtremalValueNode[int64](ir.Greater)
	registerExtremalValueNode[float32](ir.Less)
	registerExtremalValueNode[float64](ir.Less)
	registerExtremalValueNode[int32](ir.Less)
	registerExtremalValueNode[int64](ir.Less)
}
