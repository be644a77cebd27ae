package nodes

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/emgraph/emgraph/archives"
	"github.com/emgraph/emgraph/dsp"
	"github.com/emgraph/emgraph/ir"
	"github.com/emgraph/emgraph/model"
)

// FilterBankNode elementwise-multiplies its input frequency response against
// an owned, immutable set of filter weight vectors, producing one band energy
// per filter: output[j] = sum over k of input[k] * weights[j][k].
//
// Per filter, the summation runs left to right over the filter's non-zero
// support window; the compiled code accumulates in exactly the same order, so
// both paths agree bit for bit.
//
// The linear and mel variants differ only in how their coefficient table was
// designed (and hence in serialized type name), never in behavior.
type FilterBankNode[T model.FloatConstraints] struct {
	model.NodeBase
	bank   dsp.TriangleFilterBank
	input  *model.InputPort[T]
	output *model.OutputPort[T]
}

// NewLinearFilterBankNode creates a filter-bank node over a linearly spaced
// bank.
func NewLinearFilterBankNode[T model.FloatConstraints](m *model.Model, input model.PortElements[T], bank dsp.TriangleFilterBank) *FilterBankNode[T] {
	if bank.Spacing() != dsp.Linear {
		exceptions.Panicf("nodes: LinearFilterBankNode given a %s bank", bank.Spacing())
	}
	return newFilterBankNode(m, input, bank)
}

// NewMelFilterBankNode creates a filter-bank node over a mel-spaced bank.
func NewMelFilterBankNode[T model.FloatConstraints](m *model.Model, input model.PortElements[T], bank dsp.TriangleFilterBank) *FilterBankNode[T] {
	if bank.Spacing() != dsp.Mel {
		exceptions.Panicf("nodes: MelFilterBankNode given a %s bank", bank.Spacing())
	}
	return newFilterBankNode(m, input, bank)
}

func newFilterBankNode[T model.FloatConstraints](m *model.Model, input model.PortElements[T], bank dsp.TriangleFilterBank) *FilterBankNode[T] {
	if bank.NumFilters() < 1 {
		exceptions.Panicf("nodes: filter bank must have at least one filter")
	}
	if bank.NumBins() != input.Size() {
		exceptions.Panicf("nodes: filter bank is aligned to %d bins, input has %d elements",
			bank.NumBins(), input.Size())
	}
	// Own a private copy of the coefficient table.
	n := &FilterBankNode[T]{bank: dsp.FromWeights(bank.Spacing(), bank.WeightsMatrix())}
	n.NodeBase = model.NewNodeBase(m, n)
	n.input = model.NewInputPort(n, "input", input)
	n.output = model.NewOutputPort[T](n, "output", bank.NumFilters())
	return n
}

func filterBankKind(spacing dsp.Spacing) string {
	if spacing == dsp.Mel {
		return "MelFilterBankNode"
	}
	return "LinearFilterBankNode"
}

// Bank returns the owned coefficient table.
func (n *FilterBankNode[T]) Bank() dsp.TriangleFilterBank { return n.bank }

// Output returns the band-energies output port.
func (n *FilterBankNode[T]) Output() *model.OutputPort[T] { return n.output }

// TypeName implements model.Node.
func (n *FilterBankNode[T]) TypeName() string {
	return model.CompositeTypeName[T](filterBankKind(n.bank.Spacing()))
}

// InputPorts implements model.Node.
func (n *FilterBankNode[T]) InputPorts() []model.Port { return []model.Port{n.input} }

// OutputPorts implements model.Node.
func (n *FilterBankNode[T]) OutputPorts() []model.Port { return []model.Port{n.output} }

// Compute implements model.Node.
func (n *FilterBankNode[T]) Compute() {
	out := make([]T, n.bank.NumFilters())
	for j := range out {
		filter := n.bank.Filter(j)
		weights := filter.Weights()
		var acc T
		for k := filter.Begin(); k < filter.End(); k++ {
			acc += n.input.Value(k) * T(weights[k])
		}
		out[j] = acc
	}
	n.output.Set(out)
}

// Compile implements model.Node: one dot product per filter, each restricted
// to the filter's support window.
func (n *FilterBankNode[T]) Compile(c *model.Compiler, fn ir.FunctionEmitter) {
	if n.output.Size() != n.bank.NumFilters() {
		exceptions.Panicf("nodes: %s output has size %d, bank has %d filters",
			n.TypeName(), n.output.Size(), n.bank.NumFilters())
	}
	outLoc := c.AllocateOutput(n.output)
	dtype := n.output.DType()
	pure := n.input.IsPureVector()
	for j := 0; j < n.bank.NumFilters(); j++ {
		filter := n.bank.Filter(j)
		acc := fn.LocalScalar(fmt.Sprintf("band%02d_acc", j), dtype)
		fn.Store(acc, fn.Constant(dtype, 0))
		if filter.End() > filter.Begin() {
			if ir.Unrolled(pure && filter.ContiguousSupport(), c.Options()) {
				n.compileExpanded(c, fn, acc, filter)
			} else {
				n.compileLoop(c, fn, acc, filter, j)
			}
		}
		fn.StoreElement(outLoc, fn.Constant(dtypes.Int32, float64(j)), fn.Load(acc))
	}
}

// compileLoop emits a counted loop over the filter's support window, with the
// weights embedded as a constant vector. Valid when the input is a pure
// vector and the support has no interior zeros.
func (n *FilterBankNode[T]) compileLoop(c *model.Compiler, fn ir.FunctionEmitter, acc ir.Variable, filter dsp.Filter, j int) {
	elements := n.input.Elements()
	r := elements.Ranges()[0]
	inLoc := c.PortLocation(r.Source)
	weights := filter.Weights()[filter.Begin():filter.End()]
	coefLoc := fn.ConstantVector(fmt.Sprintf("n%03d_band%02d_weights", n.ID(), j), n.output.DType(), weights)
	base := fn.Constant(dtypes.Int32, float64(r.Start+filter.Begin()))
	fn.For(len(weights), func(i ir.Value) {
		w := fn.LoadElement(coefLoc, i)
		x := fn.LoadElement(inLoc, fn.Add(i, base))
		fn.Store(acc, fn.Add(fn.Load(acc), fn.Mul(x, w)))
	})
}

// compileExpanded emits one multiply-accumulate per supported element, with
// each weight as a scalar immediate and each input element individually
// addressed.
func (n *FilterBankNode[T]) compileExpanded(c *model.Compiler, fn ir.FunctionEmitter, acc ir.Variable, filter dsp.Filter) {
	elements := n.input.Elements()
	dtype := n.output.DType()
	weights := filter.Weights()
	for k := filter.Begin(); k < filter.End(); k++ {
		source, offset := elements.ResolveElement(k)
		x := fn.LoadElement(c.PortLocation(source), fn.Constant(dtypes.Int32, float64(offset)))
		fn.Store(acc, fn.Add(fn.Load(acc), fn.Mul(x, fn.Constant(dtype, weights[k]))))
	}
}

// WriteToArchive implements model.Node: the full coefficient table is owned
// state, persisted so a reloaded node reproduces identical output without
// re-running filter design.
func (n *FilterBankNode[T]) WriteToArchive(ar *archives.Archiver) {
	model.WriteElements(ar, "input", n.input.Elements())
	ar.Write("outputSize", n.output.Size())
	ar.Write("filters", n.bank.WeightsMatrix())
}

// Copy implements model.Node.
func (n *FilterBankNode[T]) Copy(t *model.Transformer) {
	input := model.TransformElements(t, n.input.Elements())
	copied := newFilterBankNode(t.Destination(), input, n.bank)
	t.MapOutput(n.output, copied.output)
}

func registerFilterBankNode[T model.FloatConstraints](spacing dsp.Spacing) {
	model.RegisterNodeType(model.CompositeTypeName[T](filterBankKind(spacing)),
		func(m *model.Model, u *archives.Unarchiver, resolver *model.PortResolver) (model.Node, error) {
			input, err := model.ReadElements[T](u, resolver, "input")
			if err != nil {
				return nil, err
			}
			var outputSize int
			if err := u.Read("outputSize", &outputSize); err != nil {
				return nil, err
			}
			var weights [][]float64
			if err := u.Read("filters", &weights); err != nil {
				return nil, err
			}
			if outputSize != len(weights) {
				return nil, errors.Errorf("filter bank has %d filters but declares output size %d",
					len(weights), outputSize)
			}
			return newFilterBankNode[T](m, input, dsp.FromWeights(spacing, weights)), nil
		})
}

func init() {
	registerFilterBankNode[float32](dsp.Linear)
	registerFilterBankNode[float64](dsp.Linear)
	registerFilterBankNode[float32](dsp.Mel)
	registerFilterBankNode[float64](dsp.Mel)
}
