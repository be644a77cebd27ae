package model

import (
	"github.com/gomlx/exceptions"

	"github.com/emgraph/emgraph/archives"
	"github.com/emgraph/emgraph/ir"
)

// InputNode feeds externally supplied values into the graph. Under
// interpretation the values are set with SetValues before Model.Compute;
// under compilation it becomes a named function parameter.
type InputNode[T NumericConstraints] struct {
	NodeBase
	name string
	out  *OutputPort[T]
}

// NewInputNode creates an input of the given fixed size. name must be unique
// within the model: it is the compiled function's parameter name.
func NewInputNode[T NumericConstraints](m *Model, name string, size int) *InputNode[T] {
	if size < 1 {
		exceptions.Panicf("model: input %q must have size >= 1, got %d", name, size)
	}
	n := &InputNode[T]{name: name}
	n.NodeBase = NewNodeBase(m, n)
	n.out = NewOutputPort[T](n, "output", size)
	return n
}

// Name of the input, also the compiled parameter name.
func (n *InputNode[T]) Name() string { return n.name }

// Output returns the port downstream nodes wire to.
func (n *InputNode[T]) Output() *OutputPort[T] { return n.out }

// SetValues feeds the input before interpretation.
func (n *InputNode[T]) SetValues(values []T) { n.out.Set(values) }

// TypeName implements Node.
func (n *InputNode[T]) TypeName() string { return CompositeTypeName[T]("InputNode") }

// InputPorts implements Node.
func (n *InputNode[T]) InputPorts() []Port { return nil }

// OutputPorts implements Node.
func (n *InputNode[T]) OutputPorts() []Port { return []Port{n.out} }

// Compute implements Node. Values are fed externally, nothing to do.
func (n *InputNode[T]) Compute() {}

// Compile implements Node: the input becomes a function parameter.
func (n *InputNode[T]) Compile(c *Compiler, fn ir.FunctionEmitter) {
	c.BindOutput(n.out, fn.Parameter(n.name, n.out.DType(), n.out.Size()))
}

// WriteToArchive implements Node.
func (n *InputNode[T]) WriteToArchive(ar *archives.Archiver) {
	ar.Write("name", n.name)
	ar.Write("size", n.out.Size())
}

// Copy implements Node.
func (n *InputNode[T]) Copy(t *Transformer) {
	copied := NewInputNode[T](t.Destination(), n.name, n.out.Size())
	t.MapOutput(n.out, copied.out)
}

func registerInputNode[T NumericConstraints]() {
	RegisterNodeType(CompositeTypeName[T]("InputNode"),
		func(m *Model, u *archives.Unarchiver, _ *PortResolver) (Node, error) {
			var name string
			var size int
			if err := u.Read("name", &name); err != nil {
				return nil, err
			}
			if err := u.Read("size", &size); err != nil {
				return nil, err
			}
			return NewInputNode[T](m, name, size), nil
		})
}

func init() {
	registerInputNode[float32]()
	registerInputNode[float64]()
	registerInputNode[int32]()
	registerInputNode[int64]()
}
