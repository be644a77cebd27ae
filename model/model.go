// Package model holds the computation-graph container and the dual-execution
// node abstraction: every node can be interpreted in place (Compute) or can
// emit equivalent native code into an ir.FunctionEmitter (Compile), and the
// two must produce identical results for identical inputs.
//
// A Model is built by constructing nodes wired to already-constructed
// upstream output ports, so the node list is a natural dependency ordering:
// Compute runs it front to back, and the compile pass emits in the same
// order. The package also provides graph copying (Transformer) and a
// self-contained JSON model document (Save/Load) backed by the archives
// keyed contract.
package model

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/emgraph/emgraph/archives"
	"github.com/emgraph/emgraph/ir"
)

// NumericConstraints are the Go element types ports can carry.
type NumericConstraints interface {
	int32 | int64 | float32 | float64
}

// FloatConstraints restricts to the floating-point element types.
type FloatConstraints interface {
	float32 | float64
}

// NodeID identifies a node within its Model. IDs are dense and assigned in
// construction order.
type NodeID int32

// Node is the capability set every graph node implements. The graph driver
// only ever holds this interface, never concrete node types.
//
// Topology is immutable after construction: ports are fixed, only computed
// output values change. Compute and Compile of the same node must agree for
// every input; that contract is what the whole core exists to satisfy.
type Node interface {
	// ID of the node within its Model.
	ID() NodeID

	// Model returns the owning Model.
	Model() *Model

	// TypeName is the node's serialized type name, e.g. "ArgMaxNode[Float32]".
	TypeName() string

	// InputPorts of the node, if any.
	InputPorts() []Port

	// OutputPorts of the node.
	OutputPorts() []Port

	// Compute evaluates the node in place, reading upstream outputs and
	// writing this node's output ports. Producers run before consumers.
	Compute()

	// Compile emits native code equivalent to Compute into fn. Called exactly
	// once per node during a single-threaded compile pass.
	Compile(c *Compiler, fn ir.FunctionEmitter)

	// WriteToArchive persists the node's ports and owned constant state.
	WriteToArchive(ar *archives.Archiver)

	// Copy reconstructs the node inside the transformer's destination model,
	// re-resolving input linkage and registering its outputs' images.
	Copy(t *Transformer)
}

// NodeBase carries the identity shared by all node implementations; embed it
// and initialize it with NewNodeBase as the first step of construction.
type NodeBase struct {
	id    NodeID
	model *Model
}

// NewNodeBase registers n into m and returns the base to embed. Node
// constructors must validate their inputs before calling it.
func NewNodeBase(m *Model, n Node) NodeBase {
	if m == nil {
		exceptions.Panicf("model: node constructed with a nil Model")
	}
	return NodeBase{id: m.add(n), model: m}
}

// ID implements Node.
func (b NodeBase) ID() NodeID { return b.id }

// Model implements Node.
func (b NodeBase) Model() *Model { return b.model }

// Model is the graph container: an append-only list of nodes in dependency
// order.
type Model struct {
	nodes []Node
}

// New returns an empty Model.
func New() *Model {
	return &Model{}
}

func (m *Model) add(n Node) NodeID {
	id := NodeID(len(m.nodes))
	m.nodes = append(m.nodes, n)
	return id
}

// Nodes returns the nodes in dependency (construction) order.
func (m *Model) Nodes() []Node { return m.nodes }

// NumNodes returns the node count.
func (m *Model) NumNodes() int { return len(m.nodes) }

// Node returns the node with the given ID.
func (m *Model) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(m.nodes) {
		exceptions.Panicf("model: node #%d out of range [0, %d)", id, len(m.nodes))
	}
	return m.nodes[id]
}

// Compute evaluates every node in dependency order. Input values must have
// been fed to the InputNodes beforehand.
func (m *Model) Compute() {
	for _, n := range m.nodes {
		n.Compute()
	}
}

// CompositeTypeName builds the serialized type name of a node kind
// instantiated for the element type T, e.g. CompositeTypeName[float32]
// ("ArgMaxNode") == "ArgMaxNode[Float32]".
func CompositeTypeName[T NumericConstraints](kind string) string {
	return fmt.Sprintf("%s[%s]", kind, dtypes.FromGenericsType[T]())
}

func outputPortByName(n Node, name string) Port {
	for _, p := range n.OutputPorts() {
		if p.Name() == name {
			return p
		}
	}
	return nil
}
