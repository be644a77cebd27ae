package model

import (
	"encoding/json"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/emgraph/emgraph/archives"
)

// documentVersion is bumped whenever the model document layout changes.
const documentVersion = 1

// archivedRange is the serialized form of one range of upstream elements.
type archivedRange struct {
	Node  NodeID `json:"node"`
	Port  string `json:"port"`
	Start int    `json:"start"`
	Count int    `json:"count"`
}

type archivedNode struct {
	ID     NodeID                     `json:"id"`
	Type   string                     `json:"type"`
	Fields map[string]json.RawMessage `json:"fields"`
}

type document struct {
	Version int            `json:"version"`
	Nodes   []archivedNode `json:"nodes"`
}

// NodeFactory reconstructs one node of a registered type from its archived
// fields. It must re-establish all construction invariants: a model restored
// from a document is as validated as a freshly built one.
type NodeFactory func(m *Model, u *archives.Unarchiver, resolver *PortResolver) (Node, error)

var nodeRegistry = make(map[string]NodeFactory)

// RegisterNodeType registers the factory for a serialized type name.
// Call it from init; registering the same name twice panics.
func RegisterNodeType(typeName string, factory NodeFactory) {
	if _, found := nodeRegistry[typeName]; found {
		exceptions.Panicf("model: node type %q registered twice", typeName)
	}
	nodeRegistry[typeName] = factory
}

// Save serializes the model into a self-contained JSON document. Every node
// writes its ports and owned constant state through the archives contract, so
// Load reproduces a model that computes identically without re-running any
// upstream design step.
func Save(m *Model) ([]byte, error) {
	doc := document{Version: documentVersion}
	for _, n := range m.nodes {
		ar := archives.NewArchiver()
		n.WriteToArchive(ar)
		fields, err := ar.Fields()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to archive node #%d (%s)", n.ID(), n.TypeName())
		}
		doc.Nodes = append(doc.Nodes, archivedNode{ID: n.ID(), Type: n.TypeName(), Fields: fields})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode model document")
	}
	return data, nil
}

// Load rebuilds a model from a document produced by Save. Unknown node types,
// missing fields and broken linkage are data corruption: the load fails, it
// never defaults.
func Load(data []byte) (*Model, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode model document")
	}
	if doc.Version != documentVersion {
		return nil, errors.Errorf("unsupported model document version %d, expected %d",
			doc.Version, documentVersion)
	}
	m := New()
	resolver := &PortResolver{nodes: make(map[NodeID]Node)}
	for _, an := range doc.Nodes {
		factory, found := nodeRegistry[an.Type]
		if !found {
			return nil, errors.Errorf("model document contains unknown node type %q", an.Type)
		}
		n, err := restoreNode(factory, m, archives.NewUnarchiver(an.Fields), resolver)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to restore node #%d of type %q", an.ID, an.Type)
		}
		resolver.nodes[an.ID] = n
		klog.V(2).Infof("model: restored node #%d (%s)", n.ID(), an.Type)
	}
	return m, nil
}

// restoreNode converts construction panics into load errors: a corrupted
// document can violate construction invariants, and that must surface as a
// load failure, not take down the caller.
func restoreNode(factory NodeFactory, m *Model, u *archives.Unarchiver, resolver *PortResolver) (n Node, err error) {
	caught := exceptions.TryCatch[error](func() {
		n, err = factory(m, u, resolver)
	})
	if caught != nil {
		return nil, caught
	}
	return n, err
}

// PortResolver resolves archived port references against the prefix of the
// document already restored. Documents store nodes in dependency order, so a
// valid reference always points backwards.
type PortResolver struct {
	nodes map[NodeID]Node
}

func (r *PortResolver) outputPort(id NodeID, name string) (Port, error) {
	n, found := r.nodes[id]
	if !found {
		return nil, errors.Errorf("linkage references node #%d, which is not defined earlier in the document", id)
	}
	p := outputPortByName(n, name)
	if p == nil {
		return nil, errors.Errorf("node #%d (%s) has no output port %q", id, n.TypeName(), name)
	}
	return p, nil
}

// WriteElements archives an input port's upstream linkage under the given
// field name, as a list of (node, port, start, count) range specs.
func WriteElements[T NumericConstraints](ar *archives.Archiver, name string, elements PortElements[T]) {
	specs := make([]archivedRange, 0, len(elements.ranges))
	for _, r := range elements.ranges {
		specs = append(specs, archivedRange{
			Node:  r.Source.Node().ID(),
			Port:  r.Source.Name(),
			Start: r.Start,
			Count: r.Count,
		})
	}
	ar.Write(name, specs)
}

// ReadElements restores linkage archived with WriteElements, re-resolving
// each range against the already-restored nodes.
func ReadElements[T NumericConstraints](u *archives.Unarchiver, resolver *PortResolver, name string) (PortElements[T], error) {
	var specs []archivedRange
	if err := u.Read(name, &specs); err != nil {
		return PortElements[T]{}, err
	}
	parts := make([]PortElements[T], 0, len(specs))
	for _, spec := range specs {
		port, err := resolver.outputPort(spec.Node, spec.Port)
		if err != nil {
			return PortElements[T]{}, errors.Wrapf(err, "field %q", name)
		}
		source, ok := port.(*OutputPort[T])
		if !ok {
			return PortElements[T]{}, errors.Errorf("field %q: output %q of node #%d is %s, expected %s",
				name, spec.Port, spec.Node, port.DType(), dtypes.FromGenericsType[T]())
		}
		if spec.Start < 0 || spec.Count < 1 || spec.Start+spec.Count > source.Size() {
			return PortElements[T]{}, errors.Errorf("field %q: range [%d, %d) out of bounds of output %q (size %d)",
				name, spec.Start, spec.Start+spec.Count, spec.Port, source.Size())
		}
		parts = append(parts, OutputRange(source, spec.Start, spec.Count))
	}
	return Concat(parts...), nil
}
