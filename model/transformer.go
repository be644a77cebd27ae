package model

import (
	"github.com/gomlx/exceptions"
)

// Transformer rebuilds nodes inside a destination model while remapping
// output-port identities, so downstream consumers of a copied node relink to
// the copy's outputs. It is the facility compiler passes use to copy or
// rewrite graphs.
type Transformer struct {
	dst     *Model
	portMap map[Port]Port
}

// NewTransformer returns a Transformer targeting an empty destination model.
func NewTransformer() *Transformer {
	return &Transformer{
		dst:     New(),
		portMap: make(map[Port]Port),
	}
}

// CopyModel copies every node of src into a fresh model, in dependency order,
// relinking all upstream references through the output-port map.
func CopyModel(src *Model) *Model {
	t := NewTransformer()
	for _, n := range src.Nodes() {
		n.Copy(t)
	}
	return t.dst
}

// Destination returns the model being built.
func (t *Transformer) Destination() *Model { return t.dst }

// MapOutput registers copied as the image of original. Every node's Copy must
// map each of its output ports so downstream nodes can relink.
func (t *Transformer) MapOutput(original, copied Port) {
	if _, found := t.portMap[original]; found {
		exceptions.Panicf("model: output port %q of node #%d mapped twice by transformer",
			original.Name(), original.Node().ID())
	}
	t.portMap[original] = copied
}

// MappedOutput resolves the image of an original output port. Asking for an
// unmapped port means a node was copied before its producers, which is fatal.
func (t *Transformer) MappedOutput(original Port) Port {
	copied, found := t.portMap[original]
	if !found {
		exceptions.Panicf("model: output port %q of node #%d has no image: producer not copied yet",
			original.Name(), original.Node().ID())
	}
	return copied
}

// TransformElements remaps every range of elements through the transformer's
// output-port map, preserving offsets and composition order.
func TransformElements[T NumericConstraints](t *Transformer, elements PortElements[T]) PortElements[T] {
	parts := make([]PortElements[T], 0, len(elements.ranges))
	for _, r := range elements.ranges {
		mapped := t.MappedOutput(r.Source)
		source, ok := mapped.(*OutputPort[T])
		if !ok {
			exceptions.Panicf("model: image of output port %q has dtype %s, expected %s",
				r.Source.Name(), mapped.DType(), r.Source.DType())
		}
		parts = append(parts, OutputRange(source, r.Start, r.Count))
	}
	return Concat(parts...)
}
