package model

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/emgraph/emgraph/ir"
)

// Compiler drives the single code-generation pass over a Model: it calls
// Compile exactly once per node, in dependency order, and tracks the native
// location each output port was materialized at so consumers can resolve
// their upstream operands.
//
// The pass is single-threaded and fn is exclusively owned for its duration.
// Any failure is a hard error (panic) aborting the pass: a malformed graph
// must not silently emit incorrect code.
type Compiler struct {
	model     *Model
	fn        ir.FunctionEmitter
	options   ir.CompileOptions
	locations map[Port]ir.Location
}

// Compile runs the compile pass, emitting the whole model into fn. It returns
// the Compiler so callers can look up the emitted locations of output ports.
func Compile(m *Model, fn ir.FunctionEmitter, options ir.CompileOptions) *Compiler {
	c := &Compiler{
		model:     m,
		fn:        fn,
		options:   options,
		locations: make(map[Port]ir.Location),
	}
	for _, n := range m.nodes {
		klog.V(1).Infof("model: compiling node #%d (%s) into function %q", n.ID(), n.TypeName(), fn.Name())
		n.Compile(c, fn)
	}
	return c
}

// Options returns the global code-generation options of this pass.
func (c *Compiler) Options() ir.CompileOptions { return c.options }

func portBufferName(p Port) string {
	return fmt.Sprintf("n%03d_%s", p.Node().ID(), p.Name())
}

// AllocateOutput declares the native buffer backing one of the current node's
// output ports. Each output port is allocated exactly once.
func (c *Compiler) AllocateOutput(p Port) ir.Location {
	if _, found := c.locations[p]; found {
		exceptions.Panicf("model: output port %q of node #%d allocated twice during compilation",
			p.Name(), p.Node().ID())
	}
	loc := c.fn.Buffer(portBufferName(p), p.DType(), p.Size())
	c.locations[p] = loc
	return loc
}

// BindOutput registers an already-materialized location (e.g. a function
// parameter) as the backing of an output port.
func (c *Compiler) BindOutput(p Port, loc ir.Location) {
	if _, found := c.locations[p]; found {
		exceptions.Panicf("model: output port %q of node #%d bound twice during compilation",
			p.Name(), p.Node().ID())
	}
	c.locations[p] = loc
}

// PortLocation resolves the native location of an already-compiled output
// port. Consuming a port whose producer was not compiled yet means the model
// order is broken, which is fatal.
func (c *Compiler) PortLocation(p Port) ir.Location {
	loc, found := c.locations[p]
	if !found {
		exceptions.Panicf("model: output port %q of node #%d consumed before its producer was compiled",
			p.Name(), p.Node().ID())
	}
	return loc
}
