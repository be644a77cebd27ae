// Package irvm is a reference in-process implementation of ir.FunctionEmitter.
//
// Emission builds a structured instruction tree (loops and conditionals own
// their body blocks) that Run interprets with dtype-faithful arithmetic:
// every operation rounds through the declared element type (float16, float32,
// float64, int32 or int64), so results are bit-identical to what the
// interpreted evaluation of the same graph produces. That makes irvm the
// vehicle for checking the compiled path against the interpreted one.
//
// A Function is a single-writer resource: emit everything, feed the
// parameters, call Run once, then read buffers back with Values.
package irvm

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/emgraph/emgraph/ir"
)

// Function implements ir.FunctionEmitter by recording instructions that Run
// later interprets.
type Function struct {
	name string

	buffers []*buffer
	byName  map[string]*buffer

	// dtype of each value and local slot, indexed by slot number.
	valueDTypes []dtypes.DType
	localDTypes []dtypes.DType

	body block

	// blockStack tracks the open emission target; For and If push their body
	// block for the duration of the body callback.
	blockStack []*block

	ran bool
}

var _ ir.FunctionEmitter = (*Function)(nil)

// NewFunction returns an empty function builder.
func NewFunction(name string) *Function {
	f := &Function{
		name:   name,
		byName: make(map[string]*buffer),
	}
	f.blockStack = []*block{&f.body}
	return f
}

// Name implements ir.FunctionEmitter.
func (f *Function) Name() string { return f.name }

type bufferKind int

const (
	bufferParameter bufferKind = iota
	bufferOutput
	bufferConstant
)

type buffer struct {
	owner *Function
	name  string
	dtype dtypes.DType
	kind  bufferKind
	data  []scalar
	fed   bool
}

// valueRef and localRef are the concrete handles behind ir.Value and
// ir.Variable. They carry the owning function so misdirected handles are
// caught at emission time.
type valueRef struct {
	owner *Function
	slot  int
}

type localRef struct {
	owner *Function
	slot  int
	name  string
}

func validateDType(op string, dtype dtypes.DType) {
	switch dtype {
	case dtypes.Float16, dtypes.Float32, dtypes.Float64, dtypes.Int32, dtypes.Int64, dtypes.Bool:
	default:
		exceptions.Panicf("irvm: %s: dtype %s not supported", op, dtype)
	}
}

func (f *Function) emit(i instruction) {
	if f.ran {
		exceptions.Panicf("irvm: function %q already ran, cannot emit more instructions", f.name)
	}
	blk := f.blockStack[len(f.blockStack)-1]
	*blk = append(*blk, i)
}

func (f *Function) pushBlock(blk *block) { f.blockStack = append(f.blockStack, blk) }

func (f *Function) popBlock() { f.blockStack = f.blockStack[:len(f.blockStack)-1] }

func (f *Function) newValue(dtype dtypes.DType) *valueRef {
	slot := len(f.valueDTypes)
	f.valueDTypes = append(f.valueDTypes, dtype)
	return &valueRef{owner: f, slot: slot}
}

func (f *Function) valueOf(op string, v ir.Value) *valueRef {
	ref, ok := v.(*valueRef)
	if !ok || ref.owner != f {
		exceptions.Panicf("irvm: %s given a Value not created by function %q", op, f.name)
	}
	return ref
}

func (f *Function) localOf(op string, v ir.Variable) *localRef {
	ref, ok := v.(*localRef)
	if !ok || ref.owner != f {
		exceptions.Panicf("irvm: %s given a Variable not created by function %q", op, f.name)
	}
	return ref
}

func (f *Function) bufferOf(op string, loc ir.Location) *buffer {
	b, ok := loc.(*buffer)
	if !ok || b.owner != f {
		exceptions.Panicf("irvm: %s given a Location not created by function %q", op, f.name)
	}
	return b
}

func (f *Function) addBuffer(op, name string, dtype dtypes.DType, size int, kind bufferKind) *buffer {
	validateDType(op, dtype)
	if size <= 0 {
		exceptions.Panicf("irvm: %s %q must have size > 0, got %d", op, name, size)
	}
	if f.ran {
		exceptions.Panicf("irvm: function %q already ran, cannot declare %q", f.name, name)
	}
	if _, found := f.byName[name]; found {
		exceptions.Panicf("irvm: buffer %q declared twice in function %q", name, f.name)
	}
	b := &buffer{
		owner: f,
		name:  name,
		dtype: dtype,
		kind:  kind,
		data:  make([]scalar, size),
	}
	f.buffers = append(f.buffers, b)
	f.byName[name] = b
	return b
}

// Parameter implements ir.FunctionEmitter.
func (f *Function) Parameter(name string, dtype dtypes.DType, size int) ir.Location {
	return f.addBuffer("Parameter", name, dtype, size, bufferParameter)
}

// Buffer implements ir.FunctionEmitter.
func (f *Function) Buffer(name string, dtype dtypes.DType, size int) ir.Location {
	return f.addBuffer("Buffer", name, dtype, size, bufferOutput)
}

// ConstantVector implements ir.FunctionEmitter.
func (f *Function) ConstantVector(name string, dtype dtypes.DType, values []float64) ir.Location {
	b := f.addBuffer("ConstantVector", name, dtype, len(values), bufferConstant)
	for i, v := range values {
		b.data[i] = roundScalar(dtype, v)
	}
	return b
}

// Constant implements ir.FunctionEmitter.
func (f *Function) Constant(dtype dtypes.DType, value float64) ir.Value {
	validateDType("Constant", dtype)
	dst := f.newValue(dtype)
	f.emit(&instConst{dst: dst.slot, value: roundScalar(dtype, value)})
	return dst
}

// LocalScalar implements ir.FunctionEmitter. Locals start zero-valued.
func (f *Function) LocalScalar(name string, dtype dtypes.DType) ir.Variable {
	validateDType("LocalScalar", dtype)
	slot := len(f.localDTypes)
	f.localDTypes = append(f.localDTypes, dtype)
	return &localRef{owner: f, slot: slot, name: name}
}

// Load implements ir.FunctionEmitter.
func (f *Function) Load(v ir.Variable) ir.Value {
	local := f.localOf("Load", v)
	dst := f.newValue(f.localDTypes[local.slot])
	f.emit(&instLoadLocal{local: local.slot, dst: dst.slot})
	return dst
}

// Store implements ir.FunctionEmitter.
func (f *Function) Store(v ir.Variable, value ir.Value) {
	local := f.localOf("Store", v)
	src := f.valueOf("Store", value)
	if f.localDTypes[local.slot] != f.valueDTypes[src.slot] {
		exceptions.Panicf("irvm: Store to local %q: value is %s, local is %s",
			local.name, f.valueDTypes[src.slot], f.localDTypes[local.slot])
	}
	f.emit(&instStoreLocal{src: src.slot, local: local.slot})
}

func (f *Function) indexOf(op string, index ir.Value) *valueRef {
	idx := f.valueOf(op, index)
	switch f.valueDTypes[idx.slot] {
	case dtypes.Int32, dtypes.Int64:
	default:
		exceptions.Panicf("irvm: %s index must be an integer, got %s", op, f.valueDTypes[idx.slot])
	}
	return idx
}

// LoadElement implements ir.FunctionEmitter.
func (f *Function) LoadElement(loc ir.Location, index ir.Value) ir.Value {
	b := f.bufferOf("LoadElement", loc)
	idx := f.indexOf("LoadElement", index)
	dst := f.newValue(b.dtype)
	f.emit(&instLoadElement{buf: b, index: idx.slot, dst: dst.slot})
	return dst
}

// StoreElement implements ir.FunctionEmitter.
func (f *Function) StoreElement(loc ir.Location, index ir.Value, value ir.Value) {
	b := f.bufferOf("StoreElement", loc)
	if b.kind == bufferConstant {
		exceptions.Panicf("irvm: StoreElement to constant buffer %q", b.name)
	}
	idx := f.indexOf("StoreElement", index)
	src := f.valueOf("StoreElement", value)
	if f.valueDTypes[src.slot] != b.dtype {
		exceptions.Panicf("irvm: StoreElement to %q: value is %s, buffer is %s",
			b.name, f.valueDTypes[src.slot], b.dtype)
	}
	f.emit(&instStoreElement{buf: b, index: idx.slot, src: src.slot})
}

func (f *Function) binaryOperands(op string, a, b ir.Value) (ra, rb *valueRef, dtype dtypes.DType) {
	ra = f.valueOf(op, a)
	rb = f.valueOf(op, b)
	dtype = f.valueDTypes[ra.slot]
	if dtype != f.valueDTypes[rb.slot] {
		exceptions.Panicf("irvm: %s operands have different dtypes: %s and %s",
			op, dtype, f.valueDTypes[rb.slot])
	}
	if dtype == dtypes.Bool {
		exceptions.Panicf("irvm: %s does not operate on booleans", op)
	}
	return
}

// Add implements ir.FunctionEmitter.
func (f *Function) Add(a, b ir.Value) ir.Value {
	ra, rb, dtype := f.binaryOperands("Add", a, b)
	dst := f.newValue(dtype)
	f.emit(&instBinary{op: binaryAdd, dtype: dtype, a: ra.slot, b: rb.slot, dst: dst.slot})
	return dst
}

// Mul implements ir.FunctionEmitter.
func (f *Function) Mul(a, b ir.Value) ir.Value {
	ra, rb, dtype := f.binaryOperands("Mul", a, b)
	dst := f.newValue(dtype)
	f.emit(&instBinary{op: binaryMul, dtype: dtype, a: ra.slot, b: rb.slot, dst: dst.slot})
	return dst
}

// Compare implements ir.FunctionEmitter.
func (f *Function) Compare(cmp ir.Comparison, a, b ir.Value) ir.Value {
	if !cmp.IsAComparison() || cmp == ir.ComparisonInvalid {
		exceptions.Panicf("irvm: Compare given invalid comparison %d", cmp)
	}
	ra, rb, dtype := f.binaryOperands("Compare", a, b)
	dst := f.newValue(dtypes.Bool)
	f.emit(&instCompare{cmp: cmp, dtype: dtype, a: ra.slot, b: rb.slot, dst: dst.slot})
	return dst
}

// For implements ir.FunctionEmitter. The loop index is an int32 Value.
func (f *Function) For(count int, body func(index ir.Value)) {
	index := f.newValue(dtypes.Int32)
	loop := &instLoop{count: count, index: index.slot}
	f.emit(loop)
	f.pushBlock(&loop.body)
	body(index)
	f.popBlock()
}

// If implements ir.FunctionEmitter.
func (f *Function) If(cond ir.Value, body func()) {
	c := f.valueOf("If", cond)
	if f.valueDTypes[c.slot] != dtypes.Bool {
		exceptions.Panicf("irvm: If condition must be boolean, got %s", f.valueDTypes[c.slot])
	}
	branch := &instCond{cond: c.slot}
	f.emit(branch)
	f.pushBlock(&branch.body)
	body()
	f.popBlock()
}
