package irvm

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/x448/float16"

	"github.com/emgraph/emgraph/ir"
)

// scalar is one element value. Which field is live depends on the dtype
// tracked by the owning buffer or slot: f for float dtypes (already rounded
// to the dtype's precision), i for integer and boolean dtypes.
type scalar struct {
	f float64
	i int64
}

func isFloat(dtype dtypes.DType) bool {
	return dtype == dtypes.Float16 || dtype == dtypes.Float32 || dtype == dtypes.Float64
}

// roundScalar converts a float64 into a scalar of the given dtype, rounding
// floats to the dtype's precision and truncating integers.
func roundScalar(dtype dtypes.DType, v float64) scalar {
	switch dtype {
	case dtypes.Float64:
		return scalar{f: v}
	case dtypes.Float32:
		return scalar{f: float64(float32(v))}
	case dtypes.Float16:
		return scalar{f: float64(float16.Fromfloat32(float32(v)).Float32())}
	case dtypes.Int32:
		return scalar{i: int64(int32(v))}
	case dtypes.Int64:
		return scalar{i: int64(v)}
	case dtypes.Bool:
		if v != 0 {
			return scalar{i: 1}
		}
		return scalar{i: 0}
	}
	exceptions.Panicf("irvm: dtype %s not supported", dtype)
	return scalar{}
}

type binaryOp int

const (
	binaryAdd binaryOp = iota
	binaryMul
)

// binary evaluates a+b or a*b in the arithmetic of the given dtype:
// float16 and float32 round every operation, exactly like native code on the
// target would.
func binary(op binaryOp, dtype dtypes.DType, a, b scalar) scalar {
	switch dtype {
	case dtypes.Float64:
		if op == binaryAdd {
			return scalar{f: a.f + b.f}
		}
		return scalar{f: a.f * b.f}
	case dtypes.Float32:
		if op == binaryAdd {
			return scalar{f: float64(float32(a.f) + float32(b.f))}
		}
		return scalar{f: float64(float32(a.f) * float32(b.f))}
	case dtypes.Float16:
		var r float32
		if op == binaryAdd {
			r = float32(a.f) + float32(b.f)
		} else {
			r = float32(a.f) * float32(b.f)
		}
		return scalar{f: float64(float16.Fromfloat32(r).Float32())}
	case dtypes.Int32:
		if op == binaryAdd {
			return scalar{i: int64(int32(a.i) + int32(b.i))}
		}
		return scalar{i: int64(int32(a.i) * int32(b.i))}
	case dtypes.Int64:
		if op == binaryAdd {
			return scalar{i: a.i + b.i}
		}
		return scalar{i: a.i * b.i}
	}
	exceptions.Panicf("irvm: binary op on unsupported dtype %s", dtype)
	return scalar{}
}

func compare(cmp ir.Comparison, dtype dtypes.DType, a, b scalar) bool {
	if isFloat(dtype) {
		return ir.Better(cmp, a.f, b.f)
	}
	return ir.Better(cmp, a.i, b.i)
}

type state struct {
	values []scalar
	locals []scalar
}

type instruction interface {
	exec(f *Function, st *state)
}

type block []instruction

func (blk block) run(f *Function, st *state) {
	for _, inst := range blk {
		inst.exec(f, st)
	}
}

type instConst struct {
	dst   int
	value scalar
}

func (i *instConst) exec(_ *Function, st *state) { st.values[i.dst] = i.value }

type instLoadLocal struct {
	local, dst int
}

func (i *instLoadLocal) exec(_ *Function, st *state) { st.values[i.dst] = st.locals[i.local] }

type instStoreLocal struct {
	src, local int
}

func (i *instStoreLocal) exec(_ *Function, st *state) { st.locals[i.local] = st.values[i.src] }

func (b *buffer) checkBounds(idx int64) {
	if idx < 0 || idx >= int64(len(b.data)) {
		exceptions.Panicf("irvm: element index %d out of range [0, %d) of buffer %q",
			idx, len(b.data), b.name)
	}
}

type instLoadElement struct {
	buf        *buffer
	index, dst int
}

func (i *instLoadElement) exec(_ *Function, st *state) {
	idx := st.values[i.index].i
	i.buf.checkBounds(idx)
	st.values[i.dst] = i.buf.data[idx]
}

type instStoreElement struct {
	buf        *buffer
	index, src int
}

func (i *instStoreElement) exec(_ *Function, st *state) {
	idx := st.values[i.index].i
	i.buf.checkBounds(idx)
	i.buf.data[idx] = st.values[i.src]
}

type instBinary struct {
	op        binaryOp
	dtype     dtypes.DType
	a, b, dst int
}

func (i *instBinary) exec(_ *Function, st *state) {
	st.values[i.dst] = binary(i.op, i.dtype, st.values[i.a], st.values[i.b])
}

type instCompare struct {
	cmp       ir.Comparison
	dtype     dtypes.DType
	a, b, dst int
}

func (i *instCompare) exec(_ *Function, st *state) {
	if compare(i.cmp, i.dtype, st.values[i.a], st.values[i.b]) {
		st.values[i.dst] = scalar{i: 1}
	} else {
		st.values[i.dst] = scalar{i: 0}
	}
}

type instLoop struct {
	count int
	index int
	body  block
}

func (i *instLoop) exec(f *Function, st *state) {
	for iter := 0; iter < i.count; iter++ {
		st.values[i.index] = scalar{i: int64(iter)}
		i.body.run(f, st)
	}
}

type instCond struct {
	cond int
	body block
}

func (i *instCond) exec(f *Function, st *state) {
	if st.values[i.cond].i != 0 {
		i.body.run(f, st)
	}
}

// SetParameter feeds a parameter buffer before Run. flat must be a slice
// whose element type matches the parameter's dtype.
func (f *Function) SetParameter(name string, flat any) {
	b, found := f.byName[name]
	if !found || b.kind != bufferParameter {
		exceptions.Panicf("irvm: function %q has no parameter %q", f.name, name)
	}
	feed := func(got dtypes.DType, size int) {
		if b.dtype != got {
			exceptions.Panicf("irvm: parameter %q is %s, fed %s values", name, b.dtype, got)
		}
		if size != len(b.data) {
			exceptions.Panicf("irvm: parameter %q has size %d, fed %d values", name, len(b.data), size)
		}
	}
	switch values := flat.(type) {
	case []float64:
		feed(dtypes.Float64, len(values))
		for i, v := range values {
			b.data[i] = scalar{f: v}
		}
	case []float32:
		feed(dtypes.Float32, len(values))
		for i, v := range values {
			b.data[i] = scalar{f: float64(v)}
		}
	case []float16.Float16:
		feed(dtypes.Float16, len(values))
		for i, v := range values {
			b.data[i] = scalar{f: float64(v.Float32())}
		}
	case []int32:
		feed(dtypes.Int32, len(values))
		for i, v := range values {
			b.data[i] = scalar{i: int64(v)}
		}
	case []int64:
		feed(dtypes.Int64, len(values))
		for i, v := range values {
			b.data[i] = scalar{i: v}
		}
	default:
		exceptions.Panicf("irvm: SetParameter(%q) given unsupported flat type %T", name, flat)
	}
	b.fed = true
}

// Run executes the function once. All parameters must have been fed.
func (f *Function) Run() {
	if f.ran {
		exceptions.Panicf("irvm: function %q already ran", f.name)
	}
	for _, b := range f.buffers {
		if b.kind == bufferParameter && !b.fed {
			exceptions.Panicf("irvm: parameter %q of function %q was not fed", b.name, f.name)
		}
	}
	f.ran = true
	st := &state{
		values: make([]scalar, len(f.valueDTypes)),
		locals: make([]scalar, len(f.localDTypes)),
	}
	f.body.run(f, st)
}

// FlatConstraints are the Go element types Values can read a buffer back as.
type FlatConstraints interface {
	int32 | int64 | float32 | float64
}

// Values reads back the contents of a buffer after Run. The conversion from
// the buffer's dtype to T is exact when T matches the dtype.
func Values[T FlatConstraints](f *Function, loc ir.Location) []T {
	b := f.bufferOf("Values", loc)
	if !f.ran {
		exceptions.Panicf("irvm: function %q has not run yet", f.name)
	}
	out := make([]T, len(b.data))
	if isFloat(b.dtype) {
		for i, s := range b.data {
			out[i] = T(s.f)
		}
	} else {
		for i, s := range b.data {
			out[i] = T(s.i)
		}
	}
	return out
}
