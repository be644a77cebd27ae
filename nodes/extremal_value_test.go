package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emgraph/emgraph/ir"
	"github.com/emgraph/emgraph/ir/irvm"
	"github.com/emgraph/emgraph/model"
)

// compileAndRun compiles m into a fresh irvm function, feeds the named
// parameters and runs it once.
func compileAndRun(t *testing.T, m *model.Model, options ir.CompileOptions, feeds map[string]any) (*model.Compiler, *irvm.Function) {
	fn := irvm.NewFunction(t.Name())
	c := model.Compile(m, fn, options)
	for name, flat := range feeds {
		fn.SetParameter(name, flat)
	}
	fn.Run()
	return c, fn
}

func TestArgMaxCompute(t *testing.T) {
	m := model.New()
	in := model.NewInputNode[float32](m, "x", 4)
	node := NewArgMaxNode(m, model.FullOutput(in.Output()))

	// Ties keep the first occurrence.
	in.SetValues([]float32{3, 5, 5, 2})
	m.Compute()
	assert.Equal(t, []float32{5}, node.Val().Data())
	assert.Equal(t, []int32{1}, node.ArgVal().Data())

	assert.Equal(t, ir.Greater, node.Comparison())
	assert.Equal(t, "ArgMaxNode[Float32]", node.TypeName())
}

func TestArgMinCompute(t *testing.T) {
	m := model.New()
	in := model.NewInputNode[int64](m, "x", 5)
	node := NewArgMinNode(m, model.FullOutput(in.Output()))

	in.SetValues([]int64{4, -1, 3, -1, 0})
	m.Compute()
	assert.Equal(t, []int64{-1}, node.Val().Data())
	assert.Equal(t, []int32{1}, node.ArgVal().Data())
	assert.Equal(t, "ArgMinNode[Int64]", node.TypeName())
}

func TestExtremalValueSingleton(t *testing.T) {
	m := model.New()
	in := model.NewInputNode[float64](m, "x", 1)
	node := NewArgMaxNode(m, model.FullOutput(in.Output()))

	in.SetValues([]float64{7})
	m.Compute()
	assert.Equal(t, []float64{7}, node.Val().Data())
	assert.Equal(t, []int32{0}, node.ArgVal().Data())
}

func TestExtremalValueConstruction(t *testing.T) {
	m := model.New()
	assert.Panics(t, func() { NewArgMaxNode(m, model.Concat[float32]()) })
}

// Compiled output must match the interpreted output exactly, whichever code
// shape the strategy picks.
func TestExtremalValueComputeVsCompiled(t *testing.T) {
	values := []float32{3, -2.5, 9.25, 9.25, 0, 7}
	for _, test := range []struct {
		name    string
		options ir.CompileOptions
	}{
		{"loop", ir.CompileOptions{}},
		{"unrolled", ir.CompileOptions{UnrollLoops: true}},
	} {
		t.Run(test.name, func(t *testing.T) {
			m := model.New()
			in := model.NewInputNode[float32](m, "x", len(values))
			argMax := NewArgMaxNode(m, model.FullOutput(in.Output()))
			argMin := NewArgMinNode(m, model.FullOutput(in.Output()))

			in.SetValues(values)
			m.Compute()

			c, fn := compileAndRun(t, m, test.options, map[string]any{"x": values})
			assert.Equal(t, argMax.Val().Data(), irvm.Values[float32](fn, c.PortLocation(argMax.Val())))
			assert.Equal(t, argMax.ArgVal().Data(), irvm.Values[int32](fn, c.PortLocation(argMax.ArgVal())))
			assert.Equal(t, argMin.Val().Data(), irvm.Values[float32](fn, c.PortLocation(argMin.Val())))
			assert.Equal(t, argMin.ArgVal().Data(), irvm.Values[int32](fn, c.PortLocation(argMin.ArgVal())))
		})
	}
}

func TestExtremalValueFloat64ComputeVsCompiled(t *testing.T) {
	values := []float64{0.5, -1.25, 3.75, 3.75, 2}
	m := model.New()
	in := model.NewInputNode[float64](m, "x", len(values))
	node := NewArgMaxNode(m, model.FullOutput(in.Output()))

	in.SetValues(values)
	m.Compute()

	c, fn := compileAndRun(t, m, ir.CompileOptions{}, map[string]any{"x": values})
	assert.Equal(t, node.Val().Data(), irvm.Values[float64](fn, c.PortLocation(node.Val())))
	assert.Equal(t, node.ArgVal().Data(), irvm.Values[int32](fn, c.PortLocation(node.ArgVal())))
}

// A composed view forces unrolled emission; indices are positions within the
// composition, not within the upstream buffers.
func TestExtremalValueComposedInput(t *testing.T) {
	m := model.New()
	a := model.NewInputNode[float32](m, "a", 3)
	b := model.NewInputNode[float32](m, "b", 2)
	// a[1:3] followed by all of b: values 5, 1, 8, 2.
	elements := model.Concat(model.OutputRange(a.Output(), 1, 2), model.FullOutput(b.Output()))
	node := NewArgMaxNode(m, elements)

	a.SetValues([]float32{9, 5, 1})
	b.SetValues([]float32{8, 2})
	m.Compute()
	require.Equal(t, []float32{8}, node.Val().Data())
	require.Equal(t, []int32{2}, node.ArgVal().Data())

	c, fn := compileAndRun(t, m, ir.CompileOptions{}, map[string]any{
		"a": []float32{9, 5, 1},
		"b": []float32{8, 2},
	})
	assert.Equal(t, []float32{8}, irvm.Values[float32](fn, c.PortLocation(node.Val())))
	assert.Equal(t, []int32{2}, irvm.Values[int32](fn, c.PortLocation(node.ArgVal())))
}

func TestExtremalValueTieBreaking(t *testing.T) {
	values := []int32{5, 5, 5}
	for _, test := range []struct {
		name    string
		options ir.CompileOptions
	}{
		{"loop", ir.CompileOptions{}},
		{"unrolled", ir.CompileOptions{UnrollLoops: true}},
	} {
		t.Run(test.name, func(t *testing.T) {
			m := model.New()
			in := model.NewInputNode[int32](m, "x", len(values))
			node := NewArgMaxNode(m, model.FullOutput(in.Output()))

			in.SetValues(values)
			m.Compute()
			require.Equal(t, []int32{0}, node.ArgVal().Data())

			c, fn := compileAndRun(t, m, test.options, map[string]any{"x": values})
			assert.Equal(t, []int32{0}, irvm.Values[int32](fn, c.PortLocation(node.ArgVal())))
		})
	}
}

func TestExtremalValueSaveLoad(t *testing.T) {
	m := model.New()
	in := model.NewInputNode[float32](m, "x", 4)
	NewArgMinNode(m, model.OutputRange(in.Output(), 1, 3))

	data, err := model.Save(m)
	require.NoError(t, err)

	loaded, err := model.Load(data)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.NumNodes())

	loadedIn := loaded.Node(0).(*model.InputNode[float32])
	loadedNode := loaded.Node(1).(*ExtremalValueNode[float32])
	assert.Equal(t, ir.Less, loadedNode.Comparison())

	loadedIn.SetValues([]float32{0, 4, -3, 2})
	loaded.Compute()
	assert.Equal(t, []float32{-3}, loadedNode.Val().Data())
	assert.Equal(t, []int32{1}, loadedNode.ArgVal().Data())
}

func TestExtremalValueLoadRejectsBadSizes(t *testing.T) {
	doc := `{"version":1,"nodes":[` +
		`{"id":0,"type":"InputNode[Float32]","fields":{"name":"x","size":2}},` +
		`{"id":1,"type":"ArgMaxNode[Float32]","fields":{` +
		`"input":[{"node":0,"port":"output","start":0,"count":2}],"valSize":3,"argValSize":1}}]}`
	_, err := model.Load([]byte(doc))
	require.ErrorContains(t, err, "scalar")
}

func TestExtremalValueCopy(t *testing.T) {
	m := model.New()
	in := model.NewInputNode[float32](m, "x", 3)
	node := NewArgMaxNode(m, model.FullOutput(in.Output()))

	copied := model.CopyModel(m)
	require.Equal(t, 2, copied.NumNodes())
	copiedNode := copied.Node(1).(*ExtremalValueNode[float32])
	assert.NotSame(t, node, copiedNode)
	assert.Equal(t, node.Comparison(), copiedNode.Comparison())

	copied.Node(0).(*model.InputNode[float32]).SetValues([]float32{1, 6, 2})
	copied.Compute()
	assert.Equal(t, []float32{6}, copiedNode.Val().Data())
	assert.Equal(t, []int32{1}, copiedNode.ArgVal().Data())

	// The original model is untouched.
	assert.Equal(t, []float32{0}, node.Val().Data())
}
