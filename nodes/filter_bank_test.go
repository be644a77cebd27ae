package nodes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emgraph/emgraph/dsp"
	"github.com/emgraph/emgraph/ir"
	"github.com/emgraph/emgraph/ir/irvm"
	"github.com/emgraph/emgraph/model"
)

func spectrum32(size int) []float32 {
	values := make([]float32, size)
	for i := range values {
		values[i] = float32(math.Sin(0.7 * float64(i)))
	}
	return values
}

func TestFilterBankCompute(t *testing.T) {
	m := model.New()
	in := model.NewInputNode[float64](m, "x", 4)
	bank := dsp.FromWeights(dsp.Linear, [][]float64{
		{1, 0, 1, 0},
		{0, 0.5, 0.5, 0},
	})
	node := NewLinearFilterBankNode(m, model.FullOutput(in.Output()), bank)

	in.SetValues([]float64{2, 3, 4, 5})
	m.Compute()
	assert.Equal(t, []float64{6, 3.5}, node.Output().Data())
	assert.Equal(t, "LinearFilterBankNode[Float64]", node.TypeName())
}

func TestFilterBankConstruction(t *testing.T) {
	m := model.New()
	in := model.NewInputNode[float32](m, "x", 8)
	linear := dsp.NewLinearFilterBank(8, 8000, 2)
	mel := dsp.NewMelFilterBank(8, 8000, 2)

	// Spacing must match the constructor.
	assert.Panics(t, func() { NewMelFilterBankNode(m, model.FullOutput(in.Output()), linear) })
	assert.Panics(t, func() { NewLinearFilterBankNode(m, model.FullOutput(in.Output()), mel) })

	// The bank must be aligned to the input size.
	misaligned := dsp.NewLinearFilterBank(16, 8000, 2)
	assert.Panics(t, func() { NewLinearFilterBankNode(m, model.FullOutput(in.Output()), misaligned) })
}

func TestFilterBankOwnsItsCoefficients(t *testing.T) {
	m := model.New()
	in := model.NewInputNode[float64](m, "x", 3)
	rows := [][]float64{{1, 1, 1}}
	node := NewLinearFilterBankNode(m, model.FullOutput(in.Output()), dsp.FromWeights(dsp.Linear, rows))

	rows[0][0] = 99
	assert.Equal(t, 1.0, node.Bank().Filter(0).Weights()[0])
}

func TestFilterBankComputeVsCompiled(t *testing.T) {
	values := spectrum32(32)
	for _, test := range []struct {
		name    string
		options ir.CompileOptions
	}{
		{"loop", ir.CompileOptions{}},
		{"unrolled", ir.CompileOptions{UnrollLoops: true}},
	} {
		t.Run(test.name, func(t *testing.T) {
			m := model.New()
			in := model.NewInputNode[float32](m, "x", 32)
			bank := dsp.NewMelFilterBank(32, 16000, 6)
			node := NewMelFilterBankNode(m, model.FullOutput(in.Output()), bank)

			in.SetValues(values)
			m.Compute()

			c, fn := compileAndRun(t, m, test.options, map[string]any{"x": values})
			// Bit-identical, not merely close: the emitted code accumulates in
			// the same order and the same precision as the interpreter.
			assert.Equal(t, node.Output().Data(), irvm.Values[float32](fn, c.PortLocation(node.Output())))
		})
	}
}

func TestFilterBankComposedInput(t *testing.T) {
	m := model.New()
	a := model.NewInputNode[float32](m, "a", 4)
	b := model.NewInputNode[float32](m, "b", 4)
	elements := model.Concat(model.FullOutput(a.Output()), model.FullOutput(b.Output()))
	bank := dsp.NewLinearFilterBank(8, 8000, 3)
	node := NewLinearFilterBankNode(m, elements, bank)

	aValues := []float32{1, 2, 3, 4}
	bValues := []float32{5, 6, 7, 8}
	a.SetValues(aValues)
	b.SetValues(bValues)
	m.Compute()

	c, fn := compileAndRun(t, m, ir.CompileOptions{}, map[string]any{"a": aValues, "b": bValues})
	assert.Equal(t, node.Output().Data(), irvm.Values[float32](fn, c.PortLocation(node.Output())))
}

// A filter whose support has interior zeros cannot use the loop strategy, and
// a filter with no support at all contributes a zero band.
func TestFilterBankSparseFilters(t *testing.T) {
	m := model.New()
	in := model.NewInputNode[float64](m, "x", 4)
	bank := dsp.FromWeights(dsp.Linear, [][]float64{
		{2, 0, 0, 3},
		{0, 0, 0, 0},
	})
	node := NewLinearFilterBankNode(m, model.FullOutput(in.Output()), bank)

	values := []float64{1, 10, 10, 1}
	in.SetValues(values)
	m.Compute()
	require.Equal(t, []float64{5, 0}, node.Output().Data())

	c, fn := compileAndRun(t, m, ir.CompileOptions{}, map[string]any{"x": values})
	assert.Equal(t, []float64{5, 0}, irvm.Values[float64](fn, c.PortLocation(node.Output())))
}

func TestFilterBankSaveLoad(t *testing.T) {
	m := model.New()
	in := model.NewInputNode[float32](m, "x", 16)
	bank := dsp.NewMelFilterBank(16, 8000, 4)
	node := NewMelFilterBankNode(m, model.FullOutput(in.Output()), bank)

	data, err := model.Save(m)
	require.NoError(t, err)

	loaded, err := model.Load(data)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.NumNodes())

	loadedNode := loaded.Node(1).(*FilterBankNode[float32])
	assert.Equal(t, dsp.Mel, loadedNode.Bank().Spacing())
	assert.Equal(t, node.Bank().WeightsMatrix(), loadedNode.Bank().WeightsMatrix())

	values := spectrum32(16)
	in.SetValues(values)
	m.Compute()
	loaded.Node(0).(*model.InputNode[float32]).SetValues(values)
	loaded.Compute()
	assert.Equal(t, node.Output().Data(), loadedNode.Output().Data())
}

func TestFilterBankLoadRejectsBadOutputSize(t *testing.T) {
	doc := `{"version":1,"nodes":[` +
		`{"id":0,"type":"InputNode[Float64]","fields":{"name":"x","size":2}},` +
		`{"id":1,"type":"LinearFilterBankNode[Float64]","fields":{` +
		`"input":[{"node":0,"port":"output","start":0,"count":2}],` +
		`"outputSize":3,"filters":[[1,0],[0,1]]}}]}`
	_, err := model.Load([]byte(doc))
	require.ErrorContains(t, err, "output size")
}

func TestFilterBankCopy(t *testing.T) {
	m := model.New()
	in := model.NewInputNode[float64](m, "x", 8)
	bank := dsp.NewLinearFilterBank(8, 8000, 3)
	node := NewLinearFilterBankNode(m, model.FullOutput(in.Output()), bank)

	copied := model.CopyModel(m)
	copiedNode := copied.Node(1).(*FilterBankNode[float64])
	assert.Equal(t, node.Bank().WeightsMatrix(), copiedNode.Bank().WeightsMatrix())

	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	in.SetValues(values)
	m.Compute()
	copied.Node(0).(*model.InputNode[float64]).SetValues(values)
	copied.Compute()
	assert.Equal(t, node.Output().Data(), copiedNode.Output().Data())
}
