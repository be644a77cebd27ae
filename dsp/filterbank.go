// Package dsp builds the triangle filter-bank coefficient tables consumed by
// the filter-bank graph nodes.
//
// A bank is an ordered set of triangular weight vectors, one per output band,
// each aligned to the FFT bin count of the input. Band edges are evenly
// spaced either in Hz (linear) or on the mel scale. The tables are built once
// and treated as read-only afterwards.
package dsp

import (
	"math"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/floats"
)

// Spacing tags how a bank's band edges were spaced. It only affects how the
// coefficients are constructed (and the serialized node type name), never the
// node behavior.
type Spacing int

const (
	SpacingInvalid Spacing = iota

	// Linear spaces band edges evenly in Hz.
	Linear

	// Mel spaces band edges evenly on the mel scale.
	Mel
)

//go:generate go tool enumer -type Spacing -output=gen_spacing_enumer.go filterbank.go

// Filter is one band's weight vector, aligned to the input bin count, plus
// its non-zero support window [Begin, End).
type Filter struct {
	weights    []float64
	begin, end int
}

// Weights returns the full-length weight vector. Read-only.
func (f Filter) Weights() []float64 { return f.weights }

// Begin returns the first bin with a non-zero weight.
func (f Filter) Begin() int { return f.begin }

// End returns one past the last bin with a non-zero weight.
// Begin() == End() means the filter contributes nothing.
func (f Filter) End() int { return f.end }

// Size returns the length of the weight vector (the input bin count).
func (f Filter) Size() int { return len(f.weights) }

// ContiguousSupport reports whether every weight inside [Begin, End) is
// non-zero. Triangle filters always are; a bank rebuilt from an arbitrary
// coefficient matrix may not be, which forces unrolled code generation.
func (f Filter) ContiguousSupport() bool {
	for k := f.begin; k < f.end; k++ {
		if f.weights[k] == 0 {
			return false
		}
	}
	return true
}

func newFilter(weights []float64) Filter {
	begin, end := 0, 0
	for k, w := range weights {
		if w == 0 {
			continue
		}
		if end == 0 {
			begin = k
		}
		end = k + 1
	}
	return Filter{weights: weights, begin: begin, end: end}
}

// TriangleFilterBank is an immutable ordered set of filters, all aligned to
// the same input bin count.
type TriangleFilterBank struct {
	spacing Spacing
	numBins int
	filters []Filter
}

// NumFilters returns the number of bands (the node's output size).
func (b TriangleFilterBank) NumFilters() int { return len(b.filters) }

// NumBins returns the input bin count every filter is aligned to.
func (b TriangleFilterBank) NumBins() int { return b.numBins }

// Spacing returns the provenance tag of the bank.
func (b TriangleFilterBank) Spacing() Spacing { return b.spacing }

// Filter returns the j-th band's filter.
func (b TriangleFilterBank) Filter(j int) Filter {
	if j < 0 || j >= len(b.filters) {
		exceptions.Panicf("dsp: filter index %d out of range [0, %d)", j, len(b.filters))
	}
	return b.filters[j]
}

// WeightsMatrix returns a copy of the full coefficient table, one row per
// filter. Used to archive a bank.
func (b TriangleFilterBank) WeightsMatrix() [][]float64 {
	matrix := make([][]float64, len(b.filters))
	for j, f := range b.filters {
		row := make([]float64, len(f.weights))
		copy(row, f.weights)
		matrix[j] = row
	}
	return matrix
}

// melScale converts a frequency in Hz to mels.
func melScale(hz float64) float64 { return 2595 * math.Log10(1+hz/700) }

// inverseMelScale converts mels back to Hz.
func inverseMelScale(mel float64) float64 { return 700 * (math.Pow(10, mel/2595) - 1) }

// NewLinearFilterBank builds numFilters triangle filters with band edges
// evenly spaced in Hz over [0, sampleRate/2], aligned to numBins FFT bins.
func NewLinearFilterBank(numBins int, sampleRate float64, numFilters int) TriangleFilterBank {
	edges := bandEdges(numBins, sampleRate, numFilters)
	return buildBank(Linear, numBins, sampleRate, edges)
}

// NewMelFilterBank builds numFilters triangle filters with band edges evenly
// spaced on the mel scale over [0, sampleRate/2], aligned to numBins FFT bins.
func NewMelFilterBank(numBins int, sampleRate float64, numFilters int) TriangleFilterBank {
	edges := bandEdges(numBins, sampleRate, numFilters)
	// Respace the edges evenly on the mel scale, then convert back to Hz.
	floats.Span(edges, melScale(edges[0]), melScale(edges[len(edges)-1]))
	for i := range edges {
		edges[i] = inverseMelScale(edges[i])
	}
	return buildBank(Mel, numBins, sampleRate, edges)
}

func bandEdges(numBins int, sampleRate float64, numFilters int) []float64 {
	if numBins < 2 {
		exceptions.Panicf("dsp: filter bank needs at least 2 input bins, got %d", numBins)
	}
	if sampleRate <= 0 {
		exceptions.Panicf("dsp: sample rate must be positive, got %g", sampleRate)
	}
	if numFilters < 1 {
		exceptions.Panicf("dsp: filter bank needs at least 1 filter, got %d", numFilters)
	}
	// numFilters triangles need numFilters+2 edges.
	return floats.Span(make([]float64, numFilters+2), 0, sampleRate/2)
}

func buildBank(spacing Spacing, numBins int, sampleRate float64, edges []float64) TriangleFilterBank {
	// Bin k is centered at k * (sampleRate/2) / numBins.
	binHz := sampleRate / 2 / float64(numBins)
	filters := make([]Filter, 0, len(edges)-2)
	for j := 0; j+2 < len(edges); j++ {
		left, center, right := edges[j], edges[j+1], edges[j+2]
		weights := make([]float64, numBins)
		for k := 0; k < numBins; k++ {
			hz := float64(k) * binHz
			switch {
			case hz > left && hz <= center:
				weights[k] = (hz - left) / (center - left)
			case hz > center && hz < right:
				weights[k] = (right - hz) / (right - center)
			}
		}
		filters = append(filters, newFilter(weights))
	}
	return TriangleFilterBank{spacing: spacing, numBins: numBins, filters: filters}
}

// FromWeights rebuilds a bank from an archived coefficient table. Every row
// must have the same length (the input bin count) and there must be at least
// one row. Supports are recomputed by scanning for non-zero weights.
func FromWeights(spacing Spacing, weights [][]float64) TriangleFilterBank {
	if len(weights) == 0 {
		exceptions.Panicf("dsp: filter bank must have at least one filter")
	}
	numBins := len(weights[0])
	if numBins == 0 {
		exceptions.Panicf("dsp: filter weight vectors must not be empty")
	}
	filters := make([]Filter, 0, len(weights))
	for j, row := range weights {
		if len(row) != numBins {
			exceptions.Panicf("dsp: filter %d has %d weights, expected %d", j, len(row), numBins)
		}
		owned := make([]float64, numBins)
		copy(owned, row)
		filters = append(filters, newFilter(owned))
	}
	return TriangleFilterBank{spacing: spacing, numBins: numBins, filters: filters}
}
