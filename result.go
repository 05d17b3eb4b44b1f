package shade

import (
	"math"

	"github.com/aclements/go-moremath/vec"
)

// Result is the finalized output of an aggregation: one or more layers of
// float64 values over the canvas pixel grid, plus axis labels carrying the
// pixel-center coordinates in data space and reduction-specific metadata.
// A Result is read-only once returned.
type Result struct {
	width      int
	height     int
	planes     int
	kind       ReductionKind
	categories []string
	data       []float64 // plane-major, like gridBuffer
	counts     []float64 // per-pixel valid-value counts, nil unless tracked
	dropped    int64
	x, y       []float64
}

// newResult finalizes a merged buffer into a Result.
func newResult(cvs *Canvas, buf *gridBuffer, dropped int64) *Result {
	data, counts := buf.finalize()
	return &Result{
		width:      cvs.width,
		height:     cvs.height,
		planes:     buf.red.resultPlanes(),
		kind:       buf.red.Kind,
		categories: buf.red.Categories,
		data:       data,
		counts:     counts,
		dropped:    dropped,
		x:          axisCenters(cvs.xAxis, cvs.txmin, cvs.txspan, cvs.width),
		y:          axisCenters(cvs.yAxis, cvs.tymin, cvs.tyspan, cvs.height),
	}
}

// axisCenters produces the data-space pixel-center labels for one axis.
func axisCenters(kind AxisKind, tmin, tspan float64, n int) []float64 {
	step := tspan / float64(n)
	cs := vec.Linspace(tmin+step/2, tmin+tspan-step/2, n)
	if kind != AxisLinear {
		cs = vec.Map(kind.invert, cs)
	}
	return cs
}

// Width returns the grid width in pixels.
func (r *Result) Width() int { return r.width }

// Height returns the grid height in pixels.
func (r *Result) Height() int { return r.height }

// Kind returns the reduction that produced this result.
func (r *Result) Kind() ReductionKind { return r.kind }

// Layers returns the number of value layers: one for scalar reductions,
// one per category for CountCat.
func (r *Result) Layers() int { return r.planes }

// Categories returns the category labels for categorical reductions, in
// layer order. Nil otherwise.
func (r *Result) Categories() []string { return r.categories }

// Dropped returns the number of malformed records skipped during
// rasterization (non-finite coordinates, degenerate polygon runs).
func (r *Result) Dropped() int64 { return r.dropped }

// At returns the value at (row, col) of the first layer. Row 0 covers
// the low end of the canvas's y range.
func (r *Result) At(row, col int) float64 {
	return r.data[row*r.width+col]
}

// LayerAt returns the value at (row, col) of the given layer.
func (r *Result) LayerAt(layer, row, col int) float64 {
	return r.data[layer*r.width*r.height+row*r.width+col]
}

// Grid returns the first layer as a [row][col] matrix. The rows alias
// the result's backing storage; treat them as read-only.
func (r *Result) Grid() [][]float64 {
	return r.layerGrid(0)
}

// LayerGrid returns one layer as a [row][col] matrix, aliasing the
// result's backing storage.
func (r *Result) LayerGrid(layer int) [][]float64 {
	return r.layerGrid(layer)
}

func (r *Result) layerGrid(layer int) [][]float64 {
	base := layer * r.width * r.height
	rows := make([][]float64, r.height)
	for i := range rows {
		rows[i] = r.data[base+i*r.width : base+(i+1)*r.width]
	}
	return rows
}

// ValidCounts returns the per-pixel count of valid values when the
// reduction tracks one (Count, Mean, Var, Std). ok is false otherwise.
func (r *Result) ValidCounts() (grid [][]float64, ok bool) {
	if r.counts == nil {
		return nil, false
	}
	rows := make([][]float64, r.height)
	for i := range rows {
		rows[i] = r.counts[i*r.width : (i+1)*r.width]
	}
	return rows, true
}

// X returns the data-space x coordinate of each pixel column's center.
func (r *Result) X() []float64 { return r.x }

// Y returns the data-space y coordinate of each pixel row's center.
func (r *Result) Y() []float64 { return r.y }

// Range returns the finite min and max over the first layer. When every
// cell is NaN, both returns are NaN.
func (r *Result) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	n := r.width * r.height
	for _, v := range r.data[:n] {
		if math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		return math.NaN(), math.NaN()
	}
	return lo, hi
}
