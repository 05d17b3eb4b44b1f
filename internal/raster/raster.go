// Package raster provides scanline span enumeration for polygon fills.
//
// Unlike a painting rasterizer, this package never writes pixels: it
// reports the spans of pixels whose centers lie inside a polygon, and the
// caller decides what to do with them (typically, feed each pixel to an
// aggregation kernel). The inclusion convention is fixed: a pixel belongs
// to the polygon iff its center (col+0.5, row+0.5) is inside under the
// chosen fill rule, sampling scanlines at row+0.5.
package raster

import "math"

// FillRule specifies how to determine which areas are inside a path.
type FillRule int

const (
	// FillRuleNonZero uses the non-zero winding rule.
	FillRuleNonZero FillRule = iota
	// FillRuleEvenOdd uses the even-odd rule.
	FillRuleEvenOdd
)

// SpanFunc receives one horizontal run of interior pixels: row y,
// columns [x0, x1).
type SpanFunc func(y, x0, x1 int)

// Rasterizer enumerates interior spans of polygons against a fixed
// pixel grid.
type Rasterizer struct {
	width  int
	height int
	aet    *activeEdgeTable
	edges  []Edge
}

// NewRasterizer creates a rasterizer for the given grid dimensions.
func NewRasterizer(width, height int) *Rasterizer {
	return &Rasterizer{
		width:  width,
		height: height,
		aet:    newActiveEdgeTable(),
	}
}

// Ring is one closed vertex loop of a polygon, in continuous pixel
// space. The loop is closed automatically.
type Ring struct {
	Xs []float64
	Ys []float64
}

// Fill enumerates the interior spans of the polygon with the given
// vertices (in continuous pixel space). The polygon is closed
// automatically. Degenerate polygons (fewer than 3 vertices, or all
// edges horizontal) produce no spans.
func (r *Rasterizer) Fill(xs, ys []float64, rule FillRule, span SpanFunc) {
	r.FillRings([]Ring{{Xs: xs, Ys: ys}}, rule, span)
}

// FillRings enumerates the interior spans of a polygon built from one or
// more rings, all scanned in a single winding computation: under the
// non-zero rule a ring wound opposite the outer ring punches a hole.
// Rings with fewer than 3 vertices or mismatched coordinate lengths are
// ignored.
func (r *Rasterizer) FillRings(rings []Ring, rule FillRule, span SpanFunc) {
	// Build the edge list across all rings. Horizontal edges never
	// cross a scanline sample and are skipped.
	r.edges = r.edges[:0]
	for _, ring := range rings {
		if len(ring.Xs) < 3 || len(ring.Xs) != len(ring.Ys) {
			continue
		}
		n := len(ring.Xs)
		for i := range n {
			j := (i + 1) % n
			if ring.Ys[i] == ring.Ys[j] {
				continue
			}
			r.edges = append(r.edges, NewEdge(ring.Xs[i], ring.Ys[i], ring.Xs[j], ring.Ys[j]))
		}
	}
	if len(r.edges) == 0 {
		return
	}

	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, e := range r.edges {
		yMin = math.Min(yMin, e.y0)
		yMax = math.Max(yMax, e.y1)
	}

	// Scanline rows whose center row+0.5 can lie in [yMin, yMax).
	rowMin := int(math.Floor(yMin - 0.5))
	rowMax := int(math.Ceil(yMax - 0.5))
	if rowMin < 0 {
		rowMin = 0
	}
	if rowMax > r.height {
		rowMax = r.height
	}

	for row := rowMin; row < rowMax; row++ {
		r.scanline(float64(row)+0.5, row, rule, span)
	}
}

// scanline processes one sample line at y, reporting spans on pixel row.
func (r *Rasterizer) scanline(y float64, row int, rule FillRule, span SpanFunc) {
	r.aet.clear()
	for _, e := range r.edges {
		if e.y0 <= y && y < e.y1 {
			r.aet.addAtY(e, y)
		}
	}
	if len(r.aet.edges) == 0 {
		return
	}
	r.aet.sort()

	if rule == FillRuleNonZero {
		r.fillNonZero(row, span)
	} else {
		r.fillEvenOdd(row, span)
	}
}

// fillNonZero reports spans using the non-zero winding rule.
func (r *Rasterizer) fillNonZero(row int, span SpanFunc) {
	winding := 0
	var x1 float64
	for _, e := range r.aet.edges {
		if winding == 0 {
			x1 = e.x
		}
		winding += e.dir
		if winding == 0 {
			r.emit(row, x1, e.x, span)
		}
	}
}

// fillEvenOdd reports spans using the even-odd rule.
func (r *Rasterizer) fillEvenOdd(row int, span SpanFunc) {
	for i := 0; i+1 < len(r.aet.edges); i += 2 {
		r.emit(row, r.aet.edges[i].x, r.aet.edges[i+1].x, span)
	}
}

// emit clamps a continuous span [x1, x2) to the grid and converts it to
// pixel columns under the center-inside convention: column c is interior
// iff x1 <= c+0.5 < x2.
func (r *Rasterizer) emit(row int, x1, x2 float64, span SpanFunc) {
	c0 := int(math.Ceil(x1 - 0.5))
	c1 := int(math.Ceil(x2 - 0.5))
	if c0 < 0 {
		c0 = 0
	}
	if c1 > r.width {
		c1 = r.width
	}
	if c0 < c1 {
		span(row, c0, c1)
	}
}
