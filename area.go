package shade

import (
	"github.com/aclements/go-gg/table"
	"github.com/gogrid/shade/internal/raster"
)

// areaGlyph scan-fills polygons described by NaN-separated vertex runs.
type areaGlyph struct {
	x, y string
}

// Polygons returns a glyph that scan-fills polygon interiors. The
// coordinate columns hold vertex rings separated by NaN records; each
// ring is closed implicitly. A ring wound opposite to the preceding
// exterior ring is a hole in that polygon; a ring with the same winding
// starts a new polygon. A pixel belongs to a polygon iff its center lies
// inside under the non-zero winding rule, so hole pixels receive no
// combines and adjacent polygons sharing an edge never claim the same
// boundary pixel twice.
//
// Each polygon triggers one combine per interior pixel, with the value
// taken from the exterior ring's first record. Rings with fewer than
// three finite vertices are skipped and tallied in Result.Dropped.
func Polygons(x, y string) Glyph {
	return areaGlyph{x: x, y: y}
}

func (g areaGlyph) Kind() GlyphKind { return GlyphArea }

// vertexRun is one ring's half-open index range in the vertex columns.
type vertexRun struct {
	start, end int
}

func (g areaGlyph) rasterize(cvs *Canvas, tbl *table.Table, red Reduction, buf *gridBuffer, chunk int) (int64, error) {
	xs, err := floatColumn(tbl, g.x)
	if err != nil {
		return 0, err
	}
	ys, err := floatColumn(tbl, g.y)
	if err != nil {
		return 0, err
	}
	if len(xs) != len(ys) {
		return 0, dataErrorf("column length mismatch: %q has %d rows, %q has %d", g.x, len(xs), g.y, len(ys))
	}
	vs, err := valueColumn(tbl, red)
	if err != nil {
		return 0, err
	}
	if vs != nil && len(vs) != len(xs) {
		return 0, dataErrorf("column length mismatch: %q has %d rows, %q has %d", red.Field, len(vs), g.x, len(xs))
	}

	var dropped int64
	var runs []vertexRun
	start := 0
	flush := func(end int) {
		if end > start {
			if end-start < 3 {
				dropped++
			} else {
				runs = append(runs, vertexRun{start: start, end: end})
			}
		}
		start = end + 1
	}
	for i := range xs {
		if !isFinite(xs[i]) || !isFinite(ys[i]) {
			flush(i)
		}
	}
	flush(len(xs))

	// Group rings into polygons by winding: the first ring of a polygon
	// is its exterior, and each following ring with the opposite winding
	// is one of its holes.
	var polys [][]vertexRun
	curOrient := 0
	for _, r := range runs {
		or := ringOrientation(xs[r.start:r.end], ys[r.start:r.end])
		if len(polys) == 0 || or == 0 || curOrient == 0 || or == curOrient {
			polys = append(polys, []vertexRun{r})
			curOrient = or
		} else {
			last := len(polys) - 1
			polys[last] = append(polys[last], r)
		}
	}

	rast := raster.NewRasterizer(buf.width, buf.height)
	for _, rings := range polys {
		ext := rings[0]
		g.fillPolygon(cvs, rast, buf, xs, ys, rings, value(vs, ext.start), sequence(chunk, ext.start))
	}
	return dropped, nil
}

// fillPolygon scan-converts one polygon, exterior ring plus holes, into
// combine calls.
func (g areaGlyph) fillPolygon(cvs *Canvas, rast *raster.Rasterizer, buf *gridBuffer, xs, ys []float64, runs []vertexRun, v float64, seq int64) {
	rings := make([]raster.Ring, len(runs))
	for k, r := range runs {
		pxs := make([]float64, r.end-r.start)
		pys := make([]float64, r.end-r.start)
		for i := range pxs {
			pxs[i] = cvs.xToPixelSpace(xs[r.start+i])
			pys[i] = cvs.yToPixelSpace(ys[r.start+i])
		}
		rings[k] = raster.Ring{Xs: pxs, Ys: pys}
	}
	rast.FillRings(rings, raster.FillRuleNonZero, func(row, c0, c1 int) {
		for col := c0; col < c1; col++ {
			buf.combine(row, col, v, seq)
		}
	})
}

// ringOrientation returns the sign of a ring's signed area: positive for
// counter-clockwise vertex order in data space, negative for clockwise,
// zero for a degenerate ring. Monotonic axis transforms preserve the
// sign, so data-space orientation matches pixel-space orientation.
func ringOrientation(xs, ys []float64) int {
	var a float64
	n := len(xs)
	for i := range n {
		j := (i + 1) % n
		a += xs[i]*ys[j] - xs[j]*ys[i]
	}
	switch {
	case a > 0:
		return 1
	case a < 0:
		return -1
	}
	return 0
}
