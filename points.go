package shade

import (
	"github.com/aclements/go-gg/table"
)

// pointGlyph maps each record's (x, y) to one pixel.
type pointGlyph struct {
	x, y string
}

// Points returns a glyph that rasterizes each record as a single pixel,
// reading coordinates from the named columns. Records whose coordinates
// fall outside the canvas are dropped silently; records with non-finite
// coordinates are skipped and tallied in Result.Dropped.
func Points(x, y string) Glyph {
	return pointGlyph{x: x, y: y}
}

func (g pointGlyph) Kind() GlyphKind { return GlyphPoint }

func (g pointGlyph) rasterize(cvs *Canvas, tbl *table.Table, red Reduction, buf *gridBuffer, chunk int) (int64, error) {
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
	for i := range xs {
		x, y := xs[i], ys[i]
		if !isFinite(x) || !isFinite(y) {
			dropped++
			continue
		}
		col, row, ok := cvs.ToPixel(x, y)
		if !ok {
			// In range but outside the canvas: ordinary clipping, not an
			// input defect.
			continue
		}
		buf.combine(row, col, value(vs, i), sequence(chunk, i))
	}
	return dropped, nil
}

// value reads the ith sample value, or NaN-free zero when the reduction
// carries no field (vs nil).
func value(vs []float64, i int) float64 {
	if vs == nil {
		return 0
	}
	return vs[i]
}
