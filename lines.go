package shade

import (
	"math"

	"github.com/aclements/go-gg/table"
	"golang.org/x/image/math/fixed"
)

// lineGlyph rasterizes the polyline through consecutive records.
type lineGlyph struct {
	x, y string
}

// Lines returns a glyph that rasterizes the polyline through consecutive
// records, reading coordinates from the named columns. Segments are
// clipped to the canvas and walked with an integer Bresenham in pixel
// space: every pixel a segment crosses receives exactly one combine call
// per segment, and the shared vertex of two consecutive segments is
// combined only once. A record with a non-finite coordinate lifts the
// pen (breaks the polyline) and is tallied in Result.Dropped. The sample
// value for a segment comes from its starting record.
func Lines(x, y string) Glyph {
	return lineGlyph{x: x, y: y}
}

func (g lineGlyph) Kind() GlyphKind { return GlyphLine }

func (g lineGlyph) rasterize(cvs *Canvas, tbl *table.Table, red Reduction, buf *gridBuffer, chunk int) (int64, error) {
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
	penDown := false
	for i := range xs {
		if !isFinite(xs[i]) || !isFinite(ys[i]) {
			dropped++
			penDown = false
			continue
		}
		if !penDown {
			penDown = true
			continue
		}
		g.segment(cvs, buf,
			xs[i-1], ys[i-1], xs[i], ys[i],
			value(vs, i-1), sequence(chunk, i-1),
			i > 1 && isFinite(xs[i-2]) && isFinite(ys[i-2]))
	}
	return dropped, nil
}

// segment rasterizes one clipped segment. skipFirst suppresses the start
// pixel for continuation segments so a polyline vertex is not combined
// twice.
func (g lineGlyph) segment(cvs *Canvas, buf *gridBuffer, x0, y0, x1, y1, v float64, seq int64, skipFirst bool) {
	fx0, fy0 := cvs.xToPixelSpace(x0), cvs.yToPixelSpace(y0)
	fx1, fy1 := cvs.xToPixelSpace(x1), cvs.yToPixelSpace(y1)

	fx0, fy0, fx1, fy1, t0, ok := clipSegment(fx0, fy0, fx1, fy1, float64(buf.width), float64(buf.height))
	if !ok {
		return
	}
	// A clipped start means the shared vertex itself was off canvas, so
	// the first visited pixel is the clip entry point and must combine.
	if t0 > 0 {
		skipFirst = false
	}

	px0, py0 := snapPixel(fx0, fy0, buf.width, buf.height)
	px1, py1 := snapPixel(fx1, fy1, buf.width, buf.height)

	// Bresenham walk, inclusive of both endpoints.
	dx := abs(px1 - px0)
	dy := -abs(py1 - py0)
	sx, sy := 1, 1
	if px0 > px1 {
		sx = -1
	}
	if py0 > py1 {
		sy = -1
	}
	e := dx + dy
	x, y := px0, py0
	first := true
	for {
		if !(first && skipFirst) {
			buf.combine(y, x, v, seq)
		}
		first = false
		if x == px1 && y == py1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// snapPixel converts continuous pixel-space coordinates to a pixel index.
// Coordinates are snapped to 26.6 fixed point first so that clipped
// endpoints truncate the same way on every platform and run.
func snapPixel(fx, fy float64, width, height int) (int, int) {
	px := fixed.Int26_6(math.Round(fx * 64)).Floor()
	py := fixed.Int26_6(math.Round(fy * 64)).Floor()
	if px >= width {
		px = width - 1
	}
	if px < 0 {
		px = 0
	}
	if py >= height {
		py = height - 1
	}
	if py < 0 {
		py = 0
	}
	return px, py
}

// clipSegment clips a segment to the rectangle [0,w] x [0,h] with the
// Liang-Barsky parametric test. ok is false when the segment lies fully
// outside.
func clipSegment(x0, y0, x1, y1, w, h float64) (cx0, cy0, cx1, cy1, tEnter float64, ok bool) {
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0

	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}

	if !clip(-dx, x0) || !clip(dx, w-x0) || !clip(-dy, y0) || !clip(dy, h-y0) {
		return 0, 0, 0, 0, 0, false
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, t0, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
