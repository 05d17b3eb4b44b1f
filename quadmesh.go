package shade

import (
	"context"
	"math"

	"github.com/gogrid/shade/internal/raster"
)

// RegridQuadmesh resamples a structured quad mesh onto the canvas. The
// mesh is rectilinear when src carries 1D X/Y cell-center axes (which may
// be unevenly spaced) and curvilinear when it carries 2D XCoords/YCoords
// corner arrays of shape (rows+1) x (cols+1).
//
// Each source cell is its own glyph: every output pixel whose center
// falls inside the cell's footprint receives one combine call with the
// cell's value. Where cells are larger than pixels this assigns each
// pixel to exactly one cell (nearest-neighbor upscaling, since the cells
// partition the mesh extent); where cells are smaller than pixels,
// multiple cells accumulate into one pixel through the reduction
// (downscaling). A cell too small to cover any pixel center still
// contributes to the pixel containing its own center. Because cell sizes
// vary across the mesh, one call may upscale in some regions and
// downscale in others; no global scale factor is assumed.
func RegridQuadmesh(ctx context.Context, src *Array, cvs *Canvas, red Reduction) (*Result, error) {
	if cvs == nil {
		return nil, configErrorf("nil canvas")
	}
	if err := src.validate(); err != nil {
		return nil, err
	}
	if err := red.validate(); err != nil {
		return nil, err
	}
	if red.categorical() {
		return nil, configErrorf("categorical reduction %s is not supported for quadmesh regridding", red.Kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if src.XCoords != nil || src.YCoords != nil {
		return regridCurvilinear(src, cvs, red)
	}
	if src.X == nil || src.Y == nil {
		return nil, configErrorf("quadmesh input requires X/Y axes or XCoords/YCoords corner arrays")
	}
	return regridRectilinear(src, cvs, red)
}

// regridRectilinear handles 1D coordinate axes with arbitrary spacing.
// Cell boundaries sit halfway between neighboring centers, with the end
// cells extended symmetrically.
func regridRectilinear(src *Array, cvs *Canvas, red Reduction) (*Result, error) {
	ny, nx := src.dims()
	xe := centerEdges(src.X, cvs.xAxis)
	ye := centerEdges(src.Y, cvs.yAxis)

	buf := newGridBuffer(cvs.width, cvs.height, red)
	for i := range ny {
		r0, r1 := pixelSpan(ye[i], ye[i+1], cvs.tymin, cvs.yStep(), cvs.height)
		for j := range nx {
			c0, c1 := pixelSpan(xe[j], xe[j+1], cvs.txmin, cvs.xStep(), cvs.width)
			seq := sequence(0, i*nx+j)
			if r0 >= r1 || c0 >= c1 {
				// The cell covers no pixel center; fold it into the pixel
				// holding the cell's own center so downscaling never loses
				// cells.
				if col, row, ok := cvs.ToPixel(src.X[j], src.Y[i]); ok {
					buf.combine(row, col, src.Values[i][j], seq)
				}
				continue
			}
			for row := r0; row < r1; row++ {
				for col := c0; col < c1; col++ {
					buf.combine(row, col, src.Values[i][j], seq)
				}
			}
		}
	}
	return newResult(cvs, buf, 0), nil
}

// centerEdges converts cell-center coordinates to transformed-space cell
// edges: midpoints between neighbors, end edges mirrored.
func centerEdges(centers []float64, kind AxisKind) []float64 {
	n := len(centers)
	t := make([]float64, n)
	for i, c := range centers {
		t[i] = kind.transform(c)
	}
	edges := make([]float64, n+1)
	if n == 1 {
		edges[0] = t[0] - 0.5
		edges[1] = t[0] + 0.5
		return edges
	}
	for i := 1; i < n; i++ {
		edges[i] = (t[i-1] + t[i]) / 2
	}
	edges[0] = t[0] - (t[1]-t[0])/2
	edges[n] = t[n-1] + (t[n-1]-t[n-2])/2
	return edges
}

// pixelSpan returns the half-open range of pixels whose centers lie in
// the transformed-space interval [e0, e1), clamped to the grid.
func pixelSpan(e0, e1, tmin, step float64, n int) (int, int) {
	lo := int(math.Ceil((e0-tmin)/step - 0.5))
	hi := int(math.Ceil((e1-tmin)/step - 0.5))
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}

// regridCurvilinear handles 2D corner arrays: each cell is an arbitrary
// quadrilateral, scan-filled with the same pixel-center convention as the
// area glyph.
func regridCurvilinear(src *Array, cvs *Canvas, red Reduction) (*Result, error) {
	ny, nx := src.dims()
	if len(src.XCoords) != ny+1 || len(src.YCoords) != ny+1 {
		return nil, dataErrorf("corner arrays must have %d rows, got %d", ny+1, len(src.XCoords))
	}
	for i := range src.XCoords {
		if len(src.XCoords[i]) != nx+1 || len(src.YCoords[i]) != nx+1 {
			return nil, dataErrorf("corner arrays must have %d columns in row %d", nx+1, i)
		}
	}

	buf := newGridBuffer(cvs.width, cvs.height, red)
	rast := raster.NewRasterizer(cvs.width, cvs.height)
	qx := make([]float64, 4)
	qy := make([]float64, 4)
	for i := range ny {
		for j := range nx {
			// Corner order traces the quad's perimeter.
			qx[0], qy[0] = src.XCoords[i][j], src.YCoords[i][j]
			qx[1], qy[1] = src.XCoords[i][j+1], src.YCoords[i][j+1]
			qx[2], qy[2] = src.XCoords[i+1][j+1], src.YCoords[i+1][j+1]
			qx[3], qy[3] = src.XCoords[i+1][j], src.YCoords[i+1][j]

			v := src.Values[i][j]
			seq := sequence(0, i*nx+j)
			px := [4]float64{}
			py := [4]float64{}
			bad := false
			for k := range 4 {
				if !isFinite(qx[k]) || !isFinite(qy[k]) {
					bad = true
					break
				}
				px[k] = cvs.xToPixelSpace(qx[k])
				py[k] = cvs.yToPixelSpace(qy[k])
			}
			if bad {
				continue
			}

			touched := false
			rast.Fill(px[:], py[:], raster.FillRuleNonZero, func(row, c0, c1 int) {
				touched = true
				for col := c0; col < c1; col++ {
					buf.combine(row, col, v, seq)
				}
			})
			if !touched {
				// Sub-pixel quad: contribute to the pixel holding its
				// centroid.
				cx := (qx[0] + qx[1] + qx[2] + qx[3]) / 4
				cy := (qy[0] + qy[1] + qy[2] + qy[3]) / 4
				if col, row, ok := cvs.ToPixel(cx, cy); ok {
					buf.combine(row, col, v, seq)
				}
			}
		}
	}
	return newResult(cvs, buf, 0), nil
}
