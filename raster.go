package shade

import (
	"context"
	"math"
)

// Array is an already-gridded input field: a dense [row][col] value
// matrix with labeled coordinates. Rectilinear grids carry 1D cell-center
// axes X and Y (row i sits at Y[i], column j at X[j]); curvilinear grids
// instead carry 2D corner arrays XCoords and YCoords of shape
// (rows+1) x (cols+1), giving each cell's quadrilateral footprint. An
// Array with no coordinates at all is taken to span the target canvas
// range uniformly.
type Array struct {
	Values [][]float64

	// X and Y are rectilinear cell-center axes, strictly ascending.
	X, Y []float64

	// XCoords and YCoords are curvilinear cell-corner arrays.
	XCoords, YCoords [][]float64
}

// dims returns the grid dimensions.
func (a *Array) dims() (ny, nx int) {
	if len(a.Values) == 0 {
		return 0, 0
	}
	return len(a.Values), len(a.Values[0])
}

// validate checks structural consistency common to both regrid entry
// points.
func (a *Array) validate() error {
	if a == nil {
		return configErrorf("nil input array")
	}
	ny, nx := a.dims()
	if ny == 0 || nx == 0 {
		return dataErrorf("empty input array")
	}
	for i, row := range a.Values {
		if len(row) != nx {
			return dataErrorf("ragged input array: row %d has %d values, want %d", i, len(row), nx)
		}
	}
	if a.X != nil && len(a.X) != nx {
		return dataErrorf("x axis has %d entries, want %d", len(a.X), nx)
	}
	if a.Y != nil && len(a.Y) != ny {
		return dataErrorf("y axis has %d entries, want %d", len(a.Y), ny)
	}
	if err := ascending(a.X, "x"); err != nil {
		return err
	}
	return ascending(a.Y, "y")
}

func ascending(axis []float64, name string) error {
	for i := 1; i < len(axis); i++ {
		if !(axis[i] > axis[i-1]) {
			return dataErrorf("%s axis is not strictly ascending at index %d", name, i)
		}
	}
	return nil
}

// axis1D describes one rectilinear source axis in transformed coordinate
// space: n uniformly spaced cell centers starting at c0 with step d. For
// linear canvas axes transformed space is data space; for log axes it is
// log10 space, which keeps the index math affine either way.
type axis1D struct {
	n  int
	c0 float64
	d  float64
}

// toIndex maps a transformed coordinate to a fractional cell index (0 at
// the first cell's center).
func (ax axis1D) toIndex(v float64) float64 { return (v - ax.c0) / ax.d }

// uniformAxis derives a uniform axis from explicit centers, or from the
// canvas range when centers are absent. Explicit centers must be
// (near-)uniformly spaced after the axis transform; unevenly spaced
// grids belong to RegridQuadmesh.
func uniformAxis(centers []float64, n int, tmin, tspan float64, kind AxisKind) (axis1D, error) {
	if centers == nil {
		d := tspan / float64(n)
		return axis1D{n: n, c0: tmin + d/2, d: d}, nil
	}
	t0 := kind.transform(centers[0])
	if n == 1 {
		return axis1D{n: 1, c0: t0, d: tspan}, nil
	}
	tn := kind.transform(centers[n-1])
	d := (tn - t0) / float64(n-1)
	prev := t0
	for i := 1; i < n; i++ {
		t := kind.transform(centers[i])
		if math.Abs((t-prev)-d) > 1e-6*math.Abs(d) {
			return axis1D{}, configErrorf("unevenly spaced axis (step %g at index %d, want %g); use RegridQuadmesh", t-prev, i, d)
		}
		prev = t
	}
	return axis1D{n: n, c0: t0, d: d}, nil
}

// RegridRaster resamples a regular grid onto the canvas. The direction is
// chosen per axis by comparing resolutions: an axis where the canvas is
// coarser than the source is downsampled (every source cell whose center
// maps into an output pixel's footprint is reduced into that pixel), and
// an axis where the canvas is finer is upsampled by interpolation
// (bilinear by default, or nearest via WithInterpolation). The two axes
// may resample in different directions within one call, but a single axis
// is never both.
func RegridRaster(ctx context.Context, src *Array, cvs *Canvas, red Reduction, opts ...Option) (*Result, error) {
	if cvs == nil {
		return nil, configErrorf("nil canvas")
	}
	if err := src.validate(); err != nil {
		return nil, err
	}
	if src.XCoords != nil || src.YCoords != nil {
		return nil, configErrorf("curvilinear coordinates given; use RegridQuadmesh")
	}
	if err := red.validate(); err != nil {
		return nil, err
	}
	if red.categorical() {
		return nil, configErrorf("categorical reduction %s is not supported for raster regridding", red.Kind)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ny, nx := src.dims()
	xAxis, err := uniformAxis(src.X, nx, cvs.txmin, cvs.txspan, cvs.xAxis)
	if err != nil {
		return nil, err
	}
	yAxis, err := uniformAxis(src.Y, ny, cvs.tymin, cvs.tyspan, cvs.yAxis)
	if err != nil {
		return nil, err
	}

	// Per-axis direction: downsample when the output pixel step exceeds
	// the source cell step in data space.
	downX := cvs.xStep() > xAxis.d
	downY := cvs.yStep() > yAxis.d

	buf := newGridBuffer(cvs.width, cvs.height, red)
	ystep, xstep := cvs.yStep(), cvs.xStep()
	for row := range cvs.height {
		ty0 := cvs.tymin + float64(row)*ystep
		i0, i1, vfrac := yAxis.pixelRange(ty0, ty0+ystep, ty0+ystep/2, downY, cfg.interp)
		for col := range cvs.width {
			tx0 := cvs.txmin + float64(col)*xstep
			j0, j1, ufrac := xAxis.pixelRange(tx0, tx0+xstep, tx0+xstep/2, downX, cfg.interp)
			regridCell(buf, src, row, col, downY, i0, i1, vfrac, downX, j0, j1, ufrac, cfg.interp)
		}
	}
	return newResult(cvs, buf, 0), nil
}

// pixelRange resolves one output pixel's extent on this axis. For a
// downsampled axis it returns the half-open source index interval
// [lo,hi) of cells whose centers fall inside the pixel footprint
// [e0,e1). For an upsampled axis it returns lo=hi and the fractional
// source index of the pixel center (already rounded for
// nearest-neighbor).
func (ax axis1D) pixelRange(e0, e1, center float64, down bool, interp Interpolation) (lo, hi int, frac float64) {
	if down {
		lo = int(math.Ceil(ax.toIndex(e0)))
		hi = int(math.Ceil(ax.toIndex(e1)))
		if lo < 0 {
			lo = 0
		}
		if hi > ax.n {
			hi = ax.n
		}
		return lo, hi, 0
	}
	frac = ax.toIndex(center)
	if interp == InterpNearest {
		frac = math.Round(frac)
	}
	if frac < 0 {
		frac = 0
	}
	if frac > float64(ax.n-1) {
		frac = float64(ax.n - 1)
	}
	return 0, 0, frac
}

// regridCell fills one output pixel. Down-axes contribute an index
// interval, up-axes a fractional coordinate; every contributing source
// sample goes through the reduction's combine so downsampling semantics
// match point aggregation exactly. A down-axis interval holding no
// source cell centers contributes nothing, leaving the pixel at the
// reduction's identity.
func regridCell(buf *gridBuffer, src *Array, row, col int, downY bool, i0, i1 int, vfrac float64, downX bool, j0, j1 int, ufrac float64, interp Interpolation) {
	_, nx := src.dims()
	switch {
	case downY && downX:
		for i := i0; i < i1; i++ {
			for j := j0; j < j1; j++ {
				buf.combine(row, col, src.Values[i][j], sequence(0, i*nx+j))
			}
		}
	case downY && !downX:
		for i := i0; i < i1; i++ {
			buf.combine(row, col, sample1D(src.Values[i], ufrac, interp), sequence(0, i*nx))
		}
	case !downY && downX:
		for j := j0; j < j1; j++ {
			buf.combine(row, col, sampleColumn(src.Values, j, vfrac, interp), sequence(0, j))
		}
	default:
		buf.combine(row, col, sample2D(src.Values, vfrac, ufrac, interp), sequence(0, 0))
	}
}

// sample1D samples a row at fractional index u.
func sample1D(vals []float64, u float64, interp Interpolation) float64 {
	if interp == InterpNearest {
		return vals[int(u)]
	}
	j0 := int(math.Floor(u))
	j1 := j0 + 1
	if j1 >= len(vals) {
		return vals[j0]
	}
	t := u - float64(j0)
	return vals[j0]*(1-t) + vals[j1]*t
}

// sampleColumn samples column j at fractional row index v.
func sampleColumn(vals [][]float64, j int, v float64, interp Interpolation) float64 {
	if interp == InterpNearest {
		return vals[int(v)][j]
	}
	i0 := int(math.Floor(v))
	i1 := i0 + 1
	if i1 >= len(vals) {
		return vals[i0][j]
	}
	t := v - float64(i0)
	return vals[i0][j]*(1-t) + vals[i1][j]*t
}

// sample2D samples at fractional (row, col) index (v, u): nearest
// neighbor or bilinear over the surrounding four cells.
func sample2D(vals [][]float64, v, u float64, interp Interpolation) float64 {
	if interp == InterpNearest {
		return vals[int(v)][int(u)]
	}
	i0 := int(math.Floor(v))
	j0 := int(math.Floor(u))
	i1, j1 := i0+1, j0+1
	if i1 >= len(vals) {
		i1 = i0
	}
	if j1 >= len(vals[0]) {
		j1 = j0
	}
	tv := v - float64(i0)
	tu := u - float64(j0)
	top := vals[i0][j0]*(1-tu) + vals[i0][j1]*tu
	bot := vals[i1][j0]*(1-tu) + vals[i1][j1]*tu
	return top*(1-tv) + bot*tv
}

// xStep returns the output pixel width in data units (transformed space
// for log axes).
func (c *Canvas) xStep() float64 { return c.txspan / float64(c.width) }

// yStep returns the output pixel height in data units.
func (c *Canvas) yStep() float64 { return c.tyspan / float64(c.height) }

