package shade

import "math"

// Canvas is an immutable description of the output pixel grid: its
// dimensions, the data-space range it covers on each axis, and the axis
// transforms. A Canvas maps data coordinates to pixel indices in
// [0,width) x [0,height) and back.
//
// Orientation convention: column 0 covers the low end of the x range and
// row 0 covers the low end of the y range. A coordinate exactly on the
// high edge of a range belongs to the last pixel on that axis, so the
// full closed range [min,max] is covered with no gap.
type Canvas struct {
	width  int
	height int
	xmin   float64
	xmax   float64
	ymin   float64
	ymax   float64
	xAxis  AxisKind
	yAxis  AxisKind

	// Transformed bounds, precomputed at construction.
	txmin, txspan float64
	tymin, tyspan float64
}

// CanvasOption configures a Canvas during creation.
type CanvasOption func(*Canvas)

// WithXAxis sets the x axis kind (default AxisLinear).
func WithXAxis(k AxisKind) CanvasOption {
	return func(c *Canvas) { c.xAxis = k }
}

// WithYAxis sets the y axis kind (default AxisLinear).
func WithYAxis(k AxisKind) CanvasOption {
	return func(c *Canvas) { c.yAxis = k }
}

// NewCanvas creates a canvas of width x height pixels covering the data
// ranges [xmin,xmax] and [ymin,ymax]. Dimensions must be positive and
// ranges non-degenerate (min < max); log axes additionally require a
// strictly positive range. Violations return a ConfigError.
func NewCanvas(width, height int, xmin, xmax, ymin, ymax float64, opts ...CanvasOption) (*Canvas, error) {
	c := &Canvas{
		width: width, height: height,
		xmin: xmin, xmax: xmax,
		ymin: ymin, ymax: ymax,
	}
	for _, opt := range opts {
		opt(c)
	}

	if width <= 0 || height <= 0 {
		return nil, configErrorf("canvas dimensions must be positive, got %dx%d", width, height)
	}
	if !isFinite(xmin) || !isFinite(xmax) || !isFinite(ymin) || !isFinite(ymax) {
		return nil, configErrorf("canvas range must be finite")
	}
	if xmin >= xmax {
		return nil, configErrorf("degenerate x range [%g,%g]", xmin, xmax)
	}
	if ymin >= ymax {
		return nil, configErrorf("degenerate y range [%g,%g]", ymin, ymax)
	}
	if c.xAxis == AxisLog && xmin <= 0 {
		return nil, configErrorf("log x axis requires positive range, got [%g,%g]", xmin, xmax)
	}
	if c.yAxis == AxisLog && ymin <= 0 {
		return nil, configErrorf("log y axis requires positive range, got [%g,%g]", ymin, ymax)
	}

	c.txmin = c.xAxis.transform(xmin)
	c.txspan = c.xAxis.transform(xmax) - c.txmin
	c.tymin = c.yAxis.transform(ymin)
	c.tyspan = c.yAxis.transform(ymax) - c.tymin
	return c, nil
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// XRange returns the data-space x range.
func (c *Canvas) XRange() (min, max float64) { return c.xmin, c.xmax }

// YRange returns the data-space y range.
func (c *Canvas) YRange() (min, max float64) { return c.ymin, c.ymax }

// XAxisKind returns the x axis kind.
func (c *Canvas) XAxisKind() AxisKind { return c.xAxis }

// YAxisKind returns the y axis kind.
func (c *Canvas) YAxisKind() AxisKind { return c.yAxis }

// ToPixel maps a data coordinate to a pixel index. ok is false when the
// coordinate is non-finite or falls outside the canvas range; callers
// must clip such coordinates, never wrap them.
func (c *Canvas) ToPixel(x, y float64) (col, row int, ok bool) {
	col, ok = c.xToCol(x)
	if !ok {
		return 0, 0, false
	}
	row, ok = c.yToRow(y)
	if !ok {
		return 0, 0, false
	}
	return col, row, true
}

func (c *Canvas) xToCol(x float64) (int, bool) {
	if !isFinite(x) || x < c.xmin || x > c.xmax {
		return 0, false
	}
	col := int(math.Floor((c.xAxis.transform(x) - c.txmin) / c.txspan * float64(c.width)))
	if col >= c.width {
		col = c.width - 1
	}
	if col < 0 {
		col = 0
	}
	return col, true
}

func (c *Canvas) yToRow(y float64) (int, bool) {
	if !isFinite(y) || y < c.ymin || y > c.ymax {
		return 0, false
	}
	row := int(math.Floor((c.yAxis.transform(y) - c.tymin) / c.tyspan * float64(c.height)))
	if row >= c.height {
		row = c.height - 1
	}
	if row < 0 {
		row = 0
	}
	return row, true
}

// PixelCenter maps a pixel index to the data-space coordinate of its
// center. The inverse of ToPixel up to pixel quantization.
func (c *Canvas) PixelCenter(col, row int) (x, y float64) {
	tx := c.txmin + (float64(col)+0.5)/float64(c.width)*c.txspan
	ty := c.tymin + (float64(row)+0.5)/float64(c.height)*c.tyspan
	return c.xAxis.invert(tx), c.yAxis.invert(ty)
}

// PixelSpace maps a data coordinate into continuous pixel space without
// clipping: fx in [0,width] and fy in [0,height] when the coordinate is
// inside the canvas range. Accelerator backends use this to precompute
// device-side coordinates; most callers want ToPixel instead.
func (c *Canvas) PixelSpace(x, y float64) (fx, fy float64) {
	return c.xToPixelSpace(x), c.yToPixelSpace(y)
}

// xToPixelSpace maps x into continuous pixel space [0,width] without
// clipping. Used by the line and area rasterizers, which clip themselves.
func (c *Canvas) xToPixelSpace(x float64) float64 {
	return (c.xAxis.transform(x) - c.txmin) / c.txspan * float64(c.width)
}

// yToPixelSpace maps y into continuous pixel space [0,height].
func (c *Canvas) yToPixelSpace(y float64) float64 {
	return (c.yAxis.transform(y) - c.tymin) / c.tyspan * float64(c.height)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
