package shade

import "fmt"

// Interpolation selects how upsampled raster values are produced.
type Interpolation int

const (
	// InterpLinear interpolates each output pixel from the surrounding
	// four source cells (bilinear). The default.
	InterpLinear Interpolation = iota

	// InterpNearest copies each output pixel from the nearest source cell.
	InterpNearest
)

// String returns the string representation of Interpolation.
func (i Interpolation) String() string {
	switch i {
	case InterpLinear:
		return "linear"
	case InterpNearest:
		return "nearest"
	default:
		return fmt.Sprintf("Unknown(%d)", int(i))
	}
}

// Option configures an aggregation call. Use functional options to
// customize driver behavior.
//
// Example:
//
//	res, err := shade.Aggregate(ctx, src, cvs, glyph, red,
//	    shade.WithWorkers(4))
type Option func(*config)

// config holds the resolved per-call configuration.
type config struct {
	workers    int
	maxRetries int
	interp     Interpolation
}

// defaultConfig returns the default aggregation options.
func defaultConfig() config {
	return config{
		workers:    0, // resolved to GOMAXPROCS at dispatch
		maxRetries: 1,
		interp:     InterpLinear,
	}
}

// WithWorkers bounds the number of chunks rasterized concurrently.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithMaxRetries sets how many times a failed chunk is retried before it
// is reported in a PartitionError. The default is 1.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInterpolation selects the upsampling mode used by RegridRaster.
// The default is InterpLinear.
func WithInterpolation(i Interpolation) Option {
	return func(c *config) { c.interp = i }
}
