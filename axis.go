package shade

import (
	"fmt"
	"math"
)

// AxisKind selects the coordinate transform applied to one canvas axis.
type AxisKind int

const (
	// AxisLinear maps data coordinates to pixels with an affine transform.
	AxisLinear AxisKind = iota

	// AxisLog maps data coordinates through log10 before the affine
	// transform. The axis range must be strictly positive.
	AxisLog
)

// String returns the string representation of AxisKind.
func (k AxisKind) String() string {
	switch k {
	case AxisLinear:
		return "linear"
	case AxisLog:
		return "log"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// transform applies the axis transform to a data coordinate.
func (k AxisKind) transform(v float64) float64 {
	if k == AxisLog {
		return math.Log10(v)
	}
	return v
}

// invert applies the inverse axis transform.
func (k AxisKind) invert(v float64) float64 {
	if k == AxisLog {
		return math.Pow(10, v)
	}
	return v
}
