package shade

import "fmt"

// ReductionKind identifies one of the closed set of per-pixel aggregation
// rules. Dispatch over the kind resolves to a fixed accumulator cell
// layout and fixed combine/merge/finalize operations; there is no runtime
// duck-typing of numeric behavior.
type ReductionKind int

const (
	// Count counts samples per pixel. With no value field it counts every
	// touch, including samples whose value is missing; with a value field
	// it counts only finite values. The two behaviors are deliberately
	// distinct so coverage and validity can both be measured.
	Count ReductionKind = iota

	// Sum adds the value field per pixel.
	Sum

	// Min keeps the smallest value per pixel.
	Min

	// Max keeps the largest value per pixel.
	Max

	// Mean reports sum/count per pixel, accumulated as a (sum,count) pair.
	Mean

	// Var reports the population variance per pixel, accumulated with
	// Welford's running moments so the error stays bounded for large inputs.
	Var

	// Std reports the population standard deviation per pixel.
	Std

	// Mode reports the most frequent category per pixel, as an index into
	// the reduction's category list. Ties break toward the category listed
	// first.
	Mode

	// First keeps the value of the earliest sample to touch the pixel, in
	// input order: chunk index first, then row order within the chunk.
	// First is explicitly order-dependent.
	First

	// Last keeps the value of the latest sample to touch the pixel, with
	// the same ordering as First.
	Last

	// CountCat counts samples per pixel per category, producing one output
	// layer per category.
	CountCat
)

// String returns the string representation of ReductionKind.
func (k ReductionKind) String() string {
	switch k {
	case Count:
		return "count"
	case Sum:
		return "sum"
	case Min:
		return "min"
	case Max:
		return "max"
	case Mean:
		return "mean"
	case Var:
		return "var"
	case Std:
		return "std"
	case Mode:
		return "mode"
	case First:
		return "first"
	case Last:
		return "last"
	case CountCat:
		return "count_cat"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Reduction specifies the aggregation applied at every touched pixel.
type Reduction struct {
	// Kind selects the accumulator.
	Kind ReductionKind

	// Field names the input column supplying sample values. Required for
	// every kind except Count, where it is optional (see Count).
	Field string

	// Categories lists the category labels for Mode and CountCat. Order
	// matters: Mode ties break toward the earlier entry, and CountCat
	// output layers follow this order.
	Categories []string
}

// validate checks the reduction spec before any rasterization begins.
func (r Reduction) validate() error {
	switch r.Kind {
	case Count:
		// Field optional.
	case Sum, Min, Max, Mean, Var, Std, First, Last:
		if r.Field == "" {
			return configErrorf("reduction %s requires a value field", r.Kind)
		}
	case Mode, CountCat:
		if r.Field == "" {
			return configErrorf("reduction %s requires a value field", r.Kind)
		}
		if len(r.Categories) == 0 {
			return configErrorf("reduction %s requires categories", r.Kind)
		}
	default:
		return configErrorf("unknown reduction kind %d", int(r.Kind))
	}
	return nil
}

// planes returns the number of accumulator planes per pixel.
func (r Reduction) planes() int {
	switch r.Kind {
	case Count, Sum, Min, Max:
		return 1
	case Mean:
		return 2 // sum, count
	case Var, Std:
		return 3 // count, mean, M2
	case First, Last:
		return 2 // value, sequence key
	case Mode, CountCat:
		return len(r.Categories)
	}
	return 0
}

// resultPlanes returns the number of finalized output layers.
func (r Reduction) resultPlanes() int {
	if r.Kind == CountCat {
		return len(r.Categories)
	}
	return 1
}

// hasField reports whether samples carry a value from an input column.
func (r Reduction) hasField() bool { return r.Field != "" }

// orderDependent reports whether the result depends on input order.
// Only First and Last are order-dependent; every other merge is
// associative and commutative.
func (r Reduction) orderDependent() bool {
	return r.Kind == First || r.Kind == Last
}

// categorical reports whether sample values are category indices.
func (r Reduction) categorical() bool {
	return r.Kind == Mode || r.Kind == CountCat
}

// tracksCount reports whether the accumulator retains a per-pixel count
// of valid values that can be exposed as result metadata.
func (r Reduction) tracksCount() bool {
	switch r.Kind {
	case Count, Mean, Var, Std:
		return true
	}
	return false
}
