package shade

import (
	"fmt"
	"strings"
)

// ConfigError reports invalid configuration: a degenerate canvas range, an
// unknown reduction kind, a missing required column, and similar mistakes
// that are detectable before any rasterization begins. ConfigErrors are
// always fatal.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return "shade: invalid config: " + e.Reason + ": " + e.Err.Error()
	}
	return "shade: invalid config: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// DataError reports malformed input data that cannot be skipped at record
// granularity: mismatched column lengths, ragged grids, or an entirely
// empty input. Per-record problems (a non-finite coordinate, a NaN value)
// are not DataErrors; they are skipped and tallied in Result.Dropped.
type DataError struct {
	Reason string
	Err    error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return "shade: bad input: " + e.Reason + ": " + e.Err.Error()
	}
	return "shade: bad input: " + e.Reason
}

func (e *DataError) Unwrap() error { return e.Err }

func dataErrorf(format string, args ...any) error {
	return &DataError{Reason: fmt.Sprintf(format, args...)}
}

// PartitionError reports that some chunks failed during parallel
// rasterization after exhausting their retries. The aggregation result
// returned alongside a PartitionError covers only the succeeded chunks.
type PartitionError struct {
	// Failed holds the indices of chunks whose rasterization failed.
	Failed []int

	// Succeeded holds the indices of chunks that were merged into the result.
	Succeeded []int

	// Errs holds the final error from each failed chunk, parallel to Failed.
	Errs []error
}

func (e *PartitionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "shade: %d of %d chunks failed", len(e.Failed), len(e.Failed)+len(e.Succeeded))
	for i, idx := range e.Failed {
		fmt.Fprintf(&b, "; chunk %d: %v", idx, e.Errs[i])
	}
	return b.String()
}

// Unwrap returns the per-chunk errors so callers can match them with
// errors.Is and errors.As.
func (e *PartitionError) Unwrap() []error { return e.Errs }
