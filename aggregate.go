package shade

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Phase identifies a stage of the aggregation driver's lifecycle. The
// driver moves through Init, PartitionDispatch, a Rasterizing stage per
// chunk, Merging, Finalizing, and Done; transitions are logged at Debug
// level.
type Phase int

const (
	// PhaseInit validates the canvas, reduction, and source.
	PhaseInit Phase = iota

	// PhasePartitionDispatch splits the source into chunks and allocates
	// one grid buffer per chunk.
	PhasePartitionDispatch

	// PhaseRasterizing runs glyph rasterization, one task per chunk, each
	// against its own buffer. This is the unit of parallelism.
	PhaseRasterizing

	// PhaseMerging folds partial buffers in a fixed tree order.
	PhaseMerging

	// PhaseFinalizing converts accumulator state to reported values.
	PhaseFinalizing

	// PhaseDone means the result has been produced.
	PhaseDone
)

// String returns the string representation of Phase.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "Init"
	case PhasePartitionDispatch:
		return "PartitionDispatch"
	case PhaseRasterizing:
		return "Rasterizing"
	case PhaseMerging:
		return "Merging"
	case PhaseFinalizing:
		return "Finalizing"
	case PhaseDone:
		return "Done"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// Aggregate rasterizes every primitive of src onto the canvas and reduces
// the samples at each pixel with red.
//
// Chunks of src are rasterized concurrently, each into a private grid
// buffer; partial buffers are merged in a fixed tree order, so results
// are run-to-run identical for every reduction except First/Last, which
// are defined by chunk order instead. A chunk whose task fails is retried
// (once by default); chunks that still fail are reported in a
// PartitionError alongside the result built from the chunks that
// succeeded. Cancelling ctx abandons outstanding chunks and returns no
// result.
//
// Fatal errors (invalid canvas or reduction, missing columns, mismatched
// column lengths, empty input) abort before producing any output.
func Aggregate(ctx context.Context, src Source, cvs *Canvas, glyph Glyph, red Reduction, opts ...Option) (*Result, error) {
	log := Logger()

	// Init.
	if cvs == nil {
		return nil, configErrorf("nil canvas")
	}
	if src == nil {
		return nil, configErrorf("nil source")
	}
	if glyph == nil {
		return nil, configErrorf("nil glyph")
	}
	if err := red.validate(); err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	n := src.NumChunks()
	if n == 0 {
		return nil, dataErrorf("source has no chunks")
	}

	if src.Location() == LocationDevice {
		if res, err, handled := aggregateDevice(ctx, src, cvs, glyph, red); handled {
			return res, err
		}
		log.Warn("no usable accelerator for device source, aggregating on host",
			"glyph", glyph.Kind(), "reduction", red.Kind)
	}

	// PartitionDispatch.
	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log.Debug("dispatching chunks", "phase", PhasePartitionDispatch, "chunks", n, "workers", workers)

	bufs := make([]*gridBuffer, n)
	droppedPer := make([]int64, n)
	rowsPer := make([]int, n)
	chunkErrs := make([]error, n)

	// Rasterizing.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		g.Go(func() error {
			err := rasterizeChunk(gctx, src, cvs, glyph, red, cfg, i, bufs, droppedPer, rowsPer)
			if err == nil || isFatalInput(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			// Chunk-local failure after retries: record it and let the
			// remaining chunks finish.
			chunkErrs[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var succeeded, failed []int
	var errs []error
	var dropped int64
	rows := 0
	for i := range n {
		if chunkErrs[i] != nil {
			failed = append(failed, i)
			errs = append(errs, chunkErrs[i])
			continue
		}
		succeeded = append(succeeded, i)
		dropped += droppedPer[i]
		rows += rowsPer[i]
	}
	if len(succeeded) == 0 {
		return nil, &PartitionError{Failed: failed, Errs: errs}
	}
	if rows == 0 {
		return nil, dataErrorf("source has no rows")
	}

	// Merging: fold the surviving buffers pairwise in ascending chunk
	// order. The tree shape depends only on the chunk count, so repeated
	// runs produce bit-identical results.
	log.Debug("merging partial buffers", "phase", PhaseMerging, "buffers", len(succeeded))
	merged := make([]*gridBuffer, 0, len(succeeded))
	for _, i := range succeeded {
		merged = append(merged, bufs[i])
	}
	for step := 1; step < len(merged); step *= 2 {
		for i := 0; i+step < len(merged); i += 2 * step {
			merge(merged[i], merged[i+step])
		}
	}

	// Finalizing.
	log.Debug("finalizing", "phase", PhaseFinalizing)
	res := newResult(cvs, merged[0], dropped)
	log.Debug("aggregation complete", "phase", PhaseDone, "rows", rows, "dropped", dropped)

	if len(failed) > 0 {
		return res, &PartitionError{Failed: failed, Succeeded: succeeded, Errs: errs}
	}
	return res, nil
}

// rasterizeChunk runs one chunk task, retrying per configuration. A
// failed attempt's partial buffer is discarded whole; a chunk is either
// fully applied or not applied at all.
func rasterizeChunk(ctx context.Context, src Source, cvs *Canvas, glyph Glyph, red Reduction, cfg config, i int, bufs []*gridBuffer, droppedPer []int64, rowsPer []int) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 0 {
			Logger().Warn("retrying failed chunk", "chunk", i, "attempt", attempt, "err", lastErr)
		}
		tbl, err := src.Chunk(i)
		if err == nil {
			buf := newGridBuffer(cvs.width, cvs.height, red)
			var dropped int64
			dropped, err = glyph.rasterize(cvs, tbl, red, buf, i)
			if err == nil {
				bufs[i] = buf
				droppedPer[i] = dropped
				rowsPer[i] = tbl.Len()
				return nil
			}
		}
		lastErr = err
		if isFatalInput(err) {
			// Config and whole-input data errors are deterministic;
			// retrying cannot help and the aggregation must abort.
			return err
		}
	}
	return lastErr
}

// isFatalInput reports whether err is a configuration or whole-input
// data error, which aborts the aggregation rather than degrading to a
// partial result.
func isFatalInput(err error) bool {
	var ce *ConfigError
	var de *DataError
	return errors.As(err, &ce) || errors.As(err, &de)
}

// aggregateDevice runs the aggregation on the registered accelerator.
// handled is false when no accelerator is usable for this call, in which
// case the caller falls back to the host path with identical semantics.
func aggregateDevice(ctx context.Context, src Source, cvs *Canvas, glyph Glyph, red Reduction) (res *Result, err error, handled bool) {
	a := RegisteredAccelerator()
	if a == nil || !a.CanAccelerate(glyph.Kind(), red.Kind) {
		return nil, nil, false
	}
	pg, ok := glyph.(pointGlyph)
	if !ok {
		return nil, nil, false
	}
	log := Logger()

	n := src.NumChunks()
	bufs := make([]*gridBuffer, 0, n)
	var dropped int64
	rows := 0
	for i := range n {
		if err := ctx.Err(); err != nil {
			return nil, err, true
		}
		tbl, err := src.Chunk(i)
		if err != nil {
			return nil, err, true
		}
		xs, err := floatColumn(tbl, pg.x)
		if err != nil {
			return nil, err, true
		}
		ys, err := floatColumn(tbl, pg.y)
		if err != nil {
			return nil, err, true
		}
		if len(xs) != len(ys) {
			return nil, dataErrorf("column length mismatch: %q has %d rows, %q has %d", pg.x, len(xs), pg.y, len(ys)), true
		}
		buf := newGridBuffer(cvs.width, cvs.height, red)
		target := DeviceGrid{Data: buf.data, Width: cvs.width, Height: cvs.height}
		if aerr := a.AggregatePoints(target, xs, ys, cvs, red); aerr != nil {
			log.Warn("accelerator declined, falling back to host", "accelerator", a.Name(), "err", aerr)
			return nil, nil, false
		}
		// The device kernel skips non-finite coordinates; tally them on
		// the host so Result.Dropped matches the host path.
		for j := range xs {
			if !isFinite(xs[j]) || !isFinite(ys[j]) {
				dropped++
			}
		}
		rows += tbl.Len()
		bufs = append(bufs, buf)
	}
	if rows == 0 {
		return nil, dataErrorf("source has no rows"), true
	}
	for step := 1; step < len(bufs); step *= 2 {
		for i := 0; i+step < len(bufs); i += 2 * step {
			merge(bufs[i], bufs[i+step])
		}
	}
	log.Debug("device aggregation complete", "accelerator", a.Name(), "rows", rows)
	return newResult(cvs, bufs[0], dropped), nil, true
}
