// Package shade rasterizes large tabular datasets into aggregate grids.
//
// # Overview
//
// shade turns columns of coordinates into fixed-size numeric grids: every
// record is mapped onto a pixel (or a span of pixels, for lines and
// polygons) and folded into a per-pixel reduction such as a count, sum,
// mean, or variance. The output is a small dense array regardless of how
// many records went in, which makes it suitable for visualizing or
// post-processing datasets far larger than the screen.
//
// # Quick Start
//
//	import "github.com/gogrid/shade"
//
//	// A 400x300 grid over the data region [0,10] x [0,5].
//	cvs, err := shade.NewCanvas(400, 300, 0, 10, 0, 5)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	src := shade.NewPartitionedSource(shade.SplitTable(tbl, 8)...)
//	res, err := shade.Aggregate(ctx, src, cvs,
//		shade.Points("x", "y"), shade.Reduction{Kind: shade.Count})
//	if err != nil {
//		log.Fatal(err)
//	}
//	grid := res.Grid() // [][]float64, row 0 at ymin
//
// # Architecture
//
// The package is organized into:
//   - Public API: Canvas, Reduction, Glyph constructors (Points, Lines,
//     Polygons, RegridRaster, RegridQuadmesh), Aggregate, Result
//   - Internal: raster (scanline span enumeration), gpu (compute
//     dispatch via wgpu)
//   - Optional: the gpu subpackage registers the device accelerator via
//     a blank import
//
// # Coordinate System
//
// Data coordinates map to pixels through per-axis transforms (linear or
// log10). Row 0 is the ymin edge and rows increase toward ymax; each
// axis covers the half-open interval [min, max) except that the exact
// maximum folds into the last pixel. Points land on the pixel containing
// them, lines claim every pixel their clipped segments cross, and
// polygons claim pixels whose centers fall inside.
//
// # Parallelism
//
// Aggregate fans the source's chunks out over a worker pool, aggregates
// each chunk into its own grid, and merges the grids pairwise so results
// are identical across worker counts. Failed chunks are retried and,
// past the retry limit, reported in a PartitionError alongside the
// partial result.
package shade
