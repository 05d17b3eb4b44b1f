package shade

import (
	"fmt"

	"github.com/aclements/go-gg/table"
)

// GlyphKind identifies the geometric interpretation of input records.
type GlyphKind int

const (
	// GlyphPoint maps each record to at most one pixel.
	GlyphPoint GlyphKind = iota

	// GlyphLine rasterizes the polyline through consecutive records.
	GlyphLine

	// GlyphArea scan-fills polygons described by the records.
	GlyphArea

	// GlyphRaster regrids an already-gridded regular array.
	GlyphRaster

	// GlyphQuadmesh regrids a rectilinear or curvilinear quad mesh.
	GlyphQuadmesh
)

// String returns the string representation of GlyphKind.
func (k GlyphKind) String() string {
	switch k {
	case GlyphPoint:
		return "point"
	case GlyphLine:
		return "line"
	case GlyphArea:
		return "area"
	case GlyphRaster:
		return "raster"
	case GlyphQuadmesh:
		return "quadmesh"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Glyph determines which pixels each primitive touches and drives the
// reduction's combine at every touched pixel. Implementations enumerate
// pixels for one chunk at a time against that chunk's private buffer.
type Glyph interface {
	// Kind reports the glyph kind, used for accelerator capability checks.
	Kind() GlyphKind

	// rasterize applies every record of one chunk to buf. chunk is the
	// chunk's index in source order; it seeds the sequence keys consumed
	// by order-dependent reductions. It returns the number of malformed
	// records skipped.
	rasterize(cvs *Canvas, tbl *table.Table, red Reduction, buf *gridBuffer, chunk int) (dropped int64, err error)
}

// sequence builds the total-order key for a sample: chunk index first,
// then row order within the chunk. Keys are stored in float64
// accumulator planes, which represent integers exactly up to 2^53: with
// 32 bits reserved for the row, First and Last are ordered exactly for
// chunk indices up to 2^21.
func sequence(chunk int, row int) int64 {
	return int64(chunk)<<32 | int64(row)
}
