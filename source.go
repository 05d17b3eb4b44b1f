package shade

import (
	"reflect"

	"github.com/aclements/go-gg/table"
)

// Source enumerates the independently rasterizable chunks of a primitive
// collection. A chunk is the unit of parallel rasterization: each chunk
// is rasterized into its own private grid buffer, and the driver merges
// the partial buffers afterward. Implementations exist for in-memory
// tables and pre-partitioned collections; out-of-core and remote-shard
// sources implement the same interface, so the driver never depends on a
// specific storage runtime.
type Source interface {
	// NumChunks reports the number of chunks. It must be cheap.
	NumChunks() int

	// Chunk materializes the ith chunk as a columnar table.
	Chunk(i int) (*table.Table, error)

	// Location reports where the chunks' data resides. All chunks of a
	// source share one location; host and device chunks must never be
	// mixed within a single aggregation.
	Location() StorageLocation
}

// tableSource serves a single in-memory table as one chunk.
type tableSource struct {
	tbl      *table.Table
	location StorageLocation
}

// NewTableSource wraps an in-memory table as a single-chunk Source.
func NewTableSource(tbl *table.Table) Source {
	return &tableSource{tbl: tbl, location: LocationHost}
}

// NewDeviceTableSource wraps a table as a single-chunk Source tagged as
// device-resident. The driver hands device-tagged chunks to the
// registered Accelerator; if none is registered or it declines, the data
// is aggregated on the host.
func NewDeviceTableSource(tbl *table.Table) Source {
	return &tableSource{tbl: tbl, location: LocationDevice}
}

func (s *tableSource) NumChunks() int                  { return 1 }
func (s *tableSource) Chunk(int) (*table.Table, error) { return s.tbl, nil }
func (s *tableSource) Location() StorageLocation       { return s.location }

// partitionedSource serves pre-partitioned tables, one chunk each.
type partitionedSource struct {
	parts    []*table.Table
	location StorageLocation
}

// NewPartitionedSource wraps a set of tables as a Source with one chunk
// per table. Chunk order defines the origin order used by the First and
// Last reductions.
func NewPartitionedSource(parts ...*table.Table) Source {
	return &partitionedSource{parts: parts, location: LocationHost}
}

func (s *partitionedSource) NumChunks() int { return len(s.parts) }

func (s *partitionedSource) Chunk(i int) (*table.Table, error) { return s.parts[i], nil }

func (s *partitionedSource) Location() StorageLocation { return s.location }

// SplitTable partitions a table into n chunks of near-equal row count,
// preserving row order across the chunks. Useful for turning one large
// in-memory table into a parallelizable source:
//
//	src := shade.NewPartitionedSource(shade.SplitTable(tbl, runtime.GOMAXPROCS(0))...)
func SplitTable(tbl *table.Table, n int) []*table.Table {
	rows := tbl.Len()
	if n < 1 {
		n = 1
	}
	if n > rows {
		n = rows
	}
	if n <= 1 {
		return []*table.Table{tbl}
	}
	parts := make([]*table.Table, 0, n)
	cols := tbl.Columns()
	for i := range n {
		lo := rows * i / n
		hi := rows * (i + 1) / n
		b := new(table.Builder)
		for _, name := range cols {
			col := reflect.ValueOf(tbl.Column(name))
			b.Add(name, col.Slice(lo, hi).Interface())
		}
		parts = append(parts, b.Done())
	}
	return parts
}
