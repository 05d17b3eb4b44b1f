package shade

import "testing"

func TestSplitTable(t *testing.T) {
	tbl := mkTable(
		"x", []float64{0, 1, 2, 3, 4, 5, 6},
		"tag", []string{"a", "b", "c", "d", "e", "f", "g"},
	)

	parts := SplitTable(tbl, 3)
	if len(parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(parts))
	}
	total := 0
	next := 0.0
	for i, p := range parts {
		if p.Len() == 0 {
			t.Errorf("part %d is empty", i)
		}
		total += p.Len()
		xs := p.Column("x").([]float64)
		for _, x := range xs {
			if x != next {
				t.Fatalf("row order not preserved: got %g, want %g", x, next)
			}
			next++
		}
	}
	if total != tbl.Len() {
		t.Errorf("parts hold %d rows, want %d", total, tbl.Len())
	}
}

func TestSplitTableDegenerate(t *testing.T) {
	tbl := mkTable("x", []float64{1, 2})
	if parts := SplitTable(tbl, 1); len(parts) != 1 {
		t.Errorf("n=1: got %d parts, want 1", len(parts))
	}
	if parts := SplitTable(tbl, 0); len(parts) != 1 {
		t.Errorf("n=0: got %d parts, want 1", len(parts))
	}
	// More parts than rows collapses to one chunk per row.
	if parts := SplitTable(tbl, 10); len(parts) != 2 {
		t.Errorf("n=10 with 2 rows: got %d parts, want 2", len(parts))
	}
}

func TestSourceLocations(t *testing.T) {
	tbl := mkTable("x", []float64{1})

	if loc := NewTableSource(tbl).Location(); loc != LocationHost {
		t.Errorf("NewTableSource location = %v, want %v", loc, LocationHost)
	}
	if loc := NewDeviceTableSource(tbl).Location(); loc != LocationDevice {
		t.Errorf("NewDeviceTableSource location = %v, want %v", loc, LocationDevice)
	}

	src := NewPartitionedSource(tbl, tbl)
	if src.NumChunks() != 2 {
		t.Errorf("NumChunks = %d, want 2", src.NumChunks())
	}
	if c, err := src.Chunk(1); err != nil || c != tbl {
		t.Errorf("Chunk(1) = (%v, %v)", c, err)
	}
}

func TestStorageLocationString(t *testing.T) {
	if got := LocationHost.String(); got != "host" {
		t.Errorf("LocationHost.String() = %q", got)
	}
	if got := LocationDevice.String(); got != "device" {
		t.Errorf("LocationDevice.String() = %q", got)
	}
}
