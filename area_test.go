package shade

import (
	"context"
	"math"
	"testing"
)

func TestPolygonsSquare(t *testing.T) {
	cvs := mustCanvas(t, 5, 5, 0, 5, 0, 5)
	tbl := mkTable(
		"x", []float64{1, 4, 4, 1},
		"y", []float64{1, 1, 4, 4},
	)
	res, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Polygons("x", "y"), Reduction{Kind: Count})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	// Pixel centers (c+0.5, r+0.5) inside [1,4) x [1,4).
	checkGrid(t, res, [][]float64{
		{0, 0, 0, 0, 0},
		{0, 1, 1, 1, 0},
		{0, 1, 1, 1, 0},
		{0, 1, 1, 1, 0},
		{0, 0, 0, 0, 0},
	})
}

// TestPolygonsSharedEdge checks that two polygons sharing an edge never
// both claim the boundary pixels.
func TestPolygonsSharedEdge(t *testing.T) {
	cvs := mustCanvas(t, 5, 3, 0, 5, 0, 3)
	nan := math.NaN()
	tbl := mkTable(
		"x", []float64{0, 3, 3, 0, nan, 3, 5, 5, 3},
		"y", []float64{0, 0, 3, 3, nan, 0, 0, 3, 3},
	)
	res, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Polygons("x", "y"), Reduction{Kind: Count})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	for row := range 3 {
		for col := range 5 {
			if res.At(row, col) != 1 {
				t.Errorf("pixel (%d, %d) = %v, want exactly 1", row, col, res.At(row, col))
			}
		}
	}
	if res.Dropped() != 0 {
		t.Errorf("Dropped = %d, want 0 (a clean separator drops nothing)", res.Dropped())
	}
}

func TestPolygonsDegenerateRun(t *testing.T) {
	cvs := mustCanvas(t, 4, 4, 0, 4, 0, 4)
	nan := math.NaN()
	tbl := mkTable(
		"x", []float64{0.5, 2.5, nan, 1, 3, 3, 1},
		"y", []float64{0.5, 2.5, nan, 1, 1, 3, 3},
	)
	res, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Polygons("x", "y"), Reduction{Kind: Count})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	// The two-vertex run is dropped; the square still fills.
	if res.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", res.Dropped())
	}
	if res.At(1, 1) != 1 || res.At(2, 2) != 1 {
		t.Errorf("square interior missing: %v %v", res.At(1, 1), res.At(2, 2))
	}
	if res.At(0, 0) != 0 {
		t.Errorf("degenerate run leaked pixels: %v", res.At(0, 0))
	}
}

// TestPolygonsValuePerRun checks that each run contributes its first
// record's value.
func TestPolygonsValuePerRun(t *testing.T) {
	cvs := mustCanvas(t, 4, 2, 0, 4, 0, 2)
	nan := math.NaN()
	tbl := mkTable(
		"x", []float64{0, 2, 2, 0, nan, 2, 4, 4, 2},
		"y", []float64{0, 0, 2, 2, nan, 0, 0, 2, 2},
		"v", []float64{5, 0, 0, 0, nan, 9, 0, 0, 0},
	)
	res, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Polygons("x", "y"), Reduction{Kind: Sum, Field: "v"})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	checkGrid(t, res, [][]float64{
		{5, 5, 9, 9},
		{5, 5, 9, 9},
	})
}

// TestPolygonsHole checks that an inner ring wound opposite the exterior
// punches a hole: hole pixels receive no combines at all.
func TestPolygonsHole(t *testing.T) {
	cvs := mustCanvas(t, 6, 6, 0, 6, 0, 6)
	nan := math.NaN()
	tbl := mkTable(
		"x", []float64{0, 6, 6, 0, nan, 2, 2, 4, 4},
		"y", []float64{0, 0, 6, 6, nan, 2, 4, 4, 2},
	)
	res, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Polygons("x", "y"), Reduction{Kind: Count})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	checkGrid(t, res, [][]float64{
		{1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1},
		{1, 1, 0, 0, 1, 1},
		{1, 1, 0, 0, 1, 1},
		{1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1},
	})
	if res.Dropped() != 0 {
		t.Errorf("Dropped = %d, want 0", res.Dropped())
	}
}

// TestPolygonsRingAfterHole checks that a ring with the exterior's
// winding starts a new polygon rather than another hole.
func TestPolygonsRingAfterHole(t *testing.T) {
	cvs := mustCanvas(t, 6, 6, 0, 6, 0, 6)
	nan := math.NaN()
	tbl := mkTable(
		"x", []float64{0, 6, 6, 0, nan, 2, 2, 4, 4, nan, 2.5, 3.5, 3.5, 2.5},
		"y", []float64{0, 0, 6, 6, nan, 2, 4, 4, 2, nan, 2.5, 2.5, 3.5, 3.5},
	)
	res, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Polygons("x", "y"), Reduction{Kind: Count})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if got := res.At(2, 2); got != 1 {
		t.Errorf("island pixel = %v, want 1", got)
	}
	if got := res.At(3, 3); got != 0 {
		t.Errorf("hole pixel = %v, want 0", got)
	}
	if got := res.At(0, 0); got != 1 {
		t.Errorf("exterior pixel = %v, want 1", got)
	}
}

func BenchmarkPolygonFill(b *testing.B) {
	// 256 small quads tiled over the canvas, one NaN-separated ring each.
	const n = 256
	nan := math.NaN()
	xs := make([]float64, 0, n*5)
	ys := make([]float64, 0, n*5)
	for i := range n {
		x0 := float64(i%16)*16 + 2
		y0 := float64(i/16)*16 + 2
		xs = append(xs, x0, x0+12, x0+12, x0, nan)
		ys = append(ys, y0, y0, y0+12, y0+12, nan)
	}
	tbl := mkTable("x", xs, "y", ys)
	cvs := mustCanvas(b, 256, 256, 0, 256, 0, 256)
	src := NewTableSource(tbl)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Aggregate(ctx, src, cvs, Polygons("x", "y"), Reduction{Kind: Count}); err != nil {
			b.Fatal(err)
		}
	}
}
