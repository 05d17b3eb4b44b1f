package shade

import (
	"context"
	"errors"
	"math"
	"testing"
)

func mustCanvas(t testing.TB, w, h int, xmin, xmax, ymin, ymax float64, opts ...CanvasOption) *Canvas {
	t.Helper()
	cvs, err := NewCanvas(w, h, xmin, xmax, ymin, ymax, opts...)
	if err != nil {
		t.Fatalf("NewCanvas failed: %v", err)
	}
	return cvs
}

func checkGrid(t *testing.T, res *Result, want [][]float64) {
	t.Helper()
	got := res.Grid()
	for row := range want {
		for col := range want[row] {
			if !almostEq(got[row][col], want[row][col], 1e-12) {
				t.Errorf("grid[%d][%d] = %v, want %v", row, col, got[row][col], want[row][col])
			}
		}
	}
}

func TestPointsCount(t *testing.T) {
	cvs := mustCanvas(t, 3, 3, 0, 3, 0, 3)
	tbl := mkTable(
		"x", []float64{0.5, 1.5, 1.7, 2.5, 3.0, math.NaN(), 5.0},
		"y", []float64{0.5, 1.5, 1.2, 0.5, 3.0, 1.0, 1.0},
	)

	res, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Points("x", "y"), Reduction{Kind: Count})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	// Row 0 covers the low end of the y range. The NaN record is dropped,
	// the (5, 1) record is clipped silently.
	checkGrid(t, res, [][]float64{
		{1, 0, 1},
		{0, 2, 0},
		{0, 0, 1},
	})
	if res.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", res.Dropped())
	}
}

func TestPointsSum(t *testing.T) {
	cvs := mustCanvas(t, 2, 2, 0, 2, 0, 2)
	tbl := mkTable(
		"x", []float64{0.5, 0.6, 1.5, 0.5},
		"y", []float64{0.5, 0.5, 1.5, 1.5},
		"v", []float64{10, 5, 7, math.NaN()},
	)

	res, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Points("x", "y"), Reduction{Kind: Sum, Field: "v"})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	checkGrid(t, res, [][]float64{
		{15, 0},
		{0, 7},
	})
	if res.Dropped() != 0 {
		t.Errorf("Dropped = %d, want 0 (missing value is not a malformed record)", res.Dropped())
	}
}

func TestPointsValidCounts(t *testing.T) {
	cvs := mustCanvas(t, 2, 1, 0, 2, 0, 1)
	tbl := mkTable(
		"x", []float64{0.5, 0.5, 1.5},
		"y", []float64{0.5, 0.5, 0.5},
		"v", []float64{2, math.NaN(), 8},
	)

	res, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Points("x", "y"), Reduction{Kind: Mean, Field: "v"})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	counts, ok := res.ValidCounts()
	if !ok {
		t.Fatal("ValidCounts not available for Mean")
	}
	if counts[0][0] != 1 || counts[0][1] != 1 {
		t.Errorf("counts = %v, want [[1 1]]", counts)
	}
	if res.At(0, 0) != 2 || res.At(0, 1) != 8 {
		t.Errorf("means = %v %v, want 2 8", res.At(0, 0), res.At(0, 1))
	}
}

func TestPointsMissingColumn(t *testing.T) {
	cvs := mustCanvas(t, 2, 2, 0, 2, 0, 2)
	tbl := mkTable("x", []float64{0.5})

	_, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Points("x", "y"), Reduction{Kind: Count})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("got err %v, want ConfigError", err)
	}
}

func TestPointsValueColumnTypes(t *testing.T) {
	cvs := mustCanvas(t, 2, 2, 0, 2, 0, 2)
	tbl := mkTable(
		"x", []float64{0.5, 1.5},
		"y", []float64{0.5, 1.5},
		"v", []int{1, 2},
	)
	// A value column of the wrong type is a DataError.
	tblBad := mkTable(
		"x", []float64{0.5},
		"y", []float64{0.5},
		"v", []string{"a"},
	)
	if _, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Points("x", "y"), Reduction{Kind: Sum, Field: "v"}); err != nil {
		t.Fatalf("int value column should convert, got %v", err)
	}
	_, err := Aggregate(context.Background(), NewTableSource(tblBad), cvs, Points("x", "y"), Reduction{Kind: Sum, Field: "v"})
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("got err %v, want DataError", err)
	}
}

func TestPointsLogAxis(t *testing.T) {
	cvs := mustCanvas(t, 3, 1, 1, 1000, 0, 1, WithXAxis(AxisLog))
	tbl := mkTable(
		"x", []float64{2, 5, 30, 500},
		"y", []float64{0.5, 0.5, 0.5, 0.5},
	)
	res, err := Aggregate(context.Background(), NewTableSource(tbl), cvs, Points("x", "y"), Reduction{Kind: Count})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	checkGrid(t, res, [][]float64{{2, 1, 1}})
}

func BenchmarkAggregatePoints(b *testing.B) {
	const n = 100000
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = 50 + 40*math.Sin(float64(i)*0.1)
		ys[i] = 50 + 40*math.Cos(float64(i)*0.37)
	}
	tbl := mkTable("x", xs, "y", ys)
	cvs := mustCanvas(b, 256, 256, 0, 100, 0, 100)
	src := NewPartitionedSource(SplitTable(tbl, 8)...)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Aggregate(ctx, src, cvs, Points("x", "y"), Reduction{Kind: Count}); err != nil {
			b.Fatal(err)
		}
	}
}
