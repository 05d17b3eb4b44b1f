package shade

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestRegridRasterIdentity(t *testing.T) {
	cvs := mustCanvas(t, 4, 4, 0, 4, 0, 4)
	src := &Array{Values: [][]float64{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
		{13, 14, 15, 16},
	}}
	res, err := RegridRaster(context.Background(), src, cvs, Reduction{Kind: Mean, Field: "v"})
	if err != nil {
		t.Fatalf("RegridRaster failed: %v", err)
	}
	for row := range 4 {
		for col := range 4 {
			if got := res.At(row, col); got != src.Values[row][col] {
				t.Errorf("At(%d, %d) = %v, want %v", row, col, got, src.Values[row][col])
			}
		}
	}
}

func TestRegridRasterDownsample(t *testing.T) {
	cvs := mustCanvas(t, 2, 2, 0, 4, 0, 4)
	src := &Array{Values: [][]float64{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
		{13, 14, 15, 16},
	}}

	t.Run("mean", func(t *testing.T) {
		res, err := RegridRaster(context.Background(), src, cvs, Reduction{Kind: Mean, Field: "v"})
		if err != nil {
			t.Fatalf("RegridRaster failed: %v", err)
		}
		checkGrid(t, res, [][]float64{
			{3.5, 5.5},
			{11.5, 13.5},
		})
	})
	t.Run("count", func(t *testing.T) {
		res, err := RegridRaster(context.Background(), src, cvs, Reduction{Kind: Count})
		if err != nil {
			t.Fatalf("RegridRaster failed: %v", err)
		}
		checkGrid(t, res, [][]float64{
			{4, 4},
			{4, 4},
		})
	})
	t.Run("max", func(t *testing.T) {
		res, err := RegridRaster(context.Background(), src, cvs, Reduction{Kind: Max, Field: "v"})
		if err != nil {
			t.Fatalf("RegridRaster failed: %v", err)
		}
		checkGrid(t, res, [][]float64{
			{6, 8},
			{14, 16},
		})
	})
}

func TestRegridRasterUpsampleNearest(t *testing.T) {
	cvs := mustCanvas(t, 4, 4, 0, 2, 0, 2)
	src := &Array{Values: [][]float64{
		{1, 2},
		{3, 4},
	}}
	res, err := RegridRaster(context.Background(), src, cvs,
		Reduction{Kind: Mean, Field: "v"}, WithInterpolation(InterpNearest))
	if err != nil {
		t.Fatalf("RegridRaster failed: %v", err)
	}
	// Each source cell replicates into a 2x2 pixel block.
	checkGrid(t, res, [][]float64{
		{1, 1, 2, 2},
		{1, 1, 2, 2},
		{3, 3, 4, 4},
		{3, 3, 4, 4},
	})
}

func TestRegridRasterUpsampleBilinear(t *testing.T) {
	cvs := mustCanvas(t, 4, 1, 0, 2, 0, 1)
	src := &Array{Values: [][]float64{{0, 10}}}
	res, err := RegridRaster(context.Background(), src, cvs, Reduction{Kind: Mean, Field: "v"})
	if err != nil {
		t.Fatalf("RegridRaster failed: %v", err)
	}
	// Pixel centers map to fractional source indices -0.25, 0.25, 0.75,
	// 1.25; the ends clamp to the border cells.
	checkGrid(t, res, [][]float64{{0, 2.5, 7.5, 10}})
}

func TestRegridRasterExplicitAxes(t *testing.T) {
	cvs := mustCanvas(t, 2, 1, 0, 10, 0, 1)
	src := &Array{
		Values: [][]float64{{1, 3, 5, 7}},
		X:      []float64{1.25, 3.75, 6.25, 8.75},
	}
	res, err := RegridRaster(context.Background(), src, cvs, Reduction{Kind: Sum, Field: "v"})
	if err != nil {
		t.Fatalf("RegridRaster failed: %v", err)
	}
	// Cells at 1.25 and 3.75 land in the left pixel, the rest right.
	checkGrid(t, res, [][]float64{{4, 12}})
}

func TestRegridRasterErrors(t *testing.T) {
	ctx := context.Background()
	cvs := mustCanvas(t, 2, 2, 0, 2, 0, 2)

	t.Run("uneven axis", func(t *testing.T) {
		src := &Array{
			Values: [][]float64{{1, 2, 3}},
			X:      []float64{0, 1, 5},
		}
		_, err := RegridRaster(ctx, src, cvs, Reduction{Kind: Mean, Field: "v"})
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("got err %v, want ConfigError", err)
		}
	})
	t.Run("curvilinear input", func(t *testing.T) {
		src := &Array{
			Values:  [][]float64{{1}},
			XCoords: [][]float64{{0, 1}, {0, 1}},
			YCoords: [][]float64{{0, 0}, {1, 1}},
		}
		_, err := RegridRaster(ctx, src, cvs, Reduction{Kind: Mean, Field: "v"})
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("got err %v, want ConfigError", err)
		}
	})
	t.Run("categorical reduction", func(t *testing.T) {
		src := &Array{Values: [][]float64{{1}}}
		_, err := RegridRaster(ctx, src, cvs, Reduction{Kind: Mode, Field: "v", Categories: []string{"a"}})
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("got err %v, want ConfigError", err)
		}
	})
	t.Run("ragged values", func(t *testing.T) {
		src := &Array{Values: [][]float64{{1, 2}, {3}}}
		_, err := RegridRaster(ctx, src, cvs, Reduction{Kind: Mean, Field: "v"})
		var de *DataError
		if !errors.As(err, &de) {
			t.Fatalf("got err %v, want DataError", err)
		}
	})
	t.Run("empty", func(t *testing.T) {
		_, err := RegridRaster(ctx, &Array{}, cvs, Reduction{Kind: Mean, Field: "v"})
		var de *DataError
		if !errors.As(err, &de) {
			t.Fatalf("got err %v, want DataError", err)
		}
	})
}

func TestRegridRasterDownsampleOutsideExtent(t *testing.T) {
	// The source covers only the first output pixel; the remaining
	// pixels have no source cells and must stay at the reduction's
	// identity instead of sampling border values.
	cvs := mustCanvas(t, 4, 1, 0, 4, 0, 1)
	src := &Array{
		Values: [][]float64{{1, 2}},
		X:      []float64{0.25, 0.75},
	}

	t.Run("count", func(t *testing.T) {
		res, err := RegridRaster(context.Background(), src, cvs, Reduction{Kind: Count})
		if err != nil {
			t.Fatalf("RegridRaster failed: %v", err)
		}
		checkGrid(t, res, [][]float64{{2, 0, 0, 0}})
	})
	t.Run("mean", func(t *testing.T) {
		res, err := RegridRaster(context.Background(), src, cvs, Reduction{Kind: Mean, Field: "v"})
		if err != nil {
			t.Fatalf("RegridRaster failed: %v", err)
		}
		if got := res.At(0, 0); got != 1.5 {
			t.Errorf("At(0, 0) = %v, want 1.5", got)
		}
		for col := 1; col < 4; col++ {
			if got := res.At(0, col); !math.IsNaN(got) {
				t.Errorf("At(0, %d) = %v, want NaN", col, got)
			}
		}
	})
}

func TestRegridRasterRoundTrip(t *testing.T) {
	ctx := context.Background()

	// A piecewise-constant field survives nearest upsampling followed by
	// mean downsampling unchanged.
	t.Run("nearest exact", func(t *testing.T) {
		orig := [][]float64{
			{1, 2},
			{3, 4},
		}
		fine := mustCanvas(t, 4, 4, 0, 2, 0, 2)
		up, err := RegridRaster(ctx, &Array{Values: orig}, fine,
			Reduction{Kind: Mean, Field: "v"}, WithInterpolation(InterpNearest))
		if err != nil {
			t.Fatalf("upsample failed: %v", err)
		}
		coarse := mustCanvas(t, 2, 2, 0, 2, 0, 2)
		back, err := RegridRaster(ctx, &Array{Values: up.Grid(), X: up.X(), Y: up.Y()},
			coarse, Reduction{Kind: Mean, Field: "v"})
		if err != nil {
			t.Fatalf("downsample failed: %v", err)
		}
		checkGrid(t, back, orig)
	})

	// A smooth field comes back within interpolation error.
	t.Run("bilinear within tolerance", func(t *testing.T) {
		orig := []float64{0, 10}
		fine := mustCanvas(t, 4, 1, 0, 2, 0, 1)
		up, err := RegridRaster(ctx, &Array{Values: [][]float64{orig}}, fine,
			Reduction{Kind: Mean, Field: "v"})
		if err != nil {
			t.Fatalf("upsample failed: %v", err)
		}
		coarse := mustCanvas(t, 2, 1, 0, 2, 0, 1)
		back, err := RegridRaster(ctx, &Array{Values: up.Grid(), X: up.X(), Y: up.Y()},
			coarse, Reduction{Kind: Mean, Field: "v"})
		if err != nil {
			t.Fatalf("downsample failed: %v", err)
		}
		for col, want := range orig {
			if got := back.At(0, col); math.Abs(got-want) > 2.5 {
				t.Errorf("At(0, %d) = %v, want %v within 2.5", col, got, want)
			}
		}
	})
}
