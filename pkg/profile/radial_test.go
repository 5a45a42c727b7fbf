package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
)

// onesGrid is the canonical uniform fixture: delta (1,1,1), origin at
// zero, every value 1.
func onesGrid(t testing.TB, n int) *grid.VolumeGrid {
	return buildGrid(t, n, n, n, [3]float64{1, 1, 1}, [3]float64{}, func(i, j, k int) float64 { return 1 })
}

// TestRadialAverageUniform verifies that a uniform 3x3x3 grid with
// edges [0,1,2] and the center at the origin averages to exactly 1 in
// both bins at every height, with no NaN.
func TestRadialAverageUniform(t *testing.T) {
	g := onesGrid(t, 3)

	p, err := RadialAverage(g, RadialOptions{
		Binning: Binning{Mode: ExplicitBins, Edges: []float64{0, 1, 2}},
	})
	if err != nil {
		t.Fatalf("RadialAverage failed: %v", err)
	}

	rows, cols := p.Dims()
	if rows != 3 || cols != 2 {
		t.Fatalf("Dims = %dx%d, want 3x2", rows, cols)
	}
	for k := 0; k < rows; k++ {
		for b := 0; b < cols; b++ {
			if got := p.V.At(k, b); got != 1 {
				t.Errorf("V[%d,%d] = %v, want 1", k, b, got)
			}
		}
	}
	// Left bin edges along columns, physical heights along rows.
	if p.X.At(0, 0) != 0 || p.X.At(0, 1) != 1 {
		t.Errorf("X row = [%v %v], want [0 1]", p.X.At(0, 0), p.X.At(0, 1))
	}
	if p.Y.At(0, 0) != 0 || p.Y.At(2, 0) != 2 {
		t.Errorf("Y column = [%v %v], want [0 2]", p.Y.At(0, 0), p.Y.At(2, 0))
	}
}

// TestRadialMaskNeutral verifies that an all-ones mask changes
// nothing for a field with no zero values.
func TestRadialMaskNeutral(t *testing.T) {
	field := func(i, j, k int) float64 { return 1.5 + float64(i) + 0.25*float64(j*k) }
	g := buildGrid(t, 4, 4, 3, [3]float64{0.5, 0.5, 1}, [3]float64{-1, -1, 0}, field)
	mask := buildGrid(t, 4, 4, 3, [3]float64{0.5, 0.5, 1}, [3]float64{-1, -1, 0}, func(i, j, k int) float64 { return 1 })

	bins := Binning{Mode: ExplicitBins, Edges: []float64{0, 0.5, 1, 2}}
	plain, err := RadialAverage(g, RadialOptions{Binning: bins})
	if err != nil {
		t.Fatalf("Unmasked RadialAverage failed: %v", err)
	}
	masked, err := RadialAverage(g, RadialOptions{Binning: bins, Mask: mask})
	if err != nil {
		t.Fatalf("Masked RadialAverage failed: %v", err)
	}

	rows, cols := plain.Dims()
	for k := 0; k < rows; k++ {
		for b := 0; b < cols; b++ {
			pv, mv := plain.V.At(k, b), masked.V.At(k, b)
			if pv != mv && !(math.IsNaN(pv) && math.IsNaN(mv)) {
				t.Errorf("Bin (%d,%d): unmasked %v, masked %v", k, b, pv, mv)
			}
		}
	}
}

// TestRadialMaskExcludes verifies both halves of the mask rule: cells
// the mask zeroes out are dropped, and with a mask present zero data
// cells are dropped too.
func TestRadialMaskExcludes(t *testing.T) {
	// 2x2x1 plane, radii from (0,0): r(0,0)=0, r(1,0)=r(0,1)=1,
	// r(1,1)=sqrt(2). One bin [0,2] catches everything.
	delta := [3]float64{1, 1, 1}
	g := buildGrid(t, 2, 2, 1, delta, [3]float64{}, func(i, j, k int) float64 {
		if i == 1 && j == 1 {
			return 0 // zero data cell
		}
		return float64(2 + i + j)
	})
	bins := Binning{Mode: ExplicitBins, Edges: []float64{0, 2}}

	// No mask: all four cells included, the zero contributes.
	plain, err := RadialAverage(g, RadialOptions{Binning: bins})
	if err != nil {
		t.Fatalf("Unmasked RadialAverage failed: %v", err)
	}
	if want := (2.0 + 3 + 3 + 0) / 4; plain.V.At(0, 0) != want {
		t.Errorf("Unmasked mean = %v, want %v", plain.V.At(0, 0), want)
	}

	// All-ones mask: the zero data cell is now excluded.
	ones := buildGrid(t, 2, 2, 1, delta, [3]float64{}, func(i, j, k int) float64 { return 1 })
	masked, err := RadialAverage(g, RadialOptions{Binning: bins, Mask: ones})
	if err != nil {
		t.Fatalf("Masked RadialAverage failed: %v", err)
	}
	if want := (2.0 + 3 + 3) / 3; masked.V.At(0, 0) != want {
		t.Errorf("Masked mean = %v, want %v", masked.V.At(0, 0), want)
	}

	// Mask zeroing the origin cell drops it as well.
	partial := buildGrid(t, 2, 2, 1, delta, [3]float64{}, func(i, j, k int) float64 {
		if i == 0 && j == 0 {
			return 0
		}
		return 1
	})
	p, err := RadialAverage(g, RadialOptions{Binning: bins, Mask: partial})
	if err != nil {
		t.Fatalf("Partially masked RadialAverage failed: %v", err)
	}
	if want := (3.0 + 3) / 2; p.V.At(0, 0) != want {
		t.Errorf("Partially masked mean = %v, want %v", p.V.At(0, 0), want)
	}
}

// TestRadialEmptyBinNaN verifies that bins catching no samples
// average to NaN without failing, and that out-of-span radii are
// dropped silently.
func TestRadialEmptyBinNaN(t *testing.T) {
	g := onesGrid(t, 3)

	// Radii present: 0, 1, 1, sqrt2, 2, 2, sqrt5, sqrt5, sqrt8.
	// [0.1,0.5) catches nothing; [0.5,1] catches the two r=1 cells
	// (closed last bin); r=0 falls below the span and is dropped.
	p, err := RadialAverage(g, RadialOptions{
		Binning: Binning{Mode: ExplicitBins, Edges: []float64{0.1, 0.5, 1}},
	})
	if err != nil {
		t.Fatalf("RadialAverage failed: %v", err)
	}
	for k := 0; k < 3; k++ {
		if got := p.V.At(k, 0); !math.IsNaN(got) {
			t.Errorf("Empty bin at height %d = %v, want NaN", k, got)
		}
		if got := p.V.At(k, 1); got != 1 {
			t.Errorf("Last bin at height %d = %v, want 1", k, got)
		}
	}
}

// TestRadialAutoFromExtent verifies the derived edge sequence for
// auto mode: zero to half the x extent plus one spacing, stepped by
// the spacing.
func TestRadialAutoFromExtent(t *testing.T) {
	// nx=5, delta=0.5: extent 2, stop 1.5, edges [0, 0.5, 1].
	g := buildGrid(t, 5, 5, 2, [3]float64{0.5, 0.5, 1}, [3]float64{}, func(i, j, k int) float64 { return 1 })

	p, err := RadialAverage(g, RadialOptions{Binning: Binning{Mode: AutoFromExtent}})
	if err != nil {
		t.Fatalf("RadialAverage failed: %v", err)
	}
	_, cols := p.Dims()
	if cols != 2 {
		t.Fatalf("Bin count = %d, want 2", cols)
	}
	if p.X.At(0, 0) != 0 || p.X.At(0, 1) != 0.5 {
		t.Errorf("Left edges = [%v %v], want [0 0.5]", p.X.At(0, 0), p.X.At(0, 1))
	}
}

// TestRadialDefaultCount verifies the fixed-count fallback: 33 bins
// spanning the full radius range of the plane.
func TestRadialDefaultCount(t *testing.T) {
	g := onesGrid(t, 3)

	p, err := RadialAverage(g, RadialOptions{})
	if err != nil {
		t.Fatalf("RadialAverage failed: %v", err)
	}
	rows, cols := p.Dims()
	if rows != 3 || cols != DefaultBinCount {
		t.Fatalf("Dims = %dx%d, want 3x%d", rows, cols, DefaultBinCount)
	}
	if got := p.X.At(0, 0); got != 0 {
		t.Errorf("First left edge = %v, want 0", got)
	}
	for k := 0; k < rows; k++ {
		// The bins holding r=0 and r=max (folded into the last bin)
		// both carry the uniform value.
		if got := p.V.At(k, 0); got != 1 {
			t.Errorf("First bin at height %d = %v, want 1", k, got)
		}
		if got := p.V.At(k, cols-1); got != 1 {
			t.Errorf("Last bin at height %d = %v, want 1", k, got)
		}
	}
}

// TestRadialValidation verifies the rejection of malformed bins and
// mismatched masks.
func TestRadialValidation(t *testing.T) {
	g := onesGrid(t, 3)

	badBins := []Binning{
		{Mode: ExplicitBins},
		{Mode: ExplicitBins, Edges: []float64{1}},
		{Mode: ExplicitBins, Edges: []float64{0, 0, 1}},
		{Mode: ExplicitBins, Edges: []float64{0, 2, 1}},
	}
	for _, bins := range badBins {
		_, err := RadialAverage(g, RadialOptions{Binning: bins})
		if err == nil {
			t.Errorf("Edges %v accepted", bins.Edges)
			continue
		}
		var cfgErr *grid.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Edges %v: expected ConfigurationError, got %T: %v", bins.Edges, err, err)
		}
	}

	small := onesGrid(t, 2)
	_, err := RadialAverage(g, RadialOptions{
		Mask:    small,
		Binning: Binning{Mode: ExplicitBins, Edges: []float64{0, 1}},
	})
	if err == nil {
		t.Fatal("Mismatched mask accepted")
	}
	var shapeErr *grid.ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Errorf("Expected ShapeMismatchError, got %T: %v", err, err)
	}
}

// BenchmarkRadialAverage measures the default-count path on a
// mid-sized grid.
func BenchmarkRadialAverage(b *testing.B) {
	g := buildGrid(b, 64, 64, 16, [3]float64{0.5, 0.5, 0.5}, [3]float64{-16, -16, -4}, func(i, j, k int) float64 {
		return math.Sin(float64(i)*0.1) + math.Cos(float64(j)*0.1) + float64(k)
	})

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := RadialAverage(g, RadialOptions{}); err != nil {
			b.Fatalf("RadialAverage failed: %v", err)
		}
	}
}
