package surface

import (
	"errors"
	"math"
	"testing"

	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
)

// planeField builds a rectangular dataset holding f evaluated on the
// cross product of xs and ys.
func planeField(t testing.TB, xs, ys []float64, f func(x, y float64) float64) *grid.Planar {
	t.Helper()
	p := grid.NewPlanar(xs, ys)
	rows, cols := p.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p.V.Set(i, j, f(xs[j], ys[i]))
		}
	}
	return p
}

// TestSmoothLinearExact verifies that a linear field passes through the
// spline surface unchanged, even when the input spacing is irregular.
func TestSmoothLinearExact(t *testing.T) {
	f := func(x, y float64) float64 { return 2*x + 3*y - 1 }
	p := planeField(t, []float64{0, 0.5, 1.25, 2}, []float64{0, 1, 3}, f)

	out, err := Smooth(p, 0.25)
	if err != nil {
		t.Fatalf("Smooth failed: %v", err)
	}

	rows, cols := out.Dims()
	if rows != 13 || cols != 9 {
		t.Fatalf("Output dims = %dx%d, want 13x9", rows, cols)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			want := f(out.X.At(i, j), out.Y.At(i, j))
			if got := out.V.At(i, j); math.Abs(got-want) > 1e-9 {
				t.Fatalf("V at (%v,%v) = %v, want %v",
					out.X.At(i, j), out.Y.At(i, j), got, want)
			}
		}
	}
}

// TestSmoothAxisOvershoot verifies that an extent not divisible by the
// spacing gains one sample past the maximum, evaluated at the clamped
// edge of the fitted surface.
func TestSmoothAxisOvershoot(t *testing.T) {
	f := func(x, y float64) float64 { return 2*x + 3*y }
	p := planeField(t, []float64{0, 1}, []float64{0, 1}, f)

	out, err := Smooth(p, 0.75)
	if err != nil {
		t.Fatalf("Smooth failed: %v", err)
	}

	rows, cols := out.Dims()
	if rows != 3 || cols != 3 {
		t.Fatalf("Output dims = %dx%d, want 3x3", rows, cols)
	}
	if got := out.X.At(0, 2); got != 1.5 {
		t.Errorf("Last x = %v, want 1.5", got)
	}
	if got := out.Y.At(2, 0); got != 1.5 {
		t.Errorf("Last y = %v, want 1.5", got)
	}
	// Past the extent the surface holds its edge value.
	if got, want := out.V.At(0, 2), f(1, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("Clamped V = %v, want %v", got, want)
	}
	if got, want := out.V.At(2, 2), f(1, 1); math.Abs(got-want) > 1e-9 {
		t.Errorf("Clamped corner V = %v, want %v", got, want)
	}
}

// TestSmoothValidation verifies the precondition checks.
func TestSmoothValidation(t *testing.T) {
	goodXs := []float64{0, 1, 2}
	goodYs := []float64{0, 1}
	f := func(x, y float64) float64 { return x + y }

	t.Run("bad delta", func(t *testing.T) {
		for _, delta := range []float64{0, -0.5, math.NaN()} {
			_, err := Smooth(planeField(t, goodXs, goodYs, f), delta)
			var cfgErr *grid.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("delta=%v: expected ConfigurationError, got %v", delta, err)
			}
		}
	})

	t.Run("shape mismatch", func(t *testing.T) {
		p := planeField(t, goodXs, goodYs, f)
		p.X = grid.NewPlanar([]float64{0, 1}, goodYs).X
		_, err := Smooth(p, 0.5)
		var shapeErr *grid.ShapeMismatchError
		if !errors.As(err, &shapeErr) {
			t.Errorf("Expected ShapeMismatchError, got %v", err)
		}
	})

	malformed := []struct {
		name   string
		mangle func(p *grid.Planar)
	}{
		{"non-rectangular x", func(p *grid.Planar) { p.X.Set(1, 1, 7) }},
		{"non-rectangular y", func(p *grid.Planar) { p.Y.Set(0, 2, 7) }},
		{"non-increasing x", func(p *grid.Planar) {
			p.X.Set(0, 1, 0)
			p.X.Set(1, 1, 0)
		}},
	}
	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			p := planeField(t, goodXs, goodYs, f)
			tt.mangle(p)
			_, err := Smooth(p, 0.5)
			var tableErr *grid.MalformedTableError
			if !errors.As(err, &tableErr) {
				t.Errorf("Expected MalformedTableError, got %v", err)
			}
		})
	}

	t.Run("single row", func(t *testing.T) {
		_, err := Smooth(planeField(t, goodXs, []float64{0}, f), 0.5)
		var tableErr *grid.MalformedTableError
		if !errors.As(err, &tableErr) {
			t.Errorf("Expected MalformedTableError, got %v", err)
		}
	})
}

// TestArange verifies the resample axis construction.
func TestArange(t *testing.T) {
	tests := []struct {
		lo, hi, step float64
		want         []float64
	}{
		{0, 1, 0.25, []float64{0, 0.25, 0.5, 0.75, 1}},
		{0, 1, 0.4, []float64{0, 0.4, 0.8, 1.2}},
		{-1, 1, 0.5, []float64{-1, -0.5, 0, 0.5, 1}},
	}
	for _, tt := range tests {
		got := arange(tt.lo, tt.hi, tt.step)
		if len(got) != len(tt.want) {
			t.Errorf("arange(%v,%v,%v) = %v, want %v", tt.lo, tt.hi, tt.step, got, tt.want)
			continue
		}
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > 1e-12 {
				t.Errorf("arange(%v,%v,%v)[%d] = %v, want %v",
					tt.lo, tt.hi, tt.step, i, got[i], tt.want[i])
			}
		}
	}
}
