// Package surface transforms 2D reduced datasets: spline smoothing onto a
// finer uniform grid and mirror reflection across the first coordinate axis.
package surface

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"

	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
)

// DefaultSmoothingDelta is the output spacing used when the caller does
// not request one.
const DefaultSmoothingDelta = 0.25

// Smooth resamples a rectangular planar dataset onto a uniform grid with
// the given spacing. A natural cubic spline is fitted along each row,
// the rows are resampled, and a second spline pass runs along each
// resampled column, giving a tensor-product bicubic surface through the
// original points. The output axes run from each coordinate minimum in
// steps of delta up to and including the first sample at or beyond the
// maximum, so the resampled grid always covers the input extent.
// Evaluation points past the fitted interval are clamped to its edge.
//
// The input must be rectangular: every row of X identical, every column
// of Y identical, and both coordinate vectors strictly increasing with
// at least two entries.
func Smooth(p *grid.Planar, delta float64) (*grid.Planar, error) {
	if !(delta > 0) {
		return nil, &grid.ConfigurationError{Param: "delta", Reason: "spacing must be positive"}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	xs, ys, err := rectAxes(p)
	if err != nil {
		return nil, err
	}

	outXs := arange(xs[0], xs[len(xs)-1], delta)
	outYs := arange(ys[0], ys[len(ys)-1], delta)
	rows, cols := p.Dims()

	// First pass: resample every row along x.
	var sp interp.NaturalCubic
	across := mat.NewDense(rows, len(outXs), nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, p.V)
		if err := sp.Fit(xs, row); err != nil {
			return nil, fmt.Errorf("failed to fit spline along x at row %d: %v", i, err)
		}
		for j, x := range outXs {
			across.Set(i, j, sp.Predict(clamp(x, xs[0], xs[len(xs)-1])))
		}
	}

	// Second pass: resample every intermediate column along y.
	out := grid.NewPlanar(outXs, outYs)
	col := make([]float64, rows)
	for j := range outXs {
		mat.Col(col, j, across)
		if err := sp.Fit(ys, col); err != nil {
			return nil, fmt.Errorf("failed to fit spline along y at column %d: %v", j, err)
		}
		for i, y := range outYs {
			out.V.Set(i, j, sp.Predict(clamp(y, ys[0], ys[len(ys)-1])))
		}
	}
	return out, nil
}

// rectAxes extracts the coordinate vectors of a rectangular planar
// dataset, rejecting inputs whose coordinates do not form the full
// cross product of two strictly increasing axes.
func rectAxes(p *grid.Planar) (xs, ys []float64, err error) {
	rows, cols := p.Dims()
	if rows < 2 || cols < 2 {
		return nil, nil, &grid.MalformedTableError{Reason: "need at least two samples along each axis"}
	}

	xs = make([]float64, cols)
	mat.Row(xs, 0, p.X)
	ys = make([]float64, rows)
	mat.Col(ys, 0, p.Y)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if p.X.At(i, j) != xs[j] || p.Y.At(i, j) != ys[i] {
				return nil, nil, &grid.MalformedTableError{Reason: "coordinates do not form a rectangular grid"}
			}
		}
	}
	for j := 1; j < cols; j++ {
		if xs[j] <= xs[j-1] {
			return nil, nil, &grid.MalformedTableError{Reason: "x coordinates are not strictly increasing"}
		}
	}
	for i := 1; i < rows; i++ {
		if ys[i] <= ys[i-1] {
			return nil, nil, &grid.MalformedTableError{Reason: "y coordinates are not strictly increasing"}
		}
	}
	return xs, ys, nil
}

// arange samples lo, lo+step, ... stopping after the first value that
// reaches or passes hi.
func arange(lo, hi, step float64) []float64 {
	out := []float64{lo}
	for i := 1; out[len(out)-1] < hi; i++ {
		out = append(out, lo+float64(i)*step)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
