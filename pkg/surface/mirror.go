package surface

import (
	"gonum.org/v1/gonum/mat"

	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
)

// Mirror reflects a planar dataset across the line where the first
// coordinate equals zero. Each X row becomes the negated, reversed
// original row followed by the original row without its first column,
// so the seam column appears exactly once and a one-sided n-column
// input widens to 2n-1 columns. V rows are reflected the same way;
// invert flips the sign of the reflected half for fields that are
// antisymmetric under the reflection. Y values repeat per row.
//
// An input that already extends to negative first coordinates is
// returned as an unchanged copy, so applying the transform twice is
// the same as applying it once.
func Mirror(p *grid.Planar, invert bool) (*grid.Planar, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.X.At(0, 0) < 0 {
		return p.Clone(), nil
	}

	sign := 1.0
	if invert {
		sign = -1.0
	}

	rows, cols := p.Dims()
	w := 2*cols - 1
	out := &grid.Planar{
		X: mat.NewDense(rows, w, nil),
		Y: mat.NewDense(rows, w, nil),
		V: mat.NewDense(rows, w, nil),
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m := cols - 1 - j
			out.X.Set(i, m, -p.X.At(i, j))
			out.Y.Set(i, m, p.Y.At(i, j))
			out.V.Set(i, m, sign*p.V.At(i, j))
		}
		for j := 1; j < cols; j++ {
			o := cols - 1 + j
			out.X.Set(i, o, p.X.At(i, j))
			out.Y.Set(i, o, p.Y.At(i, j))
			out.V.Set(i, o, p.V.At(i, j))
		}
	}
	return out, nil
}
