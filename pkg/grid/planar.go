package grid

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Planar is a 2D dataset of coordinate matrices X, Y and a value
// matrix V sharing one shape. The first coordinate varies along
// columns and the second along rows: X[i,j] = xs[j], Y[i,j] = ys[i],
// and V[i,j] holds the value at (xs[j], ys[i]). Slices, radial
// profiles and pivoted tables all use this layout.
type Planar struct {
	X, Y, V *mat.Dense
}

// NewPlanar builds a Planar over the cross product of the coordinate
// vectors xs and ys, with V zero-filled. The result has len(ys) rows
// and len(xs) columns.
func NewPlanar(xs, ys []float64) *Planar {
	r, c := len(ys), len(xs)
	p := &Planar{
		X: mat.NewDense(r, c, nil),
		Y: mat.NewDense(r, c, nil),
		V: mat.NewDense(r, c, nil),
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			p.X.Set(i, j, xs[j])
			p.Y.Set(i, j, ys[i])
		}
	}
	return p
}

// Dims returns the shape of the value matrix.
func (p *Planar) Dims() (rows, cols int) {
	return p.V.Dims()
}

// Validate checks that X, Y and V share one shape.
func (p *Planar) Validate() error {
	vr, vc := p.V.Dims()
	for _, m := range []*mat.Dense{p.X, p.Y} {
		r, c := m.Dims()
		if r != vr || c != vc {
			return &ShapeMismatchError{
				Want: fmt.Sprintf("%dx%d", vr, vc),
				Got:  fmt.Sprintf("%dx%d", r, c),
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the dataset.
func (p *Planar) Clone() *Planar {
	return &Planar{
		X: mat.DenseCopyOf(p.X),
		Y: mat.DenseCopyOf(p.Y),
		V: mat.DenseCopyOf(p.V),
	}
}
