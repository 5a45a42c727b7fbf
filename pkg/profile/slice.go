// Package profile reduces volume grids to lower-dimensional datasets:
// planar slices, radial (polar) averages per height, and cylindrical
// disk averages per height. Reductions position every cell with its
// physical coordinate and never mutate the source grid, so one grid
// can feed several reductions concurrently.
package profile

import (
	"fmt"

	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
)

// Plane names a slicing plane of a volume grid.
type Plane string

const (
	PlaneXY Plane = "xy"
	PlaneXZ Plane = "xz"
	PlaneYZ Plane = "yz"
)

// Slice extracts the plane of g at index at along the collapsed axis:
// xy collapses z, xz collapses y, yz collapses x. A negative at
// selects the collapsed axis's center index. The result carries the
// two in-plane physical coordinate matrices, first named axis along
// columns, and the field values restricted to the plane.
func Slice(g *grid.VolumeGrid, plane Plane, at int) (*grid.Planar, error) {
	var colAxis, rowAxis, cutAxis grid.Axis
	switch plane {
	case PlaneXY:
		colAxis, rowAxis, cutAxis = grid.AxisX, grid.AxisY, grid.AxisZ
	case PlaneXZ:
		colAxis, rowAxis, cutAxis = grid.AxisX, grid.AxisZ, grid.AxisY
	case PlaneYZ:
		colAxis, rowAxis, cutAxis = grid.AxisY, grid.AxisZ, grid.AxisX
	default:
		return nil, &grid.InvalidPlaneError{Plane: string(plane)}
	}

	f := g.Frame()
	if at < 0 {
		at = f.Center(cutAxis)
	}
	if at >= f.Len(cutAxis) {
		return nil, &grid.ConfigurationError{
			Param:  "at",
			Reason: fmt.Sprintf("index %d out of range for %s axis of length %d", at, cutAxis, f.Len(cutAxis)),
		}
	}

	p := grid.NewPlanar(f.PhysicalAxis(colAxis), f.PhysicalAxis(rowAxis))
	rows, cols := p.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p.V.Set(i, j, planeValue(g, plane, at, i, j))
		}
	}
	return p, nil
}

// planeValue maps in-plane matrix indices (row i, column j) back to
// grid indices for the given plane.
func planeValue(g *grid.VolumeGrid, plane Plane, at, i, j int) float64 {
	switch plane {
	case PlaneXY:
		return g.At(j, i, at)
	case PlaneXZ:
		return g.At(j, at, i)
	default: // PlaneYZ
		return g.At(at, j, i)
	}
}
