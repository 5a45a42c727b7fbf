package grid

import (
	"fmt"
	"math"
)

// CylinderMask builds a 0/1 grid marking the cells of template that
// fall inside a finite z-aligned cylinder. A cell is inside when its
// planar distance from center is within radius and its physical z
// coordinate lies within height/2 of zCenter. The result shares the
// template's dimensions, spacing and origin, and is a valid mask
// input for radial averaging.
func CylinderMask(template *VolumeGrid, center [2]float64, radius, zCenter, height float64) (*VolumeGrid, error) {
	if !(radius > 0) {
		return nil, &ConfigurationError{
			Param:  "radius",
			Reason: fmt.Sprintf("must be positive, got %g", radius),
		}
	}
	if !(height > 0) {
		return nil, &ConfigurationError{
			Param:  "height",
			Reason: fmt.Sprintf("must be positive, got %g", height),
		}
	}
	nx, ny, nz := template.Dims()
	f := template.Frame()
	halfHeight := height / 2
	data := make([]float64, nx*ny*nz)
	idx := 0
	for i := 0; i < nx; i++ {
		dx := f.Physical(AxisX, i) - center[0]
		for j := 0; j < ny; j++ {
			dy := f.Physical(AxisY, j) - center[1]
			inDisk := math.Hypot(dx, dy) <= radius
			for k := 0; k < nz; k++ {
				if inDisk && math.Abs(f.Physical(AxisZ, k)-zCenter) <= halfHeight {
					data[idx] = 1
				}
				idx++
			}
		}
	}
	return New(nx, ny, nz, template.Delta(), template.Origin(), data)
}
