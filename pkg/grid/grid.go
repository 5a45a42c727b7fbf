// Package grid provides the core data model for regularly-spaced 3D
// scalar fields and the 2D datasets derived from them.
//
// A VolumeGrid couples a flat value array with the cell spacing and
// origin needed to place every sample in space. Grids are immutable
// after construction, so one grid can back any number of concurrent
// analyses without synchronization.
package grid

import (
	"fmt"
)

// Axis identifies one of the three grid axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// String returns the lowercase axis name.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// VolumeGrid is a regularly-spaced 3D scalar field. Values are stored
// in a flat array with the last index varying fastest, the layout used
// by OpenDX scalar files, so element (i, j, k) lives at
// (i*ny+j)*nz + k.
type VolumeGrid struct {
	nx, ny, nz int
	delta      [3]float64
	origin     [3]float64
	data       []float64
}

// New builds a VolumeGrid with the given dimensions, cell spacing and
// origin. A nil data slice allocates a zero-filled grid; otherwise the
// slice is adopted as the backing store and must hold exactly
// nx*ny*nz values.
func New(nx, ny, nz int, delta, origin [3]float64, data []float64) (*VolumeGrid, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, &ConfigurationError{
			Param:  "dims",
			Reason: fmt.Sprintf("dimensions must be at least 1, got %dx%dx%d", nx, ny, nz),
		}
	}
	for a := AxisX; a <= AxisZ; a++ {
		if !(delta[a] > 0) {
			return nil, &ConfigurationError{
				Param:  "delta",
				Reason: fmt.Sprintf("spacing along %s must be positive, got %g", a, delta[a]),
			}
		}
	}
	n := nx * ny * nz
	if data == nil {
		data = make([]float64, n)
	} else if len(data) != n {
		return nil, &ConfigurationError{
			Param:  "data",
			Reason: fmt.Sprintf("need %d values for a %dx%dx%d grid, got %d", n, nx, ny, nz, len(data)),
		}
	}
	return &VolumeGrid{nx: nx, ny: ny, nz: nz, delta: delta, origin: origin, data: data}, nil
}

// Dims returns the grid dimensions along x, y and z.
func (g *VolumeGrid) Dims() (nx, ny, nz int) {
	return g.nx, g.ny, g.nz
}

// Delta returns the cell spacing along each axis.
func (g *VolumeGrid) Delta() [3]float64 {
	return g.delta
}

// Origin returns the world coordinate anchor of the grid.
func (g *VolumeGrid) Origin() [3]float64 {
	return g.origin
}

// At returns the value at index (i, j, k). It panics if any index is
// out of range.
func (g *VolumeGrid) At(i, j, k int) float64 {
	if i < 0 || i >= g.nx || j < 0 || j >= g.ny || k < 0 || k >= g.nz {
		panic(fmt.Sprintf("grid: index (%d,%d,%d) out of range for %dx%dx%d grid", i, j, k, g.nx, g.ny, g.nz))
	}
	return g.data[(i*g.ny+j)*g.nz+k]
}

// Values returns the grid's backing array in (i*ny+j)*nz+k order. The
// slice must be treated as read-only.
func (g *VolumeGrid) Values() []float64 {
	return g.data
}

// SameDims reports whether o has the same dimensions as g.
func (g *VolumeGrid) SameDims(o *VolumeGrid) bool {
	return g.nx == o.nx && g.ny == o.ny && g.nz == o.nz
}

// Frame returns the coordinate frame of the grid.
func (g *VolumeGrid) Frame() Frame {
	return Frame{
		dims:   [3]int{g.nx, g.ny, g.nz},
		delta:  g.delta,
		origin: g.origin,
	}
}

// Frame derives per-axis coordinates for a VolumeGrid.
//
// Two coordinate rules coexist. The native rule places index i at
// origin + delta*(i+1), one spacing past the origin, matching the
// layout convention of the solver that produced the grid. The physical
// rule, origin + delta*i, subtracts that offset again and is what
// every reduction (slice, radial, cylindrical, mask) uses to position
// cells. Keeping both rules behind one type stops the arithmetic from
// drifting apart between call sites.
type Frame struct {
	dims   [3]int
	delta  [3]float64
	origin [3]float64
}

// Len returns the number of samples along axis a.
func (f Frame) Len(a Axis) int {
	return f.dims[a]
}

// Delta returns the cell spacing along axis a.
func (f Frame) Delta(a Axis) float64 {
	return f.delta[a]
}

// Native returns the native coordinate of index i along axis a.
func (f Frame) Native(a Axis, i int) float64 {
	return f.origin[a] + f.delta[a]*float64(i+1)
}

// Physical returns the physical coordinate of index i along axis a.
func (f Frame) Physical(a Axis, i int) float64 {
	return f.origin[a] + f.delta[a]*float64(i)
}

// NativeAxis returns the full native coordinate vector along axis a.
func (f Frame) NativeAxis(a Axis) []float64 {
	v := make([]float64, f.dims[a])
	for i := range v {
		v[i] = f.Native(a, i)
	}
	return v
}

// PhysicalAxis returns the full physical coordinate vector along
// axis a.
func (f Frame) PhysicalAxis(a Axis) []float64 {
	v := make([]float64, f.dims[a])
	for i := range v {
		v[i] = f.Physical(a, i)
	}
	return v
}

// Extent returns the physical span along axis a, (Len(a)-1)*delta.
func (f Frame) Extent(a Axis) float64 {
	return float64(f.dims[a]-1) * f.delta[a]
}

// Center returns the integer center index along axis a.
func (f Frame) Center(a Axis) int {
	return f.dims[a] / 2
}
