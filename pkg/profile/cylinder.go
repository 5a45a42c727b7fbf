package profile

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/integrate"

	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
)

// CylindricalOptions configures CylindricalAverage.
type CylindricalOptions struct {
	// Center is the planar (x, y) center of the disk.
	Center [2]float64
	// Radius is the disk radius; it must be positive.
	Radius float64
	// Workers caps the number of concurrent height computations.
	// Zero or negative uses all available cores.
	Workers int
}

// CylindricalAverage computes, for every height level, the mean of
// the field over the disk of the given radius: trapezoidal quadrature
// along both planar axes of the inside-disk indicator yields the
// covered area, quadrature of the indicator-weighted field yields the
// integral, and the mean is their ratio. Disks reaching past the grid
// shrink to the intersection; a disk with no overlap yields NaN at
// every height. Returns the physical height coordinates and the
// per-height means.
func CylindricalAverage(g *grid.VolumeGrid, opts CylindricalOptions) (heights, means []float64, err error) {
	if !(opts.Radius > 0) {
		return nil, nil, &grid.ConfigurationError{
			Param:  "radius",
			Reason: fmt.Sprintf("must be positive, got %g", opts.Radius),
		}
	}

	nx, ny, nz := g.Dims()
	f := g.Frame()
	xs := f.PhysicalAxis(grid.AxisX)
	ys := f.PhysicalAxis(grid.AxisY)
	heights = f.PhysicalAxis(grid.AxisZ)
	means = make([]float64, nz)

	// Quadrature needs two samples per planar axis; a degenerate
	// plane encloses zero area.
	if nx < 2 || ny < 2 {
		for k := range means {
			means[k] = math.NaN()
		}
		return heights, means, nil
	}

	// The disk indicator and its enclosed area are height-independent.
	inside := make([]bool, nx*ny)
	for i := 0; i < nx; i++ {
		dx := xs[i] - opts.Center[0]
		for j := 0; j < ny; j++ {
			inside[i*ny+j] = math.Hypot(dx, ys[j]-opts.Center[1]) <= opts.Radius
		}
	}
	indicator := make([]float64, nx)
	rowArea := make([]float64, ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if inside[i*ny+j] {
				indicator[i] = 1
			} else {
				indicator[i] = 0
			}
		}
		rowArea[j] = integrate.Trapezoidal(xs, indicator)
	}
	area := integrate.Trapezoidal(ys, rowArea)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > nz {
		workers = nz
	}
	heightsPerWorker := (nz + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * heightsPerWorker
		end := start + heightsPerWorker
		if end > nz {
			end = nz
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			row := make([]float64, nx)
			rowInt := make([]float64, ny)
			for k := start; k < end; k++ {
				for j := 0; j < ny; j++ {
					for i := 0; i < nx; i++ {
						if inside[i*ny+j] {
							row[i] = g.At(i, j, k)
						} else {
							row[i] = 0
						}
					}
					rowInt[j] = integrate.Trapezoidal(xs, row)
				}
				means[k] = integrate.Trapezoidal(ys, rowInt) / area
			}
		}(start, end)
	}
	wg.Wait()

	return heights, means, nil
}
