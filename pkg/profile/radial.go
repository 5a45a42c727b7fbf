package profile

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
)

// BinMode selects how radial bin edges are derived. The three modes
// are independent policies, never inferred from one another.
type BinMode int

const (
	// DefaultCount spans the minimum to maximum planar radius with a
	// fixed number of equal-width bins.
	DefaultCount BinMode = iota
	// AutoFromExtent steps edges from zero to half the grid's x
	// extent plus one spacing, in units of that spacing.
	AutoFromExtent
	// ExplicitBins uses the caller-supplied edge sequence.
	ExplicitBins
)

// DefaultBinCount is the bin count used by DefaultCount mode.
const DefaultBinCount = 33

// Binning specifies the radial bin edges for RadialAverage. The zero
// value selects DefaultCount.
type Binning struct {
	Mode  BinMode
	Edges []float64 // consumed by ExplicitBins
}

// RadialOptions configures RadialAverage.
type RadialOptions struct {
	// Center is the planar (x, y) point radii are measured from.
	Center [2]float64
	// Mask, when non-nil, restricts averaging to cells where both
	// the mask and the data are nonzero. It must share the data
	// grid's dimensions.
	Mask *grid.VolumeGrid
	// Binning selects the bin edges.
	Binning Binning
}

// RadialAverage bins every (x, y) cell of each height level by its
// planar distance from the center and averages the field per bin.
// Bins are half-open with a closed last bin; radii outside the edge
// span are dropped. An empty bin averages to NaN rather than failing.
//
// The result is a Planar with the left bin edges along columns (X),
// physical heights along rows (Y), and the per-bin means in V.
func RadialAverage(g *grid.VolumeGrid, opts RadialOptions) (*grid.Planar, error) {
	nx, ny, nz := g.Dims()
	if opts.Mask != nil && !g.SameDims(opts.Mask) {
		mx, my, mz := opts.Mask.Dims()
		return nil, &grid.ShapeMismatchError{
			Want: fmt.Sprintf("%dx%dx%d", nx, ny, nz),
			Got:  fmt.Sprintf("%dx%dx%d", mx, my, mz),
		}
	}

	f := g.Frame()

	// Planar radii do not vary with height.
	radii := make([]float64, nx*ny)
	for i := 0; i < nx; i++ {
		dx := f.Physical(grid.AxisX, i) - opts.Center[0]
		for j := 0; j < ny; j++ {
			dy := f.Physical(grid.AxisY, j) - opts.Center[1]
			radii[i*ny+j] = math.Hypot(dx, dy)
		}
	}

	edges, err := binEdges(f, radii, opts.Binning)
	if err != nil {
		return nil, err
	}
	nbins := len(edges) - 1

	out := grid.NewPlanar(edges[:nbins], f.PhysicalAxis(grid.AxisZ))
	rs := make([]float64, 0, nx*ny)
	vals := make([]float64, 0, nx*ny)
	counts := make([]float64, nbins)
	sums := make([]float64, nbins)
	for k := 0; k < nz; k++ {
		rs = rs[:0]
		vals = vals[:0]
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				if opts.Mask != nil && (opts.Mask.At(i, j, k) == 0 || g.At(i, j, k) == 0) {
					continue
				}
				rs = append(rs, radii[i*ny+j])
				vals = append(vals, g.At(i, j, k))
			}
		}
		histogram(counts, sums, edges, rs, vals)
		for b := 0; b < nbins; b++ {
			out.V.Set(k, b, sums[b]/counts[b])
		}
	}
	return out, nil
}

// binEdges derives the edge sequence for the requested mode.
func binEdges(f grid.Frame, radii []float64, b Binning) ([]float64, error) {
	switch b.Mode {
	case ExplicitBins:
		if len(b.Edges) < 2 {
			return nil, &grid.ConfigurationError{Param: "bins", Reason: "need at least two edges"}
		}
		for i := 1; i < len(b.Edges); i++ {
			if b.Edges[i] <= b.Edges[i-1] {
				return nil, &grid.ConfigurationError{Param: "bins", Reason: "edges must be strictly increasing"}
			}
		}
		return b.Edges, nil

	case AutoFromExtent:
		step := f.Delta(grid.AxisX)
		stop := f.Extent(grid.AxisX)/2 + step
		n := int(math.Ceil(stop / step))
		if n < 2 {
			return nil, &grid.ConfigurationError{
				Param:  "bins",
				Reason: fmt.Sprintf("x extent %g yields fewer than two edges", f.Extent(grid.AxisX)),
			}
		}
		edges := make([]float64, n)
		for m := range edges {
			edges[m] = float64(m) * step
		}
		return edges, nil

	case DefaultCount:
		rmin := floats.Min(radii)
		rmax := floats.Max(radii)
		if rmin == rmax {
			// Zero-width span, pad it like a single-valued histogram.
			rmin -= 0.5
			rmax += 0.5
		}
		edges := make([]float64, DefaultBinCount+1)
		floats.Span(edges, rmin, rmax)
		// Span steps from rmin, so the endpoint can round below rmax.
		edges[DefaultBinCount] = rmax
		return edges, nil
	}
	return nil, &grid.ConfigurationError{Param: "bins", Reason: fmt.Sprintf("unknown binning mode %d", b.Mode)}
}

// histogram fills per-bin sample counts and value sums. Bins are
// half-open except the last, which also takes samples equal to its
// right edge; samples outside the edge span are dropped. rs and vals
// are reordered in place.
func histogram(counts, sums, edges, rs, vals []float64) {
	for b := range counts {
		counts[b] = 0
		sums[b] = 0
	}
	if len(rs) == 0 {
		return
	}

	stat.SortWeighted(rs, vals)
	last := edges[len(edges)-1]
	lo := sort.SearchFloat64s(rs, edges[0])
	hi := sort.SearchFloat64s(rs, last)
	if lo < hi {
		stat.Histogram(counts, edges, rs[lo:hi], nil)
		stat.Histogram(sums, edges, rs[lo:hi], vals[lo:hi])
	}
	for idx := hi; idx < len(rs) && rs[idx] == last; idx++ {
		counts[len(counts)-1]++
		sums[len(sums)-1] += vals[idx]
	}
}
