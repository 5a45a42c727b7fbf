// Package pipeline runs the standard reduction set over one OpenDX
// grid: radial average, cylindrical average and the three axis slices,
// each persisted as a sorted CSV table next to the input's base name.
package pipeline

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/willemsk/nanopore-simulation-tools/pkg/dx"
	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
	"github.com/willemsk/nanopore-simulation-tools/pkg/profile"
	"github.com/willemsk/nanopore-simulation-tools/pkg/table"
)

// Params holds the analysis configuration.
type Params struct {
	// InputFile is the OpenDX grid to analyze. Paths ending in .gz or
	// .zst are decompressed transparently.
	InputFile string

	// MaskFile optionally names a second grid of the same dimensions;
	// cells where the mask or the data is zero are excluded from the
	// radial average.
	MaskFile string

	// OutputDir receives the generated tables. Empty means the
	// working directory.
	OutputDir string

	// CenterX and CenterY locate the pore axis in physical coordinates.
	CenterX, CenterY float64

	// Radius is the disk radius for cylindrical averaging.
	Radius float64

	// Workers caps the goroutines used per averaging pass. Zero or
	// negative uses all available cores.
	Workers int

	// Compression appends a suffix to every output table: none, gz
	// or zst.
	Compression string
}

// Summary describes a completed run.
type Summary struct {
	// Dims holds the loaded grid's point counts per axis.
	Dims [3]int

	// Outputs lists the files written, in creation order.
	Outputs []string
}

// Pipeline coordinates the reduction steps for a single input grid.
type Pipeline struct {
	params  *Params
	summary Summary
}

// New creates a pipeline instance with the provided parameters.
func New(params *Params) *Pipeline {
	return &Pipeline{params: params}
}

// Process runs the complete analysis pipeline.
func (p *Pipeline) Process() error {
	switch p.params.Compression {
	case "", "none", "gz", "zst":
	default:
		return &grid.ConfigurationError{Param: "compression", Reason: "want none, gz or zst"}
	}

	if p.params.OutputDir != "" {
		if err := os.MkdirAll(p.params.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %v", err)
		}
	}

	// Step 1: Load the input grid and the optional mask
	log.WithField("file", p.params.InputFile).Info("Step 1: Loading input grid...")
	g, err := dx.Read(p.params.InputFile)
	if err != nil {
		return fmt.Errorf("failed to load input grid: %v", err)
	}
	nx, ny, nz := g.Dims()
	p.summary.Dims = [3]int{nx, ny, nz}
	log.WithFields(log.Fields{"nx": nx, "ny": ny, "nz": nz}).Info("Grid loaded")

	var mask *grid.VolumeGrid
	if p.params.MaskFile != "" {
		log.WithField("file", p.params.MaskFile).Info("Loading mask grid...")
		mask, err = dx.Read(p.params.MaskFile)
		if err != nil {
			return fmt.Errorf("failed to load mask grid: %v", err)
		}
		if !g.SameDims(mask) {
			mx, my, mz := mask.Dims()
			return &grid.ShapeMismatchError{
				Want: fmt.Sprintf("%dx%dx%d", nx, ny, nz),
				Got:  fmt.Sprintf("%dx%dx%d", mx, my, mz),
			}
		}
	}

	base := baseName(p.params.InputFile)
	center := [2]float64{p.params.CenterX, p.params.CenterY}

	// Step 2: Radial average with extent-derived bins
	log.WithFields(log.Fields{"centerX": center[0], "centerY": center[1]}).
		Info("Step 2: Computing radial average...")
	rad, err := profile.RadialAverage(g, profile.RadialOptions{
		Center:  center,
		Mask:    mask,
		Binning: profile.Binning{Mode: profile.AutoFromExtent},
	})
	if err != nil {
		return fmt.Errorf("failed to compute radial average: %v", err)
	}
	// Index columns stay named x and y (radius, height) so the table
	// feeds Pivot like any slice table.
	cols, err := table.FromPlanar(rad, "x", "y", "phi")
	if err != nil {
		return fmt.Errorf("failed to tabulate radial average: %v", err)
	}
	if err := p.writeTable(base+"_radav.csv", cols); err != nil {
		return err
	}

	// Step 3: Cylindrical average over the configured disk
	log.WithField("radius", p.params.Radius).Info("Step 3: Computing cylindrical average...")
	heights, means, err := profile.CylindricalAverage(g, profile.CylindricalOptions{
		Center:  center,
		Radius:  p.params.Radius,
		Workers: p.params.Workers,
	})
	if err != nil {
		return fmt.Errorf("failed to compute cylindrical average: %v", err)
	}
	cylCols := []table.Column{
		{Name: "z", Values: heights},
		{Name: "phi", Values: means},
	}
	if err := p.writeTable(base+"_cylav.csv", cylCols); err != nil {
		return err
	}

	// Step 4: Axis slices; xy is taken where the physical height is
	// closest to zero, xz and yz at their center indices
	log.Info("Step 4: Extracting axis slices...")
	slices := []struct {
		plane profile.Plane
		at    int
	}{
		{profile.PlaneXY, nearestZeroHeight(g)},
		{profile.PlaneXZ, -1},
		{profile.PlaneYZ, -1},
	}
	for _, s := range slices {
		sl, err := profile.Slice(g, s.plane, s.at)
		if err != nil {
			return fmt.Errorf("failed to extract %s slice: %v", s.plane, err)
		}
		slCols, err := table.FromPlanar(sl, "x", "y", "phi")
		if err != nil {
			return fmt.Errorf("failed to tabulate %s slice: %v", s.plane, err)
		}
		if err := p.writeTable(fmt.Sprintf("%s_%sslice.csv", base, s.plane), slCols); err != nil {
			return err
		}
	}

	log.WithField("outputs", len(p.summary.Outputs)).Info("Analysis complete")
	return nil
}

// GetSummary returns the run summary recorded by Process.
func (p *Pipeline) GetSummary() Summary {
	return p.summary
}

// writeTable persists one output table, applying the configured
// compression suffix, and records it in the summary.
func (p *Pipeline) writeTable(name string, cols []table.Column) error {
	if c := p.params.Compression; c != "" && c != "none" {
		name += "." + c
	}
	path := filepath.Join(p.params.OutputDir, name)
	if err := table.Write(path, cols); err != nil {
		return fmt.Errorf("failed to write %s: %v", name, err)
	}
	p.summary.Outputs = append(p.summary.Outputs, path)
	log.WithField("file", path).Info("Wrote table")
	return nil
}

// nearestZeroHeight returns the height index whose physical z
// coordinate is closest to zero.
func nearestZeroHeight(g *grid.VolumeGrid) int {
	f := g.Frame()
	_, _, nz := g.Dims()
	best := 0
	bestDist := math.Abs(f.Physical(grid.AxisZ, 0))
	for k := 1; k < nz; k++ {
		if d := math.Abs(f.Physical(grid.AxisZ, k)); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

// baseName strips the directory and any .dx, .dx.gz or .dx.zst suffix
// from an input path.
func baseName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst"} {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.TrimSuffix(name, ".dx")
}
