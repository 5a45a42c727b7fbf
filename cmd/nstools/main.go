package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/willemsk/nanopore-simulation-tools/pkg/config"
	"github.com/willemsk/nanopore-simulation-tools/pkg/dime"
	"github.com/willemsk/nanopore-simulation-tools/pkg/dx"
	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
	"github.com/willemsk/nanopore-simulation-tools/pkg/pipeline"
	"github.com/willemsk/nanopore-simulation-tools/pkg/profile"
	"github.com/willemsk/nanopore-simulation-tools/pkg/surface"
	"github.com/willemsk/nanopore-simulation-tools/pkg/table"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nstools",
		Short: "Analysis tools for nanopore simulation grids",
		Long: `nstools reduces OpenDX scalar fields from nanopore simulations into
tabulated profiles: planar slices, radial averages and cylindrical
averages, with helpers for smoothing, mirroring, masking and grid sizing.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			if verbose || cfg.Runtime.Verbose {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "nstools.yaml", "Configuration file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	root.AddCommand(
		newProcessCmd(),
		newRadialCmd(),
		newCylinderCmd(),
		newSliceCmd(),
		newSmoothCmd(),
		newMirrorCmd(),
		newMaskCmd(),
		newDimeCmd(),
		newInfoCmd(),
		newConfigCmd(),
	)
	return root
}

func newProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <grid.dx>",
		Short: "Run the full reduction pipeline on a grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mask, _ := cmd.Flags().GetString("mask")
			params := &pipeline.Params{
				InputFile:   args[0],
				MaskFile:    mask,
				OutputDir:   stringSetting(cmd, "output-dir", cfg.Output.Directory),
				CenterX:     floatSetting(cmd, "center-x", cfg.Analysis.CenterX),
				CenterY:     floatSetting(cmd, "center-y", cfg.Analysis.CenterY),
				Radius:      floatSetting(cmd, "radius", cfg.Analysis.Radius),
				Workers:     intSetting(cmd, "cores", cfg.Runtime.Cores),
				Compression: stringSetting(cmd, "compress", cfg.Output.Compression),
			}
			p := pipeline.New(params)
			if err := p.Process(); err != nil {
				return err
			}
			for _, out := range p.GetSummary().Outputs {
				fmt.Printf("Wrote %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().String("mask", "", "OpenDX mask grid; zero cells are excluded from the radial average")
	cmd.Flags().String("output-dir", "", "Directory for the generated tables")
	cmd.Flags().Float64("center-x", 0, "Pore axis x coordinate")
	cmd.Flags().Float64("center-y", 0, "Pore axis y coordinate")
	cmd.Flags().Float64("radius", 1.0, "Disk radius for cylindrical averaging")
	cmd.Flags().Int("cores", runtime.NumCPU(), "Number of CPU cores to use")
	cmd.Flags().String("compress", "none", "Table compression: none, gz or zst")
	return cmd
}

func newRadialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "radial <grid.dx>",
		Short: "Compute a radial average profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := dx.Read(args[0])
			if err != nil {
				return fmt.Errorf("failed to load input grid: %v", err)
			}

			var mask *grid.VolumeGrid
			if maskPath, _ := cmd.Flags().GetString("mask"); maskPath != "" {
				if mask, err = dx.Read(maskPath); err != nil {
					return fmt.Errorf("failed to load mask grid: %v", err)
				}
			}

			binning := profile.Binning{Mode: profile.DefaultCount}
			if cmd.Flags().Changed("bins") {
				raw, _ := cmd.Flags().GetString("bins")
				edges, err := parseEdges(raw)
				if err != nil {
					return err
				}
				binning = profile.Binning{Mode: profile.ExplicitBins, Edges: edges}
			} else if auto, _ := cmd.Flags().GetBool("auto"); auto {
				binning = profile.Binning{Mode: profile.AutoFromExtent}
			}

			rad, err := profile.RadialAverage(g, profile.RadialOptions{
				Center: [2]float64{
					floatSetting(cmd, "center-x", cfg.Analysis.CenterX),
					floatSetting(cmd, "center-y", cfg.Analysis.CenterY),
				},
				Mask:    mask,
				Binning: binning,
			})
			if err != nil {
				return err
			}
			cols, err := table.FromPlanar(rad, "x", "y", "phi")
			if err != nil {
				return err
			}
			return writeTable(outSetting(cmd, args[0], "_radav.csv"), cols)
		},
	}
	cmd.Flags().String("mask", "", "OpenDX mask grid; zero cells are excluded")
	cmd.Flags().String("bins", "", "Comma-separated bin edges, ascending")
	cmd.Flags().Bool("auto", false, "Derive bin edges from the grid extent and spacing")
	cmd.Flags().Float64("center-x", 0, "Radial center x coordinate")
	cmd.Flags().Float64("center-y", 0, "Radial center y coordinate")
	cmd.Flags().String("out", "", "Output table path")
	return cmd
}

func newCylinderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cylinder <grid.dx>",
		Short: "Average the field over a disk at every height",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := dx.Read(args[0])
			if err != nil {
				return fmt.Errorf("failed to load input grid: %v", err)
			}
			heights, means, err := profile.CylindricalAverage(g, profile.CylindricalOptions{
				Center: [2]float64{
					floatSetting(cmd, "center-x", cfg.Analysis.CenterX),
					floatSetting(cmd, "center-y", cfg.Analysis.CenterY),
				},
				Radius:  floatSetting(cmd, "radius", cfg.Analysis.Radius),
				Workers: intSetting(cmd, "cores", cfg.Runtime.Cores),
			})
			if err != nil {
				return err
			}
			cols := []table.Column{
				{Name: "z", Values: heights},
				{Name: "phi", Values: means},
			}
			return writeTable(outSetting(cmd, args[0], "_cylav.csv"), cols)
		},
	}
	cmd.Flags().Float64("radius", 1.0, "Disk radius")
	cmd.Flags().Float64("center-x", 0, "Disk center x coordinate")
	cmd.Flags().Float64("center-y", 0, "Disk center y coordinate")
	cmd.Flags().Int("cores", runtime.NumCPU(), "Number of CPU cores to use")
	cmd.Flags().String("out", "", "Output table path")
	return cmd
}

func newSliceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slice <grid.dx>",
		Short: "Extract one axis-aligned plane as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := dx.Read(args[0])
			if err != nil {
				return fmt.Errorf("failed to load input grid: %v", err)
			}
			plane, _ := cmd.Flags().GetString("plane")
			at, _ := cmd.Flags().GetInt("at")
			sl, err := profile.Slice(g, profile.Plane(plane), at)
			if err != nil {
				return err
			}
			cols, err := table.FromPlanar(sl, "x", "y", "phi")
			if err != nil {
				return err
			}
			return writeTable(outSetting(cmd, args[0], fmt.Sprintf("_%sslice.csv", plane)), cols)
		},
	}
	cmd.Flags().String("plane", "xy", "Slice plane: xy, xz or yz")
	cmd.Flags().Int("at", -1, "Index along the collapsed axis; negative means center")
	cmd.Flags().String("out", "", "Output table path")
	return cmd
}

func newSmoothCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smooth <table.csv>",
		Short: "Resample a table onto a finer uniform grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPlanar(args[0])
			if err != nil {
				return err
			}
			sm, err := surface.Smooth(p, floatSetting(cmd, "delta", cfg.Analysis.SmoothDelta))
			if err != nil {
				return err
			}
			cols, err := table.FromPlanar(sm, "x", "y", "phi")
			if err != nil {
				return err
			}
			return writeTable(outSetting(cmd, args[0], "_smooth.csv"), cols)
		},
	}
	cmd.Flags().Float64("delta", surface.DefaultSmoothingDelta, "Output grid spacing")
	cmd.Flags().String("out", "", "Output table path")
	return cmd
}

func newMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror <table.csv>",
		Short: "Reflect a table across the first coordinate axis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPlanar(args[0])
			if err != nil {
				return err
			}
			invert, _ := cmd.Flags().GetBool("invert")
			m, err := surface.Mirror(p, invert)
			if err != nil {
				return err
			}
			cols, err := table.FromPlanar(m, "x", "y", "phi")
			if err != nil {
				return err
			}
			return writeTable(outSetting(cmd, args[0], "_mirror.csv"), cols)
		},
	}
	cmd.Flags().Bool("invert", false, "Negate the reflected half for antisymmetric fields")
	cmd.Flags().String("out", "", "Output table path")
	return cmd
}

func newMaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mask <grid.dx>",
		Short: "Build a cylindrical mask grid matching an input grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := dx.Read(args[0])
			if err != nil {
				return fmt.Errorf("failed to load template grid: %v", err)
			}
			radius, _ := cmd.Flags().GetFloat64("radius")
			height, _ := cmd.Flags().GetFloat64("height")
			zCenter, _ := cmd.Flags().GetFloat64("z-center")
			center := [2]float64{
				floatSetting(cmd, "center-x", cfg.Analysis.CenterX),
				floatSetting(cmd, "center-y", cfg.Analysis.CenterY),
			}
			mask, err := grid.CylinderMask(g, center, radius, zCenter, height)
			if err != nil {
				return err
			}
			out := outSetting(cmd, args[0], "_mask.dx")
			if err := dx.Write(out, mask); err != nil {
				return fmt.Errorf("failed to write mask grid: %v", err)
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().Float64("radius", 1.0, "Cylinder radius")
	cmd.Flags().Float64("height", 0, "Cylinder height")
	cmd.Flags().Float64("z-center", 0, "Cylinder center along the height axis")
	cmd.Flags().Float64("center-x", 0, "Cylinder axis x coordinate")
	cmd.Flags().Float64("center-y", 0, "Cylinder axis y coordinate")
	cmd.Flags().String("out", "", "Output grid path")
	cmd.MarkFlagRequired("height")
	return cmd
}

func newDimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dime",
		Short: "Compute multigrid-compatible grid dimensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case cmd.Flags().Changed("size") || cmd.Flags().Changed("spacing"):
				size, _ := cmd.Flags().GetFloat64("size")
				spacing, _ := cmd.Flags().GetFloat64("spacing")
				nlev, _ := cmd.Flags().GetInt("nlev")
				d, c, err := dime.Best(size, spacing, nlev)
				if err != nil {
					return err
				}
				fmt.Printf("dime: %d (c=%d, nlev=%d)\n", d, c, nlev)
			case cmd.Flags().Changed("c"):
				c, _ := cmd.Flags().GetInt("c")
				nlev, _ := cmd.Flags().GetInt("nlev")
				d, err := dime.Compute(c, nlev)
				if err != nil {
					return err
				}
				fmt.Printf("dime: %d\n", d)
			default:
				return fmt.Errorf("specify --size and --spacing, or --c and --nlev")
			}
			return nil
		},
	}
	cmd.Flags().Float64("size", 0, "Physical extent to cover")
	cmd.Flags().Float64("spacing", 0, "Target grid spacing")
	cmd.Flags().Int("c", 0, "Grid coefficient")
	cmd.Flags().Int("nlev", dime.DefaultLevels, "Multigrid level count")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <grid.dx>",
		Short: "Print grid dimensions, extents and value statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := dx.Read(args[0])
			if err != nil {
				return fmt.Errorf("failed to load input grid: %v", err)
			}
			nx, ny, nz := g.Dims()
			origin, delta := g.Origin(), g.Delta()
			fmt.Printf("dims:    %d x %d x %d\n", nx, ny, nz)
			fmt.Printf("origin:  %g %g %g\n", origin[0], origin[1], origin[2])
			fmt.Printf("delta:   %g %g %g\n", delta[0], delta[1], delta[2])
			f := g.Frame()
			for _, a := range []grid.Axis{grid.AxisX, grid.AxisY, grid.AxisZ} {
				fmt.Printf("%s range: %g .. %g (%d points)\n",
					a, f.Physical(a, 0), f.Physical(a, f.Len(a)-1), f.Len(a))
			}
			vals := g.Values()
			fmt.Printf("values:  min %g  max %g  mean %g\n",
				floats.Min(vals), floats.Max(vals), stat.Mean(vals, nil))
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "nstools.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return err
			}
			fmt.Printf("Wrote default configuration to %s\n", path)
			return nil
		},
	})
	return cmd
}

// floatSetting returns the flag value when the user set it, falling
// back to the loaded configuration otherwise.
func floatSetting(cmd *cobra.Command, name string, fallback float64) float64 {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetFloat64(name)
		return v
	}
	return fallback
}

func intSetting(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

func stringSetting(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

// outSetting resolves the output path: the --out flag when given, the
// input's base name plus a suffix otherwise.
func outSetting(cmd *cobra.Command, input, suffix string) string {
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		return out
	}
	name := filepath.Base(input)
	for _, ext := range []string{".gz", ".zst"} {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.TrimSuffix(name, ".dx")
	name = strings.TrimSuffix(name, ".csv")
	return name + suffix
}

// readPlanar loads a long-format table and pivots it into a planar
// dataset.
func readPlanar(path string) (*grid.Planar, error) {
	cols, err := table.Read(path, cfg.Analysis.Decimals)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %v", err)
	}
	p, err := table.Pivot(cols)
	if err != nil {
		return nil, fmt.Errorf("failed to pivot table: %v", err)
	}
	return p, nil
}

// parseEdges parses a comma-separated list of bin edges.
func parseEdges(spec string) ([]float64, error) {
	parts := strings.Split(spec, ",")
	edges := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bin edge %q: %v", p, err)
		}
		edges = append(edges, v)
	}
	return edges, nil
}

// writeTable persists one table and reports it.
func writeTable(out string, cols []table.Column) error {
	if err := table.Write(out, cols); err != nil {
		return fmt.Errorf("failed to write table: %v", err)
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
