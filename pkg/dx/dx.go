// Package dx reads and writes OpenDX scalar field files in the layout
// produced by APBS-family electrostatics solvers: a gridpositions
// header carrying the counts, an origin line, three axis-aligned delta
// lines, and a rank-0 data array with the last grid index varying
// fastest. Files with a .gz or .zst suffix are handled transparently.
package dx

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/willemsk/nanopore-simulation-tools/internal/fileio"
	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
)

// Read loads the OpenDX file at path into a VolumeGrid.
func Read(path string) (*grid.VolumeGrid, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer r.Close()

	g, err := ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", path, err)
	}
	return g, nil
}

// ReadFrom parses an OpenDX stream into a VolumeGrid.
func ReadFrom(r io.Reader) (*grid.VolumeGrid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		haveCounts bool
		nx, ny, nz int
		haveOrigin bool
		origin     [3]float64
		deltaRows  int
		delta      [3]float64
		items      int
		data       []float64
		inData     bool
	)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		if inData {
			for _, field := range fields {
				v, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad data value %q: %v", lineNo, field, err)
				}
				data = append(data, v)
			}
			if len(data) > items {
				return nil, fmt.Errorf("line %d: more than %d data values", lineNo, items)
			}
			if len(data) == items {
				inData = false
			}
			continue
		}

		switch {
		case fields[0] == "object" && hasToken(fields, "gridpositions"):
			counts, err := intsAfter(fields, "counts", 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad gridpositions header: %v", lineNo, err)
			}
			nx, ny, nz = counts[0], counts[1], counts[2]
			haveCounts = true

		case fields[0] == "origin":
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: origin needs 3 components, got %d", lineNo, len(fields)-1)
			}
			for c := 0; c < 3; c++ {
				v, err := strconv.ParseFloat(fields[c+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad origin component %q: %v", lineNo, fields[c+1], err)
				}
				origin[c] = v
			}
			haveOrigin = true

		case fields[0] == "delta":
			if deltaRows >= 3 {
				return nil, fmt.Errorf("line %d: more than 3 delta rows", lineNo)
			}
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: delta needs 3 components, got %d", lineNo, len(fields)-1)
			}
			for c := 0; c < 3; c++ {
				v, err := strconv.ParseFloat(fields[c+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad delta component %q: %v", lineNo, fields[c+1], err)
				}
				if c == deltaRows {
					delta[c] = v
				} else if v != 0 {
					return nil, fmt.Errorf("line %d: grid is not axis-aligned (off-diagonal delta %g)", lineNo, v)
				}
			}
			deltaRows++

		case fields[0] == "object" && hasToken(fields, "array"):
			if !haveCounts {
				return nil, fmt.Errorf("line %d: data array before gridpositions header", lineNo)
			}
			n, err := intsAfter(fields, "items", 1)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad array header: %v", lineNo, err)
			}
			items = n[0]
			if items != nx*ny*nz {
				return nil, fmt.Errorf("line %d: items %d does not match counts %dx%dx%d", lineNo, items, nx, ny, nz)
			}
			data = make([]float64, 0, items)
			inData = true

		default:
			// gridconnections, attribute and field trailer lines.
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan input: %v", err)
	}

	if !haveCounts {
		return nil, fmt.Errorf("missing gridpositions header")
	}
	if !haveOrigin {
		return nil, fmt.Errorf("missing origin")
	}
	if deltaRows != 3 {
		return nil, fmt.Errorf("expected 3 delta rows, got %d", deltaRows)
	}
	if data == nil {
		return nil, fmt.Errorf("missing data array")
	}
	if len(data) != items {
		return nil, fmt.Errorf("data truncated: got %d of %d values", len(data), items)
	}
	return grid.New(nx, ny, nz, delta, origin, data)
}

// Write stores g as an OpenDX file at path, compressed according to
// the path's extension.
func Write(path string, g *grid.VolumeGrid) error {
	w, err := fileio.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}
	if err := WriteTo(w, g); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %v", path, err)
	}
	return w.Close()
}

// WriteTo emits g as an OpenDX stream.
func WriteTo(w io.Writer, g *grid.VolumeGrid) error {
	bw := bufio.NewWriter(w)
	nx, ny, nz := g.Dims()
	delta := g.Delta()
	origin := g.Origin()

	fmt.Fprintln(bw, "# OpenDX scalar field")
	fmt.Fprintf(bw, "object 1 class gridpositions counts %d %d %d\n", nx, ny, nz)
	fmt.Fprintf(bw, "origin %s %s %s\n", ftoa(origin[0]), ftoa(origin[1]), ftoa(origin[2]))
	fmt.Fprintf(bw, "delta %s 0 0\n", ftoa(delta[0]))
	fmt.Fprintf(bw, "delta 0 %s 0\n", ftoa(delta[1]))
	fmt.Fprintf(bw, "delta 0 0 %s\n", ftoa(delta[2]))
	fmt.Fprintf(bw, "object 2 class gridconnections counts %d %d %d\n", nx, ny, nz)
	fmt.Fprintf(bw, "object 3 class array type double rank 0 items %d data follows\n", nx*ny*nz)

	vals := g.Values()
	for i := 0; i < len(vals); i += 3 {
		end := i + 3
		if end > len(vals) {
			end = len(vals)
		}
		parts := make([]string, 0, 3)
		for _, v := range vals[i:end] {
			parts = append(parts, ftoa(v))
		}
		fmt.Fprintln(bw, strings.Join(parts, " "))
	}

	fmt.Fprintln(bw, `attribute "dep" string "positions"`)
	fmt.Fprintln(bw, `object "regular positions regular connections" class field`)
	fmt.Fprintln(bw, `component "positions" value 1`)
	fmt.Fprintln(bw, `component "connections" value 2`)
	fmt.Fprintln(bw, `component "data" value 3`)

	return bw.Flush()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func hasToken(fields []string, token string) bool {
	for _, f := range fields {
		if f == token {
			return true
		}
	}
	return false
}

// intsAfter parses n integer fields following the named token.
func intsAfter(fields []string, token string, n int) ([]int, error) {
	for i, f := range fields {
		if f != token {
			continue
		}
		if len(fields)-i-1 < n {
			return nil, fmt.Errorf("%s needs %d values", token, n)
		}
		out := make([]int, n)
		for c := 0; c < n; c++ {
			v, err := strconv.Atoi(fields[i+1+c])
			if err != nil {
				return nil, fmt.Errorf("bad %s value %q: %v", token, fields[i+1+c], err)
			}
			if v < 1 {
				return nil, fmt.Errorf("%s value %d must be positive", token, v)
			}
			out[c] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("missing %s", token)
}
