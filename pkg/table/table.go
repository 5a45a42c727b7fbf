// Package table persists reduced datasets as long-format delimited
// text: one or more coordinate index columns followed by exactly one
// value column, one row per cell, rows sorted lexicographically by
// the index columns. Tables written with a .gz or .zst suffix are
// compressed transparently.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/willemsk/nanopore-simulation-tools/internal/fileio"
	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
)

// Column is one named column of a long-format table.
type Column struct {
	Name   string
	Values []float64
}

// DefaultDecimals is the rounding precision Read applies to absorb
// serialization noise.
const DefaultDecimals = 7

// FromPlanar flattens a planar dataset row-major into three columns,
// ready for Write.
func FromPlanar(p *grid.Planar, xName, yName, vName string) ([]Column, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rows, cols := p.Dims()
	n := rows * cols
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	vs := make([]float64, 0, n)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			xs = append(xs, p.X.At(i, j))
			ys = append(ys, p.Y.At(i, j))
			vs = append(vs, p.V.At(i, j))
		}
	}
	return []Column{{xName, xs}, {yName, ys}, {vName, vs}}, nil
}

// Write persists the columns at path, compressed according to the
// path's extension.
func Write(path string, cols []Column) error {
	w, err := fileio.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}
	if err := WriteTo(w, cols); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %v", path, err)
	}
	return w.Close()
}

// WriteTo emits the columns as comma-separated text with a header
// row. All columns except the last form the sort index; rows are
// ordered ascending over them, in column order, with ties keeping
// their input order. NaN is written as an empty field.
func WriteTo(w io.Writer, cols []Column) error {
	if len(cols) < 2 {
		return &grid.ConfigurationError{
			Param:  "columns",
			Reason: fmt.Sprintf("need at least one index and one value column, got %d", len(cols)),
		}
	}
	n := len(cols[0].Values)
	for _, c := range cols[1:] {
		if len(c.Values) != n {
			return &grid.ShapeMismatchError{
				Want: fmt.Sprintf("%d rows", n),
				Got:  fmt.Sprintf("%d rows in column %s", len(c.Values), c.Name),
			}
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	nIndex := len(cols) - 1
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := order[a], order[b]
		for c := 0; c < nIndex; c++ {
			va, vb := cols[c].Values[ra], cols[c].Values[rb]
			if va != vb {
				return va < vb
			}
		}
		return false
	})

	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}
	record := make([]string, len(cols))
	for _, ri := range order {
		for ci := range cols {
			record[ci] = formatValue(cols[ci].Values[ri])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses a table written by Write, rounding every value to the
// given decimal precision.
func Read(path string, decimals int) ([]Column, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer r.Close()

	cols, err := ReadFrom(r, decimals)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", path, err)
	}
	return cols, nil
}

// ReadFrom parses a comma-separated stream with a header row. Empty
// fields and the literal NaN parse to NaN; everything else must be
// numeric. Every value is rounded to decimals places.
func ReadFrom(r io.Reader, decimals int) ([]Column, error) {
	if decimals < 0 {
		return nil, &grid.ConfigurationError{
			Param:  "decimals",
			Reason: fmt.Sprintf("must not be negative, got %d", decimals),
		}
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %v", err)
	}
	cols := make([]Column, len(header))
	for i, name := range header {
		cols[i].Name = name
	}

	scale := math.Pow(10, float64(decimals))
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %v", err)
		}
		for i, field := range record {
			v, err := parseValue(field)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s value %q: %v", cols[i].Name, field, err)
			}
			cols[i].Values = append(cols[i].Values, math.Round(v*scale)/scale)
		}
	}
	return cols, nil
}

// Pivot reconstructs a dense planar dataset from a three-column table
// whose index columns are named x and y: distinct sorted x values
// become columns, distinct sorted y values become rows. The table
// must cover every (x, y) combination exactly once; NaN is legal as
// a value but not as a coordinate.
func Pivot(cols []Column) (*grid.Planar, error) {
	if len(cols) != 3 {
		return nil, &grid.MalformedTableError{
			Reason: fmt.Sprintf("need exactly 3 columns (x, y, value), got %d", len(cols)),
		}
	}
	if cols[0].Name != "x" || cols[1].Name != "y" {
		return nil, &grid.MalformedTableError{
			Reason: fmt.Sprintf("index columns must be named x and y, got %q and %q", cols[0].Name, cols[1].Name),
		}
	}
	n := len(cols[0].Values)
	for _, c := range cols[1:] {
		if len(c.Values) != n {
			return nil, &grid.ShapeMismatchError{
				Want: fmt.Sprintf("%d rows", n),
				Got:  fmt.Sprintf("%d rows in column %s", len(c.Values), c.Name),
			}
		}
	}
	if n == 0 {
		return nil, &grid.MalformedTableError{Reason: "table has no rows"}
	}

	xs, err := uniqueSorted(cols[0])
	if err != nil {
		return nil, err
	}
	ys, err := uniqueSorted(cols[1])
	if err != nil {
		return nil, err
	}
	if len(xs)*len(ys) != n {
		return nil, &grid.MalformedTableError{
			Reason: fmt.Sprintf("%d rows cannot fill a complete %dx%d grid", n, len(ys), len(xs)),
		}
	}

	xIdx := make(map[float64]int, len(xs))
	for j, x := range xs {
		xIdx[x] = j
	}
	yIdx := make(map[float64]int, len(ys))
	for i, y := range ys {
		yIdx[y] = i
	}

	p := grid.NewPlanar(xs, ys)
	seen := make([]bool, n)
	for r := 0; r < n; r++ {
		i := yIdx[cols[1].Values[r]]
		j := xIdx[cols[0].Values[r]]
		slot := i*len(xs) + j
		if seen[slot] {
			return nil, &grid.MalformedTableError{
				Reason: fmt.Sprintf("duplicate combination x=%g y=%g", cols[0].Values[r], cols[1].Values[r]),
			}
		}
		seen[slot] = true
		p.V.Set(i, j, cols[2].Values[r])
	}
	return p, nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseValue(field string) (float64, error) {
	if field == "" || field == "NaN" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(field, 64)
}

// uniqueSorted returns the distinct values of an index column in
// ascending order.
func uniqueSorted(c Column) ([]float64, error) {
	vals := make([]float64, len(c.Values))
	copy(vals, c.Values)
	sort.Float64s(vals)
	out := vals[:0]
	for i, v := range vals {
		if math.IsNaN(v) {
			return nil, &grid.MalformedTableError{
				Reason: fmt.Sprintf("NaN in index column %s", c.Name),
			}
		}
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out, nil
}
