// Package dime computes multigrid-compatible grid dimensions, where a
// valid dimension along an axis has the form c*2^(nlev+1) + 1.
package dime

import (
	"fmt"
	"math"

	"github.com/willemsk/nanopore-simulation-tools/pkg/grid"
)

// DefaultLevels is the customary multigrid depth of the target solvers.
const DefaultLevels = 4

// maxLevels caps the depth so the shift arithmetic stays within the
// int range.
const maxLevels = 30

// Compute returns the grid dimension c*2^(nlev+1) + 1.
func Compute(c, nlev int) (int, error) {
	if c < 1 {
		return 0, &grid.ConfigurationError{Param: "c", Reason: "coefficient must be at least 1"}
	}
	if nlev < 0 || nlev > maxLevels {
		return 0, &grid.ConfigurationError{
			Param:  "nlev",
			Reason: fmt.Sprintf("level count must be between 0 and %d", maxLevels),
		}
	}
	return c<<(nlev+1) + 1, nil
}

// Best returns the smallest valid dimension that spans the given
// physical size at the given spacing and multigrid depth. It reports
// the dimension together with the coefficient that produces it.
func Best(size, spacing float64, nlev int) (dim, c int, err error) {
	if !(size > 0) {
		return 0, 0, &grid.ConfigurationError{Param: "size", Reason: "size must be positive"}
	}
	if !(spacing > 0) {
		return 0, 0, &grid.ConfigurationError{Param: "spacing", Reason: "spacing must be positive"}
	}
	if nlev < 0 || nlev > maxLevels {
		return 0, 0, &grid.ConfigurationError{
			Param:  "nlev",
			Reason: fmt.Sprintf("level count must be between 0 and %d", maxLevels),
		}
	}

	minimum := int(math.Ceil(size / spacing))
	step := 1 << (nlev + 1)
	c = (minimum - 1 + step - 1) / step
	if c < 1 {
		c = 1
	}
	return c*step + 1, c, nil
}
