package grid

import "fmt"

// ConfigurationError reports a parameter whose value fails validation,
// such as a non-positive spacing or radius.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// InvalidPlaneError reports an unrecognized slicing plane name.
type InvalidPlaneError struct {
	Plane string
}

func (e *InvalidPlaneError) Error() string {
	return fmt.Sprintf("unknown plane %q: want xy, xz or yz", e.Plane)
}

// MalformedTableError reports tabular data that cannot be reshaped
// into a dense rectangular grid.
type MalformedTableError struct {
	Reason string
}

func (e *MalformedTableError) Error() string {
	return "malformed table: " + e.Reason
}

// ShapeMismatchError reports two datasets whose dimensions must agree
// but do not.
type ShapeMismatchError struct {
	Want string
	Got  string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: want %s, got %s", e.Want, e.Got)
}
