// Package output provides format and density types for reportist output.
package output

import (
	"fmt"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is the default line-per-task output
	FormatText Format = "text"

	// FormatYAML is the self-documenting YAML output
	FormatYAML Format = "yaml"

	// FormatJSON is the JSON output format
	FormatJSON Format = "json"
)

// ParseFormat parses a format string into a Format value.
// Accepts: "text", "yaml", "json" (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "yaml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format: %q (expected text, yaml, or json)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// IsStructured returns true for formats rendered by a Formatter.
func (f Format) IsStructured() bool {
	return f == FormatYAML || f == FormatJSON
}

// Density represents the level of detail in structured output.
//   - Sparse: window and count only
//   - Medium: every task with time, project path and content (default)
//   - Dense: medium plus project and task identifiers
type Density string

const (
	// DensitySparse provides the summary only
	DensitySparse Density = "sparse"

	// DensityMedium lists the tasks (default)
	DensityMedium Density = "medium"

	// DensityDense adds identifiers
	DensityDense Density = "dense"
)

// ParseDensity parses a density string into a Density value.
// Accepts: "sparse", "medium", "dense" (case-insensitive)
func ParseDensity(s string) (Density, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sparse":
		return DensitySparse, nil
	case "medium", "":
		return DensityMedium, nil
	case "dense":
		return DensityDense, nil
	default:
		return "", fmt.Errorf("invalid density: %q (expected sparse, medium, or dense)", s)
	}
}

// String returns the string representation of the density.
func (d Density) String() string {
	return string(d)
}

// IncludesTasks returns true if this density level lists individual tasks.
func (d Density) IncludesTasks() bool {
	return d == DensityMedium || d == DensityDense
}

// IncludesIDs returns true if this density level includes identifiers.
func (d Density) IncludesIDs() bool {
	return d == DensityDense
}

// DefaultFormat is the default output format when none is specified.
const DefaultFormat = FormatText

// DefaultDensity is the default density level when none is specified.
const DefaultDensity = DensityMedium
