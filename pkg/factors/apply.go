package factors

import (
	"fmt"

	"ppk2fac/internal/models"
	"ppk2fac/pkg/interpolation"
)

// ApplyOptions controls how interpolated nodal values are produced from a
// factor table and a pilot point value vector.
type ApplyOptions struct {
	// Low and High clamp interpolated values to [Low, High].
	Low, High float64

	// Empty is the value recorded for nodes without contributors.
	Empty float64

	// Transform is the structure's value-domain transform; under a log
	// transform values are combined in log10 space.
	Transform models.Transform
}

// DefaultApplyOptions mirrors the conventional interpolation thresholds:
// clamp to [0, 1e6] and mark uncovered nodes with -999.
func DefaultApplyOptions() ApplyOptions {
	return ApplyOptions{Low: 0, High: 1e6, Empty: -999, Transform: models.TransformNone}
}

// NodeValue is one node of the interpolated parameter field.
type NodeValue struct {
	NodeID int
	Value  float64
}

// Apply converts a new pilot point value vector into a dense nodal
// parameter field using previously computed factors, without repeating
// the spatial computation. values must cover the table's pilot point
// count; indexing is 0-based like the in-memory table.
func Apply(table *models.FactorTable, values []float64, opts ApplyOptions) ([]NodeValue, error) {
	if len(values) < table.PilotPointCount {
		return nil, fmt.Errorf("factors: %d pilot point values supplied, table needs %d",
			len(values), table.PilotPointCount)
	}
	field := make([]NodeValue, len(table.Records))
	for i, rec := range table.Records {
		nv := NodeValue{NodeID: rec.TargetID}
		if len(rec.Contributors) == 0 {
			nv.Value = opts.Empty
		} else {
			v := interpolation.Interpolate(values, rec, opts.Transform)
			if v < opts.Low {
				v = opts.Low
			} else if v > opts.High {
				v = opts.High
			}
			nv.Value = v
		}
		field[i] = nv
	}
	return field, nil
}
