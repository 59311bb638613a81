// Package models defines the typed records shared by the factor engine:
// pilot points, grid nodes, variogram structures and the sparse weight
// table produced by an interpolation run. All records are immutable once
// constructed; they are built by the parsers in pkg/ppfile and consumed
// by the solvers and the factor-table writer.
package models

import "strings"

// PilotPoint is a sparse, irregularly placed calibration point carrying
// a parameter value. Identity is the ID string; (X, Y) must be unique
// across all pilot points in one interpolation run.
type PilotPoint struct {
	// ID is the pilot point name as it appears in the pilot points file.
	ID string

	// X and Y are the point coordinates in model units (e.g. UTM meters).
	X, Y float64

	// Zone is the parameter zone the pilot point belongs to.
	Zone int

	// Value is the parameter value carried by the point (hydraulic
	// conductivity, storage coefficient, ...). The factor computation
	// itself never reads it; it is used when factors are later applied.
	Value float64
}

// GridNode is a single node of the target finite-element mesh.
type GridNode struct {
	// ID is the node number from the mesh node file.
	ID int

	// X and Y are the node coordinates in the same units as the pilot points.
	X, Y float64
}

// ZoneMap assigns every grid node to a parameter zone.
type ZoneMap map[int]int

// Transform enumerates the value-domain transforms a structure may declare.
// The transform does not change the interpolation weights; it only changes
// how contributing values are combined when factors are applied.
type Transform int

const (
	// TransformNone combines values in the native parameter domain.
	TransformNone Transform = iota

	// TransformLog combines values in log10 space and back-transforms
	// the result, the usual choice for hydraulic conductivity fields.
	TransformLog
)

// ParseTransform maps the structure-file keyword to a Transform.
// Matching is case-insensitive.
func ParseTransform(s string) (Transform, bool) {
	switch strings.ToLower(s) {
	case "none":
		return TransformNone, true
	case "log":
		return TransformLog, true
	}
	return TransformNone, false
}

func (t Transform) String() string {
	if t == TransformLog {
		return "log"
	}
	return "none"
}

// VariogramModel describes the spatial correlation decay of one nested
// variogram component.
type VariogramModel struct {
	// Name is the block name from the structure file.
	Name string

	// VarType selects the shape function using the GSLIB convention:
	// 1 = spherical, 2 = exponential, 3 = gaussian, 4 = power.
	VarType int

	// Bearing is the azimuth of the major anisotropy axis in whole
	// degrees clockwise from north.
	Bearing int

	// RangeA is the variogram range parameter "a".
	RangeA float64

	// Anisotropy is the minor/major range ratio. 1 means isotropic.
	Anisotropy float64
}

// VariogramRef ties a nested variogram into a structure, with the sill
// contribution it adds to the total modeled variance.
type VariogramRef struct {
	Name         string
	Contribution float64
}

// Structure is a named geostatistical structure: a nugget plus an ordered
// sequence of nested variogram components whose contributions sum.
type Structure struct {
	// Name is the block name from the structure file.
	Name string

	// Nugget is the variogram discontinuity at zero distance.
	Nugget float64

	// Transform is the value-domain transform declared for the structure.
	Transform Transform

	// MaxPowerVariance caps the power-model (VarType 4) variance.
	MaxPowerVariance float64

	// Variograms lists the nested components in file order.
	Variograms []VariogramRef
}

// Contributor is one (pilot point, weight) pair of a weight record.
// Index is a 0-based position into the pilot point slice of the run.
type Contributor struct {
	Index  int
	Weight float64
}

// WeightRecord holds the interpolation weights for a single grid node.
// Contributors are kept in ascending pilot-point-index order so that the
// persisted factor table is byte-identical across runs. A node that could
// not be solved is recorded with an empty contributor list.
type WeightRecord struct {
	TargetID     int
	Contributors []Contributor
}

// FactorTable is the sparse node-to-pilot-point weight table produced by
// one interpolation run, together with the header metadata persisted to
// the factors file.
type FactorTable struct {
	// PilotPointFile is the name of the pilot points source file.
	PilotPointFile string

	// PilotPointCount is the number of pilot points the indices refer to.
	PilotPointCount int

	// Records holds one weight record per grid node, in mesh-file order.
	Records []WeightRecord
}
