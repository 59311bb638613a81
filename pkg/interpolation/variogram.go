// Package interpolation holds the weight solvers of the factor engine:
// the variogram-based kriging solver and the inverse-distance-squared
// solver. Both produce the same (pilot point index, weight) contributor
// shape so downstream code is agnostic to which solver ran.
package interpolation

import (
	"fmt"
	"math"

	"ppk2fac/internal/models"
	"ppk2fac/pkg/geometry"
)

// Variogram shape codes, GSLIB convention.
const (
	VarTypeSpherical   = 1
	VarTypeExponential = 2
	VarTypeGaussian    = 3
	VarTypePower       = 4
)

// covComponent is one nested variogram resolved against its definition,
// with the sill contribution it adds to the structure.
type covComponent struct {
	model *models.VariogramModel
	sill  float64
}

// CovarianceModel evaluates the covariance function C(h) of a structure:
// the sum over its nested variogram components of sill_i · (1 − γ_i(h_i)),
// where h_i is the component's anisotropy-adjusted, bearing-rotated
// separation, plus the nugget as a discontinuity at h = 0.
type CovarianceModel struct {
	structure  *models.Structure
	components []covComponent
}

// NewCovarianceModel resolves a structure's variogram references against
// the variogram definitions parsed from the same file. It fails if a
// reference is unresolved, a range is non-positive, or a vartype is
// unknown, naming the offending component.
func NewCovarianceModel(s *models.Structure, variograms map[string]*models.VariogramModel) (*CovarianceModel, error) {
	if len(s.Variograms) == 0 {
		return nil, fmt.Errorf("structure %q has no variogram components", s.Name)
	}
	c := &CovarianceModel{structure: s}
	for _, ref := range s.Variograms {
		v, ok := variograms[ref.Name]
		if !ok {
			return nil, fmt.Errorf("structure %q references undefined variogram %q", s.Name, ref.Name)
		}
		switch v.VarType {
		case VarTypeSpherical, VarTypeExponential, VarTypeGaussian, VarTypePower:
		default:
			return nil, fmt.Errorf("variogram %q has unknown vartype %d", v.Name, v.VarType)
		}
		if v.RangeA <= 0 {
			return nil, fmt.Errorf("variogram %q has non-positive range %g", v.Name, v.RangeA)
		}
		c.components = append(c.components, covComponent{model: v, sill: ref.Contribution})
	}
	return c, nil
}

// Structure returns the structure this model was built from.
func (c *CovarianceModel) Structure() *models.Structure { return c.structure }

// TotalSill returns the modeled variance at zero separation: the nugget
// plus the contributions of all nested components.
func (c *CovarianceModel) TotalSill() float64 {
	sill := c.structure.Nugget
	for _, comp := range c.components {
		sill += comp.sill
	}
	return sill
}

// Cov returns the covariance between two locations. Exactly coincident
// locations receive the full sill including the nugget.
func (c *CovarianceModel) Cov(a, b geometry.Point) float64 {
	if a == b {
		return c.TotalSill()
	}
	cov := 0.0
	for _, comp := range c.components {
		h := geometry.AnisotropicDistance(a, b, float64(comp.model.Bearing), comp.model.Anisotropy)
		cov += comp.sill * (1 - c.gammaUnit(comp.model, h))
	}
	return cov
}

// gammaUnit evaluates the unit-sill semivariance of a single component at
// lag h. The power model is normalized by the structure's max power
// variance so it stays bounded like the transition models.
func (c *CovarianceModel) gammaUnit(v *models.VariogramModel, h float64) float64 {
	switch v.VarType {
	case VarTypeSpherical:
		if h >= v.RangeA {
			return 1
		}
		r := h / v.RangeA
		return 1.5*r - 0.5*r*r*r
	case VarTypeExponential:
		return 1 - math.Exp(-3*h/v.RangeA)
	case VarTypeGaussian:
		return 1 - math.Exp(-3*h*h/(v.RangeA*v.RangeA))
	case VarTypePower:
		maxVar := c.structure.MaxPowerVariance
		if maxVar <= 0 {
			maxVar = 1
		}
		g := math.Pow(h/v.RangeA, 1.5) / maxVar
		if g > 1 {
			return 1
		}
		return g
	}
	return 1
}
