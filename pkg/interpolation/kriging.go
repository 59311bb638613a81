package interpolation

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"ppk2fac/internal/models"
	"ppk2fac/pkg/geometry"
)

// KrigeType selects the kriging variant.
type KrigeType int

const (
	// OrdinaryKriging assumes an unknown constant mean and enforces
	// unit-sum weights through a Lagrange multiplier row.
	OrdinaryKriging KrigeType = iota

	// SimpleKriging assumes a known mean; the system is solved without
	// the unbiasedness constraint and weights need not sum to one. The
	// mean term is applied by the caller, outside this solver.
	SimpleKriging
)

// ParseKrigeType maps the CLI keyword to a KrigeType. Matching is
// case-insensitive.
func ParseKrigeType(s string) (KrigeType, bool) {
	switch strings.ToLower(s) {
	case "ordinary", "o":
		return OrdinaryKriging, true
	case "simple", "s":
		return SimpleKriging, true
	}
	return OrdinaryKriging, false
}

func (t KrigeType) String() string {
	if t == SimpleKriging {
		return "simple"
	}
	return "ordinary"
}

// KrigingSolver computes kriging weights for grid nodes against a fixed
// pilot point set under one zone's covariance model. The solver is
// stateless across calls and safe for concurrent use.
type KrigingSolver struct {
	cov    *CovarianceModel
	ktype  KrigeType
	points []geometry.Point
	zone   int
	rcond  float64
}

// DefaultRcondTolerance is the reciprocal condition number below which a
// kriging matrix is treated as singular.
const DefaultRcondTolerance = 1e-10

// NewKrigingSolver creates a solver for one zone. points holds the
// coordinates of every pilot point of the run; Weights receives subsets
// as index lists. rcondTol <= 0 selects DefaultRcondTolerance.
func NewKrigingSolver(cov *CovarianceModel, ktype KrigeType, points []geometry.Point, zone int, rcondTol float64) *KrigingSolver {
	if rcondTol <= 0 {
		rcondTol = DefaultRcondTolerance
	}
	return &KrigingSolver{cov: cov, ktype: ktype, points: points, zone: zone, rcond: rcondTol}
}

// Weights builds and solves the kriging system for one node over the given
// candidate pilot point indices, returning contributors in ascending
// pilot-point-index order. It fails with *SingularKrigingSystemError when
// the system is singular or conditioned worse than the tolerance.
func (s *KrigingSolver) Weights(node models.GridNode, candidates []int) ([]models.Contributor, error) {
	n := len(candidates)
	target := geometry.Point{X: node.X, Y: node.Y}

	if n == 0 {
		// No candidates means no system to solve; the node simply gets
		// no contributors.
		return nil, nil
	}
	if n == 1 {
		w := 1.0
		if s.ktype == SimpleKriging {
			w = s.cov.Cov(s.points[candidates[0]], target) / s.cov.TotalSill()
		}
		return []models.Contributor{{Index: candidates[0], Weight: w}}, nil
	}

	dim := n
	if s.ktype == OrdinaryKriging {
		dim = n + 1
	}

	a := mat.NewDense(dim, dim, nil)
	b := mat.NewVecDense(dim, nil)
	for i := 0; i < n; i++ {
		pi := s.points[candidates[i]]
		a.Set(i, i, s.cov.TotalSill())
		for j := i + 1; j < n; j++ {
			c := s.cov.Cov(pi, s.points[candidates[j]])
			a.Set(i, j, c)
			a.Set(j, i, c)
		}
		b.SetVec(i, s.cov.Cov(pi, target))
	}
	if s.ktype == OrdinaryKriging {
		for i := 0; i < n; i++ {
			a.Set(i, n, 1)
			a.Set(n, i, 1)
		}
		a.Set(n, n, 0)
		b.SetVec(n, 1)
	}

	var lu mat.LU
	lu.Factorize(a)
	cond := lu.Cond()
	if math.IsInf(cond, 1) || math.IsNaN(cond) || cond > 1/s.rcond {
		return nil, &SingularKrigingSystemError{Zone: s.zone, Node: node.ID, Cond: cond}
	}
	x := mat.NewVecDense(dim, nil)
	if err := lu.SolveVecTo(x, false, b); err != nil {
		return nil, &SingularKrigingSystemError{Zone: s.zone, Node: node.ID, Cond: cond}
	}

	// The Lagrange multiplier in the last slot of the ordinary system is
	// discarded; only the n pilot point weights survive.
	contribs := make([]models.Contributor, n)
	for i := 0; i < n; i++ {
		contribs[i] = models.Contributor{Index: candidates[i], Weight: x.AtVec(i)}
	}
	sort.Slice(contribs, func(i, j int) bool { return contribs[i].Index < contribs[j].Index })
	return contribs, nil
}

// Interpolate combines pilot point values with a node's weight record,
// honoring the structure's value-domain transform: under a log transform
// the weights combine log10 values and the result is back-transformed.
// A record with no contributors yields NaN.
func Interpolate(values []float64, rec models.WeightRecord, transform models.Transform) float64 {
	if len(rec.Contributors) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, c := range rec.Contributors {
		v := values[c.Index]
		if transform == models.TransformLog {
			v = math.Log10(v)
		}
		sum += c.Weight * v
	}
	if transform == models.TransformLog {
		return math.Pow(10, sum)
	}
	return sum
}
