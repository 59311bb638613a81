package interpolation

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"ppk2fac/internal/models"
	"ppk2fac/pkg/geometry"
)

// IDWSolver computes inverse-distance-squared weights: for each target the
// nPoints closest pilot points are selected and weighted by 1/d², then
// normalized to sum to one. Ties in distance are broken by original pilot
// point order, first occurrence winning.
type IDWSolver struct {
	points  []geometry.Point
	nPoints int
}

// NewIDWSolver creates a solver over the full pilot point set. nPoints is
// clamped to the number of pilot points; it must be positive.
func NewIDWSolver(points []geometry.Point, nPoints int) (*IDWSolver, error) {
	if nPoints < 1 {
		return nil, fmt.Errorf("idw: nPoints must be positive, got %d", nPoints)
	}
	if nPoints > len(points) {
		nPoints = len(points)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("idw: no pilot points")
	}
	return &IDWSolver{points: points, nPoints: nPoints}, nil
}

// Weights returns the nPoints contributors for one target, in ascending
// pilot-point-index order, with weights summing to one. A target that
// coincides exactly with a pilot point receives that point with weight 1
// and all other selected points with weight 0.
func (s *IDWSolver) Weights(target geometry.Point) []models.Contributor {
	type cand struct {
		index int
		dist  float64
	}
	cands := make([]cand, len(s.points))
	for i, p := range s.points {
		cands[i] = cand{index: i, dist: geometry.Distance(p, target)}
	}
	// Stable sort keeps original order for equal distances.
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	selected := cands[:s.nPoints]

	weights := make([]float64, len(selected))
	exact := -1
	for i, c := range selected {
		if c.dist == 0 {
			exact = i
			break
		}
		weights[i] = 1 / (c.dist * c.dist)
	}
	if exact >= 0 {
		for i := range weights {
			weights[i] = 0
		}
		weights[exact] = 1
	} else {
		total := floats.Sum(weights)
		floats.Scale(1/total, weights)
	}

	contribs := make([]models.Contributor, len(selected))
	for i, c := range selected {
		contribs[i] = models.Contributor{Index: c.index, Weight: weights[i]}
	}
	sort.Slice(contribs, func(i, j int) bool { return contribs[i].Index < contribs[j].Index })
	return contribs
}

// NPoints returns the number of pilot points selected per target.
func (s *IDWSolver) NPoints() int { return s.nPoints }
