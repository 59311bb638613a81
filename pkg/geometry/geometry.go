// Package geometry provides the 2-D distance primitives used by the weight
// solvers: plain and anisotropy-adjusted Euclidean distance, the pairwise
// degeneracy check that guards the whole pipeline, and kd-tree adapters for
// radius-bounded pilot point searches.
package geometry

import (
	"fmt"
	"math"

	"ppk2fac/internal/models"
)

// Point is a 2-D location in model coordinates.
type Point struct {
	X, Y float64
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// AnisotropicDistance returns the separation of a and b after rotating the
// frame so the major anisotropy axis lies along the given bearing (degrees
// clockwise from north) and stretching the minor axis by 1/ratio. ratio is
// the minor/major range ratio; values <= 0 are treated as isotropic.
func AnisotropicDistance(a, b Point, bearingDeg float64, ratio float64) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	if ratio <= 0 {
		ratio = 1
	}
	// Convert the azimuth to a mathematical angle before rotating.
	theta := (90 - bearingDeg) * math.Pi / 180
	u := dx*math.Cos(theta) + dy*math.Sin(theta)
	v := -dx*math.Sin(theta) + dy*math.Cos(theta)
	v /= ratio
	return math.Sqrt(u*u + v*v)
}

// DegenerateGeometryError reports two pilot points sharing the exact same
// coordinates. Coincident points make both kriging and IDW ill-defined, so
// the check runs once before any weight computation.
type DegenerateGeometryError struct {
	IDA, IDB string
	X, Y     float64
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("degenerate geometry: pilot points %q and %q are coincident at (%g, %g)",
		e.IDA, e.IDB, e.X, e.Y)
}

// MinPairwiseDistance returns the minimum Euclidean distance between any two
// distinct pilot points. The scan is O(n²), acceptable because pilot point
// counts are orders of magnitude smaller than node counts. If two points
// coincide exactly it returns 0 together with a *DegenerateGeometryError.
func MinPairwiseDistance(points []models.PilotPoint) (float64, error) {
	min := math.Inf(1)
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			d := Distance(
				Point{X: points[i].X, Y: points[i].Y},
				Point{X: points[j].X, Y: points[j].Y},
			)
			if d == 0 {
				return 0, &DegenerateGeometryError{
					IDA: points[i].ID,
					IDB: points[j].ID,
					X:   points[i].X,
					Y:   points[i].Y,
				}
			}
			if d < min {
				min = d
			}
		}
	}
	return min, nil
}
