package geometry

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/kdtree"

	"ppk2fac/internal/models"
)

// TestMinPairwiseDistance verifies the minimum distance over a small
// well-separated point set.
func TestMinPairwiseDistance(t *testing.T) {
	points := []models.PilotPoint{
		{ID: "pp1", X: 0, Y: 0},
		{ID: "pp2", X: 3, Y: 4},
		{ID: "pp3", X: 10, Y: 0},
	}

	min, err := MinPairwiseDistance(points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if min <= 0 {
		t.Errorf("expected positive minimum distance, got %g", min)
	}
	// pp1-pp2 are 5 apart, pp2-pp3 sqrt(65), pp1-pp3 10.
	if math.Abs(min-5) > 1e-12 {
		t.Errorf("expected minimum distance 5, got %g", min)
	}
}

// TestMinPairwiseDistanceCoincident verifies that coincident pilot points
// are reported as degenerate geometry.
func TestMinPairwiseDistanceCoincident(t *testing.T) {
	points := []models.PilotPoint{
		{ID: "pp1", X: 3.0, Y: 4.0},
		{ID: "pp2", X: 3.0, Y: 4.0},
	}

	min, err := MinPairwiseDistance(points)
	if min != 0 {
		t.Errorf("expected minimum distance 0, got %g", min)
	}
	var degenerate *DegenerateGeometryError
	if !errors.As(err, &degenerate) {
		t.Fatalf("expected DegenerateGeometryError, got %v", err)
	}
	if degenerate.IDA != "pp1" || degenerate.IDB != "pp2" {
		t.Errorf("error names wrong points: %v", err)
	}
	if degenerate.X != 3.0 || degenerate.Y != 4.0 {
		t.Errorf("error reports wrong location: %v", err)
	}
}

// TestMinPairwiseDistanceSinglePoint verifies that a single point yields
// no pair and no error.
func TestMinPairwiseDistanceSinglePoint(t *testing.T) {
	points := []models.PilotPoint{{ID: "pp1", X: 1, Y: 2}}

	min, err := MinPairwiseDistance(points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(min, 1) {
		t.Errorf("expected +Inf for a single point, got %g", min)
	}
}

// TestAnisotropicDistanceIsotropic verifies that a unit ratio reduces to
// plain Euclidean distance for any bearing.
func TestAnisotropicDistanceIsotropic(t *testing.T) {
	a := Point{X: 1, Y: 2}
	b := Point{X: 4, Y: 6}

	for _, bearing := range []float64{0, 30, 45, 90, 135, 270} {
		got := AnisotropicDistance(a, b, bearing, 1.0)
		want := Distance(a, b)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("bearing %g: expected %g, got %g", bearing, want, got)
		}
	}
}

// TestAnisotropicDistanceStretch verifies that separations along the minor
// axis are stretched by the inverse ratio. With bearing 0 the major axis
// points north, so an east-west separation is minor-axis.
func TestAnisotropicDistanceStretch(t *testing.T) {
	origin := Point{}

	east := AnisotropicDistance(origin, Point{X: 1, Y: 0}, 0, 0.5)
	if math.Abs(east-2) > 1e-9 {
		t.Errorf("expected east separation stretched to 2, got %g", east)
	}

	north := AnisotropicDistance(origin, Point{X: 0, Y: 1}, 0, 0.5)
	if math.Abs(north-1) > 1e-9 {
		t.Errorf("expected north separation unchanged at 1, got %g", north)
	}
}

// TestAnisotropicDistanceZeroRatio verifies that non-positive ratios fall
// back to isotropic distance instead of dividing by zero.
func TestAnisotropicDistanceZeroRatio(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: 4}

	got := AnisotropicDistance(a, b, 45, 0)
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("expected 5, got %g", got)
	}
}

// TestNewTreeRadiusSearch verifies that the kd-tree finds exactly the
// pilot points within a squared-distance bound and maps them back to
// their slice indices.
func TestNewTreeRadiusSearch(t *testing.T) {
	points := []models.PilotPoint{
		{ID: "pp1", X: 0, Y: 0},
		{ID: "pp2", X: 1, Y: 0},
		{ID: "pp3", X: 0, Y: 2},
		{ID: "pp4", X: 50, Y: 50},
	}
	tree := NewTree(points)

	keeper := kdtree.NewDistKeeper(2.5 * 2.5)
	tree.NearestSet(keeper, IndexedPoint{Point: Point{X: 0, Y: 0}})

	found := make(map[int]bool)
	for _, item := range keeper.Heap {
		if item.Comparable == nil {
			continue
		}
		found[item.Comparable.(IndexedPoint).Index] = true
	}

	for _, idx := range []int{0, 1, 2} {
		if !found[idx] {
			t.Errorf("expected point %d within radius", idx)
		}
	}
	if found[3] {
		t.Error("point 3 is far outside the radius but was returned")
	}
}
