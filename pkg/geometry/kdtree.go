package geometry

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"ppk2fac/internal/models"
)

// IndexedPoint is a Point that carries its position in the source pilot
// point slice through the kd-tree, so search results map straight back to
// pilot point indices.
type IndexedPoint struct {
	Point
	Index int
}

// Compare implements the kdtree.Comparable interface.
func (p IndexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(IndexedPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the kd-tree.
func (p IndexedPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two points.
// Squared distances keep heap comparisons cheap; callers bound searches
// with squared radii.
func (p IndexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(IndexedPoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// IndexedPoints is a collection of IndexedPoint satisfying kdtree.Interface.
type IndexedPoints []IndexedPoint

func (p IndexedPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p IndexedPoints) Len() int                              { return len(p) }
func (p IndexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method.
func (p IndexedPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{IndexedPoints: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{IndexedPoints: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for IndexedPoints.
type pointPlane struct {
	IndexedPoints
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.IndexedPoints[i].X < p.IndexedPoints[j].X
	case 1:
		return p.IndexedPoints[i].Y < p.IndexedPoints[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{IndexedPoints: p.IndexedPoints[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.IndexedPoints[i], p.IndexedPoints[j] = p.IndexedPoints[j], p.IndexedPoints[i]
}

// NewTree builds a kd-tree over the pilot point coordinates. The tree is
// read-only after construction and safe for concurrent searches with
// per-caller keepers.
func NewTree(points []models.PilotPoint) *kdtree.Tree {
	pts := make(IndexedPoints, len(points))
	for i, pp := range points {
		pts[i] = IndexedPoint{Point: Point{X: pp.X, Y: pp.Y}, Index: i}
	}
	return kdtree.New(pts, true)
}
