package geo

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/vptree"
)

// Index strategy names, reported in logs and metrics.
const (
	StrategyLinear = "linear"
	StrategyTree   = "vptree"
)

// vantageEffort is the number of candidate vantage points examined per node.
const vantageEffort = 5

// Point is a coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Candidate is a point within the queried radius. Index is the point's
// position in the slice the index was built from.
type Candidate struct {
	Index      int
	DistanceKM float64
}

// Index answers radius queries over an immutable point set. Implementations
// are safe for concurrent use once built. Query results are ordered by
// distance, ties by Index.
type Index interface {
	Query(lat, lng, radiusKM float64) []Candidate
	Len() int
	Strategy() string
}

// NewIndex builds the index for points, using a linear scan when there are
// fewer than linearThreshold points and a vantage-point tree otherwise.
func NewIndex(points []Point, linearThreshold int) (Index, error) {
	if len(points) == 0 || len(points) < linearThreshold {
		return NewLinearIndex(points), nil
	}
	return NewTreeIndex(points)
}

// LinearIndex checks every point on each query.
type LinearIndex struct {
	points []Point
}

// NewLinearIndex copies points into a linear-scan index.
func NewLinearIndex(points []Point) *LinearIndex {
	return &LinearIndex{points: append([]Point(nil), points...)}
}

func (l *LinearIndex) Query(lat, lng, radiusKM float64) []Candidate {
	var out []Candidate
	for i, p := range l.points {
		if d := Distance(lat, lng, p.Lat, p.Lng); d <= radiusKM {
			out = append(out, Candidate{Index: i, DistanceKM: d})
		}
	}
	sortCandidates(out)
	return out
}

func (l *LinearIndex) Len() int { return len(l.points) }

func (l *LinearIndex) Strategy() string { return StrategyLinear }

// TreeIndex is a vantage-point tree under the haversine metric.
type TreeIndex struct {
	tree  *vptree.Tree
	count int
}

// NewTreeIndex builds a vantage-point tree over points.
func NewTreeIndex(points []Point) (*TreeIndex, error) {
	comparables := make([]vptree.Comparable, len(points))
	for i, p := range points {
		comparables[i] = treePoint{index: i, lat: p.Lat, lng: p.Lng}
	}
	tree, err := vptree.New(comparables, vantageEffort, nil)
	if err != nil {
		return nil, fmt.Errorf("build vp-tree: %w", err)
	}
	return &TreeIndex{tree: tree, count: len(points)}, nil
}

func (t *TreeIndex) Query(lat, lng, radiusKM float64) []Candidate {
	if t.count == 0 {
		return nil
	}
	keeper := vptree.NewDistKeeper(radiusKM)
	t.tree.NearestSet(keeper, treePoint{index: -1, lat: lat, lng: lng})

	out := make([]Candidate, 0, len(keeper.Heap))
	for _, cd := range keeper.Heap {
		p, ok := cd.Comparable.(treePoint)
		if !ok || cd.Dist > radiusKM {
			continue
		}
		out = append(out, Candidate{Index: p.index, DistanceKM: cd.Dist})
	}
	sortCandidates(out)
	return out
}

func (t *TreeIndex) Len() int { return t.count }

func (t *TreeIndex) Strategy() string { return StrategyTree }

// treePoint adapts a Point to vptree.Comparable.
type treePoint struct {
	index    int
	lat, lng float64
}

func (p treePoint) Distance(c vptree.Comparable) float64 {
	q := c.(treePoint)
	return Distance(p.lat, p.lng, q.lat, q.lng)
}

func sortCandidates(c []Candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].DistanceKM != c[j].DistanceKM {
			return c[i].DistanceKM < c[j].DistanceKM
		}
		return c[i].Index < c[j].Index
	})
}
