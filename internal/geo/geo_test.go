package geo

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name        string
		latA, lngA  float64
		latB, lngB  float64
		expectedKM  float64
		toleranceKM float64
	}{
		{"same point", 40, -75, 40, -75, 0, 0},
		{"nearby accident and event", 40.00, -75.00, 40.05, -75.05, 7.0, 0.05},
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.01},
		{"pennsylvania to denmark", 40.00, -75.00, 55.0, 10.0, 6185, 10},
		{"antipodal", 0, 0, 0, 180, 20015.09, 0.01},
		{"pole to pole", 90, 0, -90, 0, 20015.09, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Distance(tt.latA, tt.lngA, tt.latB, tt.lngB)
			assert.InDelta(t, tt.expectedKM, d, tt.toleranceKM)
			assert.GreaterOrEqual(t, d, 0.0)
		})
	}
}

func TestDistance_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		latA, lngA := rng.Float64()*180-90, rng.Float64()*360-180
		latB, lngB := rng.Float64()*180-90, rng.Float64()*360-180

		assert.Equal(t, 0.0, Distance(latA, lngA, latA, lngA))
		ab := Distance(latA, lngA, latB, lngB)
		ba := Distance(latB, lngB, latA, lngA)
		assert.InDelta(t, ab, ba, 1e-9)
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 20015.1)
	}
}

func TestNewIndex_Strategy(t *testing.T) {
	points := randomPoints(rand.New(rand.NewPCG(3, 4)), 10)

	idx, err := NewIndex(points, 64)
	require.NoError(t, err)
	assert.Equal(t, StrategyLinear, idx.Strategy())
	assert.Equal(t, 10, idx.Len())

	idx, err = NewIndex(points, 5)
	require.NoError(t, err)
	assert.Equal(t, StrategyTree, idx.Strategy())
	assert.Equal(t, 10, idx.Len())

	idx, err = NewIndex(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, StrategyLinear, idx.Strategy())
	assert.Empty(t, idx.Query(40, -75, 20000))
}

func TestIndex_QueryRadius(t *testing.T) {
	points := []Point{
		{Lat: 40.05, Lng: -75.05}, // ~7 km
		{Lat: 55.0, Lng: 10.0},    // ~6185 km
		{Lat: 40.00, Lng: -75.00}, // 0 km
		{Lat: 41.0, Lng: -75.0},   // ~111 km
	}
	for _, threshold := range []int{0, 100} {
		idx, err := NewIndex(points, threshold)
		require.NoError(t, err)
		t.Run(idx.Strategy(), func(t *testing.T) {
			got := idx.Query(40.0, -75.0, 500)
			require.Len(t, got, 3)
			assert.Equal(t, []int{2, 0, 3}, indices(got), "ordered by distance")
			assert.Equal(t, 0.0, got[0].DistanceKM)

			assert.Empty(t, idx.Query(-40, 100, 10))
			assert.Len(t, idx.Query(40.0, -75.0, 21000), 4)
		})
	}
}

func TestIndex_TiesOrderedByIndex(t *testing.T) {
	points := []Point{{Lat: 1, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 1}}
	for _, threshold := range []int{0, 100} {
		idx, err := NewIndex(points, threshold)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, indices(idx.Query(1, 1, 1)), idx.Strategy())
	}
}

// The tree must return exactly what the linear scan returns.
func TestTreeIndex_MatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	points := randomPoints(rng, 2000)

	linear := NewLinearIndex(points)
	tree, err := NewTreeIndex(points)
	require.NoError(t, err)

	for i := range 200 {
		lat, lng := rng.Float64()*180-90, rng.Float64()*360-180
		radius := []float64{50, 500, 1000, 5000}[i%4]

		want := linear.Query(lat, lng, radius)
		got := tree.Query(lat, lng, radius)
		require.Equal(t, indices(want), indices(got), "query %d at (%f,%f) r=%f", i, lat, lng, radius)
		for _, c := range got {
			assert.LessOrEqual(t, c.DistanceKM, radius)
		}
	}
}

func randomPoints(rng *rand.Rand, n int) []Point {
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
	}
	return points
}

func indices(c []Candidate) []int {
	out := make([]int, len(c))
	for i := range c {
		out[i] = c[i].Index
	}
	return out
}
