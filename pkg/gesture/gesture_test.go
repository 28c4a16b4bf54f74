package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPointThreshold(t *testing.T) {
	g := New()
	g.SetDistanceThreshold(4)

	assert.True(t, g.AddPoint(0, 0))
	assert.False(t, g.AddPoint(1, 1), "within threshold")
	assert.False(t, g.AddPoint(2, 0), "exactly on threshold")
	assert.True(t, g.AddPoint(3, 0))
	assert.Equal(t, 2, g.Len())

	first, ok := g.First()
	require.True(t, ok)
	assert.Equal(t, Point{0, 0}, first)
	last, ok := g.Last()
	require.True(t, ok)
	assert.Equal(t, Point{3, 0}, last)
	assert.InDelta(t, 3.0, g.Length(), 1e-9)
}

func TestAddPointCapacity(t *testing.T) {
	g := New()
	for i := 0; i < MaxPoints+20; i++ {
		g.AddPoint(float64(i), 0)
	}
	assert.Equal(t, MaxPoints, g.Len())
	assert.False(t, g.AddPoint(-1, -1))
}

func TestClearKeepsStorage(t *testing.T) {
	g := New()
	g.AddPoint(0, 0)
	g.AddPoint(10, 10)
	before := cap(g.points)
	g.Clear()
	assert.Zero(t, g.Len())
	assert.Equal(t, before, cap(g.points))
	_, ok := g.First()
	assert.False(t, ok)
	assert.Zero(t, g.Length())
}

func TestCloneIsFrozen(t *testing.T) {
	g := FromPoints([]Point{{0, 0}, {5, 5}})
	c := g.Clone()
	key := c.Key()

	g.AddPoint(20, 20)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, key, c.Key())
	assert.NotEqual(t, g.Path(), c.Path())

	g.Clear()
	g.AddPoint(0, 0)
	g.AddPoint(5, 5)
	assert.Equal(t, c.Path(), g.Path())
	assert.Equal(t, key, g.Key())
}

func TestResampleCardinality(t *testing.T) {
	paths := []Path{
		{{0, 0}, {10, 0}},
		{{0, 0}, {3, 4}, {3, 40}, {100, 2}},
		{{1, 1}, {1.5, 1}, {1.6, 1}, {30, 30}, {30, 31}},
	}
	for _, p := range paths {
		for _, n := range []int{1, 2, 3, 7, 50, 100, 200, 333} {
			out := p.Resample(n)
			require.Len(t, out, n)
			assert.Equal(t, p[0], out[0])
			if n > 1 {
				assert.InDelta(t, p[len(p)-1].X, out[n-1].X, 1e-6)
				assert.InDelta(t, p[len(p)-1].Y, out[n-1].Y, 1e-6)
			}
		}
	}
}

func TestResampleIsEvenlySpaced(t *testing.T) {
	p := Path{{0, 0}, {10, 0}, {10, 10}}
	out := p.Resample(5)
	require.Len(t, out, 5)
	for i := 1; i < len(out); i++ {
		assert.InDelta(t, 5.0, out[i-1].DistanceTo(out[i]), 1e-9)
	}
}

func TestResampleDegenerate(t *testing.T) {
	assert.Nil(t, Path{}.Resample(10))
	assert.Nil(t, Path{{1, 1}}.Resample(0))

	single := Path{{4, 2}}.Resample(6)
	require.Len(t, single, 6)
	for _, pt := range single {
		assert.Equal(t, Point{4, 2}, pt)
	}

	still := Path{{4, 2}, {4, 2}}.Resample(3)
	assert.Equal(t, Path{{4, 2}, {4, 2}, {4, 2}}, still)
}

func TestNormalizeScaleInvariance(t *testing.T) {
	base := Path{{0, 0}, {30, 10}, {60, 45}, {20, 80}}
	moved := make(Path, len(base))
	for i, p := range base {
		moved[i] = Point{X: p.X*3.5 + 400, Y: p.Y*3.5 - 120}
	}

	a := base.Resample(100).Normalize()
	b := moved.Resample(100).Normalize()
	assert.InDelta(t, 0.0, ShapeDistance(a, b), 1e-6)
	assert.Greater(t, LocationDistance(base.Resample(100), moved.Resample(100)), 100.0)
}

func TestNormalizeBounds(t *testing.T) {
	n := Path{{10, 10}, {30, 20}}.Normalize()
	assert.InDelta(t, -0.5, n[0].X, 1e-9)
	assert.InDelta(t, 0.5, n[1].X, 1e-9)
	assert.InDelta(t, -0.25, n[0].Y, 1e-9)

	flat := Path{{3, 3}, {3, 3}}.Normalize()
	for _, p := range flat {
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y))
	}
}

func TestShapeDistanceWithin(t *testing.T) {
	a := Path{{0, 0}, {0, 0}, {0, 0}}
	b := Path{{1, 0}, {1, 0}, {1, 0}}
	d, ok := ShapeDistanceWithin(a, b, 10)
	assert.True(t, ok)
	assert.InDelta(t, 3.0, d, 1e-9)

	_, ok = ShapeDistanceWithin(a, b, 1.5)
	assert.False(t, ok)
}

func TestLocationDistanceIsManhattanMean(t *testing.T) {
	a := Path{{0, 0}, {0, 0}}
	b := Path{{3, 4}, {1, 0}}
	assert.InDelta(t, 4.0, LocationDistance(a, b), 1e-9)
	assert.Zero(t, LocationDistance(nil, b))
}

func BenchmarkResample(b *testing.B) {
	p := make(Path, 0, 300)
	for i := 0; i < 300; i++ {
		p = append(p, Point{X: float64(i), Y: math.Sin(float64(i) / 10)})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Resample(200)
	}
}
