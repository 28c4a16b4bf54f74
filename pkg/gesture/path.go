package gesture

import "math"

// Path is an immutable sequence of points used for scoring.
type Path []Point

// Length is the sum of distances between consecutive points.
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += p[i-1].DistanceTo(p[i])
	}
	return total
}

// Resample walks the polyline and returns exactly n evenly spaced points.
// The distance still owed to the next sample is carried across segments so
// long traces are not undersampled. A path of one point, or with zero
// length, yields n copies of its first point; an empty path yields nil.
func (p Path) Resample(n int) Path {
	if n < 1 || len(p) == 0 {
		return nil
	}
	out := make(Path, 0, n)
	total := p.Length()
	if n == 1 || total == 0 {
		for len(out) < n {
			out = append(out, p[0])
		}
		return out
	}

	interval := total / float64(n-1)
	out = append(out, p[0])
	need := interval
	prev := p[0]
	for i := 1; i < len(p) && len(out) < n-1; i++ {
		cur := p[i]
		seg := prev.DistanceTo(cur)
		for seg >= need && len(out) < n-1 {
			t := need / seg
			prev = Point{
				X: prev.X + t*(cur.X-prev.X),
				Y: prev.Y + t*(cur.Y-prev.Y),
			}
			out = append(out, prev)
			seg -= need
			need = interval
		}
		need -= seg
		prev = cur
	}
	last := p[len(p)-1]
	for len(out) < n {
		out = append(out, last)
	}
	return out
}

// Normalize translates the bounding box center to the origin and scales by
// the longer bounding box side, making the shape position and scale free.
func (p Path) Normalize() Path {
	if len(p) == 0 {
		return nil
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range p {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	side := math.Max(math.Max(maxX-minX, maxY-minY), 1e-5)
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2

	out := make(Path, len(p))
	for i, pt := range p {
		out[i] = Point{X: (pt.X - cx) / side, Y: (pt.Y - cy) / side}
	}
	return out
}

// ShapeDistance sums the Euclidean distance between paired points of two
// normalized paths of equal length.
func ShapeDistance(a, b Path) float64 {
	d, _ := ShapeDistanceWithin(a, b, math.Inf(1))
	return d
}

// ShapeDistanceWithin is ShapeDistance that stops as soon as the running sum
// exceeds limit. The second result is false when it stopped early.
func ShapeDistanceWithin(a, b Path, limit float64) (float64, bool) {
	n := min(len(a), len(b))
	total := 0.0
	for i := 0; i < n; i++ {
		total += a[i].DistanceTo(b[i])
		if total > limit {
			return total, false
		}
	}
	return total, true
}

// LocationDistance is the mean Manhattan distance between paired points of
// two un-normalized paths, so absolute position on the keyboard counts.
func LocationDistance(a, b Path) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		total += math.Abs(a[i].X-b[i].X) + math.Abs(a[i].Y-b[i].Y)
	}
	return total / float64(n)
}
