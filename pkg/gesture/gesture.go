// Package gesture holds the touch trace buffer filled while a finger glides
// over the keyboard, and the path geometry used to compare two traces.
package gesture

import (
	"encoding/binary"
	"math"
	"strings"
)

// MaxPoints caps the number of samples a single trace can hold.
const MaxPoints = 500

// Point is a 2D coordinate in keyboard space.
type Point struct {
	X float64
	Y float64
}

// DistanceTo returns the Euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Point) sqDistanceTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Gesture is the buffer for one continuous trace.
// It is appended to synchronously from the input goroutine and must be
// cloned before being handed to another goroutine.
type Gesture struct {
	points    []Point
	threshold float64
}

// New creates an empty gesture with its full storage allocated up front.
func New() *Gesture {
	return &Gesture{points: make([]Point, 0, MaxPoints)}
}

// FromPoints builds a gesture from raw samples without deduplication.
// Samples beyond MaxPoints are dropped.
func FromPoints(points []Point) *Gesture {
	g := New()
	for _, p := range points {
		if len(g.points) >= MaxPoints {
			break
		}
		g.points = append(g.points, p)
	}
	return g
}

// SetDistanceThreshold sets the squared distance a new sample must exceed
// from the previous one to be kept. Layouts provide (keyWidth/4)².
func (g *Gesture) SetDistanceThreshold(sq float64) {
	g.threshold = sq
}

// DistanceThreshold returns the current squared distance threshold.
func (g *Gesture) DistanceThreshold() float64 {
	return g.threshold
}

// AddPoint appends a sample unless it is too close to the last one or the
// buffer is full. It reports whether the point was kept.
func (g *Gesture) AddPoint(x, y float64) bool {
	if len(g.points) >= MaxPoints {
		return false
	}
	p := Point{X: x, Y: y}
	if n := len(g.points); n > 0 && g.points[n-1].sqDistanceTo(p) <= g.threshold {
		return false
	}
	if g.points == nil {
		g.points = make([]Point, 0, MaxPoints)
	}
	g.points = append(g.points, p)
	return true
}

// Clear empties the buffer, keeping its storage.
func (g *Gesture) Clear() {
	g.points = g.points[:0]
}

// Len returns the number of samples.
func (g *Gesture) Len() int {
	return len(g.points)
}

// First returns the first sample, if any.
func (g *Gesture) First() (Point, bool) {
	if len(g.points) == 0 {
		return Point{}, false
	}
	return g.points[0], true
}

// Last returns the most recent sample, if any.
func (g *Gesture) Last() (Point, bool) {
	if len(g.points) == 0 {
		return Point{}, false
	}
	return g.points[len(g.points)-1], true
}

// Length is the sum of distances between consecutive samples.
func (g *Gesture) Length() float64 {
	return Path(g.points).Length()
}

// Path returns a copy of the samples as a Path.
func (g *Gesture) Path() Path {
	out := make(Path, len(g.points))
	copy(out, g.points)
	return out
}

// Clone returns a frozen copy that does not share storage with g.
func (g *Gesture) Clone() *Gesture {
	c := &Gesture{
		points:    make([]Point, len(g.points), MaxPoints),
		threshold: g.threshold,
	}
	copy(c.points, g.points)
	return c
}

// Key encodes the samples into a string usable as a map or cache key.
// Gestures with bit-identical samples share a key.
func (g *Gesture) Key() string {
	var b strings.Builder
	b.Grow(len(g.points) * 16)
	var buf [16]byte
	for _, p := range g.points {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p.Y))
		b.Write(buf[:])
	}
	return b.String()
}
