package glide

import (
	"math"

	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/gesture"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultShapeSigma is the standard deviation of the shape distance.
	DefaultShapeSigma = 22.08
	// DefaultLocationSigmaFactor scales the key radius into the standard
	// deviation of the location distance.
	DefaultLocationSigmaFactor = 0.5109
	// DefaultMaxCost drops hopeless candidates.
	DefaultMaxCost = 1e12
)

// Result is a recognized word. Lower cost is better.
type Result struct {
	Word string
	Cost float64
}

// Scorer compares a user trace with word templates.
type Scorer struct {
	shape    distuv.Normal
	location distuv.Normal
	maxCost  float64
	// shapeNorm is the Gaussian density at zero, 1/(σ√2π).
	shapeNorm float64
}

// NewScorer builds a scorer. keyRadius scales the location deviation.
func NewScorer(shapeSigma, locationSigmaFactor, keyRadius, maxCost float64) *Scorer {
	if shapeSigma <= 0 {
		shapeSigma = DefaultShapeSigma
	}
	if locationSigmaFactor <= 0 {
		locationSigmaFactor = DefaultLocationSigmaFactor
	}
	if maxCost <= 0 {
		maxCost = DefaultMaxCost
	}
	locSigma := locationSigmaFactor * keyRadius
	if locSigma <= 0 {
		locSigma = locationSigmaFactor
	}
	s := &Scorer{
		shape:    distuv.Normal{Mu: 0, Sigma: shapeSigma},
		location: distuv.Normal{Mu: 0, Sigma: locSigma},
		maxCost:  maxCost,
	}
	s.shapeNorm = s.shape.Prob(0)
	return s
}

// Cost scores one template against the resampled user trace and its
// normalized form. bound is the cost the candidate has to beat; the shape
// loop stops as soon as that becomes impossible. ok is false when the
// candidate cannot beat bound or its cost is not finite.
func (s *Scorer) Cost(user, userNorm gesture.Path, t *Template, frequency int, bound float64) (float64, bool) {
	if t == nil || frequency <= 0 {
		return 0, false
	}
	bound = math.Min(bound, s.maxCost)
	best := math.Inf(1)
	freq := float64(frequency)
	for _, v := range t.Variants {
		if len(v.Resampled) == 0 {
			continue
		}
		pLoc := s.location.Prob(gesture.LocationDistance(user, v.Resampled))

		// cost < bound  <=>  shape distance < σ·sqrt(2·ln(norm·bound·pLoc·freq))
		arg := s.shapeNorm * math.Min(bound, best) * pLoc * freq
		if arg <= 1 {
			continue
		}
		limit := s.shape.Sigma * math.Sqrt(2*math.Log(arg))
		d, within := gesture.ShapeDistanceWithin(userNorm, v.Normalized, limit)
		if !within {
			continue
		}
		cost := 1 / (s.shape.Prob(d) * pLoc * freq)
		if cost < best {
			best = cost
		}
	}
	if math.IsInf(best, 0) || math.IsNaN(best) || best > bound {
		return 0, false
	}
	return best, true
}

// Score ranks templates against the user trace, keeping at most max results.
func (s *Scorer) Score(user gesture.Path, samples int, templates []*Template, snap *dictionary.Snapshot, max int) []Result {
	if max <= 0 || len(user) == 0 {
		return nil
	}
	resampled := user.Resample(samples)
	normalized := resampled.Normalize()

	ranks := newRankList(max)
	for _, t := range templates {
		if t == nil {
			continue
		}
		cost, ok := s.Cost(resampled, normalized, t, snap.Frequency(t.Word), ranks.bound())
		if !ok {
			continue
		}
		ranks.insert(Result{Word: t.Word, Cost: cost})
	}
	return ranks.results()
}

// rankList keeps the best results in ascending cost order without ever
// holding more than its capacity.
type rankList struct {
	items []Result
	size  int
}

func newRankList(size int) *rankList {
	return &rankList{items: make([]Result, 0, size), size: size}
}

// bound is the cost a new result must beat to enter the list.
func (r *rankList) bound() float64 {
	if len(r.items) < r.size {
		return math.Inf(1)
	}
	return r.items[len(r.items)-1].Cost
}

func (r *rankList) insert(res Result) bool {
	if len(r.items) == r.size && res.Cost >= r.items[len(r.items)-1].Cost {
		return false
	}
	pos := len(r.items)
	for pos > 0 && r.items[pos-1].Cost > res.Cost {
		pos--
	}
	if len(r.items) < r.size {
		r.items = append(r.items, Result{})
	}
	copy(r.items[pos+1:], r.items[pos:len(r.items)-1])
	r.items[pos] = res
	return true
}

func (r *rankList) results() []Result {
	out := make([]Result, len(r.items))
	copy(out, r.items)
	return out
}
