package glide

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/gesture"
	"github.com/bastiangx/glideserve/pkg/layout"
	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DeviceTier selects the work budget for recognition.
type DeviceTier int

const (
	TierHigh DeviceTier = iota
	TierLow
)

// ParseDeviceTier accepts "high" or "low".
func ParseDeviceTier(s string) (DeviceTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "high":
		return TierHigh, nil
	case "low":
		return TierLow, nil
	}
	return TierHigh, fmt.Errorf("unknown device tier %q", s)
}

func (t DeviceTier) String() string {
	if t == TierLow {
		return "low"
	}
	return "high"
}

// Budget bounds the work done for a single trace or typed word.
type Budget struct {
	SamplePoints int
	ClosestKeys  int
	MaxScored    int
	// MaxWordScan caps the words examined for typed fuzzy matches.
	MaxWordScan int
}

// Budget returns the fixed budget of the tier.
func (t DeviceTier) Budget() Budget {
	if t == TierLow {
		return Budget{SamplePoints: 100, ClosestKeys: 2, MaxScored: 1000, MaxWordScan: 20000}
	}
	return Budget{SamplePoints: 200, ClosestKeys: 3, MaxScored: 3000, MaxWordScan: 60000}
}

// Options configures a Classifier. Zero values take the defaults.
type Options struct {
	Tier                DeviceTier
	PruningThreshold    float64
	ShapeSigma          float64
	LocationSigmaFactor float64
	LoopFactor          float64
	MaxCost             float64
	PrunerCacheSize     int
	TemplateCacheSize   int
	ResultCacheSize     int
}

// DefaultOptions returns the tuned defaults for the high tier.
func DefaultOptions() Options {
	return Options{
		Tier:                TierHigh,
		PruningThreshold:    DefaultPruningThreshold,
		ShapeSigma:          DefaultShapeSigma,
		LocationSigmaFactor: DefaultLocationSigmaFactor,
		LoopFactor:          DefaultLoopFactor,
		MaxCost:             DefaultMaxCost,
		PrunerCacheSize:     4,
		TemplateCacheSize:   defaultTemplateCacheSize,
		ResultCacheSize:     8,
	}
}

type layoutKey struct {
	subtype   string
	layoutGen uint64
}

// prunerKey follows the word set only: frequency changes reuse the buckets.
type prunerKey struct {
	layoutKey
	wordSet uint64
}

type resultKey struct {
	gesture    string
	max        int
	layoutGen  uint64
	dictionary uint64
}

// Classifier recognizes glide traces. It owns the template, pruner and
// result caches and is safe for concurrent use.
type Classifier struct {
	opts      Options
	budget    Budget
	templates *lru.Cache[layoutKey, *Templates]
	pruners   *lru.Cache[prunerKey, *Pruner]
	results   *lru.Cache[resultKey, []Result]
}

// NewClassifier creates a classifier.
func NewClassifier(opts Options) (*Classifier, error) {
	def := DefaultOptions()
	if opts.PruningThreshold <= 0 {
		opts.PruningThreshold = def.PruningThreshold
	}
	if opts.LoopFactor <= 0 {
		opts.LoopFactor = def.LoopFactor
	}
	if opts.PrunerCacheSize <= 0 {
		opts.PrunerCacheSize = def.PrunerCacheSize
	}
	if opts.TemplateCacheSize <= 0 {
		opts.TemplateCacheSize = def.TemplateCacheSize
	}
	if opts.ResultCacheSize <= 0 {
		opts.ResultCacheSize = def.ResultCacheSize
	}

	templates, err := lru.New[layoutKey, *Templates](opts.PrunerCacheSize)
	if err != nil {
		return nil, fmt.Errorf("template cache: %w", err)
	}
	pruners, err := lru.New[prunerKey, *Pruner](opts.PrunerCacheSize)
	if err != nil {
		return nil, fmt.Errorf("pruner cache: %w", err)
	}
	results, err := lru.New[resultKey, []Result](opts.ResultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	return &Classifier{
		opts:      opts,
		budget:    opts.Tier.Budget(),
		templates: templates,
		pruners:   pruners,
		results:   results,
	}, nil
}

// Budget returns the work budget in use.
func (c *Classifier) Budget() Budget {
	return c.budget
}

// Templates returns the template cache of ix, creating it on a miss.
func (c *Classifier) Templates(ix *layout.Index) *Templates {
	key := layoutKey{subtype: ix.Subtype(), layoutGen: ix.Generation()}
	if t, ok := c.templates.Get(key); ok {
		return t
	}
	t := NewTemplates(ix, c.opts.LoopFactor, c.budget.SamplePoints, c.opts.TemplateCacheSize)
	if prev, ok, _ := c.templates.PeekOrAdd(key, t); ok {
		return prev
	}
	return t
}

// Pruner returns the cached pruner for ix and the word set of snap, building
// it on a miss. Pruners of one layout share its templates.
func (c *Classifier) Pruner(ix *layout.Index, snap *dictionary.Snapshot) *Pruner {
	key := prunerKey{
		layoutKey: layoutKey{subtype: ix.Subtype(), layoutGen: ix.Generation()},
		wordSet:   snap.WordSet(),
	}
	if p, ok := c.pruners.Get(key); ok {
		return p
	}
	p := NewPruner(ix, snap, PrunerOptions{
		Threshold:    c.opts.PruningThreshold,
		ClosestKeys:  c.budget.ClosestKeys,
		SamplePoints: c.budget.SamplePoints,
		LoopFactor:   c.opts.LoopFactor,
		CacheSize:    c.opts.TemplateCacheSize,
		Templates:    c.Templates(ix),
	})
	if prev, ok, _ := c.pruners.PeekOrAdd(key, p); ok {
		return prev
	}
	return p
}

// Suggest returns up to max words for the trace, best first. It returns nil
// when the layout has no keys, the trace is empty or max is not positive.
func (c *Classifier) Suggest(g *gesture.Gesture, ix *layout.Index, snap *dictionary.Snapshot, max int) []Result {
	if !ix.Ready() || g == nil || g.Len() == 0 || max <= 0 {
		return nil
	}
	frozen := g.Clone()
	key := resultKey{gesture: frozen.Key(), max: max, layoutGen: ix.Generation(), dictionary: snap.Version()}
	if cached, ok := c.results.Get(key); ok {
		return append([]Result(nil), cached...)
	}

	start := time.Now()
	pruner := c.Pruner(ix, snap)
	path := frozen.Path()
	byEnds := pruner.ByExtremities(path)
	candidates := pruner.ByLength(byEnds, frozen.Length())

	if len(candidates) > c.budget.MaxScored {
		sort.SliceStable(candidates, func(i, j int) bool {
			return snap.Frequency(candidates[i]) > snap.Frequency(candidates[j])
		})
		candidates = candidates[:c.budget.MaxScored]
	}

	templates := make([]*Template, 0, len(candidates))
	for _, w := range candidates {
		if t := pruner.Template(w); t != nil {
			templates = append(templates, t)
		}
	}

	scorer := NewScorer(c.opts.ShapeSigma, c.opts.LocationSigmaFactor, ix.KeyRadius(), c.opts.MaxCost)
	results := scorer.Score(path, c.budget.SamplePoints, templates, snap, max)
	c.results.Add(key, results)

	log.Debugf("Glide: %d points, %d by ends, %d by length, %d results in %v",
		len(path), len(byEnds), len(candidates), len(results), time.Since(start))
	return append([]Result(nil), results...)
}

// Purge drops every cached template, pruner and result.
func (c *Classifier) Purge() {
	c.templates.Purge()
	c.pruners.Purge()
	c.results.Purge()
}
