package glide

import (
	"math"
	"unicode/utf8"

	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/gesture"
	"github.com/bastiangx/glideserve/pkg/layout"
	"github.com/charmbracelet/log"
)

// DefaultPruningThreshold is the tolerated length mismatch in key radii.
const DefaultPruningThreshold = 8.42

const defaultTemplateCacheSize = 4096

// Variant is one ideal trace of a word, precomputed for scoring.
type Variant struct {
	Raw        gesture.Path
	Length     float64
	Resampled  gesture.Path
	Normalized gesture.Path
}

// Template holds every ideal trace of a word.
type Template struct {
	Word     string
	Variants []Variant
}

type pairKey struct {
	first rune
	last  rune
}

// PrunerOptions tunes a Pruner.
type PrunerOptions struct {
	Threshold    float64
	ClosestKeys  int
	SamplePoints int
	LoopFactor   float64
	CacheSize    int
	// Templates is shared across pruners of the same layout. When nil the
	// pruner creates its own from the fields above.
	Templates *Templates
}

// Pruner indexes a word list by the keys of its first and last letters for
// one layout. It is immutable once built; its templates may be shared.
type Pruner struct {
	ix        *layout.Index
	opts      PrunerOptions
	buckets   map[pairKey][]string
	words     int
	dropped   int
	templates *Templates
}

// NewPruner buckets every word of snap by (first key, last key). Words whose
// first or last letter has no key on ix are dropped.
func NewPruner(ix *layout.Index, snap *dictionary.Snapshot, opts PrunerOptions) *Pruner {
	if opts.ClosestKeys <= 0 {
		opts.ClosestKeys = 3
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultPruningThreshold
	}
	if opts.LoopFactor <= 0 {
		opts.LoopFactor = DefaultLoopFactor
	}
	templates := opts.Templates
	if templates == nil || templates.Layout() != ix {
		templates = NewTemplates(ix, opts.LoopFactor, opts.SamplePoints, opts.CacheSize)
	}

	p := &Pruner{
		ix:        ix,
		opts:      opts,
		buckets:   make(map[pairKey][]string),
		templates: templates,
	}
	if !ix.Ready() {
		return p
	}
	for _, w := range snap.Words() {
		first, _ := utf8.DecodeRuneInString(w)
		last, _ := utf8.DecodeLastRuneInString(w)
		fk, ok1 := ix.Lookup(first)
		lk, ok2 := ix.Lookup(last)
		if !ok1 || !ok2 {
			p.dropped++
			continue
		}
		k := pairKey{first: fk.Char, last: lk.Char}
		p.buckets[k] = append(p.buckets[k], w)
		p.words++
	}
	log.Debugf("Pruner index for %s: %d words in %d buckets, %d dropped", ix.Subtype(), p.words, len(p.buckets), p.dropped)
	return p
}

// Words returns how many words were indexed.
func (p *Pruner) Words() int {
	return p.words
}

// Bucket returns the words starting on first's key and ending on last's key.
func (p *Pruner) Bucket(first, last rune) []string {
	return p.buckets[pairKey{first: first, last: last}]
}

// ByExtremities collects the words whose first and last keys are among the
// nearest keys to the start and end of path.
//
// The filter is lossy on purpose: a trace that starts or ends more than a
// few keys away from the intended letters loses that word.
func (p *Pruner) ByExtremities(path gesture.Path) []string {
	if !p.ix.Ready() || len(path) == 0 {
		return nil
	}
	starts := p.ix.ClosestKeys(path[0], p.opts.ClosestKeys)
	ends := p.ix.ClosestKeys(path[len(path)-1], p.opts.ClosestKeys)

	var out []string
	for _, s := range starts {
		for _, e := range ends {
			out = append(out, p.buckets[pairKey{first: s, last: e}]...)
		}
	}
	return out
}

// ByLength keeps the words with at least one ideal trace whose length is
// within threshold key radii of userLength.
func (p *Pruner) ByLength(words []string, userLength float64) []string {
	limit := p.opts.Threshold * p.ix.KeyRadius()
	out := words[:0:0]
	for _, w := range words {
		t := p.Template(w)
		if t == nil {
			continue
		}
		for _, v := range t.Variants {
			if math.Abs(userLength-v.Length) < limit {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// Template returns the memoized ideal traces of word, or nil when none of its
// letters map to a key.
func (p *Pruner) Template(word string) *Template {
	return p.templates.Get(word)
}

// Templates returns the template cache the pruner draws from.
func (p *Pruner) Templates() *Templates {
	return p.templates
}
