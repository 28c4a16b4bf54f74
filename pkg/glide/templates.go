package glide

import (
	"github.com/bastiangx/glideserve/pkg/layout"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Templates memoizes the ideal traces of words on one layout. Templates
// depend on the layout alone, so one cache serves every dictionary version.
type Templates struct {
	ix           *layout.Index
	loopFactor   float64
	samplePoints int
	cache        *lru.Cache[string, *Template]
}

// NewTemplates creates a template cache for ix holding up to size words.
func NewTemplates(ix *layout.Index, loopFactor float64, samplePoints, size int) *Templates {
	if size <= 0 {
		size = defaultTemplateCacheSize
	}
	if loopFactor <= 0 {
		loopFactor = DefaultLoopFactor
	}
	cache, _ := lru.New[string, *Template](size)
	return &Templates{ix: ix, loopFactor: loopFactor, samplePoints: samplePoints, cache: cache}
}

// Layout returns the layout the templates are drawn on.
func (t *Templates) Layout() *layout.Index {
	return t.ix
}

// Len returns how many words are cached.
func (t *Templates) Len() int {
	return t.cache.Len()
}

// Get returns the memoized ideal traces of word, or nil when none of its
// letters map to a key.
func (t *Templates) Get(word string) *Template {
	if tpl, ok := t.cache.Get(word); ok {
		return tpl
	}
	paths := IdealGestures(word, t.ix, t.loopFactor)
	if len(paths) == 0 {
		return nil
	}
	tpl := &Template{Word: word, Variants: make([]Variant, len(paths))}
	for i, raw := range paths {
		v := Variant{Raw: raw, Length: raw.Length()}
		if t.samplePoints > 0 {
			v.Resampled = raw.Resample(t.samplePoints)
			v.Normalized = v.Resampled.Normalize()
		}
		tpl.Variants[i] = v
	}
	t.cache.Add(word, tpl)
	return tpl
}
