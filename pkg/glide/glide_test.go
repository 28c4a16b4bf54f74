package glide

import (
	"math"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/gesture"
	"github.com/bastiangx/glideserve/pkg/layout"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var testWords = []dictionary.Entry{
	{Word: "hello", Frequency: 200},
	{Word: "help", Frequency: 180},
	{Word: "hell", Frequency: 150},
	{Word: "world", Frequency: 120},
	{Word: "word", Frequency: 120},
	{Word: "pool", Frequency: 100},
	{Word: "pol", Frequency: 100},
	{Word: "quiz", Frequency: 60},
	{Word: "café", Frequency: 50},
	{Word: "the", Frequency: 255},
	{Word: "42nd", Frequency: 90},
}

func testSnapshot(t *testing.T) *dictionary.Snapshot {
	t.Helper()
	s := dictionary.NewStore()
	s.SetStatic(testWords)
	return s.Snapshot()
}

func cleanTrace(t *testing.T, word string, ix *layout.Index, looped bool) *gesture.Gesture {
	t.Helper()
	paths := IdealGestures(word, ix, DefaultLoopFactor)
	require.NotEmpty(t, paths)
	p := paths[0]
	if looped {
		require.Len(t, paths, 2)
		p = paths[1]
	}
	return gesture.FromPoints(p)
}

func TestIdealGesturesBase(t *testing.T) {
	ix := layout.QWERTY("en_US", 40, 60)
	paths := IdealGestures("Help", ix, DefaultLoopFactor)
	require.Len(t, paths, 1)
	require.Len(t, paths[0], 4)

	h, _ := ix.Lookup('h')
	p, _ := ix.Lookup('p')
	assert.Equal(t, h.Center, paths[0][0])
	assert.Equal(t, p.Center, paths[0][3])
}

func TestIdealGesturesLoop(t *testing.T) {
	ix := layout.QWERTY("en_US", 40, 60)
	paths := IdealGestures("pool", ix, DefaultLoopFactor)
	require.Len(t, paths, 2)
	assert.Len(t, paths[0], 3, "base keeps one point per repeated letter")
	assert.Len(t, paths[1], 7, "loop adds four corners")

	o, _ := ix.Lookup('o')
	for _, c := range paths[1][2:6] {
		assert.InDelta(t, 10.0, math.Abs(c.X-o.Center.X), 1e-9)
		assert.InDelta(t, 15.0, math.Abs(c.Y-o.Center.Y), 1e-9)
	}

	wide := IdealGestures("pool", ix, 0.5)
	assert.InDelta(t, 20.0, math.Abs(wide[1][2].X-o.Center.X), 1e-9)
}

func TestIdealGesturesFallbackAndSkip(t *testing.T) {
	ix := layout.QWERTY("fr_FR", 40, 60)
	accented := IdealGestures("café", ix, DefaultLoopFactor)
	plain := IdealGestures("cafe", ix, DefaultLoopFactor)
	assert.Equal(t, plain, accented)

	skipped := IdealGestures("4x2", ix, DefaultLoopFactor)
	require.Len(t, skipped, 1)
	assert.Len(t, skipped[0], 1)

	assert.Nil(t, IdealGestures("123", ix, DefaultLoopFactor))
	assert.Nil(t, IdealGestures("", ix, DefaultLoopFactor))
	assert.Nil(t, IdealGestures("word", layout.NewIndex("", nil), DefaultLoopFactor))
}

func TestPrunerIndex(t *testing.T) {
	ix := layout.QWERTY("en_US", 40, 60)
	p := NewPruner(ix, testSnapshot(t), PrunerOptions{})

	assert.Equal(t, len(testWords)-1, p.Words(), "42nd has no first key")
	assert.ElementsMatch(t, []string{"hell"}, p.Bucket('h', 'l'))
	assert.ElementsMatch(t, []string{"pool", "pol"}, p.Bucket('p', 'l'))
	assert.ElementsMatch(t, []string{"café"}, p.Bucket('c', 'e'))
}

func TestPruningKeepsCleanTrace(t *testing.T) {
	for _, tier := range []DeviceTier{TierHigh, TierLow} {
		ix := layout.QWERTY("en_US", 40, 60)
		snap := testSnapshot(t)
		b := tier.Budget()
		p := NewPruner(ix, snap, PrunerOptions{ClosestKeys: b.ClosestKeys, SamplePoints: b.SamplePoints})

		for _, e := range testWords {
			if first, _ := utf8.DecodeRuneInString(e.Word); !unicode.IsLetter(first) {
				continue
			}
			g := cleanTrace(t, e.Word, ix, false)
			byEnds := p.ByExtremities(g.Path())
			assert.Contains(t, byEnds, e.Word, "extremity pruning dropped %s (%s)", e.Word, tier)
			byLen := p.ByLength(byEnds, g.Length())
			assert.Contains(t, byLen, e.Word, "length pruning dropped %s (%s)", e.Word, tier)
		}
	}
}

func TestPruningDropsFarWords(t *testing.T) {
	ix := layout.QWERTY("en_US", 40, 60)
	p := NewPruner(ix, testSnapshot(t), PrunerOptions{})
	g := cleanTrace(t, "quiz", ix, false)

	byEnds := p.ByExtremities(g.Path())
	assert.NotContains(t, byEnds, "hello")
	assert.NotContains(t, byEnds, "pol")
}

func TestPrunerNotReady(t *testing.T) {
	p := NewPruner(layout.NewIndex("", nil), testSnapshot(t), PrunerOptions{})
	assert.Zero(t, p.Words())
	assert.Nil(t, p.ByExtremities(gesture.Path{{X: 1, Y: 1}}))
}

func TestClassifierRanksCleanTraceFirst(t *testing.T) {
	ix := layout.QWERTY("en_US", 40, 60)
	snap := testSnapshot(t)
	c, err := NewClassifier(DefaultOptions())
	require.NoError(t, err)

	for _, w := range []string{"hello", "help", "world", "word", "quiz", "the"} {
		res := c.Suggest(cleanTrace(t, w, ix, false), ix, snap, 3)
		require.NotEmpty(t, res, w)
		assert.Equal(t, w, res[0].Word)
		for i := 1; i < len(res); i++ {
			assert.LessOrEqual(t, res[i-1].Cost, res[i].Cost)
		}
	}
}

func TestClassifierLoopDisambiguates(t *testing.T) {
	ix := layout.QWERTY("en_US", 40, 60)
	snap := testSnapshot(t)
	c, err := NewClassifier(DefaultOptions())
	require.NoError(t, err)

	res := c.Suggest(cleanTrace(t, "pool", ix, true), ix, snap, 2)
	require.Len(t, res, 2)
	assert.Equal(t, "pool", res[0].Word)
	assert.Equal(t, "pol", res[1].Word)
}

func TestClassifierLowTier(t *testing.T) {
	ix := layout.QWERTY("en_US", 40, 60)
	opts := DefaultOptions()
	opts.Tier = TierLow
	c, err := NewClassifier(opts)
	require.NoError(t, err)
	assert.Equal(t, 100, c.Budget().SamplePoints)

	res := c.Suggest(cleanTrace(t, "world", ix, false), ix, testSnapshot(t), 5)
	require.NotEmpty(t, res)
	assert.Equal(t, "world", res[0].Word)
}

func TestClassifierCachesByFrozenGesture(t *testing.T) {
	ix := layout.QWERTY("en_US", 40, 60)
	snap := testSnapshot(t)
	c, err := NewClassifier(DefaultOptions())
	require.NoError(t, err)

	g := cleanTrace(t, "hello", ix, false)
	first := c.Suggest(g, ix, snap, 3)
	assert.Equal(t, 1, c.results.Len())

	second := c.Suggest(g.Clone(), ix, snap, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.results.Len())

	second[0].Word = "mutated"
	third := c.Suggest(g, ix, snap, 3)
	assert.Equal(t, "hello", third[0].Word)

	c.Suggest(g, ix, snap, 2)
	assert.Equal(t, 2, c.results.Len())
	assert.Equal(t, 1, c.pruners.Len())

	c.Purge()
	assert.Zero(t, c.results.Len())
	assert.Zero(t, c.templates.Len())
}

func TestClassifierReusesPrunerAcrossFrequencyChanges(t *testing.T) {
	ix := layout.QWERTY("en_US", 40, 60)
	store := dictionary.NewStore()
	store.SetStatic(testWords)
	c, err := NewClassifier(DefaultOptions())
	require.NoError(t, err)

	g := cleanTrace(t, "hello", ix, false)
	require.Equal(t, "hello", c.Suggest(g, ix, store.Snapshot(), 3)[0].Word)
	before := c.Pruner(ix, store.Snapshot())
	cached := before.Templates().Len()
	require.NotZero(t, cached)

	store.AddUser("hello", 1)
	after := c.Pruner(ix, store.Snapshot())
	assert.Same(t, before, after, "frequency change keeps the buckets")
	assert.Equal(t, "hello", c.Suggest(g, ix, store.Snapshot(), 3)[0].Word)
	assert.Equal(t, 2, c.results.Len(), "results still follow the version")

	store.AddUser("hellion", 1)
	rebuilt := c.Pruner(ix, store.Snapshot())
	assert.NotSame(t, before, rebuilt)
	assert.Same(t, before.Templates(), rebuilt.Templates(), "templates shared per layout")
	assert.GreaterOrEqual(t, rebuilt.Templates().Len(), cached)
	assert.Equal(t, 2, c.pruners.Len())
	assert.Equal(t, 1, c.templates.Len())

	other := layout.QWERTY("en_US", 40, 60)
	assert.NotSame(t, before.Templates(), c.Pruner(other, store.Snapshot()).Templates())
}

func TestClassifierDegenerateInputs(t *testing.T) {
	ix := layout.QWERTY("en_US", 40, 60)
	snap := testSnapshot(t)
	c, err := NewClassifier(Options{})
	require.NoError(t, err)

	assert.Nil(t, c.Suggest(gesture.New(), ix, snap, 3))
	assert.Nil(t, c.Suggest(cleanTrace(t, "hello", ix, false), layout.NewIndex("", nil), snap, 3))
	assert.Nil(t, c.Suggest(cleanTrace(t, "hello", ix, false), ix, snap, 0))
	assert.Empty(t, c.Suggest(cleanTrace(t, "hello", ix, false), ix, dictionary.NewStore().Snapshot(), 3))

	h, _ := ix.Lookup('h')
	single := gesture.FromPoints([]gesture.Point{h.Center})
	assert.NotPanics(t, func() { c.Suggest(single, ix, snap, 3) })
}

func TestRankList(t *testing.T) {
	r := newRankList(3)
	assert.True(t, math.IsInf(r.bound(), 1))
	for _, c := range []float64{5, 1, 4, 2, 9, 3} {
		r.insert(Result{Word: "w", Cost: c})
	}
	got := r.results()
	require.Len(t, got, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{got[0].Cost, got[1].Cost, got[2].Cost})
	assert.Equal(t, 3.0, r.bound())
	assert.False(t, r.insert(Result{Cost: 3}))
}

func TestScorerPrefersMatchingShape(t *testing.T) {
	ix := layout.QWERTY("en_US", 40, 60)
	p := NewPruner(ix, testSnapshot(t), PrunerOptions{SamplePoints: 200})
	s := NewScorer(0, 0, ix.KeyRadius(), 0)

	user := cleanTrace(t, "help", ix, false).Path().Resample(200)
	norm := user.Normalize()
	exact, ok := s.Cost(user, norm, p.Template("help"), 100, math.Inf(1))
	require.True(t, ok)
	other, ok := s.Cost(user, norm, p.Template("hell"), 100, math.Inf(1))
	require.True(t, ok)
	assert.Less(t, exact, other)

	_, ok = s.Cost(user, norm, p.Template("hell"), 100, exact)
	assert.False(t, ok, "cannot beat the bound")
	_, ok = s.Cost(user, norm, p.Template("help"), 0, math.Inf(1))
	assert.False(t, ok, "zero frequency has no finite cost")
}

func TestParseDeviceTier(t *testing.T) {
	tier, err := ParseDeviceTier("LOW")
	require.NoError(t, err)
	assert.Equal(t, TierLow, tier)
	assert.Equal(t, "low", tier.String())

	_, err = ParseDeviceTier("potato")
	assert.Error(t, err)
}

func BenchmarkClassifierSuggest(b *testing.B) {
	ix := layout.QWERTY("en_US", 40, 60)
	s := dictionary.NewStore()
	s.SetStatic(testWords)
	snap := s.Snapshot()
	c, _ := NewClassifier(DefaultOptions())
	g := gesture.FromPoints(IdealGestures("hello", ix, DefaultLoopFactor)[0])

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Purge()
		c.Suggest(g, ix, snap, 5)
	}
}
