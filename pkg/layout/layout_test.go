package layout

import (
	"testing"

	"github.com/bastiangx/glideserve/pkg/gesture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestQWERTYGeometry(t *testing.T) {
	ix := QWERTY("en_US", 40, 60)
	require.True(t, ix.Ready())
	assert.Equal(t, 26, ix.Len())
	assert.Equal(t, "en_US", ix.Subtype())
	assert.Equal(t, language.MustParse("en-US"), ix.Language())
	assert.InDelta(t, 40.0, ix.KeyWidth(), 1e-9)
	assert.InDelta(t, 60.0, ix.KeyHeight(), 1e-9)
	assert.InDelta(t, 20.0, ix.KeyRadius(), 1e-9)
	assert.InDelta(t, 100.0, ix.DistanceThreshold(), 1e-9)

	q, ok := ix.Lookup('q')
	require.True(t, ok)
	assert.Equal(t, gesture.Point{X: 20, Y: 30}, q.Center)

	a, ok := ix.Lookup('A')
	require.True(t, ok)
	assert.Equal(t, gesture.Point{X: 40, Y: 90}, a.Center)
}

func TestLookupDecompositionFallback(t *testing.T) {
	ix := QWERTY("fr_FR", 40, 60)
	e, ok := ix.Lookup('e')
	require.True(t, ok)

	for _, r := range []rune{'é', 'È', 'ê'} {
		got, ok := ix.Lookup(r)
		require.True(t, ok, string(r))
		assert.Equal(t, e, got)
	}

	_, ok = ix.Lookup('ж')
	assert.False(t, ok)
	_, ok = ix.Lookup('1')
	assert.False(t, ok)
}

func TestGenerationChangesOnRebuild(t *testing.T) {
	a := QWERTY("en_US", 40, 60)
	b := QWERTY("en_US", 40, 60)
	assert.NotEqual(t, a.Generation(), b.Generation())
}

func TestLaterKeysWin(t *testing.T) {
	ix := NewIndex("xx", []Key{
		KeyFromBounds('a', 0, 0, 10, 10),
		KeyFromBounds('A', 100, 0, 110, 10),
	})
	assert.Equal(t, 1, ix.Len())
	k, ok := ix.Lookup('a')
	require.True(t, ok)
	assert.Equal(t, 105.0, k.Center.X)
}

func TestClosestKeys(t *testing.T) {
	ix := QWERTY("en_US", 40, 60)
	q, _ := ix.Lookup('q')
	got := ix.ClosestKeys(q.Center, 3)
	require.Len(t, got, 3)
	assert.Equal(t, 'q', got[0])
	assert.ElementsMatch(t, []rune{'q', 'w', 'a'}, got)

	assert.Nil(t, ix.ClosestKeys(q.Center, 0))
	assert.Len(t, ix.ClosestKeys(q.Center, 100), 26)
}

func TestEmptyIndex(t *testing.T) {
	var nilIx *Index
	assert.False(t, nilIx.Ready())
	assert.Zero(t, nilIx.KeyRadius())
	assert.Nil(t, nilIx.ClosestKeys(gesture.Point{}, 3))

	empty := NewIndex("", nil)
	assert.False(t, empty.Ready())
	assert.Equal(t, language.Und, empty.Language())
	_, ok := empty.Lookup('a')
	assert.False(t, ok)
}
