// Package layout maps characters to the geometry of the on-screen keys for
// one locale subtype. An Index is immutable; a new one is built whenever the
// keyboard layout or subtype changes.
package layout

import (
	"sort"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/glideserve/pkg/gesture"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var generations atomic.Uint64

// Key is the geometry of a single character key.
type Key struct {
	Char   rune
	Center gesture.Point
	Width  float64
	Height float64
}

// KeyFromBounds builds a Key from its bounding box.
func KeyFromBounds(char rune, left, top, right, bottom float64) Key {
	return Key{
		Char:   unicode.ToLower(char),
		Center: gesture.Point{X: (left + right) / 2, Y: (top + bottom) / 2},
		Width:  right - left,
		Height: bottom - top,
	}
}

// Index resolves characters to keys.
type Index struct {
	subtype    string
	lang       language.Tag
	generation uint64
	keys       []Key
	byChar     map[rune]int
	keyWidth   float64
	keyHeight  float64
}

// NewIndex builds an index for the given subtype (e.g. "en_US").
// Later keys win when two share a character.
func NewIndex(subtype string, keys []Key) *Index {
	ix := &Index{
		subtype:    subtype,
		lang:       subtypeLanguage(subtype),
		generation: generations.Add(1),
		keys:       make([]Key, 0, len(keys)),
		byChar:     make(map[rune]int, len(keys)),
	}
	for _, k := range keys {
		k.Char = unicode.ToLower(k.Char)
		if pos, ok := ix.byChar[k.Char]; ok {
			ix.keys[pos] = k
			continue
		}
		ix.byChar[k.Char] = len(ix.keys)
		ix.keys = append(ix.keys, k)
	}
	if n := len(ix.keys); n > 0 {
		var w, h float64
		for _, k := range ix.keys {
			w += k.Width
			h += k.Height
		}
		ix.keyWidth = w / float64(n)
		ix.keyHeight = h / float64(n)
	}
	return ix
}

func subtypeLanguage(subtype string) language.Tag {
	if subtype == "" {
		return language.Und
	}
	tag, err := language.Parse(strings.ReplaceAll(subtype, "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}

// Ready reports whether the index has any keys. Callers check it before
// asking for recognition.
func (ix *Index) Ready() bool {
	return ix != nil && len(ix.keys) > 0
}

// Subtype returns the locale subtype the index was built for.
func (ix *Index) Subtype() string {
	if ix == nil {
		return ""
	}
	return ix.subtype
}

// Language returns the BCP 47 tag derived from the subtype.
func (ix *Index) Language() language.Tag {
	if ix == nil {
		return language.Und
	}
	return ix.lang
}

// Generation is unique per built index and changes on every rebuild.
func (ix *Index) Generation() uint64 {
	if ix == nil {
		return 0
	}
	return ix.generation
}

// Len returns the number of keys.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.keys)
}

// KeyWidth is the mean key width.
func (ix *Index) KeyWidth() float64 {
	if ix == nil {
		return 0
	}
	return ix.keyWidth
}

// KeyHeight is the mean key height.
func (ix *Index) KeyHeight() float64 {
	if ix == nil {
		return 0
	}
	return ix.keyHeight
}

// KeyRadius is half the mean key width.
func (ix *Index) KeyRadius() float64 {
	return ix.KeyWidth() / 2
}

// DistanceThreshold is the squared sample spacing for gesture buffers on this
// layout: (keyWidth/4)².
func (ix *Index) DistanceThreshold() float64 {
	q := ix.KeyWidth() / 4
	return q * q
}

// Lookup finds the key for r. Uppercase is folded, and characters without a
// key of their own fall back to their canonical decomposition base, so 'é'
// resolves to the 'e' key.
func (ix *Index) Lookup(r rune) (Key, bool) {
	if !ix.Ready() {
		return Key{}, false
	}
	r = unicode.ToLower(r)
	if pos, ok := ix.byChar[r]; ok {
		return ix.keys[pos], true
	}
	base := baseRune(r)
	if base == r {
		return Key{}, false
	}
	pos, ok := ix.byChar[base]
	if !ok {
		return Key{}, false
	}
	return ix.keys[pos], true
}

func baseRune(r rune) rune {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	decomposed := norm.NFD.Bytes(buf[:n])
	base, _ := utf8.DecodeRune(decomposed)
	if base == utf8.RuneError {
		return r
	}
	return unicode.ToLower(base)
}

// ClosestKeys returns the characters of the n keys whose centers are nearest
// to p, nearest first.
func (ix *Index) ClosestKeys(p gesture.Point, n int) []rune {
	if !ix.Ready() || n <= 0 {
		return nil
	}
	type ranked struct {
		char rune
		dist float64
	}
	all := make([]ranked, len(ix.keys))
	for i, k := range ix.keys {
		dx := k.Center.X - p.X
		dy := k.Center.Y - p.Y
		all[i] = ranked{char: k.Char, dist: dx*dx + dy*dy}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].dist == all[j].dist {
			return all[i].char < all[j].char
		}
		return all[i].dist < all[j].dist
	})
	n = min(n, len(all))
	out := make([]rune, n)
	for i := 0; i < n; i++ {
		out[i] = all[i].char
	}
	return out
}
