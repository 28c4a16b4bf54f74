// Package glide turns a glide trace into ranked words: it synthesizes the
// ideal trace of each dictionary word, prunes the word list with cheap
// geometric filters and scores the survivors by shape and location.
package glide

import (
	"github.com/bastiangx/glideserve/pkg/gesture"
	"github.com/bastiangx/glideserve/pkg/layout"
	"golang.org/x/text/cases"
)

// DefaultLoopFactor places loop corners a quarter key away from the center.
const DefaultLoopFactor = 0.25

// IdealGestures returns the trace a perfect glide over word would draw: the
// key centers of its letters in order. When a letter immediately repeats, a
// second variant is added that loops around the repeated key with corners at
// ±loopFactor of the key width and height. Letters without a key are skipped
// and variants without points are left out, so a word with no mappable
// letters yields nil.
func IdealGestures(word string, ix *layout.Index, loopFactor float64) []gesture.Path {
	if !ix.Ready() || word == "" {
		return nil
	}
	lower := cases.Lower(ix.Language()).String(word)

	var base, looped gesture.Path
	hasLoop := false
	prev := rune(-1)
	for _, r := range lower {
		key, ok := ix.Lookup(r)
		if !ok {
			prev = -1
			continue
		}
		if key.Char == prev {
			dx := key.Width * loopFactor
			dy := key.Height * loopFactor
			c := key.Center
			looped = append(looped,
				gesture.Point{X: c.X + dx, Y: c.Y - dy},
				gesture.Point{X: c.X + dx, Y: c.Y + dy},
				gesture.Point{X: c.X - dx, Y: c.Y + dy},
				gesture.Point{X: c.X - dx, Y: c.Y - dy},
			)
			hasLoop = true
			continue
		}
		base = append(base, key.Center)
		looped = append(looped, key.Center)
		prev = key.Char
	}

	if len(base) == 0 {
		return nil
	}
	if !hasLoop {
		return []gesture.Path{base}
	}
	return []gesture.Path{base, looped}
}
