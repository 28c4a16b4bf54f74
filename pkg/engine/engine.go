// Package engine ties the glide classifier, the typed ranker and the
// auto-commit policy to one owned dictionary and layout. Recognition runs on
// a worker pool and results are published by request sequence, so a late
// stale result never replaces a newer one.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bastiangx/glideserve/pkg/autocommit"
	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/gesture"
	"github.com/bastiangx/glideserve/pkg/glide"
	"github.com/bastiangx/glideserve/pkg/layout"
	"github.com/bastiangx/glideserve/pkg/suggest"
	"github.com/charmbracelet/log"
)

// Options configures an Engine.
type Options struct {
	Workers          int
	QueueSize        int
	SuggestCacheSize int
	Glide            glide.Options
	Suggest          suggest.Options
	Tier             autocommit.Tier
	// Locale is passed to Feedback; empty uses the layout subtype.
	Locale    string
	Feedback  dictionary.Feedback
	Emoji     bool
	Clipboard bool
}

// DefaultOptions returns options with every provider enabled.
func DefaultOptions() Options {
	return Options{
		Workers:          runtime.NumCPU(),
		QueueSize:        64,
		SuggestCacheSize: 10,
		Glide:            glide.DefaultOptions(),
		Suggest:          suggest.DefaultOptions(),
		Tier:             autocommit.Moderate,
		Emoji:            true,
		Clipboard:        true,
	}
}

// Engine owns the recognition state of one keyboard session.
type Engine struct {
	opts       Options
	store      *dictionary.Store
	classifier *glide.Classifier
	ranker     *cachedRanker
	providers  *suggest.Providers
	pool       *Pool

	layout atomic.Pointer[layout.Index]
	tier   atomic.Int32
	seq    atomic.Uint64

	// buffer belongs to the input goroutine.
	buffer *gesture.Gesture

	gestures    Publisher[[]glide.Result]
	suggestions Publisher[[]suggest.Candidate]
}

// New creates an engine with an empty dictionary and no layout.
func New(opts Options) (*Engine, error) {
	classifier, err := glide.NewClassifier(opts.Glide)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	if opts.SuggestCacheSize <= 0 {
		opts.SuggestCacheSize = 10
	}
	if opts.Suggest.MaxScanned == 0 {
		opts.Suggest.MaxScanned = opts.Glide.Tier.Budget().MaxWordScan
	}
	ranker, err := newCachedRanker(suggest.NewRanker(opts.Suggest), opts.SuggestCacheSize)
	if err != nil {
		return nil, fmt.Errorf("suggestion cache: %w", err)
	}

	providers := &suggest.Providers{Words: ranker, Feedback: opts.Feedback}
	if opts.Emoji {
		providers.Emoji = suggest.NewEmojiProvider()
	}
	if opts.Clipboard {
		providers.Clipboard = suggest.NewClipboardProvider()
	}

	e := &Engine{
		opts:       opts,
		store:      dictionary.NewStore(),
		classifier: classifier,
		ranker:     ranker,
		providers:  providers,
		pool:       NewPool(opts.Workers, opts.QueueSize),
		buffer:     gesture.New(),
	}
	e.tier.Store(int32(opts.Tier))
	return e, nil
}

// Store returns the dictionary store.
func (e *Engine) Store() *dictionary.Store {
	return e.store
}

// Providers returns the suggestion providers, e.g. to feed the clipboard.
func (e *Engine) Providers() *suggest.Providers {
	return e.providers
}

// Classifier returns the glide classifier.
func (e *Engine) Classifier() *glide.Classifier {
	return e.classifier
}

// SetLayout installs a new layout and retunes the gesture buffer threshold.
// Call it from the input goroutine.
func (e *Engine) SetLayout(ix *layout.Index) {
	e.layout.Store(ix)
	e.buffer.SetDistanceThreshold(ix.DistanceThreshold())
	log.Debugf("Layout %s installed: %d keys, key width %.1f", ix.Subtype(), ix.Len(), ix.KeyWidth())
}

// Layout returns the current layout, nil before SetLayout.
func (e *Engine) Layout() *layout.Index {
	return e.layout.Load()
}

// Ready reports whether a layout with keys is installed.
func (e *Engine) Ready() bool {
	return e.Layout().Ready()
}

// Buffer returns the gesture buffer for touch samples.
func (e *Engine) Buffer() *gesture.Gesture {
	return e.buffer
}

// SetTier changes the auto-commit tier.
func (e *Engine) SetTier(t autocommit.Tier) {
	e.tier.Store(int32(t))
}

// Tier returns the auto-commit tier.
func (e *Engine) Tier() autocommit.Tier {
	return autocommit.Tier(e.tier.Load())
}

// Locale is the locale reported with feedback.
func (e *Engine) Locale() string {
	if e.opts.Locale != "" {
		return e.opts.Locale
	}
	return e.Layout().Subtype()
}

// Recognize scores g synchronously. g is cloned first.
func (e *Engine) Recognize(ctx context.Context, g *gesture.Gesture, max int) ([]glide.Result, error) {
	if max <= 0 {
		return nil, fmt.Errorf("recognize: %w (%d)", ErrInvalidCount, max)
	}
	ix := e.Layout()
	if !ix.Ready() {
		return nil, fmt.Errorf("recognize: %w", ErrLayoutNotReady)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.classifier.Suggest(g.Clone(), ix, e.store.Snapshot(), max), nil
}

// Suggest ranks composing synchronously across all providers.
func (e *Engine) Suggest(ctx context.Context, composing string, max int) ([]suggest.Candidate, error) {
	if max <= 0 {
		return nil, fmt.Errorf("suggest: %w (%d)", ErrInvalidCount, max)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.providers.Suggest(composing, e.store.Snapshot(), max), nil
}

// Done receives the outcome of a background request: the published result,
// or ErrStale when a newer request was published first, or the error that
// stopped it.
type Done[T any] func(Published[T], error)

// RequestGesture stamps a recognition request and runs it on the pool. The
// result is published only if no newer request was published first. done
// may be nil.
func (e *Engine) RequestGesture(ctx context.Context, g *gesture.Gesture, max int, done Done[[]glide.Result]) (uint64, error) {
	if max <= 0 {
		return 0, fmt.Errorf("request gesture: %w (%d)", ErrInvalidCount, max)
	}
	if !e.Ready() {
		return 0, fmt.Errorf("request gesture: %w", ErrLayoutNotReady)
	}
	frozen := g.Clone()
	seq := e.seq.Add(1)
	err := e.pool.Submit(ctx, func() {
		start := time.Now()
		res, err := e.Recognize(context.Background(), frozen, max)
		if err == nil {
			log.Debugf("Gesture request %d scored in %v", seq, time.Since(start))
		}
		finish(&e.gestures, seq, res, err, done)
	})
	return seq, err
}

// RequestSuggestions stamps a typed ranking request and runs it on the pool.
func (e *Engine) RequestSuggestions(ctx context.Context, composing string, max int, done Done[[]suggest.Candidate]) (uint64, error) {
	if max <= 0 {
		return 0, fmt.Errorf("request suggestions: %w (%d)", ErrInvalidCount, max)
	}
	seq := e.seq.Add(1)
	err := e.pool.Submit(ctx, func() {
		res, err := e.Suggest(context.Background(), composing, max)
		finish(&e.suggestions, seq, res, err, done)
	})
	return seq, err
}

func finish[T any](pub *Publisher[T], seq uint64, value T, err error, done Done[T]) {
	if err != nil {
		log.Warnf("Request %d failed: %v", seq, err)
		if done != nil {
			done(Published[T]{Seq: seq}, err)
		}
		return
	}
	if !pub.Publish(seq, value) {
		log.Debugf("Dropped stale result %d", seq)
		if done != nil {
			done(Published[T]{Seq: seq, Value: value}, ErrStale)
		}
		return
	}
	if done != nil {
		done(Published[T]{Seq: seq, Value: value, At: time.Now()}, nil)
	}
}

// LatestGesture returns the newest published glide result.
func (e *Engine) LatestGesture() (Published[[]glide.Result], bool) {
	return e.gestures.Latest()
}

// LatestSuggestions returns the newest published typed suggestions.
func (e *Engine) LatestSuggestions() (Published[[]suggest.Candidate], bool) {
	return e.suggestions.Latest()
}

// AutoCommit decides on the top candidate under the current tier.
func (e *Engine) AutoCommit(candidates []suggest.Candidate, composing string) autocommit.Decision {
	return autocommit.DecideTop(candidates, composing, e.Tier())
}

// Accept reports that the user picked c. Word picks go to the feedback hook.
// A hook that can read back single words refreshes just that entry; one that
// can only list the user dictionary reloads it whole.
func (e *Engine) Accept(ctx context.Context, c suggest.Candidate) error {
	locale := e.Locale()
	if err := e.providers.Notify(ctx, c, locale); err != nil {
		return fmt.Errorf("accept %q: %w", c.Word, err)
	}
	if c.Provider != suggest.ProviderWord {
		return nil
	}
	if lookup, ok := e.opts.Feedback.(dictionary.UserLookup); ok {
		f, err := lookup.Frequency(ctx, c.Word, locale)
		if err != nil {
			return fmt.Errorf("read back %q: %w", c.Word, err)
		}
		e.store.AddUser(c.Word, f)
		return nil
	}
	if err := e.ReloadUser(ctx); err != nil {
		return fmt.Errorf("reload user dictionary: %w", err)
	}
	return nil
}

// ReloadUser replaces the user entries of the store with those the feedback
// hook lists for the current locale. Hooks that cannot list entries are
// ignored.
func (e *Engine) ReloadUser(ctx context.Context) error {
	src, ok := e.opts.Feedback.(dictionary.UserSource)
	if !ok {
		return nil
	}
	return e.store.LoadUser(ctx, src, e.Locale())
}

// Purge drops every cached result.
func (e *Engine) Purge() {
	e.classifier.Purge()
	e.ranker.purge()
}

// Stop shuts the pool down. Requests after Stop fail with ErrStopped.
func (e *Engine) Stop() {
	e.pool.Stop()
}
