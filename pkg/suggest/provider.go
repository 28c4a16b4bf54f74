package suggest

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/glideserve/internal/utils"
	"github.com/bastiangx/glideserve/pkg/dictionary"
)

// ProviderKind is the fixed set of suggestion sources.
type ProviderKind int

const (
	ProviderWord ProviderKind = iota + 1
	ProviderEmoji
	ProviderClipboard
)

func (k ProviderKind) String() string {
	switch k {
	case ProviderWord:
		return "word"
	case ProviderEmoji:
		return "emoji"
	case ProviderClipboard:
		return "clipboard"
	}
	return "unknown"
}

type shortcode struct {
	name  string
	emoji string
}

var defaultShortcodes = []shortcode{
	{"check", "✅"},
	{"clap", "👏"},
	{"cry", "😢"},
	{"eyes", "👀"},
	{"fire", "🔥"},
	{"heart", "❤️"},
	{"joy", "😂"},
	{"ok", "👌"},
	{"party", "🥳"},
	{"pizza", "🍕"},
	{"pray", "🙏"},
	{"rocket", "🚀"},
	{"smile", "😄"},
	{"star", "⭐"},
	{"sun", "☀️"},
	{"tada", "🎉"},
	{"thinking", "🤔"},
	{"thumbsup", "👍"},
	{"wave", "👋"},
	{"wink", "😉"},
}

const maxRecentEmoji = 8

// EmojiProvider suggests emoji by shortcode, recently used ones first.
type EmojiProvider struct {
	mu     sync.Mutex
	codes  []shortcode
	recent []string
}

// NewEmojiProvider creates a provider with the built-in shortcode table.
func NewEmojiProvider() *EmojiProvider {
	return &EmojiProvider{codes: defaultShortcodes}
}

// Suggest matches composing, with or without a leading ':', against the
// shortcode names. Inputs shorter than two letters match nothing.
func (p *EmojiProvider) Suggest(composing string, limit int) []Candidate {
	query := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(composing), ":"))
	if utf8.RuneCountInString(query) < 2 || limit <= 0 {
		return nil
	}

	p.mu.Lock()
	recent := make(map[string]int, len(p.recent))
	for i, e := range p.recent {
		recent[e] = i
	}
	p.mu.Unlock()

	var hits []Candidate
	for _, sc := range p.codes {
		if !strings.HasPrefix(sc.name, query) {
			continue
		}
		kind, conf := KindPrefix, 0.5
		if sc.name == query {
			kind, conf = KindExact, 0.9
		}
		if _, ok := recent[sc.emoji]; ok {
			conf += 0.05
		}
		hits = append(hits, Candidate{
			Word:       sc.emoji,
			Confidence: conf,
			Kind:       kind,
			Provider:   ProviderEmoji,
		})
	}
	sortGroup(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Used moves emoji to the front of the recent list.
func (p *EmojiProvider) Used(emoji string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, maxRecentEmoji)
	out = append(out, emoji)
	for _, e := range p.recent {
		if e != emoji && len(out) < maxRecentEmoji {
			out = append(out, e)
		}
	}
	p.recent = out
}

// Recent returns the recently used emoji, newest first.
func (p *EmojiProvider) Recent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.recent...)
}

// ClipboardProvider offers the last copied text once.
type ClipboardProvider struct {
	mu   sync.Mutex
	text string
}

// NewClipboardProvider creates an empty clipboard provider.
func NewClipboardProvider() *ClipboardProvider {
	return &ClipboardProvider{}
}

// SetText records newly copied text.
func (p *ClipboardProvider) SetText(text string) {
	p.mu.Lock()
	p.text = strings.TrimSpace(text)
	p.mu.Unlock()
}

// Suggest offers the clip when composing is empty or a case-insensitive
// prefix of it.
func (p *ClipboardProvider) Suggest(composing string) []Candidate {
	p.mu.Lock()
	text := p.text
	p.mu.Unlock()
	if text == "" || !utils.HasPrefixIgnoreCase(text, strings.TrimSpace(composing)) {
		return nil
	}
	return []Candidate{{
		Word:       text,
		Confidence: 0.6,
		Kind:       KindPrefix,
		Provider:   ProviderClipboard,
	}}
}

// Consume clears the clip once it has been inserted.
func (p *ClipboardProvider) Consume() {
	p.SetText("")
}

// WordRanker produces word candidates. *Ranker implements it; callers may
// wrap it, e.g. with a cache.
type WordRanker interface {
	Rank(composing string, snap *dictionary.Snapshot, limit int) []Candidate
}

// Providers merges the word, clipboard and emoji sources.
type Providers struct {
	Words     WordRanker
	Emoji     *EmojiProvider
	Clipboard *ClipboardProvider
	Feedback  dictionary.Feedback
}

// Suggest returns word candidates, then the clip, then emoji, without
// duplicates and at most limit in total.
func (p *Providers) Suggest(composing string, snap *dictionary.Snapshot, limit int) []Candidate {
	if limit <= 0 {
		return nil
	}
	var all []Candidate
	if p.Words != nil {
		for _, c := range p.Words.Rank(composing, snap, limit) {
			c.Provider = ProviderWord
			all = append(all, c)
		}
	}
	if p.Clipboard != nil {
		all = append(all, p.Clipboard.Suggest(composing)...)
	}
	if p.Emoji != nil {
		all = append(all, p.Emoji.Suggest(composing, limit)...)
	}

	filter := utils.NewSuggestionFilter()
	out := make([]Candidate, 0, min(limit, len(all)))
	for _, c := range all {
		if len(out) == limit {
			break
		}
		if filter.ShouldInclude(c.Word) {
			out = append(out, c)
		}
	}
	return out
}

// Notify tells the provider that produced c that the user picked it. Word
// picks are forwarded to Feedback for locale.
func (p *Providers) Notify(ctx context.Context, c Candidate, locale string) error {
	switch c.Provider {
	case ProviderWord:
		if p.Feedback == nil {
			return nil
		}
		return p.Feedback.WordUsed(ctx, c.Word, locale)
	case ProviderEmoji:
		if p.Emoji != nil {
			p.Emoji.Used(c.Word)
		}
	case ProviderClipboard:
		if p.Clipboard != nil {
			p.Clipboard.Consume()
		}
	}
	return nil
}
