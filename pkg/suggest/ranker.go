// Package suggest ranks dictionary words against the text being typed: exact
// and prefix matches from the trie, fuzzy matches by edit distance, and the
// emoji and clipboard providers merged behind a fixed provider set.
package suggest

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/glideserve/internal/utils"
	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/charmbracelet/log"
)

// MatchKind is how a candidate relates to the composing text.
type MatchKind int

const (
	KindExact MatchKind = iota
	KindPrefix
	KindFuzzy
)

func (k MatchKind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindPrefix:
		return "prefix"
	case KindFuzzy:
		return "fuzzy"
	}
	return "unknown"
}

// Candidate is a typed-text suggestion. Higher confidence is better.
type Candidate struct {
	Word                  string
	Confidence            float64
	Kind                  MatchKind
	Distance              int
	Frequency             int
	EligibleForAutoCommit bool
	FromUserDictionary    bool
	// Provider routes feedback back to the source of the candidate.
	Provider ProviderKind
}

// Options tunes the ranker. Zero values take the defaults.
type Options struct {
	PrefixWeight            float64
	PrefixEligibleRatio     float64
	PrefixEligibleMinLength int
	MinFrequency            int
	MinShortFrequency       int
	FuzzyBase               float64
	FuzzyDistancePenalty    float64
	TypoBonus               float64
	FrequencyBonus          float64
	FuzzyMaxConfidence      float64
	FilterInput             bool
	// MaxScanned caps the words examined for fuzzy matches, nearest
	// lengths and most frequent first. 0 scans every candidate length.
	MaxScanned int
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		PrefixWeight:            0.9,
		PrefixEligibleRatio:     0.8,
		PrefixEligibleMinLength: 4,
		MinFrequency:            20,
		MinShortFrequency:       24,
		FuzzyBase:               0.75,
		FuzzyDistancePenalty:    0.15,
		TypoBonus:               0.05,
		FrequencyBonus:          0.1,
		FuzzyMaxConfidence:      0.95,
		FilterInput:             true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PrefixWeight <= 0 {
		o.PrefixWeight = d.PrefixWeight
	}
	if o.PrefixEligibleRatio <= 0 {
		o.PrefixEligibleRatio = d.PrefixEligibleRatio
	}
	if o.PrefixEligibleMinLength <= 0 {
		o.PrefixEligibleMinLength = d.PrefixEligibleMinLength
	}
	if o.FuzzyBase <= 0 {
		o.FuzzyBase = d.FuzzyBase
	}
	if o.FuzzyDistancePenalty <= 0 {
		o.FuzzyDistancePenalty = d.FuzzyDistancePenalty
	}
	if o.FuzzyMaxConfidence <= 0 {
		o.FuzzyMaxConfidence = d.FuzzyMaxConfidence
	}
	return o
}

// Ranker matches composing text against a dictionary snapshot. It holds no
// mutable state and is safe for concurrent use.
type Ranker struct {
	opts Options
}

// NewRanker creates a ranker.
func NewRanker(opts Options) *Ranker {
	return &Ranker{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (r *Ranker) Options() Options {
	return r.opts
}

// Rank returns up to limit candidates for composing: the exact match first,
// then prefix completions, then fuzzy matches, each group by confidence.
// One-rune input gets no fuzzy matches and two-rune input only distance 1.
func (r *Ranker) Rank(composing string, snap *dictionary.Snapshot, limit int) []Candidate {
	composing = strings.TrimSpace(composing)
	if limit <= 0 || composing == "" || snap.Len() == 0 {
		return nil
	}
	if r.opts.FilterInput && !utils.IsValidInput(composing) {
		log.Debugf("Rejected input %q", composing)
		return nil
	}

	lower := strings.ToLower(composing)
	input := []rune(lower)
	n := len(input)

	var exact []Candidate
	if e, ok := snap.Lookup(lower); ok {
		exact = append(exact, Candidate{
			Word:                  e.Word,
			Confidence:            1.0,
			Kind:                  KindExact,
			Frequency:             e.Frequency,
			EligibleForAutoCommit: true,
			FromUserDictionary:    e.User,
		})
	}

	minFreq := r.opts.MinFrequency
	if n <= 2 || utils.IsRepetitive(lower) {
		minFreq = r.opts.MinShortFrequency
	}
	seen := map[string]bool{lower: true}

	var prefix []Candidate
	err := snap.VisitPrefix(lower, func(e dictionary.Entry) error {
		key := strings.ToLower(e.Word)
		if seen[key] {
			return nil
		}
		if !e.User && e.Frequency < minFreq {
			return nil
		}
		seen[key] = true
		ratio := float64(n) / float64(utf8.RuneCountInString(e.Word))
		prefix = append(prefix, Candidate{
			Word:                  e.Word,
			Confidence:            r.opts.PrefixWeight * ratio,
			Kind:                  KindPrefix,
			Frequency:             e.Frequency,
			EligibleForAutoCommit: ratio >= r.opts.PrefixEligibleRatio && n >= r.opts.PrefixEligibleMinLength,
			FromUserDictionary:    e.User,
		})
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting prefix %q: %v", lower, err)
	}

	var fuzzy []Candidate
	if n >= 2 {
		fuzzy = r.fuzzy(input, snap, seen)
	}

	sortGroup(prefix)
	sortGroup(fuzzy)

	out := make([]Candidate, 0, min(limit, len(exact)+len(prefix)+len(fuzzy)))
	for _, group := range [][]Candidate{exact, prefix, fuzzy} {
		for _, c := range group {
			if len(out) == limit {
				break
			}
			c.Word = ApplyCapitalization(c.Word, composing)
			out = append(out, c)
		}
	}
	return out
}

// fuzzyLengths lists the word lengths worth scanning for an input of n
// runes, nearest first. Distance 2 is only allowed for words of 5+ runes.
func fuzzyLengths(n int) []int {
	out := []int{n, n - 1, n + 1}
	if n > 2 {
		if n-2 >= 5 {
			out = append(out, n-2)
		}
		out = append(out, n+2)
	}
	return out
}

func (r *Ranker) fuzzy(input []rune, snap *dictionary.Snapshot, seen map[string]bool) []Candidate {
	var out []Candidate
	scanned := 0
	visit := func(e dictionary.Entry) bool {
		if r.opts.MaxScanned > 0 && scanned >= r.opts.MaxScanned {
			return false
		}
		scanned++
		key := strings.ToLower(e.Word)
		if seen[key] {
			return true
		}
		word := []rune(key)

		maxDist := 1
		if len(word) >= 5 {
			maxDist = 2
		}
		if len(input) <= 2 {
			maxDist = 1
		}
		if abs(len(word)-len(input)) > maxDist {
			return true
		}

		typo := isTypoPattern(input, word)
		dist := BoundedEditDistance(input, word, maxDist)
		if IsAdjacentSwap(input, word) {
			dist = 1
		}
		if dist > maxDist {
			return true
		}

		conf := r.opts.FuzzyBase - r.opts.FuzzyDistancePenalty*float64(dist-1)
		if typo {
			conf += r.opts.TypoBonus
		}
		conf += r.opts.FrequencyBonus * float64(e.Frequency) / dictionary.MaxFrequency
		conf = min(conf, r.opts.FuzzyMaxConfidence)

		seen[key] = true
		out = append(out, Candidate{
			Word:               e.Word,
			Confidence:         conf,
			Kind:               KindFuzzy,
			Distance:           dist,
			Frequency:          e.Frequency,
			FromUserDictionary: e.User,
		})
		return true
	}
	for _, n := range fuzzyLengths(len(input)) {
		if n < 1 {
			continue
		}
		snap.EachOfLength(n, visit)
		if r.opts.MaxScanned > 0 && scanned >= r.opts.MaxScanned {
			log.Debugf("Fuzzy scan stopped after %d words", scanned)
			break
		}
	}
	return out
}

// sortGroup orders by confidence, then shorter words, then alphabetically.
func sortGroup(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Confidence != cs[j].Confidence {
			return cs[i].Confidence > cs[j].Confidence
		}
		li, lj := utf8.RuneCountInString(cs[i].Word), utf8.RuneCountInString(cs[j].Word)
		if li != lj {
			return li < lj
		}
		return cs[i].Word < cs[j].Word
	})
}

// ApplyCapitalization upper-cases the letters of word at the positions where
// typed was upper-case. An all-caps input of more than one letter upper-cases
// the whole word.
func ApplyCapitalization(word, typed string) string {
	capitals := make([]bool, 0, len(typed))
	upper, letters := 0, 0
	for _, r := range typed {
		isUpper := unicode.IsUpper(r)
		capitals = append(capitals, isUpper)
		if unicode.IsLetter(r) {
			letters++
			if isUpper {
				upper++
			}
		}
	}
	if upper == 0 {
		return word
	}
	if letters > 1 && upper == letters {
		return strings.ToUpper(word)
	}

	out := []rune(word)
	for i := 0; i < len(out) && i < len(capitals); i++ {
		if capitals[i] {
			out[i] = unicode.ToUpper(out[i])
		}
	}
	return string(out)
}
