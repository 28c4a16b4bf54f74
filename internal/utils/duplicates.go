package utils

import (
	"strings"
)

// SuggestionFilter drops case-insensitive repeats while merging suggestion
// lists. It is not safe for concurrent use.
type SuggestionFilter struct {
	seenWords map[string]bool
}

// NewSuggestionFilter creates a filter that will exclude every word in skip.
func NewSuggestionFilter(skip ...string) *SuggestionFilter {
	seenWords := make(map[string]bool, len(skip))
	for _, s := range skip {
		seenWords[strings.ToLower(s)] = true
	}
	return &SuggestionFilter{seenWords: seenWords}
}

// ShouldInclude reports whether word was not seen before, and marks it seen.
func (f *SuggestionFilter) ShouldInclude(word string) bool {
	lowerWord := strings.ToLower(word)
	if f.seenWords[lowerWord] {
		return false
	}
	f.seenWords[lowerWord] = true
	return true
}
