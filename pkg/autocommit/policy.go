package autocommit

import (
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/glideserve/pkg/suggest"
)

// Rule names the check that settled a decision.
type Rule int

const (
	RuleNone Rule = iota
	RuleVeto
	RuleEligible
	RuleHighConfidenceTypo
	RuleNearMatch
	RulePrefixCompletion
	RuleTierOverride
	RuleFallback
)

func (r Rule) String() string {
	switch r {
	case RuleVeto:
		return "veto"
	case RuleEligible:
		return "eligible"
	case RuleHighConfidenceTypo:
		return "high-confidence-typo"
	case RuleNearMatch:
		return "near-match"
	case RulePrefixCompletion:
		return "prefix-completion"
	case RuleTierOverride:
		return "tier-override"
	case RuleFallback:
		return "fallback"
	}
	return "none"
}

// Decision is the outcome for one candidate.
type Decision struct {
	Commit    bool
	Candidate suggest.Candidate
	Rule      Rule
}

const (
	nearMatchSlack       = 0.1
	prefixSlack          = 0.15
	maxCompletionLength  = 4
	conservativeOverride = 0.95
	aggressiveOverride   = 0.6
	aggressiveMaxEdit    = 2
	aggressiveMinLength  = 2
	fallbackConfidence   = 0.95
)

// Decide reports whether c should replace composing under tier. The first
// matching rule wins. Emoji and clipboard text never commit.
func Decide(c suggest.Candidate, composing string, tier Tier) Decision {
	no := Decision{Candidate: c, Rule: RuleNone}
	if c.Word == "" {
		return no
	}
	if vetoedProvider(c.Provider) || ContainsEmoji(c.Word) {
		no.Rule = RuleVeto
		return no
	}
	commit := func(r Rule) Decision {
		return Decision{Commit: true, Candidate: c, Rule: r}
	}

	th := tier.Thresholds()
	word := strings.ToLower(c.Word)
	typed := strings.ToLower(strings.TrimSpace(composing))
	typedLen := utf8.RuneCountInString(typed)
	lengthDiff := utf8.RuneCountInString(word) - typedLen

	dist := c.Distance
	if c.Kind != suggest.KindFuzzy {
		dist = suggest.EditDistance(typed, word)
	}
	conf := c.Confidence

	switch {
	case c.EligibleForAutoCommit && !isSymbolic(c.Word):
		return commit(RuleEligible)
	case conf > th.MinConfidence && dist <= 1:
		return commit(RuleHighConfidenceTypo)
	case conf > th.MinConfidence-nearMatchSlack && dist <= th.MaxEditDistance &&
		abs(lengthDiff) <= 1 && typedLen >= th.MinWordLength:
		return commit(RuleNearMatch)
	case conf > th.MinConfidence-prefixSlack && typed != "" && strings.HasPrefix(word, typed) &&
		typedLen >= th.MinWordLength && lengthDiff <= maxCompletionLength:
		return commit(RulePrefixCompletion)
	}

	switch tier {
	case Conservative:
		if conf > conservativeOverride && word == typed {
			return commit(RuleTierOverride)
		}
	case Aggressive:
		if conf > aggressiveOverride && dist <= aggressiveMaxEdit && typedLen >= aggressiveMinLength {
			return commit(RuleTierOverride)
		}
	}

	if conf > fallbackConfidence {
		return commit(RuleFallback)
	}
	return no
}

// DecideTop applies Decide to the first candidate.
func DecideTop(candidates []suggest.Candidate, composing string, tier Tier) Decision {
	if len(candidates) == 0 {
		return Decision{}
	}
	return Decide(candidates[0], composing, tier)
}

func vetoedProvider(p suggest.ProviderKind) bool {
	return p == suggest.ProviderEmoji || p == suggest.ProviderClipboard
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
