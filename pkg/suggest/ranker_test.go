package suggest

import (
	"context"
	"testing"

	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func snapshotOf(entries ...dictionary.Entry) *dictionary.Snapshot {
	s := dictionary.NewStore()
	s.SetStatic(entries)
	return s.Snapshot()
}

func words(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Word
	}
	return out
}

func TestExactOutranksFrequentPrefix(t *testing.T) {
	snap := snapshotOf(
		dictionary.Entry{Word: "the", Frequency: 200},
		dictionary.Entry{Word: "them", Frequency: 255},
	)
	got := NewRanker(DefaultOptions()).Rank("the", snap, 5)
	require.Len(t, got, 2)
	assert.Equal(t, "the", got[0].Word)
	assert.Equal(t, KindExact, got[0].Kind)
	assert.Equal(t, 1.0, got[0].Confidence)
	assert.True(t, got[0].EligibleForAutoCommit)
	assert.Equal(t, "them", got[1].Word)
	assert.Equal(t, KindPrefix, got[1].Kind)
}

func TestPrefixScenario(t *testing.T) {
	snap := snapshotOf(
		dictionary.Entry{Word: "hello", Frequency: 200},
		dictionary.Entry{Word: "help", Frequency: 180},
		dictionary.Entry{Word: "hell", Frequency: 150},
	)
	got := NewRanker(DefaultOptions()).Rank("hel", snap, 5)
	assert.Equal(t, []string{"hell", "help", "hello"}, words(got))
	for _, c := range got {
		assert.False(t, c.EligibleForAutoCommit, c.Word)
		assert.Equal(t, KindPrefix, c.Kind)
	}
	assert.InDelta(t, 0.675, got[0].Confidence, 1e-9)
	assert.InDelta(t, 0.54, got[2].Confidence, 1e-9)
}

func TestPrefixEligibility(t *testing.T) {
	snap := snapshotOf(
		dictionary.Entry{Word: "helps", Frequency: 100},
		dictionary.Entry{Word: "helpful", Frequency: 100},
	)
	got := NewRanker(DefaultOptions()).Rank("help", snap, 5)
	require.Len(t, got, 2)
	assert.Equal(t, "helps", got[0].Word)
	assert.True(t, got[0].EligibleForAutoCommit, "4/5 typed")
	assert.False(t, got[1].EligibleForAutoCommit, "4/7 typed")
}

func TestPrefixFrequencyFloor(t *testing.T) {
	snap := snapshotOf(
		dictionary.Entry{Word: "helium", Frequency: 10},
		dictionary.Entry{Word: "helix", Frequency: 30},
		dictionary.Entry{Word: "heavy", Frequency: 22},
	)
	r := NewRanker(DefaultOptions())
	assert.Equal(t, []string{"helix"}, words(r.Rank("hel", snap, 5)))
	assert.Equal(t, []string{"helix"}, words(r.Rank("he", snap, 5)), "short prefixes need 24")

	s := dictionary.NewStore()
	s.AddUser("helium", 1)
	assert.Equal(t, []string{"helium"}, words(r.Rank("hel", s.Snapshot(), 5)), "user words skip the floor")
}

func TestFuzzyTypos(t *testing.T) {
	snap := snapshotOf(
		dictionary.Entry{Word: "the", Frequency: 255},
		dictionary.Entry{Word: "cat", Frequency: 100},
		dictionary.Entry{Word: "hat", Frequency: 100},
		dictionary.Entry{Word: "world", Frequency: 120},
		dictionary.Entry{Word: "elephant", Frequency: 80},
	)
	r := NewRanker(DefaultOptions())

	got := r.Rank("teh", snap, 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "the", got[0].Word)
	assert.Equal(t, KindFuzzy, got[0].Kind)
	assert.Equal(t, 1, got[0].Distance)
	assert.InDelta(t, 0.9, got[0].Confidence, 1e-9)
	assert.False(t, got[0].EligibleForAutoCommit)

	got = r.Rank("wprld", snap, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "world", got[0].Word)

	got = r.Rank("wrld", snap, 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "world", got[0].Word)
	assert.Equal(t, 1, got[0].Distance)

	got = r.Rank("elepant", snap, 5)
	assert.Contains(t, words(got), "elephant")

	assert.Empty(t, r.Rank("zzzzzzzz", snap, 5))
}

func TestFuzzyDistanceTwoForLongWords(t *testing.T) {
	snap := snapshotOf(dictionary.Entry{Word: "keyboard", Frequency: 0})
	got := NewRanker(DefaultOptions()).Rank("kyboad", snap, 5)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Distance)
	assert.InDelta(t, 0.6, got[0].Confidence, 1e-9)
}

func TestFuzzyScanCap(t *testing.T) {
	snap := snapshotOf(
		dictionary.Entry{Word: "cart", Frequency: 10},
		dictionary.Entry{Word: "care", Frequency: 200},
		dictionary.Entry{Word: "cars", Frequency: 100},
		dictionary.Entry{Word: "carts", Frequency: 255},
		dictionary.Entry{Word: "caravan", Frequency: 255},
	)

	all := NewRanker(DefaultOptions()).Rank("carx", snap, 10)
	assert.ElementsMatch(t, []string{"care", "cars", "cart", "carts"}, words(all))

	opts := DefaultOptions()
	opts.MaxScanned = 2
	capped := NewRanker(opts).Rank("carx", snap, 10)
	assert.ElementsMatch(t, []string{"care", "cars"}, words(capped), "same length, most frequent first")
}

func TestFuzzyLengths(t *testing.T) {
	assert.Equal(t, []int{2, 1, 3}, fuzzyLengths(2))
	assert.Equal(t, []int{4, 3, 5, 6}, fuzzyLengths(4))
	assert.Equal(t, []int{7, 6, 8, 5, 9}, fuzzyLengths(7))
}

func TestShortInputModes(t *testing.T) {
	snap := snapshotOf(
		dictionary.Entry{Word: "a", Frequency: 255},
		dictionary.Entry{Word: "an", Frequency: 250},
		dictionary.Entry{Word: "i", Frequency: 255},
		dictionary.Entry{Word: "in", Frequency: 250},
		dictionary.Entry{Word: "it", Frequency: 250},
		dictionary.Entry{Word: "bus", Frequency: 250},
	)
	r := NewRanker(DefaultOptions())

	got := r.Rank("a", snap, 10)
	assert.Equal(t, []string{"a", "an"}, words(got), "single letters never fuzz")

	got = r.Rank("ib", snap, 10)
	for _, c := range got {
		assert.LessOrEqual(t, c.Distance, 1)
	}
	assert.NotContains(t, words(got), "bus")
}

func TestCapitalizationCarryOver(t *testing.T) {
	snap := snapshotOf(dictionary.Entry{Word: "hello", Frequency: 200})
	r := NewRanker(DefaultOptions())
	assert.Equal(t, "Hello", r.Rank("Hel", snap, 1)[0].Word)
	assert.Equal(t, "HELLO", r.Rank("HEL", snap, 1)[0].Word)
	assert.Equal(t, "hello", r.Rank("hel", snap, 1)[0].Word)
}

func TestRankRejectsNoise(t *testing.T) {
	snap := snapshotOf(dictionary.Entry{Word: "www", Frequency: 200}, dictionary.Entry{Word: "123", Frequency: 200})
	r := NewRanker(DefaultOptions())
	assert.Nil(t, r.Rank("123", snap, 5))
	assert.Nil(t, r.Rank("www", snap, 5))
	assert.Nil(t, r.Rank("a$", snap, 5))
	assert.Nil(t, r.Rank("", snap, 5))
	assert.Nil(t, r.Rank("www", snap, 0))
	assert.Nil(t, r.Rank("hello", dictionary.NewStore().Snapshot(), 5))

	open := NewRanker(Options{FilterInput: false})
	assert.NotEmpty(t, open.Rank("www", snap, 5))
}

func TestRankTruncatesAndUserFlag(t *testing.T) {
	s := dictionary.NewStore()
	s.SetStatic([]dictionary.Entry{
		{Word: "car", Frequency: 100},
		{Word: "cart", Frequency: 100},
		{Word: "carts", Frequency: 100},
	})
	s.AddUser("cargo", 5)
	got := NewRanker(DefaultOptions()).Rank("car", s.Snapshot(), 3)
	require.Len(t, got, 3)
	assert.Equal(t, "car", got[0].Word)

	got = NewRanker(DefaultOptions()).Rank("carg", s.Snapshot(), 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "cargo", got[0].Word)
	assert.True(t, got[0].FromUserDictionary)
}

type recordingFeedback struct {
	words   []string
	locales []string
}

func (f *recordingFeedback) WordUsed(_ context.Context, word, locale string) error {
	f.words = append(f.words, word)
	f.locales = append(f.locales, locale)
	return nil
}

func TestProvidersMergeAndNotify(t *testing.T) {
	snap := snapshotOf(
		dictionary.Entry{Word: "fire", Frequency: 200},
		dictionary.Entry{Word: "firefly", Frequency: 100},
	)
	fb := &recordingFeedback{}
	p := &Providers{
		Words:     NewRanker(DefaultOptions()),
		Emoji:     NewEmojiProvider(),
		Clipboard: NewClipboardProvider(),
		Feedback:  fb,
	}
	p.Clipboard.SetText("Firewall rules")

	got := p.Suggest("fire", snap, 10)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"fire", "firefly", "Firewall rules", "🔥"}, words(got))
	assert.Equal(t, ProviderWord, got[0].Provider)
	assert.Equal(t, ProviderClipboard, got[2].Provider)
	assert.Equal(t, ProviderEmoji, got[3].Provider)

	assert.Len(t, p.Suggest("fire", snap, 2), 2)

	require.NoError(t, p.Notify(context.Background(), got[0], "en_US"))
	assert.Equal(t, []string{"fire"}, fb.words)
	assert.Equal(t, []string{"en_US"}, fb.locales)

	require.NoError(t, p.Notify(context.Background(), got[3], "en_US"))
	assert.Equal(t, []string{"🔥"}, p.Emoji.Recent())

	require.NoError(t, p.Notify(context.Background(), got[2], "en_US"))
	assert.Empty(t, p.Clipboard.Suggest("fire"))
}

func TestEmojiProvider(t *testing.T) {
	e := NewEmojiProvider()
	assert.Nil(t, e.Suggest(":s", 5))
	got := e.Suggest(":sm", 5)
	require.Len(t, got, 1)
	assert.Equal(t, "😄", got[0].Word)

	got = e.Suggest("th", 5)
	assert.Equal(t, []string{"👍", "🤔"}, words(got))

	e.Used("🤔")
	got = e.Suggest("th", 5)
	assert.Equal(t, "🤔", got[0].Word)

	for i := 0; i < 20; i++ {
		e.Used(string(rune('a' + i)))
	}
	assert.Len(t, e.Recent(), maxRecentEmoji)
}
