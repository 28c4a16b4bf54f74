// Package dictionary is the word source shared by the glide classifier and
// the typed suggestion ranker: a static word list merged with the user's
// dictionary, published as immutable snapshots.
package dictionary

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// MaxFrequency is the top of the 0-255 frequency scale.
const MaxFrequency = 255

// Entry is a word with its frequency.
type Entry struct {
	Word      string
	Frequency int
	User      bool
}

// ClampFrequency forces f into 0..MaxFrequency.
func ClampFrequency(f int) int {
	return max(0, min(f, MaxFrequency))
}

// UserSource supplies the persisted user dictionary for a locale.
type UserSource interface {
	Entries(ctx context.Context, locale string) ([]Entry, error)
}

// Feedback is told when the user picked a word so the owner of the user
// dictionary can promote or insert it. The engine never persists anything.
type Feedback interface {
	WordUsed(ctx context.Context, word, locale string) error
}

// UserLookup reads the stored frequency of one user word. Feedback hooks
// that implement it let the engine refresh a single entry after a pick
// instead of reloading the whole user dictionary.
type UserLookup interface {
	Frequency(ctx context.Context, word, locale string) (int, error)
}

// Snapshot is an immutable view of the merged dictionary.
type Snapshot struct {
	version  uint64
	wordSet  uint64
	entries  map[string]Entry
	trie     *patricia.Trie
	words    []string
	byLength map[int][]string
}

// Version changes whenever the merged dictionary changes, frequencies
// included.
func (s *Snapshot) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

// WordSet changes only when words are added or removed. Snapshots that
// differ in frequencies alone share it.
func (s *Snapshot) WordSet() uint64 {
	if s == nil {
		return 0
	}
	return s.wordSet
}

// Len returns the number of words.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// Lookup finds a word case-insensitively.
func (s *Snapshot) Lookup(word string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	e, ok := s.entries[strings.ToLower(word)]
	return e, ok
}

// Frequency returns the frequency of word, or 0 when unknown.
func (s *Snapshot) Frequency(word string) int {
	e, _ := s.Lookup(word)
	return e.Frequency
}

// Words returns every word in lexicographic order of its lowercase key.
// The slice is shared and must not be modified.
func (s *Snapshot) Words() []string {
	if s == nil {
		return nil
	}
	return s.words
}

// EachOfLength calls fn for every entry of n runes until fn returns false.
// Entries come most frequent first, in the order of the last full rebuild.
func (s *Snapshot) EachOfLength(n int, fn func(Entry) bool) {
	if s == nil {
		return
	}
	for _, k := range s.byLength[n] {
		if !fn(s.entries[k]) {
			return
		}
	}
}

// VisitPrefix calls fn for every entry whose lowercase form starts with
// prefix, the prefix itself included.
func (s *Snapshot) VisitPrefix(prefix string, fn func(Entry) error) error {
	if s == nil {
		return nil
	}
	return s.trie.VisitSubtree(patricia.Prefix(strings.ToLower(prefix)), func(p patricia.Prefix, _ patricia.Item) error {
		e, ok := s.entries[string(p)]
		if !ok {
			log.Errorf("Trie key %q has no entry", string(p))
			return nil
		}
		return fn(e)
	})
}

// Store owns the static and user word sets and publishes a new Snapshot on
// every change. Readers never take the lock.
type Store struct {
	mu      sync.Mutex
	static  map[string]Entry
	user    map[string]Entry
	version uint64
	wordSet uint64
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{
		static: make(map[string]Entry),
		user:   make(map[string]Entry),
	}
	s.rebuildLocked()
	return s
}

// Snapshot returns the current merged view.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// SetStatic replaces the static word set.
func (s *Store) SetStatic(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.static = make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e.Word == "" {
			continue
		}
		e.Frequency = ClampFrequency(e.Frequency)
		e.User = false
		s.static[strings.ToLower(e.Word)] = e
	}
	s.rebuildLocked()
}

// SetUser replaces the user word set.
func (s *Store) SetUser(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e.Word == "" {
			continue
		}
		e.Frequency = ClampFrequency(e.Frequency)
		e.User = true
		s.user[strings.ToLower(e.Word)] = e
	}
	s.rebuildLocked()
}

// AddUser inserts or replaces a single user entry. When the word is already
// known under the same spelling only its entry changes; the prefix index and
// word lists are shared with the previous snapshot.
func (s *Store) AddUser(word string, frequency int) {
	if word == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(word)
	s.user[key] = Entry{Word: word, Frequency: ClampFrequency(frequency), User: true}

	cur := s.current.Load()
	prev, ok := cur.entries[key]
	if !ok || prev.Word != word {
		s.rebuildLocked()
		return
	}
	entries := make(map[string]Entry, len(cur.entries))
	for k, e := range cur.entries {
		entries[k] = e
	}
	entries[key] = mergeEntry(s.static[key], s.user[key])

	s.version++
	s.current.Store(&Snapshot{
		version:  s.version,
		wordSet:  cur.wordSet,
		entries:  entries,
		trie:     cur.trie,
		words:    cur.words,
		byLength: cur.byLength,
	})
	log.Debugf("Published dictionary v%d: user word %q at %d", s.version, word, entries[key].Frequency)
}

// LoadUser replaces the user word set with what src holds for locale.
func (s *Store) LoadUser(ctx context.Context, src UserSource, locale string) error {
	entries, err := src.Entries(ctx, locale)
	if err != nil {
		return err
	}
	s.SetUser(entries)
	return nil
}

// mergeEntry resolves a key present in both sets. The user entry wins on
// spelling and origin; its frequency never drops below the static one, so a
// freshly used word is not demoted.
func mergeEntry(static, user Entry) Entry {
	if user.Word == "" {
		return static
	}
	user.Frequency = max(user.Frequency, static.Frequency)
	return user
}

func (s *Store) rebuildLocked() {
	merged := make(map[string]Entry, len(s.static)+len(s.user))
	for k, e := range s.static {
		merged[k] = e
	}
	for k, e := range s.user {
		merged[k] = mergeEntry(s.static[k], e)
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	trie := patricia.NewTrie()
	words := make([]string, len(keys))
	byLength := make(map[int][]string)
	for i, k := range keys {
		trie.Insert(patricia.Prefix(k), k)
		words[i] = merged[k].Word
		n := utf8.RuneCountInString(k)
		byLength[n] = append(byLength[n], k)
	}
	for _, bucket := range byLength {
		sort.SliceStable(bucket, func(i, j int) bool {
			return merged[bucket[i]].Frequency > merged[bucket[j]].Frequency
		})
	}

	s.version++
	s.wordSet++
	s.current.Store(&Snapshot{
		version:  s.version,
		wordSet:  s.wordSet,
		entries:  merged,
		trie:     trie,
		words:    words,
		byLength: byLength,
	})
	log.Debugf("Published dictionary v%d: %d static, %d user, %d merged", s.version, len(s.static), len(s.user), len(merged))
}
