package engine

import (
	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/suggest"
	lru "github.com/hashicorp/golang-lru/v2"
)

type rankKey struct {
	composing  string
	limit      int
	dictionary uint64
}

// cachedRanker memoizes typed rankings per dictionary version.
type cachedRanker struct {
	ranker *suggest.Ranker
	cache  *lru.Cache[rankKey, []suggest.Candidate]
}

func newCachedRanker(r *suggest.Ranker, size int) (*cachedRanker, error) {
	cache, err := lru.New[rankKey, []suggest.Candidate](size)
	if err != nil {
		return nil, err
	}
	return &cachedRanker{ranker: r, cache: cache}, nil
}

func (c *cachedRanker) Rank(composing string, snap *dictionary.Snapshot, limit int) []suggest.Candidate {
	key := rankKey{composing: composing, limit: limit, dictionary: snap.Version()}
	if hit, ok := c.cache.Get(key); ok {
		return append([]suggest.Candidate(nil), hit...)
	}
	out := c.ranker.Rank(composing, snap, limit)
	c.cache.Add(key, out)
	return append([]suggest.Candidate(nil), out...)
}

func (c *cachedRanker) purge() {
	c.cache.Purge()
}
