package engine

import (
	"sync/atomic"
	"time"
)

// Published is a result together with the sequence number of the request
// that produced it.
type Published[T any] struct {
	Seq   uint64
	Value T
	At    time.Time
}

// Publisher holds the newest result by request sequence. A slower, older
// computation finishing late never replaces a newer one.
type Publisher[T any] struct {
	current atomic.Pointer[Published[T]]
}

// Publish stores value if seq is newer than the published sequence and
// reports whether it did.
func (p *Publisher[T]) Publish(seq uint64, value T) bool {
	next := &Published[T]{Seq: seq, Value: value, At: time.Now()}
	for {
		cur := p.current.Load()
		if cur != nil && cur.Seq >= seq {
			return false
		}
		if p.current.CompareAndSwap(cur, next) {
			return true
		}
	}
}

// Latest returns the published result, if any.
func (p *Publisher[T]) Latest() (Published[T], bool) {
	cur := p.current.Load()
	if cur == nil {
		return Published[T]{}, false
	}
	return *cur, true
}

// Seq returns the published sequence, 0 when nothing was published.
func (p *Publisher[T]) Seq() uint64 {
	if cur := p.current.Load(); cur != nil {
		return cur.Seq
	}
	return 0
}
