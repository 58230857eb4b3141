// Package memory provides the in-memory keyspace for redikv.
package memory

import (
	"bytes"
	"math"
	"sort"
	"time"

	"github.com/yndnr/redikv/pkg/cmap"
)

// Observer is notified of keyspace events. *metric.Registry implements it.
type Observer interface {
	KeyExpired()
}

// Store is a concurrent map from key to Entry.
type Store struct {
	items *cmap.Map[Entry]

	now      func() time.Time
	observer Observer
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the wall clock used for deadlines.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithObserver sets the keyspace event observer.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		items: cmap.New[Entry](),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get returns the value for key. An entry whose deadline has passed is
// removed and reported as absent.
//
// The returned slice is shared with the store and must not be modified.
func (s *Store) Get(key []byte) ([]byte, bool) {
	e, ok := s.items.Get(string(key))
	if !ok {
		return nil, false
	}
	nowMs := s.now().UnixMilli()
	if !e.ExpiredAt(nowMs) {
		return e.Value, true
	}

	// A concurrent Set may have replaced the entry since it was read.
	if s.items.DeleteIf(string(key), func(cur Entry) bool { return cur.ExpiredAt(nowMs) }) && s.observer != nil {
		s.observer.KeyExpired()
	}
	return nil, false
}

// Set stores value under key, replacing any previous entry. A positive ttl
// sets the deadline to now+ttl, computed once here; otherwise the entry
// never expires. key and value are copied.
func (s *Store) Set(key, value []byte, ttl time.Duration) {
	e := Entry{Value: bytes.Clone(value)}
	if e.Value == nil {
		e.Value = []byte{}
	}
	if ttl > 0 {
		e.ExpiresAt = deadline(s.now().UnixMilli(), ttl.Milliseconds())
	}
	s.items.Set(string(key), e)
}

// deadline saturates instead of wrapping into the past.
func deadline(nowMs, ttlMs int64) int64 {
	if ttlMs > math.MaxInt64-nowMs {
		return math.MaxInt64
	}
	return nowMs + ttlMs
}

// Len returns the number of entries, including expired entries that have
// not been accessed since their deadline.
func (s *Store) Len() int {
	return s.items.Count()
}

// Export returns a copy of every live entry, ordered by key.
func (s *Store) Export() []Item {
	nowMs := s.now().UnixMilli()
	out := make([]Item, 0, s.items.Count())
	s.items.Range(func(k string, e Entry) bool {
		if !e.ExpiredAt(nowMs) {
			out = append(out, Item{
				Key:       []byte(k),
				Value:     bytes.Clone(e.Value),
				ExpiresAt: e.ExpiresAt,
			})
		}
		return true
	})

	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Key, out[j].Key) < 0
	})
	return out
}

// Import stores items with their absolute deadlines, skipping items that
// are already expired. It returns the number of items stored.
func (s *Store) Import(items []Item) int {
	nowMs := s.now().UnixMilli()
	n := 0
	for _, it := range items {
		e := Entry{Value: bytes.Clone(it.Value), ExpiresAt: it.ExpiresAt}
		if e.ExpiredAt(nowMs) {
			continue
		}
		if e.Value == nil {
			e.Value = []byte{}
		}
		s.items.Set(string(it.Key), e)
		n++
	}
	return n
}
