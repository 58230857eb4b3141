package memory

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingObserver struct {
	mu      sync.Mutex
	expired int
}

func (o *countingObserver) KeyExpired() {
	o.mu.Lock()
	o.expired++
	o.mu.Unlock()
}

func TestStore_GetSet(t *testing.T) {
	s := New()

	t.Run("missing key", func(t *testing.T) {
		_, ok := s.Get([]byte("missing"))
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		s.Set([]byte("mykey"), []byte("myvalue"), 0)
		v, ok := s.Get([]byte("mykey"))
		require.True(t, ok)
		assert.Equal(t, []byte("myvalue"), v)
	})

	t.Run("last write wins", func(t *testing.T) {
		s.Set([]byte("k"), []byte("old"), 0)
		s.Set([]byte("k"), []byte("new"), 0)
		v, ok := s.Get([]byte("k"))
		require.True(t, ok)
		assert.Equal(t, []byte("new"), v)
	})

	t.Run("empty value is present", func(t *testing.T) {
		s.Set([]byte("empty"), nil, 0)
		v, ok := s.Get([]byte("empty"))
		require.True(t, ok)
		assert.NotNil(t, v)
		assert.Empty(t, v)
	})

	t.Run("binary keys and values", func(t *testing.T) {
		key := []byte{0x00, 0xff, '\r', '\n'}
		s.Set(key, []byte{0x01, 0x02}, 0)
		v, ok := s.Get(key)
		require.True(t, ok)
		assert.Equal(t, []byte{0x01, 0x02}, v)
	})
}

func TestStore_SetCopiesInput(t *testing.T) {
	s := New()
	key := []byte("key")
	val := []byte("value")

	s.Set(key, val, 0)
	copy(key, "xxx")
	copy(val, "zzzzz")

	v, ok := s.Get([]byte("key"))
	require.True(t, ok)
	assert.Equal(t, []byte("value"), v)
}

func TestStore_TTL(t *testing.T) {
	clock := newFakeClock()
	obs := &countingObserver{}
	s := New(WithClock(clock.Now), WithObserver(obs))

	s.Set([]byte("k"), []byte("v"), 100*time.Millisecond)

	clock.Advance(99 * time.Millisecond)
	v, ok := s.Get([]byte("k"))
	require.True(t, ok, "before deadline")
	assert.Equal(t, []byte("v"), v)

	clock.Advance(1 * time.Millisecond)
	_, ok = s.Get([]byte("k"))
	assert.True(t, ok, "at the deadline the entry is still live")

	clock.Advance(1 * time.Millisecond)
	_, ok = s.Get([]byte("k"))
	assert.False(t, ok, "after deadline")
	assert.Equal(t, 0, s.Len(), "expired entry is removed on access")

	_, ok = s.Get([]byte("k"))
	assert.False(t, ok, "expiry is idempotent")
	assert.Equal(t, 1, obs.expired)
}

func TestStore_LongestTTL(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))

	s.Set([]byte("k"), []byte("v"), time.Duration(math.MaxInt64))
	clock.Advance(100 * 365 * 24 * time.Hour)
	_, ok := s.Get([]byte("k"))
	assert.True(t, ok)
}

func TestStore_DeadlineSaturates(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(math.MaxInt64 - 1000)}
	s := New(WithClock(clock.Now))

	s.Set([]byte("k"), []byte("v"), time.Hour)
	clock.Advance(time.Millisecond)
	_, ok := s.Get([]byte("k"))
	assert.True(t, ok, "a deadline past the clock range must not wrap into the past")

	items := s.Export()
	require.Len(t, items, 1)
	assert.Equal(t, int64(math.MaxInt64), items[0].ExpiresAt)
}

func TestStore_DeadlineFixedAtWrite(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))

	s.Set([]byte("k"), []byte("v"), 50*time.Millisecond)
	clock.Advance(40 * time.Millisecond)

	// Reading does not extend the deadline.
	_, ok := s.Get([]byte("k"))
	require.True(t, ok)
	clock.Advance(20 * time.Millisecond)
	_, ok = s.Get([]byte("k"))
	assert.False(t, ok)
}

func TestStore_OverwriteClearsTTL(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))

	s.Set([]byte("k"), []byte("v1"), 10*time.Millisecond)
	s.Set([]byte("k"), []byte("v2"), 0)
	clock.Advance(time.Hour)

	v, ok := s.Get([]byte("k"))
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), v)
}

func TestStore_NoTTLNeverExpires(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))

	s.Set([]byte("forever"), []byte("v"), 0)
	clock.Advance(100 * 365 * 24 * time.Hour)

	_, ok := s.Get([]byte("forever"))
	assert.True(t, ok)
}

func TestStore_ExportImport(t *testing.T) {
	clock := newFakeClock()
	src := New(WithClock(clock.Now))

	src.Set([]byte("b"), []byte("2"), 0)
	src.Set([]byte("a"), []byte("1"), time.Minute)
	src.Set([]byte("gone"), []byte("x"), time.Millisecond)
	clock.Advance(2 * time.Millisecond)

	items := src.Export()
	require.Len(t, items, 2)
	assert.Equal(t, []byte("a"), items[0].Key)
	assert.Equal(t, clock.Now().Add(-2*time.Millisecond).Add(time.Minute).UnixMilli(), items[0].ExpiresAt)
	assert.Equal(t, []byte("b"), items[1].Key)
	assert.Zero(t, items[1].ExpiresAt)

	dst := New(WithClock(clock.Now))
	n := dst.Import(append(items, Item{Key: []byte("stale"), Value: []byte("x"), ExpiresAt: 1}))
	assert.Equal(t, 2, n)

	v, ok := dst.Get([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	clock.Advance(time.Minute)
	_, ok = dst.Get([]byte("a"))
	assert.False(t, ok, "imported deadline is absolute")
}

func TestStore_Concurrent(t *testing.T) {
	s := New()
	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := []byte(fmt.Sprintf("w%d-k%d", w, i))
				s.Set(key, key, time.Hour)
				v, ok := s.Get(key)
				if !ok || string(v) != string(key) {
					t.Errorf("read-after-write failed for %s", key)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, s.Len())
}
