package benchmark

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/redikv/internal/storage/memory"
)

// KeyCounts defines the keyspace sizes for benchmarking.
var KeyCounts = []int{1000, 10000, 100000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 10000}

// newKey generates a unique, sortable key.
func newKey() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, _ := ulid.New(ulid.Timestamp(time.Now()), entropy)
	return "key:" + strings.ToLower(id.String())
}

// prefillStore fills a store with count keys of valueSize bytes. Every
// other key carries a one hour TTL.
func prefillStore(store *memory.Store, count, valueSize int) []string {
	value := []byte(strings.Repeat("v", valueSize))
	keys := make([]string, count)
	for i := range keys {
		keys[i] = newKey()
		ttl := time.Duration(0)
		if i%2 == 0 {
			ttl = time.Hour
		}
		store.Set([]byte(keys[i]), value, ttl)
	}
	return keys
}

func name(prefix string, n int) string {
	return fmt.Sprintf("%s_%d", prefix, n)
}
