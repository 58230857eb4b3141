// Package memory provides the in-memory keyspace for redikv.
//
// Keys map to byte values with an optional absolute expiration deadline in
// Unix milliseconds. Expiration is lazy: an entry past its deadline is
// removed by the Get that observes it, never by a background sweep.
//
// Thread Safety:
//
// Entries live in a sharded map (pkg/cmap). Each call locks only the shard
// owning its key, and never across calls. A Get that finds an expired
// entry removes it only if the entry is still expired under the shard's
// write lock, so a concurrent Set is never lost. Export visits shards one
// at a time.
package memory
