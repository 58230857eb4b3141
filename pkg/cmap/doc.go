// Package cmap provides a string-keyed concurrent map split into
// independently locked shards.
//
// Each operation locks only the shard owning its key, so operations on
// different keys rarely contend. A single-key operation is atomic; Range
// and Count visit shards one at a time and are not a consistent view of
// the whole map.
package cmap
