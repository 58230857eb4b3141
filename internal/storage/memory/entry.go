package memory

// Entry is a stored value with its optional deadline.
type Entry struct {
	Value []byte
	// ExpiresAt is the absolute deadline in Unix milliseconds; 0 means none.
	ExpiresAt int64
}

// HasExpiry reports whether the entry carries a deadline.
func (e Entry) HasExpiry() bool {
	return e.ExpiresAt != 0
}

// ExpiredAt reports whether the deadline is strictly before nowMs.
func (e Entry) ExpiredAt(nowMs int64) bool {
	return e.HasExpiry() && e.ExpiresAt < nowMs
}

// Item is an exported entry, used for snapshot transfer.
type Item struct {
	Key       []byte
	Value     []byte
	ExpiresAt int64
}
