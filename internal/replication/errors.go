package replication

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedReply is returned when the primary answers a handshake
	// step with something other than the expected status line.
	ErrUnexpectedReply = errors.New("replication: unexpected reply")
	// ErrMalformedFullResync is returned when the PSYNC reply cannot be parsed.
	ErrMalformedFullResync = errors.New("replication: malformed FULLRESYNC reply")
	// ErrNotPrimary is returned when a replica is asked to serve a resync.
	ErrNotPrimary = errors.New("replication: node is not a primary")
)

// StepError reports which handshake step failed.
type StepError struct {
	Step int
	Name string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("replication handshake step %d (%s): %v", e.Step, e.Name, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
