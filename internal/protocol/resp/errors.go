package resp

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCommand reports a frame that is not an array of bulk strings.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrInvalidNumArgs reports a known command called with the wrong arity.
	ErrInvalidNumArgs = errors.New("wrong number of arguments")
	// ErrInvalidFormat reports a well-framed argument with an unusable value.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidArgLen reports a bulk length prefix that is not a non-negative integer.
	ErrInvalidArgLen = errors.New("invalid argument length")
	// ErrArgLenMismatch reports a bulk string whose bytes disagree with its declared length.
	ErrArgLenMismatch = errors.New("argument length mismatch")
	// ErrIncomplete reports that the buffer ends inside a frame.
	ErrIncomplete = errors.New("incomplete frame")
)

// FrameError is a decode failure for one frame.
//
// Size is the number of bytes the frame occupied when its boundary is
// still known (arity and format errors). It is zero for framing errors,
// after which the rest of the stream cannot be trusted.
type FrameError struct {
	Err    error
	Detail string
	Size   int
}

func (e *FrameError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Detail)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Recoverable reports whether decoding can resume after the failed frame.
func (e *FrameError) Recoverable() bool {
	return e.Size > 0
}

// Kind returns a short label for metrics and logs.
func (e *FrameError) Kind() string {
	return Kind(e.Err)
}

// Kind maps a decode error to a short label.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCommand):
		return "invalid_command"
	case errors.Is(err, ErrInvalidNumArgs):
		return "invalid_num_args"
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrInvalidArgLen):
		return "invalid_arg_len"
	case errors.Is(err, ErrArgLenMismatch):
		return "arg_len_mismatch"
	case errors.Is(err, ErrIncomplete):
		return "incomplete"
	default:
		return "other"
	}
}

func framingError(err error, detail string) *FrameError {
	return &FrameError{Err: err, Detail: detail}
}
