package resp

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Protocol limits.
const (
	// MaxArrayLen limits the number of elements in a request array.
	MaxArrayLen = 1024

	// MaxBulkLen limits the size of a single bulk string (512MB, as Redis does).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxTTLMillis is the largest PX that still fits in a time.Duration.
	MaxTTLMillis = math.MaxInt64 / int64(time.Millisecond)

	// maxHeaderLen limits "*<n>\r\n" and "$<n>\r\n" lines.
	maxHeaderLen = 32
)

var crlf = []byte("\r\n")

// Decode decodes every frame in buf. buf must contain complete frames only;
// running out of bytes inside a frame is reported as a framing error.
//
// On failure Decode returns the commands that preceded the bad frame along
// with a *FrameError.
func Decode(buf []byte) ([]Command, error) {
	var cmds []Command
	for len(buf) > 0 {
		cmd, n, err := decodeFrame(buf, true)
		if err != nil {
			return cmds, err
		}
		cmds = append(cmds, cmd)
		buf = buf[n:]
	}
	return cmds, nil
}

// Next decodes the first frame of buf and returns the number of bytes it
// used. When buf ends mid-frame Next returns ErrIncomplete and 0, and the
// caller should retry once more bytes have arrived.
//
// Any other error is a *FrameError; when it is Recoverable its Size is the
// number of bytes to skip before decoding the following frame.
func Next(buf []byte) (Command, int, error) {
	return decodeFrame(buf, false)
}

func decodeFrame(buf []byte, final bool) (Command, int, error) {
	args, n, err := parseFrame(buf, final)
	if err != nil {
		return nil, 0, err
	}
	cmd, err := toCommand(args, n)
	if err != nil {
		return nil, 0, err
	}
	return cmd, n, nil
}

// parseFrame splits one "*<n>" array of bulk strings into its arguments.
// The returned slices alias buf.
func parseFrame(buf []byte, final bool) ([][]byte, int, error) {
	short := func(inPayload bool) ([][]byte, int, error) {
		switch {
		case !final:
			return nil, 0, ErrIncomplete
		case inPayload:
			return nil, 0, framingError(ErrArgLenMismatch, "argument shorter than declared length")
		default:
			return nil, 0, framingError(ErrInvalidCommand, "truncated frame")
		}
	}

	if len(buf) == 0 {
		return short(false)
	}
	if buf[0] != '*' {
		return nil, 0, framingError(ErrInvalidCommand, fmt.Sprintf("expected '*', got %q", buf[0]))
	}

	line, pos, err := readHeader(buf, 1)
	if err != nil {
		if errors.Is(err, ErrIncomplete) {
			return short(false)
		}
		return nil, 0, err
	}
	count, err := strconv.Atoi(string(line))
	if err != nil || count < 1 {
		return nil, 0, framingError(ErrInvalidCommand, fmt.Sprintf("invalid array length %q", line))
	}
	if count > MaxArrayLen {
		return nil, 0, framingError(ErrInvalidCommand, fmt.Sprintf("array length %d exceeds limit %d", count, MaxArrayLen))
	}

	args := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		if pos >= len(buf) {
			return short(false)
		}
		if buf[pos] != '$' {
			return nil, 0, framingError(ErrInvalidCommand, fmt.Sprintf("argument %d is missing its '$' length prefix", i))
		}
		line, next, err := readHeader(buf, pos+1)
		if err != nil {
			if errors.Is(err, ErrIncomplete) {
				return short(false)
			}
			return nil, 0, err
		}
		size, err := strconv.Atoi(string(line))
		if err != nil || size < 0 {
			return nil, 0, framingError(ErrInvalidArgLen, fmt.Sprintf("argument %d has length %q", i, line))
		}
		if size > MaxBulkLen {
			return nil, 0, framingError(ErrInvalidArgLen, fmt.Sprintf("argument %d length %d exceeds limit", i, size))
		}

		end := next + size
		if end+len(crlf) > len(buf) {
			return short(true)
		}
		if !bytes.Equal(buf[end:end+len(crlf)], crlf) {
			return nil, 0, framingError(ErrArgLenMismatch, fmt.Sprintf("argument %d does not match declared length %d", i, size))
		}
		args = append(args, buf[next:end:end])
		pos = end + len(crlf)
	}
	return args, pos, nil
}

// readHeader returns the line starting at buf[start] up to CRLF and the
// offset just past the CRLF.
func readHeader(buf []byte, start int) ([]byte, int, error) {
	rest := buf[start:]
	idx := bytes.Index(rest, crlf)
	if idx < 0 {
		if len(rest) > maxHeaderLen {
			return nil, 0, framingError(ErrInvalidCommand, "header line too long")
		}
		return nil, 0, ErrIncomplete
	}
	if idx > maxHeaderLen {
		return nil, 0, framingError(ErrInvalidCommand, "header line too long")
	}
	return rest[:idx], start + idx + len(crlf), nil
}

func toCommand(args [][]byte, size int) (Command, error) {
	name := normalizeCommandName(args[0])
	switch name {
	case "PING":
		if len(args) != 1 {
			return nil, arityError(name, size)
		}
		return Ping{}, nil
	case "ECHO":
		if len(args) != 2 {
			return nil, arityError(name, size)
		}
		return Echo{Payload: args[1]}, nil
	case "GET":
		if len(args) != 2 {
			return nil, arityError(name, size)
		}
		return Get{Key: args[1]}, nil
	case "SET":
		return decodeSet(args, size)
	case "INFO":
		switch len(args) {
		case 1:
			return Info{}, nil
		case 2:
			return Info{Section: strings.ToLower(string(args[1]))}, nil
		}
		return nil, arityError(name, size)
	case "REPLCONF":
		if len(args) < 3 || (len(args)-1)%2 != 0 {
			return nil, arityError(name, size)
		}
		return ReplConf{Args: args[1:]}, nil
	case "PSYNC":
		if len(args) != 3 {
			return nil, arityError(name, size)
		}
		return Psync{ReplID: string(args[1]), Offset: string(args[2])}, nil
	default:
		return Unknown{Command: string(args[0])}, nil
	}
}

func decodeSet(args [][]byte, size int) (Command, error) {
	switch len(args) {
	case 3:
		return Set{Key: args[1], Value: args[2]}, nil
	case 5:
	default:
		return nil, arityError("SET", size)
	}

	if !strings.EqualFold(string(args[3]), "PX") {
		return nil, &FrameError{Err: ErrInvalidFormat, Detail: fmt.Sprintf("unsupported SET option %q", args[3]), Size: size}
	}
	ms, err := strconv.ParseInt(string(args[4]), 10, 64)
	if err != nil {
		return nil, &FrameError{Err: ErrInvalidFormat, Detail: "PX value is not an integer", Size: size}
	}
	if ms <= 0 || ms > MaxTTLMillis {
		return nil, &FrameError{Err: ErrInvalidFormat, Detail: "invalid expire time in 'set' command", Size: size}
	}
	return Set{Key: args[1], Value: args[2], TTLMillis: ms}, nil
}

func arityError(name string, size int) error {
	return &FrameError{
		Err:    ErrInvalidNumArgs,
		Detail: "'" + strings.ToLower(name) + "' command",
		Size:   size,
	}
}
