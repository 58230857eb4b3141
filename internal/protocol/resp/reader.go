package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrProtocol reports a malformed reply read from a peer.
var ErrProtocol = errors.New("resp: protocol error")

// MaxLineLen limits status and header lines read from a peer.
const MaxLineLen = 64 * 1024

// Reply type markers.
const (
	TypeSimpleString = '+'
	TypeError        = '-'
	TypeInteger      = ':'
	TypeBulkString   = '$'
	TypeArray        = '*'
)

// Reply is a reply read from a server. Only the fields matching Type are set.
type Reply struct {
	Type  byte
	Str   string
	Int   int64
	Bulk  []byte
	Null  bool
	Elems []Reply
}

// ReadLine reads one CRLF-terminated line and returns it without the CRLF.
func ReadLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > MaxLineLen {
				return "", fmt.Errorf("%w: line length exceeds limit %d", ErrProtocol, MaxLineLen)
			}
			continue
		}
		return "", err
	}

	if len(buf) > MaxLineLen {
		return "", fmt.Errorf("%w: line length exceeds limit %d", ErrProtocol, MaxLineLen)
	}
	if !bytes.HasSuffix(buf, crlf) {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-len(crlf)]), nil
}

// ReadSnapshot reads a snapshot transfer: "$<len>\r\n" followed by exactly
// len payload bytes and no terminator. A maxLen <= 0 applies MaxBulkLen.
func ReadSnapshot(r *bufio.Reader, maxLen int) ([]byte, error) {
	if maxLen <= 0 {
		maxLen = MaxBulkLen
	}
	line, err := ReadLine(r)
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[0] != TypeBulkString {
		return nil, fmt.Errorf("%w: expected snapshot header, got %q", ErrProtocol, line)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: invalid snapshot length %q", ErrProtocol, line[1:])
	}
	if n > maxLen {
		return nil, fmt.Errorf("%w: snapshot length %d exceeds limit %d", ErrProtocol, n, maxLen)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ReadReply reads one complete reply of any type.
func ReadReply(r *bufio.Reader) (Reply, error) {
	line, err := ReadLine(r)
	if err != nil {
		return Reply{}, err
	}
	if line == "" {
		return Reply{}, fmt.Errorf("%w: empty reply line", ErrProtocol)
	}

	rep := Reply{Type: line[0]}
	body := line[1:]
	switch rep.Type {
	case TypeSimpleString, TypeError:
		rep.Str = body
		return rep, nil
	case TypeInteger:
		rep.Int, err = strconv.ParseInt(body, 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: invalid integer %q", ErrProtocol, body)
		}
		return rep, nil
	case TypeBulkString:
		n, err := strconv.Atoi(body)
		if err != nil || n < -1 {
			return Reply{}, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, body)
		}
		if n == -1 {
			rep.Null = true
			return rep, nil
		}
		if n > MaxBulkLen {
			return Reply{}, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrProtocol, n, MaxBulkLen)
		}
		buf := make([]byte, n+len(crlf))
		if _, err := io.ReadFull(r, buf); err != nil {
			return Reply{}, err
		}
		if !bytes.HasSuffix(buf, crlf) {
			return Reply{}, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
		}
		rep.Bulk = buf[:n]
		return rep, nil
	case TypeArray:
		n, err := strconv.Atoi(body)
		if err != nil || n < -1 {
			return Reply{}, fmt.Errorf("%w: invalid array length %q", ErrProtocol, body)
		}
		if n == -1 {
			rep.Null = true
			return rep, nil
		}
		if n > MaxArrayLen {
			return Reply{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrProtocol, n, MaxArrayLen)
		}
		rep.Elems = make([]Reply, 0, n)
		for i := 0; i < n; i++ {
			elem, err := ReadReply(r)
			if err != nil {
				return Reply{}, err
			}
			rep.Elems = append(rep.Elems, elem)
		}
		return rep, nil
	default:
		return Reply{}, fmt.Errorf("%w: unknown reply type %q", ErrProtocol, rep.Type)
	}
}
