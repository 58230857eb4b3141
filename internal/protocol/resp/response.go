package resp

import (
	"strconv"
	"strings"
)

// Response is an encodable reply. The set of implementations is closed.
type Response interface {
	appendTo(dst []byte) []byte
}

// Pong encodes as +PONG.
type Pong struct{}

// OK encodes as +OK.
type OK struct{}

// SimpleString encodes as +<value>.
type SimpleString struct {
	Value string
}

// Error encodes as -ERR <message>.
type Error struct {
	Message string
}

// BulkString encodes as $<len>\r\n<value>\r\n.
type BulkString struct {
	Value []byte
}

// NullBulkString encodes as $-1, the reply for a missing key.
type NullBulkString struct{}

// Array encodes as *<count> followed by each element.
type Array struct {
	Elems []BulkString
}

// InfoReply is the INFO reply body, encoded as a bulk string.
type InfoReply struct {
	Role   string
	ReplID string
	Offset int64
}

// FullResync encodes as +FULLRESYNC <replid> <offset>.
type FullResync struct {
	ReplID string
	Offset int64
}

// Snapshot encodes as $<len>\r\n<payload> with no trailing CRLF.
type Snapshot struct {
	Payload []byte
}

// Role names used in INFO replies.
const (
	RoleMaster = "master"
	RoleSlave  = "slave"
)

// ErrUnknownCommand is the reply text for commands redikv does not implement.
const ErrUnknownCommand = "unknown command"

// Bulk returns a BulkString holding s.
func Bulk(s string) BulkString {
	return BulkString{Value: []byte(s)}
}

// ArrayOf builds an Array of bulk strings.
func ArrayOf(args ...[]byte) Array {
	elems := make([]BulkString, len(args))
	for i, a := range args {
		elems[i] = BulkString{Value: a}
	}
	return Array{Elems: elems}
}

// Request builds an outbound command as an array of bulk strings.
func Request(args ...string) Array {
	elems := make([]BulkString, len(args))
	for i, a := range args {
		elems[i] = Bulk(a)
	}
	return Array{Elems: elems}
}

// Body returns the text carried by an INFO reply.
func (i InfoReply) Body() string {
	if i.Role != RoleMaster {
		return "role:" + i.Role
	}
	var b strings.Builder
	b.WriteString("role:master\n")
	b.WriteString("master_replid:")
	b.WriteString(i.ReplID)
	b.WriteString("\nmaster_repl_offset:")
	b.WriteString(strconv.FormatInt(i.Offset, 10))
	b.WriteString("\n")
	return b.String()
}

// Line returns the FULLRESYNC status line without the leading '+' and CRLF.
func (f FullResync) Line() string {
	return "FULLRESYNC " + f.ReplID + " " + strconv.FormatInt(f.Offset, 10)
}

// Encode renders responses in order.
func Encode(rs ...Response) []byte {
	return Append(nil, rs...)
}

// Append renders responses in order onto dst.
func Append(dst []byte, rs ...Response) []byte {
	for _, r := range rs {
		dst = r.appendTo(dst)
	}
	return dst
}

func (Pong) appendTo(dst []byte) []byte {
	return append(dst, "+PONG\r\n"...)
}

func (OK) appendTo(dst []byte) []byte {
	return append(dst, "+OK\r\n"...)
}

func (s SimpleString) appendTo(dst []byte) []byte {
	dst = append(dst, '+')
	dst = append(dst, singleLine(s.Value)...)
	return append(dst, crlf...)
}

func (e Error) appendTo(dst []byte) []byte {
	dst = append(dst, "-ERR "...)
	dst = append(dst, singleLine(e.Message)...)
	return append(dst, crlf...)
}

func (b BulkString) appendTo(dst []byte) []byte {
	dst = appendLength(dst, '$', len(b.Value))
	dst = append(dst, b.Value...)
	return append(dst, crlf...)
}

func (NullBulkString) appendTo(dst []byte) []byte {
	return append(dst, "$-1\r\n"...)
}

func (a Array) appendTo(dst []byte) []byte {
	dst = appendLength(dst, '*', len(a.Elems))
	for _, e := range a.Elems {
		dst = e.appendTo(dst)
	}
	return dst
}

func (i InfoReply) appendTo(dst []byte) []byte {
	return Bulk(i.Body()).appendTo(dst)
}

func (f FullResync) appendTo(dst []byte) []byte {
	return SimpleString{Value: f.Line()}.appendTo(dst)
}

func (s Snapshot) appendTo(dst []byte) []byte {
	dst = appendLength(dst, '$', len(s.Payload))
	return append(dst, s.Payload...)
}

func appendLength(dst []byte, prefix byte, n int) []byte {
	dst = append(dst, prefix)
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, crlf...)
}

// singleLine keeps simple strings and errors on one protocol line.
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
