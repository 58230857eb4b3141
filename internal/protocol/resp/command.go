package resp

import (
	"bytes"
	"strconv"
	"strings"
)

// Command is a decoded client request. The set of implementations is closed.
type Command interface {
	// Name returns the upper-case command name.
	Name() string
	isCommand()
}

// Ping is PING.
type Ping struct{}

// Echo is ECHO <payload>.
type Echo struct {
	Payload []byte
}

// Get is GET <key>.
type Get struct {
	Key []byte
}

// Set is SET <key> <value> [PX <ms>]. TTLMillis is zero when no PX option was given.
type Set struct {
	Key       []byte
	Value     []byte
	TTLMillis int64
}

// HasTTL reports whether the command carried a PX option.
func (s Set) HasTTL() bool { return s.TTLMillis > 0 }

// Info is INFO [section].
type Info struct {
	Section string
}

// ReplConf is REPLCONF <option> <value> [<option> <value> ...].
type ReplConf struct {
	Args [][]byte
}

// Option returns the value of a REPLCONF option, matched case-insensitively.
func (c ReplConf) Option(name string) (string, bool) {
	for i := 0; i+1 < len(c.Args); i += 2 {
		if strings.EqualFold(string(c.Args[i]), name) {
			return string(c.Args[i+1]), true
		}
	}
	return "", false
}

// Psync is PSYNC <replid> <offset>.
type Psync struct {
	ReplID string
	Offset string
}

// Unknown is any command name redikv does not implement.
type Unknown struct {
	Command string
}

func (Ping) Name() string     { return "PING" }
func (Echo) Name() string     { return "ECHO" }
func (Get) Name() string      { return "GET" }
func (Set) Name() string      { return "SET" }
func (Info) Name() string     { return "INFO" }
func (ReplConf) Name() string { return "REPLCONF" }
func (Psync) Name() string    { return "PSYNC" }
func (Unknown) Name() string  { return "UNKNOWN" }

func (Ping) isCommand()     {}
func (Echo) isCommand()     {}
func (Get) isCommand()      {}
func (Set) isCommand()      {}
func (Info) isCommand()     {}
func (ReplConf) isCommand() {}
func (Psync) isCommand()    {}
func (Unknown) isCommand()  {}

// RequestArgs renders cmd back into the argument list a client would send.
func RequestArgs(cmd Command) [][]byte {
	switch c := cmd.(type) {
	case Ping:
		return [][]byte{[]byte("PING")}
	case Echo:
		return [][]byte{[]byte("ECHO"), c.Payload}
	case Get:
		return [][]byte{[]byte("GET"), c.Key}
	case Set:
		args := [][]byte{[]byte("SET"), c.Key, c.Value}
		if c.HasTTL() {
			args = append(args, []byte("PX"), []byte(strconv.FormatInt(c.TTLMillis, 10)))
		}
		return args
	case Info:
		if c.Section != "" {
			return [][]byte{[]byte("INFO"), []byte(c.Section)}
		}
		return [][]byte{[]byte("INFO")}
	case ReplConf:
		return append([][]byte{[]byte("REPLCONF")}, c.Args...)
	case Psync:
		return [][]byte{[]byte("PSYNC"), []byte(c.ReplID), []byte(c.Offset)}
	case Unknown:
		return [][]byte{[]byte(c.Command)}
	default:
		return nil
	}
}

// EncodeRequest encodes cmd as an array of bulk strings.
func EncodeRequest(cmd Command) []byte {
	return Encode(ArrayOf(RequestArgs(cmd)...))
}

func normalizeCommandName(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	// Uppercase ASCII without allocating for already uppercased tokens.
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(string(b))
	}
	return string(b)
}
