package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/redikv/internal/protocol/resp"
)

// Format selects how replies are printed.
type Format string

const (
	FormatRedis Format = "redis"
	FormatRaw   Format = "raw"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name. The empty string is FormatRedis.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatRedis, nil
	case FormatRedis, FormatRaw, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want redis, raw, json or yaml)", s)
	}
}

// Write prints r to w in format f.
func Write(w io.Writer, f Format, r resp.Reply) error {
	switch f {
	case FormatRaw:
		return writeRaw(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toValue(r))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toValue(r)); err != nil {
			return err
		}
		return enc.Close()
	default:
		var b strings.Builder
		writeRedis(&b, r, "")
		_, err := io.WriteString(w, b.String())
		return err
	}
}

func writeRedis(b *strings.Builder, r resp.Reply, indent string) {
	switch r.Type {
	case resp.TypeSimpleString:
		b.WriteString(r.Str)
	case resp.TypeError:
		b.WriteString("(error) ")
		b.WriteString(r.Str)
	case resp.TypeInteger:
		b.WriteString("(integer) ")
		b.WriteString(strconv.FormatInt(r.Int, 10))
	case resp.TypeBulkString:
		if r.Null {
			b.WriteString("(nil)")
		} else {
			b.WriteString(Quote(r.Bulk))
		}
	case resp.TypeArray:
		if r.Null {
			b.WriteString("(nil)")
			break
		}
		if len(r.Elems) == 0 {
			b.WriteString("(empty array)")
			break
		}
		width := len(strconv.Itoa(len(r.Elems)))
		for i, e := range r.Elems {
			if i > 0 {
				b.WriteString("\n")
				b.WriteString(indent)
			}
			prefix := fmt.Sprintf("%*d) ", width, i+1)
			b.WriteString(prefix)
			writeRedis(b, e, indent+strings.Repeat(" ", len(prefix)))
		}
	}
	if indent == "" {
		b.WriteString("\n")
	}
}

func writeRaw(w io.Writer, r resp.Reply) error {
	var err error
	switch r.Type {
	case resp.TypeSimpleString, resp.TypeError:
		_, err = fmt.Fprintln(w, r.Str)
	case resp.TypeInteger:
		_, err = fmt.Fprintln(w, r.Int)
	case resp.TypeBulkString:
		if r.Null {
			_, err = fmt.Fprintln(w)
		} else {
			_, err = fmt.Fprintf(w, "%s\n", r.Bulk)
		}
	case resp.TypeArray:
		for _, e := range r.Elems {
			if err = writeRaw(w, e); err != nil {
				return err
			}
		}
	}
	return err
}

// toValue converts a reply into plain Go values for structured encoders.
func toValue(r resp.Reply) any {
	switch r.Type {
	case resp.TypeSimpleString:
		return r.Str
	case resp.TypeError:
		return map[string]string{"error": r.Str}
	case resp.TypeInteger:
		return r.Int
	case resp.TypeBulkString:
		if r.Null {
			return nil
		}
		return string(r.Bulk)
	case resp.TypeArray:
		if r.Null {
			return nil
		}
		out := make([]any, len(r.Elems))
		for i, e := range r.Elems {
			out[i] = toValue(e)
		}
		return out
	default:
		return nil
	}
}

// Quote renders b the way redis-cli shows bulk strings: double-quoted,
// with non-printable bytes as \xHH.
func Quote(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range b {
		switch c {
		case '\\', '"':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		default:
			if c >= 0x20 && c < 0x7f {
				sb.WriteByte(c)
			} else {
				fmt.Fprintf(&sb, `\x%02x`, c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// ForCommand adjusts f for a command whose reply reads better unquoted.
// INFO replies are printed raw in the default format, as redis-cli does.
func ForCommand(f Format, name string) Format {
	if f == FormatRedis && strings.EqualFold(name, "info") {
		return FormatRaw
	}
	return f
}
