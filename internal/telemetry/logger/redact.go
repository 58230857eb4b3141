package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

// Keys whose values carry client data. They are quoted and cut to
// maxDataLen so binary values cannot break a log line.
var dataKeys = map[string]bool{
	"value":   true,
	"payload": true,
	"arg":     true,
	"reply":   true,
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"auth",
}

const (
	redactedValue = "***REDACTED***"
	maxDataLen    = 64
)

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if dataKeys[a.Key] {
			return slog.String(a.Key, TruncateData(s))
		}
	case slog.KindAny:
		if b, ok := a.Value.Any().([]byte); ok && dataKeys[a.Key] {
			return slog.String(a.Key, TruncateData(string(b)))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// TruncateData quotes s and cuts it to a bounded length, noting how many
// bytes were dropped.
func TruncateData(s string) string {
	if len(s) <= maxDataLen {
		return strconv.Quote(s)
	}
	return strconv.Quote(s[:maxDataLen]) + "...(+" + strconv.Itoa(len(s)-maxDataLen) + " bytes)"
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
