package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

func enum(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

var (
	statuses = enum("ok", "fail", "skip", "retry", "rate_limited", "cancelled")
	outcomes = enum("ok", "fail", "cancelled", "rate_limited", "denied", "ignored")
)

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if name, ok := levelNames[strings.ToLower(level)]; ok {
		return name
	}
	return strings.ToUpper(level)
}

// normalizeEnum lowercases v and reports whether it belongs to allowed.
func normalizeEnum(v string, allowed map[string]struct{}) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	_, ok := allowed[v]
	return v, ok && v != ""
}

// defaultKeyOrder puts correlation and conversation fields first; the rest follow alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "trace_id", "update_id", "user_id", "chat_id", "chat_type",
	"handler", "kind", "state_from", "state_to", "token", "cb_key", "outcome",
	"took_ms", "duration_ms", "messages", "kb",
	"doc", "category_id", "product_id", "count", "total",
	"payload", "lang", "username",
	"mode", "listen", "public_url", "http_code", "db", "host", "port",
	"err", "err_code", "cause", "attempts", "backoff_ms",
}
