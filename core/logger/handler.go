package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	tsLayout = "2006-01-02T15:04:05.000Z07:00"
)

var errNoWriter = errors.New("logger: writer not initialized")

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders records as one flat line per event.
// Attributes bound with WithAttrs are flattened once and kept in base.
type structuredHandler struct {
	cfg    handlerConfig
	base   entry
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg, base: entry{}}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}
	e := h.base.clone(r.NumAttrs() + 8)
	e["ts"] = r.Time.UTC().Truncate(time.Millisecond).Format(tsLayout)
	e["level"] = normalizeLevel(r.Level.String())
	r.Attrs(func(a slog.Attr) bool {
		e.add(h.prefix, a)
		return true
	})
	e.enrich(ctx)
	e.finish(r.Message)

	var line []byte
	if h.cfg.format == formatJSON {
		var err error
		if line, err = e.json(h.cfg.keyOrder); err != nil {
			return err
		}
	} else {
		line = e.kv(h.cfg.keyOrder)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.base = h.base.clone(len(attrs))
	for _, a := range attrs {
		clone.base.add(h.prefix, a)
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// entry holds the flattened fields of one log line.
type entry map[string]any

func (e entry) clone(extra int) entry {
	out := make(entry, len(e)+extra)
	for k, v := range e {
		out[k] = v
	}
	return out
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

func (e entry) add(prefix string, a slog.Attr) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			e.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := fieldValue(key, v); ok {
		e[k] = val
	}
}

// msKey renames a duration attribute so the unit is part of the key.
func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func fieldValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u > math.MaxInt64 {
			return key, u, true
		}
		return key, int64(v.Uint64()), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return msKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case string:
		return key, strings.TrimSpace(x), true
	case time.Duration:
		return msKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func (e entry) setDefault(key string, v any, present bool) {
	if !present {
		return
	}
	if _, ok := e[key]; !ok {
		e[key] = v
	}
}

// enrich copies correlation values from ctx without overriding explicit attrs.
func (e entry) enrich(ctx context.Context) {
	if ctx == nil {
		return
	}
	meta := lookup[updateMeta](ctx, keyUpdate)
	rid, trace, handler := RIDFrom(ctx), TraceIDFrom(ctx), HandlerFrom(ctx)
	e.setDefault("rid", rid, rid != "")
	e.setDefault("trace_id", trace, trace != "")
	e.setDefault("update_id", meta.updateID, meta.updateID != 0)
	e.setDefault("user_id", meta.userID, meta.userID != 0)
	e.setDefault("chat_id", meta.chatID, meta.chatID != 0)
	e.setDefault("handler", handler, handler != "")
}

func (e entry) str(key string) string {
	switch v := e[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (e entry) finish(msg string) {
	if rid := e.str("rid"); rid != "" {
		e["rid"] = CompactRID(rid)
	}
	if e.str("event") == "" {
		e["event"] = msg
		if msg == "" {
			e["event"] = "unknown"
		}
	}
	if e.str("component") == "" {
		e["component"] = "app"
	}
	if s := e.str("status"); s != "" {
		if norm, ok := normalizeEnum(s, statuses); ok {
			e["status"] = norm
		}
	}
	if o := e.str("outcome"); o != "" {
		if norm, ok := normalizeEnum(o, outcomes); ok {
			e["outcome"] = norm
		} else {
			delete(e, "outcome")
		}
	}
	for k, v := range e {
		if v == nil || v == "" {
			delete(e, k)
		}
	}
}

// keys lists order entries first, then the rest alphabetically.
func (e entry) keys(order []string) []string {
	out := make([]string, 0, len(e))
	listed := make(map[string]bool, len(order))
	for _, k := range order {
		if _, ok := e[k]; ok && !listed[k] {
			out = append(out, k)
		}
		listed[k] = true
	}
	n := len(out)
	for k := range e {
		if !listed[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out[n:])
	return out
}

func (e entry) json(order []string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range e.keys(order) {
		data, err := json.Marshal(e[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(data)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (e entry) kv(order []string) []byte {
	var b bytes.Buffer
	for i, k := range e.keys(order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kvValue(e[k]))
	}
	return b.Bytes()
}

func kvValue(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
