package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, format logFormat, level slog.Level) (*slog.Logger, func() string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{buf}, 16)
	h := newStructuredHandler(handlerConfig{level: level, writer: w, format: format})
	return slog.New(h), func() string {
		require.NoError(t, w.Close())
		return strings.TrimSpace(buf.String())
	}
}

func TestKVLineStartsWithOrderedKeys(t *testing.T) {
	log, done := capture(t, formatKV, slog.LevelInfo)
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-123"), 42, 7, 9)

	LogEvent(ctx, log.With("component", "app"), slog.LevelInfo, "test.event",
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)

	tokens := strings.Fields(done())
	want := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	require.GreaterOrEqual(t, len(tokens), len(want))
	for i, prefix := range want {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, want %s", i, tokens[i], prefix)
	}
}

func TestJSONLineDecodesWithCompactRID(t *testing.T) {
	log, done := capture(t, formatJSON, slog.LevelInfo)
	ctx := WithRID(context.Background(), BuildRID(12, 34, 56))

	LogEvent(ctx, log.With("component", "service.cart"), slog.LevelError, "cart.add",
		slog.String("status", "FAIL"),
		slog.Any("err", errors.New("boom")),
		slog.Duration("took", 1499*time.Microsecond),
	)

	line := done()
	require.True(t, strings.HasPrefix(line, `{"ts":`), line)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	assert.Equal(t, "ERROR", got["level"])
	assert.Equal(t, "service.cart", got["component"])
	assert.Equal(t, "fail", got["status"])
	assert.Equal(t, "boom", got["err"])
	assert.Equal(t, "c.y.1k", got["rid"])
	assert.EqualValues(t, 1, got["took_ms"])
}

func TestContextFieldsAndEnumerations(t *testing.T) {
	log, done := capture(t, formatKV, slog.LevelDebug)
	ctx := WithHandler(WithTrace(context.Background(), "trace-1"), "button.cat")

	LogEvent(ctx, log.With("component", "conv"), slog.LevelInfo, "transition",
		slog.String("state_to", "products"),
		slog.String("state_from", "categories"),
		slog.String("outcome", "bogus"),
	)

	line := done()
	for _, want := range []string{"trace_id=trace-1", "handler=button.cat", "state_from=categories", "state_to=products"} {
		assert.Contains(t, line, want)
	}
	assert.Less(t, strings.Index(line, "state_from="), strings.Index(line, "state_to="))
	assert.NotContains(t, line, "outcome=")
}

func TestExplicitAttrsWinOverContext(t *testing.T) {
	log, done := capture(t, formatKV, slog.LevelInfo)
	ctx := WithUpdateMeta(context.Background(), 1, 100, 200)

	LogEvent(ctx, log, slog.LevelInfo, "override", slog.Int64("user_id", 5))

	line := done()
	assert.Contains(t, line, "user_id=5")
	assert.Contains(t, line, "chat_id=200")
	assert.Contains(t, line, "component=app")
}

func TestGroupsAndQuoting(t *testing.T) {
	log, done := capture(t, formatKV, slog.LevelInfo)

	log.WithGroup("db").Info("query", slog.String("stmt", `select "x"`), slog.Group("pool", slog.Int("open", 3)))

	line := done()
	assert.Contains(t, line, "event=query")
	assert.Contains(t, line, `db.stmt="select \"x\""`)
	assert.Contains(t, line, "db.pool.open=3")
}

func TestLevelFilteringAndEmptyFields(t *testing.T) {
	log, done := capture(t, formatKV, slog.LevelWarn)

	log.Info("hidden")
	log.Warn("shown", slog.String("cause", ""))

	line := done()
	assert.NotContains(t, line, "hidden")
	assert.Contains(t, line, "event=shown")
	assert.NotContains(t, line, "cause=")
}

func TestWriterFlushAndClose(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{buf}, 1)
	require.NoError(t, w.Write([]byte("a\n")))
	require.NoError(t, w.Write([]byte("b\n")))
	require.NoError(t, w.Flush())
	assert.Equal(t, "a\nb\n", buf.String())

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Write([]byte("c\n")), errWriterClosed)
	assert.NoError(t, w.Flush())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterKeepsFirstError(t *testing.T) {
	w := newAsyncWriter([]io.Writer{failingWriter{}}, 4)
	require.NoError(t, w.Write([]byte("x")))
	assert.EqualError(t, w.Flush(), "disk full")
	assert.EqualError(t, w.Write([]byte("y")), "disk full")
	assert.EqualError(t, w.Close(), "disk full")
}
