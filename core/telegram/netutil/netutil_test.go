package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestKind(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	cases := map[string]error{
		"timeout":  &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}},
		"dial":     dial,
		"dns":      &net.DNSError{Name: "api.telegram.org", Err: "no such host"},
		"reset":    fmt.Errorf("read: %w", syscall.ECONNRESET),
		"http_4xx": errors.New("telegram: Bad Request: chat not found (400)"),
		"http_5xx": errors.New("telegram: Bad Gateway (502)"),
		"unknown":  errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Kind(err), "%v", err)
	}
	assert.Equal(t, "timeout", Kind(context.DeadlineExceeded))
	assert.Equal(t, "", Kind(nil))
}

func TestTransient(t *testing.T) {
	assert.True(t, Transient(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.True(t, Transient(errors.New("telegram: Internal Server Error (500)")))
	assert.False(t, Transient(errors.New("telegram: Forbidden: bot was blocked by the user (403)")))
	assert.False(t, Transient(nil))
}

func TestStatusCodeAndRedact(t *testing.T) {
	assert.Equal(t, 409, StatusCode(errors.New("telegram: Conflict (409)")))
	assert.Equal(t, 0, StatusCode(errors.New("no code (abc)")))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage"`,
		Redact(`Post "https://api.telegram.org/bot123:ABC-def_9/sendMessage"`))
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, Backoff(time.Second, 0))
	assert.Equal(t, 3*time.Second, Backoff(time.Second, 3))
	assert.Zero(t, RetryAfter(errors.New("x")))
}
