package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/netutil"
)

// ClientOptions tunes the Bot API HTTP client.
type ClientOptions struct {
	// PollTimeout is the long-poll wait; the request timeout is kept above it.
	PollTimeout time.Duration
	Retries     int
	Backoff     time.Duration
}

// NewAPIClient returns an HTTP client for Bot API calls that retries transient
// network failures of replayable requests.
func NewAPIClient(opts ClientOptions) *http.Client {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	timeout := opts.PollTimeout + 20*time.Second
	if timeout < 30*time.Second {
		timeout = 30 * time.Second
	}
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Timeout: timeout,
		Transport: &retryTransport{
			next: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConnsPerHost:   16,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ExpectContinueTimeout: time.Second,
			},
			retries: opts.Retries,
			backoff: opts.Backoff,
		},
	}
}

type retryTransport struct {
	next    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	for attempt := 1; ; attempt++ {
		resp, err := t.next.RoundTrip(req)
		if err == nil || attempt > t.retries || !netutil.Transient(err) {
			return resp, err
		}
		if req.Body != nil && req.GetBody == nil {
			return nil, err
		}
		delay := netutil.Backoff(t.backoff, attempt)
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "api.retry",
			slog.String("status", "retry"),
			slog.String("endpoint", path.Base(req.URL.Path)),
			slog.String("err_code", netutil.Kind(err)),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		next := req.Clone(ctx)
		if req.GetBody != nil {
			if next.Body, err = req.GetBody(); err != nil {
				return nil, err
			}
		}
		req = next
	}
}
