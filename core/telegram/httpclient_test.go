package telegram

import (
	"bytes"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRetryTransportReplaysBody(t *testing.T) {
	var bodies []string
	rt := &retryTransport{
		retries: 2,
		backoff: time.Millisecond,
		next: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			buf := new(bytes.Buffer)
			_, _ = buf.ReadFrom(r.Body)
			bodies = append(bodies, buf.String())
			if len(bodies) < 3 {
				return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}
			}
			return httptest.NewRecorder().Result(), nil
		}),
	}
	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader("text=hi"))
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"text=hi", "text=hi", "text=hi"}, bodies)
}

func TestRetryTransportGivesUpOnPermanentError(t *testing.T) {
	calls := 0
	rt := &retryTransport{
		retries: 3,
		backoff: time.Millisecond,
		next: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, errors.New("x509: certificate signed by unknown authority")
		}),
	}
	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	require.NoError(t, err)

	_, err = rt.RoundTrip(req)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNewAPIClientTimeoutCoversLongPoll(t *testing.T) {
	c := NewAPIClient(ClientOptions{PollTimeout: 50 * time.Second})
	assert.Equal(t, 70*time.Second, c.Timeout)
	assert.Equal(t, 30*time.Second, NewAPIClient(ClientOptions{}).Timeout)
	assert.Equal(t, 15*time.Second, pollTimeout(&tele.LongPoller{Timeout: 15 * time.Second}))
	assert.Zero(t, pollTimeout(&tele.Webhook{}))
}
