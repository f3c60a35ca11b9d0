package sender

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/shopbot/core/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatCtx(chatID int64) context.Context {
	return logger.WithUpdateMeta(context.Background(), 1, chatID, chatID)
}

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 64})

	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := 0; i < 20; i++ {
		for _, chat := range []int64{11, 12, -13} {
			i, chat := i, chat
			err := d.Enqueue(chatCtx(chat), "send.text", "sendMessage", func() error {
				mu.Lock()
				got[chat] = append(got[chat], i)
				mu.Unlock()
				return nil
			})
			require.NoError(t, err)
		}
	}
	d.Close()

	for _, chat := range []int64{11, 12, -13} {
		require.Len(t, got[chat], 20)
		for i, v := range got[chat] {
			assert.Equal(t, i, v, "chat %d out of order", chat)
		}
	}
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherCountsFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	calls := 0
	require.NoError(t, d.Enqueue(chatCtx(5), "send.text", "sendMessage", func() error {
		calls++
		return errors.New("Bad Request: chat not found (400)")
	}))
	d.Close()

	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, d.Enqueue(chatCtx(1), "a", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(chatCtx(1), "b", "", func() error { return nil }))
	err := d.Enqueue(chatCtx(1), "c", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, d.Pending())

	close(release)
	d.Close()
}

func TestDispatcherClosed(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	err := d.Enqueue(context.Background(), "a", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.Error(t, d.Enqueue(context.Background(), "a", "", nil))
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	calls := 0
	require.NoError(t, d.Enqueue(chatCtx(7), "send.text", "sendMessage", func() error {
		calls++
		if calls < 3 {
			return errors.New("telegram: Bad Gateway (502)")
		}
		return nil
	}))
	d.Close()

	assert.Equal(t, 3, calls)
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherStopsAtMaxDuration(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 5, RetryBackoff: time.Hour, MaxDuration: 20 * time.Millisecond})
	calls := 0
	require.NoError(t, d.Enqueue(chatCtx(8), "send.text", "sendMessage", func() error {
		calls++
		return errors.New("telegram: Internal Server Error (500)")
	}))
	d.Close()

	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), d.ErrorCount())
}
