package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
)

// ErrMailboxFull is returned when a user has too many events queued.
var ErrMailboxFull = errors.New("conversation: mailbox full")

// ErrMailboxesClosed is returned after Close.
var ErrMailboxesClosed = errors.New("conversation: mailboxes closed")

// ErrPanic wraps a panic recovered from a queued job.
var ErrPanic = errors.New("conversation: job panic")

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

type mailbox struct {
	jobs chan job
}

// Mailboxes serializes work per user. Each active user gets one goroutine that
// drains a bounded FIFO queue and exits after sitting idle.
type Mailboxes struct {
	size    int
	idle    time.Duration
	timeout time.Duration

	mu     sync.Mutex
	boxes  map[int64]*mailbox
	closed bool
	wg     sync.WaitGroup
}

// NewMailboxes builds a dispatcher. timeout bounds each job; zero disables the bound.
func NewMailboxes(size int, idle, timeout time.Duration) *Mailboxes {
	if size <= 0 {
		size = 16
	}
	if idle <= 0 {
		idle = time.Minute
	}
	return &Mailboxes{
		size:    size,
		idle:    idle,
		timeout: timeout,
		boxes:   make(map[int64]*mailbox),
	}
}

// Do queues fn behind earlier work of the same user and waits for it.
// The job keeps the values of ctx but not its cancellation, so a started
// job always finishes under its own timeout.
func (m *Mailboxes) Do(ctx context.Context, userID int64, fn func(context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMailboxesClosed
	}
	box, ok := m.boxes[userID]
	if !ok {
		box = &mailbox{jobs: make(chan job, m.size)}
		m.boxes[userID] = box
		m.wg.Add(1)
		go m.run(userID, box)
	}
	select {
	case box.jobs <- j:
	default:
		m.mu.Unlock()
		return ErrMailboxFull
	}
	m.mu.Unlock()

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mailboxes) run(userID int64, box *mailbox) {
	defer m.wg.Done()
	timer := time.NewTimer(m.idle)
	defer timer.Stop()
	for {
		select {
		case j, ok := <-box.jobs:
			if !ok {
				return
			}
			j.done <- m.exec(j)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.idle)
		case <-timer.C:
			m.mu.Lock()
			if len(box.jobs) > 0 {
				m.mu.Unlock()
				timer.Reset(m.idle)
				continue
			}
			delete(m.boxes, userID)
			m.mu.Unlock()
			return
		}
	}
}

// exec runs one job. A panic is logged and returned as ErrPanic so the
// mailbox goroutine keeps serving the user.
func (m *Mailboxes) exec(j job) (err error) {
	ctx := context.WithoutCancel(j.ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.LogEvent(ctx, logger.CONV, slog.LevelError, "conv.panic",
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(fmt.Sprint(r), 256)),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return j.fn(ctx)
}

// Len reports the number of live mailboxes.
func (m *Mailboxes) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.boxes)
}

// Close rejects new work and waits for every mailbox to drain and exit.
func (m *Mailboxes) Close() {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		for _, box := range m.boxes {
			close(box.jobs)
		}
	}
	m.mu.Unlock()
	m.wg.Wait()

	m.mu.Lock()
	m.boxes = make(map[int64]*mailbox)
	m.mu.Unlock()
}
