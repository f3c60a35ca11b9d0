// Package ops serves health and runtime counters over HTTP.
package ops

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/m3rciful/shopbot/core/buildinfo"
	"github.com/m3rciful/shopbot/core/logger"
)

// Pinger reports whether persistent storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the probes. Nil counters report zero.
type Options struct {
	Store      Pinger
	Sessions   func() int
	Mailboxes  func() int
	SendErrors func() uint64
	// PingTimeout bounds the store ping; defaults to 2s.
	PingTimeout time.Duration
}

// Stats is the body of GET /stats.
type Stats struct {
	Version    string `json:"version"`
	Sessions   int    `json:"sessions"`
	Mailboxes  int    `json:"mailboxes"`
	SendErrors uint64 `json:"send_errors"`
	Uptime     string `json:"uptime"`
}

// NewRouter builds the gin engine with /healthz and /stats.
func NewRouter(opts Options) *gin.Engine {
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 2 * time.Second
	}
	started := time.Now()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		if opts.Store == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), opts.PingTimeout)
		defer cancel()
		if err := opts.Store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "fail", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/stats", func(c *gin.Context) {
		s := Stats{
			Version: buildinfo.Version,
			Uptime:  time.Since(started).Round(time.Second).String(),
		}
		if opts.Sessions != nil {
			s.Sessions = opts.Sessions()
		}
		if opts.Mailboxes != nil {
			s.Mailboxes = opts.Mailboxes()
		}
		if opts.SendErrors != nil {
			s.SendErrors = opts.SendErrors()
		}
		c.JSON(http.StatusOK, s)
	})
	return r
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogEvent(c.Request.Context(), logger.OPS, slog.LevelDebug, "http.request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("code", c.Writer.Status()),
			slog.Duration("took", logger.Took(start)),
		)
	}
}

// Server runs the ops endpoint in the background.
type Server struct {
	srv  *http.Server
	done chan struct{}
}

// Start listens on addr and serves h until Shutdown.
func Start(addr string, h http.Handler) *Server {
	s := &Server{
		srv:  &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second},
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		logger.OPS.Info("ops listening", slog.String("event", "http.listen"), slog.String("addr", addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.OPS.Error("ops server failed",
				slog.String("event", "http.listen"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return s
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}
