package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jpalmerr/balancecheck/internal/plugin"
	"github.com/jpalmerr/balancecheck/internal/store"
)

const (
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"

	// sseWriteTimeout bounds a single event write so a stalled client
	// cannot hold a handler past shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Backend produces the messages served over HTTP. *plugin.Plugin
// implements it.
type Backend interface {
	Balance(ctx context.Context, ev plugin.Event) []string
	BalanceTool(ctx context.Context, ev plugin.Event) []string
	Tools() []plugin.ToolSpec
}

// commandRequest is the optional JSON body of the command and tool routes.
type commandRequest struct {
	Sender   string `json:"sender"`
	Platform string `json:"platform"`
}

// messagesResponse is the body returned by the command and tool routes.
type messagesResponse struct {
	RequestID string   `json:"request_id"`
	Messages  []string `json:"messages"`
}

// Server serves balance reports over HTTP.
//
// Routes:
//   - GET /healthz
//   - POST /api/commands/balance
//   - POST /api/tools/balance_query
//   - GET /api/tools
//   - GET /api/outcomes (when a store is configured)
//   - GET /api/events (when a store is configured)
type Server struct {
	backend    Backend
	store      store.Store
	port       int
	httpServer *http.Server
	done       chan struct{}
	logger     *slog.Logger
}

// NewServer creates a [Server]. st may be nil, in which case the outcome
// routes are not registered. The server is not started until
// [Server.Start] is called.
func NewServer(backend Backend, st store.Store, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		backend: backend,
		store:   st,
		port:    port,
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Done is closed once the server has shut down after its context ended.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Handler returns the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(requestID(), s.accessLog(), gin.CustomRecovery(s.recoverPanic))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/commands/balance", s.handleCommand(s.backend.Balance))
	api.POST("/tools/"+plugin.ToolName, s.handleCommand(s.backend.BalanceTool))
	api.GET("/tools", s.handleTools)

	if s.store != nil {
		api.GET("/outcomes", s.handleOutcomes)
		api.GET("/events", s.handleEvents)
	}

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start binds the port synchronously and returns an error if that fails.
// The server runs until ctx is cancelled, then shuts down gracefully with
// a 5-second timeout.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx, which also stops event streams
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		defer close(s.done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	return nil
}

func (s *Server) handleCommand(run func(context.Context, plugin.Event) []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req commandRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		id := c.GetString(requestIDKey)
		messages := run(c.Request.Context(), plugin.Event{
			ID:       id,
			Sender:   strings.TrimSpace(req.Sender),
			Platform: strings.TrimSpace(req.Platform),
		})

		c.JSON(http.StatusOK, messagesResponse{RequestID: id, Messages: messages})
	}
}

func (s *Server) handleTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": s.backend.Tools()})
}

func (s *Server) handleOutcomes(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, s.store.GetAll())
}

// handleEvents streams outcome records as Server-Sent Events, starting with
// the current snapshot.
func (s *Server) handleEvents(c *gin.Context) {
	w := c.Writer
	rc := http.NewResponseController(w)

	deadlinesSupported := true
	writeAndFlush := func(rec store.OutcomeRecord) error {
		data, err := sonic.Marshal(rec)
		if err != nil {
			return err
		}
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		w.Flush()
		return nil
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	for _, rec := range s.store.GetAll() {
		if err := writeAndFlush(rec); err != nil {
			return
		}
	}
	w.Flush()

	for {
		select {
		case rec, ok := <-ch:
			if !ok {
				return
			}
			if err := writeAndFlush(rec); err != nil {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.logger.Error("http handler panicked",
		"panic", recovered,
		"request_id", c.GetString(requestIDKey),
		"path", c.Request.URL.Path,
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// requestID propagates X-Request-ID, generating one when the caller did not
// send it.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("http request",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
