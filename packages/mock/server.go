// Package mock provides a deterministic stand-in for the classification
// API. It serves the health and classify routes with keyword-based answers
// so suites can be dry-run without the real service.
package mock

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/logger"
	"github.com/gin-gonic/gin"
)

const (
	DefaultPort          = 3000
	DefaultReferenceName = "Warung Makan Sederhana"

	FieldComparison             = "comparison"
	FieldBusinessNameComparison = "businessNameComparison"

	shutdownTimeout = 5 * time.Second
)

// Server is a mock classification API.
type Server struct {
	engine        *gin.Engine
	port          int
	delay         time.Duration
	verbose       bool
	token         string
	apiKey        string
	field         string
	noComparison  bool
	referenceName string
	logger        logger.Logger
	requests      atomic.Int64
}

// Option is a functional option for Server
type Option func(*Server)

func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay holds every response for d.
func WithDelay(d time.Duration) Option {
	return func(s *Server) {
		s.delay = d
	}
}

func WithVerbose(verbose bool) Option {
	return func(s *Server) {
		s.verbose = verbose
	}
}

// WithToken requires "Authorization: Bearer <token>" on classify requests.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithAPIKey requires "X-API-Key: <key>" on classify requests. When a token
// is also set either credential is accepted.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithComparisonField sets the response field that carries the comparison.
func WithComparisonField(name string) Option {
	return func(s *Server) {
		s.field = name
	}
}

// WithoutComparison answers classify requests with no comparison at all,
// as a deployment without the feature would.
func WithoutComparison() Option {
	return func(s *Server) {
		s.noComparison = true
	}
}

// WithReferenceName sets the name submitted names are compared against.
func WithReferenceName(name string) Option {
	return func(s *Server) {
		s.referenceName = name
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a mock server. It validates the comparison field name.
func NewServer(opts ...Option) (*Server, error) {
	s := &Server{
		port:          DefaultPort,
		field:         FieldComparison,
		referenceName: DefaultReferenceName,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	switch s.field {
	case FieldComparison, FieldBusinessNameComparison:
	default:
		return nil, fmt.Errorf("unsupported comparison field %q (want %s or %s)",
			s.field, FieldComparison, FieldBusinessNameComparison)
	}
	if len(words(s.referenceName)) == 0 {
		return nil, fmt.Errorf("reference name must contain at least one word")
	}

	s.engine = s.newEngine()
	return s, nil
}

// Handler returns the server's routes for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr is the listen address for the configured port.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.port)
}

// Requests is the number of classify requests served so far.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Start serves until the process exits.
func (s *Server) Start() error {
	return s.StartWithContext(context.Background())
}

// StartWithContext serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) StartWithContext(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnf("mock server shutdown: %v", err)
		}
	}()

	s.logger.Infof("Mock classify API listening on http://localhost:%d", s.port)
	s.logger.Infof("Comparison: %s", s.describeComparison())
	s.logger.Infof("Auth: %s", s.describeAuth())

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

func (s *Server) describeComparison() string {
	if s.noComparison {
		return "disabled"
	}
	return fmt.Sprintf("field %q against %q", s.field, s.referenceName)
}

func (s *Server) describeAuth() string {
	switch {
	case s.token != "" && s.apiKey != "":
		return "bearer token or API key"
	case s.token != "":
		return "bearer token"
	case s.apiKey != "":
		return "API key"
	default:
		return "none"
	}
}
