package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"budget/internal/alert"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

// Ledger is what the API needs from the ledger service
type Ledger interface {
	Snapshot(ctx context.Context) (core.Ledger, error)
	Summary(ctx context.Context, recent int) (core.Summary, error)
	EvaluateAlert(ctx context.Context) (alert.Evaluation, error)
	Expenses(ctx context.Context) ([]core.ExpenseRecord, error)
	Goals(ctx context.Context) ([]core.GoalStatus, error)
	Ready(ctx context.Context) error

	AddIncome(ctx context.Context, name string, amount core.Money, date core.Date) (services.Result, error)
	AddExpense(ctx context.Context, in core.ExpenseInput) (services.Result, error)
	DeleteExpense(ctx context.Context, id string) (services.Result, error)
	AddGoal(ctx context.Context, name string, target core.Money) (services.Result, error)
	ContributeToGoal(ctx context.Context, goalID string, amount core.Money) (services.Result, error)
	SetAlertThreshold(ctx context.Context, value core.Money) (services.Result, error)
	ResetAll(ctx context.Context) (services.Result, error)
}

// Options tune the server; zero values fall back to defaults
type Options struct {
	RecentExpenses     int
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	ledger      Ledger
	recent      int
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	logger      *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, ledger Ledger, opts Options) *Server {
	if opts.RecentExpenses <= 0 {
		opts.RecentExpenses = 5
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 60
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:      ledger,
		recent:      opts.RecentExpenses,
		rateLimiter: newRateLimiter(opts.RateLimitPerMinute, time.Minute),
		metrics:     &securityMetrics{},
		logger:      opts.Logger.WithComponent(log.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/ledger", s.withSecurityHeaders(s.handleLedger))
	mux.HandleFunc("GET /api/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("GET /api/alert", s.withSecurityHeaders(s.handleAlert))

	mux.HandleFunc("GET /api/expenses", s.withSecurityHeaders(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.withSecurityHeaders(s.handleCreateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withSecurityHeaders(s.handleDeleteExpense))

	mux.HandleFunc("POST /api/income", s.withSecurityHeaders(s.handleCreateIncome))

	mux.HandleFunc("GET /api/goals", s.withSecurityHeaders(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.withSecurityHeaders(s.handleCreateGoal))
	mux.HandleFunc("POST /api/goals/{id}/contributions", s.withSecurityHeaders(s.handleContribute))

	mux.HandleFunc("PUT /api/settings/alert-threshold", s.withSecurityHeaders(s.handleSetThreshold))
	mux.HandleFunc("POST /api/reset", s.withSecurityHeaders(s.handleReset))

	return s
}

// Shutdown stops the limiter and drains the HTTP server once
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.logger.InfoContext(ctx, "Security counters",
			"rate_limit_hits", atomic.LoadInt64(&s.metrics.rateLimitHits),
			"suspicious_requests", atomic.LoadInt64(&s.metrics.suspiciousRequests))
		err = s.Server.Shutdown(ctx)
	})
	return err
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request by the middleware
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx = context.WithValue(ctx, log.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		access := log.NewStructuredLogger(logger)
		access.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			logger.WarnContext(ctx, "Suspicious request", log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
		}

		h := w.Header()
		h.Set("X-Request-ID", requestID)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(ctx, "Rate limit exceeded", log.FieldClientIP, clientIP, log.FieldMethod, r.Method)
			rw.Header().Set("Retry-After", "60")
			writeJSON(rw, http.StatusTooManyRequests, errorResponse{
				Error:     "rate limit exceeded, please try again later",
				RequestID: requestID,
			})
		} else {
			next(rw, r)
		}

		access.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ledger.Ready(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("storage unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
