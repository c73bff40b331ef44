// Package httpapi exposes the finance backend as a JSON HTTP API.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/categories"
	"finanzas/internal/core"
	"finanzas/internal/reports"
	"finanzas/internal/store"
)

// Handlers depend on the narrow service surfaces below so tests can swap in
// fakes.
type (
	CategoryLister interface {
		List(ctx context.Context, userID string) []string
	}

	CategoryMutator interface {
		Create(ctx context.Context, userID, rawName string) (core.Category, error)
		Rename(ctx context.Context, userID, oldRaw, newRaw string) (categories.RenameResult, error)
		Delete(ctx context.Context, userID, rawName string) (categories.DeleteResult, error)
	}

	ReportReader interface {
		CurrentBalance(ctx context.Context, userID string) (decimal.Decimal, error)
		MonthlyTrend(ctx context.Context, userID string) ([]reports.CategoryTrend, error)
		MostProblematic(ctx context.Context, userID string) reports.Diagnostic
	}

	StatementBuilder interface {
		BuildStatement(ctx context.Context, userID string) (*reports.Statement, error)
	}

	// EventPublisher feeds the ledger mirror. Publishing is best effort and
	// never fails a request.
	EventPublisher interface {
		PublishTransactionCreated(ctx context.Context, id, userID string) error
	}
)

type Deps struct {
	Categories CategoryLister
	Mutations  CategoryMutator
	Reports    ReportReader
	Statements StatementBuilder
	Renderer   reports.Renderer
	TxReader   store.TransactionReader
	TxWriter   store.TransactionWriter
	Publisher  EventPublisher // optional
}

type Server struct {
	http.Server
	deps         Deps
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		deps:        deps,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /{$}", s.withMiddleware(s.handleRoot))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/categories/{user_id}", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories/{user_id}", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{user_id}", s.withMiddleware(s.handleRenameCategory))
	mux.HandleFunc("DELETE /api/categories/{user_id}", s.withMiddleware(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/reports/problematic_category/{user_id}", s.withMiddleware(s.handleProblematicCategory))
	mux.HandleFunc("GET /api/reports/monthly", s.withMiddleware(s.handleMonthlyReport))
	mux.HandleFunc("GET /api/reports/download", s.withMiddleware(s.handleDownloadReport))

	mux.HandleFunc("POST /api/transactions/{user_id}", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{user_id}/latest", s.withMiddleware(s.handleLatestTransactions))
	mux.HandleFunc("GET /api/balance/{user_id}", s.withMiddleware(s.handleBalance))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, per-IP rate limiting on mutating
// methods, and request-scoped logging with a generated request ID.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "finanzas",
		"status":  "ok",
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
