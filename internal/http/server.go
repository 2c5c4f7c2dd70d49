// Package http exposes the obligations API over JSON.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"contas/internal/bills"
	"contas/internal/core"
	"contas/internal/services"
)

// BillService is the application surface the handlers call into.
type BillService interface {
	Create(ctx context.Context, params bills.CreateParams) (core.Obligation, error)
	Pay(ctx context.Context, id string, params bills.PayParams) (core.Obligation, error)
	Settle(ctx context.Context, id string, params bills.SettleParams) (core.Obligation, error)
	Abate(ctx context.Context, id string, params bills.AbateParams) (core.Obligation, error)
	Defer(ctx context.Context, id string, year, month int) (core.Obligation, core.Obligation, error)
	Exclude(ctx context.Context, id string, year, month int) (core.Obligation, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (core.Obligation, error)
	View(ctx context.Context, year, month int, now time.Time) (services.MonthView, error)
}

type Server struct {
	http.Server
	service      BillService
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, service BillService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		service: service,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/bills", s.withMiddleware(s.handleBills))
	mux.HandleFunc("/bills/pay", s.withMiddleware(s.handlePay))
	mux.HandleFunc("/bills/settle", s.withMiddleware(s.handleSettle))
	mux.HandleFunc("/bills/abate", s.withMiddleware(s.handleAbate))
	mux.HandleFunc("/bills/defer", s.withMiddleware(s.handleDefer))
	mux.HandleFunc("/bills/exclude", s.withMiddleware(s.handleExclude))

	return s
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path)

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
			"duration_ms", time.Since(start).Milliseconds())
	}
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

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
