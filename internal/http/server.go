// Package http exposes the routing service over a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"insights/internal/core"
	"insights/internal/log"
	"insights/internal/middleware/ratelimit"
	"insights/internal/middleware/security"
	"insights/internal/middleware/trace"
	"insights/internal/services"
)

const readyTimeout = 2 * time.Second

// QueryService is the application surface the handlers depend on.
type QueryService interface {
	Route(ctx context.Context, intent core.Intent) (core.RoutedResult, error)
	Chat(ctx context.Context, question string) (services.ChatResponse, error)
}

// Options configures optional server behavior.
type Options struct {
	Logger                *log.Logger
	Ready                 func(ctx context.Context) error
	RequestTimeout        time.Duration
	ChatRequestsPerMinute int
}

type Server struct {
	http.Server
	svc         QueryService
	ready       func(ctx context.Context) error
	chatLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc QueryService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}
	resolver := security.NewIPResolver()

	s := &Server{
		svc:   svc,
		ready: opts.Ready,
		chatLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.ChatRequestsPerMinute,
		}),
		tracer: trace.NewMiddleware(logger, resolver.ClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/customers/{id}", s.handleCustomer)
	mux.HandleFunc("GET /api/products/{id}", s.handleProduct)
	mux.HandleFunc("GET /api/metrics/summary", s.handleMetric(core.MetricSummary))
	mux.HandleFunc("GET /api/metrics/by_category", s.handleMetric(core.MetricByCategory))
	mux.HandleFunc("GET /api/metrics/by_payment", s.handleMetric(core.MetricByPayment))
	mux.HandleFunc("GET /api/metrics/top_customers", s.handleMetric(core.MetricTopCustomers))
	mux.HandleFunc("GET /api/metrics/top_products", s.handleMetric(core.MetricTopProducts))
	mux.HandleFunc("POST /api/route", s.handleRoute)

	chat := s.chatLimiter.Middleware(resolver.ClientIP, s.handleRateLimited)(http.HandlerFunc(s.handleChat))
	mux.Handle("POST /chat", chat)

	var handler http.Handler = mux
	handler = withTimeout(opts.RequestTimeout)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// withTimeout bounds the request context so store and model calls stop
// when the client budget is spent.
func withTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.chatLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
