package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/utils/metrics"
)

// config holds internal HTTP server configuration
type config struct {
	addr          string
	webhookSecret string
	apiSecret     string
	maxBodyBytes  int64
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithWebhookSecret sets the webhook secret
func WithWebhookSecret(secret string) Option {
	return func(c *config) {
		c.webhookSecret = secret
	}
}

// WithAPISecret sets the shared secret signing /api/v1 requests. Publishing
// through the API is only enabled when a secret is set.
func WithAPISecret(secret string) Option {
	return func(c *config) {
		c.apiSecret = secret
	}
}

// WithMaxBodyBytes limits request bodies
func WithMaxBodyBytes(n int64) Option {
	return func(c *config) {
		c.maxBodyBytes = n
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	runtime interfaces.RuntimeProvider,
	webhookUC interfaces.WebhookUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr:         "localhost:8080",
		maxBodyBytes: 10 << 20,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)
	router.Use(bodyLimit(cfg.maxBodyBytes))

	router.Get("/health", newHealthHandler(runtime).Handle)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	api := newAPIHandler(runtime)
	router.Route("/api/v1", func(r chi.Router) {
		if cfg.apiSecret != "" {
			r.Use(SignatureMiddleware(cfg.apiSecret, APISignatureHeader))
		}
		r.Post("/modifications/filter", api.FilterModifications)
		r.Post("/notifications/preview", api.PreviewNotification)
		if cfg.apiSecret != "" {
			r.Post("/notifications", api.PublishNotification)
		}
	})

	// Webhook endpoint
	webhookHandler := NewWebhookHandler(cfg.webhookSecret, webhookUC)
	router.Post("/hooks/github/app", webhookHandler.Handle)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
