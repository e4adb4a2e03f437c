// Package api is the HTTP control surface: channel and layer mutations,
// telemetry reads, log history, and the Prometheus scrape endpoint.
package api

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/castkit/playoutd/internal/core/channel"
	"github.com/castkit/playoutd/internal/events"
	"github.com/castkit/playoutd/internal/version"
)

// Options configures the API server.
type Options struct {
	AuthUsername      string
	AuthPassword      string
	Channels          map[int]*channel.Channel
	EventBus          *events.Bus
	PrometheusHandler http.Handler
	Logger            *slog.Logger
}

// Server serves the Huma v2 API over Go 1.22+ native routing.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	channels   map[int]*channel.Channel
	eventBus   *events.Bus
	logger     *slog.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("playoutd API", version.Version)
	config.Info.Description = "Control surface for the playoutd channel engine"
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {Type: "http", Scheme: "basic"},
	}

	api := humago.New(mux, config)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		api:      api,
		mux:      mux,
		channels: opts.Channels,
		eventBus: opts.EventBus,
		logger:   logger,
	}

	api.UseMiddleware(s.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))

	s.registerChannelRoutes()
	s.registerFormatRoutes()
	s.registerVersionRoute()
	s.registerLogRoutes()

	if opts.PrometheusHandler != nil {
		mux.Handle("/metrics", opts.PrometheusHandler)
	}

	return s
}

// withAuth marks an operation as requiring basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{{"basicAuth": {}}}
}

// basicAuthMiddleware creates middleware for HTTP basic authentication
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		// Skip auth for operations without security requirements
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		authHeader := ctx.Header("Authorization")
		const prefix = "Basic "
		if !strings.HasPrefix(authHeader, prefix) {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="playoutd API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Authentication required")
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(authHeader[len(prefix):])
		if err != nil {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="playoutd API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials format", err)
			return
		}

		parts := strings.SplitN(string(decoded), ":", 2)
		if len(parts) != 2 || parts[0] != username || parts[1] != password {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="playoutd API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		next(ctx)
	}
}

func (s *Server) channel(index int) (*channel.Channel, error) {
	ch, ok := s.channels[index]
	if !ok {
		return nil, huma.Error404NotFound("channel not found")
	}
	return ch, nil
}

// Start begins serving on addr. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	s.logger.Info("API server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}
