// Package server exposes the pipeline over HTTP.
//
// # Routes
//
//	GET  /healthz                  build info
//	GET  /v1/presets               preset names and descriptions
//	GET  /v1/presets/{name}        preset descriptor (?target=&attribute=)
//	POST /v1/validate              validate a descriptor body (?strict=)
//	POST /v1/materialize           build a descriptor, return result and graph
//	POST /v1/render                build and render (?format=dot|svg|json&detailed=)
//
// The materialize and render endpoints accept ?preset=NAME in place of a
// body. Every /v1 request is rate limited per client address; rejected
// requests get 429 with a Retry-After header. Errors are JSON objects of the
// form {"code": "...", "message": "..."}.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/matzehuels/geonodes/pkg/pipeline"
)

// Defaults for Options.
const (
	DefaultRate         = 5.0
	DefaultBurst        = 10
	DefaultMaxBodyBytes = 1 << 20
	shutdownTimeout     = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Rate is the sustained requests per second allowed per client.
	Rate float64
	// Burst is the number of requests a client may make at once.
	Burst int
	// Strict makes /v1/validate, /v1/materialize and /v1/render reject
	// duplicate node ids unless the request overrides it with ?strict=false.
	Strict bool
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
}

func (o *Options) setDefaults() {
	if o.Rate <= 0 {
		o.Rate = DefaultRate
	}
	if o.Burst <= 0 {
		o.Burst = DefaultBurst
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Server serves the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	opts    Options
	limiter *clientLimiter
	router  chi.Router
}

// New creates a Server. A nil logger discards all output.
func New(runner *pipeline.Runner, logger *log.Logger, opts Options) *Server {
	opts.setDefaults()
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{
		runner:  runner,
		logger:  logger,
		opts:    opts,
		limiter: newClientLimiter(rate.Limit(opts.Rate), opts.Burst),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/presets", s.handlePresets)
		r.Get("/presets/{name}", s.handlePreset)
		r.Post("/validate", s.handleValidate)
		r.Post("/materialize", s.handleMaterialize)
		r.Post("/render", s.handleRender)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " not allowed on " + r.URL.Path})
	})
	return r
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
