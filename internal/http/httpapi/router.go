// Package httpapi assembles the chi router for the public API.
package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"colorbook/internal/http/handlers"
	"colorbook/internal/middleware"
)

// Options configures the router.
type Options struct {
	JWTSecret       string
	RateLimitPerMin int
	AllowedOrigins  []string

	// StaticDir, when set, serves published artifacts under /static/.
	StaticDir string
}

// NewRouter wires middleware and routes around the handler set.
func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.RateLimit(opts.RateLimitPerMin))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/books", func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))
		r.Post("/generate", app.GenerateBook)
		r.Get("/generate/{jobID}", app.JobStatus)
		r.Get("/", app.ListBooks)
		r.Get("/{bookID}", app.GetBook)
	})

	if opts.StaticDir != "" {
		fs := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
