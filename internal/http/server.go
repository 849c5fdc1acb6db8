package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"tally/internal/chart"
	"tally/internal/core"
	"tally/internal/form"
	"tally/internal/listing"
	"tally/internal/log"
	appweb "tally/web"
)

// Expenses is the read side of the store plus the one mutation the server
// performs directly.
type Expenses interface {
	All() []core.Expense
	Remove(ctx context.Context, id int64) (bool, error)
}

// Deps are the collaborators a Server renders and mutates.
type Deps struct {
	Store              Expenses
	Forms              *form.Controller
	Lister             listing.Renderer
	Charts             *chart.Renderer
	Logger             *log.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	templates   *template.Template
	store       Expenses
	forms       *form.Controller
	lister      listing.Renderer
	charts      *chart.Renderer
	logger      *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		store:       deps.Store,
		forms:       deps.Forms,
		lister:      deps.Lister,
		charts:      deps.Charts,
		logger:      logger,
		rateLimiter: newRateLimiter(deps.RateLimitPerMinute),
		metrics:     &securityMetrics{},
	}
	go s.rateLimiter.startCleanup(5 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /expenses", s.handleSubmit)
	mux.HandleFunc("GET /expenses/{id}/edit", s.handleEdit)
	mux.HandleFunc("POST /expenses/{id}/delete", s.handleDelete)
	mux.HandleFunc("GET /export.csv", s.handleExport)
	mux.HandleFunc("GET /api/expenses", s.handleAPIList)

	requestIDs := log.RequestIDMiddleware(logger, requestID)
	s.Server = http.Server{
		Addr:              addr,
		Handler:           requestIDs(s.withSecurity(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// withSecurity adds security headers, POST rate limiting, and request
// logging to every response.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger := log.FromContext(ctx)
		clientIP := extractClientIP(r)

		req := log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.Header.Get("User-Agent"))
		logger.DebugContext(ctx, "Request started", append(req.ToSlice(), log.FieldClientIP, clientIP)...)

		if isSuspiciousRequest(r) {
			s.metrics.suspiciousRequests.Add(1)
			logger.WarnContext(ctx, "Suspicious request", append(req.ToSlice(), log.FieldClientIP, clientIP)...)
		}

		setSecurityHeaders(w.Header())

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			s.metrics.rateLimitHits.Add(1)
			logger.WarnContext(ctx, "Rate limit exceeded", log.FieldClientIP, clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		res := log.NewFields().WithHTTPResponse(rw.statusCode, time.Since(start).Milliseconds())
		logger.InfoContext(ctx, "Request completed",
			append(append(req.ToSlice(), res.ToSlice()...), log.FieldClientIP, clientIP)...)
	})
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown stops the rate limiter, releases the live chart and shuts the
// HTTP server down. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
		if s.charts != nil {
			if err := s.charts.Close(); err != nil {
				s.logger.Warn("Failed to release chart", "error", err)
			}
		}
	})
	return shutdownErr
}
