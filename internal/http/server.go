package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kalendar/internal/core"
	appweb "kalendar/web"
)

// Options configures the calendar server. Zero values fall back to
// defaults suitable for tests.
type Options struct {
	// DefaultMonth is the "YYYY-MM" notation rendered when the month query
	// parameter is absent or unparseable.
	DefaultMonth string

	CacheSize int
	CacheTTL  time.Duration

	RateLimitRPS   int
	RateLimitBurst int
}

func (o Options) withDefaults() Options {
	if o.DefaultMonth == "" {
		o.DefaultMonth = "2017-03"
	}
	if o.CacheSize == 0 {
		o.CacheSize = 64
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = 10 * time.Minute
	}
	if o.RateLimitRPS == 0 {
		o.RateLimitRPS = 5
	}
	if o.RateLimitBurst == 0 {
		o.RateLimitBurst = 30
	}
	return o
}

type Server struct {
	http.Server
	templates *template.Template

	// fallback is the prebuilt default month, rendered whenever the query
	// parameter is missing or invalid.
	fallback core.Month

	rateLimiter *rateLimiter
	monthCache  *monthCache

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, opts Options) *Server {
	opts = opts.withDefaults()
	registerMetrics()

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		rateLimiter:      newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		monthCache:       newMonthCache(opts.CacheSize, opts.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	fallback, err := core.BuildMonthFromNotation(opts.DefaultMonth)
	if err != nil {
		// Config validation catches this before the server is built; keep a
		// hard fallback so the index always renders something.
		slog.Warn("Invalid default month, using built-in fallback", "notation", opts.DefaultMonth, "error", err)
		fallback, _ = core.BuildMonth(3, 2017)
	}
	s.fallback = fallback

	go s.startCacheCleanup()

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Tiny cache for static assets
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withObservability(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// startCacheCleanup runs periodic cleanup of expired month entries.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.monthCache.cleanExpired(); cleaned > 0 {
				slog.Debug("Month cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withObservability adds request IDs, security headers, rate limiting,
// request logging, and Prometheus metrics to a handler.
func (s *Server) withObservability(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, http.StatusText(http.StatusTooManyRequests)).Inc()
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, http.StatusText(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.URL.Path, r.Method).Observe(duration.Seconds())

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
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

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleIndex renders the calendar page for the requested month, or the
// configured fallback month when the parameter is absent or invalid.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	month := s.resolveMonth(r.Context(), r.URL.Query().Get("month"))

	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	// Render into a buffer first: a failed render must surface the error
	// text as the page body, not a half-written calendar.
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", month); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		_, _ = w.Write([]byte(err.Error()))
		return
	}
	_, _ = w.Write(buf.Bytes())
}

// resolveMonth builds the Month for the given notation, consulting the
// cache first and falling back to the default month when the notation is
// missing or does not parse.
func (s *Server) resolveMonth(ctx context.Context, notation string) core.Month {
	notation = strings.TrimSpace(notation)
	if notation == "" {
		monthFallbacksTotal.WithLabelValues("missing").Inc()
		return s.fallback
	}

	if month, found := s.monthCache.get(notation); found {
		slog.DebugContext(ctx, "Month cache hit", "notation", notation)
		return month
	}

	month, err := core.BuildMonthFromNotation(notation)
	if err != nil {
		slog.WarnContext(ctx, "Invalid month notation, using fallback", "notation", notation, "error", err)
		monthFallbacksTotal.WithLabelValues("invalid").Inc()
		return s.fallback
	}

	s.monthCache.set(notation, month)
	return month
}
