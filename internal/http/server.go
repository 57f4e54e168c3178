package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"cashcount/internal/cache"
	"cashcount/internal/currency"
	applog "cashcount/internal/log"
	"cashcount/internal/middleware/ratelimit"
	"cashcount/internal/middleware/security"
	"cashcount/internal/middleware/trace"
	"cashcount/internal/session"
	appweb "cashcount/web"
)

// ServerConfig collects the collaborators of a Server. Registry is required;
// everything else has a default.
type ServerConfig struct {
	Addr      string
	Registry  *session.Registry
	Formatter *currency.Formatter
	Logger    *applog.Logger

	Detector  *security.Detector
	Headers   security.HeadersConfig
	RateLimit ratelimit.Config

	// Caches is stopped on shutdown when set.
	Caches *cache.Manager

	// Templates overrides the embedded templates.
	Templates fs.FS
}

type appMetrics struct {
	intentsApplied atomic.Int64
	resets         atomic.Int64
	renderErrors   atomic.Int64
	uptime         time.Time
}

type Server struct {
	http.Server
	templates *template.Template

	registry  *session.Registry
	formatter *currency.Formatter
	logger    *applog.Logger

	detector        *security.Detector
	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	caches          *cache.Manager

	appMetrics   appMetrics
	now          func() time.Time
	shutdownOnce sync.Once
}

var errNoRegistry = errors.New("http: session registry is required")

// NewServer configures routes and templates, returning a ready-to-run server.
// A template parse failure is logged and reported by /readyz; pages then
// answer 500.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errNoRegistry
	}
	if cfg.Formatter == nil {
		cfg.Formatter = currency.MustKRW()
	}
	if cfg.Logger == nil {
		cfg.Logger = applog.FromContext(context.Background())
	}
	if cfg.Detector == nil {
		d, err := security.NewDetector()
		if err != nil {
			return nil, fmt.Errorf("security detector: %w", err)
		}
		cfg.Detector = d
	}
	if cfg.RateLimit.RequestsPerMinute <= 0 {
		cfg.RateLimit = ratelimit.DefaultConfig()
	}
	if cfg.Headers == (security.HeadersConfig{}) {
		cfg.Headers = security.DefaultHeadersConfig()
	}
	if cfg.Templates == nil {
		cfg.Templates = appweb.TemplatesFS
	}

	logger := cfg.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16, // 64KB
		},
		registry:        cfg.Registry,
		formatter:       cfg.Formatter,
		logger:          logger,
		detector:        cfg.Detector,
		rateLimiter:     ratelimit.NewLimiter(cfg.RateLimit),
		traceMiddleware: trace.NewMiddleware(cfg.Logger, cfg.Detector.ExtractClientIP),
		caches:          cfg.Caches,
		now:             time.Now,
	}
	s.appMetrics.uptime = s.now()

	t, err := template.ParseFS(cfg.Templates, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates",
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldError, err)
	}
	s.templates = t

	s.Handler = s.routes(cfg.Headers)
	return s, nil
}

func (s *Server) routes(headers security.HeadersConfig) http.Handler {
	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", s.handleIndex)
	app.HandleFunc("POST /denominations/{id}/{field}/{op}", s.handleIntent)
	app.HandleFunc("POST /denominations/{id}/{field}", s.handleIntent)
	app.HandleFunc("POST /reset", s.handleReset)
	app.HandleFunc("GET /ui/summary", s.handleSummary)
	app.HandleFunc("GET /api/tally", s.handleTally)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.Handle("/", security.NoStore(s.registry.Middleware(app)))

	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(mux)
	headersMiddleware := security.NewHeadersMiddleware(headers)
	return s.traceMiddleware.Middleware(headersMiddleware.Middleware(s.detector.Middleware(limited)))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("요청이 너무 많습니다. 잠시 후 다시 시도하세요.").Write(w)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		if s.caches != nil {
			s.caches.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
