package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/session"
	appweb "fintrack/web"
)

// Config holds the presentation settings of the server.
type Config struct {
	CurrencySymbol     string
	RateLimitPerMinute int
	// Ready reports whether ledger storage is usable; nil means always.
	Ready func(ctx context.Context) error
	// Now overrides time.Now for default entry dates; tests only.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates  *template.Template
	sessions   *session.Manager
	publisher  events.Publisher
	logger     *log.Logger
	structured *log.StructuredLogger
	currency   string
	ready      func(ctx context.Context) error
	now        func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics *applicationMetrics

	shutdownOnce sync.Once
}

type applicationMetrics struct {
	incomeLogged    atomic.Int64
	expensesLogged  atomic.Int64
	rejected        atomic.Int64
	publishFailures atomic.Int64
	uptime          time.Time
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, sessions *session.Manager, publisher events.Publisher, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = "$"
	}
	if cfg.Ready == nil {
		cfg.Ready = func(context.Context) error { return nil }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	logger = logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector()

	s := &Server{
		sessions:         sessions,
		publisher:        publisher,
		logger:           logger,
		structured:       log.NewStructuredLogger(logger),
		currency:         cfg.CurrencySymbol,
		ready:            cfg.Ready,
		now:              cfg.Now,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       &applicationMetrics{uptime: time.Now()},
	}

	t, err := template.New("").Funcs(templateFuncs(s.currency)).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	noStore := func(h http.HandlerFunc) http.Handler { return security.NoStore(h) }
	mux.Handle("GET /{$}", noStore(s.handleIndex))
	mux.Handle("POST /income", noStore(s.handleCreateIncome))
	mux.Handle("POST /expenses", noStore(s.handleCreateExpense))
	mux.Handle("GET /ui/overview", noStore(s.handleOverview))
	mux.Handle("GET /export/income.csv", noStore(s.handleExportIncome))
	mux.Handle("GET /export/expenses.csv", noStore(s.handleExportExpenses))
	mux.Handle("POST /session/end", noStore(s.handleEndSession))

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimited, http.MethodPost)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).Warn("Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again in a minute.").
		TriggerErrorNotification("Too many requests. Please try again in a minute.").
		Write(w)
}

// Shutdown stops background work and gracefully shuts down the HTTP
// server. Sessions are owned by the session manager and are not touched.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
