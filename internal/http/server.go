package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"financas/internal/auth"
	"financas/internal/log"
	"financas/internal/metrics"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/services"
)

// Config holds the listener settings of the API server.
type Config struct {
	Addr string
	// H2C enables cleartext HTTP/2 for deployments behind a proxy that
	// speaks it.
	H2C                bool
	RateLimitPerMinute int
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Logger    *log.Logger
	Records   services.RecordServices
	Dashboard DashboardProvider
	Auth      Authenticator
	Sessions  *auth.SessionManager
	Users     UserLookup
	DB        Pinger
}

// Server is the JSON API server.
type Server struct {
	http.Server

	logger    *log.Logger
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	authn     Authenticator
	sessions  *auth.SessionManager
	users     UserLookup
	dashboard DashboardProvider
	db        Pinger
	startedAt time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		logger:    logger.WithComponent(log.ComponentHTTP),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:  security.NewDetector(),
		authn:     deps.Auth,
		sessions:  deps.Sessions,
		users:     deps.Users,
		dashboard: deps.Dashboard,
		db:        deps.DB,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux, deps.Records)

	var handler http.Handler = metrics.Middleware(mux)
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.MutatingMethods, s.rateLimited)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(logger, s.detector.ExtractClientIP).Middleware(handler)
	if cfg.H2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux, records services.RecordServices) {
	protect := s.sessions.RequireSession(writeUnauthorized)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/categorias", handleCategories)
	mux.HandleFunc("GET /api/formas-pagamento", handlePaymentMethods)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.Handle("GET /api/auth/session", protect(http.HandlerFunc(s.handleSession)))

	mux.Handle("GET /api/dashboard", protect(http.HandlerFunc(s.handleDashboard)))

	mountRecords(mux, records.MonthlyBills, protect)
	mountRecords(mux, records.Installments, protect)
	mountRecords(mux, records.VariableExpenses, protect)
	mountRecords(mux, records.Incomes, protect)
	mountRecords(mux, records.FutureBills, protect)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.RecordRateLimited()
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.NewFields().
			WithRequestID(trace.GetRequestID(r.Context())).
			WithClientIP(s.detector.ExtractClientIP(r)).
			WithHTTPRequest(r.Method, r.URL.Path, "", "").
			ToSlice()...)
	ErrorResponse(http.StatusTooManyRequests, msgRateLimited).Write(w)
}

// Shutdown stops the background cleanup and drains the HTTP server. It is
// safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
