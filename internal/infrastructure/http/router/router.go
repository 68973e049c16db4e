package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/interfaces/http/handler"
	"fraud-scoring-service/internal/pkg/logger"
)

// Config holds router options
type Config struct {
	RequestTimeout time.Duration
	MetricsPath    string // empty disables /metrics
	Development    bool   // relaxes secure headers for local http
}

// Router holds all HTTP handlers
type Router struct {
	mux           chi.Router
	fraudHandler  *handler.FraudHandler
	healthHandler *handler.HealthHandler
	metrics       http.Handler
	limiter       func(http.Handler) http.Handler
	cfg           Config
	logger        *zap.Logger
}

// Option customizes the router
type Option func(*Router)

// WithRateLimit guards the scoring routes
func WithRateLimit(mw func(http.Handler) http.Handler) Option {
	return func(r *Router) { r.limiter = mw }
}

// WithMetrics serves h on cfg.MetricsPath
func WithMetrics(h http.Handler) Option {
	return func(r *Router) { r.metrics = h }
}

// NewRouter creates a new router with all routes configured
func NewRouter(
	fraudHandler *handler.FraudHandler,
	healthHandler *handler.HealthHandler,
	cfg Config,
	log *zap.Logger,
	opts ...Option,
) *Router {
	r := &Router{
		mux:           chi.NewRouter(),
		fraudHandler:  fraudHandler,
		healthHandler: healthHandler,
		cfg:           cfg,
		logger:        logger.OrNop(log).Named("router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	sec := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		STSSeconds:         31536000,
		IsDevelopment:      r.cfg.Development,
	})

	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.RealIP)
	r.mux.Use(r.requestLogger)
	r.mux.Use(middleware.Recoverer)
	r.mux.Use(sec.Handler)
	r.mux.Use(cors)

	// Health endpoints
	r.mux.Get("/health", r.healthHandler.Health)
	r.mux.Get("/ready", r.healthHandler.Ready)
	r.mux.Get("/live", r.healthHandler.Live)

	if r.metrics != nil && r.cfg.MetricsPath != "" {
		r.mux.Method(http.MethodGet, r.cfg.MetricsPath, r.metrics)
	}

	r.mux.Route("/api/v1/fraud", func(api chi.Router) {
		if r.cfg.RequestTimeout > 0 {
			api.Use(middleware.Timeout(r.cfg.RequestTimeout))
		}

		// Scoring endpoints
		api.Group(func(scoring chi.Router) {
			if r.limiter != nil {
				scoring.Use(r.limiter)
			}
			scoring.Post("/score", r.fraudHandler.ScoreTransaction)
			scoring.Post("/score/batch", r.fraudHandler.ScoreBatch)
		})

		// Decision audit trail
		api.Get("/decisions/{transactionID}", r.fraudHandler.GetDecision)
		api.Get("/users/{userID}/decisions", r.fraudHandler.GetUserDecisions)
	})
}

// requestLogger writes one line per request
func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		defer func() {
			r.logger.Debug("request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(req.Context())),
			)
		}()
		next.ServeHTTP(ww, req)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r
}
