package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/application/monitoring"
	"fraud-scoring-service/internal/application/scoring"
	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/infrastructure/behavior"
	"fraud-scoring-service/internal/infrastructure/cache/redis"
	"fraud-scoring-service/internal/infrastructure/database/memory"
	"fraud-scoring-service/internal/infrastructure/database/postgres"
	"fraud-scoring-service/internal/infrastructure/geo"
	"fraud-scoring-service/internal/infrastructure/http/router"
	"fraud-scoring-service/internal/infrastructure/messaging"
	"fraud-scoring-service/internal/infrastructure/metrics"
	"fraud-scoring-service/internal/infrastructure/ml"
	"fraud-scoring-service/internal/infrastructure/riskfactor"
	"fraud-scoring-service/internal/infrastructure/rules"
	sig "fraud-scoring-service/internal/infrastructure/signal"
	"fraud-scoring-service/internal/interfaces/http/handler"
	"fraud-scoring-service/internal/pkg/config"
	"fraud-scoring-service/internal/pkg/logger"
)

const (
	serviceName = "fraud-scoring-service"
	version     = "1.0.0"

	connectTimeout = 5 * time.Second
)

// stores groups the repositories the pipeline reads and writes
type stores struct {
	transactions transaction.Repository
	profiles     fraud.ProfileRepository
	decisions    fraud.DecisionRepository
	alerts       fraud.AlertRepository
	db           *postgres.Client
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(serviceName, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting fraud scoring service",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Storage, falling back to the in-memory store
	st := openStores(ctx, cfg, log)
	mode := "connected"
	if st.db == nil {
		mode = "standalone"
	}

	// Redis velocity cache and rate limiter
	var routerOpts []router.Option
	redisClient, err := redis.NewClient(ctx, redis.Config{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Warn("redis unavailable, velocity cache and rate limiting disabled", zap.Error(err))
		redisClient = nil
	} else {
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr()))
		velocity := redis.NewVelocityCache(redisClient, nil)
		st.transactions = redis.NewCachedRepository(st.transactions, velocity, log)
		if cfg.RateLimit.Enabled {
			limiter := redis.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerSecond, log)
			routerOpts = append(routerOpts, router.WithRateLimit(limiter.Middleware))
		}
	}

	// Geolocation
	locator, err := geo.Open(cfg.GeoIP.CityDBPath, cfg.GeoIP.AnonymousIPDBPath)
	if err != nil {
		log.Warn("geoip databases unavailable, geo checks disabled", zap.Error(err))
		locator, _ = geo.Open("", "")
	}

	// ML classifier and ensemble
	var model *ml.Model
	if cfg.ML.Enabled {
		model, err = ml.LoadModel(cfg.ML.ModelPath)
		if err != nil {
			log.Warn("model unavailable, using heuristic classifier",
				zap.String("path", cfg.ML.ModelPath),
				zap.Error(err),
			)
			model = nil
		} else if model.Version != cfg.ML.ModelVersion {
			log.Warn("model version differs from configuration",
				zap.String("loaded", model.Version),
				zap.String("configured", cfg.ML.ModelVersion),
			)
		}
	}
	classifier := ml.NewClassifier(model, log)

	risk := riskfactor.NewCalculator(st.transactions, log,
		riskfactor.WithHighRiskCountries(cfg.Fraud.HighRiskCountries),
		riskfactor.WithMetrics(m),
	)
	ensemble := ml.NewEnsemble(classifier, risk, fraud.ScoreWeights{
		Classifier:  cfg.Ensemble.ClassifierWeight,
		RuleBased:   cfg.Ensemble.RuleBasedWeight,
		Statistical: cfg.Ensemble.StatisticalWeight,
		Behavioral:  cfg.Ensemble.BehavioralWeight,
	}, log, m)
	analyzer := behavior.NewAnalyzer(st.transactions, locator, log)

	thresholds := fraud.DecisionThresholds{
		ManualReview: cfg.Fraud.ManualReviewThreshold,
		Decline:      cfg.Fraud.DeclineThreshold,
	}
	ruleEngine := rules.NewEngine(st.transactions, st.profiles, rules.Config{
		BlockedCountries:       cfg.Fraud.BlockedCountries,
		HighAmountThreshold:    cfg.Fraud.GetHighAmountThreshold(),
		MaxTransactionsPerHour: cfg.Fraud.MaxTransactionsPerHour,
		Thresholds:             thresholds,
	}, log)

	// External signal provider
	var signalProvider fraud.SignalProvider
	if cfg.Signal.Endpoint != "" {
		client, err := sig.NewClient(sig.Config{
			Endpoint:           cfg.Signal.Endpoint,
			APIKey:             cfg.Signal.APIKey,
			Timeout:            cfg.Signal.Timeout,
			BreakerMaxFailures: cfg.Signal.BreakerMaxFailures,
			BreakerOpenTimeout: cfg.Signal.BreakerOpenTimeout,
		}, log)
		if err != nil {
			log.Fatal("failed to create signal client", zap.Error(err))
		}
		signalProvider = client
	} else {
		log.Warn("no signal endpoint configured, using static signal",
			zap.Float64("probability", cfg.Signal.StaticScore),
		)
		signalProvider = sig.StaticProvider{Probability: cfg.Signal.StaticScore}
	}

	// Alert bus
	publisher, err := messaging.New(ctx, cfg, log)
	if err != nil {
		log.Warn("alert bus unavailable, alerts go to the log",
			zap.String("driver", cfg.Alerts.Driver),
			zap.Error(err),
		)
		publisher = messaging.NewLogPublisher(log)
	}
	alerts := messaging.NewRecorder(publisher, st.alerts, m, log)

	// Initialize use case
	scorer := scoring.NewScoreTransactionUseCase(scoring.Dependencies{
		Rules:     ruleEngine,
		Profiles:  st.profiles,
		Analyzer:  analyzer,
		Predictor: ensemble,
		Risk:      risk,
		Signal:    signalProvider,
		Alerts:    alerts,
		Sink:      st.transactions,
		Decisions: st.decisions,
	}, scoring.Config{
		Thresholds:          thresholds,
		EnsembleBlendWeight: cfg.Fraud.EnsembleBlendWeight,
		ExternalBlendWeight: cfg.Fraud.ExternalBlendWeight,
		AnalysisTimeout:     cfg.Fraud.AnalysisTimeout,
		BatchConcurrency:    cfg.Fraud.BatchConcurrency,
	}, log, scoring.WithMetrics(m))

	// Hourly anomaly scan
	if cfg.Monitoring.Enabled {
		scanner := monitoring.NewHourlyAnomalyScanner(st.transactions, alerts, monitoring.Config{
			Interval: cfg.Monitoring.Interval,
			Lookback: cfg.Monitoring.LookbackPeriod,
		}, log, monitoring.WithMetrics(m))
		go scanner.Run(ctx)
	}

	// Initialize handlers
	checks := map[string]handler.HealthChecker{}
	if st.db != nil {
		checks["database"] = st.db
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	fraudHandler := handler.NewFraudHandler(scorer, nil, log)
	healthHandler := handler.NewHealthHandler(version, mode, checks)

	routerCfg := router.Config{
		RequestTimeout: cfg.Server.WriteTimeout,
		Development:    cfg.Log.Format == "console",
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsPath = cfg.Metrics.Path
		routerOpts = append(routerOpts, router.WithMetrics(handler.MetricsHandler(reg)))
	}
	r := router.NewRouter(fraudHandler, healthHandler, routerCfg, log, routerOpts...)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", server.Addr), zap.String("mode", mode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	// Close connections
	if err := publisher.Close(); err != nil {
		log.Warn("alert publisher close failed", zap.Error(err))
	}
	if err := locator.Close(); err != nil {
		log.Warn("geoip close failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if st.db != nil {
		_ = st.db.Close()
	}

	log.Info("server stopped")
}

// openStores connects to Postgres, or returns the in-memory store when it cannot
func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) stores {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	db, err := postgres.NewClient(connectCtx, postgres.Config{
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err == nil && cfg.Database.AutoMigrate {
		if err = db.AutoMigrate(connectCtx); err != nil {
			_ = db.Close()
		}
	}
	if err != nil {
		log.Warn("database unavailable, running in standalone mode", zap.Error(err))
		return stores{
			transactions: memory.NewTransactionRepository(nil),
			profiles:     memory.NewProfileRepository(),
			decisions:    memory.NewDecisionRepository(),
			alerts:       memory.NewAlertRepository(),
		}
	}

	log.Info("connected to postgres",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
	)
	return stores{
		transactions: postgres.NewTransactionRepository(db, nil),
		profiles:     postgres.NewProfileRepository(db),
		decisions:    postgres.NewDecisionRepository(db),
		alerts:       postgres.NewAlertRepository(db),
		db:           db,
	}
}
