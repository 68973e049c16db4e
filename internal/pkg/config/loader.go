package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables.
// A .env file in the working directory is loaded first; it never overrides
// variables already set in the environment.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()

	// Set defaults from DefaultConfig
	setDefaults(v, cfg)

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Config file not found is ok - we use defaults and env vars
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Read from environment variables
	v.SetEnvPrefix("FRAUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, cfg *Config) {
	// Server defaults
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	// Database defaults
	v.SetDefault("database.host", cfg.Database.Host)
	v.SetDefault("database.port", cfg.Database.Port)
	v.SetDefault("database.user", cfg.Database.User)
	v.SetDefault("database.password", cfg.Database.Password)
	v.SetDefault("database.name", cfg.Database.Name)
	v.SetDefault("database.ssl_mode", cfg.Database.SSLMode)
	v.SetDefault("database.max_open_conns", cfg.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", cfg.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", cfg.Database.ConnMaxLifetime)
	v.SetDefault("database.auto_migrate", cfg.Database.AutoMigrate)

	// Redis defaults
	v.SetDefault("redis.host", cfg.Redis.Host)
	v.SetDefault("redis.port", cfg.Redis.Port)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.pool_size", cfg.Redis.PoolSize)
	v.SetDefault("redis.read_timeout", cfg.Redis.ReadTimeout)
	v.SetDefault("redis.write_timeout", cfg.Redis.WriteTimeout)

	// Alert bus defaults
	v.SetDefault("kafka.brokers", cfg.Kafka.Brokers)
	v.SetDefault("kafka.fraud_alerts_topic", cfg.Kafka.FraudAlertsTopic)
	v.SetDefault("nats.url", cfg.NATS.URL)
	v.SetDefault("nats.subject", cfg.NATS.Subject)
	v.SetDefault("rabbitmq.url", cfg.RabbitMQ.URL)
	v.SetDefault("rabbitmq.exchange", cfg.RabbitMQ.Exchange)
	v.SetDefault("rabbitmq.routing_key", cfg.RabbitMQ.RoutingKey)
	v.SetDefault("alerts.driver", cfg.Alerts.Driver)

	// Fraud defaults
	v.SetDefault("fraud.decline_threshold", cfg.Fraud.DeclineThreshold)
	v.SetDefault("fraud.manual_review_threshold", cfg.Fraud.ManualReviewThreshold)
	v.SetDefault("fraud.ensemble_blend_weight", cfg.Fraud.EnsembleBlendWeight)
	v.SetDefault("fraud.external_blend_weight", cfg.Fraud.ExternalBlendWeight)
	v.SetDefault("fraud.high_amount_threshold", cfg.Fraud.HighAmountThreshold)
	v.SetDefault("fraud.max_transactions_per_hour", cfg.Fraud.MaxTransactionsPerHour)
	v.SetDefault("fraud.blocked_countries", cfg.Fraud.BlockedCountries)
	v.SetDefault("fraud.high_risk_countries", cfg.Fraud.HighRiskCountries)
	v.SetDefault("fraud.analysis_timeout", cfg.Fraud.AnalysisTimeout)
	v.SetDefault("fraud.batch_concurrency", cfg.Fraud.BatchConcurrency)

	// Ensemble defaults
	v.SetDefault("ensemble.classifier_weight", cfg.Ensemble.ClassifierWeight)
	v.SetDefault("ensemble.rule_based_weight", cfg.Ensemble.RuleBasedWeight)
	v.SetDefault("ensemble.statistical_weight", cfg.Ensemble.StatisticalWeight)
	v.SetDefault("ensemble.behavioral_weight", cfg.Ensemble.BehavioralWeight)

	v.SetDefault("ml.model_path", cfg.ML.ModelPath)
	v.SetDefault("ml.model_version", cfg.ML.ModelVersion)
	v.SetDefault("ml.enabled", cfg.ML.Enabled)

	v.SetDefault("geoip.city_db_path", cfg.GeoIP.CityDBPath)
	v.SetDefault("geoip.anonymous_ip_db_path", cfg.GeoIP.AnonymousIPDBPath)

	// Signal provider defaults
	v.SetDefault("signal.endpoint", cfg.Signal.Endpoint)
	v.SetDefault("signal.api_key", cfg.Signal.APIKey)
	v.SetDefault("signal.timeout", cfg.Signal.Timeout)
	v.SetDefault("signal.breaker_max_failures", cfg.Signal.BreakerMaxFailures)
	v.SetDefault("signal.breaker_open_timeout", cfg.Signal.BreakerOpenTimeout)
	v.SetDefault("signal.static_score", cfg.Signal.StaticScore)

	v.SetDefault("ratelimit.enabled", cfg.RateLimit.Enabled)
	v.SetDefault("ratelimit.requests_per_second", cfg.RateLimit.RequestsPerSecond)

	v.SetDefault("monitoring.enabled", cfg.Monitoring.Enabled)
	v.SetDefault("monitoring.interval", cfg.Monitoring.Interval)
	v.SetDefault("monitoring.lookback_period", cfg.Monitoring.LookbackPeriod)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}
