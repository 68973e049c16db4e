package config

import (
	"errors"
	"fmt"
	"math"
)

const weightTolerance = 1e-6

var validAlertDrivers = map[string]bool{
	"log":      true,
	"kafka":    true,
	"nats":     true,
	"rabbitmq": true,
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	if c.Fraud.DeclineThreshold < 0 || c.Fraud.DeclineThreshold > 1 {
		return errors.New("decline_threshold must be between 0 and 1")
	}

	if c.Fraud.ManualReviewThreshold < 0 || c.Fraud.ManualReviewThreshold > 1 {
		return errors.New("manual_review_threshold must be between 0 and 1")
	}

	if c.Fraud.ManualReviewThreshold >= c.Fraud.DeclineThreshold {
		return errors.New("manual_review_threshold should be less than decline_threshold")
	}

	if c.Fraud.EnsembleBlendWeight < 0 || c.Fraud.ExternalBlendWeight < 0 {
		return errors.New("blend weights must not be negative")
	}
	if sum := c.Fraud.EnsembleBlendWeight + c.Fraud.ExternalBlendWeight; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("blend weights must sum to 1, got %.4f", sum)
	}

	e := c.Ensemble
	if e.ClassifierWeight < 0 || e.RuleBasedWeight < 0 || e.StatisticalWeight < 0 || e.BehavioralWeight < 0 {
		return errors.New("ensemble weights must not be negative")
	}
	if sum := e.ClassifierWeight + e.RuleBasedWeight + e.StatisticalWeight + e.BehavioralWeight; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("ensemble weights must sum to 1, got %.4f", sum)
	}

	if c.Fraud.AnalysisTimeout <= 0 {
		return errors.New("analysis_timeout must be positive")
	}
	if c.Signal.Timeout <= 0 {
		return errors.New("signal timeout must be positive")
	}
	if c.Signal.StaticScore < 0 || c.Signal.StaticScore > 1 {
		return errors.New("signal static_score must be between 0 and 1")
	}
	if c.Fraud.BatchConcurrency <= 0 {
		return errors.New("batch_concurrency must be positive")
	}

	if !validAlertDrivers[c.Alerts.Driver] {
		return fmt.Errorf("unknown alerts driver %q", c.Alerts.Driver)
	}

	if c.Monitoring.Enabled && c.Monitoring.Interval <= 0 {
		return errors.New("monitoring interval must be positive")
	}

	return nil
}
