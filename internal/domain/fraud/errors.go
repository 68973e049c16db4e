package fraud

import "errors"

var (
	// Decision errors
	ErrDecisionNotFound = errors.New("fraud decision not found")
	ErrInvalidScore     = errors.New("invalid fraud score: must be between 0 and 1")

	// Profile errors
	ErrProfileNotFound     = errors.New("user profile not found")
	ErrProfileLookupFailed = errors.New("user profile lookup failed")

	// Alert errors
	ErrAlertNotFound      = errors.New("fraud alert not found")
	ErrAlertPublishFailed = errors.New("fraud alert publish failed")

	// Evaluation errors
	ErrRuleEvaluationFailed = errors.New("rule evaluation failed")
	ErrMissingTransaction   = errors.New("missing required transaction data")

	// ErrSignalUnavailable is returned when the external fraud-signal provider
	// cannot produce a usable score. Scoring fails rather than approving.
	ErrSignalUnavailable = errors.New("external fraud signal unavailable")

	// ErrPersistenceFailed is returned when the scored transaction cannot be saved
	ErrPersistenceFailed = errors.New("scored transaction persistence failed")

	// Analysis errors
	ErrAnalysisTimeout  = errors.New("fraud analysis timed out")
	ErrModelUnavailable = errors.New("ML model is unavailable")
	ErrGeoLookupFailed  = errors.New("geolocation lookup failed")

	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
)
