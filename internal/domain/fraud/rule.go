package fraud

// Rule violation codes produced by the rules engine
const (
	ViolationBlockedCountry       = "BLOCKED_COUNTRY"
	ViolationHighAmount           = "HIGH_AMOUNT"
	ViolationVelocityExceeded     = "VELOCITY_EXCEEDED"
	ViolationDuplicateTransaction = "DUPLICATE_TRANSACTION"
	ViolationBlacklistedUser      = "BLACKLISTED_USER"
	ViolationSuspiciousTimeAmount = "SUSPICIOUS_TIME_AMOUNT"
	ViolationMultipleCountries    = "MULTIPLE_COUNTRIES"
)

// Anomaly flags produced by the behavioral analyzer.
// FirstTimeCountry and NewDevice are recognized by the ensemble but not emitted yet.
const (
	FlagHighVelocity1H   = "HIGH_VELOCITY_1H"
	FlagHighVelocity24H  = "HIGH_VELOCITY_24H"
	FlagMultipleDevices  = "MULTIPLE_DEVICES"
	FlagMultipleIPs      = "MULTIPLE_IPS"
	FlagUnusualAmount    = "UNUSUAL_AMOUNT"
	FlagProxyVPNTor      = "PROXY_VPN_TOR"
	FlagFirstTimeCountry = "FIRST_TIME_COUNTRY"
	FlagNewDevice        = "NEW_DEVICE"
)

// blockingViolations force a BLOCKED decision
var blockingViolations = map[string]bool{
	ViolationBlockedCountry:       true,
	ViolationBlacklistedUser:      true,
	ViolationDuplicateTransaction: true,
}

// reviewViolations send the decision to manual review
var reviewViolations = map[string]bool{
	ViolationHighAmount:           true,
	ViolationVelocityExceeded:     true,
	ViolationSuspiciousTimeAmount: true,
	ViolationMultipleCountries:    true,
}

// IsBlocking reports whether any violation forces a block
func IsBlocking(violations []string) bool {
	for _, v := range violations {
		if blockingViolations[v] {
			return true
		}
	}
	return false
}

// NeedsReview reports whether any violation requires manual review
func NeedsReview(violations []string) bool {
	for _, v := range violations {
		if reviewViolations[v] {
			return true
		}
	}
	return false
}
