package geo

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"fraud-scoring-service/internal/domain/fraud"
)

// Anonymization penalties added to the location risk score
const (
	proxyRisk = 30
	vpnRisk   = 25
	torRisk   = 40
)

// Locator resolves IPs against MaxMind City and Anonymous-IP databases.
// Without a City database every lookup returns an empty, valid location.
type Locator struct {
	city      *geoip2.Reader
	anonymous *geoip2.Reader
}

// Open loads the databases. Empty paths leave the matching reader unset.
func Open(cityPath, anonymousPath string) (*Locator, error) {
	l := &Locator{}
	if cityPath != "" {
		r, err := geoip2.Open(cityPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open city database: %w", err)
		}
		l.city = r
	}
	if anonymousPath != "" {
		r, err := geoip2.Open(anonymousPath)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to open anonymous-ip database: %w", err)
		}
		l.anonymous = r
	}
	return l, nil
}

// Enabled reports whether a City database is loaded
func (l *Locator) Enabled() bool {
	return l != nil && l.city != nil
}

// Lookup resolves ip. It returns an empty location when no database is configured.
func (l *Locator) Lookup(ctx context.Context, ip string) (*fraud.GeoLocation, error) {
	if !l.Enabled() {
		return &fraud.GeoLocation{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("%w: invalid ip %q", fraud.ErrGeoLookupFailed, ip)
	}

	record, err := l.city.City(parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fraud.ErrGeoLookupFailed, err)
	}

	loc := &fraud.GeoLocation{
		Country:   record.Country.IsoCode,
		City:      record.City.Names["en"],
		Latitude:  record.Location.Latitude,
		Longitude: record.Location.Longitude,
	}

	if l.anonymous != nil {
		anon, err := l.anonymous.AnonymousIP(parsed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", fraud.ErrGeoLookupFailed, err)
		}
		loc.IsProxy = anon.IsPublicProxy || anon.IsResidentialProxy
		loc.IsVPN = anon.IsAnonymousVPN
		loc.IsTor = anon.IsTorExitNode
	}

	loc.RiskScore = RiskScore(loc)
	return loc, nil
}

// RiskScore grades a location by its anonymization flags, capped at 100
func RiskScore(loc *fraud.GeoLocation) int {
	score := 0
	if loc.IsProxy {
		score += proxyRisk
	}
	if loc.IsVPN {
		score += vpnRisk
	}
	if loc.IsTor {
		score += torRisk
	}
	return min(score, 100)
}

// Close releases the database readers
func (l *Locator) Close() error {
	var firstErr error
	for _, r := range []*geoip2.Reader{l.city, l.anonymous} {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
