package geo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-scoring-service/internal/domain/fraud"
)

func TestLookup_Unconfigured(t *testing.T) {
	l, err := Open("", "")
	require.NoError(t, err)
	assert.False(t, l.Enabled())

	loc, err := l.Lookup(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, &fraud.GeoLocation{}, loc)
	assert.NoError(t, l.Close())
}

func TestOpen_MissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"), "")
	assert.Error(t, err)
}

func TestRiskScore(t *testing.T) {
	tests := []struct {
		name string
		loc  fraud.GeoLocation
		want int
	}{
		{"clean", fraud.GeoLocation{}, 0},
		{"proxy", fraud.GeoLocation{IsProxy: true}, 30},
		{"vpn", fraud.GeoLocation{IsVPN: true}, 25},
		{"tor", fraud.GeoLocation{IsTor: true}, 40},
		{"everything", fraud.GeoLocation{IsProxy: true, IsVPN: true, IsTor: true}, 95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RiskScore(&tt.loc))
		})
	}
}
