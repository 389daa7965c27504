package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{"JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "SBIN0001234", cfg.IFSCCode)
	assert.True(t, cfg.MaxDepositAmount.IsZero())
	assert.True(t, cfg.MaxWithdrawAmount.IsZero())
	assert.Equal(t, RateLimit{Max: 5, Window: 15 * time.Minute}, cfg.LoginRateLimit)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSAllowOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"JWT_SECRET":          "s3cret",
		"ENV":                 "production",
		"STORE_DRIVER":        "MEMORY",
		"JWT_EXPIRY":          "1h",
		"MAX_DEPOSIT_AMOUNT":  "1000000",
		"MAX_WITHDRAW_AMOUNT": "100000.50",
		"API_RATE_LIMIT":      "10",
		"CORS_ALLOW_ORIGINS":  " https://bank.example , ",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.True(t, cfg.MaxDepositAmount.Equal(decimal.NewFromInt(1000000)))
	assert.True(t, cfg.MaxWithdrawAmount.Equal(decimal.RequireFromString("100000.50")))
	assert.Equal(t, 10, cfg.APIRateLimit.Max)
	assert.Equal(t, []string{"https://bank.example"}, cfg.CORSAllowOrigins)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET is required"},
		{"bad duration", map[string]string{"JWT_SECRET": "x", "JWT_EXPIRY": "soon"}, "JWT_EXPIRY"},
		{"bad driver", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": "sqlite"}, "STORE_DRIVER"},
		{"bad amount", map[string]string{"JWT_SECRET": "x", "MAX_DEPOSIT_AMOUNT": "lots"}, "MAX_DEPOSIT_AMOUNT"},
		{"half admin", map[string]string{"JWT_SECRET": "x", "ADMIN_EMAIL": "a@b.c"}, "ADMIN_EMAIL"},
		{"bad cost", map[string]string{"JWT_SECRET": "x", "BCRYPT_COST": "2"}, "BCRYPT_COST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(lookupFrom(tt.values))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
