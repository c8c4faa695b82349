package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/coderelay_bot/internal/ratelimit"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"TELEGRAM_TOKEN": "123:abc",
		"DB_DSN":         "file::memory:",
	}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "file", cfg.Keyring.Backend)
	assert.Equal(t, 10, cfg.Mailbox.MaxMessages)
	assert.Equal(t, 10*time.Minute, cfg.Mailbox.MaxAge)
	assert.False(t, cfg.Mailbox.ScanBody)
	assert.Equal(t, time.Hour, cfg.RateLimitSweep)
	assert.Equal(t, ratelimit.DefaultPolicies(), cfg.RateLimits)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"TELEGRAM_TOKEN":          "123:abc",
		"DB_DSN":                  "relay.db",
		"DB_DRIVER":               "SQLite",
		"ENV":                     "production",
		"MAILBOX_SCAN_BODY":       "true",
		"MAILBOX_SESSION_TIMEOUT": "45s",
		"RATE_LIMIT_GET_CODE":     "2/30s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Mailbox.Options().ScanBody)
	assert.Equal(t, 45*time.Second, cfg.Mailbox.SessionTimeout)
	assert.Equal(t, ratelimit.Policy{Max: 2, Window: 30 * time.Second}, cfg.RateLimits[ratelimit.ActionGetCode])
	assert.Equal(t, ratelimit.DefaultPolicies()[ratelimit.ActionRegister], cfg.RateLimits[ratelimit.ActionRegister])
}

func TestFromEnvErrors(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{"TELEGRAM_TOKEN": "123:abc", "DB_DSN": "relay.db"}
	}

	cases := map[string]struct {
		key, value string
		want       string
	}{
		"missing token":  {"TELEGRAM_TOKEN", "", "TELEGRAM_TOKEN"},
		"missing dsn":    {"DB_DSN", "", "DB_DSN"},
		"bad driver":     {"DB_DRIVER", "mysql", "DB_DRIVER"},
		"bad duration":   {"MAILBOX_MAX_AGE", "ten minutes", "MAILBOX_MAX_AGE"},
		"bad bool":       {"MAILBOX_SCAN_BODY", "sometimes", "MAILBOX_SCAN_BODY"},
		"bad rate limit": {"RATE_LIMIT_REGISTER", "3 per minute", "RATE_LIMIT_REGISTER"},
		"zero messages":  {"MAILBOX_MAX_MESSAGES", "0", "MAILBOX_MAX_MESSAGES"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m := base()
			m[tc.key] = tc.value
			_, err := FromEnv(envMap(m))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" 5 / 1m ")
	require.NoError(t, err)
	assert.Equal(t, ratelimit.Policy{Max: 5, Window: time.Minute}, p)

	for _, raw := range []string{"5", "0/1m", "-1/1m", "5/0s", "x/1m", "5/soon"} {
		_, err := ParsePolicy(raw)
		assert.Error(t, err, raw)
	}
}
