package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestParseJson_AppliesValues(t *testing.T) {
	path := writeTempConfig(t, `{
		"endpoint_addr_http": ":7070",
		"database_dsn": "postgres://json",
		"secret_key": "json-secret",
		"session_token_validity_duration": "12h",
		"otp_validity_duration": "5m",
		"otp_resend_cooldown": "45s",
		"smtp_host": "mail.json",
		"smtp_port": 2525,
		"rate_limit_per_second": 3
	}`)

	os.Args = []string{"cmd", "-c", path}

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, c.EndpointAddrHTTP, ":7070")
	assert.Equal(t, c.DatabaseDSN, "postgres://json")
	assert.Equal(t, c.SecretKey, "json-secret")
	assert.Equal(t, c.SessionTokenValidityDuration, 12*time.Hour)
	assert.Equal(t, c.OTPValidityDuration, 5*time.Minute)
	assert.Equal(t, c.OTPResendCooldown, 45*time.Second)
	assert.Equal(t, c.SMTPHost, "mail.json")
	assert.Equal(t, c.SMTPPort, 2525)
	assert.Equal(t, c.RateLimitPerSecond, float64(3))
}

func TestParseJson_PartialFileKeepsDefaults(t *testing.T) {
	path := writeTempConfig(t, `{"smtp_host": "only.mail"}`)

	os.Args = []string{"cmd", "-config", path}

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, c.SMTPHost, "only.mail")
	assert.Equal(t, c.EndpointAddrHTTP, ":8080")
	assert.Equal(t, c.OTPValidityDuration, 10*time.Minute)
}

func TestParseJson_NoFlagIsNoop(t *testing.T) {
	os.Args = []string{"cmd"}

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, c.EndpointAddrHTTP, ":8080")
}

func TestParseJson_InvalidJSONPanics(t *testing.T) {
	path := writeTempConfig(t, `{not json`)

	os.Args = []string{"cmd", "-c", path}

	var c Config
	c.LoadDefaults()
	require.Panics(t, func() { parseJson(&c) })
}
