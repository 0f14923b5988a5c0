package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/flagx"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "10m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	SessionTokenValidityDuration timex.Duration `json:"session_token_validity_duration"`
	OTPValidityDuration          timex.Duration `json:"otp_validity_duration"`
	OTPResendCooldown            timex.Duration `json:"otp_resend_cooldown"`
	SMTPHost                     string         `json:"smtp_host"`
	SMTPPort                     int            `json:"smtp_port"`
	SMTPUser                     string         `json:"smtp_user"`
	SMTPPassword                 string         `json:"smtp_password"`
	SMTPFrom                     string         `json:"smtp_from"`
	SMTPFromName                 string         `json:"smtp_from_name"`
	RateLimitPerSecond           float64        `json:"rate_limit_per_second"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is the -c or -config command-line
// flag; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics: a half-applied
// configuration is worse than a crash at startup.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.SessionTokenValidityDuration.Duration != 0 {
		config.SessionTokenValidityDuration = time.Duration(c.SessionTokenValidityDuration.Duration)
	}
	if c.OTPValidityDuration.Duration != 0 {
		config.OTPValidityDuration = time.Duration(c.OTPValidityDuration.Duration)
	}
	if c.OTPResendCooldown.Duration != 0 {
		config.OTPResendCooldown = time.Duration(c.OTPResendCooldown.Duration)
	}
	if c.SMTPHost != "" {
		config.SMTPHost = c.SMTPHost
	}
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	if c.SMTPUser != "" {
		config.SMTPUser = c.SMTPUser
	}
	if c.SMTPPassword != "" {
		config.SMTPPassword = c.SMTPPassword
	}
	if c.SMTPFrom != "" {
		config.SMTPFrom = c.SMTPFrom
	}
	if c.SMTPFromName != "" {
		config.SMTPFromName = c.SMTPFromName
	}
	if c.RateLimitPerSecond != 0 {
		config.RateLimitPerSecond = c.RateLimitPerSecond
	}
}
