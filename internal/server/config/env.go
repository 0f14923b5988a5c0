package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from the process environment. A .env file
// in the working directory is loaded first if present; real environment
// variables take precedence over it (godotenv does not overwrite).
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("ADDRESS"); v != "" {
		config.EndpointAddrHTTP = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		config.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.SMTPPort = port
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		config.SMTPUser = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		config.SMTPPassword = v
	}
	if v := os.Getenv("EMAIL_FROM"); v != "" {
		config.SMTPFrom = v
	}
	if v := os.Getenv("EMAIL_FROM_NAME"); v != "" {
		config.SMTPFromName = v
	}
}
