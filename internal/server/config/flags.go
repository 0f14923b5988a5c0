package config

import (
	"flag"
	"os"
	"time"

	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-o int      one-time code validity, minutes
//	-w int      signup OTP resend cooldown, seconds
//	-m string   SMTP host
//	-p int      SMTP port
//	-u string   SMTP user
//	-x string   SMTP password
//	-f string   sender email address
//	-n string   sender display name
//	-l float    per-client request limit per second on auth routes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-o", "-w", "-m", "-p", "-u", "-x", "-f", "-n", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionTokenValidity := fs.Int("t", int(config.SessionTokenValidityDuration.Minutes()), "session_token_validity_duration (in minutes)")
	otpValidity := fs.Int("o", int(config.OTPValidityDuration.Minutes()), "otp_validity_duration (in minutes)")
	otpCooldown := fs.Int("w", int(config.OTPResendCooldown.Seconds()), "otp_resend_cooldown (in seconds)")

	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "p", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUser, "u", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "x", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.SMTPFrom, "f", config.SMTPFrom, "sender email address")
	fs.StringVar(&config.SMTPFromName, "n", config.SMTPFromName, "sender display name")
	fs.Float64Var(&config.RateLimitPerSecond, "l", config.RateLimitPerSecond, "request limit per second")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTokenValidityDuration = time.Duration(*sessionTokenValidity) * time.Minute
	config.OTPValidityDuration = time.Duration(*otpValidity) * time.Minute
	config.OTPResendCooldown = time.Duration(*otpCooldown) * time.Second
}
