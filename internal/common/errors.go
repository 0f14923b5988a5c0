// Package common defines shared constants and sentinel errors used across
// the account service. Callers should use errors.Is to match these values.
//
// The error text doubles as the user-visible message: handlers return it
// verbatim, so raw driver or SMTP errors must never be wrapped into these.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation / input errors.
	ErrValidation = errors.New("validation error")

	// Account lifecycle errors.
	ErrAccountExists      = errors.New("an account with this email already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("this email is already in use by another account")

	// One-time code errors.
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired verification code")
	ErrRateLimited         = errors.New("please wait 1 minute before requesting another OTP")

	// Collaborator failures, recovered at the operation boundary.
	ErrEmailDeliveryFailed = errors.New("could not send the verification email")
	ErrPersistenceFailed   = errors.New("internal storage error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
