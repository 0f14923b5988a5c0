// Package common contains shared constants and sentinel errors used across
// the account service components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer session token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the expected authorization scheme prefix.
const BearerScheme = "Bearer"
