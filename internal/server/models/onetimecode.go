package models

import (
	"strings"
	"time"
)

// Purpose scopes where a one-time code may be redeemed.
type Purpose string

const (
	PurposeSignupVerification Purpose = "SIGNUP_VERIFICATION"
	PurposePasswordReset      Purpose = "PASSWORD_RESET"
	PurposeProfileUpdate      Purpose = "PROFILE_UPDATE"
)

// OwnerKind distinguishes the two identifier spaces a code can be filed
// under: a candidate email address before an account exists, or an account
// id afterwards.
type OwnerKind string

const (
	OwnerEmail   OwnerKind = "email"
	OwnerAccount OwnerKind = "account"
)

// OwnerKey is the tagged identifier a one-time code is filed under. Keeping
// the kind explicit prevents an email string and an account id from ever
// colliding in the store.
type OwnerKey struct {
	Kind  OwnerKind
	Value string
}

// EmailOwner files a code under a candidate email address.
func EmailOwner(email string) OwnerKey {
	return OwnerKey{Kind: OwnerEmail, Value: email}
}

// AccountOwner files a code under an account id.
func AccountOwner(id string) OwnerKey {
	return OwnerKey{Kind: OwnerAccount, Value: id}
}

// String returns the storage form "kind:value".
func (k OwnerKey) String() string {
	return string(k.Kind) + ":" + k.Value
}

// ParseOwnerKey reverses String. Unknown input is returned as an email key
// so that legacy rows remain addressable.
func ParseOwnerKey(s string) OwnerKey {
	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		return OwnerKey{Kind: OwnerEmail, Value: s}
	}
	switch OwnerKind(kind) {
	case OwnerEmail, OwnerAccount:
		return OwnerKey{Kind: OwnerKind(kind), Value: value}
	default:
		return OwnerKey{Kind: OwnerEmail, Value: s}
	}
}

// OneTimeCode is a pending verification challenge. At most one usable code
// exists per (owner, purpose); issuing a new one supersedes the previous.
type OneTimeCode struct {
	ID        string
	Owner     OwnerKey
	Purpose   Purpose
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}
