// Package auth implements session token issuing/verification and password
// hashing for the account service.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/common"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
)

// Claims carries the account identity inside a session token. Tokens are
// stateless: everything needed to authorize a request is in here.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string      `json:"accountId"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
}

// GenerateToken signs a session token (HS256) for the given account.
func GenerateToken(account *models.Account, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies a session token and returns its claims. Expired tokens
// yield common.ErrTokenExpired; any other failure yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
