// Package auth issues and verifies the bearer tokens handed out on login
// and OTP verification.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken signs an HS256 token whose subject is userID and which
// expires after validityDuration.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies signature and expiry and returns the subject.
// Expired tokens yield common.ErrTokenExpired, everything else common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}

// UserIDFromAuthorization resolves an Authorization header value of the form
// "Bearer <token>" to a user id.
func UserIDFromAuthorization(header string, secretKey []byte) (string, error) {
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return "", common.ErrInvalidToken
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
	if tokenString == "" {
		return "", common.ErrInvalidToken
	}
	return GetUserIDFromToken(tokenString, secretKey)
}
