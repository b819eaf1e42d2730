package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenClaims struct {
	Username  string
	Prenom    string
	Nom       string
	Role      string
	ExpiresAt time.Time
}

// ParseTokenClaims reads the claims of the stored token without checking
// its signature: the signing key belongs to the gateway.
func ParseTokenClaims(token string) (TokenClaims, error) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("failed to decode session token: %w", err)
	}

	var result TokenClaims
	result.Username, _ = claims.GetSubject()
	if username, ok := claims["username"].(string); ok && username != "" {
		result.Username = username
	}
	result.Prenom, _ = claims["prenom"].(string)
	result.Nom, _ = claims["nom"].(string)
	result.Role, _ = claims["role"].(string)
	if expiresAt, err := claims.GetExpirationTime(); err == nil && expiresAt != nil {
		result.ExpiresAt = expiresAt.Time
	}
	return result, nil
}

func (t TokenClaims) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
