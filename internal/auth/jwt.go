package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the actor identity extracted from a bearer token issued by
// the external auth service. The ledger never issues end-user credentials;
// GenerateToken exists for service-to-service tokens and tests.
type Claims struct {
	Actor  string
	Branch string
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Actor  string `json:"actor"`
	Branch string `json:"branch,omitempty"`
}

func GenerateToken(actor, branch, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Actor:  actor,
		Branch: branch,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("GenerateToken: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: %w", err)
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("ValidateToken: invalid token claims")
	}
	if tc.Actor == "" {
		return nil, fmt.Errorf("ValidateToken: token missing actor")
	}

	return &Claims{
		Actor:  tc.Actor,
		Branch: tc.Branch,
	}, nil
}
