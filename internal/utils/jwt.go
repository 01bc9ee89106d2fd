package utils

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what the console can learn from a gateway bearer token
// without knowing the signing secret.
type TokenClaims struct {
	UserID string
	Role   string
}

// PeekClaims decodes a bearer token WITHOUT verifying its signature. The
// gateway owns the secret; the client only mines the payload to backfill
// identity fields missing from a persisted user record. Never use this for
// an authorization decision.
func PeekClaims(tokenString string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	out := &TokenClaims{}
	for _, key := range []string{"user_id", "id", "sub"} {
		if id := stringClaim(claims[key]); id != "" {
			out.UserID = id
			break
		}
	}
	out.Role = stringClaim(claims["role"])
	return out, nil
}

// stringClaim tolerates the numeric ids some gateways put in claims
func stringClaim(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}
