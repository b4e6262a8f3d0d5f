package upload

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// CheckToken inspects a bearer token without verifying its signature.
// Opaque (non-JWT) tokens are accepted as-is; JWTs whose exp claim lies
// before now yield ErrTokenExpired.
func CheckToken(token string, now time.Time) error {
	if token == "" {
		return fmt.Errorf("auth token is empty")
	}
	if strings.Count(token, ".") != 2 {
		return nil
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(now) {
		return fmt.Errorf("%w at %s", ErrTokenExpired, claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return nil
}
