// Package auth gates the control plane's own HTTP surface (SSE/WS event
// streams and the player read routes; /healthz stays open) behind a single
// static service token rather than the teacher's pairing-flow token pairs:
// this service has no pairing UI of its own, and Unauthorized is reserved
// in the error taxonomy rather than produced by core playback operations.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type serviceClaims struct {
	jwt.RegisteredClaims
}

// IssueServiceToken mints a long-lived bearer token the outer router
// presents on every request to this core's SSE/WS and player routes.
func IssueServiceToken(secret, subject string, expiresAt time.Time) (string, error) {
	claims := serviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "sonos-control-plane",
			Audience:  []string{"sonos-control-plane-client"},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyServiceToken validates a bearer token against the configured
// secret.
func VerifyServiceToken(secret, token string) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer("sonos-control-plane"),
	)
	claims := &serviceClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if parsed == nil || !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// BearerMiddleware builds middleware that requires a valid
// "Authorization: Bearer <token>" header, signed with secret.
func BearerMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || VerifyServiceToken(secret, token) != nil {
				http.Error(w, `{"type":"authentication_error","message":"invalid or missing bearer token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
