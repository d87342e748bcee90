// Package auth verifies the bearer tokens issued by the authentication subsystem.
package auth

import (
	"fmt"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
)

// Claims are the fields read from an access token.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.StandardClaims
}

// Verifier validates HS256 tokens signed with the project secret.
type Verifier struct {
	Secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{Secret: []byte(secret)}
}

// Verify parses an Authorization header value and returns the token claims.
// The user id is Claims.Subject.
func (v *Verifier) Verify(header string) (*Claims, error) {
	if len(v.Secret) == 0 {
		return nil, apperr.Configuration("SUPABASE_JWT_SECRET")
	}

	raw := strings.TrimSpace(header)
	if !strings.HasPrefix(raw, "Bearer ") {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("Invalid token")
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthorized("Invalid token")
	}
	return claims, nil
}

// Sign issues a token for subject. Used by the admin CLI and tests.
func (v *Verifier) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(v.Secret)
}
