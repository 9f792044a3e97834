// Package auth verifies bearer tokens issued by the portal and resolves the
// caller's account id. Role checks happen in provision.Authorizer.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Spok95/school-notifier/internal/apperr"
)

type Claims struct {
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	leeway time.Duration
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), leeway: 30 * time.Second}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}

// Verify checks an HS256 token and returns the account id from its subject.
func (v *Verifier) Verify(raw string) (uuid.UUID, error) {
	if len(v.secret) == 0 {
		return uuid.Nil, apperr.Newf(apperr.Unauthorized, "verify token", "token auth disabled")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(v.leeway), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, apperr.New(apperr.Unauthorized, "verify token", err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperr.New(apperr.Unauthorized, "verify token", errors.New("subject is not an account id"))
	}
	return id, nil
}
