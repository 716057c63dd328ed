package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vtk-it/declaro/internal/config"
)

var ErrInvalidToken = errors.New("invalid session token")

// Claims carries the signed-in profile through the session token. Privilege
// flags are intentionally absent: they are re-read from the database on each
// request so a revoked grant takes effect immediately.
type Claims struct {
	jwt.RegisteredClaims
	ProfileID string `json:"pid"`
}

// Issuer signs and verifies session tokens with a single HS256 secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(cfg config.Config) (*Issuer, error) {
	if cfg.AuthJWTSecret == "" {
		return nil, errors.New("auth: jwt secret not configured")
	}
	return &Issuer{
		secret: []byte(cfg.AuthJWTSecret),
		ttl:    cfg.SessionTTL,
	}, nil
}

func (i *Issuer) Issue(profileID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "declaro",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ProfileID: profileID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (i *Issuer) Verify(raw string) (Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
