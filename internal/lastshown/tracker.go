// Package lastshown carries the identifier of the most recently presented
// item in a signed, client-held token, scoped to a mode family.
package lastshown

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	ExternalID string `json:"id"`
	Family     string `json:"fam"`
	jwt.RegisteredClaims
}

// Tracker reads and writes last-shown tokens. It holds no per-client state.
type Tracker struct {
	secret []byte
	ttl    time.Duration
}

func NewTracker(secret string, ttl time.Duration) *Tracker {
	return &Tracker{secret: []byte(secret), ttl: ttl}
}

// TTL is the token lifetime, also used as the cookie max-age.
func (t *Tracker) TTL() time.Duration { return t.ttl }

// Read returns the last-shown id for family. Missing, tampered or expired
// tokens and tokens written for another family all read as "".
func (t *Tracker) Read(raw, family string) string {
	if raw == "" || family == "" {
		return ""
	}
	c, err := t.parse(raw)
	if err != nil || c.Family != family {
		return ""
	}
	return c.ExternalID
}

// Write serializes a token recording externalID for family.
func (t *Tracker) Write(family, externalID string) (string, error) {
	if family == "" || externalID == "" {
		return "", errors.New("lastshown: family and id are required")
	}
	now := time.Now()
	c := claims{
		ExternalID: externalID,
		Family:     family,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
}

func (t *Tracker) parse(raw string) (*claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &claims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return c, nil
}
