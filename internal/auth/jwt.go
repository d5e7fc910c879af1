// Package auth signs the cookie that identifies a browser profile. The
// cookie carries only the profile id; everything else about the session
// lives in server-side storage under that id.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultCookieName = "authdash_profile"
	DefaultIssuer     = "authdash"
	// ProfileTTL bounds how long a browser keeps the same profile.
	ProfileTTL = 365 * 24 * time.Hour
)

var ErrInvalidProfile = errors.New("invalid profile token")

type Claims struct {
	ProfileID string `json:"sub"`
	jwt.RegisteredClaims
}

func NewRandomSecretB64(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeSecret accepts a base64url secret or raw text and pads anything
// shorter than 16 bytes. An empty text yields a fresh random secret, so
// profiles do not survive a restart.
func DecodeSecret(text string) ([]byte, error) {
	if text == "" {
		s, err := NewRandomSecretB64(32)
		if err != nil {
			return nil, err
		}
		text = s
	}
	raw, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		raw = []byte(text)
	}
	if len(raw) < 16 {
		pad := make([]byte, 16)
		copy(pad, raw)
		raw = pad
	}
	return raw, nil
}

// NewProfileID returns a random profile identifier.
func NewProfileID() string {
	return uuid.NewString()
}

func SignHS256(secret []byte, profileID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		ProfileID: profileID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			Subject:   profileID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(secret)
}

// ParseHS256 validates tokenString and returns its claims. The profile id
// must be a UUID.
func ParseHS256(secret []byte, tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithIssuer(DefaultIssuer))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidProfile
	}
	if _, err := uuid.Parse(claims.ProfileID); err != nil {
		return nil, ErrInvalidProfile
	}
	return claims, nil
}
