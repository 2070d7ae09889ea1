package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the registered claims plus the server-side session id.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionToken signs and verifies HS256 admin tokens.
type SessionToken struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionToken(secret string, ttl time.Duration) *SessionToken {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionToken{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *SessionToken) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for username bound to sessionID.
func (t *SessionToken) Issue(username, sessionID string) (string, time.Time, error) {
	if len(t.secret) == 0 {
		return "", time.Time{}, errors.New("token secret is empty")
	}
	now := t.now()
	expires := now.Add(t.ttl)
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks signature and expiry and returns the claims.
func (t *SessionToken) Verify(raw string) (*Claims, error) {
	if len(t.secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return nil, errors.New("token is missing sid or sub")
	}
	return claims, nil
}

// TokenFromRequest reads a token from the Authorization bearer header, the
// Token header or the token query parameter, in that order.
func TokenFromRequest(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
	}
	if h := strings.TrimSpace(r.Header.Get("Token")); h != "" {
		return h
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
