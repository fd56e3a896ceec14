package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionIssuer is the iss claim on every session token.
const SessionIssuer = "iotconnect"

// SessionClaims are the JWT claims carried by a user session.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Sessions issues and parses user session tokens. A session is a
// self-contained HS256 JWT, so parsing never touches storage.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a session codec signing with secret.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the validity window of issued sessions.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed session token for email.
func (s *Sessions) Issue(email string) (string, error) {
	now := s.now().UTC()
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    SessionIssuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session: %w", err)
	}
	return signed, nil
}

// Parse validates a session token and returns the email it was issued for.
func (s *Sessions) Parse(tokenString string) (string, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(SessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrSessionExpired
		}
		return "", fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}
	if claims.Email == "" {
		return "", fmt.Errorf("%w: missing email claim", ErrSessionInvalid)
	}
	return claims.Email, nil
}
