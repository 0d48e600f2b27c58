package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Access tokens authenticate regular API calls; refresh tokens let clients
// re-issue without credentials.
const (
	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken covers every verification failure uniformly: bad
// signature, malformed payload, and expiry all look the same to callers.
var ErrInvalidToken = errors.New("invalid token")

type userClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256-signed session tokens. Stateless: no
// server-side session storage exists.
type Service struct {
	secret []byte
	issuer string
}

// NewService builds a token service around the shared signing secret.
func NewService(secret, issuer string) *Service {
	return &Service{secret: []byte(secret), issuer: issuer}
}

// Issue creates a signed access token for the user.
func (s *Service) Issue(userID string) (string, error) {
	return s.sign(userID, AccessTokenTTL)
}

// IssueRefresh creates a longer-lived refresh token for the user.
func (s *Service) IssueRefresh(userID string) (string, error) {
	return s.sign(userID, RefreshTokenTTL)
}

func (s *Service) sign(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := userClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates the signature and expiry and returns the embedded user
// id. Any failure is reported as ErrInvalidToken.
func (s *Service) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &userClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*userClaims)
	if !ok || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
