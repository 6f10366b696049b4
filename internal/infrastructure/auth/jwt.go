// Package auth issues and verifies the bearer tokens reviewers use against the API.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

var (
	// ErrInvalidToken is returned for malformed, forged or incomplete tokens
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned once a token is past its expiry
	ErrTokenExpired = errors.New("token expired")
)

// DefaultExpiry is how long an issued token stays valid
const DefaultExpiry = 7 * 24 * time.Hour

// Claims are the identity fields carried in a token
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and parses HS256 tokens
type TokenManager struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenManager creates a token manager. expiry <= 0 uses DefaultExpiry.
func NewTokenManager(secret, issuer string, expiry time.Duration) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Issue signs a token for actor and returns it with its expiry
func (m *TokenManager) Issue(actor entity.Actor) (string, time.Time, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}

	now := m.now()
	expiresAt := now.Add(m.expiry)
	claims := Claims{
		UserID: actor.UserID,
		Email:  actor.Email,
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse verifies token and returns the actor it identifies
func (m *TokenManager) Parse(token string) (entity.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return entity.Actor{}, ErrTokenExpired
	}
	if err != nil || claims.UserID == "" {
		return entity.Actor{}, ErrInvalidToken
	}

	return entity.Actor{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
