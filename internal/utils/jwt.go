package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mijwel-dev/chatter-backend/internal/domain"
)

// Token verification failure classes. Expired is distinct from invalid so
// callers can tell "try a refresh" (401) apart from "give up" (403).
var (
	ErrTokenExpired = errors.New("token is expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// AccessClaims embeds the trimmed user snapshot so protected requests are
// authorized without a database round trip
type AccessClaims struct {
	User domain.Snapshot `json:"user"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the user id; everything else is cross-checked
// against the stored session entry
type RefreshClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies the two token classes. Access tokens use
// HS256 and the access secret; refresh tokens use HS512 and a separate
// secret, so leaking one secret compromises only one class.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenManager creates a new token manager
func NewTokenManager(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// GenerateAccessToken signs a short-lived access token embedding the snapshot
func (m *TokenManager) GenerateAccessToken(user domain.Snapshot) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return token, nil
}

// GenerateRefreshToken signs a long-lived refresh token carrying the user id
func (m *TokenManager) GenerateRefreshToken(uid string) (string, error) {
	now := time.Now()
	claims := &RefreshClaims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(m.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return token, nil
}

// VerifyAccessToken checks signature and expiry of an access token. Returns
// ErrTokenExpired for a well-signed but stale token and ErrTokenInvalid for
// anything malformed or forged.
func (m *TokenManager) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.accessSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// VerifyRefreshToken checks the signature of a refresh token while
// deliberately skipping expiry validation: expiration is an explicit business
// rule of the refresh decision, not a hard verification failure, because an
// expired-but-validly-signed token still identifies the session to revoke.
func (m *TokenManager) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS512 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.refreshSecret, nil
	}, jwt.WithoutClaimsValidation())

	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.UID == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// AccessExpiry returns the access-token lifetime
func (m *TokenManager) AccessExpiry() time.Duration {
	return m.accessExpiry
}

// RefreshExpiry returns the refresh-token lifetime
func (m *TokenManager) RefreshExpiry() time.Duration {
	return m.refreshExpiry
}
