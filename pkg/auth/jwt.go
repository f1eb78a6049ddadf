// Package auth issues and verifies the JWTs that protect pkg/api, and
// hashes the static API keys configured in internal/config.
package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/khryptorgraphics/rcpspga/internal/config"
)

// JWTService issues and verifies RS256 tokens scoped to a calling
// client rather than a human user: this is a computational service
// with no accounts, so tokens identify the caller and what it may do,
// nothing more.
type JWTService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	expiration time.Duration
}

// ServiceClaims is the JWT payload: a client identifier and the scopes
// it was granted (e.g. "projects:write", "jobs:read").
type ServiceClaims struct {
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes"`
	jwt.RegisteredClaims
}

// HasScope reports whether the claims grant scope.
func (c *ServiceClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// NewJWTService generates a fresh RSA key pair and configures the
// service from cfg (nil selects the package's own defaults).
func NewJWTService(cfg *config.AuthConfig) (*JWTService, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("auth: generating RSA key: %w", err)
	}

	svc := &JWTService{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     "rcpsp-solver",
		expiration: 24 * time.Hour,
	}

	if cfg != nil {
		if cfg.Issuer != "" {
			svc.issuer = cfg.Issuer
		}
		if cfg.TokenExpiry > 0 {
			svc.expiration = cfg.TokenExpiry
		}
	}

	return svc, nil
}

// IssueToken signs a new token for clientID carrying scopes.
func (j *JWTService) IssueToken(clientID string, scopes []string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.expiration)

	claims := &ServiceClaims{
		ClientID: clientID,
		Scopes:   scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        fmt.Sprintf("%s_%d", clientID, now.UnixNano()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(j.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies tokenString, returning its claims.
func (j *JWTService) ValidateToken(tokenString string) (*ServiceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", token.Header["alg"])
		}
		return j.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: parsing token: %w", err)
	}

	claims, ok := token.Claims.(*ServiceClaims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	return claims, nil
}

// PublicKey returns the key clients can use to verify tokens offline.
func (j *JWTService) PublicKey() *rsa.PublicKey {
	return j.publicKey
}
