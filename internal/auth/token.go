// Package auth verifies the bearer tokens issued by the customer portal.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"cargoledger/internal/config"
	"cargoledger/internal/domain"
)

const accessAudience = "access"

// Claims represents the access token claims consumed by the billing API.
type Claims struct {
	jwt.RegisteredClaims
	UserID     uuid.UUID       `json:"user_id"`
	CustomerID *uuid.UUID      `json:"customer_id,omitempty"`
	Email      string          `json:"email"`
	Role       domain.UserRole `json:"role"`
}

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

// HMACVerifier verifies HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	issuer string
}

// NewHMACVerifier creates a verifier from the JWT settings.
func NewHMACVerifier(cfg config.JWTConfig) *HMACVerifier {
	return &HMACVerifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// Verify parses tokenString and checks signature, expiry, issuer and audience.
func (v *HMACVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(accessAudience),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if !validRole(claims.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrUnauthorized, claims.Role)
	}
	return claims, nil
}

// Sign issues an access token for the given subject. It backs local tooling
// and tests; production tokens come from the portal.
func (v *HMACVerifier) Sign(userID uuid.UUID, role domain.UserRole, customerID *uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  jwt.ClaimStrings{accessAudience},
		},
		UserID:     userID,
		CustomerID: customerID,
		Role:       role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func validRole(r domain.UserRole) bool {
	switch r {
	case domain.RoleAdmin, domain.RoleWarehouse, domain.RoleCustomer:
		return true
	}
	return false
}
