package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargoledger/internal/auth"
	"cargoledger/internal/config"
	"cargoledger/internal/domain"
)

func testVerifier() *auth.HMACVerifier {
	return auth.NewHMACVerifier(config.JWTConfig{Secret: "test-secret", Issuer: "cargoledger"})
}

func TestHMACVerifier_RoundTrip(t *testing.T) {
	v := testVerifier()
	userID := uuid.New()
	customerID := uuid.New()

	token, err := v.Sign(userID, domain.RoleCustomer, &customerID, time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
	require.NotNil(t, claims.CustomerID)
	assert.Equal(t, customerID, *claims.CustomerID)
}

func TestHMACVerifier_Expired(t *testing.T) {
	v := testVerifier()
	token, err := v.Sign(uuid.New(), domain.RoleAdmin, nil, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestHMACVerifier_WrongSecret(t *testing.T) {
	other := auth.NewHMACVerifier(config.JWTConfig{Secret: "other", Issuer: "cargoledger"})
	token, err := other.Sign(uuid.New(), domain.RoleAdmin, nil, time.Hour)
	require.NoError(t, err)

	_, err = testVerifier().Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestHMACVerifier_RejectsRefreshAudience(t *testing.T) {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "cargoledger",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Audience:  jwt.ClaimStrings{"refresh"},
		},
		UserID: uuid.New(),
		Role:   domain.RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = testVerifier().Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestHMACVerifier_RejectsUnknownRole(t *testing.T) {
	token, err := testVerifier().Sign(uuid.New(), "superuser", nil, time.Hour)
	require.NoError(t, err)

	_, err = testVerifier().Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
