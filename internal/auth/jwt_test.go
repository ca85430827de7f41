package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldserve-backend/internal/config"
	"fieldserve-backend/internal/models"
)

func testManager(secret string) *JWTManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.ExpirationHours = 24
	cfg.JWT.Issuer = "fieldserve-backend"
	return NewJWTManager(cfg)
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := testManager("test-secret")
	customerID := 10
	user := &models.User{ID: 42, Mobile: "9876543210", Role: models.RoleCustomer, CustomerID: &customerID}

	token, err := m.GenerateToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "9876543210", claims.Mobile)
	assert.Equal(t, models.RoleCustomer, claims.Role)
	require.NotNil(t, claims.CustomerID)
	assert.Equal(t, 10, *claims.CustomerID)
	assert.Equal(t, "fieldserve-backend", claims.Issuer)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := testManager("secret-a").GenerateToken(&models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = testManager("secret-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := testManager("test-secret").ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestTempTokenRoundTrip(t *testing.T) {
	m := testManager("test-secret")
	user := &models.User{ID: 7, Email: "admin@example.com"}

	temp, err := m.GenerateTempToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateTempToken(temp)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "2fa_pending", claims.Type)
}

func TestTempTokenIsNotAFullToken(t *testing.T) {
	m := testManager("test-secret")

	// A full session token must not pass temp-token validation
	full, err := m.GenerateToken(&models.User{ID: 7, Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = m.ValidateTempToken(full)
	assert.Error(t, err)
}
