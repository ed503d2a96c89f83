package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(ttl time.Duration) models.JWTClaims {
	return models.JWTClaims{
		UserID:       "u-1",
		Role:         models.RoleLeader,
		DepartmentID: "D1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
}

func TestAuthServiceVerifiesWithSecret(t *testing.T) {
	svc := NewAuthService("secret", zap.NewNop())
	require.True(t, svc.Verifies())

	claims, err := svc.ValidateToken(signToken(t, "secret", validClaims(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleLeader, claims.Role)
	assert.Equal(t, "D1", claims.DepartmentID)
	assert.True(t, claims.Verified)

	_, err = svc.ValidateToken(signToken(t, "other", validClaims(time.Hour)))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken(signToken(t, "secret", validClaims(-time.Hour)))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceInspectsWithoutSecret(t *testing.T) {
	svc := NewAuthService("", zap.NewNop())
	require.False(t, svc.Verifies())

	claims, err := svc.ValidateToken(signToken(t, "whatever-upstream-uses", validClaims(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Identity())
	assert.False(t, claims.Verified, "claims read without a secret are never trusted locally")

	_, err = svc.ValidateToken(signToken(t, "x", validClaims(-time.Hour)))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRequiresIdentityAndRole(t *testing.T) {
	svc := NewAuthService("secret", zap.NewNop())

	noRole := validClaims(time.Hour)
	noRole.Role = ""
	_, err := svc.ValidateToken(signToken(t, "secret", noRole))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	subjectOnly := validClaims(time.Hour)
	subjectOnly.UserID = ""
	subjectOnly.Subject = "sub-7"
	claims, err := svc.ValidateToken(signToken(t, "secret", subjectOnly))
	require.NoError(t, err)
	assert.Equal(t, "sub-7", claims.Identity())
}
