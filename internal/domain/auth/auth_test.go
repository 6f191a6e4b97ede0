package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldesk/internal/core/apperror"
	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/domain/auth"
	"fueldesk/internal/domain/identity"
	"fueldesk/internal/infrastructure/storage/memory"
)

func TestJWT_RoundTrip(t *testing.T) {
	svc := auth.NewJWTService(auth.DefaultJWTConfig("secret"))
	unit := int64(3)

	token, expiresAt, err := svc.GenerateAccessToken(appctx.UserContext{
		UserID: 7, NationalID: "V-1", Roles: []string{appctx.RoleApprover}, UnitID: &unit,
	})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.UserID)
	assert.Equal(t, "V-1", user.NationalID)
	assert.Equal(t, []string{appctx.RoleApprover}, user.Roles)
	require.NotNil(t, user.UnitID)
	assert.Equal(t, unit, *user.UnitID)

	other := auth.NewJWTService(auth.DefaultJWTConfig("other"))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	store := memory.New()
	hash, err := identity.HashSecret("1234")
	require.NoError(t, err)
	store.Identities().Enroll(identity.Person{
		ID: 1, NationalID: "V-1", Name: "Ana", SecretHash: hash,
		Roles: []string{"admin"}, Active: true,
	})

	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig("secret"))
	svc := auth.NewService(store.Identities(), jwtSvc)
	ctx := context.Background()

	token, err := svc.Login(ctx, auth.Credentials{NationalID: "V-1", Secret: "1234"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)

	user, err := jwtSvc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{appctx.RoleAdmin}, user.Roles)

	_, err = svc.Login(ctx, auth.Credentials{NationalID: "V-1", Secret: "wrong"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, err = svc.Login(ctx, auth.Credentials{NationalID: "V-9", Secret: "1234"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, err = svc.Login(ctx, auth.Credentials{})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
