package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/domain/identity"
	"fueldesk/internal/infrastructure/storage/memory"
)

func newVerifier(t *testing.T) *identity.CredentialVerifier {
	t.Helper()
	store := memory.New()
	hash, err := identity.HashSecret("s3cret")
	require.NoError(t, err)

	unit := int64(4)
	store.Identities().Enroll(identity.Person{
		ID: 1, NationalID: "V1", Name: "Ana", SecretHash: hash,
		Capabilities: []string{"issue", "receive"}, UnitID: &unit, Active: true,
	})
	store.Identities().Enroll(identity.Person{
		ID: 2, NationalID: "V2", Name: "Luis", SecretHash: hash, Capabilities: []string{"receive"},
	})
	return identity.NewCredentialVerifier(store.Identities())
}

func TestVerify(t *testing.T) {
	v := newVerifier(t)
	ctx := context.Background()

	res, err := v.Verify(ctx, identity.Claim{NationalID: " V1 ", Sample: "s3cret"})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, int64(1), res.PersonID)
	assert.True(t, res.Has(identity.CapabilityIssue))
	assert.True(t, res.Has(identity.CapabilityReceive))
	require.NotNil(t, res.UnitID)
	assert.Equal(t, int64(4), *res.UnitID)
}

func TestVerify_NoMatch(t *testing.T) {
	v := newVerifier(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		claim identity.Claim
	}{
		{"wrong sample", identity.Claim{NationalID: "V1", Sample: "guess"}},
		{"unknown person", identity.Claim{NationalID: "V9", Sample: "s3cret"}},
		{"inactive person", identity.Claim{NationalID: "V2", Sample: "s3cret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Verify(ctx, tt.claim)
			require.NoError(t, err)
			assert.False(t, res.Matched)
			assert.False(t, res.Has(identity.CapabilityReceive))
		})
	}
}

func TestClaimValidate(t *testing.T) {
	err := identity.Claim{NationalID: "V1"}.Validate("receiver")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.NoError(t, identity.Claim{NationalID: "V1", Sample: "x"}.Validate("receiver"))
}
