package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
)

func TestRequestIdentity_SetOnce(t *testing.T) {
	ri := NewRequestIdentity()
	assert.False(t, ri.IsAuthenticated())

	user := &domain.User{ID: "u1"}
	require.NoError(t, ri.SetIdentity(user))
	assert.True(t, ri.IsAuthenticated())

	got, ok := ri.Identity()
	require.True(t, ok)
	assert.Same(t, user, got)

	assert.ErrorIs(t, ri.SetIdentity(&domain.User{ID: "u2"}), ErrIdentityAlreadySet)
	got, _ = ri.Identity()
	assert.Equal(t, "u1", got.ID)
}

func TestRequestIdentity_RejectsNil(t *testing.T) {
	ri := NewRequestIdentity()
	assert.Error(t, ri.SetIdentity(nil))
	assert.False(t, ri.IsAuthenticated())
}

func TestIdentityFromContext(t *testing.T) {
	anon := IdentityFromContext(context.Background())
	assert.False(t, anon.IsAuthenticated())

	ri := NewRequestIdentity()
	require.NoError(t, ri.SetIdentity(&domain.User{ID: "u1"}))
	ctx := WithIdentity(context.Background(), ri)
	assert.Same(t, ri, IdentityFromContext(ctx))
}
