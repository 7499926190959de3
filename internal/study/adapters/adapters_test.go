package adapters

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userservice "steward/internal/user/service"
	userstore "steward/internal/user/store"
	id "steward/pkg/domain"
)

func TestDirectoryAdapter(t *testing.T) {
	ctx := context.Background()
	users := userservice.New(userstore.NewInMemory(), userservice.Config{})
	actor := id.Actor{UserID: id.UserID(uuid.New()), Username: "colleague", Roles: id.RoleSet{id.RoleBase}}
	_, err := users.EnsureUser(ctx, actor)
	require.NoError(t, err)

	dir := NewDirectoryAdapter(users)

	got, found, err := dir.LookupUsername(ctx, "colleague")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, actor.UserID, got)

	_, found, err = dir.LookupUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, found)
}
