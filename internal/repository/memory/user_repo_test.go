package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscheduler/internal/domain"
)

func TestUserRepository_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	_, err := repo.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Save(ctx, domain.NewUser("u1", "a@b.com", "", time.Now())))
	require.NoError(t, repo.Save(ctx, domain.NewUser("u1", "a@b.com", "u0", time.Now())))

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got.InvitedBy)
	assert.Equal(t, "u0", *got.InvitedBy)
}

func TestCredentialRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository()

	c := &domain.Credential{Email: "a@b.com", PasswordHash: "h", Salt: "s"}
	require.NoError(t, repo.Create(ctx, c))
	assert.NotEmpty(t, c.UserID)

	err := repo.Create(ctx, &domain.Credential{Email: "A@B.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	got, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, c.UserID, got.UserID)

	_, err = repo.GetByEmail(ctx, "none@b.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
