package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscheduler/internal/domain"
	"eventscheduler/internal/repository/memory"
)

type fakeEmailService struct {
	sent []*domain.InvitationEmailData
	err  error
}

func (f *fakeEmailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

func TestInvitationService_CreateTwiceYieldsOneDocument(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInvitationRepository()
	svc := NewInvitationService(repo, nil, time.Second)

	first, created, err := svc.Create(ctx, "a@x.com", "u1")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.Create(ctx, "a@x.com", "u1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	docs, err := repo.FindByEmailAndInviter(ctx, "a@x.com", "u1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestInvitationService_CreateValidates(t *testing.T) {
	svc := NewInvitationService(memory.NewInvitationRepository(), nil, time.Second)
	_, _, err := svc.Create(context.Background(), "  ", "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Email is required", verr.Fields["email"])
	assert.Contains(t, verr.Fields, "invited_by")
}

func TestInvitationService_MarkSignedUpCrossesInviters(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInvitationRepository()
	svc := NewInvitationService(repo, nil, time.Second)

	for _, inviter := range []string{"u1", "u2", "u3"} {
		_, _, err := svc.Create(ctx, "a@x.com", inviter)
		require.NoError(t, err)
	}
	_, _, err := svc.Create(ctx, "other@x.com", "u1")
	require.NoError(t, err)

	n, err := svc.MarkSignedUp(ctx, "a@x.com", "uid-42")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	invs, err := repo.ListByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, invs, 3)
	for _, inv := range invs {
		assert.True(t, inv.HasSignedUp)
		require.NotNil(t, inv.UID)
		assert.Equal(t, "uid-42", *inv.UID)
	}

	others, err := repo.ListByEmail(ctx, "other@x.com")
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.False(t, others[0].HasSignedUp)

	overview, err := svc.Overview(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, overview.All, 2)
	assert.Len(t, overview.SignedUp, 1)
	assert.Len(t, overview.Pending, 1)
}

func TestInvitationService_Invite(t *testing.T) {
	ctx := context.Background()
	inviter := &domain.Identity{UserID: "u1", Email: "host@x.com"}

	t.Run("link without email", func(t *testing.T) {
		mail := &fakeEmailService{}
		svc := NewInvitationService(memory.NewInvitationRepository(), mail, time.Second)
		res, err := svc.Invite(ctx, inviter, "a@b.com", "https://app.example.com/", false)
		require.NoError(t, err)
		assert.Equal(t, "https://app.example.com/signup?invitedBy=u1&email=a%40b.com", res.Link)
		assert.True(t, res.Created)
		assert.False(t, res.Emailed)
		assert.Empty(t, mail.sent)
	})

	t.Run("sends email", func(t *testing.T) {
		mail := &fakeEmailService{}
		svc := NewInvitationService(memory.NewInvitationRepository(), mail, time.Second)
		res, err := svc.Invite(ctx, inviter, "a@b.com", "https://app.example.com", true)
		require.NoError(t, err)
		assert.True(t, res.Emailed)
		require.Len(t, mail.sent, 1)
		assert.Equal(t, "a@b.com", mail.sent[0].Email)
		assert.Equal(t, "host@x.com", mail.sent[0].InviterEmail)
		assert.Equal(t, res.Link, mail.sent[0].Link)
	})

	t.Run("email failure", func(t *testing.T) {
		mail := &fakeEmailService{err: errors.New("smtp down")}
		svc := NewInvitationService(memory.NewInvitationRepository(), mail, time.Second)
		_, err := svc.Invite(ctx, inviter, "a@b.com", "https://app.example.com", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "smtp down")
	})

	t.Run("requires inviter", func(t *testing.T) {
		svc := NewInvitationService(memory.NewInvitationRepository(), nil, time.Second)
		_, err := svc.Invite(ctx, nil, "a@b.com", "https://app.example.com", false)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}

func TestInvitationService_Subscribe_EmptyInviter(t *testing.T) {
	svc := NewInvitationService(memory.NewInvitationRepository(), nil, time.Second)
	ch, err := svc.Subscribe(context.Background(), "")
	require.NoError(t, err)
	snap := <-ch
	assert.Empty(t, snap.Invitations)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestInvitationService_EmailsAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInvitationRepository()
	svc := NewInvitationService(repo, nil, time.Second)

	first, created, err := svc.Create(ctx, "Bob@X.com", "u1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "bob@x.com", first.Email)

	second, created, err := svc.Create(ctx, "bob@x.COM", "u1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	n, err := svc.MarkSignedUp(ctx, "BOB@x.com", "uid-7")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
