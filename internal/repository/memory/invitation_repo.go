package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"eventscheduler/internal/domain"
	"eventscheduler/internal/repository/live"
)

type invitationRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Invitation
	feed *live.Feed[domain.InvitationSnapshot]
}

// NewInvitationRepository returns an empty in-memory domain.InvitationRepository.
func NewInvitationRepository() domain.InvitationRepository {
	return &invitationRepository{
		byID: make(map[string]*domain.Invitation),
		feed: live.NewFeed[domain.InvitationSnapshot](),
	}
}

func cloneInvitation(inv *domain.Invitation) *domain.Invitation {
	c := *inv
	if inv.UID != nil {
		uid := *inv.UID
		c.UID = &uid
	}
	return &c
}

func (r *invitationRepository) collectLocked(match func(*domain.Invitation) bool) []*domain.Invitation {
	out := make([]*domain.Invitation, 0)
	for _, inv := range r.byID {
		if match(inv) {
			out = append(out, cloneInvitation(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].InvitedAt.Equal(out[j].InvitedAt) {
			return out[i].InvitedAt.Before(out[j].InvitedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *invitationRepository) FindByEmailAndInviter(ctx context.Context, email, inviterID string) ([]*domain.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collectLocked(func(inv *domain.Invitation) bool {
		return inv.Email == email && inv.InvitedBy == inviterID
	}), nil
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, domain.NewStoreError("create invitation", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == inv.Email && existing.InvitedBy == inv.InvitedBy {
			inv.ID = existing.ID
			return false, nil
		}
	}
	inv.ID = uuid.NewString()
	r.byID[inv.ID] = cloneInvitation(inv)
	r.publishLocked(inv.InvitedBy)
	return true, nil
}

func (r *invitationRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collectLocked(func(inv *domain.Invitation) bool { return inv.Email == email }), nil
}

func (r *invitationRepository) ListByInviter(ctx context.Context, inviterID string) ([]*domain.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listByInviterLocked(inviterID), nil
}

func (r *invitationRepository) listByInviterLocked(inviterID string) []*domain.Invitation {
	return r.collectLocked(func(inv *domain.Invitation) bool { return inv.InvitedBy == inviterID })
}

func (r *invitationRepository) MarkSignedUp(ctx context.Context, id, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.HasSignedUp = true
	inv.UID = &uid
	r.publishLocked(inv.InvitedBy)
	return nil
}

func (r *invitationRepository) Subscribe(ctx context.Context, inviterID string) (<-chan domain.InvitationSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch := r.feed.Subscribe(ctx, inviterID)
	r.feed.Publish(inviterID, domain.InvitationSnapshot{Invitations: r.listByInviterLocked(inviterID)})
	return ch, nil
}

func (r *invitationRepository) publishLocked(inviterID string) {
	if !r.feed.Has(inviterID) {
		return
	}
	r.feed.Publish(inviterID, domain.InvitationSnapshot{Invitations: r.listByInviterLocked(inviterID)})
}
