package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventscheduler/internal/domain"
)

type invitationService struct {
	invitationRepo domain.InvitationRepository
	emailService   domain.EmailService
	contextTimeout time.Duration
	now            func() time.Time
}

// NewInvitationService returns an InvitationService. emailService may be nil, in which
// case Invite never sends email.
func NewInvitationService(invitationRepo domain.InvitationRepository, emailService domain.EmailService, timeout time.Duration) domain.InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		emailService:   emailService,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *invitationService) Create(ctx context.Context, email, inviterID string) (*domain.Invitation, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.create(ctx, email, inviterID)
}

// create checks for an existing (email, inviter) invitation before inserting. The check is
// not atomic; a concurrent duplicate is absorbed by the repository's per-pair uniqueness.
func (s *invitationService) create(ctx context.Context, email, inviterID string) (*domain.Invitation, bool, error) {
	email = domain.NormalizeEmail(email)
	verr := &domain.ValidationError{}
	if email == "" {
		verr.Add("email", "Email is required")
	}
	if inviterID == "" {
		verr.Add("invited_by", "Inviter is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, false, err
	}

	existing, err := s.invitationRepo.FindByEmailAndInviter(ctx, email, inviterID)
	if err != nil {
		return nil, false, fmt.Errorf("find invitation: %w", err)
	}
	if len(existing) > 0 {
		return existing[0], false, nil
	}

	inv := domain.NewInvitation(email, inviterID, s.now().UTC())
	created, err := s.invitationRepo.Create(ctx, inv)
	if err != nil {
		return nil, false, fmt.Errorf("create invitation: %w", err)
	}
	return inv, created, nil
}

func (s *invitationService) Invite(ctx context.Context, inviter *domain.Identity, email, origin string, sendEmail bool) (*domain.InviteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if inviter == nil || inviter.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	inv, created, err := s.create(ctx, email, inviter.UserID)
	if err != nil {
		return nil, err
	}
	result := &domain.InviteResult{
		Link:       domain.NewInviteLink(origin, inviter.UserID, inv.Email),
		Invitation: inv,
		Created:    created,
	}
	if !sendEmail || s.emailService == nil {
		return result, nil
	}
	err = s.emailService.SendInvitation(ctx, &domain.InvitationEmailData{
		Email:        inv.Email,
		InviterEmail: inviter.Email,
		Link:         result.Link,
	})
	if err != nil {
		return nil, fmt.Errorf("send invitation: %w", err)
	}
	result.Emailed = true
	return result, nil
}

// MarkSignedUp flags every invitation addressed to email, from any inviter. Emails match
// case-insensitively.
func (s *invitationService) MarkSignedUp(ctx context.Context, email, uid string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	invs, err := s.invitationRepo.ListByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return 0, fmt.Errorf("list invitations: %w", err)
	}
	marked := 0
	for _, inv := range invs {
		if err := s.invitationRepo.MarkSignedUp(ctx, inv.ID, uid); err != nil {
			return marked, fmt.Errorf("mark invitation %s: %w", inv.ID, err)
		}
		marked++
	}
	if marked > 1 {
		slog.InfoContext(ctx, "invitation accepted for several inviters", "email", email, "count", marked)
	}
	return marked, nil
}

func (s *invitationService) Overview(ctx context.Context, inviterID string) (*domain.InvitationOverview, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	invs, err := s.invitationRepo.ListByInviter(ctx, inviterID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return domain.NewInvitationOverview(invs), nil
}

func (s *invitationService) Subscribe(ctx context.Context, inviterID string) (<-chan domain.InvitationSnapshot, error) {
	if inviterID == "" {
		ch := make(chan domain.InvitationSnapshot, 1)
		ch <- domain.InvitationSnapshot{Invitations: []*domain.Invitation{}}
		close(ch)
		return ch, nil
	}
	ch, err := s.invitationRepo.Subscribe(ctx, inviterID)
	if err != nil {
		return nil, fmt.Errorf("subscribe invitations: %w", err)
	}
	return ch, nil
}
