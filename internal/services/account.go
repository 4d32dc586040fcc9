package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventscheduler/internal/domain"
)

type accountService struct {
	provider       domain.IdentityProvider
	userRepo       domain.UserRepository
	invitations    domain.InvitationService
	contextTimeout time.Duration
	now            func() time.Time
}

// NewAccountService wires sign-up/sign-in through provider and keeps user profiles and
// invitation state in step with it.
func NewAccountService(provider domain.IdentityProvider, userRepo domain.UserRepository, invitations domain.InvitationService, timeout time.Duration) domain.AccountService {
	return &accountService{
		provider:       provider,
		userRepo:       userRepo,
		invitations:    invitations,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// SignUp creates the account, writes its profile and, for an invited user, marks the
// matching invitations as signed up.
func (s *accountService) SignUp(ctx context.Context, email, password, invitedBy string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	identity, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	user := domain.NewUser(identity.UserID, identity.Email, invitedBy, s.now().UTC())
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user profile: %w", err)
	}
	if invitedBy != "" {
		if _, err := s.invitations.MarkSignedUp(ctx, identity.Email, identity.UserID); err != nil {
			return nil, fmt.Errorf("mark invitation signed up: %w", err)
		}
	}
	return identity, nil
}

func (s *accountService) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.provider.SignIn(ctx, email, password)
}

func (s *accountService) SignOut(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.provider.SignOut(ctx, token)
}

func (s *accountService) Me(ctx context.Context, userID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
