package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventscheduler/internal/domain"
)

// Provider messages, surfaced to the user verbatim.
const (
	MsgEmailExists       = "EMAIL_EXISTS"
	MsgInvalidLogin      = "INVALID_LOGIN_CREDENTIALS"
	MsgInvalidEmail      = "INVALID_EMAIL"
	MsgWeakPassword      = "WEAK_PASSWORD : Password should be at least 6 characters"
	MsgMissingPassword   = "MISSING_PASSWORD"
	minPasswordLen       = 6
	defaultTokenLifetime = 24 * time.Hour
)

// LocalProvider is an email/password IdentityProvider backed by a CredentialRepository
// and self-issued JWTs.
type LocalProvider struct {
	credentials domain.CredentialRepository
	hasher      domain.PasswordHasher
	tokens      *JWTTokens
	expiry      time.Duration
	now         func() time.Time
}

func NewLocalProvider(credentials domain.CredentialRepository, hasher domain.PasswordHasher, tokens *JWTTokens, expiry time.Duration) *LocalProvider {
	if expiry <= 0 {
		expiry = defaultTokenLifetime
	}
	return &LocalProvider{
		credentials: credentials,
		hasher:      hasher,
		tokens:      tokens,
		expiry:      expiry,
		now:         time.Now,
	}
}

var _ domain.IdentityProvider = (*LocalProvider)(nil)

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return nil, domain.NewAuthError(MsgInvalidEmail)
	}
	if password == "" {
		return nil, domain.NewAuthError(MsgMissingPassword)
	}
	if len(password) < minPasswordLen {
		return nil, domain.NewAuthError(MsgWeakPassword)
	}

	salt, err := p.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := p.hasher.Hash(salt, password)
	if err != nil {
		return nil, err
	}
	cred := &domain.Credential{
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.credentials.Create(ctx, cred); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.NewAuthError(MsgEmailExists)
		}
		return nil, fmt.Errorf("create credential: %w", err)
	}
	return p.issue(cred.UserID, cred.Email)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return nil, domain.NewAuthError(MsgInvalidEmail)
	}
	cred, err := p.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewAuthError(MsgInvalidLogin)
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if err := p.hasher.Compare(cred.PasswordHash, cred.Salt, password); err != nil {
		return nil, domain.NewAuthError(MsgInvalidLogin)
	}
	return p.issue(cred.UserID, cred.Email)
}

// SignOut revokes token; later Verify calls for it fail.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	return p.tokens.Revoke(token)
}

func (p *LocalProvider) issue(userID, email string) (*domain.Identity, error) {
	token, err := p.tokens.Issue(userID, email, p.expiry)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{UserID: userID, Email: email, Token: token}, nil
}
