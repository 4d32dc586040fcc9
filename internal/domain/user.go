package domain

import (
	"context"
	"time"
)

// User is the profile document written when an account signs up.
// swagger:model User
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	InvitedBy *string   `json:"invited_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser returns a User profile. invitedBy is only set when non-empty.
func NewUser(id, email, invitedBy string, createdAt time.Time) *User {
	u := &User{
		ID:        id,
		Email:     email,
		CreatedAt: createdAt,
	}
	if invitedBy != "" {
		u.InvitedBy = &invitedBy
	}
	return u
}

// Credential is a locally stored email/password login.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
}

// Identity is the authenticated user as seen by the rest of the application.
// swagger:model Identity
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token,omitempty"`
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the identity it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// IdentityProvider is the sign-in/sign-up/sign-out boundary. Failures the user
// should see are returned as *AuthError.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context, token string) error
}

// UserRepository stores user profile documents.
type UserRepository interface {
	// Save creates or overwrites the profile for user.ID.
	Save(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
}

// CredentialRepository stores local email/password credentials.
type CredentialRepository interface {
	// Create inserts c and assigns c.UserID. Returns ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, c *Credential) error
	GetByEmail(ctx context.Context, email string) (*Credential, error)
}

// AccountService orchestrates the identity provider with profile and invitation bookkeeping.
type AccountService interface {
	SignUp(ctx context.Context, email, password, invitedBy string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context, token string) error
	Me(ctx context.Context, userID string) (*User, error)
}
