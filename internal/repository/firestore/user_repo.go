package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"eventscheduler/internal/domain"
)

type userDoc struct {
	Email     string    `firestore:"email"`
	InvitedBy *string   `firestore:"invitedBy,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type UserRepository struct {
	Client *firestore.Client
}

func NewUserRepository(client *firestore.Client) domain.UserRepository {
	return &UserRepository{Client: client}
}

func (r *UserRepository) Save(ctx context.Context, u *domain.User) error {
	doc := userDoc{Email: u.Email, InvitedBy: u.InvitedBy, CreatedAt: u.CreatedAt.UTC()}
	_, err := r.Client.Collection(usersCollection).Doc(u.ID).Set(ctx, doc)
	return storeError("save user", err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	snap, err := r.Client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError("get user", err)
	}
	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, storeError("get user", err)
	}
	return &domain.User{ID: id, Email: d.Email, InvitedBy: d.InvitedBy, CreatedAt: d.CreatedAt}, nil
}

type credentialDoc struct {
	UserID       string    `firestore:"userId"`
	Email        string    `firestore:"email"`
	PasswordHash string    `firestore:"passwordHash"`
	Salt         string    `firestore:"salt"`
	CreatedAt    time.Time `firestore:"createdAt"`
}

// credentialDocID keys credentials by normalized email, making the email unique.
func credentialDocID(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

type CredentialRepository struct {
	Client *firestore.Client
}

func NewCredentialRepository(client *firestore.Client) domain.CredentialRepository {
	return &CredentialRepository{Client: client}
}

func (r *CredentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	userID := uuid.NewString()
	doc := credentialDoc{
		UserID:       userID,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Salt:         c.Salt,
		CreatedAt:    c.CreatedAt.UTC(),
	}
	_, err := r.Client.Collection(credentialsCollection).Doc(credentialDocID(c.Email)).Create(ctx, doc)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return domain.ErrDuplicateEmail
		}
		return storeError("create credential", err)
	}
	c.UserID = userID
	return nil
}

func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	snap, err := r.Client.Collection(credentialsCollection).Doc(credentialDocID(email)).Get(ctx)
	if err != nil {
		return nil, storeError("get credential", err)
	}
	var d credentialDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, storeError("get credential", err)
	}
	return &domain.Credential{
		UserID:       d.UserID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Salt:         d.Salt,
		CreatedAt:    d.CreatedAt,
	}, nil
}
