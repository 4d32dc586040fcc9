package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"eventscheduler/internal/domain"
)

type userRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.User
}

// NewUserRepository returns an empty in-memory domain.UserRepository.
func NewUserRepository() domain.UserRepository {
	return &userRepository{byID: make(map[string]domain.User)}
}

func (r *userRepository) Save(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = *u
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type credentialRepository struct {
	mu      sync.RWMutex
	byEmail map[string]domain.Credential
}

// NewCredentialRepository returns an empty in-memory domain.CredentialRepository.
func NewCredentialRepository() domain.CredentialRepository {
	return &credentialRepository{byEmail: make(map[string]domain.Credential)}
}

func (r *credentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	key := strings.ToLower(c.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[key]; ok {
		return domain.ErrDuplicateEmail
	}
	c.UserID = uuid.NewString()
	r.byEmail[key] = *c
	return nil
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}
