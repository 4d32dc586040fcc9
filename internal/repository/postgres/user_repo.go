package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventscheduler/internal/domain"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Save(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, invited_by, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, invited_by = EXCLUDED.invited_by
	`
	var invitedBy sql.NullString
	if u.InvitedBy != nil {
		invitedBy = sql.NullString{String: *u.InvitedBy, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query, u.ID, u.Email, invitedBy, u.CreatedAt)
	return domain.NewStoreError("save user", err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, invited_by, created_at
		FROM users
		WHERE id = $1
	`
	u := &domain.User{}
	var invitedBy sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &invitedBy, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.NewStoreError("get user", err)
	}
	if invitedBy.Valid {
		u.InvitedBy = &invitedBy.String
	}
	return u, nil
}

type credentialRepository struct {
	DB *sql.DB
}

func NewCredentialRepository(db *sql.DB) domain.CredentialRepository {
	return &credentialRepository{DB: db}
}

func (r *credentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	query := `
		INSERT INTO credentials (email, password_hash, salt, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id
	`
	err := r.DB.QueryRowContext(ctx, query, c.Email, c.PasswordHash, c.Salt, c.CreatedAt).Scan(&c.UserID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateEmail
		}
		return domain.NewStoreError("create credential", err)
	}
	return nil
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	query := `
		SELECT user_id, email, password_hash, salt, created_at
		FROM credentials
		WHERE email = $1
	`
	c := &domain.Credential{}
	err := r.DB.QueryRowContext(ctx, query, email).Scan(&c.UserID, &c.Email, &c.PasswordHash, &c.Salt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.NewStoreError("get credential", err)
	}
	return c, nil
}
