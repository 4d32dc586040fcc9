package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"eventscheduler/internal/domain"
	"eventscheduler/internal/repository/live"
)

const invitationColumns = `id, email, invited_by, invited_at, has_signed_up, uid`

type invitationRepository struct {
	DB *sql.DB

	mu   sync.Mutex
	feed *live.Feed[domain.InvitationSnapshot]
}

// NewInvitationRepository returns a Postgres domain.InvitationRepository fed by watcher.
func NewInvitationRepository(db *sql.DB, watcher *Watcher) domain.InvitationRepository {
	r := &invitationRepository{
		DB:   db,
		feed: live.NewFeed[domain.InvitationSnapshot](),
	}
	watcher.register(invitationsChannel, r)
	return r
}

func scanInvitation(row rowScanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	var uid sql.NullString
	if err := row.Scan(&inv.ID, &inv.Email, &inv.InvitedBy, &inv.InvitedAt, &inv.HasSignedUp, &uid); err != nil {
		return nil, err
	}
	if uid.Valid {
		inv.UID = &uid.String
	}
	return inv, nil
}

func (r *invitationRepository) list(ctx context.Context, op, where string, args ...interface{}) ([]*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE ` + where + ` ORDER BY invited_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStoreError(op, err)
	}
	defer rows.Close()
	invs := make([]*domain.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, domain.NewStoreError(op, err)
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError(op, err)
	}
	return invs, nil
}

func (r *invitationRepository) FindByEmailAndInviter(ctx context.Context, email, inviterID string) ([]*domain.Invitation, error) {
	return r.list(ctx, "find invitation", "email = $1 AND invited_by = $2", email, inviterID)
}

// Create inserts inv. A row for the same (email, invited_by) pair is left untouched and
// inv.ID is set to the existing row's id.
func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) (bool, error) {
	query := `
		INSERT INTO invitations (email, invited_by, invited_at, has_signed_up, uid)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email, invited_by) DO NOTHING
		RETURNING id
	`
	var uid sql.NullString
	if inv.UID != nil {
		uid = sql.NullString{String: *inv.UID, Valid: true}
	}
	err := r.DB.QueryRowContext(ctx, query, inv.Email, inv.InvitedBy, inv.InvitedAt, inv.HasSignedUp, uid).Scan(&inv.ID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, domain.NewStoreError("create invitation", err)
	}
	err = r.DB.QueryRowContext(ctx, `SELECT id FROM invitations WHERE email = $1 AND invited_by = $2`, inv.Email, inv.InvitedBy).Scan(&inv.ID)
	if err != nil {
		return false, domain.NewStoreError("create invitation", err)
	}
	return false, nil
}

func (r *invitationRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	return r.list(ctx, "list invitations by email", "email = $1", email)
}

func (r *invitationRepository) ListByInviter(ctx context.Context, inviterID string) ([]*domain.Invitation, error) {
	return r.list(ctx, "list invitations", "invited_by = $1", inviterID)
}

func (r *invitationRepository) MarkSignedUp(ctx context.Context, id, uid string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	query := `UPDATE invitations SET has_signed_up = TRUE, uid = $1 WHERE id = $2`
	result, err := r.DB.ExecContext(ctx, query, uid, id)
	if err != nil {
		return domain.NewStoreError("mark invitation signed up", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *invitationRepository) Subscribe(ctx context.Context, inviterID string) (<-chan domain.InvitationSnapshot, error) {
	ch := r.feed.Subscribe(ctx, inviterID)
	r.refresh(ctx, inviterID)
	return ch, nil
}

func (r *invitationRepository) refresh(ctx context.Context, inviterID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.feed.Has(inviterID) {
		return
	}
	invs, err := r.ListByInviter(ctx, inviterID)
	if err != nil {
		r.feed.Publish(inviterID, domain.InvitationSnapshot{Err: err})
		return
	}
	r.feed.Publish(inviterID, domain.InvitationSnapshot{Invitations: invs})
}

func (r *invitationRepository) subscribedKeys() []string {
	return r.feed.Keys()
}
