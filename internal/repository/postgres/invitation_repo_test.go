package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscheduler/internal/domain"
)

var invitationRowColumns = []string{"id", "email", "invited_by", "invited_at", "has_signed_up", "uid"}

const (
	invID        = "0b8e7c52-1d4a-4f3b-8e2c-6a9d5f7e1b34"
	missingInvID = "7c3d9e1f-2a4b-4c5d-8e6f-0a1b2c3d4e5f"
)

func TestInvitationRepository_Create(t *testing.T) {
	invitedAt := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		mock        func(mock sqlmock.Sqlmock)
		wantCreated bool
		wantID      string
		wantErr     bool
	}{
		{
			name: "inserted",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO invitations .* ON CONFLICT \(email, invited_by\) DO NOTHING`).
					WithArgs("a@b.com", "u1", invitedAt, false, nil).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(invID))
			},
			wantCreated: true,
			wantID:      invID,
		},
		{
			name: "existing pair",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO invitations`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectQuery(`SELECT id FROM invitations WHERE email = \$1 AND invited_by = \$2`).
					WithArgs("a@b.com", "u1").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("inv-0"))
			},
			wantCreated: false,
			wantID:      "inv-0",
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO invitations`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			inv := domain.NewInvitation("a@b.com", "u1", invitedAt)
			created, err := NewInvitationRepository(db, nil).Create(context.Background(), inv)
			if tt.wantErr {
				var storeErr *domain.StoreError
				require.ErrorAs(t, err, &storeErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			assert.Equal(t, tt.wantID, inv.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInvitationRepository_Lists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM invitations WHERE email = \$1 AND invited_by = \$2`).
		WithArgs("a@b.com", "u1").
		WillReturnRows(sqlmock.NewRows(invitationRowColumns).AddRow(invID, "a@b.com", "u1", at, false, nil))
	mock.ExpectQuery(`FROM invitations WHERE email = \$1 ORDER BY`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(invitationRowColumns).
			AddRow(invID, "a@b.com", "u1", at, false, nil).
			AddRow("inv-2", "a@b.com", "u2", at, true, "uid-7"))
	mock.ExpectQuery(`FROM invitations WHERE invited_by = \$1`).
		WithArgs("u3").
		WillReturnRows(sqlmock.NewRows(invitationRowColumns))

	repo := NewInvitationRepository(db, nil)
	ctx := context.Background()

	found, err := repo.FindByEmailAndInviter(ctx, "a@b.com", "u1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Nil(t, found[0].UID)

	byEmail, err := repo.ListByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, byEmail, 2)
	require.NotNil(t, byEmail[1].UID)
	assert.Equal(t, "uid-7", *byEmail[1].UID)
	assert.True(t, byEmail[1].HasSignedUp)

	byInviter, err := repo.ListByInviter(ctx, "u3")
	require.NoError(t, err)
	assert.NotNil(t, byInviter)
	assert.Empty(t, byInviter)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRepository_MarkSignedUp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE invitations SET has_signed_up = TRUE, uid = \$1 WHERE id = \$2`).
		WithArgs("uid-1", invID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE invitations`).
		WithArgs("uid-1", missingInvID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewInvitationRepository(db, nil)
	require.NoError(t, repo.MarkSignedUp(context.Background(), invID, "uid-1"))
	require.ErrorIs(t, repo.MarkSignedUp(context.Background(), missingInvID, "uid-1"), domain.ErrNotFound)
	require.ErrorIs(t, repo.MarkSignedUp(context.Background(), "inv-1", "uid-1"), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
