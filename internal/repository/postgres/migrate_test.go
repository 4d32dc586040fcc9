package postgres

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscheduler/internal/repository/postgres/migrations"
)

func TestApplyMigrations_SkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n")},
		"0002_b.sql": {Data: []byte("CREATE TABLE b (id INT);")},
		"README.md":  {Data: []byte("ignored")},
	}

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM schema_migrations WHERE name = \$1`).WithArgs("0001_a.sql").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM schema_migrations WHERE name = \$1`).WithArgs("0002_b.sql").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE b`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations \(name\) VALUES \(\$1\)`).WithArgs("0002_b.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := applyMigrations(context.Background(), db, fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_b.sql"}, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpSection(t *testing.T) {
	assert.Equal(t, "\nUP\n", upSection("-- +migrate Up\nUP\n-- +migrate Down\nDOWN"))
	assert.Equal(t, "PLAIN", upSection("PLAIN"))
}

func TestEmbeddedMigrationsDeclareNotifyTriggers(t *testing.T) {
	content, err := migrations.FS.ReadFile("0002_notify_triggers.sql")
	require.NoError(t, err)
	assert.Contains(t, string(content), "pg_notify('"+eventsChannel+"'")
	assert.Contains(t, string(content), "pg_notify('"+invitationsChannel+"'")
}
