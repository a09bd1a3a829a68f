package sqldb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aluzed/massive-collections/pkg/types"
)

// newMockBackend attaches a postgres-flavoured backend to a sqlmock pool
// that matches statements verbatim.
func newMockBackend(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	b := NewBackend()
	require.NoError(t, b.AttachDB(types.DriverPostgres, db))
	t.Cleanup(func() {
		mock.ExpectClose()
		assert.NoError(t, b.Detach())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return b, mock
}

// newSQLiteBackend attaches an in-memory SQLite database with a users table.
func newSQLiteBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Driver: types.DriverSQLite, Database: ":memory:"}))
	t.Cleanup(func() { _ = b.Detach() })

	_, err := b.Run(context.Background(),
		`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, username TEXT NOT NULL, age INTEGER)`)
	require.NoError(t, err)
	return b
}

func TestBackendLifecycle(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()

	_, err := b.Run(ctx, "SELECT 1")
	assert.ErrorIs(t, err, types.ErrDetached)
	_, err = b.Table("users")
	assert.ErrorIs(t, err, types.ErrDetached)

	require.NoError(t, b.Attach(types.Config{Driver: types.DriverSQLite, Database: ":memory:"}))
	assert.Equal(t, types.DriverSQLite, b.Driver())
	assert.ErrorIs(t, b.Attach(types.Config{Driver: types.DriverSQLite, Database: ":memory:"}), types.ErrAlreadyAttached)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "Detach is idempotent")
	_, err = b.Run(ctx, "SELECT 1")
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestAttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{}), types.ErrDriverEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Driver: "oracle", DSN: "x"}), types.ErrDriverUnknown)
	assert.ErrorIs(t, b.AttachDB("oracle", nil), types.ErrDriverUnknown)
	assert.ErrorIs(t, b.AttachDB(types.DriverPostgres, nil), types.ErrMissingArg)
}

func TestTableRejectsBadNames(t *testing.T) {
	b, _ := newMockBackend(t)
	for _, name := range []string{"", "users; DROP TABLE users", `a"b`, "1users"} {
		_, err := b.Table(name)
		assert.ErrorIs(t, err, types.ErrInvalidTable, name)
	}

	t1, err := b.Table("users")
	require.NoError(t, err)
	t2, err := b.Table("users")
	require.NoError(t, err)
	assert.Same(t, t1, t2)
}

func TestRunReturnsRows(t *testing.T) {
	b, mock := newMockBackend(t)
	mock.ExpectQuery("SELECT count(id) AS count FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow([]byte("3")))

	rows, err := b.Run(context.Background(), "SELECT count(id) AS count FROM users")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0]["count"], "byte slices come back as strings")
}

func TestRunEmptyResult(t *testing.T) {
	b, mock := newMockBackend(t)
	mock.ExpectQuery("TRUNCATE users").WillReturnRows(sqlmock.NewRows(nil))

	rows, err := b.Run(context.Background(), "TRUNCATE users")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
