package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenForTesting(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	for _, table := range []string{"users", "sessions", "pricing_snapshots", "snapshot_tables"} {
		var name string
		err := db.Get(&name, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table)
		assert.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestOpenForTestingIsolated(t *testing.T) {
	a, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	b, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	_, err = a.Exec(`INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ('u1', 'a@example.com', 'x', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	var n int
	require.NoError(t, b.Get(&n, "SELECT COUNT(*) FROM users"))
	assert.Zero(t, n)
}

func TestOpenFileReappliesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricelist.db")

	db, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// A second open finds no pending migrations.
	db, err = Open(DriverSQLite, path)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.Error(t, err)
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES ('s1', 'missing', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	boom := errors.New("boom")
	err = WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO users (id, email, password_hash, created_at, updated_at)
			VALUES ('u1', 'a@example.com', 'x', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM users"))
	assert.Zero(t, n)
}

func TestWithTxCommits(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	err = WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO users (id, email, password_hash, created_at, updated_at)
			VALUES ('u1', 'a@example.com', 'x', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
		return err
	})
	require.NoError(t, err)

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 1, n)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
			_, _ = tx.Exec(`INSERT INTO users (id, email, password_hash, created_at, updated_at)
				VALUES ('u1', 'a@example.com', 'x', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
			panic("boom")
		})
	})

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM users"))
	assert.Zero(t, n)
}
