package database

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrator_Run(t *testing.T) {
	db := testDB(t)

	fsys := fstest.MapFS{
		"002_add_note.sql": &fstest.MapFile{
			Data: []byte("ALTER TABLE things ADD COLUMN note TEXT;"),
		},
		"001_create_things.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT NOT NULL);"),
		},
	}

	migrator := NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.Run(fsys))

	// Both migrations applied in version order: the note column exists.
	_, err := db.Exec("INSERT INTO things (name, note) VALUES (?, ?)", "a", "b")
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestMigrator_Run_Idempotent(t *testing.T) {
	db := testDB(t)

	fsys := fstest.MapFS{
		"001_create_things.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);"),
		},
	}

	migrator := NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.Run(fsys))
	// A second run must skip the already-applied migration rather than fail
	// on the existing table.
	require.NoError(t, migrator.Run(fsys))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrator_Run_BadFilename(t *testing.T) {
	db := testDB(t)

	fsys := fstest.MapFS{
		"create_things.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);"),
		},
	}

	err := NewMigrator(db, zap.NewNop()).Run(fsys)
	assert.ErrorContains(t, err, "invalid migration filename")
}

func TestMigrator_Run_FailedMigrationRollsBack(t *testing.T) {
	db := testDB(t)

	fsys := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{
			Data: []byte("THIS IS NOT SQL;"),
		},
	}

	err := NewMigrator(db, zap.NewNop()).Run(fsys)
	require.Error(t, err)

	// The failed migration must not be recorded.
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := testDB(t)
	_, err := db.Exec("CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	err = db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO things (name) VALUES (?)", "doomed"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM things").Scan(&count))
	assert.Equal(t, 0, count, "rolled-back insert must not persist")
}

func TestWithTransaction_Commits(t *testing.T) {
	db := testDB(t)
	_, err := db.Exec("CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	err = db.WithTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO things (name) VALUES (?)", "kept")
		return err
	})
	require.NoError(t, err)

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM things").Scan(&name))
	assert.Equal(t, "kept", name)
}
