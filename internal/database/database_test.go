package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/grocer/internal/config"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(config.Database{Driver: config.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := openMemory(t)

	version, err := Version(db, config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	for _, table := range []string{"grocery_lists", "grocery_items"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db := openMemory(t)

	var on int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&on))
	assert.Equal(t, 1, on)
}

func TestDownAndUp(t *testing.T) {
	db := openMemory(t)

	require.NoError(t, Down(db, config.DriverSQLite))
	version, err := Version(db, config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, Up(db, config.DriverSQLite))
	version, err = Version(db, config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grocer.db")
	cfg := config.Database{DSN: path}

	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Connect(cfg)
	require.NoError(t, err)
	defer db.Close()
	version, err := Version(db, cfg.DriverName())
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := Connect(config.Database{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "grocer.db?"+sqlitePragmas, sqliteDSN("grocer.db"))
	assert.Equal(t, "file:test.db?mode=rwc&"+sqlitePragmas, sqliteDSN("file:test.db?mode=rwc"))
	assert.True(t, isMemory(":memory:"))
	assert.False(t, isMemory("grocer.db"))
}
