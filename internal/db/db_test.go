package db

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/linguapet/assets"
)

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "app.db")
	d, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	var mode string
	require.NoError(t, d.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, d.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrate_EmbeddedIsIdempotent(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	require.NoError(t, Migrate(d, assets.Migrations()))
	require.NoError(t, Migrate(d, assets.Migrations()))

	for _, table := range []string{"users", "game_progress", "daily_results"} {
		var name string
		err := d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}

	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestMigrate_OrderAndFailure(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	fsys := fstest.MapFS{
		"002_seed.sql":   {Data: []byte(`INSERT INTO things(name) VALUES ('a');`)},
		"001_init.sql":   {Data: []byte(`CREATE TABLE things (name TEXT);`)},
		"README.md":      {Data: []byte(`not a migration`)},
		"003_broken.sql": {Data: []byte(`INSERT INTO nope VALUES (1);`)},
	}
	err = Migrate(d, fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "003_broken.sql")

	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM things`).Scan(&n))
	assert.Equal(t, 1, n)

	var applied int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&applied))
	assert.Equal(t, 2, applied)
}

func TestMigrate_ScriptWithOwnTransaction(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	script := "PRAGMA foreign_keys = OFF;\nBEGIN   TRANSACTION;\nCREATE TABLE pets (name TEXT);\nCOMMIT;\nPRAGMA foreign_keys = ON;"
	assert.True(t, migration{body: script}.ownsTx())
	assert.False(t, migration{body: "CREATE TABLE x (y TEXT);"}.ownsTx())

	require.NoError(t, Migrate(d, fstest.MapFS{"001_pets.sql": {Data: []byte(script)}}))

	var appliedAt string
	require.NoError(t, d.QueryRow(`SELECT applied_at FROM _migrations WHERE name='001_pets.sql'`).Scan(&appliedAt))
	assert.NotEmpty(t, appliedAt)
	_, err = d.Exec(`INSERT INTO pets(name) VALUES ('rex')`)
	assert.NoError(t, err)
}
