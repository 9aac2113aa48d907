// Package db opens the SQLite database and applies the schema migrations
// shipped in assets/sql.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// pragmas are passed to go-sqlite3 through the DSN query string.
var pragmas = url.Values{
	"_busy_timeout": {"5000"},
	"_journal_mode": {"WAL"},
	"_foreign_keys": {"on"},
}

// Open creates path's directory if needed and returns a pinged handle.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	d, err := sql.Open("sqlite3", path+"?"+pragmas.Encode())
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.PingContext(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return d, nil
}

type migration struct {
	name string
	body string
}

// ownsTx reports whether a script handles its own transaction. Those scripts
// cannot be nested in ours; SQLite also ignores foreign_keys changes inside one.
func (m migration) ownsTx() bool {
	s := strings.ToUpper(strings.Join(strings.Fields(m.body), " "))
	return strings.Contains(s, "BEGIN TRANSACTION") ||
		strings.Contains(s, "PRAGMA FOREIGN_KEYS=OFF") ||
		strings.Contains(s, "PRAGMA FOREIGN_KEYS = OFF")
}

// Migrate runs every *.sql file of migrations not yet listed in _migrations,
// in file name order. It stops at the first failure; earlier files stay applied.
func Migrate(d *sql.DB, migrations fs.FS) error {
	ctx := context.Background()
	if _, err := d.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY, applied_at TEXT)`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	todo, err := pending(ctx, d, migrations)
	if err != nil {
		return err
	}
	for _, m := range todo {
		if err := apply(ctx, d, m); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		log.Info().Str("migration", m.name).Bool("ownsTx", m.ownsTx()).Msg("migration applied")
	}
	return nil
}

// pending lists the migrations that have not run yet, sorted by name.
func pending(ctx context.Context, d *sql.DB, migrations fs.FS) ([]migration, error) {
	names, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(names)

	rows, err := d.QueryContext(ctx, `SELECT name FROM _migrations`)
	if err != nil {
		return nil, fmt.Errorf("read _migrations: %w", err)
	}
	defer rows.Close()
	done := map[string]bool{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		done[n] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []migration
	for _, n := range names {
		if done[n] {
			continue
		}
		body, err := fs.ReadFile(migrations, n)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", n, err)
		}
		out = append(out, migration{name: n, body: string(body)})
	}
	return out, nil
}

const recordMigration = `INSERT INTO _migrations (name, applied_at) VALUES (?, ?)`

func apply(ctx context.Context, d *sql.DB, m migration) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if m.ownsTx() {
		if _, err := d.ExecContext(ctx, m.body); err != nil {
			return err
		}
		_, err := d.ExecContext(ctx, recordMigration, m.name, now)
		return err
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, m.body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, recordMigration, m.name, now); err != nil {
		return err
	}
	return tx.Commit()
}
