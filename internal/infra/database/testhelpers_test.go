package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "instance", "data.db")
	db, dialect, err := NewDBConnection("sqlite", path)
	require.NoError(t, err)
	require.IsType(t, SQLite{}, dialect)
	t.Cleanup(func() { db.Close() })
	return db
}

func exec(t *testing.T, db *sql.DB, stmt string, args ...any) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), stmt, args...)
	require.NoError(t, err)
}

// createLegacyTable builds the lead table as an older release had it.
func createLegacyTable(t *testing.T, db *sql.DB, extra ...string) {
	t.Helper()
	stmt := `CREATE TABLE lead (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(64) NOT NULL DEFAULT '',
		gender VARCHAR(8) NOT NULL DEFAULT '',
		contact VARCHAR(128) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT '1970-01-01 00:00:00'`
	for _, col := range extra {
		stmt += ",\n\t\t" + col
	}
	exec(t, db, stmt+")")
}

// createTableWithout builds the full current table minus the named column.
func createTableWithout(t *testing.T, db *sql.DB, skip string) {
	t.Helper()
	cols := make([]Column, 0, len(LeadSchema.Columns))
	for _, c := range LeadSchema.Columns {
		if c.Name != skip {
			cols = append(cols, c)
		}
	}
	s := Schema{Table: LeadTable, Columns: cols}
	require.NoError(t, EnsureTable(context.Background(), db, SQLite{}, s))
}

func liveColumns(t *testing.T, db *sql.DB) []string {
	t.Helper()
	cols, err := SQLite{}.Columns(context.Background(), db, LeadTable)
	require.NoError(t, err)
	return cols
}
