package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	for _, name := range []string{"", "sqlite", "SQLite3"} {
		d, err := DialectFor(name)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", d.Name())
	}
	for _, name := range []string{"postgres", "postgresql", "pq"} {
		d, err := DialectFor(name)
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name())
	}
	_, err := DialectFor("mysql")
	assert.Error(t, err)
}

func TestPostgres_Rebind(t *testing.T) {
	got := Postgres{}.Rebind("UPDATE lead SET a = ?, b = ? WHERE id = ?")
	assert.Equal(t, "UPDATE lead SET a = $1, b = $2 WHERE id = $3", got)
}

func TestPostgres_ErrorClassification(t *testing.T) {
	pg := Postgres{}
	assert.True(t, pg.IsDuplicateColumn(&pq.Error{Code: "42701"}))
	assert.False(t, pg.IsDuplicateColumn(&pq.Error{Code: "42703"}))
	assert.True(t, pg.IsSchemaError(&pq.Error{Code: "42703"}))
	assert.True(t, pg.IsSchemaError(&pq.Error{Code: "42P01"}))
	assert.False(t, pg.IsSchemaError(errors.New("no such column: x")))
}

func TestSQLite_ErrorClassification(t *testing.T) {
	s := SQLite{}
	assert.True(t, s.IsDuplicateColumn(errors.New("SQL logic error: duplicate column name: age (1)")))
	assert.True(t, s.IsSchemaError(errors.New("SQL logic error: no such column: age (1)")))
	assert.True(t, s.IsSchemaError(errors.New("table lead has no column named age")))
	assert.False(t, s.IsSchemaError(errors.New("database is locked")))
}

func TestSchema_Statements(t *testing.T) {
	assert.Equal(t, "VARCHAR(64) NOT NULL DEFAULT ''", LeadSchema.Columns[1].Definition())
	assert.Contains(t, LeadSchema.CreateStatement(Postgres{}), "id BIGSERIAL PRIMARY KEY")
	assert.Contains(t, LeadSchema.CreateStatement(SQLite{}), "id INTEGER PRIMARY KEY AUTOINCREMENT")

	missing := LeadSchema.Missing([]string{"id", "name", "gender"})
	assert.Equal(t, "contact", missing[0].Name)
	assert.Len(t, missing, len(LeadSchema.Columns)-3)
}

func TestNewDBConnection_CreatesSQLiteDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "instance")
	db, _, err := NewDBConnection("sqlite", filepath.Join(dir, "data.db"))
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewDBConnection_SQLitePragmas(t *testing.T) {
	db, _, err := NewDBConnection("sqlite", filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
	assert.Equal(t, sqliteMaxConns, db.Stats().MaxOpenConnections)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"data.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		sqliteDSN("data.db"))
	assert.Equal(t,
		"file:x.db?cache=shared&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		sqliteDSN("file:x.db?cache=shared"))
	assert.NotContains(t, sqliteDSN(":memory:"), "journal_mode")
}
