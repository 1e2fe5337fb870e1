package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const sqliteMaxConns = 4

// sqlitePragmas run on every new pool connection.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// NewDBConnection opens the pool for the configured driver and pings it.
func NewDBConnection(driver, connString string) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, nil, err
	}

	var db *sql.DB
	switch dialect.(type) {
	case SQLite:
		if err := ensureSQLiteFile(connString); err != nil {
			return nil, nil, err
		}
		db, err = sql.Open("sqlite", sqliteDSN(connString))
		if err != nil {
			return nil, nil, err
		}
		if isSQLiteMemory(connString) {
			// every connection would get its own empty database
			db.SetMaxOpenConns(1)
		} else {
			// WAL lets a long export read while submissions write; writers
			// still queue on the busy timeout rather than failing
			db.SetMaxOpenConns(sqliteMaxConns)
		}
		db.SetMaxIdleConns(2)
	default:
		db, err = sql.Open("postgres", connString)
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", dialect.Name(), err)
	}

	return db, dialect, nil
}

func sqliteDSN(dsn string) string {
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		if isSQLiteMemory(dsn) && strings.HasPrefix(p, "journal_mode") {
			continue
		}
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func isSQLiteMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// ensureSQLiteFile creates the directory holding the database file so a fresh
// deployment can start without a manual setup step.
func ensureSQLiteFile(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return nil
}
