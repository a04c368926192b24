package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

const sqliteScheme = "sqlite://"

// IsSQLite reports whether dsn is in form sqlite://<path or sqlite dsn>
func IsSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, sqliteScheme)
}

// OpenSQLite opens database and applies embedded migrations
// dsn: sqlite://foodrhapsody.db or sqlite://file:name?mode=memory&cache=shared
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", strings.TrimPrefix(dsn, sqliteScheme))
	if err != nil {
		return nil, fmt.Errorf("cant open sqlite database. Err: %w", err)
	}

	// sqlite has a single writer anyway; one connection also keeps in-memory databases alive
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("cant connect to sqlite database. Err: %w", err)
	}

	if err := MigrateSQLite(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func MigrateSQLite(conn *sql.DB) error {
	source, err := iofs.New(migrations, "migrations/sqlite")
	if err != nil {
		return err
	}

	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("error while preparing sqlite migration driver. Err: %w", err)
	}

	// migrator is not closed: it would close conn owned by caller
	migrator, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("error while preparing migrator. Err: %w", err)
	}

	return up(migrator)
}
