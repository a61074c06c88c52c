package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	return open(DSN(user, pass, host, port, name), 25)
}

// OpenMigrations opens a one-connection pool that accepts multi-statement
// queries.  Use it only to apply migration files.
func OpenMigrations(user, pass, host, port, name string) (*sql.DB, error) {
	return open(MigrationDSN(user, pass, host, port, name), 1)
}

func open(dsn string, conns int) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// DSN builds the driver connection string.  parseTime maps DATE and
// DATETIME to time.Time in UTC.  clientFoundRows makes RowsAffected count
// matched rows rather than changed ones; the repositories rely on it.
func DSN(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, host, port, name)
}

// MigrationDSN is DSN plus multiStatements, so a migration file runs as
// one query.
func MigrationDSN(user, pass, host, port, name string) string {
	return DSN(user, pass, host, port, name) + "&multiStatements=true"
}
