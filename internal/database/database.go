// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package database opens the rollout's target database. The driver is chosen
// from the connection URL, so one binary can roll out to PostgreSQL, SQLite,
// libSQL/Turso and ClickHouse.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/lib/pq"                                // postgres driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // libsql driver
	_ "modernc.org/sqlite"                               // sqlite driver
)

// Driver names a supported database driver.
type Driver string

// Supported drivers.
const (
	DriverPostgres   Driver = "postgres"
	DriverSQLite     Driver = "sqlite"
	DriverLibSQL     Driver = "libsql"
	DriverClickHouse Driver = "clickhouse"
)

var (
	// ErrEmptyURL is returned when no connection URL was given.
	ErrEmptyURL = errors.New("database url is empty")
	// ErrUnsupportedURL is returned when no driver matches the connection URL.
	ErrUnsupportedURL = errors.New("unsupported database url")
	// ErrOpen is returned when the database handle could not be created.
	ErrOpen = errors.New("failed to open database")
	// ErrConnect is returned when a connection could not be established.
	ErrConnect = errors.New("failed to connect to database")
)

// DetectDriver picks the driver for a connection URL.
func DetectDriver(connURL string) (Driver, error) {
	s := strings.ToLower(strings.TrimSpace(connURL))

	switch {
	case s == "":
		return "", ErrEmptyURL
	case strings.HasPrefix(s, "postgres://"), strings.HasPrefix(s, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(s, "libsql://"):
		return DriverLibSQL, nil
	case strings.HasPrefix(s, "clickhouse://"):
		return DriverClickHouse, nil
	case strings.HasPrefix(s, "sqlite://"), strings.HasPrefix(s, "file:"), s == ":memory:",
		strings.HasSuffix(s, ".db"), strings.HasSuffix(s, ".sqlite"), strings.HasSuffix(s, ".sqlite3"):
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedURL, Redact(connURL))
	}
}

// DSN returns the data source name handed to the driver. User and password
// are added to the URL unless it already carries credentials. For libSQL the
// password is the auth token.
func DSN(d Driver, connURL, user, password string) (string, error) {
	switch d {
	case DriverSQLite:
		dsn := connURL
		if len(dsn) >= len("sqlite://") && strings.EqualFold(dsn[:len("sqlite://")], "sqlite://") {
			dsn = dsn[len("sqlite://"):]
		}

		return dsn, nil
	case DriverPostgres, DriverClickHouse:
		u, err := url.Parse(connURL)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
		}

		if u.User == nil && user != "" {
			u.User = url.UserPassword(user, password)
		}

		return u.String(), nil
	case DriverLibSQL:
		u, err := url.Parse(connURL)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
		}

		q := u.Query()
		if q.Get("authToken") == "" && password != "" {
			q.Set("authToken", password)
			u.RawQuery = q.Encode()
		}

		return u.String(), nil
	default:
		return "", fmt.Errorf("%w: driver %q", ErrUnsupportedURL, d)
	}
}

// Redact hides the password and auth token of a connection URL for logging.
func Redact(connURL string) string {
	u, err := url.Parse(connURL)
	if err != nil || u.Scheme == "" {
		return connURL
	}

	q := u.Query()
	if q.Has("authToken") {
		q.Set("authToken", "xxxxx")
		u.RawQuery = q.Encode()
	}

	return u.Redacted()
}

// DB is the rollout's handle on the target database. Scripts each take
// their own connection from it.
type DB struct {
	db     *sql.DB
	driver Driver
	url    string
}

// Open creates the database handle for connURL. It does not connect; the
// first connection is made by Conn so failures are reported per script.
func Open(connURL, user, password string) (*DB, error) {
	d, err := DetectDriver(connURL)
	if err != nil {
		return nil, err
	}

	dsn, err := DSN(d, connURL, user, password)
	if err != nil {
		return nil, err
	}

	var db *sql.DB

	if d == DriverClickHouse {
		opts, perr := clickhouse.ParseDSN(dsn)
		if perr != nil {
			return nil, errors.Join(ErrOpen, perr)
		}

		db = clickhouse.OpenDB(opts)
	} else {
		db, err = sql.Open(string(d), dsn)
		if err != nil {
			return nil, errors.Join(ErrOpen, err)
		}
	}

	// SQLite has a single writer; parallel scripts queue for the connection.
	if d == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	return &DB{db: db, driver: d, url: Redact(connURL)}, nil
}

// FromDB wraps an existing handle, e.g. one from sqlmock.
func FromDB(db *sql.DB, d Driver) *DB {
	return &DB{db: db, driver: d}
}

// Driver returns the driver in use.
func (d *DB) Driver() Driver {
	return d.driver
}

// String returns the redacted connection URL.
func (d *DB) String() string {
	return d.url
}

// Conn returns a dedicated connection. The caller must close it.
func (d *DB) Conn(ctx context.Context) (*sql.Conn, error) {
	c, err := d.db.Conn(ctx)
	if err != nil {
		return nil, errors.Join(ErrConnect, err)
	}

	return c, nil
}

// Close closes the handle and every idle connection.
func (d *DB) Close() error {
	return d.db.Close() //nolint:wrapcheck
}
