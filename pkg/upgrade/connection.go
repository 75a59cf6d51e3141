package upgrade

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/connstr"
)

type (
	// ConnectionManager hands out the database handle used by the script
	// executor and the journal.
	ConnectionManager interface {
		DB(context.Context) (*sql.DB, error)
		Close() error
	}

	// MySQLConnectionManager lazily opens a MySQL handle from a connection
	// string. The handle is opened on the first call to DB and reused after.
	MySQLConnectionManager struct {
		desc *connstr.Descriptor
		dsn  string
		open func(string) (*sql.DB, error)
		db   *sql.DB
	}
)

// NewMySQLConnectionManager parses connectionString and prepares (but does not
// open) a connection. This is where malformed connection strings are rejected.
// A database segment is optional.
func NewMySQLConnectionManager(connectionString string) (*MySQLConnectionManager, error) {
	desc, err := connstr.ParseUnscoped(connectionString)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse connection string")
	}

	dsn, err := desc.DSN()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build MySQL DSN")
	}

	return &MySQLConnectionManager{
		desc: desc,
		dsn:  dsn,
		open: connstr.OpenDSN,
	}, nil
}

// NewConnectionManagerFromDB wraps an already opened handle. Close closes it.
func NewConnectionManagerFromDB(db *sql.DB) *MySQLConnectionManager {
	return &MySQLConnectionManager{db: db}
}

// DB returns the shared handle, opening and pinging it on first use.
func (m *MySQLConnectionManager) DB(ctx context.Context) (*sql.DB, error) {
	if m.db != nil {
		return m.db, nil
	}

	db, err := m.open(m.dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open MySQL connection")
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to connect to MySQL")
	}

	m.db = db
	return db, nil
}

// Close releases the handle if one was opened.
func (m *MySQLConnectionManager) Close() error {
	if m.db == nil {
		return nil
	}

	db := m.db
	m.db = nil
	return db.Close()
}

// Descriptor returns the parsed connection string, or nil when the manager
// wraps an existing handle.
func (m *MySQLConnectionManager) Descriptor() *connstr.Descriptor {
	return m.desc
}
