package dropdb

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/connstr"
	"github.com/pseudomuto/mysqlup/pkg/logging"
	"github.com/pseudomuto/mysqlup/pkg/utils"
)

const existsQuery = "SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"

type (
	// Opener opens a handle for a go-sql-driver/mysql DSN.
	Opener func(dsn string) (*sql.DB, error)

	// Config customizes a Dropper. The zero value is usable.
	Config struct {
		// Open creates the administrative connection. Defaults to
		// connstr.OpenDSN.
		Open Opener
	}

	// Dropper drops databases.
	Dropper struct {
		open Opener
	}
)

// New creates a Dropper.
func New(cfg Config) *Dropper {
	open := cfg.Open
	if open == nil {
		open = connstr.OpenDSN
	}

	return &Dropper{open: open}
}

// DropDatabase drops the database named in connectionString using the default
// driver. See Dropper.Drop.
func DropDatabase(ctx context.Context, connectionString string, log logging.Logger, timeout time.Duration) error {
	return New(Config{}).Drop(ctx, connectionString, log, timeout)
}

// Drop removes the database named in connectionString if it exists.
//
// Argument and parse errors are returned before any connection is opened. A
// positive timeout bounds each command sent to the server. The connection is
// closed on every path.
func (d *Dropper) Drop(ctx context.Context, connectionString string, log logging.Logger, timeout time.Duration) error {
	if strings.TrimSpace(connectionString) == "" {
		return errors.Wrap(connstr.ErrInvalidArgument, "connection string is required")
	}

	if log == nil {
		return errors.Wrap(connstr.ErrInvalidArgument, "logger is required")
	}

	desc, err := connstr.Parse(connectionString)
	if err != nil {
		return err
	}

	name := desc.Database()
	master := desc.Master()

	log.Infof("Master connection string: %s", master.Redacted())

	dsn, err := master.DSN()
	if err != nil {
		return err
	}

	db, err := d.open(dsn)
	if err != nil {
		return errors.Wrap(err, "failed to open master connection")
	}
	defer func() { _ = db.Close() }()

	exists, err := databaseExists(ctx, db, name, timeout)
	if err != nil {
		return err
	}

	if !exists {
		return nil
	}

	cmdCtx, cancel := commandContext(ctx, timeout)
	defer cancel()

	if _, err := db.ExecContext(cmdCtx, "DROP DATABASE IF EXISTS "+utils.QuoteIdentifier(name)); err != nil {
		return errors.Wrapf(err, "failed to drop database %s", name)
	}

	log.Infof("Dropped database %s", name)
	return nil
}

func databaseExists(ctx context.Context, db *sql.DB, name string, timeout time.Duration) (bool, error) {
	ctx, cancel := commandContext(ctx, timeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, existsQuery, name)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check whether database %s exists", name)
	}
	defer func() { _ = rows.Close() }()

	exists := rows.Next()
	if err := rows.Err(); err != nil {
		return false, errors.Wrapf(err, "failed to check whether database %s exists", name)
	}

	return exists, nil
}

func commandContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}
