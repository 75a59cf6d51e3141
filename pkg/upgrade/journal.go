package upgrade

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/logging"
	"github.com/pseudomuto/mysqlup/pkg/utils"
)

// DefaultJournalTable is the table applied scripts are recorded in.
const DefaultJournalTable = "schemaversions"

type (
	// Journal records which scripts have been applied.
	Journal interface {
		// EnsureTable creates the journal table if it doesn't exist.
		EnsureTable(context.Context) error

		// ExecutedScripts returns the names of all recorded scripts. A missing
		// journal table yields an empty list.
		ExecutedScripts(context.Context) ([]string, error)

		// StoreExecutedScript records script as applied.
		StoreExecutedScript(context.Context, Script) error
	}

	// JournalReference identifies the journal table. A nil Schema leaves the
	// table name unqualified.
	JournalReference struct {
		Schema *string
		Table  string
	}

	// JournalBindings are the inputs to NewMySQLTableJournal. The connection
	// manager and logger are accessors, resolved each time the journal touches
	// the database.
	JournalBindings struct {
		ConnectionManager func() ConnectionManager
		Log               func() logging.Logger
		Schema            *string
		Table             string

		// Database scopes the existence probe when Schema is nil. When both are
		// empty the connection's current database is used.
		Database string
	}

	// MySQLTableJournal stores applied scripts in a MySQL table.
	//
	// The table has the following layout:
	//
	//	CREATE TABLE IF NOT EXISTS `schemaversions` (
	//	    schemaversionsid INT NOT NULL AUTO_INCREMENT,
	//	    scriptname VARCHAR(255) NOT NULL,
	//	    applied TIMESTAMP NOT NULL,
	//	    PRIMARY KEY (schemaversionsid)
	//	)
	MySQLTableJournal struct {
		connectionManager func() ConnectionManager
		log               func() logging.Logger
		ref               JournalReference
		database          string
		now               func() time.Time
	}
)

// String renders the reference as a quoted table name.
func (r JournalReference) String() string {
	return utils.QuoteQualifiedName(r.Schema, r.Table)
}

// NewMySQLTableJournal creates a table journal. An empty table name falls back
// to DefaultJournalTable.
func NewMySQLTableJournal(b JournalBindings) *MySQLTableJournal {
	table := b.Table
	if table == "" {
		table = DefaultJournalTable
	}

	return &MySQLTableJournal{
		connectionManager: b.ConnectionManager,
		log:               b.Log,
		ref:               JournalReference{Schema: b.Schema, Table: table},
		database:          b.Database,
		now:               time.Now,
	}
}

// Reference returns the schema/table pair this journal writes to.
func (j *MySQLTableJournal) Reference() JournalReference {
	return j.ref
}

// Database returns the database scope used when no schema is set.
func (j *MySQLTableJournal) Database() string {
	return j.database
}

// EnsureTable implements Journal.
func (j *MySQLTableJournal) EnsureTable(ctx context.Context) error {
	exists, err := j.tableExists(ctx)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	j.logger().Infof("Creating the %s table", j.ref)

	db, err := j.db(ctx)
	if err != nil {
		return err
	}

	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    schemaversionsid INT NOT NULL AUTO_INCREMENT,
    scriptname VARCHAR(255) NOT NULL,
    applied TIMESTAMP NOT NULL,
    PRIMARY KEY (schemaversionsid)
)`, j.ref)

	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return errors.Wrapf(err, "failed to create journal table %s", j.ref)
	}

	j.logger().Infof("The %s table has been created", j.ref)
	return nil
}

// ExecutedScripts implements Journal.
func (j *MySQLTableJournal) ExecutedScripts(ctx context.Context) ([]string, error) {
	exists, err := j.tableExists(ctx)
	if err != nil {
		return nil, err
	}

	if !exists {
		j.logger().Infof("Journal table %s does not exist", j.ref)
		return nil, nil
	}

	db, err := j.db(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT scriptname FROM %s ORDER BY scriptname", j.ref))
	if err != nil {
		return nil, errors.Wrap(err, "failed to query executed scripts")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan executed script")
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating executed scripts")
	}

	return names, nil
}

// StoreExecutedScript implements Journal.
func (j *MySQLTableJournal) StoreExecutedScript(ctx context.Context, script Script) error {
	if err := j.EnsureTable(ctx); err != nil {
		return err
	}

	db, err := j.db(ctx)
	if err != nil {
		return err
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (scriptname, applied) VALUES (?, ?)", j.ref)
	if _, err := db.ExecContext(ctx, insertSQL, script.Name, j.now().UTC()); err != nil {
		return errors.Wrapf(err, "failed to record script %s", script.Name)
	}

	return nil
}

func (j *MySQLTableJournal) tableExists(ctx context.Context) (bool, error) {
	db, err := j.db(ctx)
	if err != nil {
		return false, err
	}

	query := "SELECT 1 FROM information_schema.tables WHERE table_name = ? AND table_schema = "
	args := []any{j.ref.Table}

	switch {
	case j.ref.Schema != nil && *j.ref.Schema != "":
		query += "?"
		args = append(args, *j.ref.Schema)
	case j.database != "":
		query += "?"
		args = append(args, j.database)
	default:
		query += "DATABASE()"
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check for journal table %s", j.ref)
	}
	defer rows.Close()

	exists := rows.Next()
	return exists, errors.Wrap(rows.Err(), "failed to check for journal table")
}

func (j *MySQLTableJournal) db(ctx context.Context) (*sql.DB, error) {
	cm := j.connectionManager()
	if cm == nil {
		return nil, ErrNoConnectionManager
	}

	return cm.DB(ctx)
}

func (j *MySQLTableJournal) logger() logging.Logger {
	if log := j.log(); log != nil {
		return log
	}

	return logging.Discard
}
