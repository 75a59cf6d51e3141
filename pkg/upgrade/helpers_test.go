package upgrade_test

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

const journalProbe = "SELECT 1 FROM information_schema.tables WHERE table_name = ? AND table_schema = "

type recordingLogger struct {
	infos  []string
	warns  []string
	errors []string
}

func (l *recordingLogger) Infof(format string, args ...any) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, mock
}

func expectJournalExists(mock sqlmock.Sqlmock, exists bool, args ...any) {
	rows := sqlmock.NewRows([]string{"1"})
	if exists {
		rows.AddRow(1)
	}

	if len(args) == 0 {
		args = []any{"schemaversions"}
	}

	driverArgs := make([]driver.Value, len(args))
	for i, a := range args {
		driverArgs[i] = a
	}

	mock.ExpectQuery(regexp.QuoteMeta(journalProbe)).
		WithArgs(driverArgs...).
		WillReturnRows(rows)
}

func expectStore(mock sqlmock.Sqlmock, table, script string) {
	expectJournalExists(mock, true)
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("INSERT INTO %s (scriptname, applied) VALUES (?, ?)", table))).
		WithArgs(script, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
}
