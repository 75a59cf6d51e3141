package dropdb_test

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/connstr"
	"github.com/pseudomuto/mysqlup/pkg/dropdb"
	"github.com/pseudomuto/mysqlup/pkg/logging"
	"github.com/stretchr/testify/require"
)

const (
	ordersConn  = "Server=db;Database=orders;Uid=u;Pwd=secret"
	probeQuery  = "SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"
	dropOrders  = "DROP DATABASE IF EXISTS `orders`"
	masterLine  = "Master connection string: Server=db;Database=mysql;Uid=u;Pwd=******"
	droppedLine = "Dropped database orders"
)

type recordingLogger struct {
	infos []string
}

func (l *recordingLogger) Infof(format string, args ...any) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warnf(string, ...any)  {}
func (l *recordingLogger) Errorf(string, ...any) {}

// mockOpener hands out one sqlmock handle per call and records the DSNs it
// was asked to open.
type mockOpener struct {
	t       *testing.T
	mocks   []sqlmock.Sqlmock
	pending []*sql.DB
	dsns    []string
}

func (o *mockOpener) next(configure func(sqlmock.Sqlmock)) {
	db, mock, err := sqlmock.New()
	require.NoError(o.t, err)

	configure(mock)
	o.mocks = append(o.mocks, mock)
	o.pending = append(o.pending, db)
}

func (o *mockOpener) open(dsn string) (*sql.DB, error) {
	o.dsns = append(o.dsns, dsn)
	require.NotEmpty(o.t, o.pending, "unexpected connection opened")

	db := o.pending[0]
	o.pending = o.pending[1:]
	return db, nil
}

func (o *mockOpener) verify() {
	for _, m := range o.mocks {
		require.NoError(o.t, m.ExpectationsWereMet())
	}
}

func expectExists(mock sqlmock.Sqlmock, name string, exists bool) {
	rows := sqlmock.NewRows([]string{"SCHEMA_NAME"})
	if exists {
		rows.AddRow(name)
	}

	mock.ExpectQuery(regexp.QuoteMeta(probeQuery)).WithArgs(name).WillReturnRows(rows)
}

func TestDrop(t *testing.T) {
	t.Run("existing database", func(t *testing.T) {
		opener := &mockOpener{t: t}
		opener.next(func(mock sqlmock.Sqlmock) {
			expectExists(mock, "orders", true)
			mock.ExpectExec(regexp.QuoteMeta(dropOrders)).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectClose()
		})

		log := &recordingLogger{}
		d := dropdb.New(dropdb.Config{Open: opener.open})
		require.NoError(t, d.Drop(context.Background(), ordersConn, log, 0))

		opener.verify()
		require.Equal(t, []string{masterLine, droppedLine}, log.infos)

		cfg, err := mysql.ParseDSN(opener.dsns[0])
		require.NoError(t, err)
		require.Equal(t, connstr.DefaultMasterDatabase, cfg.DBName)
		require.Equal(t, "db:3306", cfg.Addr)
		require.Equal(t, "u", cfg.User)
		require.Equal(t, "secret", cfg.Passwd)
	})

	t.Run("charset option", func(t *testing.T) {
		opener := &mockOpener{t: t}
		opener.next(func(mock sqlmock.Sqlmock) {
			expectExists(mock, "orders", true)
			mock.ExpectExec(regexp.QuoteMeta(dropOrders)).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectClose()
		})

		d := dropdb.New(dropdb.Config{Open: opener.open})
		require.NoError(t, d.Drop(context.Background(), ordersConn+";CharSet=utf8mb4", &recordingLogger{}, 0))
		opener.verify()

		cfg, err := mysql.ParseDSN(opener.dsns[0])
		require.NoError(t, err)
		require.Equal(t, connstr.DefaultMasterDatabase, cfg.DBName)
		require.Equal(t, "utf8mb4", cfg.Params["charset"])
	})

	t.Run("missing database", func(t *testing.T) {
		opener := &mockOpener{t: t}
		opener.next(func(mock sqlmock.Sqlmock) {
			expectExists(mock, "orders", false)
			mock.ExpectClose()
		})

		log := &recordingLogger{}
		d := dropdb.New(dropdb.Config{Open: opener.open})
		require.NoError(t, d.Drop(context.Background(), ordersConn, log, 0))

		opener.verify()
		require.Equal(t, []string{masterLine}, log.infos)
	})

	t.Run("twice", func(t *testing.T) {
		opener := &mockOpener{t: t}
		opener.next(func(mock sqlmock.Sqlmock) {
			expectExists(mock, "orders", true)
			mock.ExpectExec(regexp.QuoteMeta(dropOrders)).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectClose()
		})
		opener.next(func(mock sqlmock.Sqlmock) {
			expectExists(mock, "orders", false)
			mock.ExpectClose()
		})

		log := &recordingLogger{}
		d := dropdb.New(dropdb.Config{Open: opener.open})
		require.NoError(t, d.Drop(context.Background(), ordersConn, log, time.Second))
		require.NoError(t, d.Drop(context.Background(), ordersConn, log, time.Second))

		opener.verify()
		require.Equal(t, []string{masterLine, droppedLine, masterLine}, log.infos)
	})

	t.Run("master database is not special", func(t *testing.T) {
		opener := &mockOpener{t: t}
		opener.next(func(mock sqlmock.Sqlmock) {
			expectExists(mock, "mysql", false)
			mock.ExpectClose()
		})

		d := dropdb.New(dropdb.Config{Open: opener.open})
		require.NoError(t, d.Drop(context.Background(), "Server=db;Database=mysql", &recordingLogger{}, 0))
		opener.verify()
	})

	t.Run("probe failure", func(t *testing.T) {
		opener := &mockOpener{t: t}
		opener.next(func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery(regexp.QuoteMeta(probeQuery)).WillReturnError(errors.New("access denied"))
			mock.ExpectClose()
		})

		d := dropdb.New(dropdb.Config{Open: opener.open})
		err := d.Drop(context.Background(), ordersConn, &recordingLogger{}, 0)
		require.ErrorContains(t, err, "failed to check whether database orders exists: access denied")
		opener.verify()
	})

	t.Run("drop failure", func(t *testing.T) {
		opener := &mockOpener{t: t}
		opener.next(func(mock sqlmock.Sqlmock) {
			expectExists(mock, "orders", true)
			mock.ExpectExec(regexp.QuoteMeta(dropOrders)).WillReturnError(errors.New("lock wait timeout"))
			mock.ExpectClose()
		})

		log := &recordingLogger{}
		d := dropdb.New(dropdb.Config{Open: opener.open})
		err := d.Drop(context.Background(), ordersConn, log, 0)
		require.ErrorContains(t, err, "failed to drop database orders: lock wait timeout")
		require.Equal(t, []string{masterLine}, log.infos)
		opener.verify()
	})

	t.Run("open failure", func(t *testing.T) {
		d := dropdb.New(dropdb.Config{Open: func(string) (*sql.DB, error) {
			return nil, errors.New("no route to host")
		}})

		err := d.Drop(context.Background(), ordersConn, &recordingLogger{}, 0)
		require.ErrorContains(t, err, "failed to open master connection: no route to host")
	})
}

func TestDrop_InvalidArguments(t *testing.T) {
	tests := []struct {
		name     string
		connStr  string
		nilLog   bool
		expected error
	}{
		{name: "empty", connStr: "", expected: connstr.ErrInvalidArgument},
		{name: "blank", connStr: "  \t", expected: connstr.ErrInvalidArgument},
		{name: "nil logger", connStr: ordersConn, nilLog: true, expected: connstr.ErrInvalidArgument},
		{name: "no database", connStr: "Server=db;Uid=u;Pwd=secret", expected: connstr.ErrInvalidArgument},
		{name: "blank database", connStr: "Server=db;Database= ;Uid=u", expected: connstr.ErrInvalidArgument},
		{name: "malformed", connStr: "Server=db;Database=orders;oops", expected: connstr.ErrMalformed},
		{name: "unsupported option", connStr: "Server=db;Database=orders;SslMode=sometimes", expected: connstr.ErrUnsupportedOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := dropdb.New(dropdb.Config{Open: func(string) (*sql.DB, error) {
				t.Fatal("connection opened for invalid input")
				return nil, nil
			}})

			var log logging.Logger = &recordingLogger{}
			if tt.nilLog {
				log = nil
			}

			require.ErrorIs(t, d.Drop(context.Background(), tt.connStr, log, 0), tt.expected)
		})
	}
}
