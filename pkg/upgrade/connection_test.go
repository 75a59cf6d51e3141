package upgrade_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pseudomuto/mysqlup/pkg/connstr"
	"github.com/pseudomuto/mysqlup/pkg/upgrade"
	"github.com/stretchr/testify/require"
)

func TestNewMySQLConnectionManager(t *testing.T) {
	t.Run("without database", func(t *testing.T) {
		cm, err := upgrade.NewMySQLConnectionManager("Server=db;Uid=u;Pwd=p")
		require.NoError(t, err)
		require.Empty(t, cm.Descriptor().Database())

		// nothing was opened
		require.NoError(t, cm.Close())
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := upgrade.NewMySQLConnectionManager("Server=db;garbage")
		require.ErrorIs(t, err, connstr.ErrMalformed)
	})

	t.Run("unsupported option", func(t *testing.T) {
		_, err := upgrade.NewMySQLConnectionManager("Server=db;Database=orders;SslMode=sometimes")
		require.ErrorIs(t, err, connstr.ErrUnsupportedOption)
	})

	t.Run("charset", func(t *testing.T) {
		cm, err := upgrade.NewMySQLConnectionManager("Server=db;Database=orders;Uid=u;Pwd=secret;CharSet=utf8mb4")
		require.NoError(t, err)
		require.Equal(t, "utf8mb4", cm.Descriptor().Get("charset"))
	})
}

func TestConnectionManagerFromDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cm := upgrade.NewConnectionManagerFromDB(db)
	require.Nil(t, cm.Descriptor())

	got, err := cm.DB(context.Background())
	require.NoError(t, err)
	require.Same(t, db, got)

	mock.ExpectClose()
	require.NoError(t, cm.Close())
	require.NoError(t, cm.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
