package cmd

import (
	"context"
	"time"

	"github.com/pseudomuto/mysqlup/pkg/config"
	"github.com/pseudomuto/mysqlup/pkg/dropdb"
	"github.com/pseudomuto/mysqlup/pkg/logging"
	"github.com/urfave/cli/v3"
)

// drop creates the drop command, which removes the target database if it
// exists.
//
// The database named in the connection string is dropped over a connection to
// the mysql system database. Dropping a database that doesn't exist succeeds.
//
// Example usage:
//
//	mysqlup drop --connection "Server=db;Database=orders_test;Uid=root;Pwd=secret"
//	mysqlup drop --timeout 30s
func drop(cfg *config.Config, dropper *dropdb.Dropper) *cli.Command {
	return &cli.Command{
		Name:  "drop",
		Usage: "Drop the target database if it exists",
		Flags: []cli.Flag{
			connectionFlag(),
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Bound each command sent to the server (0 disables)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			connStr, err := connectionString(cmd, cfg)
			if err != nil {
				return err
			}

			timeout := cfg.CommandTimeout
			if cmd.IsSet("timeout") {
				timeout = cmd.Duration("timeout")
			}

			return dropDatabase(ctx, dropper, connStr, logging.NewText(output(cmd)), timeout)
		},
	}
}

func dropDatabase(ctx context.Context, d *dropdb.Dropper, connStr string, log logging.Logger, timeout time.Duration) error {
	if d == nil {
		return dropdb.DropDatabase(ctx, connStr, log, timeout)
	}

	return d.Drop(ctx, connStr, log, timeout)
}
