package cmd

import (
	"context"

	"github.com/pseudomuto/mysqlup/pkg/config"
	"github.com/urfave/cli/v3"
)

// upgradeCmd creates the upgrade command for applying pending scripts.
//
// Scripts are loaded from the configured scripts directory and applied in name
// order. Scripts already recorded in the journal table are skipped. Execution
// stops at the first failing script; the scripts before it stay applied.
//
// Example usage:
//
//	# Use the connection string from mysqlup.yaml
//	mysqlup upgrade
//
//	# Override it
//	MYSQLUP_CONNECTION="Server=db;Database=orders;Uid=deploy;Pwd=secret" mysqlup upgrade
func upgradeCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "upgrade",
		Aliases: []string{"up"},
		Usage:   "Apply pending scripts to the database",
		Flags: []cli.Flag{
			connectionFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			connStr, err := connectionString(cmd, cfg)
			if err != nil {
				return err
			}

			return runUpgrade(ctx, output(cmd), connStr, cfg)
		},
	}
}
