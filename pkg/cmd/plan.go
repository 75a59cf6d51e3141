package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/pseudomuto/mysqlup/pkg/config"
	"github.com/pseudomuto/mysqlup/pkg/connstr"
	"github.com/pseudomuto/mysqlup/pkg/logging"
	"github.com/pseudomuto/mysqlup/pkg/upgrade"
	"github.com/urfave/cli/v3"
)

// plan creates the plan command, which prints the assembled upgrade
// configuration without touching the database.
//
// Example usage:
//
//	mysqlup plan --connection "Server=db;Database=orders;Uid=deploy;Pwd=secret"
func plan(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Show the upgrade configuration and the scripts that would be considered",
		Description: `Assemble the upgrade engine exactly as 'mysqlup upgrade' would and print
its configuration. The password in the connection string is masked.

No connection is opened, so pending scripts cannot be determined here. Use
'mysqlup status' for that.`,
		Flags: []cli.Flag{
			connectionFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			connStr, err := connectionString(cmd, cfg)
			if err != nil {
				return err
			}

			return printPlan(ctx, output(cmd), connStr, cfg)
		},
	}
}

func printPlan(ctx context.Context, w io.Writer, connStr string, cfg *config.Config) error {
	engine, err := newEngine(connStr, cfg, logging.Discard)
	if err != nil {
		return err
	}

	desc, err := connstr.ParseUnscoped(connStr)
	if err != nil {
		return err
	}

	scripts, err := engine.DiscoveredScripts(ctx)
	if err != nil {
		return err
	}

	database := desc.Database()
	if database == "" {
		database = "(connection default)"
	}

	engineCfg := engine.Configuration()

	fmt.Fprintf(w, "Connection:     %s\n", desc.Redacted())
	fmt.Fprintf(w, "Database:       %s\n", database)
	fmt.Fprintf(w, "Journal table:  %s\n", journalName(engineCfg.Journal))
	fmt.Fprintf(w, "Scripts dir:    %s\n", cfg.ScriptsDir)

	if !engineCfg.VariablesEnabled {
		fmt.Fprintln(w, "Variables:      disabled")
	} else {
		fmt.Fprintf(w, "Variables:      %d\n", len(engineCfg.Variables))
		for _, name := range slices.Sorted(maps.Keys(engineCfg.Variables)) {
			fmt.Fprintf(w, "  $%s$ = %s\n", name, engineCfg.Variables[name])
		}
	}

	fmt.Fprintf(w, "Scripts:        %d\n", len(scripts))
	for _, s := range scripts {
		fmt.Fprintf(w, "  %s\n", s.Name)
	}

	return nil
}

func journalName(j upgrade.Journal) string {
	if tj, ok := j.(*upgrade.MySQLTableJournal); ok {
		return tj.Reference().String()
	}

	return fmt.Sprintf("%T", j)
}
