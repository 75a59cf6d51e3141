package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/config"
	"github.com/pseudomuto/mysqlup/pkg/consts"
	"github.com/pseudomuto/mysqlup/pkg/logging"
	"github.com/pseudomuto/mysqlup/pkg/upgrade"
	"github.com/urfave/cli/v3"
)

var errNoConnection = errors.New("no connection string: pass --connection, set " +
	consts.ConnectionEnvVar + " or add connection_string to " + consts.ConfigFile)

func connectionFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "connection",
		Aliases: []string{"c"},
		Usage:   "MySQL connection string (e.g. Server=db;Database=orders;Uid=u;Pwd=p)",
		Sources: cli.EnvVars(consts.ConnectionEnvVar),
		Config: cli.StringConfig{
			TrimSpace: true,
		},
	}
}

// connectionString prefers the --connection flag (or its environment
// variable) over the configured value.
func connectionString(cmd *cli.Command, cfg *config.Config) (string, error) {
	if conn := cmd.String("connection"); conn != "" {
		return conn, nil
	}

	if cfg != nil && cfg.ConnectionString != "" {
		return cfg.ConnectionString, nil
	}

	return "", errNoConnection
}

// newEngine assembles an upgrade engine for connStr from the project
// configuration.
func newEngine(connStr string, cfg *config.Config, log logging.Logger) (*upgrade.Engine, error) {
	builder, err := upgrade.MySQLDatabaseWithSchema(connStr, cfg.Schema)
	if err != nil {
		return nil, err
	}

	builder.
		WithScriptsFromFS(os.DirFS(cfg.ScriptsDir)).
		WithVariables(cfg.Variables).
		WithLogger(log)

	if cfg.JournalTable != "" && cfg.JournalTable != consts.DefaultJournalTable {
		var schema *string
		if cfg.Schema != "" {
			schema = &cfg.Schema
		}

		builder.JournalToMySQLTable(schema, cfg.JournalTable)
	}

	if !cfg.SubstituteVariables() {
		builder.WithVariablesDisabled()
	}

	return builder.Build()
}

// runUpgrade applies pending scripts and reports the outcome to w.
func runUpgrade(ctx context.Context, w io.Writer, connStr string, cfg *config.Config) error {
	engine, err := newEngine(connStr, cfg, logging.NewText(w))
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	result := engine.PerformUpgrade(ctx)
	if !result.Successful() {
		if result.ErrorScript != nil {
			return errors.Wrapf(result.Error, "upgrade failed at %s", result.ErrorScript.Name)
		}

		return errors.Wrap(result.Error, "upgrade failed")
	}

	fmt.Fprintf(w, "Applied %d script(s) in %s\n", len(result.Scripts), result.ExecutionTime.Round(time.Millisecond))
	return nil
}

// output returns the writer a command should print to.
func output(cmd *cli.Command) io.Writer {
	if cmd.Writer != nil {
		return cmd.Writer
	}

	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}

	return os.Stdout
}
