package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/config"
	"github.com/pseudomuto/mysqlup/pkg/logging"
	"github.com/urfave/cli/v3"
)

// status creates the status command for showing which scripts are pending.
//
// Example usage:
//
//	mysqlup status
//	mysqlup status --verbose
func status(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show applied and pending scripts",
		Description: `Compare the scripts in the scripts directory with the journal table.

The status command shows:
- Total number of scripts found
- Number of applied and pending scripts
- The names of pending scripts
- The names of applied scripts (when --verbose is used)`,
		Flags: []cli.Flag{
			connectionFlag(),
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "List applied scripts as well",
				Value: false,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			connStr, err := connectionString(cmd, cfg)
			if err != nil {
				return err
			}

			return runStatus(ctx, output(cmd), connStr, cfg, cmd.Bool("verbose"))
		},
	}
}

func runStatus(ctx context.Context, w io.Writer, connStr string, cfg *config.Config, verbose bool) error {
	engine, err := newEngine(connStr, cfg, logging.Discard)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	discovered, err := engine.DiscoveredScripts(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to discover scripts")
	}

	executed, err := engine.ExecutedScripts(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load executed scripts")
	}

	pending, err := engine.ScriptsToExecute(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Total scripts: %d\n", len(discovered))
	fmt.Fprintf(w, "✅ Applied: %d\n", len(executed))
	fmt.Fprintf(w, "⏳ Pending: %d\n", len(pending))

	if verbose && len(executed) > 0 {
		fmt.Fprintln(w, "\nApplied scripts:")
		for _, name := range executed {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}

	if len(pending) > 0 {
		fmt.Fprintln(w, "\nPending scripts:")
		for _, s := range pending {
			fmt.Fprintf(w, "  %s\n", s.Name)
		}

		fmt.Fprintln(w, "\n💡 Run 'mysqlup upgrade' to apply pending scripts")
		return nil
	}

	fmt.Fprintln(w, "\n✅ All scripts are up to date")
	return nil
}
