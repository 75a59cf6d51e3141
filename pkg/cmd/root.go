package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run creates and executes the mysqlup CLI application with the given version
// and command-line arguments.
//
// The project configuration (mysqlup.yaml in the working directory) is
// injected into each command by fx. Every command that talks to MySQL also
// accepts --connection, which falls back to the MYSQLUP_CONNECTION environment
// variable and then to connection_string in mysqlup.yaml.
//
// The command runs once the fx application has started. The application shuts
// down with exit code 1 if the command fails and 0 otherwise.
//
// Example usage:
//
//	mysqlup plan
//	mysqlup upgrade --connection "Server=db;Database=orders;Uid=deploy;Pwd=secret"
//	mysqlup drop --timeout 30s
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	app := &cli.Command{
		Name:  "mysqlup",
		Usage: "A tool for upgrading MySQL schemas with versioned scripts",
		Description: `mysqlup applies .sql scripts to a MySQL database in name order, recording
each applied script in a journal table so it is never run twice.`,
		Version:  p.Version.Version,
		Commands: p.Commands,
	}

	p.Lifecycle.Append(fx.StartHook(func() {
		// Commands can outlive fx's start timeout (dev up pulls images), so
		// they run outside the start hook.
		go func() {
			if err := app.Run(p.Ctx, p.Args); err != nil {
				slog.Error("Error running command", "err", err)
				_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				return
			}

			_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
		}()
	}))
}
