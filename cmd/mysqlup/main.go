package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pseudomuto/mysqlup/pkg/cmd"
	"github.com/pseudomuto/mysqlup/pkg/config"
	"go.uber.org/fx"
)

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fx.New(
		fx.NopLogger,
		fx.Supply(&cmd.Version{
			Version:   version,
			Commit:    commit,
			Timestamp: date,
		}),
		fx.Provide(
			func() context.Context { return ctx },
			func() []string { return os.Args },
		),
		config.Module,
		cmd.Module,
	)

	if err := app.Err(); err != nil {
		log.Fatal(err)
	}

	app.Run()
}
