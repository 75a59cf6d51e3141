package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/config"
	"github.com/pseudomuto/mysqlup/pkg/connstr"
	"github.com/pseudomuto/mysqlup/pkg/consts"
	"github.com/pseudomuto/mysqlup/pkg/docker"
	"github.com/pseudomuto/mysqlup/pkg/upgrade"
	"github.com/urfave/cli/v3"
)

// devStartTimeout bounds how long dev up waits for the server to accept
// connections.
const devStartTimeout = 2 * time.Minute

func dev(cfg *config.Config, client docker.DockerClient) *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Manage local MySQL development server",
		Commands: []*cli.Command{
			devUp(cfg, client),
			devDown(client),
			devStatus(client),
		},
	}
}

func devUp(cfg *config.Config, client docker.DockerClient) *cli.Command {
	return &cli.Command{
		Name:  "up",
		Usage: "Start MySQL development server and apply scripts",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDevUp(ctx, output(cmd), cfg, docker.NewEngine(client))
		},
	}
}

func devDown(client docker.DockerClient) *cli.Command {
	return &cli.Command{
		Name:  "down",
		Usage: "Stop and remove MySQL development server",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDevDown(ctx, output(cmd), docker.NewEngine(client))
		},
	}
}

func devStatus(client docker.DockerClient) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "List running MySQL development servers",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDevStatus(ctx, output(cmd), docker.NewEngine(client))
		},
	}
}

func runDevUp(ctx context.Context, w io.Writer, cfg *config.Config, engine *docker.Engine) error {
	if engine.IsRunning(ctx, consts.DevContainerName) {
		fmt.Fprintln(w, "MySQL development server is already running")
		fmt.Fprintln(w, "Use 'mysqlup dev down' to stop it first")
		return nil
	}

	opts, err := devContainerOptions(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Starting %s container...\n", opts.Image)

	if err := engine.Pull(ctx, opts.Image, io.Discard); err != nil {
		return err
	}

	if err := engine.Start(ctx, opts); err != nil {
		return err
	}

	connStr := docker.FormatConnectionString("127.0.0.1", cfg.Dev.Port, cfg.Dev.Database, cfg.Dev.Password)
	if err := waitForServer(ctx, connStr, devStartTimeout); err != nil {
		return err
	}

	fmt.Fprintln(w, "Connected to MySQL server")

	if err := runUpgrade(ctx, w, connStr, cfg); err != nil {
		return err
	}

	return printDevBanner(w, connStr)
}

// printDevBanner prints connection details for the dev server with the
// password masked.
func printDevBanner(w io.Writer, connStr string) error {
	redacted, err := connstr.Redact(connStr)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(w, "MySQL Development Server Started")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Connection:  %s\n", redacted)
	fmt.Fprintln(w, "\nUse 'mysqlup dev down' to stop the server")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	return nil
}

func runDevDown(ctx context.Context, w io.Writer, engine *docker.Engine) error {
	if !engine.IsRunning(ctx, consts.DevContainerName) {
		fmt.Fprintln(w, "No MySQL development server is currently running")
		return nil
	}

	if err := engine.Stop(ctx, consts.DevContainerName); err != nil {
		return err
	}

	fmt.Fprintln(w, "MySQL development server stopped")
	return nil
}

func runDevStatus(ctx context.Context, w io.Writer, engine *docker.Engine) error {
	servers, err := engine.ListDevServers(ctx)
	if err != nil {
		return err
	}

	if len(servers) == 0 {
		fmt.Fprintln(w, "No MySQL development server is currently running")
		return nil
	}

	for _, s := range servers {
		fmt.Fprintf(w, "%s\t%s\t%s\n", strings.Join(s.Names, ","), s.Image, s.Status)
	}

	return nil
}

func devContainerOptions(cfg *config.Config) (docker.ContainerOptions, error) {
	opts := docker.ContainerOptions{
		Name:  consts.DevContainerName,
		Image: docker.Image(cfg.Dev.Version),
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": cfg.Dev.Password,
			"MYSQL_DATABASE":      cfg.Dev.Database,
		},
		Ports: map[int]int{cfg.Dev.Port: docker.MySQLPort.Int()},
	}

	if cfg.Dev.ConfigDir != "" {
		// Docker requires absolute bind sources
		dir, err := filepath.Abs(cfg.Dev.ConfigDir)
		if err != nil {
			return opts, errors.Wrapf(err, "failed to get absolute path for config dir: %s", cfg.Dev.ConfigDir)
		}

		opts.Volumes = []docker.ContainerVolume{
			{HostPath: dir, ContainerPath: "/etc/mysql/conf.d", ReadOnly: true},
		}
	}

	return opts, nil
}

// waitForServer polls until connStr accepts connections or timeout elapses.
func waitForServer(ctx context.Context, connStr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		cm, err := upgrade.NewMySQLConnectionManager(connStr)
		if err != nil {
			return err
		}

		_, err = cm.DB(ctx)
		_ = cm.Close()
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(err, "MySQL server did not become ready")
		case <-ticker.C:
		}
	}
}
