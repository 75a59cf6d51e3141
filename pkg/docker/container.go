package docker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/consts"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MySQLPort is the port MySQL listens on inside the container.
const MySQLPort = nat.Port("3306/tcp")

type (
	// DockerOptions represents options for running MySQL in Docker
	DockerOptions struct {
		// Version is the mysql image tag to run (default: consts.DefaultMySQLVersion)
		Version string

		// ConfigDir is the optional directory of .cnf files to mount (relative paths will be converted to absolute)
		ConfigDir string

		// Database is created on startup (default: consts.DefaultDevDatabase)
		Database string

		// Password is the root password (default: consts.DefaultDevPassword)
		Password string
	}

	// Container manages a MySQL Docker container for upgrade testing
	Container struct {
		options   DockerOptions
		container *tcmysql.MySQLContainer
	}
)

// New creates a new Docker container with default options
func New() *Container {
	return NewWithOptions(DockerOptions{})
}

// NewWithOptions creates a new Docker container with custom options
//
// Example:
//
//	opts := docker.DockerOptions{
//		Version:   "8.0",
//		ConfigDir: "/path/to/project/db/mysql.d",
//	}
//	container := docker.NewWithOptions(opts)
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
func NewWithOptions(opts DockerOptions) *Container {
	if opts.Version == "" {
		opts.Version = consts.DefaultMySQLVersion
	}
	if opts.Database == "" {
		opts.Database = consts.DefaultDevDatabase
	}
	if opts.Password == "" {
		opts.Password = consts.DefaultDevPassword
	}

	return &Container{options: opts}
}

// Start starts a MySQL Docker container with the configured version
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	customizers := []testcontainers.ContainerCustomizer{
		tcmysql.WithDatabase(c.options.Database),
		tcmysql.WithUsername("root"),
		tcmysql.WithPassword(c.options.Password),
		testcontainers.WithWaitStrategyAndDeadline(
			5*time.Minute,
			wait.ForAll(
				wait.ForLog("port: 3306  MySQL Community Server"),
				wait.ForListeningPort(MySQLPort),
			),
		),
	}

	if c.options.ConfigDir != "" {
		absConfigDir, err := filepath.Abs(c.options.ConfigDir)
		if err != nil {
			return errors.Wrapf(err, "failed to get absolute path for ConfigDir: %s", c.options.ConfigDir)
		}

		customizers = append(
			customizers,
			testcontainers.WithHostConfigModifier(func(hostConfig *container.HostConfig) {
				hostConfig.Mounts = []mount.Mount{
					{
						Type:     mount.TypeBind,
						Source:   absConfigDir,
						Target:   "/etc/mysql/conf.d",
						ReadOnly: true,
					},
				}
			}),
		)
	}

	container, err := tcmysql.Run(ctx, Image(c.options.Version), customizers...)
	if err != nil {
		return errors.Wrap(err, "failed to start MySQL container")
	}

	c.container = container
	return nil
}

// Stop stops and removes the MySQL Docker container
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil // Already stopped
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	if err != nil {
		return errors.Wrap(err, "failed to stop MySQL container")
	}

	return nil
}

// ConnectionString returns a semicolon delimited connection string for the
// container's database, suitable for upgrade.MySQLDatabase and dropdb.
func (c *Container) ConnectionString(ctx context.Context) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	host, err := c.container.Host(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get container host")
	}

	port, err := c.container.MappedPort(ctx, MySQLPort)
	if err != nil {
		return "", errors.Wrap(err, "failed to get container port")
	}

	return FormatConnectionString(host, port.Int(), c.options.Database, c.options.Password), nil
}

// GetDSN returns the go-sql-driver/mysql DSN for the container's database
func (c *Container) GetDSN(ctx context.Context) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	dsn, err := c.container.ConnectionString(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get connection string")
	}

	return dsn, nil
}

// IsRunning returns true if the container is currently running
func (c *Container) IsRunning() bool {
	return c.container != nil
}

// Image returns the mysql image reference for version.
func Image(version string) string {
	if version == "" {
		version = consts.DefaultMySQLVersion
	}

	return "mysql:" + version
}

// FormatConnectionString renders a root connection string for a containerized
// server.
func FormatConnectionString(host string, port int, database, password string) string {
	return fmt.Sprintf("Server=%s;Port=%d;Database=%s;Uid=root;Pwd=%s", host, port, database, password)
}
