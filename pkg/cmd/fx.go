package cmd

import (
	"github.com/docker/docker/client"
	"github.com/pseudomuto/mysqlup/pkg/docker"
	"github.com/pseudomuto/mysqlup/pkg/dropdb"
	"go.uber.org/fx"
)

var Module = fx.Module("cli",
	fx.Provide(
		fx.Annotate(dev, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(drop, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(plan, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(status, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(upgradeCmd, fx.ResultTags(`group:"commands"`)),
		newDockerClient,
		func() *dropdb.Dropper { return dropdb.New(dropdb.Config{}) },
	),
	fx.Invoke(Run),
)

// newDockerClient configures (but does not connect) a Docker API client from
// the environment.
func newDockerClient() (docker.DockerClient, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}
