package cmd

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/cmd/testutil"
	"github.com/pseudomuto/mysqlup/pkg/consts"
	"github.com/pseudomuto/mysqlup/pkg/docker"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestDevCommand_Structure(t *testing.T) {
	command := dev(testutil.DefaultConfig(), testutil.NewMockDockerClient())

	require.Equal(t, "dev", command.Name)
	require.Len(t, command.Commands, 3)
	require.Equal(t, "up", command.Commands[0].Name)
	require.Equal(t, "down", command.Commands[1].Name)
	require.Equal(t, "status", command.Commands[2].Name)
}

func TestDevUpCommand_ContainerAlreadyRunning(t *testing.T) {
	fixture := testutil.TestProject(t)

	dockerClient := testutil.NewMockDockerClient()
	dockerClient.ContainerInspectFunc = func(ctx context.Context, containerID string) (container.InspectResponse, error) {
		require.Equal(t, consts.DevContainerName, containerID)
		return testutil.RunningContainer(containerID), nil
	}
	dockerClient.ImagePullFunc = func(context.Context, string, image.PullOptions) (io.ReadCloser, error) {
		t.Fatal("image should not be pulled")
		return nil, nil
	}

	command := devUp(fixture.Config, dockerClient)

	var buf bytes.Buffer
	testCmd := &cli.Command{Writer: &buf}

	require.NoError(t, command.Action(context.Background(), testCmd))
	require.Contains(t, buf.String(), "MySQL development server is already running")
	require.Contains(t, buf.String(), "Use 'mysqlup dev down' to stop it first")
}

func TestDevUpCommand_PullFailure(t *testing.T) {
	fixture := testutil.TestProject(t)

	var created bool
	dockerClient := testutil.NewMockDockerClient()
	dockerClient.ImagePullFunc = func(_ context.Context, ref string, _ image.PullOptions) (io.ReadCloser, error) {
		require.Equal(t, "mysql:"+consts.DefaultMySQLVersion, ref)
		return nil, errors.New("registry unavailable")
	}
	dockerClient.ContainerCreateFunc = func(context.Context, *container.Config, *container.HostConfig, *network.NetworkingConfig, *v1.Platform, string) (container.CreateResponse, error) {
		created = true
		return container.CreateResponse{}, nil
	}

	command := devUp(fixture.Config, dockerClient)

	var buf bytes.Buffer
	err := command.Action(context.Background(), &cli.Command{Writer: &buf})
	require.ErrorContains(t, err, "registry unavailable")
	require.False(t, created, "container should not be created")
}

func TestDevDownCommand_NoContainerRunning(t *testing.T) {
	dockerClient := testutil.NewMockDockerClient()
	dockerClient.ContainerStopFunc = func(context.Context, string, container.StopOptions) error {
		t.Fatal("nothing should be stopped")
		return nil
	}

	var buf bytes.Buffer
	require.NoError(t, devDown(dockerClient).Action(context.Background(), &cli.Command{Writer: &buf}))
	require.Contains(t, buf.String(), "No MySQL development server is currently running")
}

func TestDevDownCommand_StopsContainer(t *testing.T) {
	dockerClient := testutil.NewMockDockerClient()
	dockerClient.ContainerInspectFunc = func(_ context.Context, containerID string) (container.InspectResponse, error) {
		return testutil.RunningContainer(containerID), nil
	}

	var stopCalled, removeCalled bool
	dockerClient.ContainerStopFunc = func(_ context.Context, containerID string, _ container.StopOptions) error {
		require.Equal(t, consts.DevContainerName, containerID)
		stopCalled = true
		return nil
	}
	dockerClient.ContainerRemoveFunc = func(_ context.Context, containerID string, options container.RemoveOptions) error {
		require.Equal(t, consts.DevContainerName, containerID)
		require.True(t, options.Force)
		removeCalled = true
		return nil
	}

	var buf bytes.Buffer
	require.NoError(t, devDown(dockerClient).Action(context.Background(), &cli.Command{Writer: &buf}))
	require.Contains(t, buf.String(), "MySQL development server stopped")
	require.True(t, stopCalled, "Container stop should be called")
	require.True(t, removeCalled, "Container remove should be called")
}

func TestDevDownCommand_StopError(t *testing.T) {
	dockerClient := testutil.NewMockDockerClient()
	dockerClient.ContainerInspectFunc = func(_ context.Context, containerID string) (container.InspectResponse, error) {
		return testutil.RunningContainer(containerID), nil
	}
	dockerClient.ContainerStopFunc = func(context.Context, string, container.StopOptions) error {
		return errors.New("daemon went away")
	}

	var buf bytes.Buffer
	err := devDown(dockerClient).Action(context.Background(), &cli.Command{Writer: &buf})
	require.ErrorContains(t, err, "failed to stop container: "+consts.DevContainerName)
	require.NotContains(t, buf.String(), "stopped")
}

func TestDevStatusCommand(t *testing.T) {
	dockerClient := testutil.NewMockDockerClient()
	dockerClient.ContainerListFunc = func(_ context.Context, options container.ListOptions) ([]container.Summary, error) {
		require.Equal(t, []string{docker.DevLabel}, options.Filters.Get("label"))
		return []container.Summary{
			{Names: []string{"/" + consts.DevContainerName}, Image: "mysql:8.4", State: "running", Status: "Up 3 minutes"},
		}, nil
	}

	var buf bytes.Buffer
	require.NoError(t, devStatus(dockerClient).Action(context.Background(), &cli.Command{Writer: &buf}))
	require.Equal(t, consts.DevContainerName+"\tmysql:8.4\tUp 3 minutes\n", buf.String())
}

func TestDevStatusCommand_NoneRunning(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, devStatus(testutil.NewMockDockerClient()).Action(context.Background(), &cli.Command{Writer: &buf}))
	require.Contains(t, buf.String(), "No MySQL development server is currently running")
}

func TestDevStatusCommand_ListError(t *testing.T) {
	dockerClient := testutil.NewMockDockerClient()
	dockerClient.ContainerListFunc = func(context.Context, container.ListOptions) ([]container.Summary, error) {
		return nil, errors.New("daemon went away")
	}

	err := devStatus(dockerClient).Action(context.Background(), &cli.Command{Writer: &bytes.Buffer{}})
	require.ErrorContains(t, err, "failed to list dev servers: daemon went away")
}

func TestPrintDevBanner(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDevBanner(&buf, docker.FormatConnectionString("127.0.0.1", 3306, "app", "hunter2")))

	out := buf.String()
	require.Contains(t, out, "MySQL Development Server Started")
	require.Contains(t, out, "Connection:  Server=127.0.0.1;Port=3306;Database=app;Uid=root;Pwd=*******")
	require.NotContains(t, out, "hunter2")
}

func TestDevContainerOptions(t *testing.T) {
	cfg := testutil.DefaultConfig()

	opts, err := devContainerOptions(cfg)
	require.NoError(t, err)
	require.Equal(t, consts.DevContainerName, opts.Name)
	require.Equal(t, "mysql:"+consts.DefaultMySQLVersion, opts.Image)
	require.Equal(t, map[string]string{
		"MYSQL_ROOT_PASSWORD": consts.DefaultDevPassword,
		"MYSQL_DATABASE":      consts.DefaultDevDatabase,
	}, opts.Env)
	require.Equal(t, map[int]int{consts.DefaultDevPort: 3306}, opts.Ports)
	require.Empty(t, opts.Volumes)
}

func TestDevContainerOptions_ConfigDir(t *testing.T) {
	cfg := testutil.DefaultConfig()
	cfg.Dev.Version = "8.0"
	cfg.Dev.Port = 13306
	cfg.Dev.ConfigDir = "db/mysql.d"

	opts, err := devContainerOptions(cfg)
	require.NoError(t, err)
	require.Equal(t, "mysql:8.0", opts.Image)
	require.Equal(t, map[int]int{13306: 3306}, opts.Ports)

	require.Len(t, opts.Volumes, 1)
	require.True(t, filepath.IsAbs(opts.Volumes[0].HostPath))
	require.Equal(t, "/etc/mysql/conf.d", opts.Volumes[0].ContainerPath)
	require.True(t, opts.Volumes[0].ReadOnly)
}
