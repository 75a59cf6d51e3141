package docker_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/go-connections/nat"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/docker"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("container not found")

// mockClient implements docker.DockerClient, recording what it was asked to do.
type mockClient struct {
	pulled     []string
	created    *container.Config
	hostConfig *container.HostConfig
	name       string
	started    []string
	stopped    []string
	removed    []string
	listOpts   container.ListOptions
	list       []container.Summary
	inspect    map[string]container.InspectResponse
	createErr  error
}

func (m *mockClient) ImagePull(_ context.Context, ref string, _ image.PullOptions) (io.ReadCloser, error) {
	m.pulled = append(m.pulled, ref)
	return io.NopCloser(strings.NewReader("pulling image")), nil
}

func (m *mockClient) ContainerCreate(_ context.Context, cfg *container.Config, hc *container.HostConfig, _ *network.NetworkingConfig, _ *v1.Platform, name string) (container.CreateResponse, error) {
	if m.createErr != nil {
		return container.CreateResponse{}, m.createErr
	}

	m.created, m.hostConfig, m.name = cfg, hc, name
	return container.CreateResponse{ID: "mock-container-id"}, nil
}

func (m *mockClient) ContainerStart(_ context.Context, id string, _ container.StartOptions) error {
	m.started = append(m.started, id)
	return nil
}

func (m *mockClient) ContainerList(_ context.Context, opts container.ListOptions) ([]container.Summary, error) {
	m.listOpts = opts
	return m.list, nil
}

func (m *mockClient) ContainerStop(_ context.Context, id string, _ container.StopOptions) error {
	m.stopped = append(m.stopped, id)
	return nil
}

func (m *mockClient) ContainerRemove(_ context.Context, id string, _ container.RemoveOptions) error {
	m.removed = append(m.removed, id)
	return nil
}

func (m *mockClient) ContainerInspect(_ context.Context, id string) (container.InspectResponse, error) {
	if res, ok := m.inspect[id]; ok {
		return res, nil
	}

	return container.InspectResponse{}, errNotFound
}

func TestEngine_Pull(t *testing.T) {
	client := &mockClient{}
	engine := docker.NewEngine(client)

	var out strings.Builder
	require.NoError(t, engine.Pull(context.Background(), "mysql:8.4", &out))
	require.Equal(t, []string{"mysql:8.4"}, client.pulled)
	require.Equal(t, "pulling image", out.String())
}

func TestEngine_Start(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := &mockClient{}
		engine := docker.NewEngine(client)

		err := engine.Start(context.Background(), docker.ContainerOptions{
			Name:  "mysqlup-dev",
			Image: "mysql:8.4",
			Env:   map[string]string{"MYSQL_ROOT_PASSWORD": "pw"},
			Ports: map[int]int{13306: 3306},
			Volumes: []docker.ContainerVolume{
				{HostPath: "/src/db/mysql.d", ContainerPath: "/etc/mysql/conf.d", ReadOnly: true},
			},
		})
		require.NoError(t, err)

		require.Equal(t, "mysqlup-dev", client.name)
		require.Equal(t, "mysql:8.4", client.created.Image)
		require.Equal(t, []string{"MYSQL_ROOT_PASSWORD=pw"}, client.created.Env)
		require.Equal(t, "true", client.created.Labels[docker.DevLabel])
		require.Contains(t, client.created.ExposedPorts, nat.Port("3306/tcp"))
		require.Equal(t, []nat.PortBinding{{HostPort: "13306"}}, client.hostConfig.PortBindings[nat.Port("3306/tcp")])
		require.Equal(t, []string{"/src/db/mysql.d:/etc/mysql/conf.d:ro"}, client.hostConfig.Binds)
		require.Equal(t, []string{"mock-container-id"}, client.started)
	})

	t.Run("random host port", func(t *testing.T) {
		client := &mockClient{}
		engine := docker.NewEngine(client)

		require.NoError(t, engine.Start(context.Background(), docker.ContainerOptions{
			Name:  "random",
			Image: "mysql:8.4",
			Ports: map[int]int{0: 3306},
		}))
		require.Equal(t, []nat.PortBinding{{HostPort: ""}}, client.hostConfig.PortBindings[nat.Port("3306/tcp")])
	})

	t.Run("create failure", func(t *testing.T) {
		client := &mockClient{createErr: errors.New("conflict")}
		engine := docker.NewEngine(client)

		err := engine.Start(context.Background(), docker.ContainerOptions{Name: "mysqlup-dev"})
		require.ErrorContains(t, err, "failed to create container: mysqlup-dev: conflict")
		require.Empty(t, client.started)
	})
}

func TestEngine_ListDevServers(t *testing.T) {
	client := &mockClient{
		list: []container.Summary{
			{Names: []string{"/mysqlup-dev"}, Image: "mysql:8.4", State: "running", Status: "Up 2 minutes"},
			{Names: []string{"/mysqlup-dev-2", "/alias"}, Image: "mysql:8.0", State: "running", Status: "Up 5 seconds"},
		},
	}
	engine := docker.NewEngine(client)

	servers, err := engine.ListDevServers(context.Background())
	require.NoError(t, err)
	require.Equal(t, []docker.ContainerInfo{
		{Names: []string{"mysqlup-dev"}, Image: "mysql:8.4", State: "running", Status: "Up 2 minutes"},
		{Names: []string{"mysqlup-dev-2", "alias"}, Image: "mysql:8.0", State: "running", Status: "Up 5 seconds"},
	}, servers)
	require.Equal(t, []string{docker.DevLabel}, client.listOpts.Filters.Get("label"))
	require.Equal(t, []string{"running"}, client.listOpts.Filters.Get("status"))
}

func TestEngine_ListDevServers_Empty(t *testing.T) {
	servers, err := docker.NewEngine(&mockClient{}).ListDevServers(context.Background())
	require.NoError(t, err)
	require.Empty(t, servers)
}

func TestEngine_Stop(t *testing.T) {
	client := &mockClient{}
	engine := docker.NewEngine(client)

	require.NoError(t, engine.Stop(context.Background(), "mysqlup-dev"))
	require.Equal(t, []string{"mysqlup-dev"}, client.stopped)
	require.Equal(t, []string{"mysqlup-dev"}, client.removed)
}

func TestEngine_Get(t *testing.T) {
	client := &mockClient{
		inspect: map[string]container.InspectResponse{
			"mysqlup-dev": {
				ContainerJSONBase: &container.ContainerJSONBase{
					Name:  "/mysqlup-dev",
					State: &container.State{Status: "running"},
				},
				Config: &container.Config{Image: "mysql:8.4"},
			},
			"bare": {},
		},
	}
	engine := docker.NewEngine(client)

	info, err := engine.Get(context.Background(), "mysqlup-dev")
	require.NoError(t, err)
	require.Equal(t, &docker.ContainerInfo{
		Names:  []string{"mysqlup-dev"},
		Image:  "mysql:8.4",
		State:  "running",
		Status: "running",
	}, info)
	require.True(t, engine.IsRunning(context.Background(), "mysqlup-dev"))

	info, err = engine.Get(context.Background(), "bare")
	require.NoError(t, err)
	require.Equal(t, &docker.ContainerInfo{}, info)
	require.False(t, engine.IsRunning(context.Background(), "bare"))

	_, err = engine.Get(context.Background(), "missing")
	require.ErrorIs(t, err, errNotFound)
	require.False(t, engine.IsRunning(context.Background(), "missing"))
}
