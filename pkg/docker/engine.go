package docker

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/go-connections/nat"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
)

// DevLabel marks containers started by mysqlup.
const DevLabel = "mysqlup.dev"

var runningContainers = filters.Arg("status", "running")

type (
	// DockerClient defines the interface for Docker operations used by the Engine.
	// This interface is satisfied by *client.Client and allows for easy mocking in tests.
	DockerClient interface {
		ImagePull(context.Context, string, image.PullOptions) (io.ReadCloser, error)
		ContainerCreate(context.Context, *container.Config, *container.HostConfig, *network.NetworkingConfig, *v1.Platform, string) (container.CreateResponse, error)
		ContainerStart(context.Context, string, container.StartOptions) error
		ContainerList(context.Context, container.ListOptions) ([]container.Summary, error)
		ContainerStop(context.Context, string, container.StopOptions) error
		ContainerRemove(context.Context, string, container.RemoveOptions) error
		ContainerInspect(context.Context, string) (container.InspectResponse, error)
	}

	// Engine manages named, long-lived containers through the Docker API.
	Engine struct {
		client DockerClient
	}

	// ContainerInfo summarizes a container known to the Docker daemon.
	ContainerInfo struct {
		Names  []string
		Image  string
		State  string
		Status string
	}

	ContainerOptions struct {
		Name    string
		Image   string
		Env     map[string]string
		Ports   map[int]int
		Volumes []ContainerVolume
	}

	ContainerVolume struct {
		HostPath      string `yaml:"hostPath"`
		ContainerPath string `yaml:"containerPath"`
		ReadOnly      bool   `yaml:"readOnly"`
	}
)

// NewEngine creates a new Docker Engine instance for managing Docker operations.
// The Docker client should be initialized and connected before passing to this constructor.
//
// Example:
//
//	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cli.Close()
//
//	engine := docker.NewEngine(cli)
//	if err := engine.Pull(ctx, docker.Image("8.4"), io.Discard); err != nil {
//		log.Fatal(err)
//	}
func NewEngine(cl DockerClient) *Engine {
	return &Engine{
		client: cl,
	}
}

// Pull fetches img, copying the daemon's progress stream to w.
func (c *Engine) Pull(ctx context.Context, img string, w io.Writer) error {
	out, err := c.client.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return errors.Wrapf(err, "failed to pull image: %s", img)
	}

	defer func() { _ = out.Close() }()
	_, _ = io.Copy(w, out)
	return nil
}

// Start creates and starts a container. Ports maps host ports to container
// ports; a host port <= 0 lets Docker pick one.
func (c *Engine) Start(ctx context.Context, opts ContainerOptions) error {
	env := make([]string, 0, len(opts.Env))
	for key, value := range opts.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	exposedPorts := make(nat.PortSet)
	portBindings := make(nat.PortMap)
	for hostPort, containerPort := range opts.Ports {
		port := nat.Port(fmt.Sprintf("%d/tcp", containerPort))
		exposedPorts[port] = struct{}{}

		hostPortStr := ""
		if hostPort > 0 {
			hostPortStr = strconv.Itoa(hostPort)
		}

		portBindings[port] = []nat.PortBinding{
			{
				HostPort: hostPortStr,
			},
		}
	}

	binds := make([]string, len(opts.Volumes))
	for i, volume := range opts.Volumes {
		bind := fmt.Sprintf("%s:%s", volume.HostPath, volume.ContainerPath)
		if volume.ReadOnly {
			bind += ":ro"
		}
		binds[i] = bind
	}

	resp, err := c.client.ContainerCreate(
		ctx,
		&container.Config{
			Image:        opts.Image,
			Env:          env,
			ExposedPorts: exposedPorts,
			Labels:       map[string]string{DevLabel: "true"},
		},
		&container.HostConfig{
			PortBindings: portBindings,
			Binds:        binds,
		},
		nil,
		nil,
		opts.Name,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to create container: %s", opts.Name)
	}

	if err := c.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return errors.Wrapf(err, "failed to start container: %s", opts.Name)
	}

	return nil
}

// ListDevServers returns the running containers carrying DevLabel, ordered
// as the daemon reports them.
func (c *Engine) ListDevServers(ctx context.Context) ([]ContainerInfo, error) {
	summaries, err := c.client.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(runningContainers, filters.Arg("label", DevLabel)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list dev servers")
	}

	servers := make([]ContainerInfo, 0, len(summaries))
	for _, s := range summaries {
		servers = append(servers, ContainerInfo{
			Names:  containerNames(s.Names...),
			Image:  s.Image,
			State:  string(s.State),
			Status: s.Status,
		})
	}

	return servers, nil
}

// Stop stops and removes the container.
func (c *Engine) Stop(ctx context.Context, nameOrID string) error {
	timeout := 30
	if err := c.client.ContainerStop(ctx, nameOrID, container.StopOptions{
		Timeout: &timeout,
	}); err != nil {
		return errors.Wrapf(err, "failed to stop container: %s", nameOrID)
	}

	if err := c.client.ContainerRemove(ctx, nameOrID, container.RemoveOptions{
		Force: true,
	}); err != nil {
		return errors.Wrapf(err, "failed to remove container: %s", nameOrID)
	}

	return nil
}

// Get inspects a single container.
func (c *Engine) Get(ctx context.Context, nameOrID string) (*ContainerInfo, error) {
	inspect, err := c.client.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to inspect container: %s", nameOrID)
	}

	info := &ContainerInfo{}
	if inspect.Config != nil {
		info.Image = inspect.Config.Image
	}

	if base := inspect.ContainerJSONBase; base != nil {
		if base.Name != "" {
			info.Names = containerNames(base.Name)
		}

		if base.State != nil {
			info.State = string(base.State.Status)
			info.Status = string(base.State.Status)
		}
	}

	return info, nil
}

// IsRunning reports whether nameOrID exists and is running.
func (c *Engine) IsRunning(ctx context.Context, nameOrID string) bool {
	info, err := c.Get(ctx, nameOrID)
	return err == nil && info.State == "running"
}

// containerNames strips the leading slash the daemon puts on names.
func containerNames(names ...string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = strings.TrimPrefix(name, "/")
	}

	return out
}
