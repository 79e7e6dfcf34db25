package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"github.com/corvus-faas/control-plane/models"
)

// memoryLimitBytes and cpuQuota/cpuPeriod implement the per-container
// resource cap applied to every function instance: 256 MB RAM, 1 CPU
// core. CPU quota is
// expressed to the Linux CFS scheduler as quota/period microseconds;
// quota == period means "up to one full core".
const (
	memoryLimitBytes int64 = 256 * 1024 * 1024
	cpuPeriod        int64 = 100_000
	cpuQuota         int64 = 100_000
)

// Run creates and starts a container from image, publishing
// spec.ContainerPort to 127.0.0.1:spec.BindPort, joined to
// spec.Network, with AutoRemove enabled. It attaches a log-drain task
// and schedules a removal task that force-removes the container after
// spec.TimeoutSeconds regardless of whether it is still running.
// AutoRemove handles natural exit; the removal task bounds runaway
// instances. The two do not race destructively because ContainerRemove
// on an already-gone container is treated as success.
func (client *Client) Run(ctx context.Context, image string, spec models.ContainerSpec) (string, error) {
	containerPortKey, err := nat.NewPort("tcp", strconv.Itoa(spec.ContainerPort))
	if err != nil {
		return "", fmt.Errorf("invalid container port %d: %w", spec.ContainerPort, err)
	}

	containerInternalConfig := &container.Config{
		Image:        image,
		ExposedPorts: nat.PortSet{containerPortKey: struct{}{}},
	}

	containerHostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			containerPortKey: []nat.PortBinding{
				{HostIP: "127.0.0.1", HostPort: strconv.Itoa(spec.BindPort)},
			},
		},
		AutoRemove: true,
		Resources: container.Resources{
			Memory:    memoryLimitBytes,
			CPUQuota:  cpuQuota,
			CPUPeriod: cpuPeriod,
		},
	}

	networkingConfig := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			spec.Network: {},
		},
	}

	createResponse, err := client.sdk.ContainerCreate(
		ctx,
		containerInternalConfig,
		containerHostConfig,
		networkingConfig,
		nil,
		spec.ContainerName,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create container %q: %w", spec.ContainerName, err)
	}

	if err := client.sdk.ContainerStart(ctx, createResponse.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container %q: %w", spec.ContainerName, err)
	}

	client.logger.Info("container started",
		"container_id", createResponse.ID[:12],
		"container_name", spec.ContainerName,
		"image", image,
		"bind_port", spec.BindPort,
		"timeout_seconds", spec.TimeoutSeconds,
	)

	go client.drainLogs(createResponse.ID, spec.ContainerName)
	go client.scheduleRemoval(createResponse.ID, spec.ContainerName, time.Duration(spec.TimeoutSeconds)*time.Second)

	return createResponse.ID, nil
}

// drainLogs reads the container's combined stdout/stderr and logs each
// demultiplexed chunk at debug level, as written by stdcopy (a chunk is
// not split into lines). Run in its own goroutine so Run
// itself returns as soon as the container is started, not when it
// exits. The caller (the invocation scheduler) needs the address
// immediately, not after the function finishes running.
func (client *Client) drainLogs(containerID, containerName string) {
	ctx := context.Background()

	logReader, err := client.sdk.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		client.logger.Warn("failed to attach container logs (non-fatal)",
			"container_name", containerName, "error", err)
		return
	}
	defer logReader.Close()

	logWriter := &slogLineWriter{logger: client.logger, containerName: containerName}
	// stdcopy demultiplexes the Docker 8-byte-header framed stream into
	// plain text.
	if _, err := stdcopy.StdCopy(logWriter, logWriter, logReader); err != nil && err != io.EOF {
		client.logger.Warn("container log stream ended with error", "container_name", containerName, "error", err)
	}
}

// scheduleRemoval sleeps for timeout then force-removes the container.
// This bounds a runaway or stuck instance even when AutoRemove fails
// to clean it up
// (e.g. the container hung and never exited on its own). Removal is
// idempotent: if the container is already gone, the error is ignored.
func (client *Client) scheduleRemoval(containerID, containerName string, timeout time.Duration) {
	time.Sleep(timeout)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := client.sdk.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
	if err != nil && !errdefs.IsNotFound(err) {
		client.logger.Warn("failed to reap container (non-fatal)", "container_name", containerName, "error", err)
		return
	}
	client.logger.Info("container reaped by timeout", "container_name", containerName, "timeout", timeout)
}

// slogLineWriter adapts an io.Writer onto the structured logger, so
// stdcopy.StdCopy can write container output straight into slog
// without an intermediate buffer-then-split step for every chunk.
type slogLineWriter struct {
	logger        *slog.Logger
	containerName string
}

func (w *slogLineWriter) Write(p []byte) (int, error) {
	w.logger.Debug("container output", "container_name", w.containerName, "line", string(p))
	return len(p), nil
}
