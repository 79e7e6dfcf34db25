// Package docker wraps the Docker SDK client and provides the two
// high-level operations the control plane needs: building a function's
// image, and running a time-bounded instance of it. All Docker SDK
// calls are isolated here so no other package imports the Docker SDK
// directly. If the daemon interaction strategy ever changes, only
// this package changes.
package docker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dockerSDKclient "github.com/docker/docker/client"
)

// Client (docker.Client) wraps the Docker SDK client with a logger. The
// SDK client itself manages the connection to the daemon; it is safe
// to share a single Client across goroutines.
type Client struct {
	sdk    *dockerSDKclient.Client
	logger *slog.Logger
}

// NewClient connects to the Docker daemon at host and pings it to
// verify the connection is live before returning. returning an error
// here should cause main.go to exit immediately: if the daemon is
// unreachable, the platform cannot build images or run functions.
func NewClient(host string, logger *slog.Logger) (*Client, error) {
	sdkClient, err := dockerSDKclient.NewClientWithOpts(
		dockerSDKclient.WithHost(host),
		dockerSDKclient.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker sdk client: %w", err)
	}

	client := &Client{
		sdk:    sdkClient,
		logger: logger,
	}

	pingContext, cancelPingContextTimer := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPingContextTimer()

	if err := client.ping(pingContext); err != nil {
		return nil, fmt.Errorf("docker daemon unreachable: %w", err)
	}

	logger.Info("docker client connected", "host", sdkClient.DaemonHost())
	return client, nil
}

// ping sends a lightweight ping request to the Docker daemon. used at
// startup to verify connectivity before the server begins accepting requests.
func (client *Client) ping(ctx context.Context) error {
	_, err := client.sdk.Ping(ctx)
	if err != nil {
		return fmt.Errorf("docker ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying Docker SDK client connection. should
// be deferred in main.go immediately after NewClient returns successfully.
func (client *Client) Close() error {
	return client.sdk.Close()
}
