// Package invoke resolves a reachable instance address for a
// user/function pair, starting a fresh container on a cache miss.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corvus-faas/control-plane/cache"
	"github.com/corvus-faas/control-plane/catalog"
	"github.com/corvus-faas/control-plane/docker"
	"github.com/corvus-faas/control-plane/models"
	"github.com/corvus-faas/control-plane/util"
)

// runTimeout is how long a started container is allowed to live, and
// also the instance cache TTL for its address. The container is
// actually started for runTimeout+containerGrace seconds (see Run's
// call site below), a couple of seconds longer than the cache entry,
// so a caller that wins the cache race never observes a dead address
// before the entry itself expires.
const (
	runTimeout     = 50 * time.Second
	containerGrace = 2 * time.Second
	containerPort  = 8080
)

// ErrFunctionNotRegistered means the (user, name) pair has no catalog
// entry. Maps to HTTP 404.
var ErrFunctionNotRegistered = errors.New("invoke: function not registered")

// ErrFunctionFailedToStart means the container could not be created
// or started. Maps to HTTP 500.
var ErrFunctionFailedToStart = errors.New("invoke: function failed to start")

// Scheduler ties the function catalog, instance cache, and container
// runtime together behind EnsureRunning.
type Scheduler struct {
	catalogStore  catalog.Store
	instanceCache cache.Store
	dockerClient  *docker.Client
	logger        *slog.Logger
	network       string
}

// NewScheduler constructs a Scheduler. network is the Docker network
// every function container joins, read from DOCKER_COMPOSE_NETWORK.
func NewScheduler(catalogStore catalog.Store, instanceCache cache.Store, dockerClient *docker.Client, logger *slog.Logger, network string) *Scheduler {
	return &Scheduler{
		catalogStore:  catalogStore,
		instanceCache: instanceCache,
		dockerClient:  dockerClient,
		logger:        logger,
		network:       network,
	}
}

// EnsureRunning resolves a live, reachable address for (userUUID, name).
// On a cache hit, returns the cached address directly without touching
// the container runtime. On a miss, starts a fresh container, attempts
// to install it in the cache, and returns its address regardless of
// whether the cache insert actually won the race: a concurrent loser
// still has a running container to serve from.
func (scheduler *Scheduler) EnsureRunning(ctx context.Context, userUUID, name string) (string, error) {
	key := models.FunctionKey(userUUID, name)

	if _, err := scheduler.catalogStore.FindByName(userUUID, name); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return "", ErrFunctionNotRegistered
		}
		return "", fmt.Errorf("failed to look up function: %w", err)
	}

	if addr, ok := scheduler.instanceCache.Get(ctx, key); ok {
		return addr, nil
	}

	spec := models.ContainerSpec{
		ContainerPort:  containerPort,
		BindPort:       util.RandomBindPort(),
		ContainerName:  util.RandomContainerName(key),
		TimeoutSeconds: int((runTimeout + containerGrace).Seconds()),
		Network:        scheduler.network,
	}

	if _, err := scheduler.dockerClient.Run(ctx, key, spec); err != nil {
		scheduler.logger.Error("failed to start function container", "key", key, "error", err)
		return "", ErrFunctionFailedToStart
	}

	addr := fmt.Sprintf("%s:%d", spec.ContainerName, spec.ContainerPort)

	// A concurrent caller may have won this race first.
	// Either way the address just started is valid to use for this
	// request; only the cache entry itself needs exactly-one-winner.
	if err := scheduler.instanceCache.PutIfAbsent(ctx, key, addr, runTimeout); err != nil {
		scheduler.logger.Warn("failed to cache instance address (non-fatal)", "key", key, "error", err)
	}

	scheduler.logger.Info("function instance started", "key", key, "addr", addr)
	return addr, nil
}
