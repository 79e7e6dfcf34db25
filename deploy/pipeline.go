// Package deploy turns a user-supplied bundle into a runnable function:
// it validates the bundle, materializes a project skeleton from
// templates, builds an image for it, and registers it in the function
// catalog.
package deploy

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/corvus-faas/control-plane/catalog"
	"github.com/corvus-faas/control-plane/docker"
	"github.com/corvus-faas/control-plane/models"
	"github.com/corvus-faas/control-plane/util"
)

// BadFunctionError is the pipeline's validation-failure variant. It
// always carries a client-facing reason and maps to HTTP 400.
type BadFunctionError struct {
	Reason string
}

func (e *BadFunctionError) Error() string { return e.Reason }

// Pipeline holds the dependencies a deploy needs: the catalog to
// register functions in, the Docker client to build images with, and
// where to write per-deployment log files. Constructed once in
// main.go and passed to the handler via handlers.RouterDependencies.
type Pipeline struct {
	catalogStore   catalog.Store
	dockerClient   *docker.Client
	logger         *slog.Logger
	logRoot        string
	defaultRuntime string
}

// Config groups the configuration values Pipeline needs, so the
// pipeline does not need to import the config package directly.
type Config struct {
	LogRoot        string
	DefaultRuntime string
}

// NewPipeline constructs a Pipeline with its required dependencies.
func NewPipeline(catalogStore catalog.Store, dockerClient *docker.Client, logger *slog.Logger, cfg Config) *Pipeline {
	return &Pipeline{
		catalogStore:   catalogStore,
		dockerClient:   dockerClient,
		logger:         logger,
		logRoot:        cfg.LogRoot,
		defaultRuntime: cfg.DefaultRuntime,
	}
}

// Deploy runs the full deployment pipeline for bundle, synchronously:
// materialize workspace, emit entrypoint, unpack bundle, locate and
// parse config, render Dockerfile, build image, register in the
// catalog, return a success message. Steps 1-5 fail without side
// effects outside the temp workspace; step 6 may leave an intermediate
// image on the daemon (tolerated); step 7 is never retried, its error
// propagates directly.
func (pipeline *Pipeline) Deploy(ctx context.Context, bundle models.DeployableBundle) (string, error) {
	key := models.FunctionKey(bundle.UserUUID, bundle.Name)
	log := pipeline.openDeployLogger(key)
	defer log.close()

	log.info("starting deploy", "name", bundle.Name, "user", bundle.UserUUID)

	// --- 1. materialize workspace: a fresh private temp directory named after the function ---
	workspace, err := os.MkdirTemp("", "deploy-"+bundle.Name+"-*")
	if err != nil {
		log.failure("failed to create workspace", err)
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}
	// temp state is removed on success and failure alike.
	defer os.RemoveAll(workspace)

	// --- 2. emit entrypoint ---
	handlerName := util.ToCamelCaseHandler(bundle.Name)
	if err := writeEntrypoint(workspace, bundle.Name, handlerName); err != nil {
		log.failure("failed to write entrypoint", err)
		return "", fmt.Errorf("failed to write entrypoint: %w", err)
	}

	// --- 3. unpack bundle ---
	zipReader, err := zip.NewReader(bytes.NewReader(bundle.Content), int64(len(bundle.Content)))
	if err != nil {
		log.failure("malformed zip", err)
		return "", &BadFunctionError{Reason: "zip malformed"}
	}
	if err := util.ExtractZip(zipReader, workspace); err != nil {
		log.failure("extraction failed", err)
		return "", &BadFunctionError{Reason: "zip malformed"}
	}

	// --- 4. locate & parse config ---
	configPath, err := util.FindConfigJSON(workspace)
	if err != nil {
		log.failure("config.json missing", err)
		return "", &BadFunctionError{Reason: "function does not include config file"}
	}

	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		log.failure("failed to read config.json", err)
		return "", &BadFunctionError{Reason: "function does not include config file"}
	}

	var bundleConfig models.BundleConfig
	if err := json.Unmarshal(configBytes, &bundleConfig); err != nil {
		log.failure("failed to parse config.json", err)
		return "", &BadFunctionError{Reason: "function does not include config file"}
	}
	if bundleConfig.Env == nil {
		return "", &BadFunctionError{Reason: "missing environment configuration"}
	}

	runtime := bundleConfig.Runtime
	if runtime == "" {
		runtime = bundle.Runtime
	}
	if runtime == "" {
		runtime = pipeline.defaultRuntime
	}

	// --- 5. render Dockerfile ---
	dockerfile := renderDockerfile(bundleConfig.Env)

	// --- 6. build image ---
	if err := pipeline.dockerClient.BuildImage(ctx, workspace, key, dockerfile); err != nil {
		log.failure("image build failed", err)
		return "", fmt.Errorf("failed to build image: %w", err)
	}
	log.info("image built", "tag", key)

	// --- 7. register: idempotent-deploy contract ---
	_, err = pipeline.catalogStore.FindByName(bundle.UserUUID, bundle.Name)
	if errors.Is(err, catalog.ErrNotFound) {
		_, createErr := pipeline.catalogStore.CreateForUser(bundle.UserUUID, bundle.Name, runtime)
		if createErr != nil && !errors.Is(createErr, catalog.ErrDuplicate) {
			log.failure("failed to register function", createErr)
			return "", fmt.Errorf("failed to register function: %w", createErr)
		}
	} else if err != nil {
		log.failure("failed to look up existing function", err)
		return "", fmt.Errorf("failed to look up existing function: %w", err)
	}
	// if already present, this is a re-deploy: the image was just
	// overwritten above, the catalog row is left untouched.

	message := fmt.Sprintf("Function '%s' deployed successfully", bundle.Name)
	log.info("deploy complete", "message", message)
	return message, nil
}

// renderDockerfile substitutes the rendered ENV block into the
// Dockerfile template. A two-stage build compiles the function, then
// copies the binary into a slim runtime image. The function name
// itself is embedded in the image tag, not the Dockerfile body.
func renderDockerfile(env map[string]string) string {
	return fmt.Sprintf(dockerfileTemplate, util.EnvToDockerfileLines(env))
}
