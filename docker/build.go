package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types/build"
)

// BuildImage writes dockerfileText to contextDir/Dockerfile, packages
// contextDir into a tar stream, submits it to the daemon, and streams
// build progress to the logger. On any daemon-reported error, returns
// a wrapped error the caller should surface as BuildError. Image tag
// collisions are idempotent: the daemon simply retags, overwriting the
// previous image for that tag.
func (client *Client) BuildImage(ctx context.Context, contextDir, tag, dockerfileText string) error {
	dockerfilePath := filepath.Join(contextDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(dockerfileText), 0o644); err != nil {
		return fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	buildContextTar, err := tarDirectory(contextDir)
	if err != nil {
		return fmt.Errorf("failed to package build context: %w", err)
	}

	response, err := client.sdk.ImageBuild(ctx, buildContextTar, build.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: "Dockerfile",
		Remove:     true, // remove intermediate containers after a successful build
	})
	if err != nil {
		return fmt.Errorf("failed to start image build for %q: %w", tag, err)
	}
	defer response.Body.Close()

	// the build response is a stream of newline-delimited JSON progress
	// events, same shape as an image pull. it must be drained to
	// completion before the image is guaranteed to exist on the daemon.
	// a failed build is reported inside the stream as an "error" event,
	// not as an error from ImageBuild itself.
	decoder := json.NewDecoder(response.Body)
	for {
		var event struct {
			Stream string `json:"stream"`
			Error  string `json:"error"`
		}
		if err := decoder.Decode(&event); err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("failed to stream image build response for %q: %w", tag, err)
		}
		if event.Error != "" {
			return fmt.Errorf("image build for %q failed: %s", tag, event.Error)
		}
		client.logger.Debug("image build progress", "tag", tag, "stream", event.Stream)
	}

	client.logger.Info("image built", "tag", tag)
	return nil
}

// tarDirectory walks dir and packages every regular file into an
// in-memory tar archive, the format the Docker daemon's build API
// expects as a build context.
func tarDirectory(dir string) (io.Reader, error) {
	var buffer bytes.Buffer
	writer := tar.NewWriter(&buffer)

	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relativePath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = relativePath

		if err := writer.WriteHeader(header); err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(writer, file)
		return err
	})
	if walkErr != nil {
		return nil, walkErr
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return &buffer, nil
}
