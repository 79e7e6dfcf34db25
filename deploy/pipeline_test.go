package deploy

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/corvus-faas/control-plane/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range files {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %q: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry %q: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

// newTestPipeline builds a Pipeline whose catalog/docker dependencies
// are never reached, since every test below exercises a validation
// failure that returns before step 6 (image build).
func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return NewPipeline(nil, nil, testLogger(), Config{LogRoot: t.TempDir(), DefaultRuntime: "go"})
}

func TestDeployRejectsMalformedZip(t *testing.T) {
	pipeline := newTestPipeline(t)

	bundle := models.DeployableBundle{
		Name:     "hello",
		Content:  []byte("this is not a zip file"),
		UserUUID: "user-uuid",
	}

	_, err := pipeline.Deploy(context.Background(), bundle)

	var badFunction *BadFunctionError
	if !errors.As(err, &badFunction) {
		t.Fatalf("Deploy() error = %v, want a *BadFunctionError", err)
	}
	if badFunction.Reason != "zip malformed" {
		t.Fatalf("Reason = %q, want %q", badFunction.Reason, "zip malformed")
	}
}

func TestDeployRejectsMissingConfigJSON(t *testing.T) {
	pipeline := newTestPipeline(t)

	bundle := models.DeployableBundle{
		Name:     "hello",
		Content:  buildZip(t, map[string]string{"main.go": "package main"}),
		UserUUID: "user-uuid",
	}

	_, err := pipeline.Deploy(context.Background(), bundle)

	var badFunction *BadFunctionError
	if !errors.As(err, &badFunction) {
		t.Fatalf("Deploy() error = %v, want a *BadFunctionError", err)
	}
	if badFunction.Reason != "function does not include config file" {
		t.Fatalf("Reason = %q, want %q", badFunction.Reason, "function does not include config file")
	}
}

func TestDeployRejectsMissingEnv(t *testing.T) {
	pipeline := newTestPipeline(t)

	bundle := models.DeployableBundle{
		Name:     "hello",
		Content:  buildZip(t, map[string]string{"config.json": `{"function_name":"hello","runtime":"go"}`}),
		UserUUID: "user-uuid",
	}

	_, err := pipeline.Deploy(context.Background(), bundle)

	var badFunction *BadFunctionError
	if !errors.As(err, &badFunction) {
		t.Fatalf("Deploy() error = %v, want a *BadFunctionError", err)
	}
	if badFunction.Reason != "missing environment configuration" {
		t.Fatalf("Reason = %q, want %q", badFunction.Reason, "missing environment configuration")
	}
}

func TestRenderDockerfileEmbedsEnv(t *testing.T) {
	dockerfile := renderDockerfile(map[string]string{"FOO": "bar"})
	if !bytes.Contains([]byte(dockerfile), []byte(`ENV FOO="bar"`)) {
		t.Fatalf("renderDockerfile output missing ENV line: %s", dockerfile)
	}
	if !bytes.Contains([]byte(dockerfile), []byte("EXPOSE 8080")) {
		t.Fatalf("renderDockerfile output missing EXPOSE directive: %s", dockerfile)
	}
}
