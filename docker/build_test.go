package docker

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestTarDirectoryPackagesFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch"), 0o644); err != nil {
		t.Fatalf("failed to write Dockerfile: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("failed to create nested dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatalf("failed to write nested/main.go: %v", err)
	}

	reader, err := tarDirectory(dir)
	if err != nil {
		t.Fatalf("tarDirectory returned error: %v", err)
	}

	tarReader := tar.NewReader(reader)
	found := map[string]string{}
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read tar entry: %v", err)
		}
		content, err := io.ReadAll(tarReader)
		if err != nil {
			t.Fatalf("failed to read tar entry content: %v", err)
		}
		found[header.Name] = string(content)
	}

	if found["Dockerfile"] != "FROM scratch" {
		t.Errorf("tar entry Dockerfile = %q, want %q", found["Dockerfile"], "FROM scratch")
	}
	if found[filepath.Join("nested", "main.go")] != "package main" {
		t.Errorf("tar entry nested/main.go = %q, want %q", found[filepath.Join("nested", "main.go")], "package main")
	}
}
