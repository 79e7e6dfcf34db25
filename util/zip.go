// Package util holds small, stateless helpers shared by deploy and
// invoke: zip extraction, random identifiers, and name transforms.
// None of it depends on any other internal package.
package util

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractZip unpacks every entry of a ZIP archive read from r into
// destDir, preserving directory structure. Guards against zip-slip
// (an entry path like "../../etc/passwd" escaping destDir) by
// resolving each entry's cleaned path and rejecting anything that does
// not stay under destDir.
func ExtractZip(r *zip.Reader, destDir string) error {
	for _, entry := range r.File {
		if err := extractEntry(entry, destDir); err != nil {
			return fmt.Errorf("failed to extract %q: %w", entry.Name, err)
		}
	}
	return nil
}

func extractEntry(entry *zip.File, destDir string) error {
	targetPath := filepath.Join(destDir, entry.Name)

	// filepath.Join already cleans the result, but the explicit prefix
	// check below is what actually rejects a malicious entry; Join
	// alone would happily produce a path outside destDir for an entry
	// named "../../../etc/passwd".
	if !strings.HasPrefix(targetPath, filepath.Clean(destDir)+string(os.PathSeparator)) && targetPath != filepath.Clean(destDir) {
		return fmt.Errorf("illegal file path escapes destination: %q", entry.Name)
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(targetPath, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return err
	}

	reader, err := entry.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	outFile, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode())
	if err != nil {
		return err
	}
	defer outFile.Close()

	_, err = io.Copy(outFile, reader)
	return err
}

// FindConfigJSON walks dir looking for a file named "config.json",
// returning its full path. The bundle layout is an arbitrary tree, so
// config.json may be at the root or nested a few levels down.
func FindConfigJSON(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if found != "" {
			return filepath.SkipAll
		}
		if !d.IsDir() && d.Name() == "config.json" {
			found = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", os.ErrNotExist
	}
	return found, nil
}
