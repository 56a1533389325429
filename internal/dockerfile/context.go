package dockerfile

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ContextTar packages contextDir as a tar stream for the legacy daemon
// build path. When dockerfile is non-nil it is injected as "Dockerfile" at
// the archive root, shadowing any file of the same name in the directory.
//
// Version control metadata (.git) and symlinks are skipped: the daemon
// cannot follow host symlinks, and the repository history never belongs in
// an image.
func ContextTar(contextDir string, dockerfile []byte) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	if dockerfile != nil {
		hdr := &tar.Header{
			Name: "Dockerfile",
			Mode: 0o644,
			Size: int64(len(dockerfile)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("build context: writing Dockerfile header: %w", err)
		}
		if _, err := tw.Write(dockerfile); err != nil {
			return nil, fmt.Errorf("build context: writing Dockerfile: %w", err)
		}
	}

	err := filepath.WalkDir(contextDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(contextDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil // symlinks, devices, sockets
		}
		if dockerfile != nil && rel == "Dockerfile" {
			return nil // shadowed by the injected recipe
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("adding %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("build context: closing archive: %w", err)
	}
	return &buf, nil
}

// WriteContextDir materialises a generated Dockerfile into dir for the
// BuildKit path, which mounts directories instead of reading a tar stream.
// The returned path is the Dockerfile location inside dir.
func WriteContextDir(dir string, dockerfile []byte) (string, error) {
	path := filepath.Join(dir, "Dockerfile")
	if err := os.WriteFile(path, dockerfile, 0o644); err != nil {
		return "", fmt.Errorf("build context: writing Dockerfile: %w", err)
	}
	return path, nil
}

// ResolveDockerfilePath resolves a configured Dockerfile path against the
// work dir and reports the build context's relative name for the daemon.
func ResolveDockerfilePath(workDir, dockerfile string) string {
	if dockerfile == "" || filepath.IsAbs(dockerfile) {
		return dockerfile
	}
	return filepath.Join(workDir, dockerfile)
}

// IsSubPath reports whether path is inside dir after cleaning.
func IsSubPath(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
