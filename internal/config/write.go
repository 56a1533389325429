package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// WriteOptions controls how WriteConfig persists a Config.
//
// Safe controls overwrite behavior:
//   - false: create or overwrite (truncate) the target file.
//   - true: create only; return an error if the target already exists.
type WriteOptions struct {
	Path string
	Safe bool
}

// WriteConfig marshals cfg to YAML and writes it atomically: the bytes go
// to a temp file in the target directory, are fsynced, and are renamed over
// the target. Concurrent writers are serialized by an advisory file lock.
func WriteConfig(cfg *Config, opts WriteOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("write config: path is required")
	}

	return withFileLock(opts.Path, func() error {
		if opts.Safe {
			if _, err := os.Stat(opts.Path); err == nil {
				return fmt.Errorf("config file already exists: %s", opts.Path)
			}
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshalling config: %w", err)
		}

		return atomicWrite(opts.Path, data, 0o644)
	})
}

// atomicWrite writes data to path via a temp file + fsync + rename so a
// crash mid-write never leaves a truncated config behind.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// withFileLock acquires an advisory file lock on path+".lock" before
// running fn, retrying every 100ms up to a 10s deadline.
func withFileLock(path string, fn func() error) error {
	fl := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquiring file lock for %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("timed out acquiring file lock for %s", path)
	}
	defer func() { _ = fl.Unlock() }()

	return fn()
}
