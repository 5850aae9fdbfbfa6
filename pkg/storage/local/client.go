package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/martinquesada/tienda-backend/pkg/config"
	"github.com/martinquesada/tienda-backend/pkg/logger"
)

// ErrNotFound is returned when no file exists for the requested key.
var ErrNotFound = errors.New("file not found")

// Client stores generated documents on the local filesystem under a base
// directory. Keys are relative paths; traversal outside the base is rejected.
type Client struct {
	baseDir string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient prepares the storage directory and verifies it is writable.
func NewClient(ctx context.Context, cfg config.InvoicesConfig, logg *logger.Logger) (*Client, error) {
	dir := strings.TrimSpace(cfg.StorageDir)
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}

	client := &Client{baseDir: abs}
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("storage health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "local storage client initialized")
	}
	return client, nil
}

// BaseDir reports the resolved storage root.
func (c *Client) BaseDir() string {
	if c == nil {
		return ""
	}
	return c.baseDir
}

// Save writes data under key, replacing any existing file. The write goes
// through a temp file and rename so readers never observe a partial file.
func (c *Client) Save(ctx context.Context, key string, data []byte) error {
	path, err := c.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating parent dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Read returns the contents stored under key.
func (c *Client) Read(ctx context.Context, key string) ([]byte, error) {
	path, err := c.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	return data, nil
}

// Exists reports whether a file is stored under key.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	path, err := c.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Ping verifies the base directory is writable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.baseDir == "" {
		return errors.New("storage client not initialized")
	}
	probe, err := os.CreateTemp(c.baseDir, ".probe-*")
	if err != nil {
		return fmt.Errorf("storage dir not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

func (c *Client) resolve(key string) (string, error) {
	if c == nil || c.baseDir == "" {
		return "", errors.New("storage client not initialized")
	}
	clean := filepath.Clean(strings.TrimSpace(key))
	if clean == "" || clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(c.baseDir, clean), nil
}
