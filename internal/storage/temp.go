// Package storage owns the process-wide scratch directory for download
// artifacts: per-request unique paths, lookup of finished files, and
// best-effort cleanup once an artifact has been served.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ytfetch/internal/domain"
)

// Manager allocates and releases temporary artifacts under a single root
// directory shared by all requests. Uniqueness of names is the only
// cross-request concern; it is handled by per-request tokens baked into
// filenames, not by locking.
type Manager struct {
	root   string
	logger *logrus.Logger
}

func NewManager(root string, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{root: root, logger: logger}
}

// Root returns the scratch root directory.
func (m *Manager) Root() string { return m.root }

// EnsureRoot creates the scratch root if absent. Idempotent; called at
// startup and again after every full cleanup.
func (m *Manager) EnsureRoot() error {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("create scratch root: %w", err)
	}
	return nil
}

// AllocateBatchDir creates a unique working subdirectory for a batch request.
// The creation timestamp keeps concurrent batches with the same sanitized
// title apart.
func (m *Manager) AllocateBatchDir(stem string) (string, error) {
	dir := filepath.Join(m.root, fmt.Sprintf("%s_%d", Sanitize(stem), time.Now().UnixMilli()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create batch workdir: %w", err)
	}
	return dir, nil
}

// Locate finds the single artifact whose name begins with the sanitized stem.
// Zero matches or an ambiguous prefix yield domain.ErrNotFound; callers that
// hold a request token qualify the stem with it and always match exactly one.
func (m *Manager) Locate(stem string) (string, error) {
	stem = Sanitize(stem)
	if stem == "" {
		return "", domain.ErrNotFound
	}

	entries, err := os.ReadDir(m.root)
	if err != nil {
		return "", fmt.Errorf("read scratch root: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), stem) {
			matches = append(matches, entry.Name())
		}
	}

	switch len(matches) {
	case 0:
		return "", domain.ErrNotFound
	case 1:
		return filepath.Join(m.root, matches[0]), nil
	default:
		m.logger.Warnf("ambiguous artifact lookup for %q: %d matches", stem, len(matches))
		return "", domain.ErrNotFound
	}
}

// Release deletes an artifact file or working directory. Cleanup is
// best-effort: failures are logged, never propagated, so a request that
// already succeeded from the client's perspective cannot be failed by it.
func (m *Manager) Release(path string) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		m.logger.Warnf("release %s: %v", path, err)
	}
}

// ReleaseByPrefix deletes every entry whose name starts with the sanitized
// prefix, including partial files left behind by an interrupted run.
func (m *Manager) ReleaseByPrefix(prefix string) {
	prefix = Sanitize(prefix)
	if prefix == "" {
		return
	}
	entries, err := os.ReadDir(m.root)
	if err != nil {
		m.logger.Warnf("read scratch root: %v", err)
		return
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) {
			m.Release(filepath.Join(m.root, entry.Name()))
		}
	}
}

// Cleanup removes the entire scratch root and re-creates it empty.
func (m *Manager) Cleanup() error {
	if err := os.RemoveAll(m.root); err != nil {
		m.logger.Warnf("cleanup scratch root: %v", err)
	}
	return m.EnsureRoot()
}
