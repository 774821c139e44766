// Package docstore holds the answer corpus: a directory of markdown files
// mapped by document name. It is the only component that touches disk; the
// index re-reads it on every rebuild, so there is no other persistence.
package docstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DocExt is the only file extension accepted into the corpus.
const DocExt = ".md"

var (
	// ErrInvalidName indicates a document name that could escape the corpus
	// directory or carries the wrong extension.
	ErrInvalidName = errors.New("invalid document name")

	// ErrNotFound indicates the named document does not exist.
	ErrNotFound = errors.New("document not found")
)

// Store is a filesystem-backed document corpus.
// All access goes through os.Root so document names cannot traverse out of
// the corpus directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a Store over the given directory, creating it if missing.
func New(dir string, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving docs directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("creating docs directory: %w", err)
	}
	return &Store{dir: abs, logger: logger}, nil
}

// Dir returns the absolute corpus directory.
func (s *Store) Dir() string { return s.dir }

// List returns the names of all corpus documents in lexicographic order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading docs directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), DocExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the raw text of one document.
func (s *Store) Read(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	root, err := os.OpenRoot(s.dir)
	if err != nil {
		return "", fmt.Errorf("opening docs root: %w", err)
	}
	defer func() {
		_ = root.Close()
	}()

	data, err := root.ReadFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("reading document %s: %w", name, err)
	}
	return string(data), nil
}

// Write stores raw document bytes under the given name, replacing any
// existing document. The caller is responsible for triggering a reindex.
func (s *Store) Write(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	root, err := os.OpenRoot(s.dir)
	if err != nil {
		return fmt.Errorf("opening docs root: %w", err)
	}
	defer func() {
		_ = root.Close()
	}()

	if err := root.WriteFile(name, data, 0o640); err != nil {
		return fmt.Errorf("writing document %s: %w", name, err)
	}

	s.logger.Info("document stored", "name", name, "bytes", len(data))
	return nil
}

// validateName rejects names with path separators or the wrong extension.
// os.Root already blocks traversal; this keeps error messages friendly and
// the corpus homogeneous.
func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.HasSuffix(name, DocExt) {
		return fmt.Errorf("%w: %q must end in %s", ErrInvalidName, name, DocExt)
	}
	return nil
}
