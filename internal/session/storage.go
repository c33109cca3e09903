package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/desertthunder/statspot/internal/shared"
)

// Well-known storage keys.
const (
	KeyVerifier = "pkce_verifier"
	KeyToken    = "spotify_token"
	KeyCookies  = "cookies"
)

// Storage is a per-profile string key/value store.
//
// Get returns [shared.ErrKeyNotFound] for a missing key. Delete of a missing key is not an error.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

var validKey = regexp.MustCompile(`^[a-z0-9_]+$`)

// FileStorage keeps each key in its own file inside a directory.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the profile directory (0700) if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

func (f *FileStorage) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("%w: storage key %q", shared.ErrInvalidInput, key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

// Get reads the value stored under key.
func (f *FileStorage) Get(key string) (string, error) {
	p, err := f.path(key)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), nil
}

// Set replaces the value under key with a single rename so readers never see a partial write.
func (f *FileStorage) Set(key, value string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (f *FileStorage) Delete(key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// MemoryStorage is a map-backed [Storage] for tests and ephemeral profiles.
type MemoryStorage struct {
	values map[string]string
}

// NewMemoryStorage returns an empty [MemoryStorage].
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: map[string]string{}}
}

func (m *MemoryStorage) Get(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}
	return v, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	delete(m.values, key)
	return nil
}

// Has reports whether key holds a value.
func (m *MemoryStorage) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}
