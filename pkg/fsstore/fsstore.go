package fsstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrNotExist    = errors.New("resource_not_exist")
	ErrInvalidName = errors.New("invalid_resource_name")
)

// Store serializes access to named resources under a root directory.
// Writes go through a temp file and rename so readers never observe a
// partially written document.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(root string) *Store {
	return &Store{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}
}

// Root returns the directory the store operates under.
func (s *Store) Root() string {
	return s.root
}

// Lock acquires the mutex for a resource key and returns its release func.
// Keys are caller-defined, one per resource file or directory.
func (s *Store) Lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Path resolves a relative resource path against the store root.
func (s *Store) Path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Exists reports whether a resource path exists.
func (s *Store) Exists(rel string) bool {
	_, err := os.Stat(s.Path(rel))
	return err == nil
}

// ReadFile reads a resource file, translating absence into ErrNotExist.
func (s *Store) ReadFile(rel string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, rel)
		}
		return nil, err
	}
	return data, nil
}

// WriteFile writes a resource file atomically, creating parent directories.
func (s *Store) WriteFile(rel string, data []byte) error {
	path := s.Path(rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Remove deletes a single resource file.
func (s *Store) Remove(rel string) error {
	err := os.Remove(s.Path(rel))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotExist, rel)
	}
	return err
}

// RemoveAll deletes a resource directory recursively. Absence is an error so
// callers can surface not-found to their own clients.
func (s *Store) RemoveAll(rel string) error {
	path := s.Path(rel)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotExist, rel)
		}
		return err
	}
	return os.RemoveAll(path)
}

// ListDirs returns the names of directories directly under rel.
func (s *Store) ListDirs(rel string) ([]string, error) {
	entries, err := os.ReadDir(s.Path(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ListFiles returns the names of regular files directly under rel.
func (s *Store) ListFiles(rel string) ([]string, error) {
	entries, err := os.ReadDir(s.Path(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ValidName reports whether name is safe to use as a single path segment.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return true
}

// ReadJSON decodes a resource file into T.
func ReadJSON[T any](s *Store, rel string) (T, error) {
	var v T
	data, err := s.ReadFile(rel)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", rel, err)
	}
	return v, nil
}

// WriteJSON encodes v and writes it atomically.
func WriteJSON[T any](s *Store, rel string, v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return s.WriteFile(rel, data)
}
