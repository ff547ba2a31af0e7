// Package file stores the registry as a single JSON array on disk.
//
// Every append rewrites the whole collection, but through a temp file that is
// fsynced and renamed over the original, so a crash or a concurrent reader
// sees either the old collection or the new one, never a torn write.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"regdesk/internal/registration/models"
	"regdesk/pkg/platform/sentinel"
)

// Store is a single-writer JSON file registry. Only one Store per path
// should exist per process; the mutex does not coordinate across processes.
type Store struct {
	mu   sync.RWMutex
	path string
}

// Open prepares the file at path. A missing file is initialized to an empty
// collection; an existing file must decode, otherwise Open reports it
// instead of starting over.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.write(nil); err != nil {
			return nil, fmt.Errorf("initialize registry file: %w", err)
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("stat registry file: %w: %w", sentinel.ErrUnavailable, err)
	}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Lookup(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, err := s.read()
	if err != nil {
		return false, err
	}
	key := models.UsernameKey(username)
	for _, r := range records {
		if r.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

// Append re-reads the file, checks the key and writes the grown collection,
// all under the write lock.
func (s *Store) Append(_ context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	key := record.Key()
	for _, r := range records {
		if r.Key() == key {
			return fmt.Errorf("append %q: %w", record.Username, sentinel.ErrAlreadyUsed)
		}
	}
	if err := s.write(append(records, record)); err != nil {
		return fmt.Errorf("append %q: %w", record.Username, err)
	}
	return nil
}

func (s *Store) ListAll(_ context.Context) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

// Ping verifies the file is still readable and well-formed.
func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := s.read()
	return err
}

func (s *Store) Close() error { return nil }

func (s *Store) read() ([]*models.Record, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w: %w", sentinel.ErrUnavailable, err)
	}
	var records []*models.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode registry file %s: %w: %w", s.path, sentinel.ErrCorrupt, err)
	}
	for i, r := range records {
		if r == nil || r.Username == "" {
			return nil, fmt.Errorf("decode registry file %s: entry %d has no username: %w", s.path, i, sentinel.ErrCorrupt)
		}
	}
	return records, nil
}

func (s *Store) write(records []*models.Record) error {
	if records == nil {
		records = []*models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w: %w", sentinel.ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w: %w", sentinel.ErrUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w: %w", sentinel.ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w: %w", sentinel.ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace registry file: %w: %w", sentinel.ErrUnavailable, err)
	}
	committed = true
	return nil
}
