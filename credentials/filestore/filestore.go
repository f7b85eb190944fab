// Package filestore persists credentials as a JSON file on local disk,
// the Go stand-in for a device key-value store.
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/yomnaalset/elibrary-go-client/credentials"
)

const fileName = "credentials.json"

// Store is a file-backed credentials.Store. Writes go through a temp file
// and rename so readers never observe a partially written blob.
type Store struct {
	path   string
	logger zerolog.Logger
}

var _ credentials.Store = (*Store)(nil)

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, logger zerolog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("[filestore.New] dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("[filestore.New] mkdir: %w", err)
	}
	return &Store{
		path:   filepath.Join(dir, fileName),
		logger: logger.With().Str("component", "filestore").Logger(),
	}, nil
}

// Save merges creds over the currently persisted entries and rewrites the
// file atomically.
func (s *Store) Save(creds credentials.Credentials) error {
	existing, err := s.Load()
	if err != nil {
		// A corrupt file should not make new credentials unsaveable.
		s.logger.Warn().Err(err).Msg("discarding unreadable credentials file")
		existing = credentials.Credentials{}
	}

	merged := existing.Merge(creds)
	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("[filestore.Save] marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("[filestore.Save] create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("[filestore.Save] write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("[filestore.Save] chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("[filestore.Save] close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("[filestore.Save] rename: %w", err)
	}
	return nil
}

// Load reads the persisted entries. A missing file yields empty credentials.
func (s *Store) Load() (credentials.Credentials, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return credentials.Credentials{}, nil
	}
	if err != nil {
		return credentials.Credentials{}, fmt.Errorf("[filestore.Load] read: %w", err)
	}

	var creds credentials.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return credentials.Credentials{}, fmt.Errorf("[filestore.Load] unmarshal: %w", err)
	}
	return creds, nil
}

// Clear removes the credentials file. Removal is atomic at the filesystem
// level, so no partial state is observable.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("[filestore.Clear] remove: %w", err)
	}
	return nil
}
