// Package sealed wraps credential persistence with at-rest encryption.
//
// Tokens written by the plain file store are readable by anything with the
// user's filesystem access. The sealed store encrypts the serialized
// credentials with a device-local random key using nacl/secretbox, so a
// copied credentials file is useless without the key file next to it.
package sealed

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/yomnaalset/elibrary-go-client/credentials"
)

const (
	blobFileName = "credentials.sealed"
	keyFileName  = "device.key"

	keySize   = 32
	nonceSize = 24
)

// Store is an encrypting credentials.Store backed by two files: the sealed
// blob and the device key. The key is generated on first use.
type Store struct {
	blobPath string
	key      [keySize]byte
	logger   zerolog.Logger
}

var _ credentials.Store = (*Store)(nil)

// New creates a sealed store rooted at dir, generating the device key file
// if one does not exist yet.
func New(dir string, logger zerolog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("[sealed.New] dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("[sealed.New] mkdir: %w", err)
	}

	key, err := loadOrCreateKey(filepath.Join(dir, keyFileName))
	if err != nil {
		return nil, err
	}

	s := &Store{
		blobPath: filepath.Join(dir, blobFileName),
		logger:   logger.With().Str("component", "sealedstore").Logger(),
	}
	copy(s.key[:], key)
	return s, nil
}

func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != keySize {
			return nil, fmt.Errorf("[sealed.loadOrCreateKey] key file has %d bytes, want %d", len(key), keySize)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("[sealed.loadOrCreateKey] read: %w", err)
	}

	key = make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("[sealed.loadOrCreateKey] rand.Read: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("[sealed.loadOrCreateKey] write: %w", err)
	}
	return key, nil
}

// Save merges creds over the stored entries and rewrites the sealed blob.
func (s *Store) Save(creds credentials.Credentials) error {
	existing, err := s.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable sealed blob")
		existing = credentials.Credentials{}
	}

	plaintext, err := json.Marshal(existing.Merge(creds))
	if err != nil {
		return fmt.Errorf("[sealed.Save] marshal: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("[sealed.Save] rand.Read: %w", err)
	}
	blob := secretbox.Seal(nonce[:], plaintext, &nonce, &s.key)

	tmp, err := os.CreateTemp(filepath.Dir(s.blobPath), blobFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("[sealed.Save] create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("[sealed.Save] write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("[sealed.Save] chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("[sealed.Save] close: %w", err)
	}
	if err := os.Rename(tmpName, s.blobPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("[sealed.Save] rename: %w", err)
	}
	return nil
}

// Load decrypts and returns the stored entries. A missing blob yields empty
// credentials; a blob sealed with a different key is an error.
func (s *Store) Load() (credentials.Credentials, error) {
	blob, err := os.ReadFile(s.blobPath)
	if os.IsNotExist(err) {
		return credentials.Credentials{}, nil
	}
	if err != nil {
		return credentials.Credentials{}, fmt.Errorf("[sealed.Load] read: %w", err)
	}
	if len(blob) < nonceSize {
		return credentials.Credentials{}, fmt.Errorf("[sealed.Load] blob too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], blob[:nonceSize])
	plaintext, ok := secretbox.Open(nil, blob[nonceSize:], &nonce, &s.key)
	if !ok {
		return credentials.Credentials{}, fmt.Errorf("[sealed.Load] decryption failed")
	}

	var creds credentials.Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return credentials.Credentials{}, fmt.Errorf("[sealed.Load] unmarshal: %w", err)
	}
	return creds, nil
}

// Clear removes the sealed blob. The device key is kept for future sessions.
func (s *Store) Clear() error {
	err := os.Remove(s.blobPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("[sealed.Clear] remove: %w", err)
	}
	return nil
}
