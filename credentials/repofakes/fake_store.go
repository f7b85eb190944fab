package repofakes

import (
	"sync"

	"github.com/yomnaalset/elibrary-go-client/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store for tests, with optional
// failure injection.
type FakeStore struct {
	lock  sync.RWMutex
	creds credentials.Credentials

	SaveErr  error
	LoadErr  error
	ClearErr error

	saveCalls  int
	clearCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (s *FakeStore) Save(creds credentials.Credentials) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.saveCalls++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.creds = s.creds.Merge(creds)
	return nil
}

func (s *FakeStore) Load() (credentials.Credentials, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.LoadErr != nil {
		return credentials.Credentials{}, s.LoadErr
	}
	return s.creds, nil
}

func (s *FakeStore) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.clearCalls++
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.creds = credentials.Credentials{}
	return nil
}

// Stored returns the current in-memory credentials for assertions.
func (s *FakeStore) Stored() credentials.Credentials {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.creds
}

// SaveCalls returns how many times Save was invoked.
func (s *FakeStore) SaveCalls() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.saveCalls
}

// ClearCalls returns how many times Clear was invoked.
func (s *FakeStore) ClearCalls() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.clearCalls
}
