package client

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// SessionStorage persists the session record between runs, playing the role
// browser local storage played for the original site script.
type SessionStorage interface {
	Load() (*SessionRecord, error)
	Save(SessionRecord) error
}

// ErrNoSession is returned by Load when no record has been stored yet.
var ErrNoSession = errors.New("no stored session")

// FileStorage keeps the session record as a small JSON file.
type FileStorage struct {
	Path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

func (f *FileStorage) Load() (*SessionRecord, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt record is treated as absent; a fresh session replaces it.
		return nil, ErrNoSession
	}
	return &rec, nil
}

func (f *FileStorage) Save(rec SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

// MemoryStorage holds the record in process memory for the lifetime of the
// process. Used in tests and wherever no durable location is available.
type MemoryStorage struct {
	mu  sync.Mutex
	rec *SessionRecord
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() (*SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, ErrNoSession
	}
	cp := *m.rec
	return &cp, nil
}

func (m *MemoryStorage) Save(rec SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
	return nil
}
