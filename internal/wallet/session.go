package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Session is a signed-in Stacks wallet session.
type Session struct {
	MainnetAddress string    `json:"mainnet_address"`
	TestnetAddress string    `json:"testnet_address"`
	SignedInAt     time.Time `json:"signed_in_at"`
}

// SessionStore persists the Stacks session so that signed-in status
// survives process restarts. Load returns nil, nil when nobody is signed in.
type SessionStore interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

var _ SessionStore = (*MemorySessionStore)(nil)

type MemorySessionStore struct {
	s  *Session
	mu sync.RWMutex
}

func (m *MemorySessionStore) Load() (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.s == nil {
		return nil, nil
	}
	s := *m.s
	return &s, nil
}

func (m *MemorySessionStore) Save(s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

var _ SessionStore = (*FileSessionStore)(nil)

// FileSessionStore keeps the session as a JSON document on disk.
type FileSessionStore struct {
	path string
	mu   sync.Mutex
}

func (f *FileSessionStore) Load() (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	s := &Session{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return s, nil
}

func (f *FileSessionStore) Save(s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	// Write then rename so a crash never leaves a half written session
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileSessionStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
