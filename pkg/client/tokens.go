package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/domain"
)

const tokenKeyPrefix = "sb-"

// TokenKey is the storage key of the session for projectID.
func TokenKey(projectID string) string {
	return tokenKeyPrefix + projectID + "-auth-token"
}

// TokenStore persists the session between runs. Load returns nil without
// error when nothing is stored. Clear drops every session entry, not only
// the current project's.
type TokenStore interface {
	Load() (*domain.Session, error)
	Save(session *domain.Session) error
	Clear() error
}

func encodeSession(session *domain.Session) ([]byte, error) {
	return json.Marshal(dto.SessionResponse{
		AccessToken: session.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   session.ExpiresAt.Unix(),
	})
}

func decodeSession(raw []byte) (*domain.Session, error) {
	var stored dto.SessionResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode stored session: %w", err)
	}
	if stored.AccessToken == "" {
		return nil, nil
	}
	return stored.ToDomain(), nil
}

// MemoryTokenStore keeps entries in a map keyed like browser storage.
type MemoryTokenStore struct {
	mu      sync.Mutex
	key     string
	entries map[string][]byte
}

// NewMemoryTokenStore returns an empty store for projectID.
func NewMemoryTokenStore(projectID string) *MemoryTokenStore {
	return &MemoryTokenStore{key: TokenKey(projectID), entries: map[string][]byte{}}
}

func (m *MemoryTokenStore) Load() (*domain.Session, error) {
	m.mu.Lock()
	raw, ok := m.entries[m.key]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeSession(raw)
}

func (m *MemoryTokenStore) Save(session *domain.Session) error {
	raw, err := encodeSession(session)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.key] = raw
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, tokenKeyPrefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// FileTokenStore keeps one file per key inside dir.
type FileTokenStore struct {
	dir string
	key string
}

// NewFileTokenStore stores sessions under dir. An empty dir resolves to
// the user config directory.
func NewFileTokenStore(dir, projectID string) (*FileTokenStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve token dir: %w", err)
		}
		dir = filepath.Join(base, "reclamos")
	}
	return &FileTokenStore{dir: dir, key: TokenKey(projectID)}, nil
}

func (f *FileTokenStore) path() string {
	return filepath.Join(f.dir, f.key)
}

func (f *FileTokenStore) Load() (*domain.Session, error) {
	raw, err := os.ReadFile(f.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return decodeSession(raw)
}

func (f *FileTokenStore) Save(session *domain.Session) error {
	raw, err := encodeSession(session)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	return os.WriteFile(f.path(), raw, 0o600)
}

func (f *FileTokenStore) Clear() error {
	matches, err := filepath.Glob(filepath.Join(f.dir, tokenKeyPrefix+"*"))
	if err != nil {
		return err
	}
	var errs []error
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
