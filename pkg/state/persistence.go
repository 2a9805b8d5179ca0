package state

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabrielmiguelok/commentkit/pkg/comment"
	"github.com/gabrielmiguelok/commentkit/pkg/logging"
)

// PersistKey is the fixed durable key holding the partial widget state.
const PersistKey = "commentkit:widget"

// CacheKey is the durable key holding the last-seen comment snapshot.
const CacheKey = "commentkit:cache"

// ErrKeyNotFound reports a missing storage key.
var ErrKeyNotFound = errors.New("key not found")

// Storage is a durable key-value backend.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// MemoryStorage is an in-process Storage, the default backend.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// FileStorage persists each key as a file under a directory.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the directory if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStorage{dir: dir}, nil
}

func (f *FileStorage) path(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key)
	return filepath.Join(f.dir, name+".dat")
}

func (f *FileStorage) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	return data, err
}

func (f *FileStorage) Set(key string, value []byte) error {
	return os.WriteFile(f.path(key), value, 0o644)
}

func (f *FileStorage) Delete(key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// persisted is the partial state written to durable storage: only the
// theme, plus the user blob when one is present.
type persisted struct {
	Theme string         `json:"theme"`
	User  map[string]any `json:"user,omitempty"`
}

// SaveToStorage writes {theme, user?} as JSON under the fixed key.
func (s *Store) SaveToStorage() error {
	p := persisted{Theme: s.Theme()}
	if u, ok := s.Get(KeyUser).(map[string]any); ok && len(u) > 0 {
		p.User = u
	}

	data, err := NewJSONSerializer().Marshal(p)
	if err != nil {
		return err
	}
	return s.storage.Set(s.storageKey, data)
}

// LoadFromStorage merges the persisted partial state back in. Missing or
// malformed data is logged and ignored; state is never corrupted by a bad
// payload.
func (s *Store) LoadFromStorage() {
	data, err := s.storage.Get(s.storageKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("state load failed", logging.Err(err))
		}
		return
	}

	var p persisted
	if err := NewJSONSerializer().Unmarshal(data, &p); err != nil {
		s.logger.Warn("ignoring malformed persisted state", logging.Err(err))
		return
	}

	partial := make(map[string]any)
	if p.Theme != "" {
		partial[KeyTheme] = p.Theme
	}
	if len(p.User) > 0 {
		partial[KeyUser] = p.User
	}
	if len(partial) > 0 {
		s.Set(partial)
	}
}

// cachePayload is the comment snapshot cached between page loads so a
// revisit can paint before the first fetch completes.
type cachePayload struct {
	Comments   []*comment.Comment `msgpack:"comments"`
	Pagination comment.Pagination `msgpack:"pagination"`
	Theme      string             `msgpack:"theme"`
	SavedAt    time.Time          `msgpack:"saved_at"`
}

// SaveCache writes the current comments and pagination as MessagePack.
func (s *Store) SaveCache() error {
	payload := cachePayload{
		Comments:   s.Comments(),
		Pagination: s.Pagination(),
		Theme:      s.Theme(),
		SavedAt:    time.Now(),
	}
	data, err := NewMsgPackSerializer().Marshal(payload)
	if err != nil {
		return err
	}
	return s.storage.Set(CacheKey, data)
}

// LoadCache restores a cached comment snapshot if one parses; it reports
// whether anything was restored. Corrupt cache data is discarded.
func (s *Store) LoadCache() bool {
	data, err := s.storage.Get(CacheKey)
	if err != nil {
		return false
	}

	var payload cachePayload
	if err := NewMsgPackSerializer().Unmarshal(data, &payload); err != nil {
		s.logger.Warn("discarding corrupt state cache", logging.Err(err))
		s.storage.Delete(CacheKey)
		return false
	}

	partial := map[string]any{
		KeyComments:   payload.Comments,
		KeyPagination: payload.Pagination,
	}
	if payload.Theme != "" {
		partial[KeyTheme] = payload.Theme
	}
	s.Set(partial)
	return true
}
