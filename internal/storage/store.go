// Package storage provides the key/value backends used for dismissed
// suggestions and rebalance history, and the yield snapshot log.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/menabung/rebalancer/internal/domain"
)

// Backend names accepted by the STORE_BACKEND setting.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ParseBackend validates a backend name. Empty means sqlite.
func ParseBackend(s string) (string, error) {
	switch s {
	case "":
		return BackendSQLite, nil
	case BackendSQLite, BackendRedis, BackendMemory:
		return s, nil
	}
	return "", fmt.Errorf("unknown store backend %q", s)
}

var (
	_ domain.KeyValueStore = (*MemoryStore)(nil)
	_ domain.KeyValueStore = (*SQLiteStore)(nil)
	_ domain.KeyValueStore = (*RedisStore)(nil)
)

// MemoryStore keeps values in process memory. Values are copied on the way
// in and out so callers cannot mutate stored bytes.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
