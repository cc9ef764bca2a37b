package testing

import (
	"context"
	"sync"

	"github.com/menabung/rebalancer/internal/domain"
)

var _ domain.KeyValueStore = (*MockKeyValueStore)(nil)

// MockKeyValueStore is an in-memory KeyValueStore with injectable errors and
// call counters.
type MockKeyValueStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	getErr   error
	setErr   error
	getCalls int
	setCalls int
}

// NewMockKeyValueStore creates an empty mock store
func NewMockKeyValueStore() *MockKeyValueStore {
	return &MockKeyValueStore{data: make(map[string][]byte)}
}

// SetGetError makes every Get fail with err (nil clears it)
func (m *MockKeyValueStore) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// SetSetError makes every Set fail with err (nil clears it)
func (m *MockKeyValueStore) SetSetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
}

// Put seeds a raw value, bypassing error injection
func (m *MockKeyValueStore) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// GetCalls returns how many times Get was called
func (m *MockKeyValueStore) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

// SetCalls returns how many times Set was called
func (m *MockKeyValueStore) SetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setCalls
}

func (m *MockKeyValueStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MockKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *MockKeyValueStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
