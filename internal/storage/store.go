// Package storage provides the durable keyed store the metering core
// persists through: JSON values under string keys, with get, set, prefix
// scan and change subscription.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrKeyNotFound is returned by Get for keys that were never set.
var ErrKeyNotFound = errors.New("storage: key not found")

// Event notifies a Watch subscriber that a key changed.
type Event struct {
	Key string
}

// DurableStore persists JSON-serializable values under string keys.
type DurableStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Watch(ctx context.Context, prefix string) (<-chan Event, error)
}

// MemoryStore is an in-process DurableStore for tests and ephemeral runs.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string][]byte
	watchers []memoryWatcher
}

type memoryWatcher struct {
	prefix string
	ch     chan Event
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	// Sends stay under s.mu so a cancelled Watch cannot close a channel
	// mid-send. The sends never block: they drop instead.
	for _, w := range s.watchers {
		if !hasPrefix(key, w.prefix) {
			continue
		}
		select {
		case w.ch <- Event{Key: key}:
		default: // slow subscriber, drop rather than block Set
		}
	}
	return nil
}

func (s *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key := range s.values {
		if hasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Watch(ctx context.Context, prefix string) (<-chan Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := make(chan Event, 16)
	s.mu.Lock()
	s.watchers = append(s.watchers, memoryWatcher{prefix: prefix, ch: ch})
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		for i, w := range s.watchers {
			if w.ch == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		// Closed while holding s.mu: Set sends under the same lock, so
		// no send can race this close.
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

func hasPrefix(key, prefix string) bool {
	return prefix == "" || (len(key) >= len(prefix) && key[:len(prefix)] == prefix)
}

var _ DurableStore = (*MemoryStore)(nil)
