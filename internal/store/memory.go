package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process KV used in tests and as a degraded fallback
// when no database path is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	values  map[string]string
	expires map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  map[string]string{},
		expires: map[string]time.Time{},
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	v, ok := s.values[key]
	exp, hasExp := s.expires[key]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if hasExp && time.Now().After(exp) {
		s.mu.Lock()
		delete(s.values, key)
		delete(s.expires, key)
		s.mu.Unlock()
		return "", false, nil
	}
	return v, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	if ttl != 0 {
		s.expires[key] = time.Now().Add(ttl)
	} else {
		delete(s.expires, key)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	delete(s.expires, key)
	return nil
}

func (s *MemoryStore) ListKeysByPrefix(_ context.Context, prefix string) ([]string, error) {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.values {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if exp, ok := s.expires[k]; ok && now.After(exp) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
