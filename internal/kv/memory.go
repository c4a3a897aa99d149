// README: In-memory kv store for tests and the simulator.
package kv

import (
	"context"
	"errors"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
	lists map[string][][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string][]byte),
		lists: make(map[string][][]byte),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.items[key] = v
	return nil
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *MemoryStore) LPush(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.lists[key] = append([][]byte{v}, s.lists[key]...)
	return nil
}

func (s *MemoryStore) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return nil, nil
	}
	out := make([][]byte, 0, stop-start+1)
	for _, v := range list[start : stop+1] {
		b := make([]byte, len(v))
		copy(b, v)
		out = append(out, b)
	}
	return out, nil
}

func (s *MemoryStore) LSet(_ context.Context, key string, index int64, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.lists[key]
	if index < 0 {
		index += int64(len(list))
	}
	if index < 0 || index >= int64(len(list)) {
		return errors.New("kv: index out of range")
	}
	v := make([]byte, len(value))
	copy(v, value)
	list[index] = v
	return nil
}
