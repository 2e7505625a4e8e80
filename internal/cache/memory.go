package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize bounds a Memory store created with size <= 0.
const DefaultMemorySize = 128

// Memory is a process-local, thread-safe LRU store.
type Memory struct {
	entries *lru.Cache[string, []byte]
}

// NewMemory returns an LRU store holding at most size entries.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMemorySize
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, []byte](size)
	return &Memory{entries: entries}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	return m.entries.Get(key)
}

func (m *Memory) Set(key string, value []byte) error {
	m.entries.Add(key, value)
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	return m.entries.Len()
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.entries.Purge()
}
