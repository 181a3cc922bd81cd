package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Cache. Events are kept so callers can observe the
// invalidation signal.
type Memory struct {
	mu     sync.Mutex
	items  map[string][]byte
	tags   map[string]map[string]struct{}
	Events []InvalidationEvent
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string][]byte),
		tags:  make(map[string]map[string]struct{}),
	}
}

func (m *Memory) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	m.mu.Lock()
	b, ok := m.items[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, tags ...string) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = b
	for _, tag := range append(tags, TagAll) {
		set, ok := m.tags[tag]
		if !ok {
			set = make(map[string]struct{})
			m.tags[tag] = set
		}
		set[key] = struct{}{}
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, tags ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tag := range tags {
		for key := range m.tags[tag] {
			delete(m.items, key)
		}
		delete(m.tags, tag)
	}
	m.Events = append(m.Events, InvalidationEvent{ID: uuid.NewString(), Tags: tags, At: time.Now()})
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
