package docstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store keeping documents in a mutex-guarded map.
// It backs the test suites and serves as a dependency-free dev store.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]json.RawMessage)}
}

func (m *Memory) collection(name string) map[string]json.RawMessage {
	col, ok := m.collections[name]
	if !ok {
		col = make(map[string]json.RawMessage)
		m.collections[name] = col
	}
	return col
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: data}, nil
}

func (m *Memory) Find(_ context.Context, collection string, match func(Document) bool) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []Document
	for id, data := range m.collections[collection] {
		doc := Document{ID: id, Data: data}
		if match == nil || match(doc) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *Memory) Set(_ context.Context, collection, id string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(collection)[id] = data
	return nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}

	merged, err := mergeFields(data, fields)
	if err != nil {
		return err
	}
	m.collections[collection][id] = merged
	return nil
}

func (m *Memory) Add(_ context.Context, collection string, doc interface{}) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(collection)[id] = data
	return id, nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.collections[collection], id)
	return nil
}

func (m *Memory) Mutate(_ context.Context, collection, id string, fn func(data json.RawMessage) (interface{}, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}

	next, err := fn(data)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(next)
	if err != nil {
		return err
	}
	m.collections[collection][id] = encoded
	return nil
}

// mergeFields applies a top-level partial update to a stored JSON payload.
func mergeFields(data json.RawMessage, fields map[string]interface{}) (json.RawMessage, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for k, v := range fields {
		doc[k] = v
	}
	return json.Marshal(doc)
}
