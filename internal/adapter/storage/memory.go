package storage

import (
	"context"
	"fmt"
	"sync"

	"tuichain-backend/internal/domain/document"
)

type Object struct {
	Body        []byte
	ContentType string
}

// Memory keeps uploaded objects in process. URLs it returns are not
// dereferenceable outside the process.
type Memory struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

var _ document.BlobStore = (*Memory)(nil)

func NewMemory(baseURL string) *Memory {
	if baseURL == "" {
		baseURL = "mem://documents"
	}
	return &Memory{baseURL: baseURL, objects: make(map[string]Object)}
}

func (m *Memory) Store(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Body: append([]byte(nil), body...), ContentType: contentType}
	return m.baseURL + "/" + key, nil
}

func (m *Memory) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o, ok
}
