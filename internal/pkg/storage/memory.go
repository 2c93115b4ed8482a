package storage

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sync"
	"time"
)

// Memory is an in-process Storage used by tests and local runs.
type Memory struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory returns an empty store whose presigned URLs start with baseURL.
func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: baseURL, objects: make(map[string][]byte)}
}

// PutObject reads r fully and stores it.
func (m *Memory) PutObject(ctx context.Context, bucket, key string, r io.Reader, _ PutOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return ObjectInfo{}, err
	}

	m.mu.Lock()
	m.objects[bucket+"/"+key] = buf.Bytes()
	m.mu.Unlock()

	return ObjectInfo{Bucket: bucket, Key: key, Size: n}, nil
}

// DeleteObject drops the object if present.
func (m *Memory) DeleteObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	delete(m.objects, bucket+"/"+key)
	m.mu.Unlock()
	return nil
}

// PresignGet returns baseURL/bucket/key with an expiry query.
func (m *Memory) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[bucket+"/"+key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrObjectNotFound
	}

	return m.baseURL + bucket + "/" + url.PathEscape(key) + "?expires=" + expiry.String(), nil
}

// Object returns the stored bytes for bucket/key.
func (m *Memory) Object(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[bucket+"/"+key]
	return b, ok
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
