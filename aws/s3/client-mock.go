package s3

import (
	"context"
	"io"
	"io/ioutil"
	"sort"
	"strings"
	"sync"
)

// MemoryClient is an in-memory Client used by tests and mock connections.
type MemoryClient struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	// FailKeys makes Put and Upload fail for matching keys.
	FailKeys map[string]error
	Puts     int
}

func NewMemoryClient(bucket string) *MemoryClient {
	return &MemoryClient{bucket: bucket, objects: make(map[string][]byte), FailKeys: make(map[string]error)}
}

func (m *MemoryClient) Bucket() string {
	return m.bucket
}

func (m *MemoryClient) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0)
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryClient) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.objects[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return d, nil
}

func (m *MemoryClient) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailKeys[key]; ok {
		return err
	}
	m.Puts++
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryClient) Upload(ctx context.Context, key string, body io.Reader) error {
	data, err := ioutil.ReadAll(body)
	if err != nil {
		return err
	}
	return m.Put(ctx, key, data)
}

func (m *MemoryClient) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *MemoryClient) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	return (&client{BasicClient: m}).DeletePrefix(ctx, prefix)
}

func (m *MemoryClient) Missing(ctx context.Context, keys []string) ([]string, error) {
	return (&client{BasicClient: m}).Missing(ctx, keys)
}
