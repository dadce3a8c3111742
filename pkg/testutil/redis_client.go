package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/geoplet/backend/pkg/xredis"
)

// MockRedisClient keeps values in memory unless a Func field overrides the
// method. Expiration is ignored.
type MockRedisClient struct {
	IncrWithTTLFunc func(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error)
	SetFunc         func(ctx context.Context, key, value string, ttl time.Duration) error
	SetObjFunc      func(ctx context.Context, key string, obj any, ttl time.Duration) error
	GetFunc         func(ctx context.Context, key string) (string, error)
	GetObjFunc      func(ctx context.Context, key string, v any) error

	mutex sync.Mutex
	data  map[string]string
}

func (m *MockRedisClient) store() map[string]string {
	if m.data == nil {
		m.data = make(map[string]string)
	}

	return m.data
}

func (m *MockRedisClient) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	if m.IncrWithTTLFunc != nil {
		return m.IncrWithTTLFunc(ctx, key, ttl)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	var n int64
	if v, ok := m.store()[key]; ok {
		if err := json.Unmarshal([]byte(v), &n); err != nil {
			return 0, 0, err
		}
	}

	n++
	b, _ := json.Marshal(n)
	m.store()[key] = string(b)
	return n, ttl, nil
}

func (m *MockRedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.store()[key] = value
	return nil
}

func (m *MockRedisClient) SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error {
	if m.SetObjFunc != nil {
		return m.SetObjFunc(ctx, key, obj, ttl)
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	return m.Set(ctx, key, string(b), ttl)
}

func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	v, ok := m.store()[key]
	if !ok {
		return "", xredis.ErrNotFound
	}

	return v, nil
}

func (m *MockRedisClient) GetObj(ctx context.Context, key string, v any) error {
	if m.GetObjFunc != nil {
		return m.GetObjFunc(ctx, key, v)
	}

	s, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(s), v)
}
