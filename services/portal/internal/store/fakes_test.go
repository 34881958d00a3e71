package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"vietbuild/pkg/domain"
	"vietbuild/pkg/localstore"
)

type memRecords struct {
	mu         sync.Mutex
	data       map[string][]byte
	puts       int
	failPut    bool
	failDelete bool
}

func newMemRecords() *memRecords {
	return &memRecords{data: make(map[string][]byte)}
}

func (m *memRecords) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, localstore.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memRecords) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return errors.New("disk full")
	}
	m.puts++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memRecords) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return errors.New("disk unavailable")
	}
	delete(m.data, key)
	return nil
}

func (m *memRecords) Close() error { return nil }

func (m *memRecords) raw(t *testing.T, key string) ([]byte, bool) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

type fakeAuthenticator struct {
	loginFn func(ctx context.Context, phone, password string) (domain.Identity, error)
	calls   int
}

func (f *fakeAuthenticator) Login(ctx context.Context, phone, password string) (domain.Identity, error) {
	f.calls++
	return f.loginFn(ctx, phone, password)
}
