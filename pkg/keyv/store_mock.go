package keyv

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type Mock_Store struct {
	mock.Mock
}

func (m *Mock_Store) Get(ctx context.Context, rawKey string) (*Entry, error) {
	ret := m.Called(ctx, rawKey)

	var r0 *Entry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Entry)
	}

	return r0, ret.Error(1)
}

func (m *Mock_Store) Set(ctx context.Context, rawKey string, payload []byte, expiresAt *time.Time) error {
	ret := m.Called(ctx, rawKey, payload, expiresAt)

	return ret.Error(0)
}

func (m *Mock_Store) Remove(ctx context.Context, rawKey string) (bool, error) {
	ret := m.Called(ctx, rawKey)

	return ret.Get(0).(bool), ret.Error(1)
}

func (m *Mock_Store) RemoveMany(ctx context.Context, rawKeys []string) (int, error) {
	ret := m.Called(ctx, rawKeys)

	return ret.Get(0).(int), ret.Error(1)
}

func (m *Mock_Store) Clear(ctx context.Context, prefix string) error {
	ret := m.Called(ctx, prefix)

	return ret.Error(0)
}

func (m *Mock_Store) Close() error {
	ret := m.Called()

	return ret.Error(0)
}
