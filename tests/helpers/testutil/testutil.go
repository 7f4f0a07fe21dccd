// Package testutil provides testing utilities and helpers for backend tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
)

// MockBackend is a mock preference storage backend.
type MockBackend struct {
	mock.Mock
}

// Load mocks the Load method.
func (m *MockBackend) Load(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Save mocks the Save method.
func (m *MockBackend) Save(ctx context.Context, key string, blob []byte) error {
	args := m.Called(ctx, key, blob)
	return args.Error(0)
}

// Delete mocks the Delete method.
func (m *MockBackend) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// NewMockBackend creates a mock backend whose expectations are asserted
// when the test ends.
func NewMockBackend(t *testing.T) *MockBackend {
	t.Helper()
	m := new(MockBackend)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
