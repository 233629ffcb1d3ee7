package queue

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockBroadcaster is a mock implementation of Broadcaster for testing
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) PublishClear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBroadcaster) SubscribeClear(ctx context.Context, handler func()) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}

func (m *MockBroadcaster) Close() error {
	args := m.Called()
	return args.Error(0)
}
