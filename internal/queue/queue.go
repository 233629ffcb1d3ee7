package queue

import "context"

// Broadcaster propagates cache-clear events between processes that share
// a durable cache backend, so clearing in one CLI run or gateway
// instance empties the others' view too.
type Broadcaster interface {
	// PublishClear announces that the cache was cleared.
	PublishClear(ctx context.Context) error

	// SubscribeClear invokes handler for every clear announced by
	// another process. Blocks until ctx is done.
	SubscribeClear(ctx context.Context, handler func()) error

	// Close closes the connection.
	Close() error
}

// NoOpBroadcaster is used when no queue is configured; single-process
// deployments have nobody to tell.
type NoOpBroadcaster struct{}

func NewNoOpBroadcaster() *NoOpBroadcaster {
	return &NoOpBroadcaster{}
}

func (b *NoOpBroadcaster) PublishClear(ctx context.Context) error {
	return nil
}

func (b *NoOpBroadcaster) SubscribeClear(ctx context.Context, handler func()) error {
	<-ctx.Done()
	return nil
}

func (b *NoOpBroadcaster) Close() error {
	return nil
}
