package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const clearSubject = "smartqa.cache.clear"

// clearEvent carries the origin so a process does not react to its own
// announcement; it already cleared locally.
type clearEvent struct {
	Origin string `json:"origin"`
}

// NewNATS constructs a NATS-based broadcaster.
func NewNATS(log *slog.Logger, nc *nats.Conn) Broadcaster {
	return &natsBroadcaster{
		log:    log,
		nc:     nc,
		origin: uuid.NewString(),
	}
}

type natsBroadcaster struct {
	log    *slog.Logger
	nc     *nats.Conn
	origin string
}

func (b *natsBroadcaster) PublishClear(_ context.Context) error {
	body, err := json.Marshal(clearEvent{Origin: b.origin})
	if err != nil {
		return err
	}
	return b.nc.Publish(clearSubject, body)
}

func (b *natsBroadcaster) SubscribeClear(ctx context.Context, handler func()) error {
	sub, err := b.nc.Subscribe(clearSubject, func(msg *nats.Msg) {
		var event clearEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			b.log.Error("failed to decode clear event", "err", err)
			return
		}
		if event.Origin == b.origin {
			return
		}
		b.log.Info("cache clear broadcast received", "origin", event.Origin)
		handler()
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe()
}

func (b *natsBroadcaster) Close() error {
	b.nc.Close()
	return nil
}
