package pubsub

import (
	"context"
	"strings"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/types"
	"github.com/rs/zerolog"
)

// RemotePublisher is the broker-side half of the fan-out, nil when no
// broker is configured
type RemotePublisher interface {
	Publish(ctx context.Context, key string, body any) error
}

// ContextFanout publishes context changes to in-process subscribers
// and, when configured, to the broker. Broker failures are logged and
// swallowed: losing a context announcement never fails the action that
// produced it.
type ContextFanout struct {
	bus    *Bus
	remote RemotePublisher
	logger zerolog.Logger
}

// NewContextFanout creates the fan-out. remote may be nil.
func NewContextFanout(bus *Bus, remote RemotePublisher, logger zerolog.Logger) *ContextFanout {
	return &ContextFanout{bus: bus, remote: remote, logger: logger}
}

// PublishContextChange delivers the change locally and remotely
func (f *ContextFanout) PublishContextChange(ctx context.Context, change types.ContextChange) {
	f.bus.Publish(change)

	if f.remote == nil {
		return
	}
	key := "context.changed." + strings.ToLower(change.ObjectType)
	if err := f.remote.Publish(ctx, key, change); err != nil {
		f.logger.Warn().Err(err).Str("record_id", change.RecordID).Msg("context change broker publish failed")
	}
}
