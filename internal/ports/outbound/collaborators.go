package outbound

import (
	"context"

	"cenolover-auction-engine/internal/domain/lot"
)

// Publisher announces an activated lot on the public channel. Idempotency is
// the caller's responsibility: the scheduler publishes each lot once and the
// repair sweep retries only lots with no stored publication ref.
type Publisher interface {
	Publish(ctx context.Context, lot *lot.Lot) (ref int64, err error)
}

// Notifier delivers a message to a single participant, fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string) error
}
