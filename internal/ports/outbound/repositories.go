package outbound

import (
	"context"
	"time"

	"cenolover-auction-engine/internal/domain/bid"
	"cenolover-auction-engine/internal/domain/lot"
	"cenolover-auction-engine/internal/domain/shared"
)

// LotRepository defines the interface for lot data operations
type LotRepository interface {
	// Create inserts a new pending lot; duplicate ids are rejected
	Create(ctx context.Context, lot *lot.Lot) error

	// GetByID retrieves a lot by ID
	GetByID(ctx context.Context, id int64) (*lot.Lot, error)

	// List retrieves lots with an optional status filter
	List(ctx context.Context, status *lot.Status, limit int) ([]*lot.Lot, error)

	// ListDueToActivate retrieves pending lots whose start time falls within
	// the lookahead window, earliest first (id ascending on ties)
	ListDueToActivate(ctx context.Context, now time.Time, lookahead time.Duration) ([]*lot.Lot, error)

	// ListDueToClose retrieves active lots whose deadline has passed,
	// earliest deadline first (id ascending on ties)
	ListDueToClose(ctx context.Context, now time.Time) ([]*lot.Lot, error)

	// ListUnpublished retrieves active lots that were never published
	ListUnpublished(ctx context.Context, limit int) ([]*lot.Lot, error)

	// Activate transitions a pending lot to active and fixes its deadline.
	// Calling it on a non-pending lot is an idempotent no-op; the returned
	// bool reports whether this call performed the transition.
	Activate(ctx context.Context, id int64, now time.Time, duration time.Duration) (bool, error)

	// Close transitions an active lot to finished, resolving the winner from
	// the highest bid. The deadline is re-read under the lock: a lot whose
	// deadline was pushed past now by a concurrent bid is left active, and an
	// already finished lot is a no-op. Both report Closed=false without error.
	Close(ctx context.Context, id int64, now time.Time) (*shared.CloseResult, error)

	// SetPublication records the external publication handle for a lot
	SetPublication(ctx context.Context, id int64, ref int64) error
}

// BidRepository defines the interface for bid data operations
type BidRepository interface {
	// ApplyBid validates and commits a bid as one atomic unit: re-read the
	// current price under a write lock, check lot status, ban state and the
	// minimum step, insert the bid, update the current price and apply the
	// auto-extension rule
	ApplyBid(ctx context.Context, lotID, userID int64, amount float64, now time.Time) (*shared.BidOutcome, error)

	// ListByLot retrieves all bids for a lot, highest first
	ListByLot(ctx context.Context, lotID int64) ([]*bid.Bid, error)

	// GetHighest retrieves the highest bid for a lot
	GetHighest(ctx context.Context, lotID int64) (*bid.Bid, error)

	// ListDistinctBidders retrieves the distinct user ids that have bid on a lot
	ListDistinctBidders(ctx context.Context, lotID int64) ([]int64, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Upsert creates the user on first interaction or refreshes the name
	Upsert(ctx context.Context, id int64, name string) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*shared.User, error)

	// RecordWarning atomically increments the warning counter and applies a
	// ban when the threshold is reached
	RecordWarning(ctx context.Context, id int64, threshold int, banFor time.Duration) error
}
