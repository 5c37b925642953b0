package inbound

import (
	"context"
	"time"

	"cenolover-auction-engine/internal/domain/bid"
	"cenolover-auction-engine/internal/domain/lot"
	"cenolover-auction-engine/internal/domain/shared"
)

// BidService defines the interface for bid admission
type BidService interface {
	// PlaceBid admits a bid through the gate and the atomic bid transaction
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*shared.BidOutcome, error)

	// GetBids retrieves bids for a lot
	GetBids(ctx context.Context, lotID int64) ([]*bid.Bid, error)
}

// LotService defines the interface for lot operations
type LotService interface {
	// CreateLot registers a new pending lot from the catalog
	CreateLot(ctx context.Context, req CreateLotRequest) (*lot.Lot, error)

	// GetLot retrieves a lot by ID
	GetLot(ctx context.Context, lotID int64) (*lot.Lot, error)

	// ListLots retrieves lots with an optional status filter
	ListLots(ctx context.Context, status *lot.Status, limit int) ([]*lot.Lot, error)

	// ForceStart activates a pending lot ahead of its schedule (admin action)
	ForceStart(ctx context.Context, lotID int64) error

	// RecordWarning applies a non-payment warning and auto-bans on threshold
	RecordWarning(ctx context.Context, userID int64) error
}

// request to place a bid
type PlaceBidRequest struct {
	LotID    int64   `json:"lot_id"`
	UserID   int64   `json:"user_id"`
	UserName string  `json:"user_name"`
	Amount   float64 `json:"amount"`
}

// request to create a lot
type CreateLotRequest struct {
	LotID       int64     `json:"lot_id"`
	Name        string    `json:"name"`
	Article     string    `json:"article"`
	Description string    `json:"description"`
	StartPrice  float64   `json:"start_price"`
	StartTime   time.Time `json:"start_time"`
}
