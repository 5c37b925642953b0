package bid

import (
	"time"

	"github.com/google/uuid"
)

// Bid represents an accepted offer on a lot. Bids are append-only: once a
// bid clears admission it is never mutated or deleted.
type Bid struct {
	ID        uuid.UUID `json:"id"`
	LotID     int64     `json:"lot_id"`
	UserID    int64     `json:"user_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a bid record for the given lot, actor and amount
func New(lotID, userID int64, amount float64, now time.Time) *Bid {
	return &Bid{
		ID:        uuid.New(),
		LotID:     lotID,
		UserID:    userID,
		Amount:    amount,
		CreatedAt: now,
	}
}

// Outbids returns true if this bid clears the given price by at least minStep
func (b *Bid) Outbids(currentPrice, minStep float64) bool {
	return b.Amount >= currentPrice+minStep
}
