package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cenolover-auction-engine/internal/domain/bid"
	"cenolover-auction-engine/internal/domain/shared"

	"github.com/lib/pq"
)

// BidRepository implements the bid repository interface. The admission rules
// (minimum step and the auto-extension window) are fixed at construction so
// every transaction applies the same policy.
type BidRepository struct {
	conn            *Connection
	minStep         float64
	extendThreshold time.Duration
	extendTo        time.Duration
}

// NewBidRepository creates a new bid repository bound to the given rules
func NewBidRepository(conn *Connection, minStep float64, extendThreshold, extendTo time.Duration) *BidRepository {
	return &BidRepository{
		conn:            conn,
		minStep:         minStep,
		extendThreshold: extendThreshold,
		extendTo:        extendTo,
	}
}

/*
ApplyBid commits a bid as one atomic unit:
 1. Locking the lot row and re-reading price, status and deadline
 2. Checking the actor's ban state inside the same transaction
 3. Validating the minimum-step rule against the locked price
 4. Inserting the bid and raising the current price
 5. Resetting the deadline when the bid lands inside the extension window

Validation and mutation share one transaction because two actors can submit
competing bids in the same tick; a read-then-write split would let both pass
the step check against the same stale price.
*/
func (r *BidRepository) ApplyBid(ctx context.Context, lotID, userID int64, amount float64, now time.Time) (*shared.BidOutcome, error) {
	outcome := &shared.BidOutcome{LotID: lotID}

	err := r.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		var currentPrice float64
		var status string
		var endTime *time.Time

		err := tx.QueryRowContext(ctx, `
			SELECT current_price, status, end_time
			FROM lots
			WHERE lot_id = $1
			FOR UPDATE
		`, lotID).Scan(&currentPrice, &status, &endTime)
		if err != nil {
			if err == sql.ErrNoRows {
				return shared.ErrLotNotFound
			}
			return fmt.Errorf("failed to lock lot for bid: %w", err)
		}

		if status != "active" {
			return shared.ErrLotNotActive
		}

		var bannedUntil *time.Time
		err = tx.QueryRowContext(ctx,
			`SELECT banned_until FROM users WHERE user_id = $1`, userID,
		).Scan(&bannedUntil)
		if err != nil {
			if err == sql.ErrNoRows {
				return shared.ErrUserNotFound
			}
			return fmt.Errorf("failed to read bidder: %w", err)
		}
		if bannedUntil != nil && bannedUntil.After(now) {
			return shared.ErrUserBanned
		}

		if amount < currentPrice+r.minStep {
			return shared.ErrBidTooLow
		}

		newBid := bid.New(lotID, userID, amount, now)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bids (id, lot_id, user_id, amount, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, newBid.ID, newBid.LotID, newBid.UserID, newBid.Amount, newBid.CreatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
				return shared.ErrDuplicateBid
			}
			return fmt.Errorf("failed to insert bid: %w", err)
		}

		outcome.NewPrice = amount
		newEndTime := endTime

		// Auto-extension: absolute reset, not additive
		if endTime != nil && endTime.Sub(now) < r.extendThreshold {
			reset := now.Add(r.extendTo)
			newEndTime = &reset
			outcome.NewEndTime = &reset
			outcome.Extended = true
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE lots
			SET current_price = $2, end_time = $3
			WHERE lot_id = $1
		`, lotID, amount, newEndTime)
		if err != nil {
			return fmt.Errorf("failed to update lot price: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// ListByLot retrieves all bids for a lot, highest amount first
func (r *BidRepository) ListByLot(ctx context.Context, lotID int64) ([]*bid.Bid, error) {
	query := `
		SELECT id, lot_id, user_id, amount, created_at
		FROM bids
		WHERE lot_id = $1
		ORDER BY amount DESC, created_at ASC
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bids: %w", err)
	}
	defer rows.Close()

	var bids []*bid.Bid
	for rows.Next() {
		var b bid.Bid
		err := rows.Scan(&b.ID, &b.LotID, &b.UserID, &b.Amount, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, &b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}

	return bids, nil
}

// GetHighest retrieves the highest bid for a lot
func (r *BidRepository) GetHighest(ctx context.Context, lotID int64) (*bid.Bid, error) {
	query := `
		SELECT id, lot_id, user_id, amount, created_at
		FROM bids
		WHERE lot_id = $1
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`

	var b bid.Bid
	err := r.conn.GetDB().QueryRowContext(ctx, query, lotID).Scan(
		&b.ID, &b.LotID, &b.UserID, &b.Amount, &b.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrNoBidsFound
		}
		return nil, fmt.Errorf("failed to get highest bid: %w", err)
	}

	return &b, nil
}

// ListDistinctBidders retrieves the distinct user ids that have bid on a lot
func (r *BidRepository) ListDistinctBidders(ctx context.Context, lotID int64) ([]int64, error) {
	query := `SELECT DISTINCT user_id FROM bids WHERE lot_id = $1`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bidders: %w", err)
	}
	defer rows.Close()

	var bidders []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan bidder: %w", err)
		}
		bidders = append(bidders, userID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bidders: %w", err)
	}

	return bidders, nil
}
