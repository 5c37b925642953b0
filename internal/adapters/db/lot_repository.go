package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cenolover-auction-engine/internal/domain/lot"
	"cenolover-auction-engine/internal/domain/shared"

	"github.com/lib/pq"
)

// LotRepository implements the lot repository interface
type LotRepository struct {
	conn *Connection
}

// NewLotRepository creates a new lot repository
func NewLotRepository(conn *Connection) *LotRepository {
	return &LotRepository{conn: conn}
}

const lotColumns = `lot_id, name, article, description, start_price, current_price,
		start_time, end_time, status, winner_user_id, publication_ref, published, created_at`

func scanLot(row interface{ Scan(...interface{}) error }) (*lot.Lot, error) {
	var l lot.Lot
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Article,
		&l.Description,
		&l.StartPrice,
		&l.CurrentPrice,
		&l.StartTime,
		&l.EndTime,
		&l.Status,
		&l.WinnerID,
		&l.PublicationRef,
		&l.Published,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a new pending lot; a duplicate id is rejected
func (r *LotRepository) Create(ctx context.Context, l *lot.Lot) error {
	query := `
		INSERT INTO lots (lot_id, name, article, description, start_price, current_price,
		                  start_time, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		l.ID,
		l.Name,
		l.Article,
		l.Description,
		l.StartPrice,
		l.CurrentPrice,
		l.StartTime,
		l.Status,
		l.CreatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return shared.ErrDuplicateLot
		}
		return fmt.Errorf("failed to create lot: %w", err)
	}

	return nil
}

// GetByID retrieves a lot by ID
func (r *LotRepository) GetByID(ctx context.Context, id int64) (*lot.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE lot_id = $1`

	l, err := scanLot(r.conn.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrLotNotFound
		}
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}

	return l, nil
}

// List retrieves lots with an optional status filter, most recent start first
func (r *LotRepository) List(ctx context.Context, status *lot.Status, limit int) ([]*lot.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots`

	var args []interface{}
	if status != nil {
		query += ` WHERE status = $1 ORDER BY start_time DESC LIMIT $2`
		args = append(args, *status, limit)
	} else {
		query += ` ORDER BY start_time DESC LIMIT $1`
		args = append(args, limit)
	}

	return r.queryLots(ctx, query, args...)
}

// ListDueToActivate retrieves pending lots due within the lookahead window,
// earliest start first with id as the deterministic tie-break
func (r *LotRepository) ListDueToActivate(ctx context.Context, now time.Time, lookahead time.Duration) ([]*lot.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE status = 'pending' AND start_time <= $1
		ORDER BY start_time ASC, lot_id ASC
	`

	return r.queryLots(ctx, query, now.Add(lookahead))
}

// ListDueToClose retrieves active lots whose deadline has passed
func (r *LotRepository) ListDueToClose(ctx context.Context, now time.Time) ([]*lot.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE status = 'active' AND end_time IS NOT NULL AND end_time <= $1
		ORDER BY end_time ASC, lot_id ASC
	`

	return r.queryLots(ctx, query, now)
}

// ListUnpublished retrieves active lots with no recorded publication
func (r *LotRepository) ListUnpublished(ctx context.Context, limit int) ([]*lot.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE status = 'active' AND NOT published
		ORDER BY start_time ASC, lot_id ASC
		LIMIT $1
	`

	return r.queryLots(ctx, query, limit)
}

// Activate transitions a pending lot to active and fixes its deadline. The
// status guard in the WHERE clause makes concurrent scheduler ticks safe:
// only the first call flips the row, later calls affect zero rows.
func (r *LotRepository) Activate(ctx context.Context, id int64, now time.Time, duration time.Duration) (bool, error) {
	query := `
		UPDATE lots
		SET status = 'active', end_time = $2, published = FALSE
		WHERE lot_id = $1 AND status = 'pending'
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query, id, now.Add(duration))
	if err != nil {
		return false, fmt.Errorf("failed to activate lot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Close transitions an active lot to finished, resolving the winner from the
// highest bid inside the same transaction so a concurrently admitted bid is
// either counted or rejected by the status guard, never lost. The deadline is
// re-read under the lock: a bid admitted after the due-list scan may have
// extended it, in which case the lot stays active until the next sweep.
func (r *LotRepository) Close(ctx context.Context, id int64, now time.Time) (*shared.CloseResult, error) {
	result := &shared.CloseResult{LotID: id}

	err := r.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		var status string
		var endTime *time.Time
		err := tx.QueryRowContext(ctx,
			`SELECT status, end_time FROM lots WHERE lot_id = $1 FOR UPDATE`, id,
		).Scan(&status, &endTime)
		if err != nil {
			if err == sql.ErrNoRows {
				return shared.ErrLotNotFound
			}
			return fmt.Errorf("failed to lock lot for close: %w", err)
		}

		if status == string(lot.StatusFinished) {
			return nil
		}
		if status != string(lot.StatusActive) {
			return shared.ErrLotNotActive
		}
		if endTime != nil && endTime.After(now) {
			return nil
		}

		var winnerID int64
		var amount float64
		err = tx.QueryRowContext(ctx, `
			SELECT user_id, amount
			FROM bids
			WHERE lot_id = $1
			ORDER BY amount DESC, created_at ASC
			LIMIT 1
		`, id).Scan(&winnerID, &amount)

		switch {
		case err == sql.ErrNoRows:
			// No bids: finish silently with no winner
		case err != nil:
			return fmt.Errorf("failed to resolve winner: %w", err)
		default:
			result.WinnerID = &winnerID
			result.FinalAmount = &amount
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE lots
			SET status = 'finished', winner_user_id = $2
			WHERE lot_id = $1 AND status = 'active'
		`, id, result.WinnerID)
		if err != nil {
			return fmt.Errorf("failed to finish lot: %w", err)
		}

		result.Closed = true
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// SetPublication records the channel message handle for a published lot
func (r *LotRepository) SetPublication(ctx context.Context, id int64, ref int64) error {
	query := `
		UPDATE lots
		SET publication_ref = $2, published = TRUE
		WHERE lot_id = $1
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query, id, ref)
	if err != nil {
		return fmt.Errorf("failed to set publication ref: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrLotNotFound
	}

	return nil
}

func (r *LotRepository) queryLots(ctx context.Context, query string, args ...interface{}) ([]*lot.Lot, error) {
	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	defer rows.Close()

	var lots []*lot.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		lots = append(lots, l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}

	return lots, nil
}
