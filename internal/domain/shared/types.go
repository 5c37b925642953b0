package shared

import "time"

// BidOutcome reports the lot state after an accepted bid
type BidOutcome struct {
	LotID      int64
	NewPrice   float64
	NewEndTime *time.Time // set only when the bid triggered an extension
	Extended   bool
}

// CloseResult reports the outcome of a close attempt. Closed is false when
// the transaction found nothing to do: the lot was already finished, or a
// concurrently admitted bid pushed the deadline forward again.
type CloseResult struct {
	LotID       int64
	Closed      bool
	WinnerID    *int64
	FinalAmount *float64
}

// HasWinner returns true if the lot closed with at least one bid
func (r *CloseResult) HasWinner() bool {
	return r.WinnerID != nil
}
