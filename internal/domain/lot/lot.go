package lot

import (
	"time"
)

// Status represents the current status of a lot
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Lot represents one item under auction. IDs are assigned externally by the
// catalog, which is why they are plain integers rather than generated UUIDs.
type Lot struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Article        string     `json:"article"`
	Description    string     `json:"description"`
	StartPrice     float64    `json:"start_price"`
	CurrentPrice   float64    `json:"current_price"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Status         Status     `json:"status"`
	WinnerID       *int64     `json:"winner_id,omitempty"`
	PublicationRef *int64     `json:"publication_ref,omitempty"`
	Published      bool       `json:"published"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsActive returns true if the lot is currently accepting bids
func (l *Lot) IsActive() bool {
	return l.Status == StatusActive
}

// IsFinished returns true if the lot has been closed
func (l *Lot) IsFinished() bool {
	return l.Status == StatusFinished
}

// DueToActivate returns true if a pending lot's scheduled start has passed
func (l *Lot) DueToActivate(now time.Time) bool {
	return l.Status == StatusPending && !l.StartTime.After(now)
}

// DueToClose returns true if an active lot's deadline has passed
func (l *Lot) DueToClose(now time.Time) bool {
	return l.Status == StatusActive && l.EndTime != nil && !l.EndTime.After(now)
}

// MinimumBid returns the lowest amount the next bid must reach
func (l *Lot) MinimumBid(minStep float64) float64 {
	return l.CurrentPrice + minStep
}

// TimeLeft returns the remaining time until the deadline, zero when the
// deadline is unset or already passed
func (l *Lot) TimeLeft(now time.Time) time.Duration {
	if l.EndTime == nil {
		return 0
	}
	left := l.EndTime.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
