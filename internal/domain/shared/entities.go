package shared

import (
	"time"
)

// User represents a participant. IDs come from the chat platform.
type User struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Warnings    int        `json:"warnings"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsBanned returns true if the user is banned at the given instant
func (u *User) IsBanned(now time.Time) bool {
	return u.BannedUntil != nil && u.BannedUntil.After(now)
}
