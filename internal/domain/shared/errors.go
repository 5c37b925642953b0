package shared

import "errors"

// Domain-specific errors
var (
	// Lot errors
	ErrLotNotFound       = errors.New("lot not found")
	ErrLotNotActive      = errors.New("lot is not accepting bids")
	ErrDuplicateLot      = errors.New("lot with this id already exists")
	ErrInvalidStartPrice = errors.New("start price must be greater than 0")

	// Bid errors
	ErrBidTooLow    = errors.New("bid amount must exceed current price by the minimum step")
	ErrDuplicateBid = errors.New("identical bid already placed")
	ErrNoBidsFound  = errors.New("no bids found")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserBanned   = errors.New("user is banned")

	// Admission errors
	ErrRateLimited = errors.New("too many requests, slow down")

	// Collaborator errors
	ErrPublicationFailed  = errors.New("channel publication failed")
	ErrNotificationFailed = errors.New("notification delivery failed")
)
