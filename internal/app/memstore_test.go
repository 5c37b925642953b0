package app

import (
	"context"
	"sync"
	"time"

	"cenolover-auction-engine/internal/domain/bid"
	"cenolover-auction-engine/internal/domain/lot"
	"cenolover-auction-engine/internal/domain/shared"
)

// memStore is an in-memory stand-in for the SQL store. A single mutex
// serializes ApplyBid the way the per-row transaction does, so the
// concurrency properties of the admission protocol hold against it.
type memStore struct {
	mu              sync.Mutex
	lots            map[int64]*lot.Lot
	bids            []*bid.Bid
	users           map[int64]*shared.User
	minStep         float64
	extendThreshold time.Duration
	extendTo        time.Duration
}

func newMemStore(minStep float64, extendThreshold, extendTo time.Duration) *memStore {
	return &memStore{
		lots:            make(map[int64]*lot.Lot),
		users:           make(map[int64]*shared.User),
		minStep:         minStep,
		extendThreshold: extendThreshold,
		extendTo:        extendTo,
	}
}

func (s *memStore) addLot(l *lot.Lot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[l.ID] = l
}

func (s *memStore) getLot(id int64) *lot.Lot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lots[id]
}

func (s *memStore) addBid(lotID, userID int64, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids = append(s.bids, bid.New(lotID, userID, amount, time.Now()))
}

func (s *memStore) bidCount(lotID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, b := range s.bids {
		if b.LotID == lotID {
			count++
		}
	}
	return count
}

// ApplyBid mirrors the SQL transaction: status, ban and step checks against
// the serialized state, then insert, price update and auto-extension.
func (s *memStore) ApplyBid(ctx context.Context, lotID, userID int64, amount float64, now time.Time) (*shared.BidOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lots[lotID]
	if !ok {
		return nil, shared.ErrLotNotFound
	}
	if l.Status != lot.StatusActive {
		return nil, shared.ErrLotNotActive
	}

	u, ok := s.users[userID]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	if u.IsBanned(now) {
		return nil, shared.ErrUserBanned
	}

	if amount < l.CurrentPrice+s.minStep {
		return nil, shared.ErrBidTooLow
	}

	for _, b := range s.bids {
		if b.LotID == lotID && b.UserID == userID && b.Amount == amount {
			return nil, shared.ErrDuplicateBid
		}
	}

	s.bids = append(s.bids, bid.New(lotID, userID, amount, now))
	l.CurrentPrice = amount

	outcome := &shared.BidOutcome{LotID: lotID, NewPrice: amount}
	if l.EndTime != nil && l.EndTime.Sub(now) < s.extendThreshold {
		reset := now.Add(s.extendTo)
		l.EndTime = &reset
		outcome.NewEndTime = &reset
		outcome.Extended = true
	}

	return outcome, nil
}

func (s *memStore) ListByLot(ctx context.Context, lotID int64) ([]*bid.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*bid.Bid
	for _, b := range s.bids {
		if b.LotID == lotID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) GetHighest(ctx context.Context, lotID int64) (*bid.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var highest *bid.Bid
	for _, b := range s.bids {
		if b.LotID == lotID && (highest == nil || b.Amount > highest.Amount) {
			highest = b
		}
	}
	if highest == nil {
		return nil, shared.ErrNoBidsFound
	}
	return highest, nil
}

func (s *memStore) ListDistinctBidders(ctx context.Context, lotID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]bool)
	var out []int64
	for _, b := range s.bids {
		if b.LotID == lotID && !seen[b.UserID] {
			seen[b.UserID] = true
			out = append(out, b.UserID)
		}
	}
	return out, nil
}

func (s *memStore) Upsert(ctx context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		u.Name = name
		return nil
	}
	s.users[id] = &shared.User{ID: id, Name: name, CreatedAt: time.Now()}
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id int64) (*shared.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (s *memStore) RecordWarning(ctx context.Context, id int64, threshold int, banFor time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return shared.ErrUserNotFound
	}
	u.Warnings++
	if u.Warnings >= threshold {
		until := time.Now().Add(banFor)
		u.BannedUntil = &until
	}
	return nil
}

// fakeNotifier records deliveries and can fail selected recipients
type fakeNotifier struct {
	mu        sync.Mutex
	delivered map[int64][]string
	failFor   map[int64]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		delivered: make(map[int64][]string),
		failFor:   make(map[int64]bool),
	}
}

func (n *fakeNotifier) Notify(ctx context.Context, userID int64, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.failFor[userID] {
		return shared.ErrNotificationFailed
	}
	n.delivered[userID] = append(n.delivered[userID], message)
	return nil
}

func (n *fakeNotifier) messagesFor(userID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.delivered[userID]
}
