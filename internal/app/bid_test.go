package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cenolover-auction-engine/internal/adapters/gate"
	"cenolover-auction-engine/internal/domain/lot"
	"cenolover-auction-engine/internal/domain/shared"
	"cenolover-auction-engine/internal/ports/inbound"

	"github.com/rs/zerolog"
)

func newTestBidService(store *memStore, notifier *fakeNotifier, rateLimit int) (*BidService, *Fanout) {
	fanout := NewFanout(FanoutParams{
		Notifier: notifier,
		Logger:   zerolog.Nop(),
	})

	admissionGate := gate.NewGate(gate.GateParams{
		Limit:  rateLimit,
		Window: time.Second,
		Logger: zerolog.Nop(),
	})

	service := NewBidService(BidServiceParams{
		BidRepo:  store,
		UserRepo: store,
		Gate:     admissionGate,
		Fanout:   fanout,
		Logger:   zerolog.Nop(),
	})

	return service, fanout
}

func activeLot(id int64, price float64, endsIn time.Duration) *lot.Lot {
	end := time.Now().Add(endsIn)
	return &lot.Lot{
		ID:           id,
		Name:         "vintage lamp",
		StartPrice:   price,
		CurrentPrice: price,
		StartTime:    time.Now().Add(-time.Hour),
		EndTime:      &end,
		Status:       lot.StatusActive,
	}
}

func TestPlaceBidMinimumStep(t *testing.T) {
	store := newMemStore(50, 10*time.Minute, 15*time.Minute)
	store.addLot(activeLot(1, 100, time.Hour))
	service, fanout := newTestBidService(store, newFakeNotifier(), 100)
	defer fanout.Stop()

	// 120 does not clear 100 + 50
	_, err := service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		LotID: 1, UserID: 7, UserName: "alice", Amount: 120,
	})
	if !errors.Is(err, shared.ErrBidTooLow) {
		t.Fatalf("PlaceBid(120) = %v, want ErrBidTooLow", err)
	}

	outcome, err := service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		LotID: 1, UserID: 7, UserName: "alice", Amount: 150,
	})
	if err != nil {
		t.Fatalf("PlaceBid(150) error: %v", err)
	}
	if outcome.NewPrice != 150 {
		t.Fatalf("NewPrice = %v, want 150", outcome.NewPrice)
	}
	if got := store.getLot(1).CurrentPrice; got != 150 {
		t.Fatalf("CurrentPrice = %v, want 150", got)
	}
}

func TestPlaceBidLotNotActive(t *testing.T) {
	store := newMemStore(50, 10*time.Minute, 15*time.Minute)
	pending := activeLot(1, 100, time.Hour)
	pending.Status = lot.StatusPending
	store.addLot(pending)
	service, fanout := newTestBidService(store, newFakeNotifier(), 100)
	defer fanout.Stop()

	_, err := service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		LotID: 1, UserID: 7, UserName: "alice", Amount: 200,
	})
	if !errors.Is(err, shared.ErrLotNotActive) {
		t.Fatalf("PlaceBid() on pending lot = %v, want ErrLotNotActive", err)
	}
}

func TestPlaceBidBannedUser(t *testing.T) {
	store := newMemStore(50, 10*time.Minute, 15*time.Minute)
	store.addLot(activeLot(1, 100, time.Hour))
	service, fanout := newTestBidService(store, newFakeNotifier(), 100)
	defer fanout.Stop()

	store.Upsert(context.Background(), 7, "alice")
	until := time.Now().Add(24 * time.Hour)
	store.users[7].BannedUntil = &until

	_, err := service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		LotID: 1, UserID: 7, UserName: "alice", Amount: 200,
	})
	if !errors.Is(err, shared.ErrUserBanned) {
		t.Fatalf("PlaceBid() banned user = %v, want ErrUserBanned", err)
	}
	if store.bidCount(1) != 0 {
		t.Fatalf("bid count = %d, want 0", store.bidCount(1))
	}
}

func TestPlaceBidExpiredBanIsLifted(t *testing.T) {
	store := newMemStore(50, 10*time.Minute, 15*time.Minute)
	store.addLot(activeLot(1, 100, time.Hour))
	service, fanout := newTestBidService(store, newFakeNotifier(), 100)
	defer fanout.Stop()

	store.Upsert(context.Background(), 7, "alice")
	until := time.Now().Add(-time.Minute)
	store.users[7].BannedUntil = &until

	if _, err := service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		LotID: 1, UserID: 7, UserName: "alice", Amount: 200,
	}); err != nil {
		t.Fatalf("PlaceBid() with expired ban error: %v", err)
	}
}

func TestPlaceBidRateLimited(t *testing.T) {
	store := newMemStore(50, 10*time.Minute, 15*time.Minute)
	store.addLot(activeLot(1, 100, time.Hour))
	service, fanout := newTestBidService(store, newFakeNotifier(), 1)
	defer fanout.Stop()

	if _, err := service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		LotID: 1, UserID: 7, UserName: "alice", Amount: 150,
	}); err != nil {
		t.Fatalf("PlaceBid() first action error: %v", err)
	}

	_, err := service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		LotID: 1, UserID: 7, UserName: "alice", Amount: 250,
	})
	if !errors.Is(err, shared.ErrRateLimited) {
		t.Fatalf("PlaceBid() over rate limit = %v, want ErrRateLimited", err)
	}
	if store.bidCount(1) != 1 {
		t.Fatalf("bid count = %d, want 1 (rate-limited bid must not reach the store)", store.bidCount(1))
	}
}

func TestPlaceBidAutoExtension(t *testing.T) {
	store := newMemStore(50, 10*time.Minute, 15*time.Minute)
	// Deadline 5 minutes out, inside the 10 minute threshold
	store.addLot(activeLot(1, 100, 5*time.Minute))
	service, fanout := newTestBidService(store, newFakeNotifier(), 100)
	defer fanout.Stop()

	before := time.Now()
	outcome, err := service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		LotID: 1, UserID: 7, UserName: "alice", Amount: 150,
	})
	if err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}
	if !outcome.Extended || outcome.NewEndTime == nil {
		t.Fatalf("outcome = %+v, want extension", outcome)
	}

	// Absolute reset to now + EXTEND_TO, not added to the remaining time
	want := before.Add(15 * time.Minute)
	if diff := outcome.NewEndTime.Sub(want); diff < 0 || diff > time.Second {
		t.Fatalf("NewEndTime = %v, want about %v", outcome.NewEndTime, want)
	}
}

func TestPlaceBidNoExtensionOutsideThreshold(t *testing.T) {
	store := newMemStore(50, 10*time.Minute, 15*time.Minute)
	store.addLot(activeLot(1, 100, time.Hour))
	service, fanout := newTestBidService(store, newFakeNotifier(), 100)
	defer fanout.Stop()

	outcome, err := service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		LotID: 1, UserID: 7, UserName: "alice", Amount: 150,
	})
	if err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}
	if outcome.Extended {
		t.Fatalf("outcome = %+v, want no extension an hour before the deadline", outcome)
	}
}

func TestConcurrentBidsNoLostUpdate(t *testing.T) {
	store := newMemStore(50, 10*time.Minute, 15*time.Minute)
	store.addLot(activeLot(1, 100, time.Hour))
	service, fanout := newTestBidService(store, newFakeNotifier(), 100)
	defer fanout.Stop()

	// Both amounts clear the price read before either transaction commits,
	// but the second can no longer clear the post-update price.
	amounts := []float64{150, 160}
	results := make([]error, len(amounts))

	var wg sync.WaitGroup
	for i, amount := range amounts {
		wg.Add(1)
		go func(i int, amount float64) {
			defer wg.Done()
			_, results[i] = service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
				LotID: 1, UserID: int64(100 + i), UserName: "bidder", Amount: amount,
			})
		}(i, amount)
	}
	wg.Wait()

	accepted := 0
	for _, err := range results {
		if err == nil {
			accepted++
		} else if !errors.Is(err, shared.ErrBidTooLow) {
			t.Fatalf("unexpected rejection: %v", err)
		}
	}

	if accepted != 1 {
		t.Fatalf("accepted = %d, want exactly 1", accepted)
	}
	if store.bidCount(1) != 1 {
		t.Fatalf("bid count = %d, want 1", store.bidCount(1))
	}
}

func TestOutbidFanoutExcludesCurrentBidder(t *testing.T) {
	store := newMemStore(50, 10*time.Minute, 15*time.Minute)
	store.addLot(activeLot(1, 100, time.Hour))
	notifier := newFakeNotifier()
	service, fanout := newTestBidService(store, notifier, 100)

	// Two prior bidders, then one of them raises again
	store.Upsert(context.Background(), 201, "first")
	store.addBid(1, 201, 150)
	store.Upsert(context.Background(), 202, "second")
	store.addBid(1, 202, 200)
	store.getLot(1).CurrentPrice = 200

	if _, err := service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		LotID: 1, UserID: 202, UserName: "second", Amount: 300,
	}); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}

	fanout.Stop()

	if got := notifier.messagesFor(201); len(got) != 1 {
		t.Fatalf("messages for prior bidder = %d, want 1", len(got))
	}
	if got := notifier.messagesFor(202); len(got) != 0 {
		t.Fatalf("messages for current bidder = %d, want 0", len(got))
	}
}
