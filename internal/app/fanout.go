package app

import (
	"context"
	"fmt"
	"time"

	"cenolover-auction-engine/internal/config"
	"cenolover-auction-engine/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/rs/zerolog"
)

// Fanout delivers best-effort messages to sets of participants through a
// bounded worker pool. Delivery failure for one recipient is logged and does
// not affect the others or the caller: the engine never depends on outbound
// notifications succeeding.
type Fanout struct {
	notifier   outbound.Notifier
	workerPool *pond.WorkerPool
	logger     zerolog.Logger
}

type FanoutParams struct {
	Notifier outbound.Notifier
	Logger   zerolog.Logger
}

// NewFanout creates a new notification fanout
func NewFanout(params FanoutParams) *Fanout {
	pool := pond.New(
		config.FanoutMaxWorkers,
		config.FanoutMaxCapacity,
		pond.Strategy(pond.Balanced()),
	)

	return &Fanout{
		notifier:   params.Notifier,
		workerPool: pool,
		logger:     params.Logger.With().Str("component", "notification_fanout").Logger(),
	}
}

// NotifyOutbid informs prior bidders that the price moved past them. The new
// bidder is excluded; recipients are notified in no particular order.
func (f *Fanout) NotifyOutbid(lotID int64, newBidderID int64, newPrice float64, bidders []int64) {
	message := fmt.Sprintf(
		"New bid on lot #%d: the price is now %.2f. Raise your bid to stay in the auction.",
		lotID, newPrice,
	)

	for _, userID := range bidders {
		if userID == newBidderID {
			continue
		}
		f.submit(lotID, userID, message)
	}
}

// NotifyWinner informs the winning bidder of the final amount and the
// payment window, including the payment reference the payment collaborator
// resolves into a link
func (f *Fanout) NotifyWinner(lotID int64, winnerID int64, amount float64, paymentWindow time.Duration) {
	paymentRef := fmt.Sprintf("pay_%d_%d", lotID, winnerID)
	message := fmt.Sprintf(
		"Congratulations, you won lot #%d for %.2f. You have %d minutes to pay (reference %s).",
		lotID, amount, int(paymentWindow.Minutes()), paymentRef,
	)

	f.submit(lotID, winnerID, message)
}

func (f *Fanout) submit(lotID, userID int64, message string) {
	f.workerPool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := f.notifier.Notify(ctx, userID, message); err != nil {
			f.logger.Warn().
				Err(err).
				Int64("lot_id", lotID).
				Int64("user_id", userID).
				Msg("Failed to deliver notification")
			return
		}

		f.logger.Debug().
			Int64("lot_id", lotID).
			Int64("user_id", userID).
			Msg("Notification delivered")
	})
}

// Stop drains the worker pool, waiting for in-flight deliveries
func (f *Fanout) Stop() {
	f.workerPool.StopAndWait()
}
