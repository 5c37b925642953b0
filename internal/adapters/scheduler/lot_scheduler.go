package scheduler

import (
	"context"
	"sync"
	"time"

	"cenolover-auction-engine/internal/config"
	"cenolover-auction-engine/internal/domain/lot"
	"cenolover-auction-engine/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// WinnerNotifier is the slice of the fanout the closing sweep needs
type WinnerNotifier interface {
	NotifyWinner(lotID int64, winnerID int64, amount float64, paymentWindow time.Duration)
}

// LotScheduler drives all time-based lifecycle transitions through three
// periodic sweeps: activation (coarse), closing (fine) and publication repair.
// Every transition goes through the store's idempotent primitives, so
// overlapping ticks on the same lot are harmless.
type LotScheduler struct {
	lotRepo   outbound.LotRepository
	publisher outbound.Publisher
	winners   WinnerNotifier
	cfg       *config.Config
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type LotSchedulerParams struct {
	LotRepo   outbound.LotRepository
	Publisher outbound.Publisher
	Winners   WinnerNotifier
	Config    *config.Config
	Logger    zerolog.Logger
}

// NewLotScheduler creates a new lifecycle scheduler
func NewLotScheduler(params LotSchedulerParams) *LotScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &LotScheduler{
		lotRepo:   params.LotRepo,
		publisher: params.Publisher,
		winners:   params.Winners,
		cfg:       params.Config,
		logger:    params.Logger.With().Str("component", "lot_scheduler").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins the sweep loops
func (s *LotScheduler) Start() {
	s.logger.Info().
		Dur("activation_period", s.cfg.Auction.ActivationSweepPeriod).
		Dur("close_period", s.cfg.Auction.CloseSweepPeriod).
		Dur("repair_period", s.cfg.Auction.RepairSweepPeriod).
		Msg("Starting lot scheduler")

	s.wg.Add(3)
	go s.sweepLoop(s.cfg.Auction.ActivationSweepPeriod, s.ActivationSweep)
	go s.sweepLoop(s.cfg.Auction.CloseSweepPeriod, s.ClosingSweep)
	go s.sweepLoop(s.cfg.Auction.RepairSweepPeriod, s.RepairSweep)
}

// Stop gracefully stops the scheduler
func (s *LotScheduler) Stop() {
	s.logger.Info().Msg("Stopping lot scheduler")
	s.cancel()
	s.wg.Wait()
}

func (s *LotScheduler) sweepLoop(period time.Duration, sweep func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweep(s.ctx)
		case <-s.ctx.Done():
			return
		}
	}
}

// ActivationSweep transitions due pending lots to active and publishes them.
// A publication failure never rolls back the activation: the lot is already
// active, and the repair sweep makes publication eventually consistent.
func (s *LotScheduler) ActivationSweep(ctx context.Context) {
	now := time.Now()

	due, err := s.lotRepo.ListDueToActivate(ctx, now, s.cfg.Auction.ActivationLookahead)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list lots due to activate")
		return
	}

	for _, l := range due {
		// The lookahead bounds the scan; only lots whose start has actually
		// passed are transitioned this tick
		if l.StartTime.After(now) {
			continue
		}
		s.activateOne(ctx, l, now)
	}
}

func (s *LotScheduler) activateOne(ctx context.Context, l *lot.Lot, now time.Time) {
	itemCtx, cancel := context.WithTimeout(ctx, s.cfg.Auction.SweepItemTimeout)
	defer cancel()

	activated, err := s.lotRepo.Activate(itemCtx, l.ID, now, s.cfg.Auction.Duration)
	if err != nil {
		// Item failure is logged and skipped; the lot stays pending and the
		// next sweep retries it
		s.logger.Error().Err(err).Int64("lot_id", l.ID).Msg("Failed to activate lot")
		return
	}
	if !activated {
		return
	}

	s.logger.Info().
		Int64("lot_id", l.ID).
		Time("end_time", now.Add(s.cfg.Auction.Duration)).
		Msg("Lot activated")

	activeLot, err := s.lotRepo.GetByID(itemCtx, l.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("lot_id", l.ID).Msg("Failed to reload activated lot")
		return
	}

	ref, err := s.publisher.Publish(itemCtx, activeLot)
	if err != nil {
		s.logger.Error().Err(err).Int64("lot_id", l.ID).Msg("Failed to publish lot, repair sweep will retry")
		return
	}

	if err := s.lotRepo.SetPublication(itemCtx, l.ID, ref); err != nil {
		s.logger.Error().Err(err).Int64("lot_id", l.ID).Msg("Failed to store publication ref")
	}
}

// ClosingSweep finishes active lots whose deadline has passed and notifies
// winners. A lot whose bid just re-triggered an extension no longer shows up
// as due, because the store serialized the bid before this read.
func (s *LotScheduler) ClosingSweep(ctx context.Context) {
	now := time.Now()

	due, err := s.lotRepo.ListDueToClose(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list lots due to close")
		return
	}

	for _, l := range due {
		s.closeOne(ctx, l, now)
	}
}

func (s *LotScheduler) closeOne(ctx context.Context, l *lot.Lot, now time.Time) {
	itemCtx, cancel := context.WithTimeout(ctx, s.cfg.Auction.SweepItemTimeout)
	defer cancel()

	result, err := s.lotRepo.Close(itemCtx, l.ID, now)
	if err != nil {
		s.logger.Error().Err(err).Int64("lot_id", l.ID).Msg("Failed to close lot")
		return
	}

	// A bid admitted after the due scan may have extended the deadline, or
	// an earlier tick may have finished the lot already
	if !result.Closed {
		s.logger.Debug().Int64("lot_id", l.ID).Msg("Close skipped, lot no longer due")
		return
	}

	if !result.HasWinner() {
		s.logger.Info().Int64("lot_id", l.ID).Msg("Lot closed without bids")
		return
	}

	s.logger.Info().
		Int64("lot_id", l.ID).
		Int64("winner_id", *result.WinnerID).
		Float64("final_amount", *result.FinalAmount).
		Msg("Lot closed with winner")

	s.winners.NotifyWinner(l.ID, *result.WinnerID, *result.FinalAmount, s.cfg.Auction.PaymentWindow)
}

// RepairSweep retries publication for active lots that were never announced,
// closing the at-most-once gap left when a publish fails after activation
func (s *LotScheduler) RepairSweep(ctx context.Context) {
	unpublished, err := s.lotRepo.ListUnpublished(ctx, 10)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list unpublished lots")
		return
	}

	for _, l := range unpublished {
		itemCtx, cancel := context.WithTimeout(ctx, s.cfg.Auction.SweepItemTimeout)

		ref, err := s.publisher.Publish(itemCtx, l)
		if err != nil {
			s.logger.Warn().Err(err).Int64("lot_id", l.ID).Msg("Publication retry failed")
			cancel()
			continue
		}

		if err := s.lotRepo.SetPublication(itemCtx, l.ID, ref); err != nil {
			s.logger.Error().Err(err).Int64("lot_id", l.ID).Msg("Failed to store publication ref")
		} else {
			s.logger.Info().Int64("lot_id", l.ID).Int64("ref", ref).Msg("Publication repaired")
		}
		cancel()
	}
}
