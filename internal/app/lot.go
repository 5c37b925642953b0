package app

import (
	"context"
	"time"

	"cenolover-auction-engine/internal/config"
	"cenolover-auction-engine/internal/domain/lot"
	"cenolover-auction-engine/internal/domain/shared"
	"cenolover-auction-engine/internal/ports/inbound"
	"cenolover-auction-engine/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// LotService implements lot operations: catalog-facing creation, reads and
// the administrative force-start edge
type LotService struct {
	lotRepo   outbound.LotRepository
	userRepo  outbound.UserRepository
	publisher outbound.Publisher
	cfg       *config.Config
	logger    zerolog.Logger
}

type LotServiceParams struct {
	LotRepo   outbound.LotRepository
	UserRepo  outbound.UserRepository
	Publisher outbound.Publisher
	Config    *config.Config
	Logger    zerolog.Logger
}

// NewLotService creates a new lot service
func NewLotService(params LotServiceParams) *LotService {
	return &LotService{
		lotRepo:   params.LotRepo,
		userRepo:  params.UserRepo,
		publisher: params.Publisher,
		cfg:       params.Config,
		logger:    params.Logger.With().Str("component", "lot_service").Logger(),
	}
}

// CreateLot registers a new pending lot supplied by the catalog
func (s *LotService) CreateLot(ctx context.Context, req inbound.CreateLotRequest) (*lot.Lot, error) {
	s.logger.Info().
		Int64("lot_id", req.LotID).
		Str("name", req.Name).
		Float64("start_price", req.StartPrice).
		Time("start_time", req.StartTime).
		Msg("Creating lot")

	if req.StartPrice <= 0 {
		return nil, shared.ErrInvalidStartPrice
	}

	newLot := &lot.Lot{
		ID:           req.LotID,
		Name:         req.Name,
		Article:      req.Article,
		Description:  req.Description,
		StartPrice:   req.StartPrice,
		CurrentPrice: req.StartPrice,
		StartTime:    req.StartTime,
		Status:       lot.StatusPending,
		CreatedAt:    time.Now(),
	}

	if err := s.lotRepo.Create(ctx, newLot); err != nil {
		s.logger.Error().Err(err).Int64("lot_id", req.LotID).Msg("Failed to create lot")
		return nil, err
	}

	s.logger.Info().Int64("lot_id", newLot.ID).Msg("Lot created")
	return newLot, nil
}

// GetLot retrieves a lot by ID
func (s *LotService) GetLot(ctx context.Context, lotID int64) (*lot.Lot, error) {
	return s.lotRepo.GetByID(ctx, lotID)
}

// ListLots retrieves lots with an optional status filter
func (s *LotService) ListLots(ctx context.Context, status *lot.Status, limit int) ([]*lot.Lot, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.lotRepo.List(ctx, status, limit)
}

// ForceStart activates a pending lot ahead of its schedule. It goes through
// the same Activate primitive as the scheduler sweep, keeping the idempotency
// guard: forcing an already active lot is a no-op.
func (s *LotService) ForceStart(ctx context.Context, lotID int64) error {
	now := time.Now()

	activated, err := s.lotRepo.Activate(ctx, lotID, now, s.cfg.Auction.Duration)
	if err != nil {
		s.logger.Error().Err(err).Int64("lot_id", lotID).Msg("Failed to force-start lot")
		return err
	}

	if !activated {
		s.logger.Warn().Int64("lot_id", lotID).Msg("Force-start skipped, lot not pending")
		return nil
	}

	s.logger.Info().Int64("lot_id", lotID).Msg("Lot force-started")

	// Publication failure does not undo the activation; the repair sweep
	// retries unpublished active lots
	activeLot, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil
	}

	ref, err := s.publisher.Publish(ctx, activeLot)
	if err != nil {
		s.logger.Error().Err(err).Int64("lot_id", lotID).Msg("Failed to publish force-started lot")
		return nil
	}

	if err := s.lotRepo.SetPublication(ctx, lotID, ref); err != nil {
		s.logger.Error().Err(err).Int64("lot_id", lotID).Msg("Failed to store publication ref")
	}

	return nil
}

// RecordWarning applies a non-payment warning, auto-banning on threshold
func (s *LotService) RecordWarning(ctx context.Context, userID int64) error {
	err := s.userRepo.RecordWarning(ctx, userID,
		s.cfg.Admission.BanThresholdWarnings,
		s.cfg.Admission.BanDuration,
	)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to record warning")
		return err
	}

	s.logger.Info().Int64("user_id", userID).Msg("Warning recorded")
	return nil
}
