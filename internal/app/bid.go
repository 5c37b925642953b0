package app

import (
	"context"
	"time"

	"cenolover-auction-engine/internal/adapters/gate"
	"cenolover-auction-engine/internal/domain/bid"
	"cenolover-auction-engine/internal/domain/shared"
	"cenolover-auction-engine/internal/ports/inbound"
	"cenolover-auction-engine/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// BidService implements bid admission: it is the sole path by which a lot's
// price can change. Requests pass the admission gate first; validation and
// mutation then run as one store transaction.
type BidService struct {
	bidRepo  outbound.BidRepository
	userRepo outbound.UserRepository
	gate     *gate.Gate
	fanout   *Fanout
	logger   zerolog.Logger
}

type BidServiceParams struct {
	BidRepo  outbound.BidRepository
	UserRepo outbound.UserRepository
	Gate     *gate.Gate
	Fanout   *Fanout
	Logger   zerolog.Logger
}

// NewBidService creates a new bid service
func NewBidService(params BidServiceParams) *BidService {
	return &BidService{
		bidRepo:  params.BidRepo,
		userRepo: params.UserRepo,
		gate:     params.Gate,
		fanout:   params.Fanout,
		logger:   params.Logger.With().Str("component", "bid_service").Logger(),
	}
}

// PlaceBid admits a bid on a lot
func (s *BidService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*shared.BidOutcome, error) {
	now := time.Now()

	s.logger.Info().
		Int64("lot_id", req.LotID).
		Int64("user_id", req.UserID).
		Float64("amount", req.Amount).
		Msg("Attempting to place bid")

	// Gate check happens before anything can mutate state
	if err := s.gate.Admit(req.UserID, now); err != nil {
		return nil, err
	}

	// Actors are registered on first interaction
	if err := s.userRepo.Upsert(ctx, req.UserID, req.UserName); err != nil {
		s.logger.Error().Err(err).Int64("user_id", req.UserID).Msg("Failed to upsert user")
		return nil, err
	}

	// Prior bidders are read before the transaction so the fanout excludes
	// the current actor without a second query afterwards
	priorBidders, err := s.bidRepo.ListDistinctBidders(ctx, req.LotID)
	if err != nil {
		s.logger.Error().Err(err).Int64("lot_id", req.LotID).Msg("Failed to list prior bidders")
		return nil, err
	}

	// Status, ban state and the minimum step are all re-checked inside the
	// same transaction as the price read
	outcome, err := s.bidRepo.ApplyBid(ctx, req.LotID, req.UserID, req.Amount, now)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int64("lot_id", req.LotID).
			Int64("user_id", req.UserID).
			Float64("amount", req.Amount).
			Msg("Bid rejected")
		return nil, err
	}

	logEvent := s.logger.Info().
		Int64("lot_id", req.LotID).
		Int64("user_id", req.UserID).
		Float64("new_price", outcome.NewPrice)
	if outcome.Extended {
		logEvent = logEvent.Time("new_end_time", *outcome.NewEndTime)
	}
	logEvent.Msg("Bid accepted")

	// Outbid fanout is best-effort and outside the transaction
	s.fanout.NotifyOutbid(req.LotID, req.UserID, outcome.NewPrice, priorBidders)

	return outcome, nil
}

// GetBids retrieves bids for a lot, highest first
func (s *BidService) GetBids(ctx context.Context, lotID int64) ([]*bid.Bid, error) {
	return s.bidRepo.ListByLot(ctx, lotID)
}
