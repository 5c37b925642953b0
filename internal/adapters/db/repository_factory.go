package db

import (
	"cenolover-auction-engine/internal/config"
	"cenolover-auction-engine/internal/ports/outbound"
)

// RepositoryFactory creates and manages all database repositories
type RepositoryFactory struct {
	conn *Connection
	cfg  *config.Config
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(conn *Connection, cfg *config.Config) *RepositoryFactory {
	return &RepositoryFactory{conn: conn, cfg: cfg}
}

// GetLotRepository returns the lot repository
func (f *RepositoryFactory) GetLotRepository() outbound.LotRepository {
	return NewLotRepository(f.conn)
}

// GetBidRepository returns the bid repository
func (f *RepositoryFactory) GetBidRepository() outbound.BidRepository {
	return NewBidRepository(
		f.conn,
		f.cfg.Auction.MinStep,
		f.cfg.Auction.ExtendThreshold,
		f.cfg.Auction.ExtendTo,
	)
}

// GetUserRepository returns the user repository
func (f *RepositoryFactory) GetUserRepository() outbound.UserRepository {
	return NewUserRepository(f.conn)
}
