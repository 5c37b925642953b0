package db

import (
	"database/sql"
	"fmt"

	"cenolover-auction-engine/internal/config"

	_ "github.com/lib/pq"
)

// Connection represents a database connection
type Connection struct {
	db *sql.DB
}

// NewConnection creates a new database connection
func NewConnection(config *config.Config) (*Connection, error) {
	db, err := sql.Open("postgres", config.Database.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &Connection{db: db}, nil
}

// GetDB returns the underlying sql.DB instance
func (client *Connection) GetDB() *sql.DB {
	return client.db
}

// Close closes the database connection
func (client *Connection) Close() error {
	return client.db.Close()
}

// BeginTransaction starts a new database transaction
func (client *Connection) BeginTransaction() (*sql.Tx, error) {
	tx, err := client.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// ExecuteTransaction executes a function within a transaction
func (client *Connection) ExecuteTransaction(fn func(*sql.Tx) error) error {
	tx, err := client.BeginTransaction()
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx failed: %v, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// InitSchema creates the tables and indexes if they do not exist yet
func (client *Connection) InitSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			user_name TEXT,
			warnings INTEGER DEFAULT 0,
			banned_until TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lots (
			lot_id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			article TEXT,
			description TEXT,
			start_price DECIMAL(10,2) NOT NULL,
			current_price DECIMAL(10,2) NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'pending',
			winner_user_id BIGINT,
			publication_ref BIGINT,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS bids (
			id UUID PRIMARY KEY,
			lot_id BIGINT REFERENCES lots(lot_id),
			user_id BIGINT,
			amount DECIMAL(10,2) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(lot_id, user_id, amount)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lots_status ON lots(status)`,
		`CREATE INDEX IF NOT EXISTS idx_lots_start_time ON lots(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_lots_end_time ON lots(end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bids_lot_id ON bids(lot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bids_user_id ON bids(user_id)`,
	}

	return client.ExecuteTransaction(func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
		}
		return nil
	})
}
