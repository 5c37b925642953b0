package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cenolover-auction-engine/internal/adapters/broadcast"
	"cenolover-auction-engine/internal/adapters/db"
	"cenolover-auction-engine/internal/adapters/gate"
	"cenolover-auction-engine/internal/adapters/redis"
	"cenolover-auction-engine/internal/adapters/scheduler"
	"cenolover-auction-engine/internal/adapters/ws"
	"cenolover-auction-engine/internal/app"
	"cenolover-auction-engine/internal/config"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Cenolover Auction Engine...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	if err := dbConn.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database schema")
	}

	log.Info().Msg("Database connection established")

	// Create repositories
	repoFactory := db.NewRepositoryFactory(dbConn, cfg)
	lotRepo := repoFactory.GetLotRepository()
	bidRepo := repoFactory.GetBidRepository()
	userRepo := repoFactory.GetUserRepository()

	log.Info().Msg("Database repositories initialized")

	// Create Redis client for the outbound transport
	redisClient := redis.NewClient(cfg)
	if err := redis.PingRedis(redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	redisBroadcast := broadcast.NewBroadcast(broadcast.RedisBroadcastParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})
	log.Info().Msg("Redis broadcast initialized")

	// Create notification fanout
	fanout := app.NewFanout(app.FanoutParams{
		Notifier: redisBroadcast,
		Logger:   log.Logger,
	})

	// Create admission gate
	admissionGate := gate.NewGate(gate.GateParams{
		Limit:  cfg.Admission.RateLimit,
		Window: cfg.Admission.RateWindow,
		Logger: log.Logger,
	})

	// Create business services
	lotService := app.NewLotService(app.LotServiceParams{
		LotRepo:   lotRepo,
		UserRepo:  userRepo,
		Publisher: redisBroadcast,
		Config:    cfg,
		Logger:    log.Logger,
	})
	bidService := app.NewBidService(app.BidServiceParams{
		BidRepo:  bidRepo,
		UserRepo: userRepo,
		Gate:     admissionGate,
		Fanout:   fanout,
		Logger:   log.Logger,
	})

	log.Info().Msg("Business services initialized")

	// Create and start the lifecycle scheduler
	lotScheduler := scheduler.NewLotScheduler(scheduler.LotSchedulerParams{
		LotRepo:   lotRepo,
		Publisher: redisBroadcast,
		Winners:   fanout,
		Config:    cfg,
		Logger:    log.Logger,
	})

	lotScheduler.Start()
	log.Info().Msg("Lot scheduler started")

	wsServer := ws.NewServer(ws.ServerParams{
		Config:     cfg,
		LotService: lotService,
		BidService: bidService,
		Logger:     log.Logger,
	})

	log.Info().Msg("Gateway server initialized")

	// Start gateway server
	go func() {
		if err := wsServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start gateway server")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	lotScheduler.Stop()
	log.Info().Msg("Lot scheduler stopped")

	fanout.Stop()
	log.Info().Msg("Notification fanout drained")

	if err := wsServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping gateway server")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
