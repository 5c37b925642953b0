package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cenolover-auction-engine/internal/domain/lot"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	lotChannel     = "channel:lots"
	lotRefSequence = "channel:lots:seq"
	userChannelFmt = "user:%d"
)

// RedisBroadcast carries channel publications and participant notifications
// over Redis pub/sub. The chat transport consumes these channels and renders
// the actual platform messages; the engine only hands over the payloads.
type RedisBroadcast struct {
	client *redis.Client
	logger zerolog.Logger
}

type RedisBroadcastParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

func NewBroadcast(params RedisBroadcastParams) *RedisBroadcast {
	return &RedisBroadcast{
		client: params.RedisClient,
		logger: params.Logger.With().Str("component", "redis_broadcast").Logger(),
	}
}

// lotAnnouncement is the payload the channel transport renders into a post
type lotAnnouncement struct {
	Ref        int64   `json:"ref"`
	LotID      int64   `json:"lot_id"`
	Name       string  `json:"name"`
	Article    string  `json:"article"`
	StartPrice float64 `json:"start_price"`
	EndTime    string  `json:"end_time,omitempty"`
	Text       string  `json:"text"`
}

// Publish announces an activated lot on the public lot channel and returns
// the publication handle the transport will use for later edits
func (b *RedisBroadcast) Publish(ctx context.Context, l *lot.Lot) (int64, error) {
	ref, err := b.client.Incr(ctx, lotRefSequence).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate publication ref: %w", err)
	}

	announcement := lotAnnouncement{
		Ref:        ref,
		LotID:      l.ID,
		Name:       l.Name,
		Article:    l.Article,
		StartPrice: l.StartPrice,
		Text: fmt.Sprintf("Auction #%d: %s (article %s), starting price %.2f",
			l.ID, l.Name, l.Article, l.StartPrice),
	}
	if l.EndTime != nil {
		announcement.EndTime = l.EndTime.Format(time.RFC3339)
	}

	payload, err := json.Marshal(announcement)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal announcement: %w", err)
	}

	if err := b.client.Publish(ctx, lotChannel, payload).Err(); err != nil {
		b.logger.Error().Err(err).Int64("lot_id", l.ID).Msg("Failed to publish lot")
		return 0, fmt.Errorf("failed to publish lot: %w", err)
	}

	b.logger.Info().
		Int64("lot_id", l.ID).
		Int64("ref", ref).
		Msg("Lot published to channel")

	return ref, nil
}

// notification is the payload the chat transport delivers to one participant
type notification struct {
	UserID    int64  `json:"user_id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Notify delivers a message to a single participant, fire-and-forget
func (b *RedisBroadcast) Notify(ctx context.Context, userID int64, message string) error {
	payload, err := json.Marshal(notification{
		UserID:    userID,
		Text:      message,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	channelName := fmt.Sprintf(userChannelFmt, userID)
	if err := b.client.Publish(ctx, channelName, payload).Err(); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to publish notification")
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}
