package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, event Event) error

// Subscriber consumes one stream as a member of a consumer group. Entries are
// acked once the handler succeeds. An entry whose handler fails stays in the
// group's pending list and is claimed back with XAUTOCLAIM after ClaimIdle,
// so a transient failure is retried rather than lost. Malformed entries are
// acked and dropped.
type Subscriber struct {
	client        *redis.Client
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	claimIdle     time.Duration
	logger        *zap.Logger
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	// ClaimIdle is how long an entry must sit unacked before it is redelivered.
	ClaimIdle time.Duration
	Logger    *zap.Logger
}

func NewSubscriber(client *redis.Client, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.ClaimIdle == 0 {
		config.ClaimIdle = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		claimIdle:     config.ClaimIdle,
		logger: config.Logger.With(
			zap.String("stream", config.Stream),
			zap.String("group", config.Group),
			zap.String("consumer", config.Consumer),
		),
	}
}

// Start consumes the stream until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	s.logger.Info("subscriber started")

	for {
		if ctx.Err() != nil {
			s.logger.Info("subscriber stopping")
			return ctx.Err()
		}
		if err := s.poll(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("error reading messages", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// poll retries stale pending entries, then waits for new ones.
func (s *Subscriber) poll(ctx context.Context) error {
	if err := s.reclaimPending(ctx); err != nil {
		return err
	}
	return s.readNew(ctx)
}

func (s *Subscriber) reclaimPending(ctx context.Context) error {
	start := "0-0"
	for {
		messages, next, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   s.stream,
			Group:    s.group,
			Consumer: s.consumer,
			MinIdle:  s.claimIdle,
			Start:    start,
			Count:    s.batchSize,
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to claim pending messages: %w", err)
		}
		if len(messages) > 0 {
			s.logger.Info("retrying pending messages", zap.Int("count", len(messages)))
		}
		s.handleAll(ctx, messages)
		if next == "0-0" || next == "" || len(messages) == 0 {
			return nil
		}
		start = next
	}
}

func (s *Subscriber) readNew(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		s.handleAll(ctx, stream.Messages)
	}
	return nil
}

func (s *Subscriber) handleAll(ctx context.Context, messages []redis.XMessage) {
	for _, message := range messages {
		err := s.processMessage(ctx, message)
		switch {
		case errors.Is(err, ErrMalformedEvent):
			s.logger.Error("dropping malformed message", zap.String("message_id", message.ID), zap.Error(err))
		case err != nil:
			s.logger.Warn("failed to process message, will retry",
				zap.String("message_id", message.ID),
				zap.Duration("retry_after", s.claimIdle),
				zap.Error(err),
			)
			continue
		}
		if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
			s.logger.Warn("failed to ack message", zap.String("message_id", message.ID), zap.Error(err))
		}
	}
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("%w: no event field", ErrMalformedEvent)
	}

	var event Event
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	return s.handler(ctx, event)
}
