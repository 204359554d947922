package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/gomoku/backend/internal/logger"
)

// execer is the subset of *sql.DB the consumer writes through.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Consumer handles consuming and processing game events
type Consumer struct {
	consumer sarama.ConsumerGroup
	db       execer
}

// ConsumerGroupHandler implements the sarama.ConsumerGroupHandler interface
type ConsumerGroupHandler struct {
	db execer
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, groupID string, db *sql.DB) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &Consumer{consumer: group, db: db}, nil
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, topics []string) error {
	handler := &ConsumerGroupHandler{db: c.db}
	for {
		if err := c.consumer.Consume(ctx, topics, handler); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Setup is run before consuming begins
func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run when consuming ends
func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages of one partition in order. A message that
// cannot be processed goes to failed_events and is still marked.
func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			ctx := session.Context()
			if err := h.handleMessage(ctx, msg.Value); err != nil {
				logger.Warn("analytics event failed",
					zap.String("topic", msg.Topic),
					zap.Int32("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
				h.storeFailed(ctx, msg, err)
			}
			session.MarkMessage(msg, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *ConsumerGroupHandler) handleMessage(ctx context.Context, value []byte) error {
	var event GameEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("error unmarshaling event: %w", err)
	}
	if err := h.processEvent(ctx, event); err != nil {
		return fmt.Errorf("error processing %s event: %w", event.Type, err)
	}
	return nil
}

func (h *ConsumerGroupHandler) storeFailed(ctx context.Context, msg *sarama.ConsumerMessage, cause error) {
	_, err := h.db.ExecContext(ctx, insertFailedEventSQL,
		msg.Topic, msg.Partition, msg.Offset, string(msg.Value), cause.Error())
	if err != nil {
		logger.Error("error storing failed message", zap.Error(err))
	}
}

// Database schema for analytics
const (
	CreateAnalyticsTableSQL = `
		CREATE TABLE IF NOT EXISTS game_analytics (
			game_id TEXT,
			event_type TEXT,
			event_time TIMESTAMP,
			player TEXT,
			additional_data JSONB
		);
		CREATE TABLE IF NOT EXISTS failed_events (
			topic TEXT,
			partition INT,
			"offset" BIGINT,
			message TEXT,
			error TEXT,
			timestamp TIMESTAMP
		)`

	insertAnalyticsSQL = `
		INSERT INTO game_analytics (game_id, event_type, event_time, player, additional_data)
		VALUES ($1, $2, $3, $4, $5)`

	insertFailedEventSQL = `
		INSERT INTO failed_events (topic, partition, "offset", message, error, timestamp)
		VALUES ($1, $2, $3, $4, $5, NOW())`
)

// processEvent handles different types of game events
func (h *ConsumerGroupHandler) processEvent(ctx context.Context, event GameEvent) error {
	switch event.Type {
	case EventRoundEnd:
		return h.processRoundEndEvent(ctx, event)
	case EventStonePlaced:
		return h.processStoneEvent(ctx, event)
	case EventPlayerJoin, EventPlayerLeave, EventGameMode, EventSwapDecision, EventForfeit:
		return h.processPlayerEvent(ctx, event)
	case EventGameStart:
		return h.insert(ctx, event, "", event.Data)
	}
	return nil
}

func (h *ConsumerGroupHandler) processRoundEndEvent(ctx context.Context, event GameEvent) error {
	winner, ok := event.Data["winner"].(string)
	if !ok {
		return fmt.Errorf("invalid winner data")
	}
	isTie, ok := event.Data["isTie"].(bool)
	if !ok {
		return fmt.Errorf("invalid isTie data")
	}
	turns, ok := event.Data["turns"].(float64)
	if !ok {
		return fmt.Errorf("invalid turns data")
	}
	return h.insert(ctx, event, winner, map[string]interface{}{
		"isTie": isTie,
		"turns": turns,
	})
}

func (h *ConsumerGroupHandler) processStoneEvent(ctx context.Context, event GameEvent) error {
	player, ok := event.Data["player"].(string)
	if !ok {
		return fmt.Errorf("invalid player data")
	}
	x, ok := event.Data["x"].(float64)
	if !ok {
		return fmt.Errorf("invalid x data")
	}
	y, ok := event.Data["y"].(float64)
	if !ok {
		return fmt.Errorf("invalid y data")
	}
	return h.insert(ctx, event, player, map[string]interface{}{
		"x":      x,
		"y":      y,
		"colour": event.Data["colour"],
		"turn":   event.Data["turn"],
	})
}

func (h *ConsumerGroupHandler) processPlayerEvent(ctx context.Context, event GameEvent) error {
	player, ok := event.Data["player"].(string)
	if !ok {
		return fmt.Errorf("invalid player data")
	}
	extra := make(map[string]interface{})
	for k, v := range event.Data {
		if k != "player" {
			extra[k] = v
		}
	}
	return h.insert(ctx, event, player, extra)
}

func (h *ConsumerGroupHandler) insert(ctx context.Context, event GameEvent, player string, extra map[string]interface{}) error {
	var jsonData []byte
	if len(extra) > 0 {
		var err error
		if jsonData, err = json.Marshal(extra); err != nil {
			return err
		}
	}
	_, err := h.db.ExecContext(ctx, insertAnalyticsSQL,
		event.GameID, event.Type, event.Timestamp, player, jsonData)
	return err
}

// Close closes the consumer group
func (c *Consumer) Close() error {
	return c.consumer.Close()
}
