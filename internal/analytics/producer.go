package analytics

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
)

// GameEvent represents an event in the game
type GameEvent struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	GameID    string                 `json:"gameId"`
	Data      map[string]interface{} `json:"data"`
}

// EventType constants
const (
	EventPlayerJoin   = "player_join"
	EventPlayerLeave  = "player_leave"
	EventGameMode     = "game_mode"
	EventGameStart    = "game_start"
	EventStonePlaced  = "stone_placed"
	EventSwapDecision = "swap_decision"
	EventForfeit      = "forfeit"
	EventRoundEnd     = "round_end"
)

// Producer handles sending events to Kafka
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return newProducer(producer, topic), nil
}

func newProducer(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: producer, topic: topic}
}

// SendEvent publishes a game event keyed by game id, so all events of one
// game land on the same partition in order.
func (p *Producer) SendEvent(event GameEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.GameID),
		Value: sarama.ByteEncoder(payload),
	}

	_, _, err = p.producer.SendMessage(msg)
	return err
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.producer.Close()
}

func newEvent(eventType, gameID string, data map[string]interface{}) GameEvent {
	return GameEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		GameID:    gameID,
		Data:      data,
	}
}

// CreatePlayerEvent creates a player join/leave event
func CreatePlayerEvent(eventType, gameID, player string) GameEvent {
	return newEvent(eventType, gameID, map[string]interface{}{
		"player": player,
	})
}

func CreateGameModeEvent(gameID, player, ruleset string) GameEvent {
	return newEvent(EventGameMode, gameID, map[string]interface{}{
		"player":  player,
		"ruleset": ruleset,
	})
}

// CreateGameStartEvent creates a game start event
func CreateGameStartEvent(gameID, ruleset string, players []string) GameEvent {
	return newEvent(EventGameStart, gameID, map[string]interface{}{
		"ruleset": ruleset,
		"players": players,
	})
}

// CreateStoneEvent creates a stone placement event
func CreateStoneEvent(gameID, player string, x, y int, colour string, turn int) GameEvent {
	return newEvent(EventStonePlaced, gameID, map[string]interface{}{
		"player": player,
		"x":      x,
		"y":      y,
		"colour": colour,
		"turn":   turn,
	})
}

func CreateSwapDecisionEvent(gameID, player, decision string, turn int) GameEvent {
	return newEvent(EventSwapDecision, gameID, map[string]interface{}{
		"player":   player,
		"decision": decision,
		"turn":     turn,
	})
}

func CreateForfeitEvent(gameID, player string) GameEvent {
	return newEvent(EventForfeit, gameID, map[string]interface{}{
		"player": player,
	})
}

// CreateRoundEndEvent creates a round end event. winner is empty for ties.
func CreateRoundEndEvent(gameID, winner string, isTie bool, turns int) GameEvent {
	return newEvent(EventRoundEnd, gameID, map[string]interface{}{
		"winner": winner,
		"isTie":  isTie,
		"turns":  turns,
	})
}
