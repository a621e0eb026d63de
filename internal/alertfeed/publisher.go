package alertfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	alertQueueKey = "alert_events"
)

// Типы событий ленты тревог
const (
	EventActivated   = "activated"
	EventResolved    = "resolved"
	EventResolvedAll = "resolved_all"
)

// Event - событие ленты тревог для внешних потребителей
type Event struct {
	Type       string    `json:"type"`
	IncidentID uuid.UUID `json:"incident_id,omitempty"`
	Category   string    `json:"category,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	District   string    `json:"district,omitempty"`
	Latitude   float64   `json:"latitude,omitempty"`
	Longitude  float64   `json:"longitude,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher - интерфейс для публикации событий тревог
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher - реализация Publisher, использующая очередь в Redis
type RedisPublisher struct {
	redisClient *redis.Client
}

// NewRedisPublisher создает новый RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		redisClient: client,
	}
}

// Publish публикует событие тревоги в очередь Redis
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	// LPUSH добавляет событие в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, alertQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish alert event to Redis: %w", err)
	}
	return nil
}
