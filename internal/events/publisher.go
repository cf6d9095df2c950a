package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "stock-changes"

type Direction string

const (
	DirectionDeduct Direction = "deduct"
	DirectionReturn Direction = "return"
)

// StockChange tells listeners that a job part moved stock and totals should be re-read.
type StockChange struct {
	ShopID     uuid.UUID `json:"shop_id"`
	ItemID     uuid.UUID `json:"item_id"`
	JobID      uuid.UUID `json:"job_id"`
	JobPartID  uuid.UUID `json:"job_part_id"`
	Quantity   int       `json:"quantity"`
	Direction  Direction `json:"direction"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, change StockChange) error
}

// RedisPublisher publishes JSON-encoded changes on a Pub/Sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, change StockChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode stock change: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish stock change to %s: %w", p.channel, err)
	}
	return nil
}

// MemoryPublisher records changes in order.
type MemoryPublisher struct {
	mu      sync.Mutex
	changes []StockChange
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(ctx context.Context, change StockChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
	return nil
}

// Changes returns a copy of everything published so far.
func (p *MemoryPublisher) Changes() []StockChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]StockChange, len(p.changes))
	copy(out, p.changes)
	return out
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, StockChange) error { return nil }
