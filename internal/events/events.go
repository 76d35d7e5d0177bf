// Package events publishes product lifecycle notifications after a catalog
// write has committed. Publishing is best effort: the catalog never fails a
// request because an event could not be delivered.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/NoorShal/lamma-backend-test/internal/infra"

	"github.com/redis/go-redis/v9"
)

const DefaultQueue = "events:catalog"

type Type string

const (
	ProductCreated Type = "product.created"
	ProductUpdated Type = "product.updated"
	ProductDeleted Type = "product.deleted"
)

// Event is the envelope pushed to the queue.
type Event struct {
	Type       Type      `json:"type"`
	ProductID  string    `json:"product_id"`
	SKU        string    `json:"sku"`
	Variations int       `json:"variations"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers catalog events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// RedisPublisher LPUSHes JSON events onto a Redis list; consumers BRPOP them.
// Calls go through a circuit breaker so an unavailable Redis fails fast.
type RedisPublisher struct {
	rdb   *redis.Client
	queue string
	cb    *infra.Breaker
}

func NewRedisPublisher(rdb *redis.Client, queue string, cb *infra.Breaker) *RedisPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	if cb == nil {
		cb = infra.NewBreaker(infra.EventsBreakerConfig())
	}
	return &RedisPublisher{rdb: rdb, queue: queue, cb: cb}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.cb.Do(func() error {
		return p.rdb.LPush(ctx, p.queue, data).Err()
	})
}

// Breaker exposes the breaker for health reporting.
func (p *RedisPublisher) Breaker() *infra.Breaker { return p.cb }

// Queue returns the list key events are pushed to.
func (p *RedisPublisher) Queue() string { return p.queue }
