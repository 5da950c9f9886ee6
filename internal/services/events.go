package services

import (
	"context"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
)

// Request feed kinds published on the event bus.
const (
	FeedActivations = "activations"
	FeedWithdrawals = "withdrawals"
	FeedTasks       = "tasks"
)

// EventBus broadcasts change notifications over Redis pub/sub so clients
// can refresh their local caches instead of polling. With no Redis client
// every publish is a no-op.
type EventBus struct {
	redis *redis.Client
}

func NewEventBus(rdb *redis.Client) *EventBus {
	return &EventBus{redis: rdb}
}

func accountChannel(userID int) string {
	return fmt.Sprintf("jioearn:events:user:%d", userID)
}

func requestsChannel(kind string) string {
	return fmt.Sprintf("jioearn:events:requests:%s", kind)
}

// PublishAccountChanged signals that the ledger fields of one account
// changed. Delivery is best-effort; failures are logged, never returned.
func (b *EventBus) PublishAccountChanged(ctx context.Context, userID int) {
	if b.redis == nil {
		return
	}
	if err := b.redis.Publish(ctx, accountChannel(userID), "changed").Err(); err != nil {
		log.Printf("[EVENTS] Failed to publish account change for user %d: %v", userID, err)
	}
}

// PublishRequestsChanged signals that one of the request feeds changed.
func (b *EventBus) PublishRequestsChanged(ctx context.Context, kind string) {
	if b.redis == nil {
		return
	}
	if err := b.redis.Publish(ctx, requestsChannel(kind), "changed").Err(); err != nil {
		log.Printf("[EVENTS] Failed to publish %s feed change: %v", kind, err)
	}
}

// SubscribeAccountChanged delivers a signal for every change to the given
// account. The returned cancel func must be called to release the
// subscription. Returns a closed channel when Redis is unavailable.
func (b *EventBus) SubscribeAccountChanged(ctx context.Context, userID int) (<-chan struct{}, func()) {
	return b.subscribe(ctx, accountChannel(userID))
}

// SubscribeRequestsChanged delivers a signal for every change to the given
// request feed.
func (b *EventBus) SubscribeRequestsChanged(ctx context.Context, kind string) (<-chan struct{}, func()) {
	return b.subscribe(ctx, requestsChannel(kind))
}

func (b *EventBus) subscribe(ctx context.Context, channel string) (<-chan struct{}, func()) {
	out := make(chan struct{}, 1)
	if b.redis == nil {
		close(out)
		return out, func() {}
	}

	sub := b.redis.Subscribe(ctx, channel)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				_ = msg
				// Coalesce: a pending signal is enough.
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, func() { sub.Close() }
}
