package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerline/matching/internal/orderbook"
	"github.com/ledgerline/matching/internal/tracing"
)

// RedisStream publishes trade and order-update events onto Redis Streams
// for downstream fan-out, and makes OnOrderSubmitted idempotent under
// retry via a SetNX dedupe guard, grounded on
// exchange-matching/internal/handler/handler.go's publishEvent/shouldProcess
// pattern.
type RedisStream struct {
	client      *redis.Client
	tradeStream string
	orderStream string
	dedupeTTL   time.Duration
}

// NewRedisStream wraps client, publishing trades to tradeStream and order
// updates to orderStream.
func NewRedisStream(client *redis.Client, tradeStream, orderStream string) *RedisStream {
	return &RedisStream{
		client:      client,
		tradeStream: tradeStream,
		orderStream: orderStream,
		dedupeTTL:   24 * time.Hour,
	}
}

type orderEvent struct {
	OrderID           int64  `json:"orderId"`
	ClientID          string `json:"clientId"`
	Symbol            string `json:"symbol"`
	Side              string `json:"side"`
	Kind              string `json:"kind"`
	Price             int64  `json:"price"`
	RemainingQuantity int64  `json:"remainingQuantity"`
	Status            string `json:"status"`
}

// OnOrderSubmitted dedupes on order id (a retried delivery of the same
// submission is a no-op) and publishes the order's initial state.
func (r *RedisStream) OnOrderSubmitted(ctx context.Context, o *orderbook.Order) error {
	key := fmt.Sprintf("dedupe:submit:%d", o.ID)
	timeoutCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	ok, err := r.client.SetNX(timeoutCtx, key, "1", r.dedupeTTL).Result()
	if err != nil {
		return fmt.Errorf("store: dedupe check for order %d: %w", o.ID, err)
	}
	if !ok {
		return nil
	}
	return r.publishOrder(ctx, o)
}

// OnOrderUpdated publishes the order's current state unconditionally.
func (r *RedisStream) OnOrderUpdated(ctx context.Context, o *orderbook.Order) error {
	return r.publishOrder(ctx, o)
}

// LoadAll always returns no orders: a stream is a fan-out sink, not a
// queryable warm-start source of truth. It exists so RedisStream satisfies
// store.OrderStore alongside Postgres in a fan-out.
func (r *RedisStream) LoadAll(ctx context.Context, symbol string) ([]*orderbook.Order, error) {
	return nil, nil
}

func (r *RedisStream) publishOrder(ctx context.Context, o *orderbook.Order) error {
	payload, err := json.Marshal(orderEvent{
		OrderID:           o.ID,
		ClientID:          o.ClientID,
		Symbol:            o.Symbol,
		Side:              o.Side.String(),
		Kind:              o.Kind.String(),
		Price:             o.Price,
		RemainingQuantity: o.RemainingQuantity,
		Status:            o.Status.String(),
	})
	if err != nil {
		return fmt.Errorf("store: marshal order %d: %w", o.ID, err)
	}
	return r.publish(ctx, r.orderStream, payload)
}

// OnTrade publishes a trade onto the trade stream.
func (r *RedisStream) OnTrade(ctx context.Context, t *orderbook.Trade) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("store: marshal trade %d: %w", t.ID, err)
	}
	return r.publish(ctx, r.tradeStream, payload)
}

// publish retries XAdd with exponential backoff until ctx is done, grounded
// on handler.go's publishEvent.
func (r *RedisStream) publish(ctx context.Context, stream string, payload []byte) error {
	ctx, span := tracing.StartSpan(ctx, "store.publish")
	defer span.End()

	backoff := 200 * time.Millisecond
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sendCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := r.client.XAdd(sendCtx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{"data": string(payload)},
		}).Result()
		cancel()
		if err == nil {
			return nil
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}
