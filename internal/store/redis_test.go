package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerline/matching/internal/orderbook"
)

func newTestRedisStream(t *testing.T) (*RedisStream, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStream(client, "trades", "orders"), mr
}

func TestOnOrderSubmittedPublishesOnce(t *testing.T) {
	rs, mr := newTestRedisStream(t)
	ctx := context.Background()

	o := &orderbook.Order{ID: 1, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Limit, Price: 100, RemainingQuantity: 5}
	if err := rs.OnOrderSubmitted(ctx, o); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := rs.OnOrderSubmitted(ctx, o); err != nil {
		t.Fatalf("retried submit: %v", err)
	}

	entries, err := mr.Stream("orders")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	length := len(entries)
	if length != 1 {
		t.Fatalf("expected the retried submit to be deduped, got stream length %d", length)
	}
}

func TestOnTradePublishes(t *testing.T) {
	rs, mr := newTestRedisStream(t)
	ctx := context.Background()

	tr := &orderbook.Trade{ID: 1, Symbol: "BTC-USD", Price: 100, Quantity: 1, BuyOrderID: 2, SellOrderID: 3}
	if err := rs.OnTrade(ctx, tr); err != nil {
		t.Fatalf("OnTrade: %v", err)
	}

	entries, err := mr.Stream("trades")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	length := len(entries)
	if length != 1 {
		t.Fatalf("expected 1 trade event, got stream length %d", length)
	}
}

func TestOnOrderUpdatedAlwaysPublishes(t *testing.T) {
	rs, mr := newTestRedisStream(t)
	ctx := context.Background()

	o := &orderbook.Order{ID: 1, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Limit, Price: 100, RemainingQuantity: 3, Status: orderbook.PartiallyFilled}
	if err := rs.OnOrderUpdated(ctx, o); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := rs.OnOrderUpdated(ctx, o); err != nil {
		t.Fatalf("second update: %v", err)
	}

	entries, err := mr.Stream("orders")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	length := len(entries)
	if length != 2 {
		t.Fatalf("expected updates to publish every call, got stream length %d", length)
	}
}

func TestLoadAllReturnsNoRows(t *testing.T) {
	rs, _ := newTestRedisStream(t)
	orders, err := rs.LoadAll(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orders != nil {
		t.Fatalf("expected no orders from a stream, got %+v", orders)
	}
}
