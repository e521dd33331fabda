// Package store implements the Order store and Trade store collaborators
// named by the matching core's external interfaces: sinks the core never
// calls directly, consulted only by callers that sit beside it.
package store

import (
	"context"

	"github.com/ledgerline/matching/internal/orderbook"
)

// OrderStore is the sink/source collaborator for order lifecycle events
// and warm-start recovery.
type OrderStore interface {
	OnOrderSubmitted(ctx context.Context, o *orderbook.Order) error
	OnOrderUpdated(ctx context.Context, o *orderbook.Order) error
	LoadAll(ctx context.Context, symbol string) ([]*orderbook.Order, error)
}

// TradeStore is the sink collaborator called once per produced Trade.
type TradeStore interface {
	OnTrade(ctx context.Context, t *orderbook.Trade) error
}
