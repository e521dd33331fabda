package store

import (
	"context"
	"database/sql"
	"fmt"

	// lib/pq registers the "postgres" driver used by database/sql below.
	_ "github.com/lib/pq"

	"github.com/ledgerline/matching/internal/orderbook"
	"github.com/ledgerline/matching/internal/tracing"
)

// Postgres is the durable OrderStore/TradeStore implementation, grounded on
// exchange-matching/internal/recovery/order_loader.go: it persists every
// order/trade event and answers the warm-start LoadAll query by reading
// back resting orders for a symbol.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres opens dsn with the lib/pq driver.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// NewPostgres wraps an already-open *sql.DB, used by tests with go-sqlmock.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Close() error { return p.db.Close() }

// OnOrderSubmitted upserts o's current state into the orders table.
func (p *Postgres) OnOrderSubmitted(ctx context.Context, o *orderbook.Order) error {
	ctx, span := tracing.StartSpan(ctx, "store.OnOrderSubmitted")
	defer span.End()

	const q = `
		INSERT INTO matching_orders
			(order_id, client_id, symbol, side, kind, price, stop_price,
			 original_quantity, remaining_quantity, user_id, ts, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (order_id) DO UPDATE SET
			remaining_quantity = EXCLUDED.remaining_quantity,
			status = EXCLUDED.status
	`
	_, err := p.db.ExecContext(ctx, q,
		o.ID, o.ClientID, o.Symbol, int(o.Side), int(o.Kind), o.Price, o.StopPrice,
		o.OriginalQuantity, o.RemainingQuantity, o.UserID, o.Timestamp, int(o.Status),
	)
	if err != nil {
		err = fmt.Errorf("store: insert order %d: %w", o.ID, err)
		tracing.SetError(ctx, err)
		return err
	}
	return nil
}

// OnOrderUpdated records a change in remaining quantity or status.
func (p *Postgres) OnOrderUpdated(ctx context.Context, o *orderbook.Order) error {
	const q = `
		UPDATE matching_orders
		SET remaining_quantity = $2, status = $3
		WHERE order_id = $1
	`
	_, err := p.db.ExecContext(ctx, q, o.ID, o.RemainingQuantity, int(o.Status))
	if err != nil {
		return fmt.Errorf("store: update order %d: %w", o.ID, err)
	}
	return nil
}

// OnTrade inserts a Trade row.
func (p *Postgres) OnTrade(ctx context.Context, t *orderbook.Trade) error {
	ctx, span := tracing.StartSpan(ctx, "store.OnTrade")
	defer span.End()

	const q = `
		INSERT INTO matching_trades
			(trade_id, symbol, price, quantity, buy_order_id, sell_order_id,
			 buy_user_id, sell_user_id, maker_order_id, taker_order_id, ts)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`
	_, err := p.db.ExecContext(ctx, q,
		t.ID, t.Symbol, t.Price, t.Quantity, t.BuyOrderID, t.SellOrderID,
		t.BuyUserID, t.SellUserID, t.MakerOrderID, t.TakerOrderID, t.Timestamp,
	)
	if err != nil {
		err = fmt.Errorf("store: insert trade %d: %w", t.ID, err)
		tracing.SetError(ctx, err)
		return err
	}
	return nil
}

// LoadAll returns every still-open resting order for symbol, ordered by
// arrival, for internal/engine.Book.LoadAll to warm-start a book after a
// restart, grounded on order_loader.go's LoadOpenOrders query.
func (p *Postgres) LoadAll(ctx context.Context, symbol string) ([]*orderbook.Order, error) {
	const q = `
		SELECT order_id, client_id, symbol, side, kind, price, stop_price,
		       original_quantity, remaining_quantity, user_id, ts, status
		FROM matching_orders
		WHERE symbol = $1 AND remaining_quantity > 0
		  AND status IN ($2, $3)
		ORDER BY ts ASC, order_id ASC
	`
	rows, err := p.db.QueryContext(ctx, q, symbol, int(orderbook.New), int(orderbook.PartiallyFilled))
	if err != nil {
		return nil, fmt.Errorf("store: load all for %s: %w", symbol, err)
	}
	defer rows.Close()

	var orders []*orderbook.Order
	for rows.Next() {
		o := &orderbook.Order{}
		var side, kind, status int
		if err := rows.Scan(
			&o.ID, &o.ClientID, &o.Symbol, &side, &kind, &o.Price, &o.StopPrice,
			&o.OriginalQuantity, &o.RemainingQuantity, &o.UserID, &o.Timestamp, &status,
		); err != nil {
			return nil, fmt.Errorf("store: scan order: %w", err)
		}
		o.Side = orderbook.Side(side)
		o.Kind = orderbook.Kind(kind)
		o.Status = orderbook.Status(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate orders for %s: %w", symbol, err)
	}
	return orders, nil
}
