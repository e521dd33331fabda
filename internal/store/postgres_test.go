package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ledgerline/matching/internal/orderbook"
)

func TestOnOrderSubmittedUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO matching_orders").
		WithArgs(int64(1), "", "BTC-USD", int(orderbook.Buy), int(orderbook.Limit), int64(100), int64(0), int64(5), int64(5), int64(1), int64(0), int(orderbook.New)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := NewPostgres(db)
	o := &orderbook.Order{ID: 1, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Limit, Price: 100, OriginalQuantity: 5, RemainingQuantity: 5, UserID: 1}
	if err := p.OnOrderSubmitted(context.Background(), o); err != nil {
		t.Fatalf("OnOrderSubmitted: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOnOrderUpdated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE matching_orders").
		WithArgs(int64(1), int64(2), int(orderbook.PartiallyFilled)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := NewPostgres(db)
	o := &orderbook.Order{ID: 1, RemainingQuantity: 2, Status: orderbook.PartiallyFilled}
	if err := p.OnOrderUpdated(context.Background(), o); err != nil {
		t.Fatalf("OnOrderUpdated: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOnTradeInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO matching_trades").
		WithArgs(int64(1), "BTC-USD", int64(100), int64(5), int64(2), int64(3), int64(20), int64(30), int64(2), int64(3), int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := NewPostgres(db)
	tr := &orderbook.Trade{ID: 1, Symbol: "BTC-USD", Price: 100, Quantity: 5, BuyOrderID: 2, SellOrderID: 3, BuyUserID: 20, SellUserID: 30, MakerOrderID: 2, TakerOrderID: 3}
	if err := p.OnTrade(context.Background(), tr); err != nil {
		t.Fatalf("OnTrade: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadAllScansOpenOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"order_id", "client_id", "symbol", "side", "kind", "price", "stop_price",
		"original_quantity", "remaining_quantity", "user_id", "ts", "status",
	}).AddRow(int64(1), "c1", "BTC-USD", int(orderbook.Buy), int(orderbook.Limit), int64(100), int64(0), int64(5), int64(3), int64(1), int64(0), int(orderbook.PartiallyFilled))

	mock.ExpectQuery("SELECT order_id").
		WithArgs("BTC-USD", int(orderbook.New), int(orderbook.PartiallyFilled)).
		WillReturnRows(rows)

	p := NewPostgres(db)
	orders, err := p.LoadAll(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != 1 || orders[0].RemainingQuantity != 3 {
		t.Fatalf("unexpected orders: %+v", orders)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
