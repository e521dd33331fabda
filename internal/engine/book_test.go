package engine

import (
	"testing"

	"github.com/ledgerline/matching/internal/orderbook"
)

func limit(id int64, side orderbook.Side, price, qty, userID int64) *orderbook.Order {
	return &orderbook.Order{
		ID: id, Symbol: "BTC-USD", Side: side, Kind: orderbook.Limit,
		Price: price, OriginalQuantity: qty, RemainingQuantity: qty, UserID: userID,
	}
}

func TestProcessOrderLimitRests(t *testing.T) {
	bk := NewBook("BTC-USD")
	result := bk.ProcessOrder(limit(1, orderbook.Buy, 100, 5, 1))
	if result.Reject != nil {
		t.Fatalf("unexpected reject: %v", result.Reject)
	}
	if bid, ok := bk.BestBid(); !ok || bid != 100 {
		t.Fatalf("expected resting bid at 100, got %d ok=%v", bid, ok)
	}
}

func TestProcessOrderDuplicateIDRejected(t *testing.T) {
	bk := NewBook("BTC-USD")
	bk.ProcessOrder(limit(1, orderbook.Buy, 100, 5, 1))
	result := bk.ProcessOrder(limit(1, orderbook.Buy, 100, 5, 1))
	if result.Reject == nil {
		t.Fatalf("expected duplicate id to be rejected")
	}
}

func TestProcessOrderMarketEmptyBookRejected(t *testing.T) {
	bk := NewBook("BTC-USD")
	order := &orderbook.Order{ID: 1, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Market, OriginalQuantity: 1, RemainingQuantity: 1, UserID: 1}
	result := bk.ProcessOrder(order)
	if result.Reject == nil {
		t.Fatalf("expected reject for market order against empty book")
	}
}

// S4 — IOC leaves no residual.
func TestIOCCancelsResidual(t *testing.T) {
	bk := NewBook("BTC-USD")
	bk.ProcessOrder(limit(30, orderbook.Sell, 1000, 1, 1))

	order := &orderbook.Order{ID: 31, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.IOC, Price: 1000, OriginalQuantity: 3, RemainingQuantity: 3, UserID: 2}
	result := bk.ProcessOrder(order)
	if len(result.Trades) != 1 || result.Trades[0].Quantity != 1 {
		t.Fatalf("unexpected trades: %+v", result.Trades)
	}
	if order.Status != orderbook.Cancelled || order.RemainingQuantity != 2 {
		t.Fatalf("expected status Cancelled remaining=2, got status=%v remaining=%d", order.Status, order.RemainingQuantity)
	}
	if _, ok := bk.BestBid(); ok {
		t.Fatalf("expected no residual resting on bids")
	}
}

// S5 — FOK kill.
func TestFOKRejectsWhenUnreachable(t *testing.T) {
	bk := NewBook("BTC-USD")
	bk.ProcessOrder(limit(40, orderbook.Sell, 50, 1, 1))

	order := &orderbook.Order{ID: 41, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.FOK, Price: 50, OriginalQuantity: 2, RemainingQuantity: 2, UserID: 2}
	result := bk.ProcessOrder(order)
	if result.Reject == nil {
		t.Fatalf("expected FOK reject")
	}
	if order.Status != orderbook.Rejected {
		t.Fatalf("expected status Rejected, got %v", order.Status)
	}
	if len(result.Trades) != 0 {
		t.Fatalf("expected no trades, got %+v", result.Trades)
	}
	if ask, ok := bk.BestAsk(); !ok || ask != 50 {
		t.Fatalf("expected book unchanged at ask 50, got %d ok=%v", ask, ok)
	}
}

// S6 — Stop trigger.
func TestStopTriggersOnTrade(t *testing.T) {
	bk := NewBook("BTC-USD")
	bk.ProcessOrder(limit(50, orderbook.Sell, 200, 10, 1))

	stop := &orderbook.Order{ID: 51, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Stop, StopPrice: 150, OriginalQuantity: 1, RemainingQuantity: 1, UserID: 2}
	bk.ProcessOrder(stop)

	market := &orderbook.Order{ID: 52, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Market, OriginalQuantity: 1, RemainingQuantity: 1, UserID: 3}
	result := bk.ProcessOrder(market)
	if len(result.Trades) != 2 {
		t.Fatalf("expected 2 trades (direct + triggered stop), got %+v", result.Trades)
	}
	if result.Trades[0].TakerOrderID != 52 || result.Trades[1].TakerOrderID != 51 {
		t.Fatalf("expected trade order [52,51], got [%d,%d]", result.Trades[0].TakerOrderID, result.Trades[1].TakerOrderID)
	}
}

// Two stops parked at the same trigger price must re-enter, and therefore
// trade, in the order they were parked, stably across repeated runs —
// not in Go's randomized map-iteration order.
func TestSimultaneousStopsTriggerInStableOrder(t *testing.T) {
	runOnce := func() []int64 {
		bk := NewBook("BTC-USD")
		bk.ProcessOrder(limit(1, orderbook.Sell, 200, 10, 1))

		earlier := &orderbook.Order{ID: 50, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Stop, StopPrice: 150, OriginalQuantity: 1, RemainingQuantity: 1, UserID: 2}
		bk.ProcessOrder(earlier)
		later := &orderbook.Order{ID: 10, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Stop, StopPrice: 150, OriginalQuantity: 1, RemainingQuantity: 1, UserID: 3}
		bk.ProcessOrder(later)

		market := &orderbook.Order{ID: 99, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Market, OriginalQuantity: 1, RemainingQuantity: 1, UserID: 4}
		result := bk.ProcessOrder(market)

		takerIDs := make([]int64, len(result.Trades))
		for i, tr := range result.Trades {
			takerIDs[i] = tr.TakerOrderID
		}
		return takerIDs
	}

	want := []int64{99, 50, 10}
	for i := 0; i < 20; i++ {
		got := runOnce()
		if len(got) != len(want) {
			t.Fatalf("run %d: expected %d trades, got %d (%+v)", i, len(want), len(got), got)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("run %d: expected taker order %v, got %v", i, want, got)
			}
		}
	}
}

// S7 — Stop-Limit trigger re-enters as Limit, not Market.
func TestStopLimitTriggersAsLimit(t *testing.T) {
	bk := NewBook("BTC-USD")
	bk.ProcessOrder(limit(1, orderbook.Buy, 150, 3, 1))

	stopLimit := &orderbook.Order{ID: 60, Symbol: "BTC-USD", Side: orderbook.Sell, Kind: orderbook.StopLimit, StopPrice: 150, Price: 140, OriginalQuantity: 5, RemainingQuantity: 5, UserID: 2}
	bk.ProcessOrder(stopLimit)

	trigger := &orderbook.Order{ID: 2, Symbol: "BTC-USD", Side: orderbook.Sell, Kind: orderbook.Limit, Price: 150, OriginalQuantity: 1, RemainingQuantity: 1, UserID: 3}
	result := bk.ProcessOrder(trigger)
	if len(result.Trades) != 2 {
		t.Fatalf("expected the direct trade plus the triggered stop-limit's trade, got %+v", result.Trades)
	}

	resting, ok := bk.book.Lookup(60)
	if !ok {
		t.Fatalf("expected stop-limit order 60 to be resting after partial trigger fill")
	}
	if resting.Kind != orderbook.Limit || resting.Price != 140 {
		t.Fatalf("expected re-entered order to be a Limit at price 140, got kind=%v price=%d", resting.Kind, resting.Price)
	}
}

// S8 — Self-trade hook.
func TestSelfTradeGuardSkipsSameUser(t *testing.T) {
	bk := NewBook("BTC-USD")
	bk.SelfTradeGuard = func(buyUserID, sellUserID int64) bool { return buyUserID == sellUserID }

	bk.ProcessOrder(limit(1, orderbook.Sell, 100, 1, 9))
	bk.ProcessOrder(limit(2, orderbook.Sell, 100, 1, 8))

	taker := &orderbook.Order{ID: 3, Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Market, OriginalQuantity: 1, RemainingQuantity: 1, UserID: 9}
	result := bk.ProcessOrder(taker)
	if len(result.Trades) != 1 || result.Trades[0].MakerOrderID != 2 {
		t.Fatalf("expected the same-user maker to be skipped, got %+v", result.Trades)
	}
}

func TestCancelThroughBook(t *testing.T) {
	bk := NewBook("BTC-USD")
	bk.ProcessOrder(limit(1, orderbook.Buy, 100, 5, 1))
	if _, ok := bk.Cancel(1); !ok {
		t.Fatalf("expected cancel to find order 1")
	}
	if _, ok := bk.Cancel(1); ok {
		t.Fatalf("expected second cancel to be a no-op")
	}
}
