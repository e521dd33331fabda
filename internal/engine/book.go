// Package engine implements the order-type policy layer that sits on top
// of internal/orderbook: it classifies an incoming order, drives the
// matcher, and decides what happens to any unfilled remainder. This is the
// process_order/cancel entry point callers use.
package engine

import (
	"sync"
	"time"

	"github.com/ledgerline/matching/internal/apperrors"
	"github.com/ledgerline/matching/internal/orderbook"
	"github.com/ledgerline/matching/internal/validate"
)

// SelfTradeGuard decides whether a prospective trade between buyUserID and
// sellUserID must be skipped rather than executed. A nil guard (the
// default) performs no self-trade checking, matching the base policy of
// leaving self-trade prevention to a higher layer.
type SelfTradeGuard func(buyUserID, sellUserID int64) bool

// Book is the synchronous, shared-handle-safe façade over one instrument's
// orderbook.OrderBook. Mutating calls (ProcessOrder, Cancel) take an
// exclusive lock spanning the whole call; read-only queries take a shared
// lock over the same mutex, so no caller ever observes a torn read between
// the book's index and its price levels.
type Book struct {
	mu   sync.RWMutex
	book *orderbook.OrderBook

	// SelfTradeGuard, when non-nil, is consulted for every prospective
	// maker/taker pair before a trade is produced.
	SelfTradeGuard SelfTradeGuard

	// onLatency, when non-nil, is called once per ProcessOrder with the
	// elapsed wall time; it is the façade-boundary observe(label,
	// duration) sink named by the external interface contract.
	onLatency func(label string, nanos int64)
}

// NewBook returns an empty Book for symbol.
func NewBook(symbol string) *Book {
	return &Book{book: orderbook.NewOrderBook(symbol)}
}

// OnLatency installs a callback invoked once per ProcessOrder with the
// elapsed duration, in nanoseconds, under the given label.
func (bk *Book) OnLatency(f func(label string, nanos int64)) {
	bk.onLatency = f
}

// Symbol returns the instrument this Book indexes.
func (bk *Book) Symbol() string {
	bk.mu.RLock()
	defer bk.mu.RUnlock()
	return bk.book.Symbol()
}

func (bk *Book) skipFunc() orderbook.SkipFunc {
	if bk.SelfTradeGuard == nil {
		return nil
	}
	return func(maker, taker *orderbook.Order) bool {
		buy, sell := maker, taker
		if taker.Side == orderbook.Buy {
			buy, sell = taker, maker
		}
		return bk.SelfTradeGuard(buy.UserID, sell.UserID)
	}
}

// Result is the outcome of one ProcessOrder call: the (possibly empty)
// trade list and the final state of the submitted order. A non-nil Reject
// means the book was left completely unchanged.
type Result struct {
	Trades []orderbook.Trade
	Order  *orderbook.Order
	Reject *apperrors.Error
}

// ProcessOrder classifies incoming by its Kind, drives the matcher, and
// applies the residual policy for that kind. On reject the book is left
// byte-identical to before the call. Stops triggered by trades produced
// during this call (including by chained stop re-entries) are processed to
// fixpoint before ProcessOrder returns, bounded by the number of parked
// stops so a trigger chain cannot loop forever.
func (bk *Book) ProcessOrder(incoming *orderbook.Order) Result {
	bk.mu.Lock()
	defer bk.mu.Unlock()

	if bk.onLatency != nil {
		start := time.Now()
		defer func() { bk.onLatency("process_order", time.Since(start).Nanoseconds()) }()
	}

	if err := validate.Order(incoming); err != nil {
		incoming.Status = orderbook.Rejected
		appErr, ok := err.(*apperrors.Error)
		if !ok {
			appErr = apperrors.New(apperrors.CodeInvalidParam, err.Error())
		}
		return Result{Order: incoming, Reject: appErr}
	}
	if bk.book.Exists(incoming.ID) {
		incoming.Status = orderbook.Rejected
		return Result{Order: incoming, Reject: apperrors.Newf(apperrors.CodeDuplicateOrderID, "order id %d already present", incoming.ID)}
	}

	var trades []orderbook.Trade
	switch incoming.Kind {
	case orderbook.Limit:
		trades = bk.processLimit(incoming)
	case orderbook.Market:
		if reject := bk.rejectIfEmptyOpposite(incoming); reject != nil {
			incoming.Status = orderbook.Rejected
			return Result{Order: incoming, Reject: reject}
		}
		trades = bk.book.Match(incoming, false, bk.skipFunc())
		if incoming.RemainingQuantity > 0 {
			incoming.Status = orderbook.PartiallyFilled
		}
	case orderbook.IOC:
		trades = bk.book.Match(incoming, true, bk.skipFunc())
		if incoming.RemainingQuantity > 0 {
			incoming.Status = orderbook.Cancelled
		}
	case orderbook.FOK:
		if !bk.book.FOKAvailable(incoming.Side, incoming.Price, incoming.RemainingQuantity) {
			incoming.Status = orderbook.Rejected
			return Result{Order: incoming, Reject: apperrors.Newf(apperrors.CodeNoLiquidity, "FOK order %d cannot be filled in full", incoming.ID)}
		}
		trades = bk.book.Match(incoming, true, bk.skipFunc())
	case orderbook.Stop, orderbook.StopLimit:
		bk.book.ParkStop(incoming)
		return Result{Order: incoming}
	default:
		incoming.Status = orderbook.Rejected
		return Result{Order: incoming, Reject: apperrors.Newf(apperrors.CodeInvalidParam, "unknown order kind %v", incoming.Kind)}
	}

	trades = append(trades, bk.drainTriggeredStops()...)
	return Result{Trades: trades, Order: incoming}
}

// processLimit runs the matcher with the Limit price guard and rests any
// unfilled remainder on the book.
func (bk *Book) processLimit(incoming *orderbook.Order) []orderbook.Trade {
	trades := bk.book.Match(incoming, true, bk.skipFunc())
	if incoming.RemainingQuantity > 0 {
		bk.book.Rest(incoming)
		if incoming.RemainingQuantity == incoming.OriginalQuantity {
			incoming.Status = orderbook.New
		}
	}
	return trades
}

// rejectIfEmptyOpposite implements the chosen policy for Market orders
// against an empty opposite side: reject rather than partially filling
// against nothing.
func (bk *Book) rejectIfEmptyOpposite(incoming *orderbook.Order) *apperrors.Error {
	var empty bool
	if incoming.Side == orderbook.Buy {
		_, empty = bk.book.BestAsk()
		empty = !empty
	} else {
		_, empty = bk.book.BestBid()
		empty = !empty
	}
	if empty {
		return apperrors.Newf(apperrors.CodeNoLiquidity, "market order %d has no opposite-side liquidity", incoming.ID)
	}
	return nil
}

// drainTriggeredStops re-submits every parked stop whose trigger condition
// holds against the book's current last_trade_price, to fixpoint: each
// round may itself produce trades that trigger further stops. The number
// of rounds is bounded by the number of parked stops at the start, so a
// trigger cycle cannot loop forever.
func (bk *Book) drainTriggeredStops() []orderbook.Trade {
	var all []orderbook.Trade
	last, ok := bk.book.LastTradePrice()
	if !ok {
		return all
	}
	budget := len(bk.book.StopIDs()) + 1
	for i := 0; i < budget; i++ {
		triggered := bk.book.TriggeredStops(last)
		if len(triggered) == 0 {
			break
		}
		for _, stop := range triggered {
			reentry := stopReentry(stop)
			trades := bk.processReentry(reentry)
			all = append(all, trades...)
		}
		newLast, ok := bk.book.LastTradePrice()
		if !ok {
			break
		}
		last = newLast
	}
	return all
}

// stopReentry converts a triggered Stop into a Market order and a
// triggered StopLimit into a Limit order at its stored price, per the
// policy that only a plain Stop degrades to Market.
func stopReentry(stop *orderbook.Order) *orderbook.Order {
	reentry := stop.Clone()
	reentry.Status = orderbook.New
	if stop.Kind == orderbook.StopLimit {
		reentry.Kind = orderbook.Limit
	} else {
		reentry.Kind = orderbook.Market
	}
	return reentry
}

// processReentry runs a triggered stop's re-entry order through the same
// matching path as any other incoming order, without repeating the
// duplicate-id/validate checks ProcessOrder does (the stop was already
// accepted once).
func (bk *Book) processReentry(reentry *orderbook.Order) []orderbook.Trade {
	switch reentry.Kind {
	case orderbook.Market:
		if bk.rejectIfEmptyOpposite(reentry) != nil {
			reentry.Status = orderbook.Rejected
			return nil
		}
		trades := bk.book.Match(reentry, false, bk.skipFunc())
		if reentry.RemainingQuantity > 0 {
			reentry.Status = orderbook.PartiallyFilled
		}
		return trades
	default: // Limit
		return bk.processLimit(reentry)
	}
}

// Cancel removes a resting or parked order, returning true if it was
// found. An unknown id returns false; this is not an error.
func (bk *Book) Cancel(id int64) (*orderbook.Order, bool) {
	bk.mu.Lock()
	defer bk.mu.Unlock()
	return bk.book.RemoveOrder(id)
}

// BestBid returns the book's highest resting bid price, if any.
func (bk *Book) BestBid() (int64, bool) {
	bk.mu.RLock()
	defer bk.mu.RUnlock()
	return bk.book.BestBid()
}

// BestAsk returns the book's lowest resting ask price, if any.
func (bk *Book) BestAsk() (int64, bool) {
	bk.mu.RLock()
	defer bk.mu.RUnlock()
	return bk.book.BestAsk()
}

// Spread returns best_ask - best_bid, or false if either side is empty.
func (bk *Book) Spread() (int64, bool) {
	bk.mu.RLock()
	defer bk.mu.RUnlock()
	return bk.book.Spread()
}

// Depth returns the top n levels of each side.
func (bk *Book) Depth(n int) (bids, asks []orderbook.PriceQty) {
	bk.mu.RLock()
	defer bk.mu.RUnlock()
	return bk.book.Depth(n)
}

// Slippage returns the volume-weighted average execution price of a market
// order of qty on side immediately sweeping the opposite side, without
// mutating the book, both
// as the spec-exact integer and as an internal/money.Decimal display
// string.
func (bk *Book) Slippage(side orderbook.Side, qty int64) (avgPrice int64, display string, ok bool) {
	bk.mu.RLock()
	defer bk.mu.RUnlock()
	return bk.book.Slippage(side, qty)
}

// SetDisplayScale sets the number of fractional digits PrintBook and
// Slippage use to render prices for humans. It has no effect on matching.
func (bk *Book) SetDisplayScale(scale int) {
	bk.mu.Lock()
	defer bk.mu.Unlock()
	bk.book.SetDisplayScale(scale)
}

// Stats returns a snapshot of book-wide counters.
func (bk *Book) Stats() orderbook.Stats {
	bk.mu.RLock()
	defer bk.mu.RUnlock()
	return bk.book.Stats()
}

// PrintBook renders the top n levels of both sides for operator diagnostics.
func (bk *Book) PrintBook(n int) string {
	bk.mu.RLock()
	defer bk.mu.RUnlock()
	return bk.book.PrintBook(n)
}

// LoadAll warm-starts the book from a previously persisted snapshot of
// resting orders, bypassing the matcher since they represent existing
// state rather than new intents.
func (bk *Book) LoadAll(orders []*orderbook.Order) {
	bk.mu.Lock()
	defer bk.mu.Unlock()
	bk.book.LoadAll(orders)
}
