package orderbook

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledgerline/matching/internal/money"
)

// location records where a resting order lives so cancellation can find its
// level in O(1) without scanning both sides.
type location struct {
	side  Side
	price int64
}

// stopEntry pairs a parked Stop/StopLimit order with the sequence number it
// was parked under, so TriggeredStops can return simultaneously-triggered
// stops in arrival order rather than in Go's randomized map-iteration order.
type stopEntry struct {
	order *Order
	seq   int64
}

// PriceQty is one (price, aggregate quantity) pair as returned by Depth.
type PriceQty struct {
	Price    int64
	Quantity int64
}

// Stats is a snapshot of book-wide counters, grounded on
// original_source/src/models/stats.rs::OrderBookStats.
type Stats struct {
	Symbol         string
	BestBid        int64
	HasBestBid     bool
	BestAsk        int64
	HasBestAsk     bool
	LastTradePrice int64
	HasLastTrade   bool
	BidOrderCount  int
	AskOrderCount  int
	BidVolume      int64
	AskVolume      int64
	TradeCount     int64
}

// OrderBook indexes the resting orders of a single instrument by price and
// arrival order. It keeps the *Order pointers handed to Rest, ParkStop and
// LoadAll rather than copies, and Lookup and RemoveOrder return those same
// pointers, not clones.
//
// A OrderBook is not safe for concurrent use by itself; internal/engine.Book
// wraps one in a sync.RWMutex per the shared-handle policy.
type OrderBook struct {
	symbol string

	bids      map[int64]*PriceLevel
	asks      map[int64]*PriceLevel
	bidPrices []int64 // descending
	askPrices []int64 // ascending

	index map[int64]*location  // resting orders, by id
	stops map[int64]*stopEntry // parked Stop/StopLimit orders, by id

	nextStopSeq int64

	// displayScale is the number of fractional digits internal/money uses
	// to render this book's integer minor-unit prices in PrintBook and
	// Slippage's Decimal-string return; it never affects matching, which
	// stays pure-integer.
	displayScale int

	lastTradePrice int64
	hasLastTrade   bool
	nextTradeID    int64
	tradeCount     int64
}

// NewOrderBook returns an empty book for symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		symbol:       symbol,
		bids:         make(map[int64]*PriceLevel),
		asks:         make(map[int64]*PriceLevel),
		index:        make(map[int64]*location),
		stops:        make(map[int64]*stopEntry),
		displayScale: 2,
	}
}

// Symbol returns the instrument this book indexes.
func (b *OrderBook) Symbol() string { return b.symbol }

// SetDisplayScale sets the number of fractional digits internal/money uses
// to render this book's prices for humans. It has no effect on matching.
func (b *OrderBook) SetDisplayScale(scale int) { b.displayScale = scale }

func (b *OrderBook) sideMaps(side Side) (levels map[int64]*PriceLevel, prices *[]int64, descending bool) {
	if side == Buy {
		return b.bids, &b.bidPrices, true
	}
	return b.asks, &b.askPrices, false
}

// levelFor returns the level at price on side, creating and indexing it if
// it does not exist yet.
func (b *OrderBook) levelFor(side Side, price int64) *PriceLevel {
	levels, prices, descending := b.sideMaps(side)
	if l, ok := levels[price]; ok {
		return l
	}
	l := newPriceLevel(price)
	levels[price] = l
	*prices = insertPrice(*prices, price, descending)
	return l
}

// eraseLevelIfEmpty removes the level at price from side's map once it holds
// no resting orders.
func (b *OrderBook) eraseLevelIfEmpty(side Side, price int64) {
	levels, prices, _ := b.sideMaps(side)
	l, ok := levels[price]
	if !ok || !l.empty() {
		return
	}
	delete(levels, price)
	*prices = removePrice(*prices, price)
}

// Rest inserts o, which must already have Validate() == nil and a positive
// RemainingQuantity, at the tail of its side/price level and records it in
// the lookup index. It does not run the matcher; callers that need crossing
// behavior use Match first and Rest only the unfilled remainder.
func (b *OrderBook) Rest(o *Order) {
	l := b.levelFor(o.Side, o.Price)
	l.pushBack(o)
	b.index[o.ID] = &location{side: o.Side, price: o.Price}
}

// Lookup returns the resting order with id, if any.
func (b *OrderBook) Lookup(id int64) (*Order, bool) {
	loc, ok := b.index[id]
	if !ok {
		return nil, false
	}
	levels, _, _ := b.sideMaps(loc.side)
	l, ok := levels[loc.price]
	if !ok {
		return nil, false
	}
	for e := l.orders.Front(); e != nil; e = e.Next() {
		o := e.Value.(*Order)
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// Exists reports whether id is resting or parked as a stop in this book,
// the duplicate-id check spec'd for order submission.
func (b *OrderBook) Exists(id int64) bool {
	if _, ok := b.index[id]; ok {
		return true
	}
	_, ok := b.stops[id]
	return ok
}

// RemoveOrder cancels a resting or parked order, returning true if it was
// found. Unknown ids return false; this is not an error.
func (b *OrderBook) RemoveOrder(id int64) (*Order, bool) {
	if entry, ok := b.stops[id]; ok {
		delete(b.stops, id)
		entry.order.Status = Cancelled
		return entry.order, true
	}
	loc, ok := b.index[id]
	if !ok {
		return nil, false
	}
	levels, _, _ := b.sideMaps(loc.side)
	l, ok := levels[loc.price]
	if !ok {
		delete(b.index, id)
		return nil, false
	}
	var found *Order
	for e := l.orders.Front(); e != nil; e = e.Next() {
		o := e.Value.(*Order)
		if o.ID == id {
			found = o
			break
		}
	}
	if found == nil {
		delete(b.index, id)
		return nil, false
	}
	l.remove(found)
	delete(b.index, id)
	b.eraseLevelIfEmpty(loc.side, loc.price)
	found.Status = Cancelled
	return found, true
}

// ParkStop sets aside a Stop/StopLimit order until last_trade_price reaches
// its trigger, recording its arrival sequence so a later simultaneous
// trigger resolves in parking order.
func (b *OrderBook) ParkStop(o *Order) {
	b.nextStopSeq++
	b.stops[o.ID] = &stopEntry{order: o, seq: b.nextStopSeq}
}

// StopIDs returns the ids of every currently parked stop order, for callers
// that need to bound a trigger-chain loop by the parked population.
func (b *OrderBook) StopIDs() []int64 {
	ids := make([]int64, 0, len(b.stops))
	for id := range b.stops {
		ids = append(ids, id)
	}
	return ids
}

// TriggeredStops removes and returns every parked stop whose trigger
// condition holds against lastPrice: a Buy Stop triggers when
// lastPrice >= stop_price, a Sell Stop when lastPrice <= stop_price. When
// more than one stop triggers at once, they are returned in the order they
// were parked (earliest first), never in Go's randomized map-iteration
// order, so the resulting re-entry/trade sequence is deterministic.
func (b *OrderBook) TriggeredStops(lastPrice int64) []*Order {
	var entries []*stopEntry
	for id, entry := range b.stops {
		if stopTriggered(entry.order, lastPrice) {
			entries = append(entries, entry)
			delete(b.stops, id)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	triggered := make([]*Order, len(entries))
	for i, e := range entries {
		triggered[i] = e.order
	}
	return triggered
}

func stopTriggered(o *Order, lastPrice int64) bool {
	if o.Side == Buy {
		return lastPrice >= o.StopPrice
	}
	return lastPrice <= o.StopPrice
}

// BestBid returns the highest resting bid price, if any.
func (b *OrderBook) BestBid() (int64, bool) {
	if len(b.bidPrices) == 0 {
		return 0, false
	}
	return b.bidPrices[0], true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *OrderBook) BestAsk() (int64, bool) {
	if len(b.askPrices) == 0 {
		return 0, false
	}
	return b.askPrices[0], true
}

// Spread returns best_ask - best_bid, or false if either side is empty.
func (b *OrderBook) Spread() (int64, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return 0, false
	}
	return ask - bid, true
}

// LastTradePrice returns the price of the most recent trade in this book.
func (b *OrderBook) LastTradePrice() (int64, bool) {
	return b.lastTradePrice, b.hasLastTrade
}

// Depth returns the top n levels of each side as (price, aggregate
// quantity) pairs, fewer if a side has fewer levels.
func (b *OrderBook) Depth(n int) (bids, asks []PriceQty) {
	bids = depthSide(b.bids, b.bidPrices, n)
	asks = depthSide(b.asks, b.askPrices, n)
	return bids, asks
}

func depthSide(levels map[int64]*PriceLevel, prices []int64, n int) []PriceQty {
	if n > len(prices) {
		n = len(prices)
	}
	out := make([]PriceQty, 0, n)
	for i := 0; i < n; i++ {
		p := prices[i]
		out = append(out, PriceQty{Price: p, Quantity: levels[p].TotalQuantity})
	}
	return out
}

// Slippage simulates a market order of qty on side sweeping the opposite
// side immediately, without mutating the book, returning the
// volume-weighted average execution price both as the spec-exact truncated
// integer and as an internal/money.Decimal string scaled by displayScale
// for humans. ok is false if the opposite side holds less than qty in
// aggregate, in which case avgPrice is zero and display is empty.
func (b *OrderBook) Slippage(side Side, qty int64) (avgPrice int64, display string, ok bool) {
	if qty <= 0 {
		return 0, "", false
	}
	levels, pricesPtr, _ := b.sideMaps(opposite(side))
	var remaining, notionalNumerator, filled int64
	remaining = qty
	for _, p := range *pricesPtr {
		l := levels[p]
		take := l.TotalQuantity
		if take > remaining {
			take = remaining
		}
		notionalNumerator += p * take
		filled += take
		remaining -= take
		if remaining == 0 {
			break
		}
	}
	if filled < qty {
		return 0, "", false
	}
	avgPrice = notionalNumerator / qty
	return avgPrice, money.FormatPrice(avgPrice, b.displayScale), true
}

// Stats returns a snapshot of book-wide counters.
func (b *OrderBook) Stats() Stats {
	s := Stats{Symbol: b.symbol, TradeCount: b.tradeCount}
	if bid, ok := b.BestBid(); ok {
		s.BestBid, s.HasBestBid = bid, true
	}
	if ask, ok := b.BestAsk(); ok {
		s.BestAsk, s.HasBestAsk = ask, true
	}
	if b.hasLastTrade {
		s.LastTradePrice, s.HasLastTrade = b.lastTradePrice, true
	}
	for _, p := range b.bidPrices {
		l := b.bids[p]
		s.BidOrderCount += l.orders.Len()
		s.BidVolume += l.TotalQuantity
	}
	for _, p := range b.askPrices {
		l := b.asks[p]
		s.AskOrderCount += l.orders.Len()
		s.AskVolume += l.TotalQuantity
	}
	return s
}

// LoadAll re-inserts already-resting orders recovered from a warm-start
// source directly into their side/level without running the matcher; they
// represent existing book state, not new intents that could cross.
func (b *OrderBook) LoadAll(orders []*Order) {
	for _, o := range orders {
		switch o.Kind {
		case Stop, StopLimit:
			b.ParkStop(o)
		default:
			if o.RemainingQuantity > 0 {
				b.Rest(o)
			}
		}
	}
}

// PrintBook renders the top n levels of both sides plus the spread, for
// operator-facing diagnostics. Prices are formatted through internal/money
// at displayScale; the underlying integers it formats are never themselves
// rounded or altered. It is not used by the matching path.
func (b *OrderBook) PrintBook(n int) string {
	bids, asks := b.Depth(n)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s order book (top %d)\n", b.symbol, n)
	fmt.Fprintf(&sb, "%-16s %-16s\n", "BID", "ASK")
	max := len(bids)
	if len(asks) > max {
		max = len(asks)
	}
	for i := 0; i < max; i++ {
		var left, right string
		if i < len(bids) {
			left = fmt.Sprintf("%s x %d", money.FormatPrice(bids[i].Price, b.displayScale), bids[i].Quantity)
		}
		if i < len(asks) {
			right = fmt.Sprintf("%s x %d", money.FormatPrice(asks[i].Price, b.displayScale), asks[i].Quantity)
		}
		fmt.Fprintf(&sb, "%-16s %-16s\n", left, right)
	}
	if spread, ok := b.Spread(); ok {
		fmt.Fprintf(&sb, "spread: %s\n", money.FormatPrice(spread, b.displayScale))
	} else {
		fmt.Fprintf(&sb, "spread: n/a\n")
	}
	return sb.String()
}
