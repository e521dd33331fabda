package orderbook

// canCross applies the crossing rule of a taker against one resting price,
// per the per-kind policy: Buy crosses maker prices at or below its limit,
// Sell crosses maker prices at or above its limit. guard=false (Market)
// crosses unconditionally.
func canCross(takerSide Side, takerPrice int64, restPrice int64, guard bool) bool {
	if !guard {
		return true
	}
	if takerSide == Buy {
		return restPrice <= takerPrice
	}
	return restPrice >= takerPrice
}

func opposite(side Side) Side {
	if side == Buy {
		return Sell
	}
	return Buy
}

// SkipFunc decides whether a maker must not trade against taker at all
// (e.g. a self-trade guard). A true result leaves maker resting untouched
// and advances to the next order at that price level.
type SkipFunc func(maker, taker *Order) bool

// Match sweeps the opposite side of taker's side in price-time priority,
// producing trades until taker is filled, the next resting price fails the
// crossing guard, or the opposite side is exhausted. guard selects whether
// a price limit applies (true for Limit/IOC/FOK, false for Market). taker's
// RemainingQuantity and every matched maker's RemainingQuantity are
// decremented in place; fully-filled makers are unlinked from their level.
// skip may be nil, in which case every eligible maker trades.
//
// Match never rests the taker itself; callers decide what to do with any
// remainder per the order-type policy in internal/engine.
func (b *OrderBook) Match(taker *Order, guard bool, skip SkipFunc) []Trade {
	side := opposite(taker.Side)
	levels, pricesPtr, _ := b.sideMaps(side)

	// Snapshot the price ladder: a level emptied mid-sweep is erased from
	// the live maps immediately, so iterating the snapshot instead of the
	// live slice avoids re-visiting a price whose level no longer exists.
	prices := append([]int64(nil), (*pricesPtr)...)

	var trades []Trade
	for _, price := range prices {
		if taker.RemainingQuantity <= 0 {
			break
		}
		if !canCross(taker.Side, taker.Price, price, guard) {
			break
		}
		level, ok := levels[price]
		if !ok {
			continue
		}
		e := level.orders.Front()
		for taker.RemainingQuantity > 0 && e != nil {
			maker := e.Value.(*Order)
			next := e.Next()
			if skip != nil && skip(maker, taker) {
				e = next
				continue
			}

			qty := minInt64(taker.RemainingQuantity, maker.RemainingQuantity)
			taker.reduce(qty)
			maker.reduce(qty)
			level.applyFill(qty)

			trades = append(trades, b.recordTrade(taker, maker, price, qty))

			if maker.IsFilled() {
				level.remove(maker)
				delete(b.index, maker.ID)
			}
			e = next
		}
		if level.empty() {
			b.eraseLevelIfEmpty(side, price)
		}
	}
	return trades
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// recordTrade assigns the next trade id, updates last_trade_price and the
// trade counter, and builds the buy/sell-order-id pair from taker/maker.
func (b *OrderBook) recordTrade(taker, maker *Order, price, qty int64) Trade {
	b.nextTradeID++
	b.tradeCount++
	b.lastTradePrice = price
	b.hasLastTrade = true

	buyOrder, sellOrder := makerTakerIDs(taker.Side, taker, maker)
	return Trade{
		ID:           b.nextTradeID,
		Symbol:       b.symbol,
		Price:        price,
		Quantity:     qty,
		BuyOrderID:   buyOrder.ID,
		SellOrderID:  sellOrder.ID,
		BuyUserID:    buyOrder.UserID,
		SellUserID:   sellOrder.UserID,
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		Timestamp:    taker.Timestamp,
	}
}

// FOKAvailable reports whether the opposite side of side holds at least qty
// in aggregate at prices acceptable under limitPrice, without mutating the
// book. Fill-or-Kill orders call this before Match to decide reject vs.
// execute, grounded on original_source/src/core/matcher.rs::simulate_order_match.
func (b *OrderBook) FOKAvailable(takerSide Side, takerPrice int64, qty int64) bool {
	side := opposite(takerSide)
	levels, pricesPtr, _ := b.sideMaps(side)
	var available int64
	for _, price := range *pricesPtr {
		if !canCross(takerSide, takerPrice, price, true) {
			break
		}
		available += levels[price].TotalQuantity
		if available >= qty {
			return true
		}
	}
	return false
}
