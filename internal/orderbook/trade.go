package orderbook

// Trade is an immutable execution record produced whenever a taker order
// crosses a resting maker order. Trade price always equals the maker's
// resting price, never the taker's limit.
type Trade struct {
	ID           int64
	Symbol       string
	Price        int64
	Quantity     int64
	BuyOrderID   int64
	SellOrderID  int64
	BuyUserID    int64
	SellUserID   int64
	MakerOrderID int64
	TakerOrderID int64
	Timestamp    int64
}

// makerTakerIDs returns (buyOrderID, sellOrderID) for a trade between a
// taker of the given side and a resting maker.
func makerTakerIDs(takerSide Side, taker, maker *Order) (buyOrder, sellOrder *Order) {
	if takerSide == Buy {
		return taker, maker
	}
	return maker, taker
}
