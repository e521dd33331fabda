package orderbook

import "container/list"

// element is the FIFO handle an Order holds into its resting PriceLevel,
// letting cancellation unlink it in O(1) once the level is found.
type element = *list.Element

// PriceLevel is a FIFO queue of resting orders sharing one price.
type PriceLevel struct {
	Price         int64
	orders        *list.List // *Order, oldest at Front
	TotalQuantity int64
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price, orders: list.New()}
}

// pushBack appends o to the tail of the level's FIFO queue and folds its
// remaining quantity into TotalQuantity.
func (l *PriceLevel) pushBack(o *Order) {
	o.element = l.orders.PushBack(o)
	l.TotalQuantity += o.RemainingQuantity
}

// front returns the order due to fill next, or nil if the level is empty.
func (l *PriceLevel) front() *Order {
	e := l.orders.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*Order)
}

// remove unlinks o from the level and subtracts its remaining quantity from
// TotalQuantity.
func (l *PriceLevel) remove(o *Order) {
	if o.element == nil {
		return
	}
	l.orders.Remove(o.element)
	l.TotalQuantity -= o.RemainingQuantity
	if l.TotalQuantity < 0 {
		l.TotalQuantity = 0
	}
	o.element = nil
}

// applyFill reduces the fill-side accounting after o has had qty subtracted
// from its own remaining quantity already.
func (l *PriceLevel) applyFill(qty int64) {
	l.TotalQuantity -= qty
	if l.TotalQuantity < 0 {
		l.TotalQuantity = 0
	}
}

func (l *PriceLevel) empty() bool {
	return l.orders.Len() == 0
}

// insertPrice inserts price into a slice kept sorted (descending for bids,
// ascending for asks) and returns the updated slice.
func insertPrice(prices []int64, price int64, descending bool) []int64 {
	i := 0
	for i < len(prices) {
		if descending {
			if price > prices[i] {
				break
			}
		} else {
			if price < prices[i] {
				break
			}
		}
		i++
	}
	prices = append(prices, 0)
	copy(prices[i+1:], prices[i:])
	prices[i] = price
	return prices
}

// removePrice deletes price from prices, leaving the slice's order intact.
func removePrice(prices []int64, price int64) []int64 {
	for i, p := range prices {
		if p == price {
			return append(prices[:i], prices[i+1:]...)
		}
	}
	return prices
}
