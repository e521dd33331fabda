// Package validate holds the input guards applied before an order reaches
// the matching façade, grounded on exchange-common/pkg/validate and
// trimmed to what an orderbook.Order needs.
package validate

import (
	"regexp"

	"github.com/ledgerline/matching/internal/apperrors"
	"github.com/ledgerline/matching/internal/orderbook"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}-[A-Z0-9]{2,10}$`)

// Symbol checks that s looks like a BASE-QUOTE instrument ticker.
func Symbol(s string) error {
	if !symbolPattern.MatchString(s) {
		return apperrors.Newf(apperrors.CodeInvalidParam, "invalid symbol %q, want BASE-QUOTE", s)
	}
	return nil
}

// Side checks that side is one of the two known directions.
func Side(side orderbook.Side) error {
	if side != orderbook.Buy && side != orderbook.Sell {
		return apperrors.Newf(apperrors.CodeInvalidParam, "invalid side %d", side)
	}
	return nil
}

// Kind checks that kind is one of the order-book's supported execution
// styles.
func Kind(kind orderbook.Kind) error {
	switch kind {
	case orderbook.Limit, orderbook.Market, orderbook.Stop, orderbook.StopLimit, orderbook.IOC, orderbook.FOK:
		return nil
	default:
		return apperrors.Newf(apperrors.CodeInvalidParam, "invalid order kind %d", kind)
	}
}

// Price checks that price is a positive integer minor-unit amount. Market
// orders do not call this.
func Price(price int64) error {
	if price <= 0 {
		return apperrors.Newf(apperrors.CodeInvalidPrice, "price must be positive, got %d", price)
	}
	return nil
}

// Quantity checks that qty is a positive integer amount.
func Quantity(qty int64) error {
	if qty <= 0 {
		return apperrors.Newf(apperrors.CodeInvalidQuantity, "quantity must be positive, got %d", qty)
	}
	return nil
}

// Order runs every applicable guard for o's symbol, side, kind, price, and
// quantity, returning the first failure.
func Order(o *orderbook.Order) error {
	if err := Symbol(o.Symbol); err != nil {
		return err
	}
	if err := Side(o.Side); err != nil {
		return err
	}
	if err := Kind(o.Kind); err != nil {
		return err
	}
	if err := Quantity(o.OriginalQuantity); err != nil {
		return err
	}
	switch o.Kind {
	case orderbook.Limit, orderbook.StopLimit, orderbook.IOC, orderbook.FOK:
		if err := Price(o.Price); err != nil {
			return err
		}
	}
	switch o.Kind {
	case orderbook.Stop, orderbook.StopLimit:
		if o.StopPrice <= 0 {
			return apperrors.Newf(apperrors.CodeInvalidPrice, "stop price must be positive, got %d", o.StopPrice)
		}
	}
	return nil
}
