package validate

import (
	"testing"

	"github.com/ledgerline/matching/internal/orderbook"
)

func TestSymbol(t *testing.T) {
	if err := Symbol("BTC-USD"); err != nil {
		t.Fatalf("expected BTC-USD to be valid, got %v", err)
	}
	if err := Symbol("btcusd"); err == nil {
		t.Fatalf("expected lowercase/no-dash symbol to be rejected")
	}
}

func TestOrderRequiresPriceForLimit(t *testing.T) {
	o := &orderbook.Order{Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Limit, OriginalQuantity: 1}
	if err := Order(o); err == nil {
		t.Fatalf("expected missing price to be rejected for a Limit order")
	}
}

func TestOrderAllowsMarketWithoutPrice(t *testing.T) {
	o := &orderbook.Order{Symbol: "BTC-USD", Side: orderbook.Buy, Kind: orderbook.Market, OriginalQuantity: 1}
	if err := Order(o); err != nil {
		t.Fatalf("expected Market order without price to be valid, got %v", err)
	}
}

func TestOrderRequiresStopPriceForStop(t *testing.T) {
	o := &orderbook.Order{Symbol: "BTC-USD", Side: orderbook.Sell, Kind: orderbook.Stop, OriginalQuantity: 1}
	if err := Order(o); err == nil {
		t.Fatalf("expected missing stop price to be rejected for a Stop order")
	}
}

func TestOrderRejectsNonPositiveQuantity(t *testing.T) {
	o := &orderbook.Order{Symbol: "BTC-USD", Side: orderbook.Sell, Kind: orderbook.Market, OriginalQuantity: 0}
	if err := Order(o); err == nil {
		t.Fatalf("expected zero quantity to be rejected")
	}
}
