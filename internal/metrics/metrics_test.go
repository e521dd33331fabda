package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRecordsLatency(t *testing.T) {
	Observe("process_order", int64(1500))
	if got := testutil.CollectAndCount(matchingLatency); got == 0 {
		t.Fatalf("expected matchingLatency to have at least one observation")
	}
}

func TestIncTradesCreated(t *testing.T) {
	before := testutil.ToFloat64(tradesCreated.WithLabelValues("ETH-USD"))
	IncTradesCreated("ETH-USD", 3)
	after := testutil.ToFloat64(tradesCreated.WithLabelValues("ETH-USD"))
	if after-before != 3 {
		t.Fatalf("expected counter to advance by 3, got %v -> %v", before, after)
	}
}

func TestIncTradesCreatedIgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(tradesCreated.WithLabelValues("LTC-USD"))
	IncTradesCreated("LTC-USD", 0)
	IncTradesCreated("LTC-USD", -5)
	after := testutil.ToFloat64(tradesCreated.WithLabelValues("LTC-USD"))
	if after != before {
		t.Fatalf("expected counter unchanged, got %v -> %v", before, after)
	}
}

func TestSetOrderbookDepth(t *testing.T) {
	SetOrderbookDepth("BTC-USD", "bid", 42)
	if got := testutil.ToFloat64(orderbookDepth.WithLabelValues("BTC-USD", "bid")); got != 42 {
		t.Fatalf("expected gauge 42, got %v", got)
	}
	SetOrderbookDepth("BTC-USD", "bid", 7)
	if got := testutil.ToFloat64(orderbookDepth.WithLabelValues("BTC-USD", "bid")); got != 7 {
		t.Fatalf("expected gauge overwritten to 7, got %v", got)
	}
}

func TestIncOrdersProcessed(t *testing.T) {
	before := testutil.ToFloat64(ordersProcessed.WithLabelValues("BTC-USD", "filled"))
	IncOrdersProcessed("BTC-USD", "filled")
	IncOrdersProcessed("BTC-USD", "filled")
	after := testutil.ToFloat64(ordersProcessed.WithLabelValues("BTC-USD", "filled"))
	if after-before != 2 {
		t.Fatalf("expected counter to advance by 2, got %v -> %v", before, after)
	}
}

func TestHandlerServesRegisteredCollectors(t *testing.T) {
	h := Handler()
	if h == nil {
		t.Fatalf("expected a non-nil scrape handler")
	}
}
