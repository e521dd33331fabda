// Command matching is a demonstration program: it wires configuration,
// logging, tracing, metrics, the Postgres order/trade store, the Redis
// Streams fan-out, and the async Engine around a single instrument, seeds
// it with a handful of orders, prints the resulting book, and serves a
// metrics scrape endpoint. It is explicitly not an order-submission RPC
// surface — submitting orders over a network is out of scope for the
// matching core this program demonstrates.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerline/matching/internal/clockid"
	"github.com/ledgerline/matching/internal/config"
	"github.com/ledgerline/matching/internal/engine"
	"github.com/ledgerline/matching/internal/health"
	"github.com/ledgerline/matching/internal/logging"
	"github.com/ledgerline/matching/internal/metrics"
	"github.com/ledgerline/matching/internal/orderbook"
	"github.com/ledgerline/matching/internal/store"
	"github.com/ledgerline/matching/internal/tracing"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.ServiceName, nil)
	logger.Info("starting matching demo")

	shutdownTracing, err := tracing.Init(tracing.Config{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.TracingEndpoint,
		Enabled:     cfg.TracingEnabled,
		SampleRate:  cfg.TracingSampleRate,
	})
	if err != nil {
		log.Fatalf("tracing init: %v", err)
	}
	defer shutdownTracing(context.Background())

	ids, err := clockid.New(cfg.WorkerID)
	if err != nil {
		log.Fatalf("invalid worker id: %v", err)
	}

	eng := engine.NewEngine(cfg.Symbol, cfg.CommandQueueSize, cfg.EventQueueSize)
	eng.Book().OnLatency(metrics.Observe)
	eng.Book().SetDisplayScale(cfg.PriceScale)
	eng.SetLogger(logger)

	pg, err := store.OpenPostgres(cfg.PostgresDSN)
	if err != nil {
		logger.WithError(err).Warn("postgres store unavailable, continuing without order durability")
		pg = nil
	} else {
		defer pg.Close()
		warmStart(cfg, pg, eng, logger)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	redisStream := store.NewRedisStream(redisClient, cfg.TradeStream, cfg.OrderUpdateStream)

	eng.SetOrderStore(fanoutOrderStore(pg, redisStream))
	eng.SetTradeStore(fanoutTradeStore(pg, redisStream))

	eng.Start()
	defer eng.Stop()

	seedCtx, seedSpan := tracing.StartSpan(context.Background(), "seed_book")
	seedEngine(seedCtx, eng, ids, logger)
	seedSpan.End()

	fmt.Print(eng.Book().PrintBook(5))
	if _, display, ok := eng.Book().Slippage(orderbook.Buy, 5); ok {
		fmt.Printf("slippage for buying 5: %s\n", display)
	}

	healthStop := runHealthLoop(eng.Health(), logger)
	defer close(healthStop)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("metrics listening", map[string]interface{}{"port": cfg.MetricsPort})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("metrics server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

// warmStart recovers any orders left resting from a prior run.
func warmStart(cfg *config.Config, pg *store.Postgres, eng *engine.Engine, logger *logging.Logger) {
	resting, err := pg.LoadAll(context.Background(), cfg.Symbol)
	if err != nil {
		logger.WithError(err).Warn("warm-start load failed, starting from an empty book")
		return
	}
	eng.Book().LoadAll(resting)
	logger.WithSymbol(cfg.Symbol).Infof("warm-started book", map[string]interface{}{"orders": len(resting)})
}

// multiOrderStore fans an order-lifecycle event out to every configured
// OrderStore; LoadAll is answered by the first store that has one (Redis
// does not keep a queryable warm-start source of truth).
type multiOrderStore struct {
	stores []store.OrderStore
}

func fanoutOrderStore(pg *store.Postgres, rs *store.RedisStream) store.OrderStore {
	m := &multiOrderStore{}
	if pg != nil {
		m.stores = append(m.stores, pg)
	}
	if rs != nil {
		m.stores = append(m.stores, rs)
	}
	return m
}

func (m *multiOrderStore) OnOrderSubmitted(ctx context.Context, o *orderbook.Order) error {
	for _, s := range m.stores {
		if err := s.OnOrderSubmitted(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiOrderStore) OnOrderUpdated(ctx context.Context, o *orderbook.Order) error {
	for _, s := range m.stores {
		if err := s.OnOrderUpdated(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiOrderStore) LoadAll(ctx context.Context, symbol string) ([]*orderbook.Order, error) {
	for _, s := range m.stores {
		orders, err := s.LoadAll(ctx, symbol)
		if err == nil {
			return orders, nil
		}
	}
	return nil, nil
}

// multiTradeStore fans a produced Trade out to every configured TradeStore.
type multiTradeStore struct {
	stores []store.TradeStore
}

func fanoutTradeStore(pg *store.Postgres, rs *store.RedisStream) store.TradeStore {
	m := &multiTradeStore{}
	if pg != nil {
		m.stores = append(m.stores, pg)
	}
	if rs != nil {
		m.stores = append(m.stores, rs)
	}
	return m
}

func (m *multiTradeStore) OnTrade(ctx context.Context, t *orderbook.Trade) error {
	for _, s := range m.stores {
		if err := s.OnTrade(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// seedEngine submits a few orders through the async Engine and blocks until
// each has produced exactly one event, so the demo's print statements below
// observe the settled book rather than a race against the engine goroutine.
func seedEngine(ctx context.Context, eng *engine.Engine, ids *clockid.Generator, logger *logging.Logger) {
	orders := []*orderbook.Order{
		{ID: ids.MustGenerate(), Symbol: eng.Book().Symbol(), Side: orderbook.Sell, Kind: orderbook.Limit, Price: 10100, OriginalQuantity: 5, RemainingQuantity: 5, UserID: 1},
		{ID: ids.MustGenerate(), Symbol: eng.Book().Symbol(), Side: orderbook.Sell, Kind: orderbook.Limit, Price: 10200, OriginalQuantity: 3, RemainingQuantity: 3, UserID: 2},
		{ID: ids.MustGenerate(), Symbol: eng.Book().Symbol(), Side: orderbook.Buy, Kind: orderbook.Limit, Price: 9900, OriginalQuantity: 4, RemainingQuantity: 4, UserID: 3},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		remaining := len(orders)
		for remaining > 0 {
			select {
			case ev := <-eng.Events():
				logEvent(logger, ev)
				remaining--
			case <-ctx.Done():
				return
			}
		}
	}()

	for _, o := range orders {
		o.Timestamp = clockid.NowNanos()
		if err := eng.Submit(&engine.Command{Type: engine.CmdNewOrder, Order: o}); err != nil {
			logger.WithError(err).Error("seed order submit failed")
		}
	}
	wg.Wait()
}

func logEvent(logger *logging.Logger, ev *engine.Event) {
	logger.WithSeq(ev.Seq).Infof("engine event", map[string]interface{}{"type": ev.Type})
}

// runHealthLoop polls the engine's liveness monitor once a second and logs
// a warning if its goroutine has stopped ticking, returning a channel the
// caller closes to stop the poller.
func runHealthLoop(monitor *health.LoopMonitor, logger *logging.Logger) chan struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ok, age, lastErr := monitor.Healthy(time.Now(), 10*time.Second)
				if !ok {
					logger.Warnf("engine loop unhealthy", map[string]interface{}{"age": age.String(), "lastErr": lastErr})
				}
			case <-stop:
				return
			}
		}
	}()
	return stop
}
