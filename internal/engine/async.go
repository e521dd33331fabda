package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerline/matching/internal/health"
	"github.com/ledgerline/matching/internal/logging"
	"github.com/ledgerline/matching/internal/metrics"
	"github.com/ledgerline/matching/internal/orderbook"
	"github.com/ledgerline/matching/internal/store"
)

// CommandType selects what a Command asks the Engine's goroutine to do.
type CommandType int

const (
	CmdNewOrder CommandType = iota + 1
	CmdCancelOrder
)

// Command is a unit of work submitted to an Engine's single goroutine.
type Command struct {
	Type CommandType

	// Populated for CmdNewOrder.
	Order *orderbook.Order

	// Populated for CmdCancelOrder.
	OrderID int64
}

// EventType classifies an Event emitted by an Engine.
type EventType int

const (
	EventOrderAccepted EventType = iota + 1
	EventOrderRejected
	EventOrderCancelled
	EventTradeCreated
	EventOrderFilled
	EventOrderPartiallyFilled
)

// Event is one state transition pushed onto an Engine's event channel.
// This is additive instrumentation on top of the synchronous Book's return
// value, which remains the ground truth for what happened.
type Event struct {
	Type      EventType
	Symbol    string
	Seq       int64
	Timestamp int64
	Data      interface{}
}

type OrderAcceptedData struct {
	OrderID  int64
	ClientID string
	UserID   int64
	Side     orderbook.Side
	Price    int64
	Qty      int64
}

type OrderRejectedData struct {
	OrderID  int64
	ClientID string
	UserID   int64
	Reason   string
}

type OrderCancelledData struct {
	OrderID   int64
	ClientID  string
	UserID    int64
	LeavesQty int64
	Reason    string
}

type TradeCreatedData struct {
	TradeID      int64
	MakerOrderID int64
	TakerOrderID int64
	MakerUserID  int64
	TakerUserID  int64
	Price        int64
	Qty          int64
}

type OrderFilledData struct {
	OrderID     int64
	ClientID    string
	UserID      int64
	ExecutedQty int64
}

type OrderPartiallyFilledData struct {
	OrderID     int64
	ClientID    string
	UserID      int64
	ExecutedQty int64
	LeavesQty   int64
}

// Engine is an asynchronous wrapper around a Book: one goroutine owns the
// Book exclusively and drains a command channel, pushing a sequenced
// Event feed for callers that want non-blocking submission rather than
// the synchronous Book.ProcessOrder call, grounded on
// exchange-matching/internal/engine/engine.go.
type Engine struct {
	symbol string
	book   *Book

	cmdCh   chan *Command
	eventCh chan *Event

	seq int64
	mu  sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	// orderStore and tradeStore are the optional durable/fan-out
	// collaborators named by the matching core's external interfaces; a
	// nil value disables persistence for that concern.
	orderStore store.OrderStore
	tradeStore store.TradeStore

	// health is ticked once per command drained from cmdCh, so a caller
	// can tell the async goroutine is still alive.
	health *health.LoopMonitor

	logger *logging.Logger
}

// NewEngine returns an Engine over a fresh Book for symbol. Start must be
// called before Submit does anything useful.
func NewEngine(symbol string, cmdBufferSize, eventBufferSize int) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		symbol:  symbol,
		book:    NewBook(symbol),
		cmdCh:   make(chan *Command, cmdBufferSize),
		eventCh: make(chan *Event, eventBufferSize),
		health:  &health.LoopMonitor{},
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Book exposes the synchronous façade underneath, for callers that also
// need direct read-only queries alongside the async command path.
func (e *Engine) Book() *Book { return e.book }

// SetOrderStore installs the order-lifecycle persistence/fan-out
// collaborator; nil (the default) disables it.
func (e *Engine) SetOrderStore(s store.OrderStore) { e.orderStore = s }

// SetTradeStore installs the trade persistence/fan-out collaborator; nil
// (the default) disables it.
func (e *Engine) SetTradeStore(s store.TradeStore) { e.tradeStore = s }

// SetLogger installs the logger used to report store-collaborator errors
// encountered on the engine's own goroutine.
func (e *Engine) SetLogger(l *logging.Logger) { e.logger = l }

// Health returns the liveness monitor ticked once per command this engine
// processes, for a caller to poll or expose on a health endpoint.
func (e *Engine) Health() *health.LoopMonitor { return e.health }

// Start launches the engine's single goroutine.
func (e *Engine) Start() {
	go e.run()
}

// Stop signals the goroutine to exit; it does not wait for it.
func (e *Engine) Stop() {
	e.cancel()
}

// Submit enqueues cmd, returning an error if the engine has stopped or the
// command queue is full.
func (e *Engine) Submit(cmd *Command) error {
	select {
	case <-e.ctx.Done():
		return fmt.Errorf("engine: stopped")
	default:
	}
	select {
	case e.cmdCh <- cmd:
		return nil
	case <-e.ctx.Done():
		return fmt.Errorf("engine: stopped")
	default:
		return fmt.Errorf("engine: command queue full")
	}
}

// Events returns the channel Event values are pushed onto.
func (e *Engine) Events() <-chan *Event {
	return e.eventCh
}

// Done is closed once the engine has been stopped.
func (e *Engine) Done() <-chan struct{} {
	return e.ctx.Done()
}

// Depth delegates to the underlying Book.
func (e *Engine) Depth(n int) (bids, asks []orderbook.PriceQty) {
	return e.book.Depth(n)
}

func (e *Engine) run() {
	for {
		select {
		case cmd := <-e.cmdCh:
			e.health.Tick()
			e.processCommand(cmd)
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *Engine) processCommand(cmd *Command) {
	switch cmd.Type {
	case CmdNewOrder:
		e.processNewOrder(cmd.Order)
	case CmdCancelOrder:
		e.processCancelOrder(cmd.OrderID)
	}
}

func (e *Engine) processNewOrder(order *orderbook.Order) {
	result := e.book.ProcessOrder(order)

	if result.Reject != nil {
		metrics.IncOrdersProcessed(e.symbol, "rejected")
		e.emit(EventOrderRejected, &OrderRejectedData{
			OrderID:  order.ID,
			ClientID: order.ClientID,
			UserID:   order.UserID,
			Reason:   string(result.Reject.Code),
		})
		return
	}

	if e.orderStore != nil {
		if err := e.orderStore.OnOrderSubmitted(context.Background(), order); err != nil {
			e.logOrderError(order.ID, "order store: OnOrderSubmitted", err)
		}
	}

	for _, t := range result.Trades {
		t := t
		metrics.IncTradesCreated(e.symbol, 1)
		if e.tradeStore != nil {
			if err := e.tradeStore.OnTrade(context.Background(), &t); err != nil {
				e.logOrderError(order.ID, "trade store: OnTrade", err)
			}
		}
		e.emit(EventTradeCreated, &TradeCreatedData{
			TradeID:      t.ID,
			MakerOrderID: t.MakerOrderID,
			TakerOrderID: t.TakerOrderID,
			MakerUserID:  makerUserID(t),
			TakerUserID:  takerUserID(t),
			Price:        t.Price,
			Qty:          t.Quantity,
		})
	}

	if len(result.Trades) > 0 && e.orderStore != nil {
		if err := e.orderStore.OnOrderUpdated(context.Background(), order); err != nil {
			e.logOrderError(order.ID, "order store: OnOrderUpdated", err)
		}
	}

	switch order.Status {
	case orderbook.Filled:
		metrics.IncOrdersProcessed(e.symbol, "filled")
		e.emit(EventOrderFilled, &OrderFilledData{
			OrderID:     order.ID,
			ClientID:    order.ClientID,
			UserID:      order.UserID,
			ExecutedQty: order.OriginalQuantity - order.RemainingQuantity,
		})
	case orderbook.PartiallyFilled:
		metrics.IncOrdersProcessed(e.symbol, "partially_filled")
		e.emit(EventOrderPartiallyFilled, &OrderPartiallyFilledData{
			OrderID:     order.ID,
			ClientID:    order.ClientID,
			UserID:      order.UserID,
			ExecutedQty: order.OriginalQuantity - order.RemainingQuantity,
			LeavesQty:   order.RemainingQuantity,
		})
	case orderbook.Cancelled:
		metrics.IncOrdersProcessed(e.symbol, "ioc_expired")
		e.emit(EventOrderCancelled, &OrderCancelledData{
			OrderID:   order.ID,
			ClientID:  order.ClientID,
			UserID:    order.UserID,
			LeavesQty: order.RemainingQuantity,
			Reason:    "IOC_EXPIRED",
		})
	case orderbook.New:
		metrics.IncOrdersProcessed(e.symbol, "accepted")
		e.emit(EventOrderAccepted, &OrderAcceptedData{
			OrderID:  order.ID,
			ClientID: order.ClientID,
			UserID:   order.UserID,
			Side:     order.Side,
			Price:    order.Price,
			Qty:      order.RemainingQuantity,
		})
	}

	e.recordDepth()
}

func (e *Engine) processCancelOrder(orderID int64) {
	order, ok := e.book.Cancel(orderID)
	if !ok {
		e.emit(EventOrderRejected, &OrderRejectedData{
			OrderID: orderID,
			Reason:  "ORDER_NOT_FOUND",
		})
		return
	}
	if e.orderStore != nil {
		if err := e.orderStore.OnOrderUpdated(context.Background(), order); err != nil {
			e.logOrderError(order.ID, "order store: OnOrderUpdated (cancel)", err)
		}
	}
	metrics.IncOrdersProcessed(e.symbol, "cancelled")
	e.emit(EventOrderCancelled, &OrderCancelledData{
		OrderID:   order.ID,
		ClientID:  order.ClientID,
		UserID:    order.UserID,
		LeavesQty: order.RemainingQuantity,
		Reason:    "USER_CANCELLED",
	})
	e.recordDepth()
}

// recordDepth publishes the book's current resting quantity per side to the
// depth gauge; it runs after every book-mutating command so the gauge never
// lags more than one processed command behind the book itself.
func (e *Engine) recordDepth() {
	stats := e.book.Stats()
	metrics.SetOrderbookDepth(e.symbol, "bid", stats.BidVolume)
	metrics.SetOrderbookDepth(e.symbol, "ask", stats.AskVolume)
}

// logOrderError reports a store-collaborator failure on the engine's own
// goroutine without aborting it; a nil logger drops the message, since
// persistence is an optional collaborator, not a correctness dependency
// of the matcher itself. The failing orderID is attached so the line can be
// correlated back to a specific command without parsing msg.
func (e *Engine) logOrderError(orderID int64, msg string, err error) {
	e.health.SetError(err)
	if e.logger == nil {
		return
	}
	e.logger.WithOrderID(orderID).WithError(err).Error(msg)
}

func makerUserID(t orderbook.Trade) int64 {
	if t.MakerOrderID == t.BuyOrderID {
		return t.BuyUserID
	}
	return t.SellUserID
}

func takerUserID(t orderbook.Trade) int64 {
	if t.TakerOrderID == t.BuyOrderID {
		return t.BuyUserID
	}
	return t.SellUserID
}

func (e *Engine) emit(eventType EventType, data interface{}) {
	e.mu.Lock()
	e.seq++
	seq := e.seq
	e.mu.Unlock()

	event := &Event{
		Type:      eventType,
		Symbol:    e.symbol,
		Seq:       seq,
		Timestamp: time.Now().UnixNano(),
		Data:      data,
	}

	select {
	case e.eventCh <- event:
	case <-e.ctx.Done():
	}
}
