// Package clockid provides the Clock collaborator named by the matching
// core's external interfaces (now_nanos, used only by callers to stamp
// orders) plus a snowflake-layout generator callers use to assign
// coordination-free order/trade ids across multiple engine processes. The
// matching core in internal/orderbook and internal/engine never imports
// this package; order.id stays externally assigned.
//
// Unlike exchange-common/pkg/snowflake, there is no package-level
// defaultGenerator/Init/NextID singleton: cmd/matching constructs exactly
// one *Generator from config.WorkerID and threads it explicitly to every
// call site that mints an id, so two engines in the same process (or a test)
// can never collide by sharing hidden global state.
package clockid

import (
	"errors"
	"sync"
	"time"
)

// NowNanos returns the current wall-clock time in nanoseconds since epoch.
func NowNanos() int64 {
	return time.Now().UnixNano()
}

const (
	epoch int64 = 1704067200000 // 2024-01-01T00:00:00Z, in milliseconds

	workerIDBits = 10
	sequenceBits = 12

	maxWorkerID = -1 ^ (-1 << workerIDBits)
	maxSequence = -1 ^ (-1 << sequenceBits)

	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

var (
	ErrInvalidWorkerID = errors.New("clockid: worker id must be between 0 and 1023")
	ErrClockMovedBack  = errors.New("clockid: clock moved backwards")
)

// Generator hands out monotonically increasing 64-bit ids, unique across
// every Generator sharing a distinct workerID, grounded on
// exchange-common/pkg/snowflake.
type Generator struct {
	mu       sync.Mutex
	workerID int64
	sequence int64
	lastTime int64
}

// New returns a Generator for the given worker id (0-1023).
func New(workerID int64) (*Generator, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, ErrInvalidWorkerID
	}
	return &Generator{workerID: workerID}, nil
}

// Generate returns the next id, spinning past the current millisecond if
// its 4096-id sequence space is exhausted.
func (g *Generator) Generate() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < g.lastTime {
		return 0, ErrClockMovedBack
	}
	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			for now <= g.lastTime {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = now

	id := ((now - epoch) << timestampShift) | (g.workerID << workerIDShift) | g.sequence
	return id, nil
}

// MustGenerate panics if Generate returns an error. cmd/matching uses this
// for seed/demo order ids, where a clock moving backwards is unrecoverable
// anyway.
func (g *Generator) MustGenerate() int64 {
	id, err := g.Generate()
	if err != nil {
		panic(err)
	}
	return id
}

// WorkerID returns the worker id this Generator was constructed with, so a
// caller holding only a *Generator (not the original config.WorkerID) can
// still tag logs or metrics with it.
func (g *Generator) WorkerID() int64 {
	return g.workerID
}

// Parse recovers the generation time, worker id, and sequence from an id
// produced by Generate.
func Parse(id int64) (timestampMs, workerID, sequence int64) {
	timestampMs = (id >> timestampShift) + epoch
	workerID = (id >> workerIDShift) & maxWorkerID
	sequence = id & maxSequence
	return
}
