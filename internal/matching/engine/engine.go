package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/orbitcex/matchcore/internal/matching/book"
	"github.com/orbitcex/matchcore/internal/matching/journal"
	"github.com/orbitcex/matchcore/internal/matching/metrics"
	"github.com/orbitcex/matchcore/internal/matching/model"
	"github.com/orbitcex/matchcore/internal/matching/pool"
	"github.com/orbitcex/matchcore/internal/matching/ring"
	"github.com/orbitcex/matchcore/internal/matching/risk"
	"go.uber.org/zap"
)

// BackpressurePolicy governs what a producer call does when the command
// queue is full (spec section 6).
type BackpressurePolicy uint8

const (
	// Spin retries until the command queue has room.
	Spin BackpressurePolicy = iota
	// FailFast returns ErrQueueFull immediately.
	FailFast
)

// ErrQueueFull is returned by a producer call under FailFast when the
// command queue is full.
var ErrQueueFull = errors.New("engine: command queue full")

// ErrClosed is returned by a producer call after Stop has been called.
var ErrClosed = errors.New("engine: closed")

// Config configures Engine construction (spec section 6).
type Config struct {
	CommandQueueCapacity int
	OrderPoolInitialSize int
	Risk                 risk.Config
	Backpressure         BackpressurePolicy
}

// Engine is the producer-facing API: Add, Cancel, Modify enqueue commands
// for the single matcher goroutine and never touch the book directly.
type Engine struct {
	cmds *ring.Ring[model.Command]
	pool *pool.OrderPool
	m    *matcher
	rec  *metrics.Record
	log  *zap.Logger

	backpressure BackpressurePolicy

	closed chan struct{}
	done   chan struct{}
	once   sync.Once
}

// New constructs an Engine and its owned matcher, book and order pool,
// but does not start the matcher goroutine; call Run for that. feed may
// be nil if no market-data broadcaster is wired.
func New(cfg Config, jrnl *journal.Journal, rec *metrics.Record, log *zap.Logger, feed Publisher) *Engine {
	p := pool.New(cfg.OrderPoolInitialSize)
	b := book.New()
	gate := risk.New(cfg.Risk)
	return &Engine{
		cmds:         ring.New[model.Command](cfg.CommandQueueCapacity),
		pool:         p,
		m:            newMatcher(b, p, gate, jrnl, rec, log, feed),
		rec:          rec,
		log:          log,
		backpressure: cfg.Backpressure,
		closed:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Run drives the matcher loop until Stop is called. It must be run on
// its own goroutine and never on the goroutine that calls Add/Cancel/
// Modify (spec section 5's single-writer requirement).
func (e *Engine) Run() {
	defer close(e.done)
	for {
		cmd, ok := e.cmds.TryPop()
		if !ok {
			select {
			case <-e.closed:
				return
			default:
				time.Sleep(idleBackoff)
				continue
			}
		}
		e.m.process(&cmd, time.Now().UnixNano())
		e.rec.UpdateQueueDepth(e.cmds.Size())
	}
}

// Stop signals Run to drain the remaining queue and return, then blocks
// until it has.
func (e *Engine) Stop() {
	e.once.Do(func() { close(e.closed) })
	<-e.done
}

func (e *Engine) enqueue(cmd model.Command) error {
	select {
	case <-e.closed:
		return ErrClosed
	default:
	}
	if e.cmds.TryPush(cmd) {
		return nil
	}
	switch e.backpressure {
	case FailFast:
		return ErrQueueFull
	default:
		for !e.cmds.TryPush(cmd) {
			select {
			case <-e.closed:
				return ErrClosed
			default:
				time.Sleep(idleBackoff)
			}
		}
		return nil
	}
}

// AddOrder submits a new order record for matching. The identifier is
// supplied by the caller (spec section 3: "opaque 64-bit unsigned integer,
// globally unique within a session") rather than assigned here; an id that
// collides with a resting order is silently discarded by the matcher as a
// DuplicateIdentifier (spec section 7).
func (e *Engine) AddOrder(id model.ID, side model.Side, kind model.Kind, price model.Price, qty uint64) error {
	o := e.pool.Acquire()
	o.ID = id
	o.Side = side
	o.Kind = kind
	o.Price = price
	o.Initial = qty
	o.Residual = qty

	cmd := model.Command{Tag: model.CmdAdd, Order: o, IngressNs: time.Now().UnixNano()}
	if err := e.enqueue(cmd); err != nil {
		o.Residual = 0
		e.pool.Release(o)
		return err
	}
	return nil
}

// Cancel submits a cancel for id.
func (e *Engine) Cancel(id model.ID) error {
	cmd := model.Command{Tag: model.CmdCancel, ID: id, IngressNs: time.Now().UnixNano()}
	return e.enqueue(cmd)
}

// Modify submits a modify for id, replacing its side, price and quantity.
// Per spec section 4.4's explicit standardization this is equivalent to a
// Cancel followed by an Add: the order loses time priority.
func (e *Engine) Modify(id model.ID, newSide model.Side, newPrice model.Price, newQty uint64) error {
	cmd := model.Command{Tag: model.CmdModify, ID: id, NewSide: newSide, NewPrice: newPrice, NewQty: newQty, IngressNs: time.Now().UnixNano()}
	return e.enqueue(cmd)
}

// MetricsSnapshot returns a point-in-time snapshot of engine metrics.
func (e *Engine) MetricsSnapshot() metrics.Snapshot {
	return e.rec.Snapshot()
}

// BookSnapshot returns up to maxLevels aggregated rows per side. Safe to
// call from any goroutine; it is a best-effort read of state the matcher
// may be concurrently mutating; see spec section 6's book_snapshot
// contract.
func (e *Engine) BookSnapshot(maxLevels int) (bids, asks []book.LevelSnapshot) {
	return e.m.book.Snapshot(maxLevels)
}

// ResetStats clears accumulated metrics, the warm-up operation
// supplemented from original_source's Orderbook::Warmup.
func (e *Engine) ResetStats() {
	e.rec.Reset()
}
