// Package feed implements the market-data broadcaster: trades and
// top-of-book deltas pushed to subscribed websocket clients, grounded on
// the teacher's ultra-low-latency broadcaster pattern (a lock-free
// producer hand-off into a dedicated fan-out goroutine, so the goroutine
// generating events never blocks on a slow reader or a registry lock).
package feed

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/orbitcex/matchcore/internal/matching/model"
	"github.com/orbitcex/matchcore/internal/matching/ring"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TradeMessage is one broadcast trade event.
type TradeMessage struct {
	Type        string      `json:"type"`
	Buyer       model.ID    `json:"buyer"`
	Seller      model.ID    `json:"seller"`
	Price       model.Price `json:"price"`
	Quantity    uint64      `json:"quantity"`
	TimestampNs int64       `json:"timestamp_ns"`
}

// TopOfBookMessage is one broadcast top-of-book delta.
type TopOfBookMessage struct {
	Type    string      `json:"type"`
	BestBid model.Price `json:"best_bid,omitempty"`
	HasBid  bool        `json:"has_bid"`
	BestAsk model.Price `json:"best_ask,omitempty"`
	HasAsk  bool        `json:"has_ask"`
}

const clientSendBuffer = 64

// eventQueueSize bounds the matcher-to-broadcaster hand-off ring. It is
// sized generously relative to clientSendBuffer since one queue feeds
// the fan-out to every connected client, not just one.
const eventQueueSize = 4096

type client struct {
	conn *websocket.Conn
	send chan any
}

// eventKind distinguishes the two message shapes carried through the
// lock-free hand-off ring without an interface, keeping Event a plain
// value type so a publish never allocates.
type eventKind uint8

const (
	eventTrade eventKind = iota
	eventTopOfBook
)

// Event is the fixed-size value pushed onto Broadcaster's ring from the
// matcher goroutine; it is copied by value, never heap-allocated per
// publish.
type Event struct {
	kind eventKind

	trade model.Trade

	bestBid model.Price
	hasBid  bool
	bestAsk model.Price
	hasAsk  bool
}

// Broadcaster fans out trade and top-of-book events to every connected
// client. The matcher goroutine hands events off through a lock-free SPSC
// ring: PublishTrade/PublishTopOfBook do a non-blocking TryPush and never
// touch the client registry's mutex. A dedicated goroutine started by Run
// drains the ring and owns the mutex-guarded fan-out, so spec section 5's
// "never takes a mutex in the steady-state hot path" holds for the
// matcher even though ServeWS/remove still need one to guard concurrent
// connect/disconnect of websocket clients.
type Broadcaster struct {
	log *zap.Logger

	events  *ring.Ring[Event]
	dropped uint64

	mu      sync.RWMutex
	clients map[*client]struct{}

	stop chan struct{}
	done chan struct{}
}

// New constructs an empty Broadcaster. Run must be started separately to
// drive the fan-out goroutine.
func New(log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		log:     log,
		events:  ring.New[Event](eventQueueSize),
		clients: make(map[*client]struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// drainIdleBackoff bounds CPU spin while the event ring is empty,
// mirroring the matcher's own idle-poll backoff.
const drainIdleBackoff = 50 * time.Microsecond

// Run drains the event ring and fans events out to connected clients on
// the calling goroutine. It returns once Stop is called and the ring has
// been drained; callers run it via `go broadcaster.Run()`.
func (b *Broadcaster) Run() {
	defer close(b.done)
	for {
		select {
		case <-b.stop:
			b.drainRemaining()
			return
		default:
		}
		ev, ok := b.events.TryPop()
		if !ok {
			time.Sleep(drainIdleBackoff)
			continue
		}
		b.dispatch(ev)
	}
}

func (b *Broadcaster) drainRemaining() {
	for {
		ev, ok := b.events.TryPop()
		if !ok {
			return
		}
		b.dispatch(ev)
	}
}

// Stop signals Run to exit after draining any queued events and blocks
// until it has.
func (b *Broadcaster) Stop() {
	close(b.stop)
	<-b.done
}

func (b *Broadcaster) dispatch(ev Event) {
	switch ev.kind {
	case eventTrade:
		b.publish(TradeMessage{
			Type:        "trade",
			Buyer:       ev.trade.Buyer,
			Seller:      ev.trade.Seller,
			Price:       ev.trade.Price,
			Quantity:    ev.trade.Quantity,
			TimestampNs: ev.trade.TimestampNs,
		})
	case eventTopOfBook:
		b.publish(TopOfBookMessage{
			Type:    "top",
			BestBid: ev.bestBid,
			HasBid:  ev.hasBid,
			BestAsk: ev.bestAsk,
			HasAsk:  ev.hasAsk,
		})
	}
}

// ServeWS upgrades the request to a websocket connection and registers
// it as a subscriber until the connection closes.
func (b *Broadcaster) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan any, clientSendBuffer)}

	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()

	go b.writePump(c)
	go b.readPump(c)
}

func (b *Broadcaster) readPump(c *client) {
	defer b.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (b *Broadcaster) remove(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) publish(msg any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			// Slow client; drop this message rather than block the drain
			// goroutine.
		}
	}
}

// PublishTrade is called from the matcher goroutine on every trade. It
// never blocks and never takes a lock: a full event ring means a slow
// drain goroutine, not a slow client, and the event is dropped and
// counted rather than backing up the matcher.
func (b *Broadcaster) PublishTrade(t model.Trade) {
	b.enqueue(Event{kind: eventTrade, trade: t})
}

// PublishTopOfBook is called from the matcher goroutine after every
// processed command; same non-blocking contract as PublishTrade.
func (b *Broadcaster) PublishTopOfBook(bestBid model.Price, hasBid bool, bestAsk model.Price, hasAsk bool) {
	b.enqueue(Event{kind: eventTopOfBook, bestBid: bestBid, hasBid: hasBid, bestAsk: bestAsk, hasAsk: hasAsk})
}

func (b *Broadcaster) enqueue(ev Event) {
	if !b.events.TryPush(ev) {
		atomic.AddUint64(&b.dropped, 1)
	}
}

// DroppedEvents reports how many events were discarded because the
// hand-off ring was full when the matcher tried to publish them.
func (b *Broadcaster) DroppedEvents() uint64 {
	return atomic.LoadUint64(&b.dropped)
}
