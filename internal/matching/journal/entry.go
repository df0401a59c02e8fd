// Package journal implements the append-only, fixed-size binary journal
// from spec section 4.6: an SPSC ring of pending entries drained by a
// background goroutine in bounded batches, plus a periodic badger-backed
// checkpoint of book state (supplemented from original_source's
// batched-write journaler discipline).
package journal

import (
	"encoding/binary"

	"github.com/orbitcex/matchcore/internal/matching/model"
)

// Tag identifies the kind of event a journal entry records. Add, Cancel,
// Modify, Trade and System are spec section 3's event kinds; Reject is a
// spec section 7 addition recording an absorbed error rather than a
// substitute for System, which is reserved for session-control events
// (engine startup/shutdown) logged via LogBlocking.
type Tag uint8

const (
	TagAdd Tag = iota
	TagCancel
	TagModify
	TagTrade
	TagReject
	TagSystem
)

// EntrySize is the fixed on-disk size of every journal record: a 1-byte
// tag, 7 reserved bytes, an 8-byte sequence number, an 8-byte nanosecond
// timestamp, and a 40-byte payload. Trade, the largest fixed-field
// variant, uses 32 payload bytes; Reject stores its reason text after the
// order id and System stores it from the first payload byte, both
// truncated at the end of the payload.
const EntrySize = 1 + 7 + 8 + 8 + 40

// Entry is one fixed-size journal record. Only the fields relevant to Tag
// are meaningful; the rest are zero.
type Entry struct {
	Tag         Tag
	Seq         uint64
	TimestampNs int64

	OrderID  model.ID
	Side     model.Side
	Kind     model.Kind
	Price    model.Price
	Quantity uint64

	NewSide  model.Side
	NewPrice model.Price
	NewQty   uint64

	Buyer  model.ID
	Seller model.ID

	Reason string // truncated to fit the reserved reject-reason bytes
}

// Encode writes e into buf, which must be at least EntrySize bytes.
func Encode(e *Entry, buf []byte) {
	_ = buf[EntrySize-1]
	buf[0] = byte(e.Tag)
	for i := 1; i < 8; i++ {
		buf[i] = 0
	}
	binary.LittleEndian.PutUint64(buf[8:16], e.Seq)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(e.TimestampNs))

	p := buf[24:64]
	for i := range p {
		p[i] = 0
	}
	switch e.Tag {
	case TagAdd:
		binary.LittleEndian.PutUint64(p[0:8], uint64(e.OrderID))
		p[8] = byte(e.Side)
		p[9] = byte(e.Kind)
		binary.LittleEndian.PutUint64(p[10:18], uint64(e.Price))
		binary.LittleEndian.PutUint64(p[18:26], e.Quantity)
	case TagCancel:
		binary.LittleEndian.PutUint64(p[0:8], uint64(e.OrderID))
	case TagModify:
		binary.LittleEndian.PutUint64(p[0:8], uint64(e.OrderID))
		p[8] = byte(e.NewSide)
		binary.LittleEndian.PutUint64(p[9:17], uint64(e.NewPrice))
		binary.LittleEndian.PutUint64(p[17:25], e.NewQty)
	case TagTrade:
		binary.LittleEndian.PutUint64(p[0:8], uint64(e.Buyer))
		binary.LittleEndian.PutUint64(p[8:16], uint64(e.Seller))
		binary.LittleEndian.PutUint64(p[16:24], uint64(e.Price))
		binary.LittleEndian.PutUint64(p[24:32], e.Quantity)
	case TagReject:
		binary.LittleEndian.PutUint64(p[0:8], uint64(e.OrderID))
		n := copy(p[8:], e.Reason)
		_ = n
	case TagSystem:
		copy(p, e.Reason)
	}
}

// Decode reads an Entry from buf, which must be at least EntrySize bytes.
func Decode(buf []byte) Entry {
	_ = buf[EntrySize-1]
	var e Entry
	e.Tag = Tag(buf[0])
	e.Seq = binary.LittleEndian.Uint64(buf[8:16])
	e.TimestampNs = int64(binary.LittleEndian.Uint64(buf[16:24]))

	p := buf[24:64]
	switch e.Tag {
	case TagAdd:
		e.OrderID = model.ID(binary.LittleEndian.Uint64(p[0:8]))
		e.Side = model.Side(p[8])
		e.Kind = model.Kind(p[9])
		e.Price = model.Price(binary.LittleEndian.Uint64(p[10:18]))
		e.Quantity = binary.LittleEndian.Uint64(p[18:26])
	case TagCancel:
		e.OrderID = model.ID(binary.LittleEndian.Uint64(p[0:8]))
	case TagModify:
		e.OrderID = model.ID(binary.LittleEndian.Uint64(p[0:8]))
		e.NewSide = model.Side(p[8])
		e.NewPrice = model.Price(binary.LittleEndian.Uint64(p[9:17]))
		e.NewQty = binary.LittleEndian.Uint64(p[17:25])
	case TagTrade:
		e.Buyer = model.ID(binary.LittleEndian.Uint64(p[0:8]))
		e.Seller = model.ID(binary.LittleEndian.Uint64(p[8:16]))
		e.Price = model.Price(binary.LittleEndian.Uint64(p[16:24]))
		e.Quantity = binary.LittleEndian.Uint64(p[24:32])
	case TagReject:
		e.OrderID = model.ID(binary.LittleEndian.Uint64(p[0:8]))
	}
	return e
}
