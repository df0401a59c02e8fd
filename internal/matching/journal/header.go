package journal

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// magic identifies a matchcore journal file; version allows the record
// format to evolve without breaking older readers silently.
const (
	magic   uint32 = 0x4d43524a // "MCRJ"
	version uint16 = 1
)

// HeaderSize is the fixed size of the file-level header written once at
// the start of every journal file (spec section 4.6 permits this).
const HeaderSize = 4 + 2 + 2 + 16 + 8

// Header identifies one journal file: its format version and the
// session that produced it, so a reader concatenating or replaying
// multiple journal files can tell them apart.
type Header struct {
	Version   uint16
	SessionID uuid.UUID
	StartNs   int64
}

func encodeHeader(h Header, buf []byte) {
	_ = buf[HeaderSize-1]
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], 0)
	copy(buf[8:24], h.SessionID[:])
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.StartNs))
}

// DecodeHeader reads a Header from buf, which must be at least
// HeaderSize bytes and begin with the matchcore magic number.
func DecodeHeader(buf []byte) (Header, bool) {
	if len(buf) < HeaderSize || binary.LittleEndian.Uint32(buf[0:4]) != magic {
		return Header{}, false
	}
	var h Header
	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	copy(h.SessionID[:], buf[8:24])
	h.StartNs = int64(binary.LittleEndian.Uint64(buf[24:32]))
	return h, true
}

// newSessionHeader builds a Header for a freshly opened journal file.
func newSessionHeader(startNs int64) Header {
	return Header{Version: version, SessionID: uuid.New(), StartNs: startNs}
}
