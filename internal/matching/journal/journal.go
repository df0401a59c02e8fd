package journal

import (
	"bufio"
	"os"
	"sync/atomic"
	"time"

	"github.com/orbitcex/matchcore/internal/matching/ring"
	"go.uber.org/zap"
)

// DropCounter receives a callback whenever an entry is dropped because the
// ring is full, letting the caller wire it to metrics without journal
// depending on the metrics package.
type DropCounter interface {
	RecordJournalDrop()
}

// Journal is the matcher-facing append log: Log is non-blocking and safe
// to call from the single matcher goroutine; a background goroutine
// drains the ring in bounded batches and flushes to disk, following the
// teacher eventjournal package's async-batched-writer discipline.
type Journal struct {
	ring  *ring.Ring[Entry]
	seq   uint64
	drops DropCounter
	log   *zap.Logger

	file  *os.File
	w     *bufio.Writer

	batchSize int
	flushEvery time.Duration

	stop chan struct{}
	done chan struct{}
}

// Config configures Journal construction.
type Config struct {
	Path       string
	Capacity   int // ring capacity, rounded up to a power of two
	BatchSize  int
	FlushEvery time.Duration
}

// Open creates or truncates the journal file at cfg.Path and starts the
// background drainer.
func Open(cfg Config, drops DropCounter, log *zap.Logger) (*Journal, error) {
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	hdrBuf := make([]byte, HeaderSize)
	encodeHeader(newSessionHeader(time.Now().UnixNano()), hdrBuf)
	if _, err := f.Write(hdrBuf); err != nil {
		f.Close()
		return nil, err
	}
	j := &Journal{
		ring:       ring.New[Entry](cfg.Capacity),
		drops:      drops,
		log:        log,
		file:       f,
		w:          bufio.NewWriterSize(f, cfg.BatchSize*EntrySize),
		batchSize:  cfg.BatchSize,
		flushEvery: cfg.FlushEvery,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go j.drain()
	return j, nil
}

// nextSeq returns the next monotonic sequence number. Log calls it from
// the matcher goroutine and LogBlocking from whichever goroutine records
// a System entry, so the increment is atomic.
func (j *Journal) nextSeq() uint64 {
	return atomic.AddUint64(&j.seq, 1)
}

// Log enqueues e without blocking. On a full ring the entry is dropped
// and counted, never blocking the matcher (spec section 4.6).
func (j *Journal) Log(e Entry) {
	e.Seq = j.nextSeq()
	if !j.ring.TryPush(e) {
		if j.drops != nil {
			j.drops.RecordJournalDrop()
		}
	}
}

// LogBlocking enqueues e, retrying until it fits or timeout elapses. Used
// for entries that must not silently drop (the System entries recording
// engine startup and shutdown).
func (j *Journal) LogBlocking(e Entry, timeout time.Duration) bool {
	e.Seq = j.nextSeq()
	deadline := time.Now().Add(timeout)
	for {
		if j.ring.TryPush(e) {
			return true
		}
		if time.Now().After(deadline) {
			if j.drops != nil {
				j.drops.RecordJournalDrop()
			}
			return false
		}
		time.Sleep(time.Microsecond)
	}
}

func (j *Journal) drain() {
	defer close(j.done)
	buf := make([]byte, EntrySize)
	ticker := time.NewTicker(j.flushEvery)
	defer ticker.Stop()

	drainOnce := func() int {
		n := 0
		for n < j.batchSize {
			e, ok := j.ring.TryPop()
			if !ok {
				break
			}
			Encode(&e, buf)
			if _, err := j.w.Write(buf); err != nil {
				// IoError (spec section 7): the entry is considered lost,
				// same counter as a ring-full drop.
				j.log.Error("journal write failed", zap.Error(err))
				if j.drops != nil {
					j.drops.RecordJournalDrop()
				}
				break
			}
			n++
		}
		return n
	}

	for {
		select {
		case <-j.stop:
			for drainOnce() > 0 {
			}
			if err := j.w.Flush(); err != nil {
				j.log.Error("journal final flush failed", zap.Error(err))
			}
			return
		case <-ticker.C:
			drainOnce()
			if j.w.Buffered() > 0 {
				if err := j.w.Flush(); err != nil {
					j.log.Error("journal flush failed", zap.Error(err))
				}
			}
		default:
			if n := drainOnce(); n == 0 {
				time.Sleep(50 * time.Microsecond)
			} else if n == j.batchSize {
				if err := j.w.Flush(); err != nil {
					j.log.Error("journal flush failed", zap.Error(err))
				}
			}
		}
	}
}

// Close signals the drainer to flush all pending entries and stop, then
// closes the underlying file.
func (j *Journal) Close() error {
	close(j.stop)
	<-j.done
	return j.file.Close()
}
