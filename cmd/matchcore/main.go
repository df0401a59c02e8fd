// Command matchcore runs a single-symbol limit order book matching
// engine with an HTTP observation/ingress API and a websocket
// market-data feed.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orbitcex/matchcore/internal/matching/api"
	"github.com/orbitcex/matchcore/internal/matching/config"
	"github.com/orbitcex/matchcore/internal/matching/engine"
	"github.com/orbitcex/matchcore/internal/matching/feed"
	"github.com/orbitcex/matchcore/internal/matching/journal"
	"github.com/orbitcex/matchcore/internal/matching/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a matchcore config file (optional)")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	rec := metrics.New()
	exporter := metrics.NewExporter(rec)
	if err := prometheus.Register(exporter); err != nil {
		log.Fatal("failed to register metrics exporter", zap.Error(err))
	}

	jrnl, err := journal.Open(journal.Config{
		Path:       cfg.JournalPath,
		Capacity:   cfg.JournalCapacity,
		BatchSize:  cfg.JournalBatchSize,
		FlushEvery: cfg.JournalFlushEvery,
	}, journalDrops{rec}, log)
	if err != nil {
		log.Fatal("failed to open journal", zap.Error(err))
	}
	defer jrnl.Close()

	checkpoints, err := journal.OpenCheckpointStore(cfg.CheckpointDir)
	if err != nil {
		log.Fatal("failed to open checkpoint store", zap.Error(err))
	}
	defer checkpoints.Close()

	if seq, _, _, ok, err := checkpoints.Load(); err != nil {
		log.Warn("failed to read prior checkpoint", zap.Error(err))
	} else if ok {
		// Full recovery would replay the journal from seq forward; a
		// fresh in-memory book always starts empty regardless, since
		// resting orders cannot be reconstructed from aggregated levels
		// alone.
		log.Info("found prior checkpoint", zap.Uint64("seq", seq))
	}

	broadcaster := feed.New(log)
	go broadcaster.Run()
	defer broadcaster.Stop()

	eng := engine.New(cfg.EngineConfig(), jrnl, rec, log, broadcaster)
	logSystemEvent(jrnl, "engine_started")
	defer logSystemEvent(jrnl, "engine_stopped")

	go eng.Run()
	defer eng.Stop()

	stopCheckpoints := runCheckpointLoop(eng, checkpoints, cfg.CheckpointEvery, log)
	defer stopCheckpoints()

	server := api.NewServer(eng, log)
	router := server.Router()

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", broadcaster.ServeWS)
	wsServer := &http.Server{Addr: cfg.WSAddr, Handler: wsMux}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server stopped", zap.Error(err))
		}
	}()
	go func() {
		log.Info("websocket server listening", zap.String("addr", cfg.WSAddr))
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("websocket server stopped", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	_ = wsServer.Shutdown(shutdownCtx)
}

// systemLogTimeout bounds how long a session-control journal entry may
// retry before giving up; System entries use LogBlocking rather than Log
// since a lost startup/shutdown record would leave no trace of when the
// engine's lifetime began or ended.
const systemLogTimeout = time.Second

func logSystemEvent(jrnl *journal.Journal, reason string) {
	jrnl.LogBlocking(journal.Entry{Tag: journal.TagSystem, TimestampNs: time.Now().UnixNano(), Reason: reason}, systemLogTimeout)
}

type journalDrops struct {
	rec *metrics.Record
}

func (j journalDrops) RecordJournalDrop() {
	j.rec.RecordJournalDrop()
}

func runCheckpointLoop(eng *engine.Engine, store *journal.CheckpointStore, every time.Duration, log *zap.Logger) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		var seq uint64
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				bids, asks := eng.BookSnapshot(1 << 20)
				seq++
				if err := store.Save(seq, bids, asks); err != nil {
					log.Warn("checkpoint save failed", zap.Error(err))
				}
			}
		}
	}()
	return func() {
		close(stop)
		<-done
	}
}
