// Command statehub serves a reactive state graph over Connect RPC. It loads
// an optional JSON config and initial state document, then exposes Get, Set,
// and Watch on the configured address. Clients talk to it with rpc.Client or
// any Connect-compatible caller.
//
// Usage:
//
//	statehub -config hub.json
//	statehub -addr :8480 -state initial.json -verbose
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/rnx-ui/reactive/observability"
	"github.com/rnx-ui/reactive/rpc"
	"github.com/rnx-ui/reactive/state"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to hub config JSON file")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		stateFile  = flag.String("state", "", "Path to initial state JSON file (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	cfg := rpc.DefaultConfig()
	if *configFile != "" {
		loaded, err := rpc.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	if *addr != "" {
		cfg.Addr = *addr
	}
	if *stateFile != "" {
		cfg.InitialState = *stateFile
	}

	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		log.Fatalf("Unknown observer %q: %v", cfg.Observer, err)
	}

	initial := map[string]any{}
	if cfg.InitialState != "" {
		data, err := os.ReadFile(cfg.InitialState)
		if err != nil {
			log.Fatalf("Failed to read initial state: %v", err)
		}
		if err := json.Unmarshal(data, &initial); err != nil {
			log.Fatalf("Failed to parse initial state: %v", err)
		}
	}

	handle := state.New(initial, state.WithObserver(observer))
	defer handle.Destroy()

	server := rpc.NewServer(handle,
		rpc.WithLogger(logger),
		rpc.WithWatchBuffer(cfg.WatchBuffer),
	)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: h2c.NewHandler(server.Handler(), &http2.Server{}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("statehub listening",
		slog.String("addr", cfg.Addr),
		slog.String("state_id", handle.ID()),
	)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	logger.Info("statehub stopped")
}
