// Command cachedemo wires config, orchestrator, cache, and sessionexpiry
// together into a runnable process, grounded on main.go's flag parsing
// and signal.Notify/SIGTERM graceful shutdown sequence. It has no HTTP
// surface: the teacher's document-store handlers, SSE transport, and
// request-level auth middleware have no equivalent operation in a
// cache/queue library and are not carried forward (see DESIGN.md).
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/concurrentskip/cpslcache/cache"
	"github.com/concurrentskip/cpslcache/config"
	"github.com/concurrentskip/cpslcache/orchestrator"
	"github.com/concurrentskip/cpslcache/sessionexpiry"
)

func main() {
	configPath := flag.String("config", "", "Path to a JSON configuration file (optional)")
	workers := flag.Int("workers", 0, "Override the orchestrator worker pool size (0 = runtime.GOMAXPROCS)")
	sessionTTL := flag.Duration("session-ttl", time.Hour, "How long an issued session token stays valid")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("cachedemo: failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	pool := orchestrator.New(orchestrator.Options{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
	})

	c, err := cache.New[string](cache.Options[string]{
		MaxSize:              cfg.MaxSize,
		MaxLevels:            cfg.MaxLevels,
		PromotionProbability: cfg.PromotionProbability,
		Priority:             cache.RecencyPriority[string](),
		Orchestrator:         pool,
	})
	if err != nil {
		log.Fatalf("cachedemo: failed to construct cache: %v", err)
	}

	sessions, err := sessionexpiry.New(sessionexpiry.Options{
		TokenDuration: *sessionTTL,
		Orchestrator:  pool,
	})
	if err != nil {
		log.Fatalf("cachedemo: failed to construct session manager: %v", err)
	}

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	reaper := sessionexpiry.NewReaper(sessions, *sessionTTL/4+time.Second)
	go reaper.Run(reaperCtx)

	slog.Info("cachedemo: started", "maxSize", cfg.MaxSize, "workers", cfg.Workers, "sessionTTL", *sessionTTL)

	token, err := sessions.Issue("demo")
	if err != nil {
		log.Fatalf("cachedemo: failed to issue demo session: %v", err)
	}
	c.Set("greeting", "hello from cpslcache")
	slog.Info("cachedemo: ready", "demoToken", token, "demoEntry", mustGet(c, "greeting"))

	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	<-ctrlc

	slog.Info("cachedemo: shutting down")
	stopReaper()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Close(shutdownCtx); err != nil {
		slog.Error("cachedemo: orchestrator did not drain cleanly", "error", err)
	}
	slog.Info("cachedemo: stopped")
}

func mustGet(c *cache.Cache[string], key string) string {
	value, _ := c.Get(key)
	return value
}
