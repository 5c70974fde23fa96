package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/talgya/planetary-ascension/internal/api"
	"github.com/talgya/planetary-ascension/internal/catalog"
	"github.com/talgya/planetary-ascension/internal/config"
	"github.com/talgya/planetary-ascension/internal/engine"
	"github.com/talgya/planetary-ascension/internal/metrics"
	"github.com/talgya/planetary-ascension/internal/persistence"
	"github.com/talgya/planetary-ascension/internal/surface"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tick loop and serve the HTTP/WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

// newGame builds the game and the engine that drives it from config.
func newGame(cfg config.Config) (*engine.Game, *engine.Engine, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	hub := engine.NewHub(cfg.Server.RecentEvents)
	game := engine.NewGame(engine.Options{
		Catalog: cat,
		Surface: surface.Config{
			Width:  cfg.Surface.Width,
			Height: cfg.Surface.Height,
			Seed:   cfg.Surface.Seed,
		},
		Interval: cfg.Engine.Interval.Duration,
		Hub:      hub,
	})

	eng := engine.NewEngine()
	eng.Interval = cfg.Engine.Interval.Duration
	eng.SetSpeed(cfg.Engine.Speed)
	return game, eng, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	slog.Info("Planetary Ascension economy engine starting")

	game, eng, err := newGame(cfg)
	if err != nil {
		return err
	}
	hub := game.Hub()

	// ── Metrics ───────────────────────────────────────────────────────
	hub.Observe(metrics.Observe)
	metrics.RegisterEngine(eng, hub)

	eng.OnTick = func(tick uint64) {
		start := time.Now()
		game.Tick(tick)
		metrics.TicksTotal.Inc()
		metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
	eng.OnSecond = func(tick uint64) {
		metrics.SampleAccounts(game.Accounts())
		game.PublishResources()
	}
	eng.OnMinute = func(tick uint64) {
		res := game.Resources()
		attrs := []any{"tick", tick, "elapsed", game.ElapsedTime(), "buildings", len(game.Placements())}
		for _, v := range res {
			attrs = append(attrs, v.Resource.String(), v.Display)
		}
		slog.Info("minute report", attrs...)
	}

	var wg sync.WaitGroup

	// ── Journal ───────────────────────────────────────────────────────
	var journal *persistence.DB
	closeJournal := func() {}
	if cfg.Journal.Path != "" {
		if dir := filepath.Dir(cfg.Journal.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("journal dir: %w", err)
			}
		}
		session := uuid.NewString()
		journal, err = persistence.Open(cfg.Journal.Path, session)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer journal.Close()

		surf := game.Surface(1, 1)
		for k, v := range map[string]string{
			"started_at":   time.Now().UTC().Format(time.RFC3339),
			"surface_seed": strconv.FormatInt(surf.Seed, 10),
			"interval":     cfg.Engine.Interval.String(),
		} {
			if err := journal.SaveMeta(k, v); err != nil {
				slog.Warn("journal meta write failed", "key", k, "error", err)
			}
		}

		events, unsubscribe := hub.Subscribe(cfg.Server.EventBuffer * 4)
		if err := journal.SaveEvents(hub.Recent(0)); err != nil {
			slog.Warn("journal backfill failed", "error", err)
		}
		// The recorder outlives ctx: it exits when the subscription closes,
		// after the engine and the API have stopped publishing.
		recorded := make(chan struct{})
		go func() {
			defer close(recorded)
			journal.Record(context.Background(), events, cfg.Journal.Batch, cfg.Journal.FlushEvery.Duration)
		}()
		closeJournal = func() {
			unsubscribe()
			<-recorded
		}
		slog.Info("journal opened", "path", cfg.Journal.Path, "session", session)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.Server.AdminKey == "" {
		slog.Warn(config.EnvAdminKey + " not set, engine control endpoints are disabled")
	}
	server := api.NewServer(game, eng)
	server.Journal = journal
	server.AdminKey = cfg.Server.AdminKey
	server.EventBuffer = cfg.Server.EventBuffer
	if cfg.Server.RatePerSecond > 0 {
		server.Limiter = api.NewRateLimiter(cfg.Server.RatePerSecond, cfg.Server.RateBurst)
		defer server.Limiter.Close()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe(ctx, cfg.Server.Addr) }()

	// ── Tick loop ─────────────────────────────────────────────────────
	wg.Add(1)
	go func() {
		defer wg.Done()
		eng.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down", "tick", eng.Tick(), "elapsed", game.ElapsedTime())
		err = <-errCh
	case err = <-errCh:
		cancel()
	}
	wg.Wait()
	closeJournal()
	return err
}
