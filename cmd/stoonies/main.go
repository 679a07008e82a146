// Command stoonies runs the Stoonie World simulation, either in real time
// behind the observer API or as a headless batch of ticks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/stoonie-world/internal/api"
	"github.com/talgya/stoonie-world/internal/config"
	"github.com/talgya/stoonie-world/internal/engine"
	"github.com/talgya/stoonie-world/internal/entropy"
	"github.com/talgya/stoonie-world/internal/journal"
	"github.com/talgya/stoonie-world/internal/world"
)

func main() {
	configPath := flag.String("config", "", "YAML file overlaying the built-in tuning")
	seedFlag := flag.Int64("seed", 0, "world seed (0 = config value, then random)")
	ticks := flag.Uint64("ticks", 0, "run this many ticks headless and exit (0 = real time)")
	journalPath := flag.String("journal", "", "SQLite journal path (overrides config; \"off\" disables)")
	port := flag.Int("port", -1, "API port (overrides config; 0 disables)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("Stoonie World")

	// ── Configuration ────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *journalPath == "off" {
		cfg.Journal.Path = ""
	} else if *journalPath != "" {
		cfg.Journal.Path = *journalPath
	}
	if *port >= 0 {
		cfg.API.Port = *port
	}

	seed := *seedFlag
	if seed == 0 {
		seed = cfg.World.Seed
	}
	rng := entropy.New(seed)
	seed = rng.Seed()

	// ── World ────────────────────────────────────────────────────────
	fc := cfg.World.Forest
	forest := world.GenerateForest(world.GenConfig{
		Radius:      fc.Radius,
		Spacing:     fc.Spacing,
		Threshold:   fc.Threshold,
		Frequency:   fc.Frequency,
		WoodPerTree: fc.WoodPerTree,
		Seed:        seed,
	})
	worldMap := world.NewMap(cfg.World.BoundsRadius, forest)
	slog.Info("world generated", "seed", seed, "map", worldMap.String())

	sim := engine.NewSimulation(cfg, rng, worldMap)
	sim.Populate()

	// ── Journal ──────────────────────────────────────────────────────
	var jnl *journal.Journal
	if cfg.Journal.Path != "" {
		if dir := filepath.Dir(cfg.Journal.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				slog.Error("failed to create journal directory", "dir", dir, "error", err)
				os.Exit(1)
			}
		}
		jnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			slog.Error("failed to open journal", "error", err)
			os.Exit(1)
		}
		defer jnl.Close()
		if _, err := jnl.StartRun(seed); err != nil {
			slog.Error("failed to start journal run", "error", err)
			os.Exit(1)
		}
		slog.Info("journal opened", "path", cfg.Journal.Path)
	}

	flush := func() {
		if jnl == nil {
			return
		}
		if err := jnl.Flush(sim); err != nil {
			slog.Error("journal flush failed", "error", err)
		}
	}

	// ── Engine ───────────────────────────────────────────────────────
	eng := engine.NewEngine(cfg.Engine.TickDT, time.Duration(cfg.Engine.TickIntervalMs)*time.Millisecond)
	eng.SetSpeed(cfg.Engine.Speed)
	eng.ReportEvery = uint64(cfg.Engine.ReportEveryTicks)
	eng.SampleEvery = uint64(cfg.Engine.SampleEveryTicks)
	eng.OnTick = func(_ uint64, dt float64) { sim.Tick(dt) }
	eng.OnReport = func(uint64) { sim.Report() }
	eng.OnSample = func(uint64) { flush() }

	if *ticks > 0 {
		start := time.Now()
		eng.RunFor(*ticks)
		flush()
		sim.Report()
		printSummary(sim, time.Since(start))
		return
	}

	// ── HTTP API ─────────────────────────────────────────────────────
	if cfg.API.Port > 0 {
		if cfg.API.AdminKey == "" {
			slog.Warn(config.AdminKeyEnv + " not set; admin POST endpoints will be disabled")
		}
		apiServer := &api.Server{
			Sim:        sim,
			Eng:        eng,
			Journal:    jnl,
			Port:       cfg.API.Port,
			AdminKey:   cfg.API.AdminKey,
			SpawnLimit: cfg.API.SpawnLimitPerHour,
		}
		apiServer.Start()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	}

	// ── Start ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim.View(func(s *engine.Simulation) {
		fmt.Printf("\nStoonie World is alive: %d stoonies, %d demons, %d trees.\n",
			s.Stats.Stoonies, s.Stats.Demons, s.Stats.Trees)
	})
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	start := time.Now()
	eng.Run(ctx)

	flush()
	printSummary(sim, time.Since(start))
}

func printSummary(sim *engine.Simulation, wall time.Duration) {
	sim.View(func(s *engine.Simulation) {
		st := s.Stats
		fmt.Printf("\nRan %s ticks (%s simulated) in %s.\n",
			humanize.Comma(int64(s.CurrentTick())), engine.SimTime(s.Now()), wall.Round(time.Millisecond))
		fmt.Printf("Stoonies: %d (%d pregnant), demons: %d\n", st.Stoonies, st.Pregnant, st.Demons)
		fmt.Printf("Births: %s, deaths: %s, matings: %s\n",
			humanize.Comma(int64(st.Births)), humanize.Comma(int64(st.Deaths)), humanize.Comma(int64(st.Matings)))
		fmt.Printf("Souls attached: %d of %d\n", st.SoulsAttached, st.SoulsAttached+st.SoulsAvailable)
		fmt.Printf("Wood gathered: %s (%d trees left)\n", humanize.Comma(int64(st.Resources["wood"])), st.Trees)
	})
}
