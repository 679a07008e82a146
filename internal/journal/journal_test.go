package journal

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/talgya/stoonie-world/internal/config"
	"github.com/talgya/stoonie-world/internal/engine"
	"github.com/talgya/stoonie-world/internal/entropy"
	"github.com/talgya/stoonie-world/internal/world"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestWritesRequireRun(t *testing.T) {
	j := openTestJournal(t)
	if err := j.SaveEvents([]engine.Event{{Category: "birth"}}); !errors.Is(err, ErrNoRun) {
		t.Fatalf("expected ErrNoRun, got %v", err)
	}
	if err := j.SaveSample(Sample{}); !errors.Is(err, ErrNoRun) {
		t.Fatalf("expected ErrNoRun, got %v", err)
	}
}

func TestSaveAndReadEvents(t *testing.T) {
	j := openTestJournal(t)
	if _, err := j.StartRun(7); err != nil {
		t.Fatalf("start run: %v", err)
	}

	events := []engine.Event{
		{Seq: 1, Tick: 1, Category: engine.CategoryCreated, Description: "a", AgentID: 1, Kind: "stoonie"},
		{Seq: 2, Tick: 5, Category: engine.CategoryMating, Description: "b", AgentID: 2, OtherID: 1},
		{Seq: 3, Tick: 9, Category: engine.CategoryBirth, Description: "c", AgentID: 2, OtherID: 3},
	}
	if err := j.SaveEvents(events); err != nil {
		t.Fatalf("save events: %v", err)
	}

	got, err := j.RecentEvents(2)
	if err != nil {
		t.Fatalf("recent events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Category != engine.CategoryBirth || got[0].OtherID != 3 {
		t.Fatalf("expected newest birth event first, got %+v", got[0])
	}
	if got[1].Tick != 5 {
		t.Fatalf("expected mating at tick 5 second, got %+v", got[1])
	}
}

func TestRunsAreIsolated(t *testing.T) {
	j := openTestJournal(t)
	j.StartRun(1)
	j.SaveEvents([]engine.Event{{Seq: 1, Category: engine.CategoryBirth}})
	j.SaveMeta("last_tick", "10")

	j.StartRun(2)
	got, err := j.RecentEvents(10)
	if err != nil {
		t.Fatalf("recent events: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected a fresh run to see no events, got %d", len(got))
	}
	if _, err := j.GetMeta("last_tick"); err == nil {
		t.Fatal("expected no meta for the fresh run")
	}
}

func TestFlushWritesNewEventsOnce(t *testing.T) {
	j := openTestJournal(t)
	j.StartRun(42)

	cfg := config.Default()
	sim := engine.NewSimulation(cfg, entropy.New(42), world.NewMap(cfg.World.BoundsRadius, world.NewForest()))
	sim.Populate()
	for i := 0; i < 10; i++ {
		sim.Tick(cfg.Engine.TickDT)
	}

	if err := j.Flush(sim); err != nil {
		t.Fatalf("flush: %v", err)
	}
	first, _ := j.RecentEvents(100)
	if len(first) < 4 {
		t.Fatalf("expected at least the 4 creation events, got %d", len(first))
	}

	if err := j.Flush(sim); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	second, _ := j.RecentEvents(100)
	if len(second) != len(first) {
		t.Fatalf("expected no duplicate events, got %d then %d", len(first), len(second))
	}

	samples, err := j.Samples(10)
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Stoonies != 3 || samples[0].Tick != 10 {
		t.Fatalf("expected 3 stoonies at tick 10, got %+v", samples[0])
	}
	if v, err := j.GetMeta("last_tick"); err != nil || v != "10" {
		t.Fatalf("expected last_tick 10, got %q (%v)", v, err)
	}
}
