package engine

import (
	"context"
	"testing"
	"time"
)

func TestRunForCallsCallbacks(t *testing.T) {
	e := NewEngine(0.05, time.Millisecond)
	e.ReportEvery = 10
	e.SampleEvery = 5

	var ticks, reports, samples int
	var lastDT float64
	e.OnTick = func(tick uint64, dt float64) { ticks++; lastDT = dt }
	e.OnReport = func(uint64) { reports++ }
	e.OnSample = func(uint64) { samples++ }

	e.RunFor(25)
	if ticks != 25 || e.Tick() != 25 {
		t.Fatalf("expected 25 ticks, got %d (engine %d)", ticks, e.Tick())
	}
	if reports != 2 || samples != 5 {
		t.Fatalf("expected 2 reports and 5 samples, got %d and %d", reports, samples)
	}
	if lastDT != 0.05 {
		t.Fatalf("expected fixed dt 0.05, got %v", lastDT)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	e := NewEngine(0.05, time.Millisecond)
	e.SetSpeed(10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for e.Tick() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Run to return after cancel")
	}
	if e.Tick() < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", e.Tick())
	}
	if e.Running() {
		t.Fatal("expected engine to report stopped")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	e := NewEngine(0.05, time.Millisecond)
	e.Stop()
	e.Stop()
	e.Run(context.Background())
	if e.Tick() != 0 {
		t.Fatalf("expected a stopped engine not to tick, got %d", e.Tick())
	}
}

func TestSpeedClampsNegative(t *testing.T) {
	e := NewEngine(0.05, time.Millisecond)
	e.SetSpeed(-3)
	if e.Speed() != 0 {
		t.Fatalf("expected negative speed to pause, got %v", e.Speed())
	}
}

func TestSimTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "Day 1, 00:00:00"},
		{3725, "Day 1, 01:02:05"},
		{86400 + 61.9, "Day 2, 00:01:01"},
	}
	for _, tt := range tests {
		if got := SimTime(tt.seconds); got != tt.want {
			t.Fatalf("SimTime(%v): expected %q, got %q", tt.seconds, tt.want, got)
		}
	}
}
