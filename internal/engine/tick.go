// Package engine provides the simulation components and the real-time tick
// loop that drives them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Engine drives the simulation forward at a fixed simulated step. Speed
// scales the wall-clock interval between ticks; it never changes dt, so a
// run is reproducible regardless of speed.
type Engine struct {
	DeltaTime   float64       // Simulated seconds per tick
	Interval    time.Duration // Wall-clock tick interval at speed 1
	ReportEvery uint64        // Ticks between OnReport calls; 0 disables
	SampleEvery uint64        // Ticks between OnSample calls; 0 disables

	// Callbacks populated during setup.
	OnTick   func(tick uint64, dt float64)
	OnReport func(tick uint64)
	OnSample func(tick uint64)

	mu    sync.Mutex
	tick  uint64
	speed float64

	running atomic.Bool
	stop    chan struct{}
}

// NewEngine creates an engine at speed 1.
func NewEngine(dt float64, interval time.Duration) *Engine {
	return &Engine{
		DeltaTime: dt,
		Interval:  interval,
		speed:     1.0,
		stop:      make(chan struct{}),
	}
}

// Tick returns the number of ticks run.
func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Speed returns the current multiplier. 0 means paused.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the multiplier. Negative values pause.
func (e *Engine) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
	slog.Info("engine speed changed", "speed", speed)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run steps the simulation in real time until ctx is cancelled or Stop is
// called.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "tick", e.Tick(), "speed", e.Speed(), "dt", e.DeltaTime)

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.Tick(), "reason", ctx.Err())
			return
		case <-e.stop:
			slog.Info("simulation engine stopped", "tick", e.Tick())
			return
		default:
		}

		speed := e.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}
}

// RunFor runs n ticks back to back without sleeping.
func (e *Engine) RunFor(n uint64) {
	for i := uint64(0); i < n; i++ {
		e.step()
	}
}

// Stop halts a running loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.mu.Lock()
	e.tick++
	tick := e.tick
	e.mu.Unlock()

	if e.OnTick != nil {
		e.OnTick(tick, e.DeltaTime)
	}
	if e.SampleEvery > 0 && tick%e.SampleEvery == 0 && e.OnSample != nil {
		e.OnSample(tick)
	}
	if e.ReportEvery > 0 && tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(tick)
	}
}

// SimTime formats simulated seconds as a day and clock time.
func SimTime(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Truncate(time.Second)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("Day %d, %02d:%02d:%02d", days+1, h, m, s)
}
