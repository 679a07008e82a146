// Simulation ties together all world systems and runs them each tick.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/config"
	"github.com/talgya/stoonie-world/internal/entropy"
	"github.com/talgya/stoonie-world/internal/world"
)

// Simulation holds the complete world state and wires systems together.
// Tick, View and Update serialize access so the HTTP API can read and
// command the world while the engine goroutine advances it.
type Simulation struct {
	mu sync.Mutex

	Config config.Config
	Clock  *Clock
	RNG    *entropy.Source
	World  *world.Map
	Events *Events

	Registry *Registry
	Needs    *NeedsEngine
	Souls    *SoulPool
	Behavior *Behavior
	Vicinity *Vicinity
	Jobs     *JobScheduler

	// Statistics refreshed every tick.
	Stats SimStats
}

// SimStats tracks aggregate world statistics.
type SimStats struct {
	Population     int            `json:"population"`
	Stoonies       int            `json:"stoonies"`
	Demons         int            `json:"demons"`
	Males          int            `json:"males"`
	Females        int            `json:"females"`
	Pregnant       int            `json:"pregnant"`
	Working        int            `json:"working"`
	AvgHealth      float64        `json:"avg_health"`
	SoulsAttached  int            `json:"souls_attached"`
	SoulsAvailable int            `json:"souls_available"`
	Births         int            `json:"births"`
	Deaths         int            `json:"deaths"`
	Matings        int            `json:"matings"`
	DemonAttacks   int            `json:"demon_attacks"`
	Strikes        int            `json:"strikes"`
	JobsCompleted  int            `json:"jobs_completed"`
	Trees          int            `json:"trees"`
	Resources      map[string]int `json:"resources"`
}

// NewSimulation builds every component over m and binds their
// cross-references. The world starts empty; see Populate.
func NewSimulation(cfg config.Config, rng *entropy.Source, m *world.Map) *Simulation {
	clock := &Clock{}
	events := NewEvents(clock)

	spawner := agents.NewSpawner(rng, agents.Traits{
		StoonieMaxSpeed:     cfg.Population.StoonieMaxSpeed,
		DemonMaxSpeed:       cfg.Population.DemonMaxSpeed,
		PregnancyDuration:   100 / cfg.Needs.PregnancyRate,
		MatingCooldown:      cfg.Reproduction.MatingCooldown,
		DemonDamage:         cfg.Combat.DemonDamage,
		DemonAttackRange:    cfg.Combat.DemonAttackRange,
		DemonDetectionRange: cfg.Combat.DemonDetectionRange,
	})

	reg := NewRegistry(cfg.Population, clock, spawner, events)
	needs := NewNeedsEngine(cfg.Needs, clock, rng, events)
	souls := NewSoulPool(rng, events)
	jobs := NewJobScheduler(cfg.Jobs, clock, m.Forest, events, reg)
	behavior := NewBehavior(cfg.Behavior, cfg.Combat, clock, rng, m, events, reg, needs, souls)
	vicinity := NewVicinity(cfg.Reproduction, cfg.Combat.CombatRange, clock, rng, events, reg, needs, souls, behavior)

	reg.needs = needs
	reg.souls = souls
	reg.jobs = jobs
	needs.registry = reg
	needs.souls = souls
	souls.registry = reg

	sim := &Simulation{
		Config:   cfg,
		Clock:    clock,
		RNG:      rng,
		World:    m,
		Events:   events,
		Registry: reg,
		Needs:    needs,
		Souls:    souls,
		Behavior: behavior,
		Vicinity: vicinity,
		Jobs:     jobs,
	}
	sim.updateStats()
	return sim
}

// Tick advances the world by dt simulated seconds.
func (s *Simulation) Tick(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step(dt)
}

// step runs the subsystems in a fixed order: kinematics and reaping,
// needs and births, jobs, the proximity scan, then decisions for the next
// integration.
func (s *Simulation) step(dt float64) {
	s.Clock.Tick++
	s.Clock.Now += dt

	s.Registry.Update(dt)
	s.Needs.Update(dt)
	s.Jobs.Update(dt)
	s.Vicinity.Update(dt)
	s.Behavior.Update(dt)

	s.updateStats()
}

// View runs fn with the world locked for reading.
func (s *Simulation) View(fn func(*Simulation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// Update runs fn with the world locked for mutation.
func (s *Simulation) Update(fn func(*Simulation) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn(s)
	s.updateStats()
	return err
}

// Now returns the simulated time in seconds.
func (s *Simulation) Now() float64 {
	return s.Clock.Now
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	return s.Clock.Tick
}

// Report logs a periodic summary of the world.
func (s *Simulation) Report() {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.Stats
	slog.Info("world report",
		"tick", humanize.Comma(int64(s.Clock.Tick)),
		"time", SimTime(s.Clock.Now),
		"stoonies", st.Stoonies,
		"demons", st.Demons,
		"pregnant", st.Pregnant,
		"births", st.Births,
		"deaths", st.Deaths,
		"avg_health", fmt.Sprintf("%.1f", st.AvgHealth),
		"souls_attached", st.SoulsAttached,
		"wood", humanize.Comma(int64(st.Resources["wood"])),
		"trees", st.Trees,
	)

	for _, e := range s.Events.Recent(20) {
		switch e.Category {
		case CategoryBirth, CategoryDestroyed, CategorySoulLevel:
			slog.Info("event", "category", e.Category, "description", e.Description)
		}
	}
}

func (s *Simulation) updateStats() {
	st := SimStats{
		Births:        s.Needs.Births,
		Deaths:        s.Registry.Deaths,
		Matings:       s.Vicinity.Matings,
		DemonAttacks:  s.Behavior.Attacks,
		Strikes:       s.Behavior.Strikes,
		JobsCompleted: s.Jobs.Completed,
		Trees:         s.World.Forest.Len(),
		Resources:     s.Jobs.Ledger(),
	}
	totalHealth := 0.0
	for _, a := range s.Registry.All() {
		if a.IsDead() {
			continue
		}
		st.Population++
		switch a.Kind {
		case agents.KindStoonie:
			st.Stoonies++
			totalHealth += a.Health
			if a.Gender == agents.GenderFemale {
				st.Females++
			} else {
				st.Males++
			}
			if a.IsPregnant {
				st.Pregnant++
			}
			if a.Job != nil {
				st.Working++
			}
		case agents.KindDemon:
			st.Demons++
		}
	}
	if st.Stoonies > 0 {
		st.AvgHealth = totalHealth / float64(st.Stoonies)
	}
	st.SoulsAttached = s.Souls.Attached()
	st.SoulsAvailable = len(s.Souls.available)
	s.Stats = st
}
