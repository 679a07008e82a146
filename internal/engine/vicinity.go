package engine

import (
	"fmt"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/config"
	"github.com/talgya/stoonie-world/internal/entropy"
)

// Vicinity runs the throttled pairwise proximity scan: opposite-gender
// Stoonies in range may mate, and Stoonies near a demon engage it.
type Vicinity struct {
	cfg         config.ReproductionConfig
	combatRange float64
	clock       *Clock
	rng         *entropy.Source
	events      *Events

	registry *Registry
	needs    *NeedsEngine
	souls    *SoulPool
	behavior *Behavior

	lastRun float64

	Scans    int
	Matings  int
	Contacts int
}

// NewVicinity creates a scanner that first runs on the next Update.
func NewVicinity(cfg config.ReproductionConfig, combatRange float64, clock *Clock, rng *entropy.Source, events *Events,
	registry *Registry, needs *NeedsEngine, souls *SoulPool, behavior *Behavior) *Vicinity {
	return &Vicinity{
		cfg:         cfg,
		combatRange: combatRange,
		clock:       clock,
		rng:         rng,
		events:      events,
		registry:    registry,
		needs:       needs,
		souls:       souls,
		behavior:    behavior,
		lastRun:     agents.Never,
	}
}

// Update scans when the interval has elapsed since the last scan.
func (v *Vicinity) Update(dt float64) {
	if !agents.CooldownReady(v.lastRun, v.cfg.Interval, v.clock.Now) {
		return
	}
	v.lastRun = v.clock.Now
	v.Scan()
}

// Scan checks every Stoonie pair and every stoonie/demon pair once.
// Agents killed during the scan are skipped for the remaining pairs.
func (v *Vicinity) Scan() {
	v.Scans++
	stoonies := v.registry.OfKind(agents.KindStoonie)
	demons := v.registry.OfKind(agents.KindDemon)

	for i, a := range stoonies {
		for _, b := range stoonies[i+1:] {
			if a.IsDead() || b.IsDead() {
				continue
			}
			if a.DistanceTo(b) <= v.cfg.InteractionRange {
				v.TryReproduce(a, b)
			}
		}
		for _, d := range demons {
			if a.IsDead() || d.IsDead() {
				continue
			}
			if a.DistanceTo(d) <= v.combatRange {
				v.Contacts++
				v.behavior.Engage(a, d)
			}
		}
	}
}

// Eligible reports whether a and b may mate now.
func (v *Vicinity) Eligible(a, b *agents.Agent) bool {
	if a.Kind != agents.KindStoonie || b.Kind != agents.KindStoonie {
		return false
	}
	if a.Gender == b.Gender || a.Gender == agents.GenderAny || b.Gender == agents.GenderAny {
		return false
	}
	now := v.clock.Now
	for _, s := range []*agents.Agent{a, b} {
		if s.IsDead() || s.IsPregnant || s.Age <= v.cfg.MinAge || s.Health <= v.cfg.MinHealth {
			return false
		}
		if !agents.CooldownReady(s.LastMateTime, s.MatingCooldown, now) {
			return false
		}
	}
	return true
}

// TryReproduce rolls the reproduction chance for an eligible pair. On
// success the female becomes pregnant, both partners start their mating
// cooldown and both souls earn experience.
func (v *Vicinity) TryReproduce(a, b *agents.Agent) bool {
	if !v.Eligible(a, b) {
		return false
	}
	if !v.rng.Chance(v.cfg.Probability) {
		return false
	}

	female := a
	if b.Gender == agents.GenderFemale {
		female = b
	}
	if !v.needs.StartPregnancy(female.ID) {
		return false
	}
	now := v.clock.Now
	a.LastMateTime = now
	b.LastMateTime = now
	for _, s := range []*agents.Agent{a, b} {
		if s.HasSoul() {
			v.souls.AddExperience(s.SoulID, v.cfg.MatingXP)
		}
	}
	v.Matings++

	v.events.Emit(Event{
		Category:    CategoryMating,
		Description: fmt.Sprintf("stoonies #%d and #%d mated; #%d is pregnant", a.ID, b.ID, female.ID),
		AgentID:     female.ID,
		OtherID:     otherOf(female, a, b).ID,
		Position:    positionPtr(female.Position),
	})
	return true
}

func otherOf(x, a, b *agents.Agent) *agents.Agent {
	if x == a {
		return b
	}
	return a
}
