// Needs decay, illness, damage and pregnancy. Only Stoonies carry a needs
// record; the agent's Health field mirrors the record after every change.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/config"
	"github.com/talgya/stoonie-world/internal/entropy"
)

// pregnancyEpsilon absorbs float drift when PregnancyTime is accumulated
// from many small dt steps.
const pregnancyEpsilon = 1e-6

// NeedsEngine owns per-Stoonie needs records.
type NeedsEngine struct {
	cfg    config.NeedsConfig
	clock  *Clock
	rng    *entropy.Source
	events *Events

	// Bound by NewSimulation.
	registry *Registry
	souls    *SoulPool

	records map[agents.AgentID]*agents.Needs

	Births int // Completed pregnancies
}

// NewNeedsEngine creates an engine with no records.
func NewNeedsEngine(cfg config.NeedsConfig, clock *Clock, rng *entropy.Source, events *Events) *NeedsEngine {
	return &NeedsEngine{
		cfg:     cfg,
		clock:   clock,
		rng:     rng,
		events:  events,
		records: make(map[agents.AgentID]*agents.Needs),
	}
}

// Initialize seeds a fresh record for id, replacing any existing one.
func (n *NeedsEngine) Initialize(id agents.AgentID) {
	health := agents.MaxHealth
	if a, ok := n.registry.Get(id); ok {
		health = a.Health
	}
	rec := agents.NewNeeds(health)
	n.records[id] = &rec
}

// Remove drops the record for id.
func (n *NeedsEngine) Remove(id agents.AgentID) {
	delete(n.records, id)
}

// Status returns a copy of the record for id.
func (n *NeedsEngine) Status(id agents.AgentID) (agents.Needs, bool) {
	rec, ok := n.records[id]
	if !ok {
		return agents.Needs{}, false
	}
	return rec.Copy(), true
}

// Len returns the number of records.
func (n *NeedsEngine) Len() int {
	return len(n.records)
}

// StartPregnancy marks id pregnant with zero progress. Fails if the agent
// has no record or is already pregnant.
func (n *NeedsEngine) StartPregnancy(id agents.AgentID) bool {
	rec, ok := n.records[id]
	if !ok || rec.IsPregnant {
		return false
	}
	rec.IsPregnant = true
	rec.PregnancyProgress = 0
	if a, ok := n.registry.Get(id); ok {
		a.IsPregnant = true
		a.PregnancyTime = 0
	}
	return true
}

// EndPregnancy clears pregnancy state on both the record and the agent.
func (n *NeedsEngine) EndPregnancy(id agents.AgentID) bool {
	rec, ok := n.records[id]
	if !ok || !rec.IsPregnant {
		return false
	}
	rec.IsPregnant = false
	rec.PregnancyProgress = 0
	if a, ok := n.registry.Get(id); ok {
		a.IsPregnant = false
		a.PregnancyTime = 0
	}
	n.events.Emit(Event{
		Category:    CategoryPregnancyEnd,
		Description: fmt.Sprintf("stoonie #%d is no longer pregnant", id),
		AgentID:     id,
	})
	return true
}

// Feed restores hunger.
func (n *NeedsEngine) Feed(id agents.AgentID, amount float64) bool {
	return n.adjust(id, func(rec *agents.Needs) { rec.Hunger += amount })
}

// Hydrate restores thirst.
func (n *NeedsEngine) Hydrate(id agents.AgentID, amount float64) bool {
	return n.adjust(id, func(rec *agents.Needs) { rec.Thirst += amount })
}

// Rest reduces tiredness.
func (n *NeedsEngine) Rest(id agents.AgentID, amount float64) bool {
	return n.adjust(id, func(rec *agents.Needs) { rec.Tiredness -= amount })
}

// Heal restores health, scaled by the agent's healing factor.
func (n *NeedsEngine) Heal(id agents.AgentID, amount float64) bool {
	if amount <= 0 {
		return false
	}
	a, ok := n.registry.Alive(id)
	if !ok {
		return false
	}
	amount *= a.Stats.HealingFactor
	if rec, ok := n.records[id]; ok {
		rec.Health += amount
		rec.Clamp()
		a.Health = rec.Health
		return true
	}
	a.Health = agents.Clamp(a.Health+amount, 0, agents.MaxHealth)
	return true
}

// Damage applies amount to id after the shield absorbs what it can, and
// returns the health actually lost. Agents without a needs record (demons)
// take the damage on their Health field directly.
func (n *NeedsEngine) Damage(id agents.AgentID, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	a, ok := n.registry.Alive(id)
	if !ok {
		return 0
	}
	rest := a.AbsorbWithShield(amount)
	before := a.Health
	if rec, ok := n.records[id]; ok {
		rec.Health -= rest
		rec.Clamp()
		a.Health = rec.Health
	} else {
		a.Health = agents.Clamp(a.Health-rest, 0, agents.MaxHealth)
	}
	return before - a.Health
}

// AddIllness adds an illness tag; it drains health each tick until removed.
func (n *NeedsEngine) AddIllness(id agents.AgentID, tag string) bool {
	rec, ok := n.records[id]
	if !ok {
		return false
	}
	return rec.AddIllness(tag)
}

// RemoveIllness cures an illness tag.
func (n *NeedsEngine) RemoveIllness(id agents.AgentID, tag string) bool {
	rec, ok := n.records[id]
	if !ok {
		return false
	}
	return rec.RemoveIllness(tag)
}

func (n *NeedsEngine) adjust(id agents.AgentID, fn func(*agents.Needs)) bool {
	rec, ok := n.records[id]
	if !ok {
		return false
	}
	fn(rec)
	rec.Clamp()
	if a, ok := n.registry.Get(id); ok {
		a.Health = rec.Health
	}
	return true
}

// Update decays needs, applies distress and illness damage and advances
// pregnancies. Births are performed after the sweep so new records are not
// visited in the same pass.
func (n *NeedsEngine) Update(dt float64) {
	ids := make([]agents.AgentID, 0, len(n.records))
	for id := range n.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var due []agents.AgentID
	for _, id := range ids {
		rec := n.records[id]
		a, ok := n.registry.Get(id)
		if !ok || a.IsDead() {
			continue
		}
		// Pick up damage or healing applied to the agent directly.
		rec.Health = a.Health

		rec.Hunger -= n.cfg.HungerDecay * dt
		rec.Thirst -= n.cfg.ThirstDecay * dt
		rec.Tiredness += n.cfg.TirednessGain * dt
		if rec.Distressed(n.cfg.StarvationThreshold, n.cfg.ExhaustionThreshold) {
			rec.Health -= n.cfg.StarvationDamage * dt
		}
		rec.Health -= n.cfg.IllnessDamage * float64(len(rec.Illnesses)) * dt

		if rec.IsPregnant && a.IsPregnant {
			a.PregnancyTime += dt
			rec.PregnancyProgress = a.PregnancyProgress()
			if a.HasSoul() {
				n.souls.AddExperience(a.SoulID, n.cfg.PregnancyXPPerSecond*dt)
			}
			if a.PregnancyTime >= a.PregnancyDuration-pregnancyEpsilon {
				due = append(due, id)
			}
		}

		rec.Clamp()
		a.Health = rec.Health
	}

	for _, id := range due {
		n.giveBirth(id)
	}
}

// giveBirth spawns a child next to the mother and resets her pregnancy.
func (n *NeedsEngine) giveBirth(motherID agents.AgentID) {
	mother, ok := n.registry.Alive(motherID)
	if !ok {
		return
	}
	offset := mgl64.Vec3{
		n.rng.Range(-n.cfg.BirthOffset, n.cfg.BirthOffset),
		0,
		n.rng.Range(-n.cfg.BirthOffset, n.cfg.BirthOffset),
	}
	childID, ok := n.registry.Create(agents.KindStoonie, agents.SpawnConfig{
		Position: mother.Position.Add(offset),
	})
	n.EndPregnancy(motherID)
	if !ok {
		return
	}
	n.Births++

	n.events.Emit(Event{
		Category:    CategoryBirth,
		Description: fmt.Sprintf("stoonie #%d gave birth to #%d", motherID, childID),
		AgentID:     motherID,
		OtherID:     childID,
		Kind:        agents.KindStoonie.String(),
		Position:    positionPtr(mother.Position),
	})
	slog.Debug("birth", "mother", motherID, "child", childID, "time", n.clock.Now)
}
