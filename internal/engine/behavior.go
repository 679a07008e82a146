// Behavior state machine and steering for Stoonies, chase-and-attack for
// Demons, and the stoonie/demon engagement rules.
package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/config"
	"github.com/talgya/stoonie-world/internal/entropy"
	"github.com/talgya/stoonie-world/internal/world"
)

// Behavior drives per-agent decisions each tick.
type Behavior struct {
	cfg    config.BehaviorConfig
	combat config.CombatConfig
	clock  *Clock
	rng    *entropy.Source
	world  *world.Map
	events *Events

	registry *Registry
	needs    *NeedsEngine
	souls    *SoulPool

	Attacks int // Demon attacks that hit at least one Stoonie
	Strikes int // Stoonie strikes that landed
}

// NewBehavior wires a behavior controller to the simulation components.
func NewBehavior(cfg config.BehaviorConfig, combat config.CombatConfig, clock *Clock, rng *entropy.Source,
	m *world.Map, events *Events, registry *Registry, needs *NeedsEngine, souls *SoulPool) *Behavior {
	return &Behavior{
		cfg:      cfg,
		combat:   combat,
		clock:    clock,
		rng:      rng,
		world:    m,
		events:   events,
		registry: registry,
		needs:    needs,
		souls:    souls,
	}
}

// Update runs one decision step for every living agent in id order.
func (b *Behavior) Update(dt float64) {
	for _, a := range b.registry.All() {
		if a.IsDead() {
			continue
		}
		switch a.Kind {
		case agents.KindStoonie:
			b.updateStoonie(a, dt)
		case agents.KindDemon:
			b.updateDemon(a, dt)
		}
	}
}

// Decide picks a Stoonie's state and returns the threats that informed it.
// A job always wins. Otherwise a Stoonie with no demon in detection range
// wanders; a weak or vulnerable pregnant one flees; one whose soul grants a
// fighting power stands its ground; the rest flee.
func (b *Behavior) Decide(a *agents.Agent) (agents.BehaviorState, []*agents.Agent) {
	if a.Job != nil {
		return agents.StateWorking, nil
	}
	threats := b.registry.WithinRadius(a.Position, b.cfg.FleeDetectionRange, agents.KindDemon)
	if len(threats) == 0 {
		return agents.StateWander, nil
	}
	if a.Health < b.cfg.FleeHealth || (a.IsPregnant && a.Health < b.cfg.PregnantFleeHealth) {
		return agents.StateFlee, threats
	}
	if soul, ok := b.souls.SoulOf(a.ID); ok && soul.CombatCapable() {
		return agents.StateFight, threats
	}
	return agents.StateFlee, threats
}

func (b *Behavior) updateStoonie(a *agents.Agent, dt float64) {
	state, threats := b.Decide(a)
	if state != a.State {
		slog.Debug("state change", "agent", a.ID, "from", a.State, "to", state)
		a.State = state
	}

	switch state {
	case agents.StateWorking:
		// Steering belongs to the job scheduler.
	case agents.StateWander:
		b.wander(a, dt)
	case agents.StateFlee:
		b.flee(a, threats, dt)
	case agents.StateFight:
		b.fight(a, threats)
	}
}

// wander steers along a slowly drifting heading and turns back toward the
// center once outside the world bounds.
func (b *Behavior) wander(a *agents.Agent, dt float64) {
	a.WanderAngle += b.rng.Range(-1, 1) * b.cfg.WanderJitter * dt
	a.ApplyForce(agents.Heading(a.WanderAngle).Mul(b.cfg.WanderForce))

	if !b.world.InBounds(a.Position) {
		center := b.world.Center()
		a.Seek(center, b.cfg.ReturnForce)
		a.WanderAngle = math.Atan2(center[2]-a.Position[2], center[0]-a.Position[0])
	}
}

// flee steers away from the summed threat directions. speedBoost scales the
// force along with the speed cap.
func (b *Behavior) flee(a *agents.Agent, threats []*agents.Agent, dt float64) {
	var away mgl64.Vec3
	for _, t := range threats {
		dir, _ := agents.GroundDirection(t.Position, a.Position)
		away = away.Add(dir)
	}
	away = agents.Normalized(away)
	if away.Len() == 0 {
		b.wander(a, dt)
		return
	}
	a.ApplyForce(away.Mul(b.cfg.FleeForce * a.Stats.SpeedMultiplier))
}

// fight holds a standoff distance from the nearest threat and strikes when
// in range.
func (b *Behavior) fight(a *agents.Agent, threats []*agents.Agent) {
	target := nearestOf(a, threats)
	if target == nil {
		return
	}
	dir, dist := agents.GroundDirection(a.Position, target.Position)
	switch {
	case dist > b.combat.StandoffDistance+b.combat.StandoffTolerance:
		a.ApplyForce(dir.Mul(b.cfg.FightForce))
	case dist < b.combat.StandoffDistance-b.combat.StandoffTolerance:
		a.ApplyForce(dir.Mul(-b.cfg.FightForce))
	default:
		a.ApplyForce(a.Velocity.Mul(-1))
	}
	b.Strike(a, target)
}

// Strike lands a Stoonie's blow on target if it is in range and the strike
// cooldown has elapsed. energyBlast doubles the damage. Returns the health
// the target lost.
func (b *Behavior) Strike(a, target *agents.Agent) float64 {
	if a.IsDead() || target.IsDead() {
		return 0
	}
	if a.DistanceTo(target) > b.combat.StrikeRange {
		return 0
	}
	now := b.clock.Now
	if !agents.CooldownReady(a.LastStrikeTime, b.combat.StrikeCooldown, now) {
		return 0
	}

	damage := b.combat.StrikeDamage
	if b.souls.HasPower(a.ID, agents.PowerEnergyBlast) {
		damage *= 2
	}
	a.LastStrikeTime = now
	dealt := b.needs.Damage(target.ID, damage)
	b.Strikes++
	if a.HasSoul() {
		b.souls.AddExperience(a.SoulID, b.combat.StrikeXP)
	}

	b.events.Emit(Event{
		Category:    CategoryCombat,
		Description: fmt.Sprintf("stoonie #%d struck %s #%d for %.1f", a.ID, target.Kind, target.ID, dealt),
		AgentID:     a.ID,
		OtherID:     target.ID,
		Position:    positionPtr(target.Position),
	})
	return dealt
}

func (b *Behavior) updateDemon(d *agents.Agent, dt float64) {
	target := b.demonTarget(d)
	if target == nil {
		b.wander(d, dt)
	} else {
		d.Seek(target.Position, b.cfg.ChaseForce)
	}
	b.DemonAttack(d)
}

// demonTarget revalidates the cached target and then retargets to the
// nearest living Stoonie within detection range.
func (b *Behavior) demonTarget(d *agents.Agent) *agents.Agent {
	if d.Target != agents.NoAgent {
		if _, ok := b.registry.Alive(d.Target); !ok {
			d.Target = agents.NoAgent
		}
	}
	nearest, ok := b.registry.Nearest(d.Position, d.DetectionRange, agents.KindStoonie)
	if !ok {
		d.Target = agents.NoAgent
		return nil
	}
	d.Target = nearest.ID
	return nearest
}

// DemonAttack damages every living Stoonie within the demon's attack range,
// each with an independently rolled amount around DamagePerAttack, then
// starts the cooldown once. Returns the number of Stoonies hit.
func (b *Behavior) DemonAttack(d *agents.Agent) int {
	if d.IsDead() {
		return 0
	}
	now := b.clock.Now
	if !agents.CooldownReady(d.LastAttackTime, b.combat.DemonAttackCooldown, now) {
		return 0
	}
	victims := b.registry.WithinRadius(d.Position, d.AttackRange, agents.KindStoonie)
	if len(victims) == 0 {
		return 0
	}

	d.LastAttackTime = now
	v := b.combat.DemonDamageVariance
	for _, victim := range victims {
		roll := b.rng.Range(1-v, 1+v) * d.DamagePerAttack
		dealt := b.needs.Damage(victim.ID, roll)
		b.events.Emit(Event{
			Category:    CategoryCombat,
			Description: fmt.Sprintf("demon #%d hit stoonie #%d for %.1f", d.ID, victim.ID, dealt),
			AgentID:     d.ID,
			OtherID:     victim.ID,
			Position:    positionPtr(victim.Position),
		})
	}
	b.Attacks++
	return len(victims)
}

// Engage resolves one stoonie/demon contact: the demon attacks, and a
// fighting Stoonie strikes back. Dead participants are ignored.
func (b *Behavior) Engage(stoonie, demon *agents.Agent) {
	if stoonie.IsDead() || demon.IsDead() {
		return
	}
	b.DemonAttack(demon)
	if stoonie.Job == nil && stoonie.State == agents.StateFight {
		b.Strike(stoonie, demon)
	}
}

func nearestOf(a *agents.Agent, list []*agents.Agent) *agents.Agent {
	var best *agents.Agent
	bestDist := 0.0
	for _, o := range list {
		if o.IsDead() {
			continue
		}
		d := a.DistanceTo(o)
		if best == nil || d < bestDist {
			best, bestDist = o, d
		}
	}
	return best
}
