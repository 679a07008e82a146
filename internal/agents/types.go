// Package agents provides the agent data model: kinds, kinematics, needs,
// souls and their powers, jobs, and the spawner that assigns ids.
package agents

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/world"
)

// AgentID is a unique identifier for an agent. Zero means "no agent".
type AgentID uint64

// NoAgent is the zero AgentID.
const NoAgent AgentID = 0

// Never is the "last event" time of something that has not happened yet.
// Far enough in the past that every cooldown reads as elapsed.
const Never = -1e9

// Bounded stat limits.
const (
	MaxHealth = 100.0
	MaxEnergy = 100.0
)

// Kind is the closed set of agent variants.
type Kind uint8

const (
	KindStoonie Kind = iota
	KindDemon
)

// Kinds lists every kind, in declaration order.
var Kinds = []Kind{KindStoonie, KindDemon}

func (k Kind) String() string {
	switch k {
	case KindStoonie:
		return "stoonie"
	case KindDemon:
		return "demon"
	}
	return "unknown"
}

// ParseKind maps a name to a Kind.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "stoonie", "Stoonie":
		return KindStoonie, true
	case "demon", "Demon", "DemonStoonie":
		return KindDemon, true
	}
	return 0, false
}

// Gender of a Stoonie. The zero value asks the spawner to pick one.
type Gender uint8

const (
	GenderAny Gender = iota
	GenderMale
	GenderFemale
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	}
	return "any"
}

// ParseGender maps a name to a Gender. The empty string is GenderAny.
func ParseGender(name string) (Gender, bool) {
	switch name {
	case "":
		return GenderAny, true
	case "male":
		return GenderMale, true
	case "female":
		return GenderFemale, true
	}
	return GenderAny, false
}

// BehaviorState is a Stoonie's current mode.
type BehaviorState uint8

const (
	StateWander BehaviorState = iota
	StateFlee
	StateFight
	StateWorking
)

func (s BehaviorState) String() string {
	switch s {
	case StateWander:
		return "wander"
	case StateFlee:
		return "flee"
	case StateFight:
		return "fight"
	case StateWorking:
		return "working"
	}
	return "unknown"
}

// Stats are the soul-modifiable capabilities of an agent.
type Stats struct {
	MaxSpeed        float64 `json:"max_speed"` // Base, before multipliers
	SpeedMultiplier float64 `json:"speed_multiplier"`
	HealingFactor   float64 `json:"healing_factor"`
	Shield          float64 `json:"shield"`
}

// BaseStats returns unmodified stats for the given base speed.
func BaseStats(maxSpeed float64) Stats {
	return Stats{MaxSpeed: maxSpeed, SpeedMultiplier: 1, HealingFactor: 1}
}

// EffectiveMaxSpeed is the speed cap after multipliers.
func (s Stats) EffectiveMaxSpeed() float64 {
	return s.MaxSpeed * s.SpeedMultiplier
}

// Job is a Stoonie's current multi-tick task. Owned by the job scheduler;
// the agent holds it for read access.
type Job struct {
	Type         string           `json:"type"`
	Target       world.ResourceID `json:"target"`
	Progress     int              `json:"progress"` // Work-ticks accumulated on the current target
	LastWorkTime float64          `json:"last_work_time"`
}

// Agent is a Stoonie or a Demon.
type Agent struct {
	ID   AgentID `json:"id"`
	Kind Kind    `json:"kind"`

	// Kinematics
	Position     mgl64.Vec3 `json:"position"`
	Velocity     mgl64.Vec3 `json:"velocity"`
	Acceleration mgl64.Vec3 `json:"-"`

	Health   float64 `json:"health"` // 0–100, mirrored from needs for Stoonies
	Energy   float64 `json:"energy"` // 0–100
	Age      float64 `json:"age"`    // Seconds alive
	BornTime float64 `json:"born_time"`
	Stats    Stats   `json:"stats"`

	// Stoonie
	Gender            Gender        `json:"gender"`
	IsPregnant        bool          `json:"is_pregnant"`
	PregnancyTime     float64       `json:"pregnancy_time"`
	PregnancyDuration float64       `json:"pregnancy_duration"`
	LastMateTime      float64       `json:"-"`
	MatingCooldown    float64       `json:"mating_cooldown"`
	SoulID            string        `json:"soul_id,omitempty"`
	State             BehaviorState `json:"state"`
	Job               *Job          `json:"job,omitempty"`
	LastStrikeTime    float64       `json:"-"`
	WanderAngle       float64       `json:"-"`

	// Demon
	DamagePerAttack float64 `json:"damage_per_attack,omitempty"`
	AttackRange     float64 `json:"attack_range,omitempty"`
	DetectionRange  float64 `json:"detection_range,omitempty"`
	Target          AgentID `json:"target,omitempty"` // Revalidate before use
	LastAttackTime  float64 `json:"-"`
}

// IsDead reports the death predicate.
func (a *Agent) IsDead() bool {
	return a.Health <= 0 || a.Energy <= 0
}

// HasSoul reports whether a soul is attached.
func (a *Agent) HasSoul() bool {
	return a.SoulID != ""
}

// ApplyForce accumulates a force for the next integration step.
func (a *Agent) ApplyForce(f mgl64.Vec3) {
	a.Acceleration = a.Acceleration.Add(f)
}

// Integrate advances kinematics by dt: velocity += acceleration, clamp to
// the effective max speed, position += velocity·dt, reset acceleration.
// It also ages the agent and drains energy at drain per second.
func (a *Agent) Integrate(dt, drain float64) {
	a.Velocity = a.Velocity.Add(a.Acceleration)
	if limit := a.Stats.EffectiveMaxSpeed(); limit > 0 {
		if speed := a.Velocity.Len(); speed > limit {
			a.Velocity = a.Velocity.Mul(limit / speed)
		}
	}
	a.Position = a.Position.Add(a.Velocity.Mul(dt))
	a.Acceleration = mgl64.Vec3{}

	a.Age += dt
	a.Energy = Clamp(a.Energy-drain*dt, 0, MaxEnergy)
}

// AbsorbWithShield lets the shield soak damage first and returns what is
// left over for health.
func (a *Agent) AbsorbWithShield(amount float64) float64 {
	if a.Stats.Shield <= 0 {
		return amount
	}
	if a.Stats.Shield >= amount {
		a.Stats.Shield -= amount
		return 0
	}
	rest := amount - a.Stats.Shield
	a.Stats.Shield = 0
	return rest
}

// PregnancyProgress is the 0–100 view of PregnancyTime.
func (a *Agent) PregnancyProgress() float64 {
	if !a.IsPregnant || a.PregnancyDuration <= 0 {
		return 0
	}
	return Clamp(a.PregnancyTime/a.PregnancyDuration*100, 0, 100)
}

// CooldownReady reports whether cooldown seconds have passed since last.
func CooldownReady(last, cooldown, now float64) bool {
	return now-last >= cooldown
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
