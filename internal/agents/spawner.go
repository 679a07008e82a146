// Agent spawning: assigns ids and fills kind-specific defaults.
package agents

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/entropy"
)

// Traits are the kind-level defaults every new agent starts from.
type Traits struct {
	StoonieMaxSpeed     float64
	DemonMaxSpeed       float64
	PregnancyDuration   float64
	MatingCooldown      float64
	DemonDamage         float64
	DemonAttackRange    float64
	DemonDetectionRange float64
}

// DefaultTraits mirrors the embedded configuration defaults.
func DefaultTraits() Traits {
	return Traits{
		StoonieMaxSpeed:     2.0,
		DemonMaxSpeed:       2.5,
		PregnancyDuration:   500,
		MatingCooldown:      30,
		DemonDamage:         15,
		DemonAttackRange:    2,
		DemonDetectionRange: 15,
	}
}

// SpawnConfig carries per-agent creation options.
type SpawnConfig struct {
	Position mgl64.Vec3
	Gender   Gender // GenderAny picks uniformly

	// Demon overrides; zero keeps the trait default.
	DamagePerAttack float64
	AttackRange     float64
	DetectionRange  float64
}

// Spawner creates agents with monotonically increasing ids.
type Spawner struct {
	rng    *entropy.Source
	traits Traits
	nextID AgentID
}

// NewSpawner creates a spawner drawing from rng.
func NewSpawner(rng *entropy.Source, traits Traits) *Spawner {
	return &Spawner{
		rng:    rng,
		traits: traits,
		nextID: 1,
	}
}

// NextID returns the id the next spawn will receive.
func (s *Spawner) NextID() AgentID {
	return s.nextID
}

// RandomGender picks male or female uniformly.
func (s *Spawner) RandomGender() Gender {
	if s.rng.Float64() < 0.5 {
		return GenderFemale
	}
	return GenderMale
}

// Spawn builds a new agent of kind born at sim time now. Unknown kinds
// return false and consume no id.
func (s *Spawner) Spawn(kind Kind, cfg SpawnConfig, now float64) (*Agent, bool) {
	var a *Agent
	switch kind {
	case KindStoonie:
		a = s.stoonie(cfg)
	case KindDemon:
		a = s.demon(cfg)
	default:
		return nil, false
	}

	a.ID = s.nextID
	s.nextID++
	a.Kind = kind
	a.Position = cfg.Position
	a.Health = MaxHealth
	a.Energy = MaxEnergy
	a.BornTime = now
	return a, true
}

func (s *Spawner) stoonie(cfg SpawnConfig) *Agent {
	gender := cfg.Gender
	if gender == GenderAny {
		gender = s.RandomGender()
	}
	return &Agent{
		Gender:            gender,
		Stats:             BaseStats(s.traits.StoonieMaxSpeed),
		PregnancyDuration: s.traits.PregnancyDuration,
		MatingCooldown:    s.traits.MatingCooldown,
		LastMateTime:      Never,
		LastStrikeTime:    Never,
		State:             StateWander,
		WanderAngle:       s.rng.Range(0, 2*math.Pi),
	}
}

func (s *Spawner) demon(cfg SpawnConfig) *Agent {
	a := &Agent{
		Stats:           BaseStats(s.traits.DemonMaxSpeed),
		DamagePerAttack: s.traits.DemonDamage,
		AttackRange:     s.traits.DemonAttackRange,
		DetectionRange:  s.traits.DemonDetectionRange,
		LastAttackTime:  Never,
		LastMateTime:    Never,
		LastStrikeTime:  Never,
		WanderAngle:     s.rng.Range(0, 2*math.Pi),
	}
	if cfg.DamagePerAttack > 0 {
		a.DamagePerAttack = cfg.DamagePerAttack
	}
	if cfg.AttackRange > 0 {
		a.AttackRange = cfg.AttackRange
	}
	if cfg.DetectionRange > 0 {
		a.DetectionRange = cfg.DetectionRange
	}
	return a
}
