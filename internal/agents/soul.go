// Souls are detachable, levelling resources. A soul's powers modify the
// stats of whichever Stoonie it is attached to; see powers.go.
package agents

import "math"

// Power is a capability tag unlocked by soul level.
type Power string

const (
	PowerSpeedBoost   Power = "speedBoost"
	PowerHealingAura  Power = "healingAura"
	PowerShieldBubble Power = "shieldBubble"
	PowerEnergyBlast  Power = "energyBlast"
	PowerTimeWarp     Power = "timeWarp"
)

// PowerUnlock pairs a level threshold with the power it grants.
type PowerUnlock struct {
	Level int
	Power Power
}

// PowerUnlocks is the fixed unlock table, in level order.
var PowerUnlocks = []PowerUnlock{
	{Level: 2, Power: PowerSpeedBoost},
	{Level: 3, Power: PowerHealingAura},
	{Level: 5, Power: PowerShieldBubble},
	{Level: 7, Power: PowerEnergyBlast},
	{Level: 10, Power: PowerTimeWarp},
}

// Soul holds level, experience and the powers it has unlocked.
type Soul struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Level      int     `json:"level"`
	Experience float64 `json:"experience"`
	Powers     []Power `json:"powers"` // Unlock order; never shrinks
	AgentID    AgentID `json:"agent_id,omitempty"`
}

// NewSoul creates a level-1 soul with no powers.
func NewSoul(id, name string) *Soul {
	return &Soul{ID: id, Name: name, Level: 1, Powers: []Power{}}
}

// ExperienceForLevel returns the experience needed to leave level.
func ExperienceForLevel(level int) float64 {
	if level < 1 {
		level = 1
	}
	return math.Floor(100 * math.Pow(1.5, float64(level-1)))
}

// ExperienceToNextLevel is the threshold for the soul's current level.
func (s *Soul) ExperienceToNextLevel() float64 {
	return ExperienceForLevel(s.Level)
}

// Connected reports whether the soul is attached to an agent.
func (s *Soul) Connected() bool {
	return s.AgentID != NoAgent
}

// Has reports whether p has been unlocked.
func (s *Soul) Has(p Power) bool {
	for _, have := range s.Powers {
		if have == p {
			return true
		}
	}
	return false
}

// CombatCapable reports whether the soul grants a fighting power.
func (s *Soul) CombatCapable() bool {
	return s.Has(PowerEnergyBlast) || s.Has(PowerShieldBubble)
}

// AddExperience accumulates experience, levelling up as many times as the
// total allows with excess carried over. It returns the number of levels
// gained and the powers unlocked along the way.
func (s *Soul) AddExperience(amount float64) (int, []Power) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, nil
	}
	s.Experience += amount

	levels := 0
	var unlocked []Power
	for s.Experience >= s.ExperienceToNextLevel() {
		s.Experience -= s.ExperienceToNextLevel()
		s.Level++
		levels++
		unlocked = append(unlocked, s.unlockPowers()...)
	}
	return levels, unlocked
}

func (s *Soul) unlockPowers() []Power {
	var added []Power
	for _, u := range PowerUnlocks {
		if u.Level <= s.Level && !s.Has(u.Power) {
			s.Powers = append(s.Powers, u.Power)
			added = append(added, u.Power)
		}
	}
	return added
}

// Copy returns a soul that shares no memory with s.
func (s *Soul) Copy() Soul {
	out := *s
	out.Powers = append([]Power{}, s.Powers...)
	return out
}
