package agents

import "sort"

// Needs is the per-agent needs record. Hunger and thirst run from 100
// (satisfied) to 0 (starving); tiredness from 0 (rested) to 100 (exhausted).
type Needs struct {
	Hunger            float64  `json:"hunger"`
	Thirst            float64  `json:"thirst"`
	Tiredness         float64  `json:"tiredness"`
	Health            float64  `json:"health"`
	Illnesses         []string `json:"illnesses"`
	PregnancyProgress float64  `json:"pregnancy_progress"`
	IsPregnant        bool     `json:"is_pregnant"`
}

// NewNeeds returns a fresh, fully satisfied record.
func NewNeeds(health float64) Needs {
	return Needs{
		Hunger:    100,
		Thirst:    100,
		Tiredness: 0,
		Health:    Clamp(health, 0, MaxHealth),
		Illnesses: []string{},
	}
}

// Clamp bounds every value to [0, 100].
func (n *Needs) Clamp() {
	n.Hunger = Clamp(n.Hunger, 0, 100)
	n.Thirst = Clamp(n.Thirst, 0, 100)
	n.Tiredness = Clamp(n.Tiredness, 0, 100)
	n.Health = Clamp(n.Health, 0, MaxHealth)
	n.PregnancyProgress = Clamp(n.PregnancyProgress, 0, 100)
}

// Distressed reports whether starvation, dehydration or exhaustion is
// damaging health.
func (n *Needs) Distressed(starvation, exhaustion float64) bool {
	return n.Hunger < starvation || n.Thirst < starvation || n.Tiredness > exhaustion
}

// HasIllness reports whether tag is active.
func (n *Needs) HasIllness(tag string) bool {
	for _, i := range n.Illnesses {
		if i == tag {
			return true
		}
	}
	return false
}

// AddIllness adds tag to the set. Returns false if already present.
func (n *Needs) AddIllness(tag string) bool {
	if tag == "" || n.HasIllness(tag) {
		return false
	}
	n.Illnesses = append(n.Illnesses, tag)
	sort.Strings(n.Illnesses)
	return true
}

// RemoveIllness removes tag from the set. Returns false if absent.
func (n *Needs) RemoveIllness(tag string) bool {
	for i, existing := range n.Illnesses {
		if existing == tag {
			n.Illnesses = append(n.Illnesses[:i], n.Illnesses[i+1:]...)
			return true
		}
	}
	return false
}

// Copy returns a record that shares no memory with n.
func (n Needs) Copy() Needs {
	out := n
	out.Illnesses = append([]string{}, n.Illnesses...)
	return out
}
