package agents

// Power effect magnitudes.
const (
	SpeedBoostFactor  = 1.5
	AuraHealingFactor = 1.2
	ShieldCapacity    = 50.0
)

// ApplyPower mutates a's stats for p. RemovePower is its exact inverse.
// Powers with no stat effect (energyBlast, timeWarp) are read directly from
// the soul by behavior code.
func ApplyPower(a *Agent, p Power) {
	switch p {
	case PowerSpeedBoost:
		a.Stats.SpeedMultiplier *= SpeedBoostFactor
	case PowerHealingAura:
		a.Stats.HealingFactor = AuraHealingFactor
	case PowerShieldBubble:
		a.Stats.Shield = ShieldCapacity
	}
}

// RemovePower reverts ApplyPower.
func RemovePower(a *Agent, p Power) {
	switch p {
	case PowerSpeedBoost:
		a.Stats.SpeedMultiplier /= SpeedBoostFactor
	case PowerHealingAura:
		a.Stats.HealingFactor = 1
	case PowerShieldBubble:
		a.Stats.Shield = 0
	}
}

// ApplyPowers applies every power of s to a.
func ApplyPowers(a *Agent, s *Soul) {
	for _, p := range s.Powers {
		ApplyPower(a, p)
	}
}

// RemovePowers reverts every power of s from a, newest first.
func RemovePowers(a *Agent, s *Soul) {
	for i := len(s.Powers) - 1; i >= 0; i-- {
		RemovePower(a, s.Powers[i])
	}
}
