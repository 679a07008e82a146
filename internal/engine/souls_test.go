package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
)

// checkSoulInvariant verifies every soul is either available or attached to
// exactly one agent that points back at it.
func checkSoulInvariant(t *testing.T, sim *Simulation) {
	t.Helper()
	available := make(map[string]bool)
	for _, s := range sim.Souls.Available() {
		available[s.ID] = true
	}
	for _, s := range sim.Souls.All() {
		if s.AgentID == agents.NoAgent {
			if !available[s.ID] {
				t.Fatalf("soul %s is unattached but not available", s.Name)
			}
			continue
		}
		if available[s.ID] {
			t.Fatalf("soul %s is attached and available", s.Name)
		}
		a, ok := sim.Registry.Get(s.AgentID)
		if !ok || a.SoulID != s.ID {
			t.Fatalf("soul %s points at agent %d which does not point back", s.Name, s.AgentID)
		}
	}
	for _, a := range sim.Registry.All() {
		if !a.HasSoul() {
			continue
		}
		s, ok := sim.Souls.Get(a.SoulID)
		if !ok || s.AgentID != a.ID {
			t.Fatalf("agent %d holds soul %s which does not point back", a.ID, a.SoulID)
		}
	}
}

func TestSoulConnectDisconnect(t *testing.T) {
	sim := newTestSim(t, nil)
	souls := sim.Souls.CreateInitial(3, nil)
	s1 := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)
	s2 := spawnStoonie(t, sim, mgl64.Vec3{1, 0, 0}, agents.GenderFemale)
	d := spawnDemon(t, sim, agents.SpawnConfig{Position: mgl64.Vec3{20, 0, 0}})

	if souls[0].Name != "Soul 1" {
		t.Fatalf("expected generated name, got %q", souls[0].Name)
	}
	if !sim.Souls.Connect(souls[0].ID, s1.ID) {
		t.Fatal("expected connect to succeed")
	}
	checkSoulInvariant(t, sim)

	tests := []struct {
		name  string
		soul  string
		agent agents.AgentID
	}{
		{"soul already attached", souls[0].ID, s2.ID},
		{"agent already has a soul", souls[1].ID, s1.ID},
		{"demon host", souls[1].ID, d.ID},
		{"unknown soul", "nope", s2.ID},
		{"unknown agent", souls[1].ID, 999},
	}
	for _, tt := range tests {
		if sim.Souls.Connect(tt.soul, tt.agent) {
			t.Fatalf("%s: expected connect to fail", tt.name)
		}
		checkSoulInvariant(t, sim)
	}

	if !sim.Souls.Disconnect(s1.ID) {
		t.Fatal("expected disconnect to succeed")
	}
	if sim.Souls.Disconnect(s1.ID) {
		t.Fatal("expected second disconnect to fail")
	}
	checkSoulInvariant(t, sim)

	avail := sim.Souls.Available()
	if avail[len(avail)-1].ID != souls[0].ID {
		t.Fatal("expected disconnected soul at the end of the available list")
	}
}

func TestSoulPowersFollowHost(t *testing.T) {
	sim := newTestSim(t, nil)
	souls := sim.Souls.CreateInitial(1, []string{"Seeker"})
	a := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)

	if levels := sim.Souls.AddExperience(souls[0].ID, 100); levels != 1 {
		t.Fatalf("expected one level, got %d", levels)
	}
	sim.Souls.Connect(souls[0].ID, a.ID)
	if a.Stats.SpeedMultiplier != agents.SpeedBoostFactor {
		t.Fatalf("expected speed boost applied on connect, got %v", a.Stats.SpeedMultiplier)
	}

	// Level 2 -> 3 needs 150 more; healingAura applies while attached.
	sim.Souls.AddExperience(souls[0].ID, 150)
	if a.Stats.HealingFactor != agents.AuraHealingFactor {
		t.Fatalf("expected healing aura applied on level up, got %v", a.Stats.HealingFactor)
	}

	sim.Souls.Disconnect(a.ID)
	if a.Stats.SpeedMultiplier != 1 || a.Stats.HealingFactor != 1 {
		t.Fatalf("expected base stats after disconnect, got %+v", a.Stats)
	}
	if s, _ := sim.Souls.Get(souls[0].ID); s.Level != 3 {
		t.Fatalf("expected soul to keep level 3, got %d", s.Level)
	}
}

func TestSoulIDsAreSeeded(t *testing.T) {
	a := newTestSim(t, nil).Souls.CreateInitial(2, nil)
	b := newTestSim(t, nil).Souls.CreateInitial(2, nil)
	if a[0].ID != b[0].ID || a[1].ID != b[1].ID {
		t.Fatalf("expected identical ids from identical seeds, got %s/%s", a[0].ID, b[0].ID)
	}
	if a[0].ID == a[1].ID {
		t.Fatal("expected distinct soul ids")
	}
}
