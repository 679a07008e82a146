package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/config"
)

func matingPair(t *testing.T, sim *Simulation) (male, female *agents.Agent) {
	t.Helper()
	male = spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)
	female = spawnStoonie(t, sim, mgl64.Vec3{1, 0, 1}, agents.GenderFemale)
	male.Age = 25
	female.Age = 25
	return male, female
}

func TestReproductionProbabilityConverges(t *testing.T) {
	sim := newTestSim(t, nil)
	male, female := matingPair(t, sim)

	const trials = 2000
	pregnancies := 0
	for i := 0; i < trials; i++ {
		sim.Vicinity.Scan()
		if female.IsPregnant {
			pregnancies++
			sim.Needs.EndPregnancy(female.ID)
		}
		male.LastMateTime = agents.Never
		female.LastMateTime = agents.Never
	}

	rate := float64(pregnancies) / trials
	if rate < 0.16 || rate > 0.24 {
		t.Fatalf("expected pregnancy rate near 0.2, got %.3f (%d/%d)", rate, pregnancies, trials)
	}
}

func TestReproductionScenario(t *testing.T) {
	sim := newTestSim(t, nil)
	_, female := matingPair(t, sim)

	for i := 0; i < 500; i++ {
		sim.Vicinity.Scan()
	}
	if sim.Vicinity.Matings < 1 {
		t.Fatal("expected at least one mating in 500 scans")
	}
	if !female.IsPregnant {
		t.Fatal("expected the female to be pregnant")
	}
	if sim.Events.Count(CategoryMating) != sim.Vicinity.Matings {
		t.Fatalf("expected one mating event per mating, got %d events for %d", sim.Events.Count(CategoryMating), sim.Vicinity.Matings)
	}
}

func TestEligibility(t *testing.T) {
	sim := newTestSim(t, nil)
	male, female := matingPair(t, sim)
	if !sim.Vicinity.Eligible(male, female) {
		t.Fatal("expected adult healthy pair to be eligible")
	}

	other := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)
	other.Age = 25
	if sim.Vicinity.Eligible(male, other) {
		t.Fatal("expected same-gender pair to be ineligible")
	}

	female.Age = 10
	if sim.Vicinity.Eligible(male, female) {
		t.Fatal("expected underage partner to be ineligible")
	}
	female.Age = 25

	female.Health = 40
	if sim.Vicinity.Eligible(male, female) {
		t.Fatal("expected weak partner to be ineligible")
	}
	female.Health = 100

	sim.Clock.Now = 100
	male.LastMateTime = 90
	if sim.Vicinity.Eligible(male, female) {
		t.Fatal("expected partner on cooldown to be ineligible")
	}
	sim.Clock.Now = 120
	if !sim.Vicinity.Eligible(male, female) {
		t.Fatal("expected cooldown to have elapsed")
	}
}

func TestMatingGrantsSoulExperience(t *testing.T) {
	sim := newTestSim(t, func(c *config.Config) { c.Reproduction.Probability = 1 })
	souls := sim.Souls.CreateInitial(1, nil)
	male, female := matingPair(t, sim)
	sim.Souls.Connect(souls[0].ID, male.ID)

	if !sim.Vicinity.TryReproduce(male, female) {
		t.Fatal("expected certain reproduction to succeed")
	}
	s, _ := sim.Souls.Get(souls[0].ID)
	if s.Experience != sim.Config.Reproduction.MatingXP {
		t.Fatalf("expected %v xp, got %v", sim.Config.Reproduction.MatingXP, s.Experience)
	}
	if male.LastMateTime != sim.Now() || female.LastMateTime != sim.Now() {
		t.Fatal("expected both partners to start their cooldown")
	}
	if sim.Vicinity.TryReproduce(male, female) {
		t.Fatal("expected pregnant female to be rejected")
	}
}

func TestVicinityIsThrottled(t *testing.T) {
	sim := newTestSim(t, nil)
	sim.Vicinity.Update(0.05)
	sim.Vicinity.Update(0.05)
	if sim.Vicinity.Scans != 1 {
		t.Fatalf("expected 1 scan without clock advance, got %d", sim.Vicinity.Scans)
	}
	sim.Clock.Now += sim.Config.Reproduction.Interval
	sim.Vicinity.Update(0.05)
	if sim.Vicinity.Scans != 2 {
		t.Fatalf("expected a second scan after the interval, got %d", sim.Vicinity.Scans)
	}
}

func TestVicinityEngagesDemons(t *testing.T) {
	sim := newTestSim(t, nil)
	s := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)
	spawnDemon(t, sim, agents.SpawnConfig{Position: mgl64.Vec3{1.5, 0, 0}})
	far := spawnStoonie(t, sim, mgl64.Vec3{30, 0, 0}, agents.GenderMale)

	sim.Vicinity.Scan()
	if sim.Vicinity.Contacts != 1 {
		t.Fatalf("expected one contact, got %d", sim.Vicinity.Contacts)
	}
	if s.Health >= agents.MaxHealth {
		t.Fatal("expected nearby stoonie to be hurt")
	}
	if far.Health != agents.MaxHealth {
		t.Fatal("expected distant stoonie untouched")
	}
}
