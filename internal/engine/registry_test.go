package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/world"
)

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	sim := newTestSim(t, nil)
	a := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)
	d := spawnDemon(t, sim, agents.SpawnConfig{Position: mgl64.Vec3{5, 0, 0}})
	if a.ID != 1 || d.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", a.ID, d.ID)
	}
	if _, ok := sim.Needs.Status(d.ID); ok {
		t.Fatal("expected no needs record for a demon")
	}
	if _, ok := sim.Registry.Create(agents.Kind(99), agents.SpawnConfig{}); ok {
		t.Fatal("expected unknown kind to be rejected")
	}
	if sim.Registry.Len() != 2 {
		t.Fatalf("expected 2 agents, got %d", sim.Registry.Len())
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	sim := newTestSim(t, nil)
	a := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)

	if !sim.Registry.Destroy(a.ID) {
		t.Fatal("expected first destroy to succeed")
	}
	if sim.Registry.Destroy(a.ID) {
		t.Fatal("expected second destroy to be a no-op")
	}
	if sim.Registry.Destroy(12345) {
		t.Fatal("expected destroying an unknown id to be a no-op")
	}
	if sim.Registry.Destroyed != 1 {
		t.Fatalf("expected 1 destruction, got %d", sim.Registry.Destroyed)
	}
	if _, ok := sim.Needs.Status(a.ID); ok {
		t.Fatal("expected needs record to be dropped")
	}
}

func TestQueriesSkipDeadAgents(t *testing.T) {
	sim := newTestSim(t, nil)
	alive := spawnStoonie(t, sim, mgl64.Vec3{3, 0, 0}, agents.GenderMale)
	dead := spawnStoonie(t, sim, mgl64.Vec3{1, 0, 0}, agents.GenderFemale)
	dead.Health = 0

	near, ok := sim.Registry.Nearest(mgl64.Vec3{}, 0, agents.KindStoonie)
	if !ok || near.ID != alive.ID {
		t.Fatalf("expected nearest living stoonie %d, got %+v", alive.ID, near)
	}
	if got := sim.Registry.WithinRadius(mgl64.Vec3{}, 10); len(got) != 1 {
		t.Fatalf("expected 1 living agent in radius, got %d", len(got))
	}
	if got := sim.Registry.All(); len(got) != 2 {
		t.Fatalf("expected All to include the unreaped corpse, got %d", len(got))
	}
	if _, ok := sim.Registry.Nearest(mgl64.Vec3{}, 2, agents.KindStoonie); ok {
		t.Fatal("expected no living stoonie within 2")
	}

	sim.Registry.Update(0.05)
	if _, ok := sim.Registry.Get(dead.ID); ok {
		t.Fatal("expected dead agent to be reaped")
	}
	if sim.Registry.Deaths != 1 {
		t.Fatalf("expected 1 death, got %d", sim.Registry.Deaths)
	}
}

func TestDestroyClearsDemonTarget(t *testing.T) {
	sim := newTestSim(t, nil)
	prey := spawnStoonie(t, sim, mgl64.Vec3{4, 0, 0}, agents.GenderMale)
	d := spawnDemon(t, sim, agents.SpawnConfig{Position: mgl64.Vec3{}})

	sim.Behavior.Update(0.05)
	if d.Target != prey.ID {
		t.Fatalf("expected demon to target %d, got %d", prey.ID, d.Target)
	}
	sim.Registry.Destroy(prey.ID)
	if d.Target != agents.NoAgent {
		t.Fatalf("expected target cleared, got %d", d.Target)
	}
	sim.Behavior.Update(0.05)
	if d.Target != agents.NoAgent {
		t.Fatalf("expected no target with no stoonies, got %d", d.Target)
	}
}

func TestDeathCleanupFreesSoulAndJob(t *testing.T) {
	sim := newTestSim(t, nil)
	sim.Souls.CreateInitial(1, []string{"Wanderer"})
	sim.World.Forest.Plant(world.ResourceTree, mgl64.Vec3{10, 0, 0}, 5)
	a := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderFemale)

	soulID := sim.Souls.Available()[0].ID
	if !sim.Souls.Connect(soulID, a.ID) {
		t.Fatal("expected connect to succeed")
	}
	if !sim.Jobs.Assign(a.ID, JobWoodcutting, 0) {
		t.Fatal("expected job assignment to succeed")
	}

	a.Health = 0
	sim.Registry.Update(0.05)

	if _, ok := sim.Registry.Get(a.ID); ok {
		t.Fatal("expected agent destroyed")
	}
	avail := sim.Souls.Available()
	if len(avail) != 1 || avail[0].ID != soulID || avail[0].AgentID != agents.NoAgent {
		t.Fatalf("expected soul back in pool, got %+v", avail)
	}
	if _, ok := sim.Jobs.JobOf(a.ID); ok || sim.Jobs.Active() != 0 {
		t.Fatal("expected job removed")
	}
	if _, ok := sim.Needs.Status(a.ID); ok {
		t.Fatal("expected needs record removed")
	}
}
