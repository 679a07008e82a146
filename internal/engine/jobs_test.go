package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/world"
)

func advanceJobs(sim *Simulation, n int, dt float64) {
	for i := 0; i < n; i++ {
		sim.Clock.Now += dt
		sim.Jobs.Update(dt)
	}
}

func TestWoodcuttingLifecycle(t *testing.T) {
	sim := newTestSim(t, nil)
	tree := sim.World.Forest.Plant(world.ResourceTree, mgl64.Vec3{1, 0, 0}, 1)
	a := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)

	if !sim.Jobs.Assign(a.ID, JobWoodcutting, 0) {
		t.Fatal("expected assignment to acquire the only tree")
	}
	job, ok := sim.Jobs.JobOf(a.ID)
	if !ok || job.Target != tree {
		t.Fatalf("expected job on tree %d, got %+v", tree, job)
	}
	if a.State != agents.StateWorking || a.Job == nil {
		t.Fatalf("expected agent working, got %v", a.State)
	}

	advanceJobs(sim, 2, 1)
	if job, _ := sim.Jobs.JobOf(a.ID); job.Progress != 2 {
		t.Fatalf("expected 2 work-ticks, got %d", job.Progress)
	}

	advanceJobs(sim, 1, 1)
	if got := sim.Jobs.Ledger()["wood"]; got != 1 {
		t.Fatalf("expected 1 wood in the ledger, got %d", got)
	}
	if sim.World.Forest.Len() != 0 {
		t.Fatal("expected depleted tree removed")
	}
	if sim.Jobs.Active() != 0 || a.Job != nil || a.State != agents.StateWander {
		t.Fatalf("expected job to end with no trees left, got state %v", a.State)
	}
	if sim.Jobs.Completed != 1 {
		t.Fatalf("expected 1 completion, got %d", sim.Jobs.Completed)
	}
}

func TestWorkRespectsInterval(t *testing.T) {
	sim := newTestSim(t, nil)
	sim.World.Forest.Plant(world.ResourceTree, mgl64.Vec3{1, 0, 0}, 5)
	a := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)
	sim.Jobs.Assign(a.ID, JobWoodcutting, 0)

	// Work-ticks land at 0.25, 1.25 and 2.25; the third completes a unit.
	advanceJobs(sim, 10, 0.25)
	if sim.Jobs.Completed != 1 {
		t.Fatalf("expected 1 completion in 2.5s at 1s interval, got %d", sim.Jobs.Completed)
	}
	job, ok := sim.Jobs.JobOf(a.ID)
	if !ok || job.Progress != 0 {
		t.Fatalf("expected job to continue on the same tree with progress reset, got %+v", job)
	}
}

func TestStaleTargetIsReacquired(t *testing.T) {
	sim := newTestSim(t, nil)
	first := sim.World.Forest.Plant(world.ResourceTree, mgl64.Vec3{1, 0, 0}, 5)
	second := sim.World.Forest.Plant(world.ResourceTree, mgl64.Vec3{1, 0, 1}, 5)
	a := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)

	if !sim.Jobs.Assign(a.ID, JobWoodcutting, first) {
		t.Fatal("expected assignment to succeed")
	}
	advanceJobs(sim, 1, 1)
	sim.World.Forest.Harvest(first, 5)

	advanceJobs(sim, 1, 1)
	job, ok := sim.Jobs.JobOf(a.ID)
	if !ok || job.Target != second {
		t.Fatalf("expected job retargeted to %d, got %+v", second, job)
	}
	if job.Progress != 1 {
		t.Fatalf("expected progress restarted on the new target, got %d", job.Progress)
	}
}

func TestWorkerApproachesDistantTarget(t *testing.T) {
	sim := newTestSim(t, nil)
	sim.World.Forest.Plant(world.ResourceTree, mgl64.Vec3{10, 0, 0}, 5)
	a := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)
	sim.Jobs.Assign(a.ID, JobWoodcutting, 0)

	advanceJobs(sim, 1, 1)
	if a.Acceleration[0] <= 0 {
		t.Fatalf("expected worker to steer toward the tree, got %v", a.Acceleration)
	}
	if job, _ := sim.Jobs.JobOf(a.ID); job.Progress != 0 {
		t.Fatalf("expected no work out of range, got %d", job.Progress)
	}
}

func TestAssignRejections(t *testing.T) {
	sim := newTestSim(t, nil)
	a := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)
	d := spawnDemon(t, sim, agents.SpawnConfig{})

	if sim.Jobs.Assign(a.ID, JobWoodcutting, 0) {
		t.Fatal("expected assignment to fail with no trees")
	}
	sim.World.Forest.Plant(world.ResourceTree, mgl64.Vec3{1, 0, 0}, 5)
	if sim.Jobs.Assign(a.ID, "mining", 0) {
		t.Fatal("expected unknown job type to be rejected")
	}
	if sim.Jobs.Assign(d.ID, JobWoodcutting, 0) {
		t.Fatal("expected demons to be rejected")
	}
	if !sim.Jobs.Assign(a.ID, JobWoodcutting, 0) || !sim.Jobs.Cancel(a.ID) || sim.Jobs.Cancel(a.ID) {
		t.Fatal("expected assign then a single successful cancel")
	}
	if got := sim.Jobs.Types(); len(got) != 1 || got[0] != JobWoodcutting {
		t.Fatalf("expected only woodcutting registered, got %v", got)
	}
}

func TestCustomAcquireDrivesTargeting(t *testing.T) {
	sim := newTestSim(t, nil)
	near := sim.World.Forest.Plant(world.ResourceTree, mgl64.Vec3{1, 0, 0}, 5)
	far := sim.World.Forest.Plant(world.ResourceTree, mgl64.Vec3{1, 0, 1}, 5)
	a := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)

	calls := 0
	sim.Jobs.Register(JobType{
		Name:         "foraging",
		Resource:     world.ResourceTree,
		Range:        3,
		WorkTicks:    1,
		WorkInterval: 1,
		Yield:        1,
		Acquire: func(*agents.Agent) (world.ResourceID, bool) {
			calls++
			// Alternate between the two trees, starting with the farther one.
			if calls%2 == 1 {
				return far, true
			}
			return near, true
		},
	})

	if !sim.Jobs.Assign(a.ID, "foraging", 0) {
		t.Fatal("expected assignment through the custom search")
	}
	if job, _ := sim.Jobs.JobOf(a.ID); job.Target != far {
		t.Fatalf("expected custom search to pick tree %d, got %d", far, job.Target)
	}

	advanceJobs(sim, 1, 1)
	if sim.Jobs.Completed != 1 {
		t.Fatalf("expected 1 completion, got %d", sim.Jobs.Completed)
	}
	if calls != 2 {
		t.Fatalf("expected the search to run again on completion, got %d calls", calls)
	}
	if job, _ := sim.Jobs.JobOf(a.ID); job.Target != near {
		t.Fatalf("expected completion to retarget to tree %d, got %d", near, job.Target)
	}
}

func TestAcquireRejectsUnknownTarget(t *testing.T) {
	sim := newTestSim(t, nil)
	sim.World.Forest.Plant(world.ResourceTree, mgl64.Vec3{1, 0, 0}, 5)
	a := spawnStoonie(t, sim, mgl64.Vec3{}, agents.GenderMale)

	sim.Jobs.Register(JobType{
		Name:         "phantom",
		Resource:     world.ResourceTree,
		WorkTicks:    1,
		WorkInterval: 1,
		Acquire: func(*agents.Agent) (world.ResourceID, bool) {
			return 999, true
		},
	})
	if sim.Jobs.Assign(a.ID, "phantom", 0) {
		t.Fatal("expected a search returning a missing node to be rejected")
	}
}
