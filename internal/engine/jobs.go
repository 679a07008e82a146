// Jobs are multi-tick tasks bound to a resource target. The scheduler owns
// job state; the agent holds a pointer for read access.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/config"
	"github.com/talgya/stoonie-world/internal/world"
)

// JobWoodcutting is the only built-in job type.
const JobWoodcutting = "woodcutting"

// JobType describes how a job is performed.
type JobType struct {
	Name          string
	Resource      world.ResourceKind // Kind an explicit target must be
	Range         float64            // Work happens within this ground distance of the target
	WorkTicks     int                // Work-ticks per completed unit
	WorkInterval  float64            // Seconds between work-ticks
	Yield         int                // Units harvested per completion
	ApproachForce float64

	// Acquire picks the next target for a worker. Nil defaults to the
	// nearest node of Resource that still has something to give.
	Acquire func(a *agents.Agent) (world.ResourceID, bool)
}

// JobScheduler assigns and advances jobs.
type JobScheduler struct {
	clock    *Clock
	forest   *world.Forest
	events   *Events
	registry *Registry

	types  map[string]JobType
	jobs   map[agents.AgentID]*agents.Job
	ledger map[string]int

	Completed int
}

// NewJobScheduler creates a scheduler with woodcutting registered.
func NewJobScheduler(cfg config.JobsConfig, clock *Clock, forest *world.Forest, events *Events, registry *Registry) *JobScheduler {
	s := &JobScheduler{
		clock:    clock,
		forest:   forest,
		events:   events,
		registry: registry,
		types:    make(map[string]JobType),
		jobs:     make(map[agents.AgentID]*agents.Job),
		ledger:   make(map[string]int),
	}
	wc := cfg.Woodcutting
	s.Register(JobType{
		Name:          JobWoodcutting,
		Resource:      world.ResourceTree,
		Range:         wc.Range,
		WorkTicks:     wc.WorkTicks,
		WorkInterval:  wc.WorkInterval,
		Yield:         wc.Yield,
		ApproachForce: wc.ApproachForce,
	})
	return s
}

// Register adds or replaces a job type.
func (s *JobScheduler) Register(jt JobType) {
	if jt.Acquire == nil {
		jt.Acquire = s.nearest(jt.Resource)
	}
	s.types[jt.Name] = jt
}

func (s *JobScheduler) nearest(kind world.ResourceKind) func(*agents.Agent) (world.ResourceID, bool) {
	return func(a *agents.Agent) (world.ResourceID, bool) {
		r, ok := s.forest.Nearest(kind, a.Position, 0)
		if !ok {
			return 0, false
		}
		return r.ID, true
	}
}

// Types returns the registered job type names, sorted.
func (s *JobScheduler) Types() []string {
	out := make([]string, 0, len(s.types))
	for name := range s.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Assign gives agentID a job. If target does not name an existing resource
// of the type's kind, the type's Acquire picks one. An existing job is
// replaced.
func (s *JobScheduler) Assign(agentID agents.AgentID, jobType string, target world.ResourceID) bool {
	jt, ok := s.types[jobType]
	if !ok {
		slog.Warn("unknown job type", "type", jobType, "agent", agentID)
		return false
	}
	a, ok := s.registry.Alive(agentID)
	if !ok || a.Kind != agents.KindStoonie {
		return false
	}
	if r, ok := s.forest.Get(target); !ok || r.Kind != jt.Resource {
		next, ok := s.acquire(a, jt)
		if !ok {
			return false
		}
		target = next
	}

	job := &agents.Job{Type: jt.Name, Target: target, LastWorkTime: agents.Never}
	s.jobs[agentID] = job
	a.Job = job
	a.State = agents.StateWorking

	s.events.Emit(Event{
		Category:    CategoryJobAssigned,
		Description: fmt.Sprintf("stoonie #%d started %s", agentID, jt.Name),
		AgentID:     agentID,
	})
	return true
}

// Cancel ends agentID's job and returns it to wandering.
func (s *JobScheduler) Cancel(agentID agents.AgentID) bool {
	return s.end(agentID, "cancelled")
}

// JobOf returns a copy of agentID's job.
func (s *JobScheduler) JobOf(agentID agents.AgentID) (agents.Job, bool) {
	job, ok := s.jobs[agentID]
	if !ok {
		return agents.Job{}, false
	}
	return *job, true
}

// Active returns the number of running jobs.
func (s *JobScheduler) Active() int {
	return len(s.jobs)
}

// Ledger returns a copy of the harvested resource totals.
func (s *JobScheduler) Ledger() map[string]int {
	out := make(map[string]int, len(s.ledger))
	for k, v := range s.ledger {
		out[k] = v
	}
	return out
}

// Update advances every job. Jobs whose agent has died are dropped.
func (s *JobScheduler) Update(dt float64) {
	ids := make([]agents.AgentID, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		job, ok := s.jobs[id]
		if !ok {
			continue
		}
		a, ok := s.registry.Alive(id)
		if !ok {
			s.end(id, "agent gone")
			continue
		}
		s.work(a, job)
	}
}

func (s *JobScheduler) work(a *agents.Agent, job *agents.Job) {
	jt, ok := s.types[job.Type]
	if !ok {
		s.end(a.ID, "unknown type")
		return
	}

	target, ok := s.forest.Get(job.Target)
	if !ok {
		next, found := s.acquire(a, jt)
		if !found {
			s.end(a.ID, "no targets left")
			return
		}
		job.Target = next
		job.Progress = 0
		target, _ = s.forest.Get(next)
	}

	dir, dist := agents.GroundDirection(a.Position, target.Position)
	if dist > jt.Range {
		a.ApplyForce(dir.Mul(jt.ApproachForce))
		return
	}
	a.Velocity = mgl64.Vec3{}

	now := s.clock.Now
	if !agents.CooldownReady(job.LastWorkTime, jt.WorkInterval, now) {
		return
	}
	job.LastWorkTime = now
	job.Progress++
	if job.Progress < jt.WorkTicks {
		return
	}

	taken, _ := s.forest.Harvest(target.ID, jt.Yield)
	s.ledger[target.Kind.Yield()] += taken
	s.Completed++
	s.events.Emit(Event{
		Category:    CategoryJobCompleted,
		Description: fmt.Sprintf("stoonie #%d gathered %d %s", a.ID, taken, target.Kind.Yield()),
		AgentID:     a.ID,
		Position:    positionPtr(target.Position),
	})

	job.Progress = 0
	next, found := s.acquire(a, jt)
	if !found {
		s.end(a.ID, "no targets left")
		return
	}
	job.Target = next
}

// acquire runs the job type's target search and accepts only live nodes.
func (s *JobScheduler) acquire(a *agents.Agent, jt JobType) (world.ResourceID, bool) {
	id, ok := jt.Acquire(a)
	if !ok {
		return 0, false
	}
	if _, live := s.forest.Get(id); !live {
		return 0, false
	}
	return id, true
}

func (s *JobScheduler) end(agentID agents.AgentID, reason string) bool {
	job, ok := s.jobs[agentID]
	if !ok {
		return false
	}
	delete(s.jobs, agentID)
	if a, ok := s.registry.Get(agentID); ok {
		a.Job = nil
		if a.State == agents.StateWorking {
			a.State = agents.StateWander
		}
	}
	s.events.Emit(Event{
		Category:    CategoryJobEnded,
		Description: fmt.Sprintf("stoonie #%d stopped %s (%s)", agentID, job.Type, reason),
		AgentID:     agentID,
	})
	return true
}
