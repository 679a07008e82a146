package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/config"
)

// Registry owns every live agent. Creation and destruction go through it so
// that needs records, soul attachments and jobs stay consistent.
type Registry struct {
	cfg     config.PopulationConfig
	clock   *Clock
	spawner *agents.Spawner
	events  *Events

	// Bound by NewSimulation.
	needs *NeedsEngine
	souls *SoulPool
	jobs  *JobScheduler

	agents map[agents.AgentID]*agents.Agent

	Created   int // Agents ever created
	Destroyed int // Agents ever destroyed
	Deaths    int // Destroyed because they died
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg config.PopulationConfig, clock *Clock, spawner *agents.Spawner, events *Events) *Registry {
	return &Registry{
		cfg:     cfg,
		clock:   clock,
		spawner: spawner,
		events:  events,
		agents:  make(map[agents.AgentID]*agents.Agent),
	}
}

// Create spawns a new agent of kind and registers it. Stoonies get a fresh
// needs record. Unknown kinds are rejected with false.
func (r *Registry) Create(kind agents.Kind, sc agents.SpawnConfig) (agents.AgentID, bool) {
	a, ok := r.spawner.Spawn(kind, sc, r.clock.Now)
	if !ok {
		slog.Warn("unknown agent kind", "kind", kind)
		return agents.NoAgent, false
	}
	r.agents[a.ID] = a
	r.Created++
	if a.Kind == agents.KindStoonie && r.needs != nil {
		r.needs.Initialize(a.ID)
	}

	desc := fmt.Sprintf("%s #%d appeared", a.Kind, a.ID)
	if a.Kind == agents.KindStoonie {
		desc = fmt.Sprintf("%s %s #%d appeared", a.Gender, a.Kind, a.ID)
	}
	r.events.Emit(Event{
		Category:    CategoryCreated,
		Description: desc,
		AgentID:     a.ID,
		Kind:        a.Kind.String(),
		Position:    positionPtr(a.Position),
	})
	return a.ID, true
}

// Destroy removes an agent. Its soul returns to the pool, its job is
// cancelled and its needs record is dropped. Destroying an unknown or
// already-destroyed id is a no-op returning false.
func (r *Registry) Destroy(id agents.AgentID) bool {
	a, ok := r.agents[id]
	if !ok {
		return false
	}

	if a.HasSoul() && r.souls != nil {
		r.souls.Disconnect(id)
	}
	if a.Job != nil && r.jobs != nil {
		r.jobs.Cancel(id)
	}
	if r.needs != nil {
		r.needs.Remove(id)
	}
	for _, other := range r.agents {
		if other.Target == id {
			other.Target = agents.NoAgent
		}
	}

	delete(r.agents, id)
	r.Destroyed++

	cause := "was removed"
	if a.IsDead() {
		cause = "died"
		r.Deaths++
	}
	r.events.Emit(Event{
		Category:    CategoryDestroyed,
		Description: fmt.Sprintf("%s #%d %s", a.Kind, a.ID, cause),
		AgentID:     a.ID,
		Kind:        a.Kind.String(),
		Position:    positionPtr(a.Position),
	})
	return true
}

// Get returns a registered agent, dead or alive.
func (r *Registry) Get(id agents.AgentID) (*agents.Agent, bool) {
	a, ok := r.agents[id]
	return a, ok
}

// Alive returns a registered agent that has not yet met the death predicate.
func (r *Registry) Alive(id agents.AgentID) (*agents.Agent, bool) {
	a, ok := r.agents[id]
	if !ok || a.IsDead() {
		return nil, false
	}
	return a, true
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.agents)
}

// All returns every registered agent ordered by id, including agents that
// died this tick and await reaping.
func (r *Registry) All() []*agents.Agent {
	out := make([]*agents.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	sortByID(out)
	return out
}

// OfKind returns living agents of kind ordered by id.
func (r *Registry) OfKind(kind agents.Kind) []*agents.Agent {
	var out []*agents.Agent
	for _, a := range r.agents {
		if a.Kind == kind && !a.IsDead() {
			out = append(out, a)
		}
	}
	sortByID(out)
	return out
}

// WithinRadius returns living agents within radius of p, optionally
// restricted to kinds, ordered by id.
func (r *Registry) WithinRadius(p mgl64.Vec3, radius float64, kinds ...agents.Kind) []*agents.Agent {
	var out []*agents.Agent
	for _, a := range r.agents {
		if a.IsDead() || !matchKind(a.Kind, kinds) {
			continue
		}
		if a.Position.Sub(p).Len() <= radius {
			out = append(out, a)
		}
	}
	sortByID(out)
	return out
}

// Nearest returns the closest living agent to p, optionally restricted to
// kinds. maxDistance <= 0 means unbounded. Ties go to the lower id.
func (r *Registry) Nearest(p mgl64.Vec3, maxDistance float64, kinds ...agents.Kind) (*agents.Agent, bool) {
	var best *agents.Agent
	bestDist := 0.0
	for _, a := range r.agents {
		if a.IsDead() || !matchKind(a.Kind, kinds) {
			continue
		}
		d := a.Position.Sub(p).Len()
		if maxDistance > 0 && d > maxDistance {
			continue
		}
		if best == nil || d < bestDist || (d == bestDist && a.ID < best.ID) {
			best, bestDist = a, d
		}
	}
	return best, best != nil
}

// Update integrates every agent, then destroys those that died. Deaths are
// collected first so the agent map is never mutated mid-iteration.
func (r *Registry) Update(dt float64) {
	all := r.All()
	for _, a := range all {
		if !a.IsDead() {
			a.Integrate(dt, r.cfg.EnergyDrain)
		}
	}

	var dead []agents.AgentID
	for _, a := range all {
		if a.IsDead() {
			dead = append(dead, a.ID)
		}
	}
	for _, id := range dead {
		r.Destroy(id)
	}
}

func matchKind(k agents.Kind, kinds []agents.Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func sortByID(list []*agents.Agent) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}
