package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
)

// AgentView is a read-only copy of an agent together with its needs, soul
// and job, safe to hand to other goroutines.
type AgentView struct {
	ID                agents.AgentID `json:"id"`
	Kind              string         `json:"kind"`
	Position          mgl64.Vec3     `json:"position"`
	Velocity          mgl64.Vec3     `json:"velocity"`
	Health            float64        `json:"health"`
	Energy            float64        `json:"energy"`
	Age               float64        `json:"age"`
	Stats             agents.Stats   `json:"stats"`
	Gender            string         `json:"gender,omitempty"`
	State             string         `json:"state,omitempty"`
	IsPregnant        bool           `json:"is_pregnant,omitempty"`
	PregnancyTime     float64        `json:"pregnancy_time,omitempty"`
	PregnancyDuration float64        `json:"pregnancy_duration,omitempty"`
	PregnancyProgress float64        `json:"pregnancy_progress,omitempty"`
	Needs             *agents.Needs  `json:"needs,omitempty"`
	Soul              *agents.Soul   `json:"soul,omitempty"`
	Job               *agents.Job    `json:"job,omitempty"`
	Target            agents.AgentID `json:"target,omitempty"`
}

// Snapshot returns views of every living agent ordered by id.
func (s *Simulation) Snapshot() []AgentView {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AgentView
	for _, a := range s.Registry.All() {
		if a.IsDead() {
			continue
		}
		out = append(out, s.viewOf(a))
	}
	return out
}

// AgentView returns the view of agent id. Caller must hold the simulation
// lock (use inside View or Update).
func (s *Simulation) AgentView(id agents.AgentID) (AgentView, bool) {
	a, ok := s.Registry.Get(id)
	if !ok {
		return AgentView{}, false
	}
	return s.viewOf(a), true
}

func (s *Simulation) viewOf(a *agents.Agent) AgentView {
	v := AgentView{
		ID:       a.ID,
		Kind:     a.Kind.String(),
		Position: a.Position,
		Velocity: a.Velocity,
		Health:   a.Health,
		Energy:   a.Energy,
		Age:      a.Age,
		Stats:    a.Stats,
		Target:   a.Target,
	}
	if a.Kind != agents.KindStoonie {
		return v
	}
	v.Gender = a.Gender.String()
	v.State = a.State.String()
	v.IsPregnant = a.IsPregnant
	v.PregnancyTime = a.PregnancyTime
	v.PregnancyDuration = a.PregnancyDuration
	v.PregnancyProgress = a.PregnancyProgress()
	if n, ok := s.Needs.Status(a.ID); ok {
		v.Needs = &n
	}
	if soul, ok := s.Souls.SoulOf(a.ID); ok {
		v.Soul = &soul
	}
	if job, ok := s.Jobs.JobOf(a.ID); ok {
		v.Job = &job
	}
	return v
}

// Subscribe returns a channel of new events. Call Unsubscribe when done.
func (s *Simulation) Subscribe() (int, <-chan Event) {
	return s.Events.Subscribe()
}

// Unsubscribe stops delivery to a subscription and closes its channel.
func (s *Simulation) Unsubscribe(id int) {
	s.Events.Unsubscribe(id)
}
