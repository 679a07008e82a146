package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/entropy"
)

// SoulPool owns every soul. A soul is either in the available list or
// attached to exactly one living Stoonie, and that Stoonie's SoulID points
// back at it.
type SoulPool struct {
	rng    *entropy.Source
	events *Events

	// Bound by NewSimulation.
	registry *Registry

	souls     map[string]*agents.Soul
	order     []string // Creation order
	available []string // FIFO
}

// NewSoulPool creates an empty pool. Soul ids are UUIDs drawn from rng so
// seeded runs produce the same ids.
func NewSoulPool(rng *entropy.Source, events *Events) *SoulPool {
	return &SoulPool{
		rng:    rng,
		events: events,
		souls:  make(map[string]*agents.Soul),
	}
}

// CreateInitial adds n level-1 souls to the available list. Names are taken
// from names in order, then generated.
func (p *SoulPool) CreateInitial(n int, names []string) []agents.Soul {
	out := make([]agents.Soul, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Soul %d", len(p.order)+1)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		s := agents.NewSoul(p.newID(), name)
		p.souls[s.ID] = s
		p.order = append(p.order, s.ID)
		p.available = append(p.available, s.ID)
		out = append(out, s.Copy())
	}
	slog.Info("souls created", "count", n, "total", len(p.order))
	return out
}

func (p *SoulPool) newID() string {
	id, err := uuid.NewRandomFromReader(p.rng)
	if err != nil {
		return fmt.Sprintf("soul-%d", len(p.order)+1)
	}
	return id.String()
}

// Available returns copies of the unattached souls in FIFO order.
func (p *SoulPool) Available() []agents.Soul {
	out := make([]agents.Soul, 0, len(p.available))
	for _, id := range p.available {
		out = append(out, p.souls[id].Copy())
	}
	return out
}

// All returns copies of every soul in creation order.
func (p *SoulPool) All() []agents.Soul {
	out := make([]agents.Soul, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.souls[id].Copy())
	}
	return out
}

// Get returns a copy of the soul with id.
func (p *SoulPool) Get(id string) (agents.Soul, bool) {
	s, ok := p.souls[id]
	if !ok {
		return agents.Soul{}, false
	}
	return s.Copy(), true
}

// SoulOf returns a copy of the soul attached to agent id.
func (p *SoulPool) SoulOf(id agents.AgentID) (agents.Soul, bool) {
	a, ok := p.registry.Get(id)
	if !ok || !a.HasSoul() {
		return agents.Soul{}, false
	}
	return p.Get(a.SoulID)
}

// HasPower reports whether agent id carries a soul with power p.
func (p *SoulPool) HasPower(id agents.AgentID, power agents.Power) bool {
	a, ok := p.registry.Get(id)
	if !ok || !a.HasSoul() {
		return false
	}
	s, ok := p.souls[a.SoulID]
	return ok && s.Has(power)
}

// Connect attaches an available soul to a living, soulless Stoonie and
// applies the soul's powers. Any failed precondition returns false with no
// state change.
func (p *SoulPool) Connect(soulID string, agentID agents.AgentID) bool {
	idx := -1
	for i, id := range p.available {
		if id == soulID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	a, ok := p.registry.Alive(agentID)
	if !ok || a.Kind != agents.KindStoonie || a.HasSoul() {
		return false
	}

	s := p.souls[soulID]
	p.available = append(p.available[:idx], p.available[idx+1:]...)
	s.AgentID = agentID
	a.SoulID = soulID
	agents.ApplyPowers(a, s)

	p.events.Emit(Event{
		Category:    CategorySoulConnected,
		Description: fmt.Sprintf("soul %s (level %d) joined stoonie #%d", s.Name, s.Level, agentID),
		AgentID:     agentID,
		Kind:        a.Kind.String(),
	})
	slog.Debug("soul connected", "soul", s.Name, "agent", agentID, "level", s.Level)
	return true
}

// Disconnect detaches the soul from agent id, reverting its powers, and
// returns the soul to the end of the available list.
func (p *SoulPool) Disconnect(agentID agents.AgentID) bool {
	a, ok := p.registry.Get(agentID)
	if !ok || !a.HasSoul() {
		return false
	}
	s, ok := p.souls[a.SoulID]
	if !ok {
		a.SoulID = ""
		return false
	}

	agents.RemovePowers(a, s)
	a.SoulID = ""
	s.AgentID = agents.NoAgent
	p.available = append(p.available, s.ID)

	p.events.Emit(Event{
		Category:    CategorySoulDisconnected,
		Description: fmt.Sprintf("soul %s left stoonie #%d", s.Name, agentID),
		AgentID:     agentID,
		Kind:        a.Kind.String(),
	})
	return true
}

// AddExperience grants experience to a soul. Powers unlocked while attached
// take effect on the host immediately. Returns the number of levels gained.
func (p *SoulPool) AddExperience(soulID string, amount float64) int {
	s, ok := p.souls[soulID]
	if !ok {
		return 0
	}
	levels, unlocked := s.AddExperience(amount)
	if levels == 0 {
		return 0
	}

	if s.Connected() {
		if a, ok := p.registry.Get(s.AgentID); ok {
			for _, power := range unlocked {
				agents.ApplyPower(a, power)
			}
		}
	}

	p.events.Emit(Event{
		Category:    CategorySoulLevel,
		Description: fmt.Sprintf("soul %s reached level %d", s.Name, s.Level),
		AgentID:     s.AgentID,
	})
	for _, power := range unlocked {
		slog.Info("soul power unlocked", "soul", s.Name, "level", s.Level, "power", power)
	}
	return levels
}

// Attached returns the number of souls currently attached.
func (p *SoulPool) Attached() int {
	return len(p.order) - len(p.available)
}
