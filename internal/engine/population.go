// Population setup: the initial world of Stoonies, Demons and souls.
package engine

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
)

// Populate creates the soul pool, the starting Stoonies and the starting
// Demons. Demons are placed evenly around a ring of demon_spawn_radius with
// a random phase. Populate is meant to run once on a fresh simulation.
func (s *Simulation) Populate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	pop := s.Config.Population
	s.Souls.CreateInitial(s.Config.Souls.Count, s.Config.Souls.Names)

	for _, p := range pop.StoonieStart {
		s.Registry.Create(agents.KindStoonie, agents.SpawnConfig{Position: vec3(p)})
	}

	phase := s.RNG.Range(0, 2*math.Pi)
	for i := 0; i < pop.Demons; i++ {
		angle := phase + 2*math.Pi*float64(i)/float64(pop.Demons)
		pos := mgl64.Vec3{
			pop.DemonSpawnRadius * math.Cos(angle),
			0,
			pop.DemonSpawnRadius * math.Sin(angle),
		}
		s.Registry.Create(agents.KindDemon, agents.SpawnConfig{Position: pos})
	}

	s.updateStats()
	slog.Info("world populated",
		"stoonies", s.Stats.Stoonies,
		"demons", s.Stats.Demons,
		"souls", len(s.Souls.order),
		"trees", s.Stats.Trees,
	)
}

// Spawn creates an agent under the simulation lock.
func (s *Simulation) Spawn(kind agents.Kind, sc agents.SpawnConfig) (agents.AgentID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.Registry.Create(kind, sc)
	s.updateStats()
	return id, ok
}

func vec3(p []float64) mgl64.Vec3 {
	var v mgl64.Vec3
	copy(v[:], p)
	return v
}
