package engine

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
)

// Event categories. The first three are the lifecycle notifications the
// rendering layer attaches and detaches visuals on.
const (
	CategoryCreated          = "agent_created"
	CategoryDestroyed        = "agent_destroyed"
	CategoryBirth            = "birth"
	CategoryMating           = "mating"
	CategoryPregnancyEnd     = "pregnancy_end"
	CategoryCombat           = "combat"
	CategorySoulConnected    = "soul_connected"
	CategorySoulDisconnected = "soul_disconnected"
	CategorySoulLevel        = "soul_level"
	CategoryJobAssigned      = "job_assigned"
	CategoryJobCompleted     = "job_completed"
	CategoryJobEnded         = "job_ended"
)

// maxEventLog bounds the in-memory event log.
const maxEventLog = 1000

// Clock is the simulated time shared by every component. Only
// Simulation.step advances it.
type Clock struct {
	Tick uint64  // Ticks processed
	Now  float64 // Simulated seconds since world start
}

// Event is a notable occurrence in the world.
type Event struct {
	Seq         uint64         `json:"seq"`
	Tick        uint64         `json:"tick"`
	Time        float64        `json:"time"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	AgentID     agents.AgentID `json:"agent_id,omitempty"`
	OtherID     agents.AgentID `json:"other_id,omitempty"`
	Kind        string         `json:"kind,omitempty"`
	Position    *mgl64.Vec3    `json:"position,omitempty"`
}

// Events keeps a bounded log of recent events and fans new ones out to
// subscribers. Subscribers that fall behind drop events rather than
// stalling the tick.
type Events struct {
	clock *Clock
	log   []Event
	seq   uint64

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewEvents creates an event log stamped from clock.
func NewEvents(clock *Clock) *Events {
	return &Events{
		clock: clock,
		subs:  make(map[int]chan Event),
	}
}

// Emit stamps e with the current tick and time, records it and notifies
// subscribers.
func (ev *Events) Emit(e Event) {
	ev.seq++
	e.Seq = ev.seq
	e.Tick = ev.clock.Tick
	e.Time = ev.clock.Now

	ev.log = append(ev.log, e)
	if len(ev.log) > maxEventLog {
		ev.log = ev.log[len(ev.log)-maxEventLog:]
	}

	ev.subMu.Lock()
	for _, ch := range ev.subs {
		select {
		case ch <- e:
		default:
		}
	}
	ev.subMu.Unlock()
}

// Recent returns up to n of the newest events, oldest first.
func (ev *Events) Recent(n int) []Event {
	start := len(ev.log) - n
	if n <= 0 || start < 0 {
		start = 0
	}
	return append([]Event(nil), ev.log[start:]...)
}

// Since returns retained events with Seq greater than seq.
func (ev *Events) Since(seq uint64) []Event {
	var out []Event
	for _, e := range ev.log {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// LastSeq returns the sequence number of the newest event.
func (ev *Events) LastSeq() uint64 {
	return ev.seq
}

// Subscribe registers a buffered channel that receives every new event.
func (ev *Events) Subscribe() (int, <-chan Event) {
	ev.subMu.Lock()
	defer ev.subMu.Unlock()
	id := ev.nextSub
	ev.nextSub++
	ch := make(chan Event, 64)
	ev.subs[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscription.
func (ev *Events) Unsubscribe(id int) {
	ev.subMu.Lock()
	defer ev.subMu.Unlock()
	if ch, ok := ev.subs[id]; ok {
		delete(ev.subs, id)
		close(ch)
	}
}

// Count returns how many retained events have category.
func (ev *Events) Count(category string) int {
	n := 0
	for _, e := range ev.log {
		if e.Category == category {
			n++
		}
	}
	return n
}

func positionPtr(p mgl64.Vec3) *mgl64.Vec3 {
	return &p
}
