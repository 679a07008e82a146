// Live event stream over websocket. An external renderer subscribes here to
// attach and detach visuals as agents are created and destroyed.
package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/stoonie-world/internal/engine"
)

const (
	maxStreamConns  = 8
	streamCatchUp   = 50
	streamPingEvery = 15 * time.Second
	streamWriteWait = 5 * time.Second
)

type streamHub struct {
	sim      *engine.Simulation
	upgrader websocket.Upgrader
	conns    atomic.Int32
}

func newStreamHub(sim *engine.Simulation) *streamHub {
	return &streamHub{
		sim: sim,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// streamMessage is one frame sent to stream clients.
type streamMessage struct {
	Type  string           `json:"type"` // "event" or "status"
	Event *engine.Event    `json:"event,omitempty"`
	Tick  uint64           `json:"tick,omitempty"`
	Stats *engine.SimStats `json:"stats,omitempty"`
}

func (h *streamHub) handle(w http.ResponseWriter, r *http.Request) {
	if h.conns.Add(1) > maxStreamConns {
		h.conns.Add(-1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer h.conns.Add(-1)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	subID, ch := h.sim.Subscribe()
	defer h.sim.Unsubscribe(subID)

	// Catch-up: a status frame, then recent events.
	var (
		recent []engine.Event
		status streamMessage
	)
	h.sim.View(func(sim *engine.Simulation) {
		recent = sim.Events.Recent(streamCatchUp)
		stats := sim.Stats
		status = streamMessage{Type: "status", Tick: sim.CurrentTick(), Stats: &stats}
	})
	if err := h.write(conn, status); err != nil {
		return
	}
	var sent uint64
	for i := range recent {
		if err := h.write(conn, streamMessage{Type: "event", Event: &recent[i]}); err != nil {
			return
		}
		sent = recent[i].Seq
	}
	slog.Info("stream client connected", "sub_id", subID, "remote", r.RemoteAddr)

	// The reader only watches for the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			if e.Seq <= sent {
				continue
			}
			if err := h.write(conn, streamMessage{Type: "event", Event: &e}); err != nil {
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(streamWriteWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-closed:
			slog.Info("stream client disconnected", "sub_id", subID)
			return
		}
	}
}

func (h *streamHub) write(conn *websocket.Conn, msg streamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(msg)
}
