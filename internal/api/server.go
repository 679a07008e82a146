// Package api provides the HTTP API for observing and steering the world.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/engine"
	"github.com/talgya/stoonie-world/internal/journal"
	"github.com/talgya/stoonie-world/internal/world"
)

// Command errors, mapped to HTTP status codes by writeError.
var (
	ErrUnknownAgent = errors.New("agent not found")
	ErrUnknownSoul  = errors.New("soul not found")
	ErrRejected     = errors.New("request rejected")
)

// Server serves the world state over HTTP.
type Server struct {
	Sim        *engine.Simulation
	Eng        *engine.Engine   // Nil in headless runs
	Journal    *journal.Journal // Nil when the journal is disabled
	Port       int
	AdminKey   string // Bearer token for POST endpoints. Empty = POST disabled.
	SpawnLimit int    // Spawns per client per hour

	stream *streamHub
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	limit := s.SpawnLimit
	if limit <= 0 {
		limit = 30
	}
	spawnLimiter := NewRateLimiter(limit, time.Hour)
	if s.stream == nil {
		s.stream = newStreamHub(s.Sim)
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("GET /api/v1/agent/{id}", s.handleAgentDetail)
	mux.HandleFunc("/api/v1/souls", s.handleSouls)
	mux.HandleFunc("/api/v1/resources", s.handleResources)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats/history", s.handleStatsHistory)
	mux.HandleFunc("/api/v1/stream", s.stream.handle)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/spawn", s.adminOnly(postOnly(RateLimitMiddleware(spawnLimiter, s.handleSpawn))))
	mux.HandleFunc("/api/v1/souls/connect", s.adminOnly(postOnly(s.handleSoulConnect)))
	mux.HandleFunc("/api/v1/souls/disconnect", s.adminOnly(postOnly(s.handleSoulDisconnect)))
	mux.HandleFunc("/api/v1/jobs/assign", s.adminOnly(postOnly(s.handleJobAssign)))
	mux.HandleFunc("/api/v1/jobs/cancel", s.adminOnly(postOnly(s.handleJobCancel)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	handler := s.Handler()
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no STOONIE_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"name": "Stoonie World"}
	s.Sim.View(func(sim *engine.Simulation) {
		status["tick"] = sim.CurrentTick()
		status["sim_seconds"] = sim.Now()
		status["sim_time"] = engine.SimTime(sim.Now())
		status["seed"] = sim.RNG.Seed()
		status["stats"] = sim.Stats
	})
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	if s.Journal != nil {
		status["journal_run"] = s.Journal.RunID()
	}
	writeJSON(w, status)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	var filter *agents.Kind
	if k := r.URL.Query().Get("kind"); k != "" {
		kind, ok := agents.ParseKind(k)
		if !ok {
			http.Error(w, "unknown kind", http.StatusBadRequest)
			return
		}
		filter = &kind
	}

	type agentSummary struct {
		ID       agents.AgentID `json:"id"`
		Kind     string         `json:"kind"`
		Position mgl64.Vec3     `json:"position"`
		Health   float64        `json:"health"`
		Energy   float64        `json:"energy"`
		Gender   string         `json:"gender,omitempty"`
		State    string         `json:"state,omitempty"`
		Pregnant bool           `json:"pregnant,omitempty"`
		SoulID   string         `json:"soul_id,omitempty"`
	}

	result := []agentSummary{}
	s.Sim.View(func(sim *engine.Simulation) {
		for _, a := range sim.Registry.All() {
			if a.IsDead() || (filter != nil && a.Kind != *filter) {
				continue
			}
			sum := agentSummary{
				ID:       a.ID,
				Kind:     a.Kind.String(),
				Position: a.Position,
				Health:   a.Health,
				Energy:   a.Energy,
				SoulID:   a.SoulID,
			}
			if a.Kind == agents.KindStoonie {
				sum.Gender = a.Gender.String()
				sum.State = a.State.String()
				sum.Pregnant = a.IsPregnant
			}
			result = append(result, sum)
		}
	})
	writeJSON(w, result)
}

func (s *Server) handleAgentDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}

	var (
		view engine.AgentView
		ok   bool
	)
	s.Sim.View(func(sim *engine.Simulation) {
		view, ok = sim.AgentView(agents.AgentID(id))
	})
	if !ok {
		writeError(w, ErrUnknownAgent)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleSouls(w http.ResponseWriter, r *http.Request) {
	var souls []agents.Soul
	s.Sim.View(func(sim *engine.Simulation) {
		souls = sim.Souls.All()
	})
	writeJSON(w, souls)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	type treeSummary struct {
		ID       world.ResourceID `json:"id"`
		Position mgl64.Vec3       `json:"position"`
		Amount   int              `json:"amount"`
	}
	resp := map[string]any{}
	s.Sim.View(func(sim *engine.Simulation) {
		trees := []treeSummary{}
		for _, t := range sim.World.Forest.All() {
			trees = append(trees, treeSummary{ID: t.ID, Position: t.Position, Amount: t.Amount})
		}
		resp["ledger"] = sim.Jobs.Ledger()
		resp["trees"] = trees
		resp["jobs_active"] = sim.Jobs.Active()
		resp["jobs_completed"] = sim.Jobs.Completed
		resp["job_types"] = sim.Jobs.Types()
	})
	writeJSON(w, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	category := r.URL.Query().Get("category")

	var events []engine.Event
	s.Sim.View(func(sim *engine.Simulation) {
		events = sim.Events.Recent(0)
	})

	if category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	out := events[start:]
	if out == nil {
		out = []engine.Event{}
	}
	writeJSON(w, out)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		http.Error(w, "journal not available", http.StatusServiceUnavailable)
		return
	}
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	rows, err := s.Journal.Samples(limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		// Return empty array instead of error; table may not have data yet.
		writeJSON(w, []journal.Sample{})
		return
	}
	if rows == nil {
		rows = []journal.Sample{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "no real-time engine", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind            string     `json:"kind"`
		Gender          string     `json:"gender"`
		Position        mgl64.Vec3 `json:"position"`
		DamagePerAttack float64    `json:"damage_per_attack"`
		AttackRange     float64    `json:"attack_range"`
		DetectionRange  float64    `json:"detection_range"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	kind, ok := agents.ParseKind(req.Kind)
	if !ok {
		slog.Warn("spawn rejected", "kind", req.Kind)
		http.Error(w, "unknown kind", http.StatusBadRequest)
		return
	}
	gender, ok := agents.ParseGender(req.Gender)
	if !ok {
		http.Error(w, "unknown gender", http.StatusBadRequest)
		return
	}

	id, ok := s.Sim.Spawn(kind, agents.SpawnConfig{
		Position:        req.Position,
		Gender:          gender,
		DamagePerAttack: req.DamagePerAttack,
		AttackRange:     req.AttackRange,
		DetectionRange:  req.DetectionRange,
	})
	if !ok {
		writeError(w, ErrRejected)
		return
	}
	slog.Info("admin spawn", "kind", kind, "id", id)
	writeJSONStatus(w, http.StatusCreated, map[string]any{"id": id, "kind": kind.String()})
}

func (s *Server) handleSoulConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SoulID  string         `json:"soul_id"`
		AgentID agents.AgentID `json:"agent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	err := s.Sim.Update(func(sim *engine.Simulation) error {
		if _, ok := sim.Souls.Get(req.SoulID); !ok {
			return ErrUnknownSoul
		}
		if _, ok := sim.Registry.Alive(req.AgentID); !ok {
			return ErrUnknownAgent
		}
		if !sim.Souls.Connect(req.SoulID, req.AgentID) {
			return fmt.Errorf("%w: soul is attached or agent cannot host it", ErrRejected)
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"connected": true, "soul_id": req.SoulID, "agent_id": req.AgentID})
}

func (s *Server) handleSoulDisconnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID agents.AgentID `json:"agent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	err := s.Sim.Update(func(sim *engine.Simulation) error {
		if _, ok := sim.Registry.Get(req.AgentID); !ok {
			return ErrUnknownAgent
		}
		if !sim.Souls.Disconnect(req.AgentID) {
			return fmt.Errorf("%w: agent has no soul", ErrRejected)
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"disconnected": true, "agent_id": req.AgentID})
}

func (s *Server) handleJobAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID agents.AgentID   `json:"agent_id"`
		JobType string           `json:"job_type"`
		Target  world.ResourceID `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.JobType == "" {
		req.JobType = engine.JobWoodcutting
	}

	var job agents.Job
	err := s.Sim.Update(func(sim *engine.Simulation) error {
		if _, ok := sim.Registry.Alive(req.AgentID); !ok {
			return ErrUnknownAgent
		}
		if !sim.Jobs.Assign(req.AgentID, req.JobType, req.Target) {
			return fmt.Errorf("%w: cannot assign %s", ErrRejected, req.JobType)
		}
		job, _ = sim.Jobs.JobOf(req.AgentID)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, job)
}

func (s *Server) handleJobCancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID agents.AgentID `json:"agent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	err := s.Sim.Update(func(sim *engine.Simulation) error {
		if !sim.Jobs.Cancel(req.AgentID) {
			return fmt.Errorf("%w: agent has no job", ErrRejected)
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"cancelled": true, "agent_id": req.AgentID})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnknownAgent), errors.Is(err, ErrUnknownSoul):
		status = http.StatusNotFound
	case errors.Is(err, ErrRejected):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
