// Package journal records a run's lifecycle events and population samples
// in SQLite. It is an append-only chronicle for later analysis; world state
// is never loaded back from it.
package journal

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/stoonie-world/internal/agents"
	"github.com/talgya/stoonie-world/internal/engine"
)

// ErrNoRun is returned by writes made before StartRun.
var ErrNoRun = errors.New("journal: no run started")

// Journal wraps a SQLite connection.
type Journal struct {
	conn    *sqlx.DB
	runID   string
	lastSeq uint64 // Newest event sequence already written
}

// Sample is one row of the population time series.
type Sample struct {
	RunID         string  `db:"run_id" json:"run_id"`
	Tick          uint64  `db:"tick" json:"tick"`
	SimTime       float64 `db:"sim_time" json:"sim_time"`
	Population    int     `db:"population" json:"population"`
	Stoonies      int     `db:"stoonies" json:"stoonies"`
	Demons        int     `db:"demons" json:"demons"`
	Pregnant      int     `db:"pregnant" json:"pregnant"`
	SoulsAttached int     `db:"souls_attached" json:"souls_attached"`
	Births        int     `db:"births" json:"births"`
	Deaths        int     `db:"deaths" json:"deaths"`
	AvgHealth     float64 `db:"avg_health" json:"avg_health"`
	Wood          int     `db:"wood" json:"wood"`
}

type eventRow struct {
	Seq         uint64  `db:"seq"`
	Tick        uint64  `db:"tick"`
	SimTime     float64 `db:"sim_time"`
	Category    string  `db:"category"`
	Description string  `db:"description"`
	AgentID     uint64  `db:"agent_id"`
	OtherID     uint64  `db:"other_id"`
	Kind        string  `db:"kind"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Journal, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	j := &Journal{conn: conn}
	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.conn.Close()
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		sim_time REAL NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		agent_id INTEGER NOT NULL,
		other_id INTEGER NOT NULL,
		kind TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS population_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		sim_time REAL NOT NULL,
		population INTEGER NOT NULL,
		stoonies INTEGER NOT NULL,
		demons INTEGER NOT NULL,
		pregnant INTEGER NOT NULL,
		souls_attached INTEGER NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		avg_health REAL NOT NULL,
		wood INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		run_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (run_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, seq);
	CREATE INDEX IF NOT EXISTS idx_samples_run ON population_samples(run_id, tick);
	`
	_, err := j.conn.Exec(schema)
	return err
}

// StartRun registers a new run and makes it the target of later writes.
func (j *Journal) StartRun(seed int64) (string, error) {
	id := uuid.NewString()
	_, err := j.conn.Exec(
		"INSERT INTO runs (id, seed, started_at) VALUES (?, ?, ?)",
		id, seed, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	j.runID = id
	j.lastSeq = 0
	slog.Info("journal run started", "run", id, "seed", seed)
	return id, nil
}

// RunID returns the current run, or "" before StartRun.
func (j *Journal) RunID() string {
	return j.runID
}

// SaveEvents appends events to the current run.
func (j *Journal) SaveEvents(events []engine.Event) error {
	if j.runID == "" {
		return ErrNoRun
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := j.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(run_id, seq, tick, sim_time, category, description, agent_id, other_id, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(j.runID, e.Seq, e.Tick, e.Time, e.Category, e.Description,
			uint64(e.AgentID), uint64(e.OtherID), e.Kind); err != nil {
			return err
		}
		if e.Seq > j.lastSeq {
			j.lastSeq = e.Seq
		}
	}
	return tx.Commit()
}

// SaveSample appends one population sample to the current run.
func (j *Journal) SaveSample(s Sample) error {
	if j.runID == "" {
		return ErrNoRun
	}
	s.RunID = j.runID
	_, err := j.conn.NamedExec(`INSERT INTO population_samples
		(run_id, tick, sim_time, population, stoonies, demons, pregnant, souls_attached, births, deaths, avg_health, wood)
		VALUES (:run_id, :tick, :sim_time, :population, :stoonies, :demons, :pregnant, :souls_attached, :births, :deaths, :avg_health, :wood)`,
		s)
	return err
}

// SaveMeta stores a key-value pair for the current run.
func (j *Journal) SaveMeta(key, value string) error {
	if j.runID == "" {
		return ErrNoRun
	}
	_, err := j.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (run_id, key, value) VALUES (?, ?, ?)",
		j.runID, key, value,
	)
	return err
}

// GetMeta retrieves a metadata value for the current run.
func (j *Journal) GetMeta(key string) (string, error) {
	var value string
	err := j.conn.Get(&value, "SELECT value FROM run_meta WHERE run_id = ? AND key = ?", j.runID, key)
	return value, err
}

// RecentEvents returns the most recent N events of the current run, newest
// first.
func (j *Journal) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := j.conn.Select(&rows,
		`SELECT seq, tick, sim_time, category, description, agent_id, other_id, kind
		FROM events WHERE run_id = ? ORDER BY seq DESC LIMIT ?`,
		j.runID, limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]engine.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, engine.Event{
			Seq:         r.Seq,
			Tick:        r.Tick,
			Time:        r.SimTime,
			Category:    r.Category,
			Description: r.Description,
			AgentID:     agents.AgentID(r.AgentID),
			OtherID:     agents.AgentID(r.OtherID),
			Kind:        r.Kind,
		})
	}
	return events, nil
}

// Samples returns the most recent N samples of the current run, oldest
// first.
func (j *Journal) Samples(limit int) ([]Sample, error) {
	var samples []Sample
	err := j.conn.Select(&samples,
		`SELECT * FROM (
			SELECT run_id, tick, sim_time, population, stoonies, demons, pregnant,
				souls_attached, births, deaths, avg_health, wood
			FROM population_samples WHERE run_id = ? ORDER BY tick DESC LIMIT ?
		) ORDER BY tick ASC`,
		j.runID, limit,
	)
	return samples, err
}

// Flush writes events emitted since the previous flush and a population
// sample taken from sim.
func (j *Journal) Flush(sim *engine.Simulation) error {
	var (
		events []engine.Event
		sample Sample
	)
	sim.View(func(s *engine.Simulation) {
		events = s.Events.Since(j.lastSeq)
		sample = SampleOf(s)
	})

	if err := j.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := j.SaveSample(sample); err != nil {
		return fmt.Errorf("save sample: %w", err)
	}
	if err := j.SaveMeta("last_tick", strconv.FormatUint(sample.Tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	slog.Debug("journal flushed", "events", len(events), "tick", sample.Tick)
	return nil
}

// SampleOf builds a sample from the simulation's current stats. Caller
// must hold the simulation lock.
func SampleOf(s *engine.Simulation) Sample {
	st := s.Stats
	return Sample{
		Tick:          s.CurrentTick(),
		SimTime:       s.Now(),
		Population:    st.Population,
		Stoonies:      st.Stoonies,
		Demons:        st.Demons,
		Pregnant:      st.Pregnant,
		SoulsAttached: st.SoulsAttached,
		Births:        st.Births,
		Deaths:        st.Deaths,
		AvgHealth:     st.AvgHealth,
		Wood:          st.Resources["wood"],
	}
}
