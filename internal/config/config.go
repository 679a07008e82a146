// Package config loads simulation tuning from YAML.
// The embedded defaults are always loaded first; an optional file overlays
// them and the merged result is validated against an embedded JSON schema.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

//go:embed schema.json
var schemaJSON []byte

// ErrInvalid is returned when a configuration fails schema validation.
var ErrInvalid = errors.New("invalid config")

// AdminKeyEnv overrides api.admin_key so the token stays out of config files.
const AdminKeyEnv = "STOONIE_ADMIN_KEY"

// Config holds all simulation configuration parameters.
type Config struct {
	Engine       EngineConfig       `yaml:"engine"`
	World        WorldConfig        `yaml:"world"`
	Population   PopulationConfig   `yaml:"population"`
	Needs        NeedsConfig        `yaml:"needs"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Combat       CombatConfig       `yaml:"combat"`
	Behavior     BehaviorConfig     `yaml:"behavior"`
	Souls        SoulsConfig        `yaml:"souls"`
	Jobs         JobsConfig         `yaml:"jobs"`
	Journal      JournalConfig      `yaml:"journal"`
	API          APIConfig          `yaml:"api"`
}

// EngineConfig controls the real-time tick loop.
type EngineConfig struct {
	TickDT           float64 `yaml:"tick_dt"`          // Simulated seconds per tick
	TickIntervalMs   int     `yaml:"tick_interval_ms"` // Wall-clock interval between ticks at speed 1
	Speed            float64 `yaml:"speed"`
	ReportEveryTicks int     `yaml:"report_every_ticks"`
	SampleEveryTicks int     `yaml:"sample_every_ticks"`
}

// WorldConfig holds map-level parameters.
type WorldConfig struct {
	Seed         int64        `yaml:"seed"` // 0 = draw one at startup
	BoundsRadius float64      `yaml:"bounds_radius"`
	Forest       ForestConfig `yaml:"forest"`
}

// ForestConfig drives noise-based tree placement.
type ForestConfig struct {
	Radius      float64 `yaml:"radius"`
	Spacing     float64 `yaml:"spacing"`
	Threshold   float64 `yaml:"threshold"`
	Frequency   float64 `yaml:"frequency"`
	WoodPerTree int     `yaml:"wood_per_tree"`
}

// PopulationConfig describes the starting population and base kinematics.
type PopulationConfig struct {
	StoonieStart     [][]float64 `yaml:"stoonie_start"`
	Demons           int         `yaml:"demons"`
	DemonSpawnRadius float64     `yaml:"demon_spawn_radius"`
	EnergyDrain      float64     `yaml:"energy_drain"`
	StoonieMaxSpeed  float64     `yaml:"stoonie_max_speed"`
	DemonMaxSpeed    float64     `yaml:"demon_max_speed"`
}

// NeedsConfig holds per-second need decay rates and thresholds.
type NeedsConfig struct {
	HungerDecay          float64 `yaml:"hunger_decay"`
	ThirstDecay          float64 `yaml:"thirst_decay"`
	TirednessGain        float64 `yaml:"tiredness_gain"`
	StarvationThreshold  float64 `yaml:"starvation_threshold"`
	ExhaustionThreshold  float64 `yaml:"exhaustion_threshold"`
	StarvationDamage     float64 `yaml:"starvation_damage"`
	IllnessDamage        float64 `yaml:"illness_damage"`
	PregnancyRate        float64 `yaml:"pregnancy_rate"` // Progress points per second
	BirthOffset          float64 `yaml:"birth_offset"`
	PregnancyXPPerSecond float64 `yaml:"pregnancy_xp_per_second"`
}

// ReproductionConfig holds vicinity mating rules.
type ReproductionConfig struct {
	Interval         float64 `yaml:"interval"`
	InteractionRange float64 `yaml:"interaction_range"`
	Probability      float64 `yaml:"probability"`
	MinAge           float64 `yaml:"min_age"`
	MinHealth        float64 `yaml:"min_health"`
	MatingCooldown   float64 `yaml:"mating_cooldown"`
	MatingXP         float64 `yaml:"mating_xp"`
}

// CombatConfig holds demon and stoonie attack parameters.
type CombatConfig struct {
	CombatRange         float64 `yaml:"combat_range"`
	DemonDamage         float64 `yaml:"demon_damage"`
	DemonDamageVariance float64 `yaml:"demon_damage_variance"`
	DemonAttackRange    float64 `yaml:"demon_attack_range"`
	DemonDetectionRange float64 `yaml:"demon_detection_range"`
	DemonAttackCooldown float64 `yaml:"demon_attack_cooldown"`
	StrikeDamage        float64 `yaml:"strike_damage"`
	StrikeRange         float64 `yaml:"strike_range"`
	StrikeCooldown      float64 `yaml:"strike_cooldown"`
	StrikeXP            float64 `yaml:"strike_xp"`
	StandoffDistance    float64 `yaml:"standoff_distance"`
	StandoffTolerance   float64 `yaml:"standoff_tolerance"`
}

// BehaviorConfig holds steering forces and state thresholds.
type BehaviorConfig struct {
	FleeDetectionRange float64 `yaml:"flee_detection_range"`
	FleeHealth         float64 `yaml:"flee_health"`
	PregnantFleeHealth float64 `yaml:"pregnant_flee_health"`
	WanderForce        float64 `yaml:"wander_force"`
	WanderJitter       float64 `yaml:"wander_jitter"` // Radians per second
	ReturnForce        float64 `yaml:"return_force"`
	FleeForce          float64 `yaml:"flee_force"`
	ChaseForce         float64 `yaml:"chase_force"`
	FightForce         float64 `yaml:"fight_force"`
}

// SoulsConfig sizes the soul pool.
type SoulsConfig struct {
	Count int      `yaml:"count"`
	Names []string `yaml:"names"`
}

// JobsConfig holds per-job-type tuning.
type JobsConfig struct {
	Woodcutting JobTypeConfig `yaml:"woodcutting"`
}

// JobTypeConfig tunes one job type.
type JobTypeConfig struct {
	Range         float64 `yaml:"range"`
	WorkTicks     int     `yaml:"work_ticks"`
	WorkInterval  float64 `yaml:"work_interval"`
	Yield         int     `yaml:"yield"`
	ApproachForce float64 `yaml:"approach_force"`
}

// JournalConfig locates the SQLite event journal.
type JournalConfig struct {
	Path string `yaml:"path"` // Empty disables the journal
}

// APIConfig configures the observer HTTP API.
type APIConfig struct {
	Port              int    `yaml:"port"` // 0 disables the API
	AdminKey          string `yaml:"admin_key"`
	SpawnLimitPerHour int    `yaml:"spawn_limit_per_hour"`
}

// Default returns the embedded defaults.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads the defaults, overlays the file at path (if non-empty),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if key := os.Getenv(AdminKeyEnv); key != "" {
		cfg.API.AdminKey = key
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cfg against the embedded JSON schema.
func Validate(cfg Config) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	doc, err := toJSONDocument(cfg)
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	s, err := c.Compile("config.schema.json")
	if err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	return s, nil
}

// toJSONDocument converts cfg into the generic JSON value the validator
// expects, keyed by the YAML field names.
func toJSONDocument(cfg Config) (any, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	js, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("encode config json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode config json: %w", err)
	}
	return doc, nil
}
