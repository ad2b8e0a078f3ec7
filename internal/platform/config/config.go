// Package config holds the process-wide configuration surface: latency
// budgets, fusion weights, the versioned policy rule set, the sanitizer
// schema version, and collaborator endpoints. Configuration is loaded at
// startup and on explicit reload, validated before use, and exposed to
// decision runs as an immutable snapshot.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string `yaml:"addr"`
	JWTSigningKey string `yaml:"jwt_signing_key"`
}

// Decision tunes the real-time path. All durations are hard budgets, not
// hints.
type Decision struct {
	Budget             time.Duration `yaml:"budget"`
	SignalTimeout      time.Duration `yaml:"signal_timeout"`
	EnsembleWeight     float64       `yaml:"ensemble_weight"`
	AnomalyWeight      float64       `yaml:"anomaly_weight"`
	HardThreshold      float64       `yaml:"hard_threshold"`
	ChallengeThreshold float64       `yaml:"challenge_threshold"`
}

// Rule is one declarative policy rule. Expr is a CEL expression over the
// transaction attribute map; a rule whose expression matches produces a
// verdict with the configured outcome.
type Rule struct {
	ID        string `yaml:"id"`
	Priority  int    `yaml:"priority"`
	Outcome   string `yaml:"outcome"` // PASS | SOFT_BLOCK | HARD_BLOCK
	Reason    string `yaml:"reason"`
	Citation  string `yaml:"citation"`
	Threshold string `yaml:"threshold"`
	Expr      string `yaml:"expr"`
}

// Policy is the versioned rule set.
type Policy struct {
	RuleSetVersion string `yaml:"rule_set_version"`
	Rules          []Rule `yaml:"rules"`
}

// Agents tunes the explanation-side concurrency domain.
type Agents struct {
	Timeout          time.Duration `yaml:"timeout"`
	RetrievalTimeout time.Duration `yaml:"retrieval_timeout"`
	RetrievalK       int           `yaml:"retrieval_k"`
	MaxOutputBytes   int           `yaml:"max_output_bytes"`
}

// Audit selects and tunes the audit sink.
type Audit struct {
	Backend      string        `yaml:"backend"` // memory | postgres | kafka
	PostgresDSN  string        `yaml:"postgres_dsn"`
	KafkaBrokers []string      `yaml:"kafka_brokers"`
	KafkaTopic   string        `yaml:"kafka_topic"`
	QueueSize    int           `yaml:"queue_size"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// Redis configures the optional velocity tracker backend.
type Redis struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Scoring points at the ensemble and anomaly collaborators.
type Scoring struct {
	EnsembleURL string `yaml:"ensemble_url"`
	AnomalyURL  string `yaml:"anomaly_url"`
}

// Sanitize pins the allow-list schema version decisions are projected with.
type Sanitize struct {
	SchemaVersion string `yaml:"schema_version"`
}

// Config is the full configuration surface.
type Config struct {
	Server   Server   `yaml:"server"`
	Decision Decision `yaml:"decision"`
	Policy   Policy   `yaml:"policy"`
	Agents   Agents   `yaml:"agents"`
	Audit    Audit    `yaml:"audit"`
	Redis    Redis    `yaml:"redis"`
	Scoring  Scoring  `yaml:"scoring"`
	Sanitize Sanitize `yaml:"sanitize"`
}

// Default returns the documented baseline configuration. Rule thresholds
// follow RBI/NPCI-derived scrutiny tiers; fusion weights and score thresholds
// are the calibrated defaults for the bundled models.
func Default() Config {
	return Config{
		Server: Server{
			Addr:          ":8080",
			JWTSigningKey: "dev-secret-key-change-in-production",
		},
		Decision: Decision{
			Budget:             400 * time.Millisecond,
			SignalTimeout:      150 * time.Millisecond,
			EnsembleWeight:     0.6,
			AnomalyWeight:      0.4,
			HardThreshold:      0.85,
			ChallengeThreshold: 0.50,
		},
		Policy: Policy{
			RuleSetVersion: "v1",
			Rules:          defaultRules(),
		},
		Agents: Agents{
			Timeout:          2 * time.Second,
			RetrievalTimeout: 500 * time.Millisecond,
			RetrievalK:       3,
			MaxOutputBytes:   4096,
		},
		Audit: Audit{
			Backend:      "memory",
			KafkaTopic:   "fraudshield.audit",
			QueueSize:    1024,
			RetryBackoff: 250 * time.Millisecond,
		},
		Redis: Redis{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		},
		Sanitize: Sanitize{SchemaVersion: "v1"},
	}
}

func defaultRules() []Rule {
	return []Rule{
		{
			ID:        "new_beneficiary_cooldown",
			Priority:  10,
			Outcome:   "HARD_BLOCK",
			Reason:    "NEW_BENEFICIARY_HIGH_VELOCITY",
			Citation:  "RBI-NB-001",
			Threshold: "beneficiary younger than 24h and amount >= 5000 INR",
			Expr:      `txn.beneficiary_age_min < 1440 && txn.amount >= 5000.0`,
		},
		{
			ID:        "qr_scrutiny_tier2",
			Priority:  20,
			Outcome:   "HARD_BLOCK",
			Reason:    "QR_CHANNEL_TIER2_LIMIT",
			Citation:  "NPCI-QR-002",
			Threshold: "QR channel and amount >= 100000 INR",
			Expr:      `txn.channel == "QR" && txn.amount >= 100000.0`,
		},
		{
			ID:        "qr_scrutiny_tier1",
			Priority:  30,
			Outcome:   "SOFT_BLOCK",
			Reason:    "QR_CHANNEL_TIER1_LIMIT",
			Citation:  "NPCI-QR-001",
			Threshold: "QR channel and amount >= 10000 INR",
			Expr:      `txn.channel == "QR" && txn.amount >= 10000.0`,
		},
		{
			ID:        "velocity_limit",
			Priority:  40,
			Outcome:   "SOFT_BLOCK",
			Reason:    "VELOCITY_LIMIT_EXCEEDED",
			Citation:  "RBI-VEL-001",
			Threshold: "more than 20 transactions in 24h",
			Expr:      `txn.txn_velocity_24h > 20`,
		},
		{
			ID:        "failed_auth_burst",
			Priority:  50,
			Outcome:   "SOFT_BLOCK",
			Reason:    "REPEATED_AUTH_FAILURES",
			Citation:  "RBI-AUTH-003",
			Threshold: "3 or more failed authentications in 24h",
			Expr:      `txn.failed_auth_24h >= 3`,
		},
		{
			ID:        "night_high_value",
			Priority:  60,
			Outcome:   "SOFT_BLOCK",
			Reason:    "NIGHT_HIGH_VALUE",
			Citation:  "RBI-TMP-002",
			Threshold: "00:00-04:59 and amount >= 25000 INR",
			Expr:      `txn.is_night && txn.amount >= 25000.0`,
		},
	}
}

// Load reads a YAML file over the defaults, then applies environment
// overrides. A missing path yields defaults plus env.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv keeps deployment-sensitive values out of files.
func applyEnv(cfg *Config) {
	if v := os.Getenv("FRAUDSHIELD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("JWT_SIGNING_KEY"); v != "" {
		cfg.Server.JWTSigningKey = v
	}
	if v := os.Getenv("FRAUDSHIELD_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("FRAUDSHIELD_AUDIT_DSN"); v != "" {
		cfg.Audit.PostgresDSN = v
	}
	if v := os.Getenv("FRAUDSHIELD_ENSEMBLE_URL"); v != "" {
		cfg.Scoring.EnsembleURL = v
	}
	if v := os.Getenv("FRAUDSHIELD_ANOMALY_URL"); v != "" {
		cfg.Scoring.AnomalyURL = v
	}
}

// Validate rejects configurations that could not drive a safe decision run.
// Rule expressions are additionally compile-checked by the policy engine
// before a snapshot is swapped in.
func (c Config) Validate() error {
	d := c.Decision
	if d.Budget <= 0 {
		return fmt.Errorf("decision budget must be positive")
	}
	if d.SignalTimeout <= 0 || d.SignalTimeout >= d.Budget {
		return fmt.Errorf("signal timeout must be positive and below the total budget")
	}
	if sum := d.EnsembleWeight + d.AnomalyWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("fusion weights must sum to 1, got %.3f", sum)
	}
	if d.ChallengeThreshold <= 0 || d.HardThreshold <= d.ChallengeThreshold || d.HardThreshold > 1 {
		return fmt.Errorf("thresholds must satisfy 0 < challenge < hard <= 1")
	}
	if c.Policy.RuleSetVersion == "" {
		return fmt.Errorf("rule set version is required")
	}
	if len(c.Policy.Rules) == 0 {
		return fmt.Errorf("rule set must not be empty")
	}
	seen := make(map[string]bool, len(c.Policy.Rules))
	for _, r := range c.Policy.Rules {
		if r.ID == "" || r.Expr == "" {
			return fmt.Errorf("rule id and expr are required")
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
		switch r.Outcome {
		case "PASS", "SOFT_BLOCK", "HARD_BLOCK":
		default:
			return fmt.Errorf("rule %s: unknown outcome %q", r.ID, r.Outcome)
		}
	}
	if c.Sanitize.SchemaVersion == "" {
		return fmt.Errorf("sanitize schema version is required")
	}
	if c.Agents.Timeout <= 0 || c.Agents.RetrievalK <= 0 {
		return fmt.Errorf("agent timeout and retrieval k must be positive")
	}
	switch c.Audit.Backend {
	case "memory", "postgres", "kafka":
	default:
		return fmt.Errorf("unknown audit backend %q", c.Audit.Backend)
	}
	if c.Audit.Backend == "postgres" && c.Audit.PostgresDSN == "" {
		return fmt.Errorf("postgres audit backend requires a DSN")
	}
	if c.Audit.Backend == "kafka" && len(c.Audit.KafkaBrokers) == 0 {
		return fmt.Errorf("kafka audit backend requires brokers")
	}
	return nil
}
