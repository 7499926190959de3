package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	dErrors "steward/pkg/domain-errors"
)

// Server captures process level configuration read from the environment.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	LogLevel      string
	PolicyFile    string
	Redis         RedisConfig
	Kafka         KafkaConfig
}

// RedisConfig configures the optional risk score cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RiskCacheTTL time.Duration
}

// KafkaConfig configures the workflow event relay. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers       []string
	WorkflowTopic string
	RelayInterval time.Duration
	RelayBatch    int
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:          envOr("STEWARD_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("JWT_ISSUER", "portal-idp"),
		JWTAudience:   envOr("JWT_AUDIENCE", "steward"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		PolicyFile:    os.Getenv("POLICY_FILE"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			RiskCacheTTL: envDuration("RISK_CACHE_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       brokers,
			WorkflowTopic: envOr("KAFKA_WORKFLOW_TOPIC", "steward.study.workflow"),
			RelayInterval: envDuration("OUTBOX_RELAY_INTERVAL", 2*time.Second),
			RelayBatch:    100,
		},
	}
}

// ApprovedEditPolicy decides what editing an approved study's content does.
type ApprovedEditPolicy string

const (
	// ApprovedEditRevert sends the study back to Incomplete for re-review.
	ApprovedEditRevert ApprovedEditPolicy = "revert"
	// ApprovedEditRetain keeps the study Approved.
	ApprovedEditRetain ApprovedEditPolicy = "retain"
)

// Policy holds the governance rules operators can tune.
type Policy struct {
	Training TrainingPolicy `yaml:"training"`
	Workflow WorkflowPolicy `yaml:"workflow"`
	Profile  ProfilePolicy  `yaml:"profile"`
}

type TrainingPolicy struct {
	ValidityPeriodDays int      `yaml:"validity_period_days"`
	RequiredKinds      []string `yaml:"required_kinds"`
	// Urgency thresholds, as remaining days before expiry.
	LowDays    int `yaml:"low_days"`
	MediumDays int `yaml:"medium_days"`
	HighDays   int `yaml:"high_days"`
}

type WorkflowPolicy struct {
	ApprovedEdit           ApprovedEditPolicy `yaml:"approved_edit"`
	ClearFeedbackOnApprove bool               `yaml:"clear_feedback_on_approve"`
}

type ProfilePolicy struct {
	RequireFullName bool `yaml:"require_full_name"`
}

// DefaultPolicy returns the policy used when no file overrides it.
func DefaultPolicy() Policy {
	return Policy{
		Training: TrainingPolicy{
			ValidityPeriodDays: 365,
			RequiredKinds:      []string{"nhsd"},
			LowDays:            30,
			MediumDays:         14,
			HighDays:           7,
		},
		Workflow: WorkflowPolicy{
			ApprovedEdit:           ApprovedEditRevert,
			ClearFeedbackOnApprove: true,
		},
		Profile: ProfilePolicy{
			RequireFullName: true,
		},
	}
}

// Validate rejects policies that would make the rules meaningless.
func (p Policy) Validate() error {
	t := p.Training
	if t.ValidityPeriodDays < 0 {
		return dErrors.New(dErrors.CodeConfiguration, "training.validity_period_days must not be negative")
	}
	if len(t.RequiredKinds) == 0 {
		return dErrors.New(dErrors.CodeConfiguration, "training.required_kinds must not be empty")
	}
	if !(0 < t.HighDays && t.HighDays < t.MediumDays && t.MediumDays < t.LowDays) {
		return dErrors.New(dErrors.CodeConfiguration, "training urgency thresholds must satisfy 0 < high < medium < low")
	}
	switch p.Workflow.ApprovedEdit {
	case ApprovedEditRevert, ApprovedEditRetain:
	default:
		return dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("workflow.approved_edit %q is not revert or retain", p.Workflow.ApprovedEdit))
	}
	return nil
}

// LoadPolicy overlays the YAML file at path on DefaultPolicy and validates the
// result. An empty path yields the defaults.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Policy{}, fmt.Errorf("read policy file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &policy); err != nil {
			return Policy{}, dErrors.Wrap(err, dErrors.CodeConfiguration, "decode policy file "+path)
		}
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}
