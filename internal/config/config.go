package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jgoulah/meterflow/pkg/models"
)

// Defaults applied when fields are absent from the config file. The
// timeline bounds match the reference deployment.
const (
	DefaultTimelineStart = "01/01/2025 00:00"
	DefaultTimelineEnd   = "31/08/2025 23:45"
	DefaultStepMinutes   = 15
	DefaultTolerance     = 0.01
)

// Tolerance must stay within this range when set explicitly.
const (
	MinTolerance = 0.001
	MaxTolerance = 0.10
)

// Config holds the application configuration
type Config struct {
	Timeline   TimelineConfig   `yaml:"timeline,omitempty"`
	Correction CorrectionConfig `yaml:"correction,omitempty"`
	MQTT       MQTTConfig       `yaml:"mqtt,omitempty"`
}

// TimelineConfig defines the canonical time grid all meter outputs are
// aligned to. Start and End use the input timestamp format
// ("DD/MM/YYYY HH:MM") and are inclusive bounds.
type TimelineConfig struct {
	Start       string `yaml:"start,omitempty"`
	End         string `yaml:"end,omitempty"`
	StepMinutes int    `yaml:"step_minutes,omitempty"`
}

// CorrectionConfig controls the multiple-pattern anomaly corrector.
type CorrectionConfig struct {
	Enabled   *bool   `yaml:"enabled,omitempty"`   // default true
	Tolerance float64 `yaml:"tolerance,omitempty"` // relative, default 0.01
}

// MQTTConfig holds broker settings for the publish command
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker,omitempty"`       // host:port
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // default "meterflow"
	ClientID    string `yaml:"client_id,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetStart returns the timeline start, falling back to the default
func (t TimelineConfig) GetStart() (time.Time, error) {
	s := t.Start
	if s == "" {
		s = DefaultTimelineStart
	}
	ts, err := models.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timeline start %q: %w", s, err)
	}
	return ts, nil
}

// GetEnd returns the timeline end, falling back to the default
func (t TimelineConfig) GetEnd() (time.Time, error) {
	s := t.End
	if s == "" {
		s = DefaultTimelineEnd
	}
	ts, err := models.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timeline end %q: %w", s, err)
	}
	return ts, nil
}

// GetStep returns the timeline step with a default of 15 minutes.
// A negative value is passed through so Validate can reject it.
func (t TimelineConfig) GetStep() time.Duration {
	if t.StepMinutes == 0 {
		return DefaultStepMinutes * time.Minute
	}
	return time.Duration(t.StepMinutes) * time.Minute
}

// GetEnabled reports whether anomaly correction is on (default true)
func (c CorrectionConfig) GetEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// GetTolerance returns the correction tolerance with a default of 0.01
func (c CorrectionConfig) GetTolerance() float64 {
	if c.Tolerance == 0 {
		return DefaultTolerance
	}
	return c.Tolerance
}

// GetTopicPrefix returns the MQTT topic prefix with a default
func (m MQTTConfig) GetTopicPrefix() string {
	if m.TopicPrefix == "" {
		return "meterflow"
	}
	return m.TopicPrefix
}

// GetClientID returns the MQTT client id with a default
func (m MQTTConfig) GetClientID() string {
	if m.ClientID == "" {
		return "meterflow"
	}
	return m.ClientID
}

// Validate checks the configuration-level invariants that must hold
// before any meter is processed. These are the only fatal errors in a
// run; everything downstream is per-meter and isolated.
func (c *Config) Validate() error {
	start, err := c.Timeline.GetStart()
	if err != nil {
		return err
	}
	end, err := c.Timeline.GetEnd()
	if err != nil {
		return err
	}
	if start.After(end) {
		return fmt.Errorf("timeline start %s is after end %s",
			models.FormatTimestamp(start), models.FormatTimestamp(end))
	}
	if c.Timeline.GetStep() <= 0 {
		return fmt.Errorf("timeline step must be positive, got %d minutes", c.Timeline.StepMinutes)
	}

	tol := c.Correction.GetTolerance()
	if tol < MinTolerance || tol > MaxTolerance {
		return fmt.Errorf("correction tolerance %g out of range [%g, %g]", tol, MinTolerance, MaxTolerance)
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("MQTT broker address is required when enabled")
	}

	return nil
}
