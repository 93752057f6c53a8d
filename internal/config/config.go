package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/facegate/internal/facematch"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Access   AccessConfig   `yaml:"access"`
	Gallery  GalleryConfig  `yaml:"gallery"`
	Actuator ActuatorConfig `yaml:"actuator"`
	Database DatabaseConfig `yaml:"database"`
	Web      WebConfig      `yaml:"web"`
}

// AccessConfig holds the decision threshold and the lock timing.
type AccessConfig struct {
	Threshold           float64       `yaml:"threshold"`
	Scorer              string        `yaml:"scorer"`               // histogram or dhash
	RecognitionInterval time.Duration `yaml:"recognition_interval"` // minimum spacing between evaluated faces at the ingress
	CooldownPeriod      time.Duration `yaml:"cooldown_period"`
	UnlockDuration      time.Duration `yaml:"unlock_duration"`
	RelockTick          time.Duration `yaml:"relock_tick"` // how often serve runs a no-face cycle
}

type GalleryConfig struct {
	Dir string `yaml:"dir"`
}

// ActuatorConfig describes the serial lock channel.
// An empty Port means no actuator is attached (decision-and-audit-only mode).
type ActuatorConfig struct {
	Port    string        `yaml:"port"`
	Baud    int           `yaml:"baud"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
	Settle  time.Duration `yaml:"settle"` // wait after opening, the board resets on connect
}

type DatabaseConfig struct {
	URL          string `yaml:"-"` // PostgreSQL connection URL, audit persistence is disabled when empty
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"` // browser origins besides loopback
	APIToken       string   `yaml:"-"`               // bearer token required on the face ingress, none when empty
}

// Addr returns the listen address.
func (c *WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float64.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable in time.ParseDuration syntax.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma-separated environment variable, dropping empty items.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Defaults returns the configuration embedded in the binary, without environment overrides.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load returns the embedded defaults overlaid with environment variables.
func Load() *Config {
	cfg := Defaults()

	cfg.Access.Threshold = envFloat("MATCH_THRESHOLD", cfg.Access.Threshold)
	cfg.Access.Scorer = envString("MATCH_SCORER", cfg.Access.Scorer)
	cfg.Access.RecognitionInterval = envDuration("RECOGNITION_INTERVAL", cfg.Access.RecognitionInterval)
	cfg.Access.CooldownPeriod = envDuration("COOLDOWN_PERIOD", cfg.Access.CooldownPeriod)
	cfg.Access.UnlockDuration = envDuration("UNLOCK_DURATION", cfg.Access.UnlockDuration)
	cfg.Access.RelockTick = envDuration("RELOCK_TICK", cfg.Access.RelockTick)

	cfg.Gallery.Dir = envString("GALLERY_DIR", cfg.Gallery.Dir)

	cfg.Actuator.Port = envString("ACTUATOR_PORT", cfg.Actuator.Port)
	cfg.Actuator.Baud = envInt("ACTUATOR_BAUD", cfg.Actuator.Baud)
	cfg.Actuator.Token = envString("ACTUATOR_TOKEN", cfg.Actuator.Token)
	cfg.Actuator.Timeout = envDuration("ACTUATOR_TIMEOUT", cfg.Actuator.Timeout)
	cfg.Actuator.Settle = envDuration("ACTUATOR_SETTLE", cfg.Actuator.Settle)

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)

	cfg.Web.Host = envString("WEB_HOST", cfg.Web.Host)
	cfg.Web.Port = envInt("WEB_PORT", cfg.Web.Port)
	cfg.Web.AllowedOrigins = envList("WEB_ALLOWED_ORIGINS", cfg.Web.AllowedOrigins)
	cfg.Web.APIToken = os.Getenv("WEB_API_TOKEN")

	return cfg
}

// Validate reports the first setting that would make the controller misbehave.
func (c *Config) Validate() error {
	if c.Access.Threshold < -1 || c.Access.Threshold > 1 {
		return fmt.Errorf("match threshold must be between -1.0 and 1.0, got %g", c.Access.Threshold)
	}
	if _, err := facematch.ScorerByName(c.Access.Scorer); err != nil {
		return err
	}
	if c.Access.CooldownPeriod <= 0 {
		return fmt.Errorf("cooldown period must be positive, got %s", c.Access.CooldownPeriod)
	}
	if c.Access.UnlockDuration <= 0 {
		return fmt.Errorf("unlock duration must be positive, got %s", c.Access.UnlockDuration)
	}
	if c.Access.RecognitionInterval < 0 {
		return fmt.Errorf("recognition interval must not be negative, got %s", c.Access.RecognitionInterval)
	}
	if c.Access.RelockTick <= 0 {
		return fmt.Errorf("relock tick must be positive, got %s", c.Access.RelockTick)
	}
	if c.Gallery.Dir == "" {
		return errors.New("gallery directory is required")
	}
	if c.Actuator.Baud <= 0 {
		return fmt.Errorf("actuator baud rate must be positive, got %d", c.Actuator.Baud)
	}
	if len(c.Actuator.Token) != 1 {
		return fmt.Errorf("actuator token must be exactly one byte, got %q", c.Actuator.Token)
	}
	if c.Actuator.Timeout <= 0 {
		return fmt.Errorf("actuator timeout must be positive, got %s", c.Actuator.Timeout)
	}
	return nil
}
