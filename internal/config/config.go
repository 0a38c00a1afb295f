package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/gateway"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "FLUXO_"

var validate = validator.New()

// Config is the host configuration for the fluxo binary.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Flows   FlowsConfig   `yaml:"flows"`
	Redis   RedisConfig   `yaml:"redis"`
	Archive ArchiveConfig `yaml:"archive"`
	Gateway GatewayConfig `yaml:"gateway"`
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings. RateLimitRPS caps requests
// under /runs; 0 disables the limiter. MaxInputSize is the byte limit for a
// user reply on every frontend, the terminal simulator included.
type ServerConfig struct {
	Port           int     `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" validate:"min=0"`
	RateLimitBurst int     `yaml:"rate_limit_burst" default:"20" validate:"min=1"`
	MaxInputSize   int     `yaml:"max_input_size" default:"4096" validate:"min=1"`
}

type FlowsConfig struct {
	Dir string `yaml:"dir" default:"flows"`
}

// RedisConfig enables the Redis transcript store and locker when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr" validate:"omitempty,hostname_port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" default:"0" validate:"min=0"`
	Prefix   string        `yaml:"prefix" default:"fluxo:"`
	TTL      time.Duration `yaml:"ttl" default:"168h"`
}

// ArchiveConfig controls how finished transcripts are stored.
// Dir selects the file store when Redis is not configured; empty keeps
// transcripts in memory. Masking is on unless KeepPII is set.
type ArchiveConfig struct {
	Dir           string   `yaml:"dir"`
	KeepPII       bool     `yaml:"keep_pii"`
	PIIPatterns   []string `yaml:"pii_patterns"`
	EncryptionKey string   `yaml:"encryption_key" validate:"omitempty,len=64,hexadecimal"`
}

type GatewayConfig struct {
	Mode        string        `yaml:"mode" default:"mock" validate:"oneof=mock real"`
	Timeout     time.Duration `yaml:"timeout" default:"10s"`
	MaxRetries  int           `yaml:"max_retries" default:"2" validate:"min=0,max=10"`
	RetryWaitMs int           `yaml:"retry_wait_ms" default:"500" validate:"min=0"`
	Vista       VistaConfig   `yaml:"vista"`
}

type VistaConfig struct {
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	APIKey  string `yaml:"api_key"`
}

type EngineConfig struct {
	EffectFailurePolicy   string        `yaml:"effect_failure_policy" default:"continue" validate:"oneof=continue halt"`
	UnmatchedBranchPolicy string        `yaml:"unmatched_branch_policy" default:"fallback" validate:"oneof=fallback stay"`
	StepDelay             time.Duration `yaml:"step_delay" default:"0s"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// Default returns the configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load reads path (optional), then applies defaults, environment overrides and validation.
// A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// defaults.Set only fills zero fields, so file values win.
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags and formats every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("config validation failed: %w", err)
	}
	var msgs []string
	for _, fieldErr := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed validation (rule: %s)", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("config validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// RunConfig returns the engine policies as a per-run default.
func (c *Config) RunConfig() domain.RunConfig {
	return domain.RunConfig{
		UseRealIntegrations:   c.Gateway.Mode == string(gateway.ModeReal),
		EffectFailurePolicy:   domain.EffectFailurePolicy(c.Engine.EffectFailurePolicy),
		UnmatchedBranchPolicy: domain.UnmatchedBranchPolicy(c.Engine.UnmatchedBranchPolicy),
	}
}

// HTTPConfig maps the gateway section onto the resty client settings.
func (c *Config) HTTPConfig() gateway.HTTPConfig {
	return gateway.HTTPConfig{
		Timeout:      c.Gateway.Timeout,
		MaxRetries:   c.Gateway.MaxRetries,
		RetryWait:    time.Duration(c.Gateway.RetryWaitMs) * time.Millisecond,
		VistaBaseURL: c.Gateway.Vista.BaseURL,
		VistaAPIKey:  c.Gateway.Vista.APIKey,
	}
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides fields from FLUXO_* variables, e.g. FLUXO_REDIS_ADDR.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	num("SERVER_PORT", &cfg.Server.Port)
	num("MAX_INPUT_SIZE", &cfg.Server.MaxInputSize)
	str("FLOWS_DIR", &cfg.Flows.Dir)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	num("REDIS_DB", &cfg.Redis.DB)
	str("REDIS_PREFIX", &cfg.Redis.Prefix)
	dur("REDIS_TTL", &cfg.Redis.TTL)
	str("ARCHIVE_DIR", &cfg.Archive.Dir)
	str("ARCHIVE_ENCRYPTION_KEY", &cfg.Archive.EncryptionKey)
	str("GATEWAY_MODE", &cfg.Gateway.Mode)
	dur("GATEWAY_TIMEOUT", &cfg.Gateway.Timeout)
	num("GATEWAY_MAX_RETRIES", &cfg.Gateway.MaxRetries)
	str("VISTA_BASE_URL", &cfg.Gateway.Vista.BaseURL)
	str("VISTA_API_KEY", &cfg.Gateway.Vista.APIKey)
	str("EFFECT_FAILURE_POLICY", &cfg.Engine.EffectFailurePolicy)
	str("UNMATCHED_BRANCH_POLICY", &cfg.Engine.UnmatchedBranchPolicy)
	dur("STEP_DELAY", &cfg.Engine.StepDelay)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(errs...)
}
