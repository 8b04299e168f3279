package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gotendency/domain/sample"
	"gotendency/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Ops      OpsConfig
	Sampling SamplingConfig
	Session  SessionConfig
	Render   RenderConfig
	UI       UIConfig
	Log      LogConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// OpsConfig holds the profiling and metrics listener settings
type OpsConfig struct {
	Port    string
	Enabled bool
}

// SamplingConfig holds sample generation settings
type SamplingConfig struct {
	Seed            uint64 // 0 draws unpredictable samples; otherwise the nth session of a run replays
	ReshuffleAlways bool
	DefaultN        int
	DefaultBins     int
}

// SessionConfig holds per-browser session settings
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	MaxSessions   int
	CookieName    string
}

// RenderConfig holds plot rendering settings
type RenderConfig struct {
	Width         int
	PanelHeight   int
	MaxConcurrent int
}

// UIConfig holds page presentation settings
type UIConfig struct {
	Variant sample.Variant
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:  *loadServerConfig(),
		Ops:     *loadOpsConfig(),
		Session: *loadSessionConfig(),
		Render:  *loadRenderConfig(),
		Log:     *loadLogConfig(),
	}

	samplingConfig, err := loadSamplingConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sampling configuration")
	}
	config.Sampling = *samplingConfig

	uiConfig, err := loadUIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load UI configuration")
	}
	config.UI = *uiConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// DefaultParams returns the initial control values for new sessions
func (c *Config) DefaultParams() sample.Params {
	p := sample.DefaultParams()
	p.SampleSize = c.Sampling.DefaultN
	p.Bins = c.Sampling.DefaultBins
	return p
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadOpsConfig() *OpsConfig {
	return &OpsConfig{
		Port:    getEnvOrDefault("OPS_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("OPS_ENABLED", true),
	}
}

func loadSamplingConfig() (*SamplingConfig, error) {
	seed := uint64(0)
	if value := os.Getenv("SAMPLE_SEED"); value != "" {
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("SAMPLE_SEED must be an unsigned integer, got %q", value))
		}
		seed = parsed
	}

	defaults := sample.DefaultParams()
	return &SamplingConfig{
		Seed:            seed,
		ReshuffleAlways: getEnvBoolOrDefault("RESHUFFLE_ALWAYS", true),
		DefaultN:        getEnvIntOrDefault("DEFAULT_SAMPLE_SIZE", defaults.SampleSize),
		DefaultBins:     getEnvIntOrDefault("DEFAULT_BINS", defaults.Bins),
	}, nil
}

func loadSessionConfig() *SessionConfig {
	return &SessionConfig{
		TTL:           getEnvDurationOrDefault("SESSION_TTL", 30*time.Minute),
		SweepInterval: getEnvDurationOrDefault("SESSION_SWEEP_INTERVAL", time.Minute),
		MaxSessions:   getEnvIntOrDefault("MAX_SESSIONS", 1000),
		CookieName:    getEnvOrDefault("SESSION_COOKIE", "ct_session"),
	}
}

func loadRenderConfig() *RenderConfig {
	return &RenderConfig{
		Width:         getEnvIntOrDefault("PLOT_WIDTH", 900),
		PanelHeight:   getEnvIntOrDefault("PLOT_PANEL_HEIGHT", 280),
		MaxConcurrent: getEnvIntOrDefault("RENDER_CONCURRENCY", 4),
	}
}

func loadUIConfig() (*UIConfig, error) {
	variant, err := sample.ParseVariant(os.Getenv("UI_VARIANT"))
	if err != nil {
		return nil, err
	}
	return &UIConfig{Variant: variant}, nil
}

func loadLogConfig() *LogConfig {
	return &LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "logfmt"),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Ops.Enabled && config.Ops.Port == config.Server.Port {
		return errors.ConfigInvalid("ops port must differ from server port")
	}
	if !sample.SampleSizeRange.Contains(config.Sampling.DefaultN) {
		return errors.ConfigInvalid(fmt.Sprintf("DEFAULT_SAMPLE_SIZE must be within [%d, %d]", sample.SampleSizeRange.Min, sample.SampleSizeRange.Max))
	}
	if !sample.BinsRange.Contains(config.Sampling.DefaultBins) {
		return errors.ConfigInvalid(fmt.Sprintf("DEFAULT_BINS must be within [%d, %d]", sample.BinsRange.Min, sample.BinsRange.Max))
	}
	if config.Session.TTL <= 0 || config.Session.SweepInterval <= 0 {
		return errors.ConfigInvalid("session TTL and sweep interval must be positive")
	}
	if config.Session.MaxSessions <= 0 {
		return errors.ConfigInvalid("MAX_SESSIONS must be positive")
	}
	if config.Session.CookieName == "" {
		return errors.ConfigInvalid("session cookie name is required")
	}
	if config.Render.Width <= 0 || config.Render.PanelHeight <= 0 || config.Render.MaxConcurrent <= 0 {
		return errors.ConfigInvalid("plot width, panel height and render concurrency must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
