package lazytext

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-lazytext/pkg/lazytext/iox"
)

// Config contains all configuration options for the lazytext engine
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `yaml:"log_level"`
	// ScatterWorkers bounds the default executor used by concurrent sequences.
	ScatterWorkers int `yaml:"scatter_workers"`
	// MaxPresize caps how many bytes a materializing sequence reserves up
	// front from its minimum length.
	MaxPresize int `yaml:"max_presize"`
	// ErrorOutcome is the policy applied to stream holders created by an
	// Engine when a read fails (escalate, truncate, discard, message, trace).
	ErrorOutcome string `yaml:"error_outcome"`
	// PatternCacheSize is the number of tokenized compose patterns an
	// Engine keeps. 0 disables the cache.
	PatternCacheSize int `yaml:"pattern_cache_size"`
	// PatternCacheTTL is how long a cached pattern stays valid. 0 means no
	// expiration.
	PatternCacheTTL time.Duration `yaml:"pattern_cache_ttl"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func loadGlobalConfig() {
	configOnce.Do(func() {
		cfg := ConfigFromEnvironment()
		globalConfigMutex.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMutex.Unlock()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		ScatterWorkers:   runtime.GOMAXPROCS(0),
		MaxPresize:       64 << 20,
		ErrorOutcome:     iox.Escalate.String(),
		PatternCacheSize: 128,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	// LAZYTEXT_LOG_LEVEL
	if val := os.Getenv("LAZYTEXT_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	// LAZYTEXT_SCATTER_WORKERS
	if val := os.Getenv("LAZYTEXT_SCATTER_WORKERS"); val != "" {
		if workers, err := strconv.Atoi(val); err == nil {
			config.ScatterWorkers = workers
		}
	}

	// LAZYTEXT_MAX_PRESIZE
	if val := os.Getenv("LAZYTEXT_MAX_PRESIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.MaxPresize = size
		}
	}

	// LAZYTEXT_ERROR_OUTCOME
	if val := os.Getenv("LAZYTEXT_ERROR_OUTCOME"); val != "" {
		config.ErrorOutcome = val
	}

	// LAZYTEXT_PATTERN_CACHE_SIZE
	if val := os.Getenv("LAZYTEXT_PATTERN_CACHE_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.PatternCacheSize = size
		}
	}

	// LAZYTEXT_PATTERN_CACHE_TTL
	if val := os.Getenv("LAZYTEXT_PATTERN_CACHE_TTL"); val != "" {
		if ttl, err := time.ParseDuration(val); err == nil {
			config.PatternCacheTTL = ttl
		}
	}

	return config
}

// LoadConfigFile reads a YAML configuration file. Keys absent from the file
// keep their default values. The result is validated before it is returned.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return config, nil
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	if config.ScatterWorkers == 0 {
		config.ScatterWorkers = defaults.ScatterWorkers
	}

	if config.MaxPresize == 0 {
		config.MaxPresize = defaults.MaxPresize
	}

	if config.ErrorOutcome == "" {
		config.ErrorOutcome = defaults.ErrorOutcome
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.ScatterWorkers <= 0 {
		return errors.New("scatter workers must be positive")
	}

	if c.MaxPresize < 0 {
		return errors.New("max presize cannot be negative")
	}

	if _, err := iox.ParseOutcome(c.ErrorOutcome); err != nil {
		return err
	}

	if c.PatternCacheSize < 0 {
		return errors.New("pattern cache size cannot be negative")
	}

	if c.PatternCacheTTL < 0 {
		return errors.New("pattern cache TTL cannot be negative")
	}

	return nil
}

// Policy returns the error policy named by ErrorOutcome, falling back to
// escalation for unknown names.
func (c *Config) Policy() iox.ErrorPolicy {
	outcome, err := iox.ParseOutcome(c.ErrorOutcome)
	if err != nil {
		return iox.Always(iox.Escalate)
	}
	return iox.Always(outcome)
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	loadGlobalConfig()

	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	loadGlobalConfig()

	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Update logger based on new config (outside the lock to avoid deadlock)
	UpdateLoggerFromConfig()
}
