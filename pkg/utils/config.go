package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the viewer configuration
type Config struct {
	Trajectory TrajectoryConfig `yaml:"trajectory" mapstructure:"trajectory"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
}

// TrajectoryConfig locates the directory written by the simulator
type TrajectoryConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// RetryConfig controls how long a tolerant fetch waits between polls.
// Durations use time.ParseDuration syntax.
type RetryConfig struct {
	Policy      string `yaml:"policy" mapstructure:"policy"`
	Interval    string `yaml:"interval" mapstructure:"interval"`
	MaxInterval string `yaml:"max_interval" mapstructure:"max_interval"`
	LogEvery    int    `yaml:"log_every" mapstructure:"log_every"`
}

// LogConfig selects the log level and output format
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// OutputConfig holds where exports are written
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// Retry policy names
const (
	PolicyNone        = "none"
	PolicyFixed       = "fixed"
	PolicyLinear      = "linear"
	PolicyExponential = "exponential"
	PolicyWatch       = "watch"
)

const (
	configName = "config"
	envPrefix  = "TRAJVIEW"
)

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Trajectory: TrajectoryConfig{
			Dir: filepath.Join(".", "tmp", "trajectory"),
		},
		Retry: RetryConfig{
			Policy:      PolicyExponential,
			Interval:    "10ms",
			MaxInterval: "1s",
			LogEvery:    50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			Dir: ".",
		},
	}
}

// HomeDir returns the directory holding the config file
func HomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".trajview"
	}
	return filepath.Join(homeDir, ".trajview")
}

// LoadConfig reads configuration from cfgFile, or from config.yaml in the
// home directory or working directory when cfgFile is empty. A missing
// config file is not an error; defaults and TRAJVIEW_* environment
// variables apply.
func LoadConfig(cfgFile string) (*Config, error) {
	setDefaults(DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(HomeDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(def *Config) {
	viper.SetDefault("trajectory.dir", def.Trajectory.Dir)
	viper.SetDefault("retry.policy", def.Retry.Policy)
	viper.SetDefault("retry.interval", def.Retry.Interval)
	viper.SetDefault("retry.max_interval", def.Retry.MaxInterval)
	viper.SetDefault("retry.log_every", def.Retry.LogEvery)
	viper.SetDefault("log.level", def.Log.Level)
	viper.SetDefault("log.format", def.Log.Format)
	viper.SetDefault("output.dir", def.Output.Dir)
}

// SaveConfig writes configuration as YAML to path, creating its directory
func SaveConfig(config *Config, path string) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Trajectory.Dir == "" {
		return fmt.Errorf("trajectory directory cannot be empty")
	}

	switch config.Retry.Policy {
	case PolicyNone, PolicyFixed, PolicyLinear, PolicyExponential, PolicyWatch:
	default:
		return fmt.Errorf("invalid retry policy: %s", config.Retry.Policy)
	}

	interval, err := config.Retry.IntervalDuration()
	if err != nil {
		return err
	}
	maxInterval, err := config.Retry.MaxIntervalDuration()
	if err != nil {
		return err
	}
	if maxInterval > 0 && interval > maxInterval {
		return fmt.Errorf("retry interval %s exceeds max interval %s", interval, maxInterval)
	}

	if config.Retry.LogEvery < 0 {
		return fmt.Errorf("retry log_every cannot be negative")
	}

	if _, err := ParseLevel(config.Log.Level); err != nil {
		return err
	}
	switch config.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", config.Log.Format)
	}

	return nil
}

// IntervalDuration parses the base retry interval
func (r RetryConfig) IntervalDuration() (time.Duration, error) {
	return parseDuration("retry interval", r.Interval)
}

// MaxIntervalDuration parses the retry interval cap; empty leaves the policy default
func (r RetryConfig) MaxIntervalDuration() (time.Duration, error) {
	return parseDuration("retry max interval", r.MaxInterval)
}

func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s cannot be negative", name)
	}
	return d, nil
}
