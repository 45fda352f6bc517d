// Package config loads and validates pfp's runtime configuration, layered
// the way the teacher's pkg/config package layers a YAML file, PFP_-
// prefixed environment variables, and CLI flag overrides through viper.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidWindow     = errors.New("w must be positive")
	ErrInvalidModulus    = errors.New("p must be positive")
	ErrInvalidWorkers    = errors.New("workers must be positive")
	ErrInvalidBufferSize = errors.New("buffer_size must be positive")
	ErrInvalidMaxSamples = errors.New("max_samples must be non-negative")
)

// Default configuration values (spec.md §6's "default 10-20" / "default
// 75-100" ranges, pinned to one concrete default each).
const (
	defaultWindow           = 10
	defaultModulus          = 100
	defaultBufferSize       = 1 << 20 // 1 MiB per-worker spill buffer
	defaultMaxSamples       = 0       // 0 = unbounded
	defaultSpillCompression = false
)

// Config is pfp's top-level configuration struct, a single flat set of
// fields. Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Window             int    `mapstructure:"w"`
	Modulus            int    `mapstructure:"p"`
	UseAcceleration    bool   `mapstructure:"use_acceleration"`
	ComputeOccurrences bool   `mapstructure:"compute_occurrences"`
	ReportLengths      bool   `mapstructure:"report_lengths"`
	ComputeLifting     bool   `mapstructure:"compute_lifting"`
	CompressDictionary bool   `mapstructure:"compress_dictionary"`
	MaxSamples         int    `mapstructure:"max_samples"`
	SampleAllowList    string `mapstructure:"sample_allow_list"`

	Workers          int  `mapstructure:"workers"`
	BufferSize       int  `mapstructure:"buffer_size"`
	SpillCompression bool `mapstructure:"spill_compression"`

	OutputPrefix string `mapstructure:"output_prefix"`
}

// Load reads configuration from configPath (if non-empty), environment
// variables under the PFP_ prefix, and flags (if non-nil), merged in
// that precedence order (flags win, then env, then file, then defaults),
// matching pkg/config.LoadConfig's viper wiring.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("pfp")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("/etc/pfp")
	}

	viperCfg.SetEnvPrefix("PFP")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if flags != nil {
		if err := viperCfg.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if err := viperCfg.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("w", defaultWindow)
	viperCfg.SetDefault("p", defaultModulus)
	viperCfg.SetDefault("use_acceleration", true)
	viperCfg.SetDefault("compute_occurrences", false)
	viperCfg.SetDefault("report_lengths", false)
	viperCfg.SetDefault("compute_lifting", false)
	viperCfg.SetDefault("compress_dictionary", false)
	viperCfg.SetDefault("max_samples", defaultMaxSamples)

	viperCfg.SetDefault("workers", runtime.NumCPU())
	viperCfg.SetDefault("buffer_size", defaultBufferSize)
	viperCfg.SetDefault("spill_compression", defaultSpillCompression)

	viperCfg.SetDefault("output_prefix", "pfp_out")
}

// Validate checks Config's invariants and returns the first violation
// found.
func (c *Config) Validate() error {
	if c.Window <= 0 {
		return ErrInvalidWindow
	}

	if c.Modulus <= 0 {
		return ErrInvalidModulus
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.BufferSize <= 0 {
		return ErrInvalidBufferSize
	}

	if c.MaxSamples < 0 {
		return ErrInvalidMaxSamples
	}

	return nil
}
