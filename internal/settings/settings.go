// Package settings resolves the CLI settings from flags, WARREN_* environment
// variables and defaults, in that order of precedence.
package settings

import (
	"fmt"
	"strings"

	"github.com/dyluth/warren/internal/instance"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by warren.
const EnvPrefix = "WARREN"

// Settings holds the options shared by every command.
type Settings struct {
	RedisURL string `mapstructure:"redis_url"`
	Instance string `mapstructure:"instance"`
	Verbose  bool   `mapstructure:"verbose"`
}

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	return &Settings{
		RedisURL: "redis://localhost:6379",
		Instance: "default",
	}
}

// flag name -> settings key
var flagKeys = map[string]string{
	"redis-url": "redis_url",
	"name":      "instance",
	"verbose":   "verbose",
}

// New returns a viper instance with defaults and environment lookup configured.
func New() *viper.Viper {
	v := viper.New()
	defaults := Default()
	v.SetDefault("redis_url", defaults.RedisURL)
	v.SetDefault("instance", defaults.Instance)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// RegisterFlags defines the global flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	defaults := Default()
	fs.String("redis-url", defaults.RedisURL, "Redis URL used to exchange snapshots (env WARREN_REDIS_URL)")
	fs.StringP("name", "n", defaults.Instance, "Instance name namespacing every Redis key (env WARREN_INSTANCE)")
	fs.Bool("verbose", defaults.Verbose, "Log blackboard events to stderr (env WARREN_VERBOSE)")
}

// BindFlags makes explicitly set flags take precedence over the environment.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for flagName, key := range flagKeys {
		flag := fs.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", flagName, err)
		}
	}
	return nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the settings can be used to reach Redis.
func (s *Settings) Validate() error {
	if err := instance.ValidateName(s.Instance); err != nil {
		return err
	}
	if _, err := s.RedisOptions(); err != nil {
		return err
	}
	return nil
}

// RedisOptions parses RedisURL.
func (s *Settings) RedisOptions() (*redis.Options, error) {
	opts, err := redis.ParseURL(s.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url %q: %w", s.RedisURL, err)
	}
	return opts, nil
}
