// Package config loads the facade's runtime configuration: the bind
// address and the failure-detection tunables (TTL and quorum) consumed by
// get_failures. None of this is read by the broker core itself — per the
// core's design, configuration is a facade concern.
//
// Loading follows the same two-layer precedence the project's original
// broker binary used: an optional config file, then environment variables
// prefixed MEMBROKER_ override whatever the file set.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "MEMBROKER"

// Config holds every setting the facade needs at startup.
type Config struct {
	// Address is the HTTP bind endpoint, e.g. "127.0.0.1:7799".
	Address string

	// FailureTTL is how long a failure report stays valid before
	// get_failures purges it.
	FailureTTL time.Duration

	// FailureQuorum is the minimum distinct-reporter count required before
	// get_failures considers a proxy failed.
	FailureQuorum int

	// WatchdogEnabled turns on the facade-side health watchdog (see
	// internal/facade). Disabled by default: the broker's Non-goals
	// exclude automatic rebalancing triggers, and an operator who wants
	// failure detection driven some other way shouldn't get a second,
	// competing source of add_failure calls for free.
	WatchdogEnabled bool

	// WatchdogInterval is how often the watchdog probes registered
	// proxies when enabled.
	WatchdogInterval time.Duration
}

// defaults returns the configuration in effect before any file or
// environment override is applied.
func defaults() Config {
	return Config{
		Address:          "127.0.0.1:7799",
		FailureTTL:       60 * time.Second,
		FailureQuorum:    1,
		WatchdogEnabled:  false,
		WatchdogInterval: 5 * time.Second,
	}
}

// Load reads configuration from path (if non-empty and present) and then
// applies MEMBROKER_-prefixed environment overrides on top. path may be
// empty, in which case only defaults and environment variables apply.
func Load(path string) (Config, error) {
	def := defaults()

	v := viper.New()
	v.SetDefault("address", def.Address)
	v.SetDefault("failure_ttl", int(def.FailureTTL.Seconds()))
	v.SetDefault("failure_quorum", def.FailureQuorum)
	v.SetDefault("watchdog_enabled", def.WatchdogEnabled)
	v.SetDefault("watchdog_interval", int(def.WatchdogInterval.Seconds()))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return Config{}, errors.Wrapf(err, "read config file %s", path)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	return Config{
		Address:          v.GetString("address"),
		FailureTTL:       time.Duration(v.GetInt("failure_ttl")) * time.Second,
		FailureQuorum:    v.GetInt("failure_quorum"),
		WatchdogEnabled:  v.GetBool("watchdog_enabled"),
		WatchdogInterval: time.Duration(v.GetInt("watchdog_interval")) * time.Second,
	}, nil
}
