package config

import (
	"fmt"
	"time"
)

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	ServiceURL        string   // base URL of the remote analysis service
	RequestTimeout    string   // timeout for a single request to the analysis service
	CacheTTL          string   // how long selector lists and schedules are cached
	LogLevel          string   // sets the log level (zap log level values)
	LogFormat         string   // text vs json
	LogConfig         string   // path to log config file
	EnableTelemetry   bool     // enable telemetry
	TelemetryEndpoint string   // endpoint for telemetry ("stdout" prints to console)
	ProfilingPort     int      // port for profiling
	ServerAddr        string   // listen addr for HTTP server
	StaleDuration     string   // duration after which an idle dashboard is removed
	AllowedOrigins    []string // origins allowed for browser access, empty allows all
	Drivers           string   // default driver list for new dashboards
	WaitForService    string   // duration to wait for the analysis service on startup
)

// Config holds the configuration values which are used by the application
type Config struct {
	ServiceURL     string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	StaleDuration  time.Duration
	WaitForService time.Duration
	Drivers        string
}

// Resolve parses the CLI values. Invalid durations are reported, empty
// ones fall back to their defaults.
func Resolve() (Config, error) {
	ret := Config{ServiceURL: ServiceURL, Drivers: Drivers}
	var err error
	if ret.RequestTimeout, err = parseDuration("request-timeout", RequestTimeout, 30*time.Second); err != nil {
		return ret, err
	}
	if ret.CacheTTL, err = parseDuration("cache-ttl", CacheTTL, 10*time.Minute); err != nil {
		return ret, err
	}
	if ret.StaleDuration, err = parseDuration("stale-duration", StaleDuration, 30*time.Minute); err != nil {
		return ret, err
	}
	if ret.WaitForService, err = parseDuration("wait-for-service", WaitForService, 0); err != nil {
		return ret, err
	}
	return ret, nil
}

func parseDuration(name, val string, defaultVal time.Duration) (time.Duration, error) {
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
