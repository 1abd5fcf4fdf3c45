package util

import (
	"fmt"
	"os"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/config"
	"github.com/mpapenbr/beyond-the-apex/pkg/fetch"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the logger from the log flags and installs it as
// default logger. A log config file may provide the level and filter rules.
func SetupLogger() (*log.Logger, error) {
	var logCfg *log.Config
	level := config.LogLevel
	if config.LogConfig != "" {
		var err error
		if logCfg, err = log.LoadConfig(config.LogConfig); err != nil {
			return nil, fmt.Errorf("log config %s: %w", config.LogConfig, err)
		}
		if level == "" {
			level = logCfg.DefaultLevel
		}
	}
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			ParseLogLevel(level, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			ParseLogLevel(level, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	logger, err := logCfg.Apply(logger)
	if err != nil {
		return nil, fmt.Errorf("log config %s: %w", config.LogConfig, err)
	}
	log.ResetDefault(logger)
	return logger, nil
}

// NewFetchClient creates the client of the analysis service from the
// resolved configuration.
func NewFetchClient(cfg config.Config) *fetch.Client {
	return fetch.New(cfg.ServiceURL,
		fetch.WithTimeout(cfg.RequestTimeout),
		fetch.WithCacheTTL(cfg.CacheTTL))
}
