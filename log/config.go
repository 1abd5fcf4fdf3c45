package log

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is read from the file given by --log-config.
//
// Example:
//
//	defaultLevel: info
//	filter: "debug:dashboard,fetch.* info,warn,error:*"
type Config struct {
	DefaultLevel string `yaml:"defaultLevel"`
	// rules in zapfilter syntax, see moul.io/zapfilter
	Filter string `yaml:"filter"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply returns a logger derived from base with the configured filter rules.
// Without rules base is returned unchanged.
func (c *Config) Apply(base *Logger) (*Logger, error) {
	if c == nil || c.Filter == "" {
		return base, nil
	}
	return base.WithFilter(c.Filter)
}
