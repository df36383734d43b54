package delivery

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk representation of a broker's delivery-core
// tunables. Struct fields must stay public so yaml.Unmarshal can
// populate them.
type Config struct {
	Delivery struct {
		NodeID uint16 `yaml:"node_id"`
		Limits `yaml:",inline"`
	} `yaml:"delivery"`
}

// OpenConfigFile loads a Config from a YAML file at p. An empty path is
// not an error: callers fall back to in-code defaults.
func OpenConfigFile(p string) (*Limits, uint16, error) {
	if p == "" {
		slog.Default().Debug("no config file path provided")
		return &Limits{}, 0, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, 0, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, 0, err
	}

	return &cfg.Delivery.Limits, cfg.Delivery.NodeID, nil
}
