// Package config loads and validates the declarative file describing
// one router instance: its own router ID, the UDP ports it listens
// on, and its directly configured neighbors.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Neighbor is one output_ports entry: a directly configured link to
// another router.
type Neighbor struct {
	LocalPort        int `koanf:"local_port" validate:"required,min=1024,max=64000"`
	LinkMetric       int `koanf:"link_metric" validate:"required,min=1,max=15"`
	NeighborRouterID int `koanf:"neighbor_router_id" validate:"required,min=1,max=64000"`
}

// Config is the fully loaded, validated configuration for one dvrd
// instance.
type Config struct {
	RouterID    int        `koanf:"router_id" validate:"required,min=1,max=64000"`
	InputPorts  []int      `koanf:"input_ports" validate:"required,min=1,dive,min=1024,max=64000"`
	OutputPorts []Neighbor `koanf:"output_ports" validate:"dive"`
	Codec       string     `koanf:"codec" validate:"omitempty,oneof=json binary"`
}

var validate = validator.New()

// Load reads and validates the YAML configuration file at path.
// Any failure is a ConfigInvalid condition and the caller should
// treat it as fatal.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := &Config{Codec: "json"}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling %s: %w", path, err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	if err := cfg.checkUniqueness(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// checkUniqueness enforces two rules field-level validation can't
// express: no duplicate neighbor_router_id, and no local_port reused
// across input_ports/output_ports within this one instance.
func (c *Config) checkUniqueness() error {
	seenNeighbor := make(map[int]bool, len(c.OutputPorts))
	for _, n := range c.OutputPorts {
		if seenNeighbor[n.NeighborRouterID] {
			return fmt.Errorf("neighbor_router_id %d configured more than once", n.NeighborRouterID)
		}
		seenNeighbor[n.NeighborRouterID] = true
		if n.NeighborRouterID == c.RouterID {
			return fmt.Errorf("neighbor_router_id %d equals this router's own router_id", n.NeighborRouterID)
		}
	}

	seenPort := make(map[int]bool, len(c.InputPorts)+len(c.OutputPorts))
	for _, p := range c.InputPorts {
		if seenPort[p] {
			return fmt.Errorf("local port %d bound more than once by this instance", p)
		}
		seenPort[p] = true
	}
	for _, n := range c.OutputPorts {
		if seenPort[n.LocalPort] {
			return fmt.Errorf("local port %d bound more than once by this instance", n.LocalPort)
		}
		seenPort[n.LocalPort] = true
	}
	return nil
}
