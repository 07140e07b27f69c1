package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/integrators"
	"github.com/san-kum/nanosim/internal/physics"
	"github.com/san-kum/nanosim/internal/sim"
)

const (
	DefaultIterations = 500
	DefaultMinStep    = 0.01
	DefaultMaxStep    = 0.1
	DefaultEpsilon    = 0.001
	DefaultMu         = 1.0
)

type Config struct {
	Agents        []AgentConfig  `yaml:"agents"`
	TimeStep      TimeStepConfig `yaml:"time_step"`
	Epsilon       float64        `yaml:"epsilon"`
	Iterations    int            `yaml:"iterations"`
	Seed          int64          `yaml:"seed"`
	Integrator    string         `yaml:"integrator"`
	OnSingularity string         `yaml:"on_singularity"`
	StallLimit    int            `yaml:"stall_limit"`
	Mu            float64        `yaml:"mu"`
}

// AgentConfig is one agent's initial state. Agents are stepped in the
// order they are listed.
type AgentConfig struct {
	ID    dynamo.AgentID `yaml:"id"`
	State dynamo.State   `yaml:"state"`
}

type TimeStepConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func DefaultConfig() *Config {
	return &Config{
		Agents: []AgentConfig{
			{ID: dynamo.Planet, State: dynamo.State{TimeStep: 0.01, X: 0, Y: 0.1, VX: 0.1, VY: 0}},
			{ID: dynamo.Satellite, State: dynamo.State{TimeStep: 0.01, X: 0, Y: 1, VX: 1, VY: 0}},
		},
		TimeStep:      TimeStepConfig{Min: DefaultMinStep, Max: DefaultMaxStep},
		Epsilon:       DefaultEpsilon,
		Iterations:    DefaultIterations,
		Integrator:    integrators.Default,
		OnSingularity: "abort",
		Mu:            DefaultMu,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if len(c.Agents) == 0 {
		return fmt.Errorf("no agents configured")
	}
	seen := make(map[dynamo.AgentID]bool, len(c.Agents))
	for _, a := range c.Agents {
		if a.ID == "" {
			return fmt.Errorf("agent with empty id")
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate agent %s", a.ID)
		}
		seen[a.ID] = true
		if !a.State.IsValid() {
			return fmt.Errorf("agent %s: %w", a.ID, dynamo.ErrInvalidState)
		}
	}
	if _, err := integrators.Get(c.Integrator); err != nil {
		return err
	}
	if !(c.Mu > 0) {
		return fmt.Errorf("mu must be positive, got %f", c.Mu)
	}
	simCfg, err := c.SimConfig()
	if err != nil {
		return err
	}
	return simCfg.Validate()
}

// Initial returns the initial universe.
func (c *Config) Initial() dynamo.Universe {
	u := make(dynamo.Universe, len(c.Agents))
	for _, a := range c.Agents {
		u[a.ID] = a.State
	}
	return u
}

// Order returns the agent ids in stepping order.
func (c *Config) Order() []dynamo.AgentID {
	ids := make([]dynamo.AgentID, len(c.Agents))
	for i, a := range c.Agents {
		ids[i] = a.ID
	}
	return ids
}

func (c *Config) SimConfig() (sim.Config, error) {
	policy, err := sim.ParsePolicy(c.OnSingularity)
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		Iterations:    c.Iterations,
		MinStep:       c.TimeStep.Min,
		MaxStep:       c.TimeStep.Max,
		Epsilon:       c.Epsilon,
		Seed:          c.Seed,
		OnSingularity: policy,
		StallLimit:    c.StallLimit,
	}, nil
}

// Propagator builds the two-body transition function. The first agent is
// the reference body and the second the dependent one.
func (c *Config) Propagator() (*physics.TwoBody, error) {
	if len(c.Agents) != 2 {
		return nil, fmt.Errorf("two-body model needs exactly 2 agents, got %d", len(c.Agents))
	}
	integ, err := integrators.Get(c.Integrator)
	if err != nil {
		return nil, err
	}
	return &physics.TwoBody{
		Reference:  c.Agents[0].ID,
		Dependent:  c.Agents[1].ID,
		Mu:         c.Mu,
		Integrator: integ,
	}, nil
}
