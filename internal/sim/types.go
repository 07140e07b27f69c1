package sim

import (
	"fmt"
	"strings"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/timeline"
)

// Policy decides what a singular propagation does to the run.
type Policy int

const (
	// Abort ends the run with the singularity error.
	Abort Policy = iota
	// Skip drops the step; the agent retries next iteration with a new dt.
	Skip
)

func (p Policy) String() string {
	switch p {
	case Skip:
		return "skip"
	default:
		return "abort"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "abort":
		return Abort, nil
	case "skip":
		return Skip, nil
	}
	return Abort, fmt.Errorf("unknown singularity policy: %s", s)
}

type Config struct {
	Iterations    int
	MinStep       float64
	MaxStep       float64
	Epsilon       float64
	Seed          int64
	OnSingularity Policy
	// StallLimit aborts the run once an agent goes this many consecutive
	// iterations without committing. Zero disables the check.
	StallLimit int
}

func DefaultConfig() Config {
	return Config{
		Iterations:    500,
		MinStep:       0.01,
		MaxStep:       0.1,
		Epsilon:       0.001,
		OnSingularity: Abort,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if !(c.MinStep > 0) {
		return fmt.Errorf("min step must be positive, got %f", c.MinStep)
	}
	if !(c.MaxStep >= c.MinStep) {
		return fmt.Errorf("max step %f below min step %f", c.MaxStep, c.MinStep)
	}
	if !(c.Epsilon > 0) || c.Epsilon >= c.MinStep {
		return fmt.Errorf("epsilon must be in (0, min step), got %f", c.Epsilon)
	}
	if c.StallLimit < 0 {
		return fmt.Errorf("stall limit must not be negative, got %d", c.StallLimit)
	}
	return nil
}

type Result struct {
	Records       []timeline.Record
	Clocks        map[dynamo.AgentID]float64
	Iterations    int
	Commits       int
	Skips         int
	Singularities int
	Metrics       map[string]float64
}
