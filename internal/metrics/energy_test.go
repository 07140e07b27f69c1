package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/physics"
)

func circular() dynamo.Universe {
	return dynamo.Universe{
		dynamo.Planet:    {},
		dynamo.Satellite: {Y: 1, VX: 1},
	}
}

func TestEnergyDriftConserved(t *testing.T) {
	m := NewEnergyDrift(physics.NewTwoBody())

	u := circular()
	// moving the planet alone leaves relative energy untouched
	m.OnCommit(dynamo.Planet, u, dynamo.State{Time: 0.1})
	if m.Value() != 0 {
		t.Errorf("expected zero drift, got %v", m.Value())
	}
}

func TestEnergyDriftMeasured(t *testing.T) {
	m := NewEnergyDrift(physics.NewTwoBody())

	u := circular()
	// doubling the speed: e = 2 - 1 = 1 vs -0.5
	m.OnCommit(dynamo.Satellite, u, dynamo.State{Time: 0.1, Y: 1, VX: 2})

	if math.Abs(m.Value()-3) > 1e-12 {
		t.Errorf("expected drift 3, got %v", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestClockSpread(t *testing.T) {
	c := NewClockSpread()
	u := circular()

	c.OnCommit(dynamo.Planet, u, dynamo.State{Time: 0.08})
	if math.Abs(c.Value()-0.08) > 1e-12 {
		t.Errorf("expected spread 0.08, got %v", c.Value())
	}

	u[dynamo.Planet] = dynamo.State{Time: 0.08}
	c.OnCommit(dynamo.Satellite, u, dynamo.State{Time: 0.05})
	if math.Abs(c.Value()-0.08) > 1e-12 {
		t.Errorf("spread should keep its maximum, got %v", c.Value())
	}

	c.Reset()
	if c.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestStepStats(t *testing.T) {
	s := NewStepStats()
	if s.Value() != 0 {
		t.Error("expected zero before observations")
	}

	for _, dt := range []float64{0.01, 0.03} {
		s.OnCommit(dynamo.Planet, nil, dynamo.State{TimeStep: dt})
	}
	if math.Abs(s.Value()-0.02) > 1e-12 {
		t.Errorf("expected mean 0.02, got %v", s.Value())
	}
}

func TestDefaults(t *testing.T) {
	ms := Defaults(physics.NewTwoBody())
	names := map[string]bool{}
	for _, m := range ms {
		names[m.Name()] = true
	}
	for _, want := range []string{"energy_drift", "clock_spread", "mean_dt", "eccentricity", "satellite_speed"} {
		if !names[want] {
			t.Errorf("missing default metric %s", want)
		}
	}
}
