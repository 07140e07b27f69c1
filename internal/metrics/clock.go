package metrics

import (
	"math"

	"github.com/san-kum/nanosim/internal/dynamo"
)

// ClockSpread records the widest gap between agent clocks seen after any
// commit.
type ClockSpread struct {
	clocks map[dynamo.AgentID]float64
	spread float64
}

func NewClockSpread() *ClockSpread {
	return &ClockSpread{clocks: make(map[dynamo.AgentID]float64)}
}

func (c *ClockSpread) Name() string { return "clock_spread" }

func (c *ClockSpread) OnCommit(id dynamo.AgentID, before dynamo.Universe, after dynamo.State) {
	for other, st := range before {
		if _, ok := c.clocks[other]; !ok {
			c.clocks[other] = st.Time
		}
	}
	c.clocks[id] = after.Time

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, t := range c.clocks {
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}
	c.spread = math.Max(c.spread, hi-lo)
}

func (c *ClockSpread) Value() float64 { return c.spread }

func (c *ClockSpread) Reset() {
	c.clocks = make(map[dynamo.AgentID]float64)
	c.spread = 0
}

// StepStats reports the mean committed time step.
type StepStats struct {
	count int
	total float64
}

func NewStepStats() *StepStats {
	return &StepStats{}
}

func (s *StepStats) Name() string { return "mean_dt" }

func (s *StepStats) OnCommit(_ dynamo.AgentID, _ dynamo.Universe, after dynamo.State) {
	s.count++
	s.total += after.TimeStep
}

func (s *StepStats) Value() float64 {
	if s.count == 0 {
		return 0
	}
	return s.total / float64(s.count)
}

func (s *StepStats) Reset() {
	s.count = 0
	s.total = 0
}

// Defaults returns the metrics every run records.
func Defaults(prop dynamo.Propagator) []dynamo.Metric {
	ms := []dynamo.Metric{NewClockSpread(), NewStepStats()}
	if ham, ok := prop.(dynamo.Hamiltonian); ok {
		ms = append(ms, NewEnergyDrift(ham))
	}
	if pair, ok := prop.(dynamo.Pair); ok {
		ref, dep := pair.Bodies()
		ms = append(ms, NewEccentricity(ref, dep), NewSpeedStats(dep))
	}
	return ms
}
