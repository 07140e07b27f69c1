package metrics

import (
	"math"
	"strings"

	"github.com/san-kum/nanosim/internal/analysis"
	"github.com/san-kum/nanosim/internal/dynamo"
)

// Eccentricity estimates the dependent body's orbital eccentricity from the
// closest and farthest separations seen at commits.
type Eccentricity struct {
	ref, dep dynamo.AgentID
	apsides  analysis.Apsides
	samples  int
}

func NewEccentricity(ref, dep dynamo.AgentID) *Eccentricity {
	return &Eccentricity{ref: ref, dep: dep}
}

func (e *Eccentricity) Name() string { return "eccentricity" }

func (e *Eccentricity) OnCommit(id dynamo.AgentID, before dynamo.Universe, after dynamo.State) {
	ref, okRef := before[e.ref]
	dep, okDep := before[e.dep]
	switch id {
	case e.ref:
		ref, okRef = after, true
	case e.dep:
		dep, okDep = after, true
	}
	if !okRef || !okDep {
		return
	}
	r := dep.Position().Sub(ref.Position()).Norm()
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return
	}
	e.apsides.Observe(r, e.samples == 0)
	e.samples++
}

func (e *Eccentricity) Value() float64 { return e.apsides.Eccentricity() }

func (e *Eccentricity) Reset() {
	e.apsides = analysis.Apsides{}
	e.samples = 0
}

// SpeedStats reports one agent's average speed between its consecutive
// commits. Value is the mean; Values adds the extremes.
type SpeedStats struct {
	id    dynamo.AgentID
	stats analysis.SpeedStats
}

func NewSpeedStats(id dynamo.AgentID) *SpeedStats {
	return &SpeedStats{id: id}
}

func (s *SpeedStats) Name() string { return strings.ToLower(string(s.id)) + "_speed" }

func (s *SpeedStats) OnCommit(id dynamo.AgentID, before dynamo.Universe, after dynamo.State) {
	if id != s.id {
		return
	}
	// the read just below the agent's clock holds its previous state
	if prev, ok := before[id]; ok {
		s.stats.Add(prev, after)
	}
}

func (s *SpeedStats) Value() float64 { return s.stats.Mean }

func (s *SpeedStats) Values() map[string]float64 {
	return map[string]float64{
		s.Name() + "_max": s.stats.Max,
		s.Name() + "_min": s.stats.Min,
	}
}

func (s *SpeedStats) Reset() { s.stats = analysis.SpeedStats{} }
