package dynamo

import (
	"math"
	"sort"
)

// AgentID names a simulated body.
type AgentID string

const (
	Planet    AgentID = "Planet"
	Satellite AgentID = "Satellite"
)

type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Norm2() float64       { return v.Dot(v) }
func (v Vec2) Norm() float64        { return math.Sqrt(v.Norm2()) }
func (v Vec2) IsValid() bool        { return finite(v.X) && finite(v.Y) }

// State is an agent's state at Time. TimeStep is the step that produced it
// from its predecessor. States are passed by value and never mutated.
type State struct {
	Time     float64 `json:"time" yaml:"time"`
	TimeStep float64 `json:"timeStep" yaml:"time_step"`
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	VX       float64 `json:"vx" yaml:"vx"`
	VY       float64 `json:"vy" yaml:"vy"`
}

func (s State) Position() Vec2 { return Vec2{s.X, s.Y} }
func (s State) Velocity() Vec2 { return Vec2{s.VX, s.VY} }

// WithKinematics returns a copy of s with position and velocity replaced.
func (s State) WithKinematics(pos, vel Vec2) State {
	s.X, s.Y = pos.X, pos.Y
	s.VX, s.VY = vel.X, vel.Y
	return s
}

func (s State) IsValid() bool {
	for _, v := range [...]float64{s.Time, s.TimeStep, s.X, s.Y, s.VX, s.VY} {
		if !finite(v) {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Universe is the joint state of a set of agents at one instant.
type Universe map[AgentID]State

func (u Universe) Clone() Universe {
	c := make(Universe, len(u))
	for k, v := range u {
		c[k] = v
	}
	return c
}

func (u Universe) Has(id AgentID) bool {
	_, ok := u[id]
	return ok
}

// Covers reports whether the key set of u is exactly ids.
func (u Universe) Covers(ids []AgentID) bool {
	if len(u) != len(ids) {
		return false
	}
	for _, id := range ids {
		if _, ok := u[id]; !ok {
			return false
		}
	}
	return true
}

// Agents returns the agent ids of u in sorted order.
func (u Universe) Agents() []AgentID {
	ids := make([]AgentID, 0, len(u))
	for id := range u {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Propagator advances a single agent by dt using a consistent snapshot of
// every agent. Implementations must be pure.
type Propagator interface {
	Propagate(id AgentID, u Universe, dt float64) (State, error)
}

// Observer is notified after a step has been committed to the timeline.
type Observer interface {
	OnCommit(id AgentID, before Universe, after State)
}

type Metric interface {
	Observer
	Name() string
	Value() float64
	Reset()
}

// Hamiltonian is implemented by propagators that can report a conserved
// energy for a universe.
type Hamiltonian interface {
	Energy(u Universe) (float64, bool)
}

// Breakdown is implemented by metrics that report extra named values next
// to their headline Value.
type Breakdown interface {
	Values() map[string]float64
}

// Pair is implemented by propagators coupling a dependent body to a
// reference body.
type Pair interface {
	Bodies() (ref, dep AgentID)
}
