package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/integrators"
)

// TwoBody moves Reference in a straight line and Dependent under the
// gravity of Reference. Mu is the reference body's G*M.
type TwoBody struct {
	Reference  dynamo.AgentID
	Dependent  dynamo.AgentID
	Mu         float64
	Integrator integrators.Integrator
}

// NewTwoBody returns the Planet/Satellite system with Mu = 1 and
// semi-implicit Euler integration.
func NewTwoBody() *TwoBody {
	return &TwoBody{
		Reference:  dynamo.Planet,
		Dependent:  dynamo.Satellite,
		Mu:         1.0,
		Integrator: integrators.NewSymplecticEuler(),
	}
}

func (tb *TwoBody) Propagate(id dynamo.AgentID, u dynamo.Universe, dt float64) (dynamo.State, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return dynamo.State{}, fmt.Errorf("propagate %s with dt=%g: %w", id, dt, dynamo.ErrInvalidRange)
	}

	state, ok := u[id]
	if !ok {
		return dynamo.State{}, fmt.Errorf("propagate %s: %w", id, dynamo.ErrMissingDependency)
	}

	var next dynamo.State
	switch id {
	case tb.Dependent:
		ref, ok := u[tb.Reference]
		if !ok {
			return dynamo.State{}, fmt.Errorf("propagate %s: needs %s: %w", id, tb.Reference, dynamo.ErrMissingDependency)
		}
		// Separations whose cube underflows are as singular as a zero one.
		if !finite(tb.pull(ref.Position().Sub(state.Position()))) {
			return dynamo.State{}, fmt.Errorf("propagate %s at (%g, %g): %w", id, state.X, state.Y, dynamo.ErrSingularity)
		}
		pos, vel := tb.Integrator.Step(state.Position(), state.Velocity(), tb.accel(ref.Position()), dt)
		next = state.WithKinematics(pos, vel)
	case tb.Reference:
		next = state.WithKinematics(state.Position().Add(state.Velocity().Scale(dt)), state.Velocity())
	default:
		return dynamo.State{}, fmt.Errorf("propagate %s: %w", id, dynamo.ErrUnknownAgent)
	}

	next.Time = state.Time + dt
	next.TimeStep = dt
	if !next.IsValid() {
		return dynamo.State{}, fmt.Errorf("propagate %s: %w", id, dynamo.ErrInvalidState)
	}
	return next, nil
}

// accel is the inverse-square pull toward center.
func (tb *TwoBody) accel(center dynamo.Vec2) integrators.Accel {
	return func(pos dynamo.Vec2) dynamo.Vec2 {
		d := center.Sub(pos)
		return d.Scale(tb.pull(d))
	}
}

// pull is Mu/|d|^3, the factor scaling the separation d into an
// acceleration.
func (tb *TwoBody) pull(d dynamo.Vec2) float64 {
	return tb.Mu / math.Pow(d.Norm2(), 1.5)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (tb *TwoBody) Bodies() (ref, dep dynamo.AgentID) { return tb.Reference, tb.Dependent }

// Energy returns the specific orbital energy of the dependent body relative
// to the reference body.
func (tb *TwoBody) Energy(u dynamo.Universe) (float64, bool) {
	sat, ok1 := u[tb.Dependent]
	ref, ok2 := u[tb.Reference]
	if !ok1 || !ok2 {
		return 0, false
	}
	r := sat.Position().Sub(ref.Position()).Norm()
	if r == 0 {
		return 0, false
	}
	v := sat.Velocity().Sub(ref.Velocity())
	return 0.5*v.Norm2() - tb.Mu/r, true
}

// AngularMomentum returns the specific angular momentum of the dependent
// body relative to the reference body.
func (tb *TwoBody) AngularMomentum(u dynamo.Universe) float64 {
	sat, ref := u[tb.Dependent], u[tb.Reference]
	r := sat.Position().Sub(ref.Position())
	v := sat.Velocity().Sub(ref.Velocity())
	return r.X*v.Y - r.Y*v.X
}
