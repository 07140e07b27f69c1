package integrators

import "github.com/san-kum/nanosim/internal/dynamo"

// Leapfrog is the kick-drift-kick scheme.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(pos, vel dynamo.Vec2, accel Accel, dt float64) (dynamo.Vec2, dynamo.Vec2) {
	halfDt := dt * 0.5
	vHalf := vel.Add(accel(pos).Scale(halfDt))
	newPos := pos.Add(vHalf.Scale(dt))
	return newPos, vHalf.Add(accel(newPos).Scale(halfDt))
}
