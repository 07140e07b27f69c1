package integrators

import "github.com/san-kum/nanosim/internal/dynamo"

// Accel returns the acceleration acting on a body at pos.
type Accel func(pos dynamo.Vec2) dynamo.Vec2

type Integrator interface {
	Step(pos, vel dynamo.Vec2, accel Accel, dt float64) (dynamo.Vec2, dynamo.Vec2)
}

// Euler is the explicit scheme: position advances with the old velocity.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(pos, vel dynamo.Vec2, accel Accel, dt float64) (dynamo.Vec2, dynamo.Vec2) {
	a := accel(pos)
	return pos.Add(vel.Scale(dt)), vel.Add(a.Scale(dt))
}

// SymplecticEuler updates velocity first and moves with the new velocity.
type SymplecticEuler struct{}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (s *SymplecticEuler) Step(pos, vel dynamo.Vec2, accel Accel, dt float64) (dynamo.Vec2, dynamo.Vec2) {
	v := vel.Add(accel(pos).Scale(dt))
	return pos.Add(v.Scale(dt)), v
}
