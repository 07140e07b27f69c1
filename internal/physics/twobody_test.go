package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/integrators"
)

func nanoUniverse() dynamo.Universe {
	return dynamo.Universe{
		dynamo.Planet:    {Time: 0, TimeStep: 0.01, X: 0, Y: 0.1, VX: 0.1, VY: 0},
		dynamo.Satellite: {Time: 0, TimeStep: 0.01, X: 0, Y: 1, VX: 1, VY: 0},
	}
}

func TestPlanetPropagation(t *testing.T) {
	tb := NewTwoBody()

	got, err := tb.Propagate(dynamo.Planet, nanoUniverse(), 0.01)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}

	want := dynamo.State{Time: 0.01, TimeStep: 0.01, X: 0.001, Y: 0.1, VX: 0.1, VY: 0}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSatelliteSemiImplicit(t *testing.T) {
	u := dynamo.Universe{
		dynamo.Planet:    {},
		dynamo.Satellite: {X: 0, Y: 1, VX: 1, VY: 0},
	}

	semi, err := NewTwoBody().Propagate(dynamo.Satellite, u, 0.01)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}

	explicit := NewTwoBody()
	explicit.Integrator = integrators.NewEuler()
	expl, err := explicit.Propagate(dynamo.Satellite, u, 0.01)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}

	if semi == expl {
		t.Fatal("semi-implicit and explicit orderings should differ")
	}

	want := dynamo.State{Time: 0.01, TimeStep: 0.01, X: 0.01, Y: 0.9999, VX: 1, VY: -0.01}
	if semi != want {
		t.Errorf("semi-implicit: got %+v, want %+v", semi, want)
	}
	if expl.Y != 1 || expl.VY != -0.01 {
		t.Errorf("explicit: position should use old velocity, got %+v", expl)
	}
}

func TestSatelliteDeterministic(t *testing.T) {
	tb := NewTwoBody()
	u := nanoUniverse()

	a, err1 := tb.Propagate(dynamo.Satellite, u, 0.037)
	b, err2 := tb.Propagate(dynamo.Satellite, u, 0.037)
	if err1 != nil || err2 != nil {
		t.Fatalf("propagate failed: %v, %v", err1, err2)
	}
	if a != b {
		t.Errorf("same inputs gave different outputs: %+v vs %+v", a, b)
	}

	d := dynamo.Vec2{X: 0 - 0, Y: 0.1 - 1}
	acc := d.Scale(1 / math.Pow(d.Norm2(), 1.5))
	vy := 0 + acc.Y*0.037
	if a.VY != vy {
		t.Errorf("VY = %v, want %v", a.VY, vy)
	}
	if a.Y != 1+vy*0.037 {
		t.Errorf("Y = %v, want %v", a.Y, 1+vy*0.037)
	}
}

func TestPropagateDoesNotMutate(t *testing.T) {
	u := nanoUniverse()
	before := u.Clone()

	if _, err := NewTwoBody().Propagate(dynamo.Satellite, u, 0.05); err != nil {
		t.Fatal(err)
	}
	for id, st := range before {
		if u[id] != st {
			t.Errorf("%s mutated: %+v -> %+v", id, st, u[id])
		}
	}
}

func TestSingularity(t *testing.T) {
	tests := []struct {
		name string
		sat  dynamo.State
	}{
		{"coincident", dynamo.State{VX: 1}},
		{"separation squared underflows", dynamo.State{X: 1e-170}},
		{"separation cubed underflows", dynamo.State{Y: 1e-120}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := dynamo.Universe{
				dynamo.Planet:    {},
				dynamo.Satellite: tt.sat,
			}
			_, err := NewTwoBody().Propagate(dynamo.Satellite, u, 0.01)
			if !errors.Is(err, dynamo.ErrSingularity) {
				t.Errorf("expected ErrSingularity, got %v", err)
			}
		})
	}
}

func TestPropagateErrors(t *testing.T) {
	tests := []struct {
		name string
		id   dynamo.AgentID
		u    dynamo.Universe
		dt   float64
		want error
	}{
		{"missing self", dynamo.Planet, dynamo.Universe{dynamo.Satellite: {}}, 0.01, dynamo.ErrMissingDependency},
		{"missing reference", dynamo.Satellite, dynamo.Universe{dynamo.Satellite: {Y: 1}}, 0.01, dynamo.ErrMissingDependency},
		{"unknown agent", "Moon", dynamo.Universe{"Moon": {}}, 0.01, dynamo.ErrUnknownAgent},
		{"zero dt", dynamo.Planet, nanoUniverse(), 0, dynamo.ErrInvalidRange},
		{"negative dt", dynamo.Planet, nanoUniverse(), -0.1, dynamo.ErrInvalidRange},
		{"nan dt", dynamo.Planet, nanoUniverse(), math.NaN(), dynamo.ErrInvalidRange},
		{"overflow", dynamo.Planet, dynamo.Universe{dynamo.Planet: {VX: math.MaxFloat64}}, 10, dynamo.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTwoBody().Propagate(tt.id, tt.u, tt.dt)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEnergy(t *testing.T) {
	tb := NewTwoBody()
	u := dynamo.Universe{
		dynamo.Planet:    {},
		dynamo.Satellite: {Y: 1, VX: 1},
	}

	e, ok := tb.Energy(u)
	if !ok {
		t.Fatal("expected energy")
	}
	// circular orbit: v²/2 - mu/r = 0.5 - 1
	if math.Abs(e+0.5) > 1e-12 {
		t.Errorf("expected -0.5, got %v", e)
	}

	if _, ok := tb.Energy(dynamo.Universe{dynamo.Planet: {}}); ok {
		t.Error("expected no energy without satellite")
	}
	if l := tb.AngularMomentum(u); l != -1 {
		t.Errorf("expected angular momentum -1, got %v", l)
	}
}

func TestCircularOrbitStaysBound(t *testing.T) {
	tb := NewTwoBody()
	u := dynamo.Universe{
		dynamo.Planet:    {},
		dynamo.Satellite: {Y: 1, VX: 1},
	}

	for i := 0; i < 2000; i++ {
		next, err := tb.Propagate(dynamo.Satellite, u, 0.005)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		u[dynamo.Satellite] = next
	}

	r := u[dynamo.Satellite].Position().Norm()
	if math.Abs(r-1) > 0.05 {
		t.Errorf("radius drifted to %.4f", r)
	}
}
