package integrators

import "fmt"

const Default = "symplectic"

var registry = map[string]func() Integrator{
	"symplectic": func() Integrator { return NewSymplecticEuler() },
	"euler":      func() Integrator { return NewEuler() },
	"leapfrog":   func() Integrator { return NewLeapfrog() },
}

func Get(name string) (Integrator, error) {
	if name == "" {
		name = Default
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}
