// Package physics provides state-transition functions for the simulator.
//
// [TwoBody] implements [dynamo.Propagator] for a reference body moving at
// constant velocity and a dependent body attracted to it by an
// inverse-square force:
//
//	a = Mu * (dx, dy) / (dx² + dy²)^1.5
//
// The dependent body is integrated with semi-implicit Euler by default:
// velocity is updated first and the new velocity moves the position.
//
// # Degenerate Input
//
// A dependent body sitting exactly on the reference body has no defined
// force. Propagate reports [dynamo.ErrSingularity] and never returns a
// state containing NaN or Inf.
//
// [TwoBody] also implements [dynamo.Hamiltonian] to monitor energy drift:
//
//	if h, ok := prop.(dynamo.Hamiltonian); ok {
//	    energy, _ := h.Energy(universe)
//	}
package physics
