// Package dynamo provides the core value types shared by the simulator.
//
// The package defines the vocabulary every other package speaks:
//
//   - [AgentID]: identity of a simulated body
//   - [State]: immutable per-agent state at one instant
//   - [Universe]: joint state of all agents at one instant
//   - [Propagator]: pure state-transition function
//   - [Observer] and [Metric]: hooks notified on every committed step
//
// # Example
//
//	prop := physics.NewTwoBody()
//	s, err := sim.New(initial, prop, sim.DefaultConfig())
//	result, _ := s.Run(ctx)
//
// # Thread Safety
//
// All types in this package are plain values. A [Universe] is a map and
// must be cloned before it is shared across goroutines.
package dynamo
