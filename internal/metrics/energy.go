package metrics

import (
	"math"

	"github.com/san-kum/nanosim/internal/dynamo"
)

// EnergyDrift tracks the largest relative change of the system energy
// across commits. The universe seen by a commit is completed with the
// committed state before measuring.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
	ham           dynamo.Hamiltonian
}

func NewEnergyDrift(ham dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		ham:  ham,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnCommit(id dynamo.AgentID, before dynamo.Universe, after dynamo.State) {
	if e.samples == 0 {
		if energy, ok := e.ham.Energy(before); ok {
			e.initialEnergy = energy
			e.samples++
		}
	}

	u := before.Clone()
	u[id] = after
	energy, ok := e.ham.Energy(u)
	if !ok {
		return
	}
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
