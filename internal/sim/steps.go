package sim

import "math/rand"

// StepSource supplies the time step for each propagation.
type StepSource interface {
	Next() float64
}

// UniformSteps draws steps uniformly from [min, max] with a seeded source.
type UniformSteps struct {
	rng      *rand.Rand
	min, max float64
}

func NewUniformSteps(seed int64, min, max float64) *UniformSteps {
	return &UniformSteps{rng: rand.New(rand.NewSource(seed)), min: min, max: max}
}

func (u *UniformSteps) Next() float64 {
	return u.min + u.rng.Float64()*(u.max-u.min)
}

// FixedSteps replays a fixed sequence, cycling when exhausted.
type FixedSteps struct {
	seq []float64
	pos int
}

func NewFixedSteps(seq ...float64) *FixedSteps {
	return &FixedSteps{seq: seq}
}

func (f *FixedSteps) Next() float64 {
	dt := f.seq[f.pos%len(f.seq)]
	f.pos++
	return dt
}
