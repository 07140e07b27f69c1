package sim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/physics"
	"github.com/san-kum/nanosim/internal/sim"
	"github.com/san-kum/nanosim/internal/timeline"
)

var _ = Describe("Simulation", func() {
	var (
		initial dynamo.Universe
		cfg     sim.Config
	)

	BeforeEach(func() {
		initial = dynamo.Universe{
			dynamo.Planet:    {TimeStep: 0.01, Y: 0.1, VX: 0.1},
			dynamo.Satellite: {TimeStep: 0.01, Y: 1, VX: 1},
		}
		cfg = sim.DefaultConfig()
		cfg.Iterations = 200
		cfg.Seed = 3
	})

	Context("when constructed", func() {
		It("seeds the timeline with a sentinel covering every agent", func() {
			s, err := sim.New(initial, physics.NewTwoBody(), cfg)
			Expect(err).NotTo(HaveOccurred())

			recs := s.Store().Records()
			Expect(recs).To(HaveLen(1))
			Expect(recs[0].IsSentinel()).To(BeTrue())
			Expect(recs[0].High).To(BeZero())
			Expect(recs[0].Payload).To(HaveKey(dynamo.Planet))
			Expect(recs[0].Payload).To(HaveKey(dynamo.Satellite))
		})

		It("starts every clock at the initial time", func() {
			s, err := sim.New(initial, physics.NewTwoBody(), cfg)
			Expect(err).NotTo(HaveOccurred())

			for _, id := range s.Agents() {
				clock, ok := s.Clock(id)
				Expect(ok).To(BeTrue())
				Expect(clock).To(BeZero())
			}
		})
	})

	Context("when run with random steps", func() {
		var res *sim.Result

		BeforeEach(func() {
			s, err := sim.New(initial, physics.NewTwoBody(), cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err = s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("grows the timeline by exactly one record per commit", func() {
			Expect(res.Records).To(HaveLen(1 + res.Commits))
			Expect(len(res.Records)).To(BeNumerically("<=", 1+cfg.Iterations*2))
		})

		It("lets the agents drift out of lockstep", func() {
			Expect(res.Clocks[dynamo.Planet]).NotTo(Equal(res.Clocks[dynamo.Satellite]))
		})

		It("keeps each agent's intervals contiguous", func() {
			ends := map[dynamo.AgentID]float64{dynamo.Planet: 0, dynamo.Satellite: 0}
			for _, r := range byInsertion(res.Records) {
				if r.IsSentinel() {
					continue
				}
				Expect(r.Payload).To(HaveLen(1))
				for id := range r.Payload {
					Expect(r.Low).To(Equal(ends[id]))
					Expect(r.High).To(BeNumerically(">", r.Low))
					ends[id] = r.High
				}
			}
			Expect(ends).To(Equal(res.Clocks))
		})

		It("draws every step from the configured range", func() {
			for _, r := range res.Records {
				for _, st := range r.Payload {
					if r.IsSentinel() {
						continue
					}
					Expect(st.TimeStep).To(BeNumerically(">=", cfg.MinStep))
					Expect(st.TimeStep).To(BeNumerically("<=", cfg.MaxStep))
				}
			}
		})
	})

	Context("when one agent starts later than the other", func() {
		BeforeEach(func() {
			sat := initial[dynamo.Satellite]
			sat.Time = 1
			initial[dynamo.Satellite] = sat
			cfg.Iterations = 60
		})

		It("extends the sentinel to the latest start", func() {
			s, err := sim.New(initial, physics.NewTwoBody(), cfg)
			Expect(err).NotTo(HaveOccurred())

			recs := s.Store().Records()
			Expect(recs).To(HaveLen(1))
			Expect(recs[0].High).To(Equal(1.0))
		})

		It("steps the late agent without ever seeing a partial universe", func() {
			prop := &auditingProp{inner: physics.NewTwoBody()}
			s, err := sim.New(initial, prop, cfg, sim.WithSteps(sim.NewFixedSteps(0.05)))
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(prop.partial).To(BeZero())

			// The satellite commits once from the sentinel, then waits
			// until the planet's records reach its clock.
			Expect(res.Skips).To(Equal(19))
			Expect(res.Commits).To(Equal(2*cfg.Iterations - 19))
			Expect(res.Clocks[dynamo.Satellite]).To(BeNumerically("~", 3.05, 1e-9))
			Expect(res.Clocks[dynamo.Planet]).To(BeNumerically("~", 3.0, 1e-9))
		})
	})

	Context("when the dependent body sits on the reference body", func() {
		BeforeEach(func() {
			initial = dynamo.Universe{
				dynamo.Planet:    {},
				dynamo.Satellite: {VX: 1},
			}
			cfg.OnSingularity = sim.Skip
		})

		It("reports the stall once the limit is reached", func() {
			cfg.StallLimit = 3
			s, err := sim.New(initial, physics.NewTwoBody(), cfg)
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Run(context.Background())
			Expect(err).To(MatchError(dynamo.ErrStalled))
		})
	})
})

type auditingProp struct {
	inner   dynamo.Propagator
	calls   int
	partial int
}

func (a *auditingProp) Propagate(id dynamo.AgentID, u dynamo.Universe, dt float64) (dynamo.State, error) {
	a.calls++
	if !u.Covers([]dynamo.AgentID{dynamo.Planet, dynamo.Satellite}) {
		a.partial++
	}
	return a.inner.Propagate(id, u, dt)
}

// byInsertion orders records by insertion sequence.
func byInsertion(recs []timeline.Record) []timeline.Record {
	out := make([]timeline.Record, len(recs))
	for _, r := range recs {
		out[r.Seq-1] = r
	}
	return out
}
