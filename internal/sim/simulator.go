package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/timeline"
)

// Simulation owns everything one run needs: the timeline, the per-agent
// clocks, the step source and the propagator. Agents advance independently
// and synchronize only through the timeline.
type Simulation struct {
	initial   dynamo.Universe
	order     []dynamo.AgentID
	prop      dynamo.Propagator
	cfg       Config
	steps     StepSource
	store     *timeline.Store
	reader    *timeline.Reader
	clocks    map[dynamo.AgentID]float64
	idle      map[dynamo.AgentID]int
	observers []dynamo.Observer
	metrics   []dynamo.Metric
	logger    *slog.Logger

	iteration     int
	commits       int
	skips         int
	singularities int
}

type Option func(*Simulation)

// WithSteps replaces the seeded uniform step source.
func WithSteps(src StepSource) Option {
	return func(s *Simulation) { s.steps = src }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

func WithObserver(o dynamo.Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}

func WithMetric(m dynamo.Metric) Option {
	return func(s *Simulation) { s.metrics = append(s.metrics, m) }
}

// WithOrder sets the per-iteration agent order. It must name every agent
// exactly once.
func WithOrder(ids ...dynamo.AgentID) Option {
	return func(s *Simulation) { s.order = ids }
}

// New builds a simulation and seeds its timeline with the sentinel record
// (-Inf, t1) holding every initial state, where t1 is the latest initial
// time. Every agent's first read therefore sees all initial states, even
// when agents start at different times; an early agent's own commits
// shadow its sentinel entry.
func New(initial dynamo.Universe, prop dynamo.Propagator, cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(initial) == 0 {
		return nil, fmt.Errorf("no agents")
	}

	s := &Simulation{
		initial: initial.Clone(),
		order:   initial.Agents(),
		prop:    prop,
		cfg:     cfg,
		store:   timeline.New(),
		clocks:  make(map[dynamo.AgentID]float64, len(initial)),
		idle:    make(map[dynamo.AgentID]int, len(initial)),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.steps == nil {
		s.steps = NewUniformSteps(cfg.Seed, cfg.MinStep, cfg.MaxStep)
	}
	if err := s.validateOrder(); err != nil {
		return nil, err
	}

	t1 := math.Inf(-1)
	for id, st := range s.initial {
		if !st.IsValid() {
			return nil, fmt.Errorf("initial state of %s: %w", id, dynamo.ErrInvalidState)
		}
		s.clocks[id] = st.Time
		t1 = math.Max(t1, st.Time)
	}

	s.reader = timeline.NewReader(s.store)
	if err := s.store.Seed(s.initial, t1); err != nil {
		return nil, fmt.Errorf("seed timeline: %w", err)
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	return s, nil
}

func (s *Simulation) validateOrder() error {
	if len(s.order) != len(s.initial) {
		return fmt.Errorf("agent order has %d agents, want %d", len(s.order), len(s.initial))
	}
	seen := make(map[dynamo.AgentID]bool, len(s.order))
	for _, id := range s.order {
		if !s.initial.Has(id) || seen[id] {
			return fmt.Errorf("agent order %v: %w", s.order, dynamo.ErrUnknownAgent)
		}
		seen[id] = true
	}
	return nil
}

// Run executes the configured number of iterations. On error the partial
// result is discarded.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	s.logger.Info("simulation started",
		"agents", len(s.order),
		"iterations", s.cfg.Iterations,
		"seed", s.cfg.Seed,
	)

	for s.iteration < s.cfg.Iterations {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := s.Step(); err != nil {
			s.logger.Error("simulation aborted", "error", err)
			return nil, err
		}
	}

	res := s.Result()
	s.logger.Info("simulation finished",
		"records", len(res.Records),
		"commits", res.Commits,
		"skips", res.Skips,
		"singularities", res.Singularities,
	)
	return res, nil
}

// Step runs one iteration: every agent, in order, gets one chance to
// advance.
func (s *Simulation) Step() error {
	for _, id := range s.order {
		if err := s.advance(id); err != nil {
			return err
		}
	}
	s.iteration++
	return nil
}

// Done reports whether the iteration budget is spent.
func (s *Simulation) Done() bool {
	return s.iteration >= s.cfg.Iterations
}

func (s *Simulation) advance(id dynamo.AgentID) error {
	clock := s.clocks[id]
	// Read just before the agent's own last update so the lookup does not
	// depend on the upper bound of the interval it just wrote.
	u := s.reader.Read(clock - s.cfg.Epsilon)

	if !u.Covers(s.order) {
		s.skips++
		s.logger.Debug("agent not ready", "agent", id, "clock", clock, "visible", len(u))
		return s.markIdle(id, clock)
	}

	dt := s.steps.Next()
	next, err := s.prop.Propagate(id, u, dt)
	if err != nil {
		if errors.Is(err, dynamo.ErrSingularity) && s.cfg.OnSingularity == Skip {
			s.singularities++
			s.logger.Warn("singular step skipped", "agent", id, "clock", clock, "dt", dt)
			return s.markIdle(id, clock)
		}
		return s.fail(id, clock, err)
	}

	if err := s.store.Insert(clock, next.Time, dynamo.Universe{id: next}); err != nil {
		return s.fail(id, clock, err)
	}
	s.clocks[id] = next.Time
	s.idle[id] = 0
	s.commits++

	for _, o := range s.observers {
		o.OnCommit(id, u, next)
	}
	for _, m := range s.metrics {
		m.OnCommit(id, u, next)
	}
	return nil
}

func (s *Simulation) markIdle(id dynamo.AgentID, clock float64) error {
	s.idle[id]++
	if s.cfg.StallLimit > 0 && s.idle[id] >= s.cfg.StallLimit {
		return s.fail(id, clock, fmt.Errorf("no progress for %d iterations: %w", s.idle[id], dynamo.ErrStalled))
	}
	return nil
}

func (s *Simulation) fail(id dynamo.AgentID, clock float64, err error) error {
	return &dynamo.SimulationError{Agent: id, Iteration: s.iteration, Time: clock, Wrapped: err}
}

// Result snapshots the run so far.
func (s *Simulation) Result() *Result {
	res := &Result{
		Records:       s.store.Records(),
		Clocks:        make(map[dynamo.AgentID]float64, len(s.clocks)),
		Iterations:    s.iteration,
		Commits:       s.commits,
		Skips:         s.skips,
		Singularities: s.singularities,
		Metrics:       make(map[string]float64, len(s.metrics)),
	}
	for id, t := range s.clocks {
		res.Clocks[id] = t
	}
	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
		if b, ok := m.(dynamo.Breakdown); ok {
			for k, v := range b.Values() {
				res.Metrics[k] = v
			}
		}
	}
	return res
}

// Universe reconstructs the joint state at t.
func (s *Simulation) Universe(t float64) dynamo.Universe {
	return s.reader.Read(t)
}

func (s *Simulation) Clock(id dynamo.AgentID) (float64, bool) {
	t, ok := s.clocks[id]
	return t, ok
}

func (s *Simulation) Agents() []dynamo.AgentID { return slices.Clone(s.order) }
func (s *Simulation) Store() *timeline.Store   { return s.store }
func (s *Simulation) Iteration() int           { return s.iteration }
func (s *Simulation) Config() Config           { return s.cfg }
