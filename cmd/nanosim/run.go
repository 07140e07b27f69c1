package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/san-kum/nanosim/internal/archive"
	"github.com/san-kum/nanosim/internal/config"
	"github.com/san-kum/nanosim/internal/metrics"
	"github.com/san-kum/nanosim/internal/physics"
	"github.com/san-kum/nanosim/internal/sim"
	"github.com/san-kum/nanosim/internal/storage"
	"github.com/san-kum/nanosim/internal/viz"
)

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if flags.Changed("min-step") {
		cfg.TimeStep.Min = minStep
	}
	if flags.Changed("max-step") {
		cfg.TimeStep.Max = maxStep
	}
	if flags.Changed("epsilon") {
		cfg.Epsilon = epsilon
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("on-singularity") {
		cfg.OnSingularity = onSingularity
	}
	if flags.Changed("stall-limit") {
		cfg.StallLimit = stallLimit
	}
	if flags.Changed("mu") {
		cfg.Mu = mu
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// simulation is everything needed to run one configured simulation.
type simulation struct {
	cfg    *config.Config
	simCfg sim.Config
	prop   *physics.TwoBody
}

func prepare(cmd *cobra.Command) (*simulation, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return nil, err
	}
	prop, err := cfg.Propagator()
	if err != nil {
		return nil, err
	}
	return &simulation{cfg: cfg, simCfg: simCfg, prop: prop}, nil
}

func (p *simulation) build(logger *slog.Logger) (*sim.Simulation, error) {
	opts := []sim.Option{sim.WithLogger(logger), sim.WithOrder(p.cfg.Order()...)}
	for _, m := range metrics.Defaults(p.prop) {
		opts = append(opts, sim.WithMetric(m))
	}
	return sim.New(p.cfg.Initial(), p.prop, p.simCfg, opts...)
}

func (p *simulation) runInfo() storage.RunInfo {
	return storage.RunInfo{
		Preset:     preset,
		Integrator: p.cfg.Integrator,
		Agents:     p.cfg.Order(),
		Config:     p.simCfg,
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	p, err := prepare(cmd)
	if err != nil {
		return err
	}
	s, err := p.build(slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := s.Run(ctx)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	runID, err := save(p, res)
	if err != nil {
		return err
	}

	if outFile != "" {
		if err := writeOutput(outFile, func(f *os.File) error { return storage.ExportJSON(f, res.Records) }); err != nil {
			return err
		}
	}

	if archivePath != "" {
		db, err := archive.Open(archivePath)
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := db.SaveRun(runID, p.cfg.Seed, res.Records); err != nil {
			return fmt.Errorf("archive run: %w", err)
		}
	}

	fmt.Printf("run %s: %s records, %s commits, %d skips (seed %d)\n",
		runID, humanize.Comma(int64(len(res.Records))), humanize.Comma(int64(res.Commits)), res.Skips, p.cfg.Seed)
	printMetrics(res.Metrics)
	return nil
}

func save(p *simulation, res *sim.Result) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	runID, err := st.Save(p.runInfo(), res)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	slog.Info("run saved", "id", runID, "dir", filepath.Join(dataDir, runID))
	return runID, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	p, err := prepare(cmd)
	if err != nil {
		return err
	}
	// The TUI owns the terminal; only warnings and worse reach stderr.
	s, err := p.build(newLogger("warn", os.Stderr))
	if err != nil {
		return err
	}

	title := "nanosim"
	if preset != "" {
		title += " / " + preset
	}
	final, err := tea.NewProgram(viz.NewModel(s, p.prop, title), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(viz.Model); ok && m.Err() != nil {
		return fmt.Errorf("simulation failed: %w", m.Err())
	}

	if saveLive && s.Done() {
		runID, err := save(p, s.Result())
		if err != nil {
			return err
		}
		fmt.Printf("run %s saved\n", runID)
	}
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	if numRuns <= 0 {
		return fmt.Errorf("runs must be positive, got %d", numRuns)
	}
	p, err := prepare(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	ens := sim.NewEnsemble(p.cfg.Initial(), p.prop, numRuns, p.cfg.Seed,
		sim.WithLogger(slog.Default()), sim.WithOrder(p.cfg.Order()...))
	results, err := ens.Run(ctx, p.simCfg)
	if err != nil {
		return fmt.Errorf("ensemble failed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tRECORDS\tCOMMITS\tSKIPS\tSINGULAR\tCLOCKS")
	for i, res := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
			p.cfg.Seed+int64(i),
			humanize.Comma(int64(len(res.Records))),
			humanize.Comma(int64(res.Commits)),
			res.Skips,
			res.Singularities,
			formatClocks(res.Clocks),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d runs in %s\n", len(results), time.Since(start).Round(time.Millisecond))
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Printf("  %-14s %.6g\n", k, m[k])
	}
}

func writeOutput(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

