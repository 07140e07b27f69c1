package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/san-kum/nanosim/internal/analysis"
	"github.com/san-kum/nanosim/internal/config"
	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/export"
	"github.com/san-kum/nanosim/internal/storage"
	"github.com/san-kum/nanosim/internal/timeline"
	"github.com/san-kum/nanosim/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tCREATED\tSEED\tITER\tRECORDS\tINTEG\tCLOCKS")

	for _, run := range runs {
		name := run.Preset
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			run.ID,
			name,
			humanize.Time(run.Timestamp),
			run.Seed,
			run.Iterations,
			humanize.Comma(int64(run.Records)),
			run.Integrator,
			formatClocks(run.Clocks),
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render("run " + meta.ID))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "created\t%s (%s)\n", meta.Timestamp.Format("2006-01-02 15:04:05"), humanize.Time(meta.Timestamp))
	fmt.Fprintf(w, "preset\t%s\n", meta.Preset)
	fmt.Fprintf(w, "seed\t%d\n", meta.Seed)
	fmt.Fprintf(w, "iterations\t%d\n", meta.Iterations)
	fmt.Fprintf(w, "time step\t[%g, %g]\n", meta.MinStep, meta.MaxStep)
	fmt.Fprintf(w, "epsilon\t%g\n", meta.Epsilon)
	fmt.Fprintf(w, "integrator\t%s\n", meta.Integrator)
	fmt.Fprintf(w, "agents\t%v\n", meta.Agents)
	fmt.Fprintf(w, "records\t%s\n", humanize.Comma(int64(meta.Records)))
	fmt.Fprintf(w, "commits\t%s\n", humanize.Comma(int64(meta.Commits)))
	fmt.Fprintf(w, "skips\t%d\n", meta.Skips)
	fmt.Fprintf(w, "singularities\t%d\n", meta.Singularities)
	fmt.Fprintf(w, "clocks\t%s\n", formatClocks(meta.Clocks))
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println("metrics")
	printMetrics(meta.Metrics)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	recs, err := storage.New(dataDir).LoadRecords(args[0])
	if err != nil {
		return err
	}
	tracks := viz.Tracks(recs)

	if orbit {
		ids := make([]dynamo.AgentID, 0, len(tracks))
		for id := range tracks {
			ids = append(ids, id)
		}
		sortIDs(ids)
		fmt.Print(viz.Orbits(tracks, 60, 20).Render(viz.Pens))
		fmt.Println(viz.Legend(ids))
		return nil
	}

	id := dynamo.AgentID(agentName)
	track, ok := tracks[id]
	if !ok {
		return fmt.Errorf("agent %s: %w", id, dynamo.ErrUnknownAgent)
	}

	var values []float64
	caption := fmt.Sprintf("%s %s", id, field)
	if field == "separation" {
		ref, err := reference(args[0], id)
		if err != nil {
			return err
		}
		values = viz.Separation(tracks[ref], track)
		caption = fmt.Sprintf("%s-%s separation", ref, id)
	} else {
		values, err = viz.Series(track, field)
		if err != nil {
			return fmt.Errorf("%w (available: separation, %s)", err, strings.Join(viz.FieldNames(), ", "))
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("agent %s has no states to plot", id)
	}

	fmt.Println(viz.Chart(values, caption, 70, 15))
	return nil
}

// reference picks the agent id plotted against: the first other agent in
// the run's stepping order.
func reference(runID string, id dynamo.AgentID) (dynamo.AgentID, error) {
	meta, err := storage.New(dataDir).Load(runID)
	if err != nil {
		return "", err
	}
	for _, a := range meta.Agents {
		if a != id {
			return a, nil
		}
	}
	return "", fmt.Errorf("run %s has no agent other than %s", runID, id)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	if samples < 4 {
		return fmt.Errorf("samples must be at least 4, got %d", samples)
	}
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	recs, err := storage.New(dataDir).LoadRecords(args[0])
	if err != nil {
		return err
	}

	id := dynamo.AgentID(agentName)
	ref, err := reference(args[0], id)
	if err != nil {
		return err
	}
	// the joint state is only known up to the slowest clock
	end := math.Inf(1)
	for _, t := range meta.Clocks {
		end = math.Min(end, t)
	}

	period, err := analysis.OrbitalPeriod(recs, ref, id, end, samples)
	if err != nil {
		return err
	}
	fmt.Printf("%s around %s over [0, %.3f): period %.4f (%.1f orbits)\n", id, ref, end, period, end/period)

	tracks := viz.Tracks(recs)
	if ecc, err := analysis.Eccentricity(viz.Separation(tracks[ref], tracks[id])); err == nil {
		fmt.Printf("eccentricity %.4f\n", ecc)
	}
	if sp := analysis.Speeds(tracks[id]); sp.Samples > 0 {
		fmt.Printf("speed avg %.4f  max %.4f  min %.4f  (%d steps)\n", sp.Mean, sp.Max, sp.Min, sp.Samples)
	}
	return nil
}

func showUniverse(cmd *cobra.Command, args []string) error {
	t, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", args[1], err)
	}
	store, err := storage.New(dataDir).LoadTimeline(args[0])
	if err != nil {
		return err
	}
	return printUniverse(timeline.NewReader(store).Read(t), t)
}

func printUniverse(u dynamo.Universe, t float64) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(u)
	}
	if len(u) == 0 {
		fmt.Printf("no records cover t=%g\n", t)
		return nil
	}
	for i, id := range u.Agents() {
		fmt.Printf("%s %s\n", viz.Pen(i).Render(fmt.Sprintf("%-10s", id)), viz.StateLine(u[id]))
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	recs, err := storage.New(dataDir).LoadRecords(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return storage.ExportJSON(os.Stdout, recs)
	}
	if err := writeOutput(outFile, func(f *os.File) error { return storage.ExportJSON(f, recs) }); err != nil {
		return err
	}
	fmt.Printf("exported %s records to %s\n", humanize.Comma(int64(len(recs))), outFile)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	recs, err := storage.New(dataDir).LoadRecords(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return storage.ExportCSV(os.Stdout, recs)
	}
	if err := writeOutput(outFile, func(f *os.File) error { return storage.ExportCSV(f, recs) }); err != nil {
		return err
	}
	fmt.Printf("exported %s records to %s\n", humanize.Comma(int64(len(recs))), outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	recs, err := storage.New(dataDir).LoadRecords(args[0])
	if err != nil {
		return err
	}

	var doc string
	if braille {
		doc = export.CanvasToSVG(viz.Orbits(viz.Tracks(recs), 80, 40), 4)
	} else {
		doc = export.TrajectoryToSVG(recs, 800, 800)
	}
	if doc == "" {
		return fmt.Errorf("run %s has nothing to draw", args[0])
	}

	path := outFile
	if path == "" {
		path = args[0] + ".svg"
	}
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tINTEG\tITER\tSTEP\tSINGULARITY\tAGENTS")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		agents := make([]string, len(cfg.Agents))
		for i, a := range cfg.Agents {
			agents[i] = fmt.Sprintf("%s(%g,%g)", a.ID, a.State.X, a.State.Y)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t[%g, %g]\t%s\t%s\n",
			name, cfg.Integrator, cfg.Iterations, cfg.TimeStep.Min, cfg.TimeStep.Max,
			cfg.OnSingularity, strings.Join(agents, " "))
	}
	return w.Flush()
}

func formatClocks(clocks map[dynamo.AgentID]float64) string {
	ids := make([]dynamo.AgentID, 0, len(clocks))
	for id := range clocks {
		ids = append(ids, id)
	}
	sortIDs(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s=%.3f", id, clocks[id])
	}
	return strings.Join(parts, " ")
}

func sortIDs(ids []dynamo.AgentID) { slices.Sort(ids) }
