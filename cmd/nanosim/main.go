package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string

	configFile    string
	preset        string
	seed          int64
	iterations    int
	minStep       float64
	maxStep       float64
	epsilon       float64
	integrator    string
	onSingularity string
	stallLimit    int
	mu            float64
	archivePath   string
	outFile       string
	saveLive      bool
	numRuns       int

	agentName string
	field     string
	orbit     bool
	braille   bool
	asJSON    bool
	samples   int
)

// main registers the nanosim commands and exits with status 1 if the
// executed command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "nanosim",
		Short:         "discrete-time two-body simulator with an interval timeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(logLevel, os.Stderr))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nanosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and save its timeline",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&archivePath, "archive", "", "also archive the timeline into this sqlite file")
	runCmd.Flags().StringVarP(&outFile, "out", "o", "", "also write the timeline JSON here (e.g. data.json)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().BoolVar(&saveLive, "save", false, "save the run if it completes")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run independent simulations with consecutive seeds in parallel",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addSimFlags(ensembleCmd)
	ensembleCmd.Flags().IntVarP(&numRuns, "runs", "n", 8, "number of runs")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot an agent's trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&agentName, "agent", "Satellite", "agent to plot")
	plotCmd.Flags().StringVar(&field, "field", "separation", "field to plot: separation or one of x, y, vx, vy, speed, time_step")
	plotCmd.Flags().BoolVar(&orbit, "orbit", false, "draw all trajectories in the plane instead")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate the orbital period from the resampled timeline",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&agentName, "agent", "Satellite", "orbiting agent")
	analyzeCmd.Flags().IntVar(&samples, "samples", 1024, "uniform samples taken from the timeline")

	universeCmd := &cobra.Command{
		Use:   "universe [run_id] [t]",
		Short: "reconstruct the joint state of all agents at time t",
		Args:  cobra.ExactArgs(2),
		RunE:  showUniverse,
	}
	universeCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export the timeline as JSON records [low, high, payload]",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the timeline as CSV, one row per record and agent",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render trajectories as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")
	svgCmd.Flags().BoolVar(&braille, "braille", false, "render the braille canvas as dots")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, ensembleCmd, listCmd, showCmd, plotCmd, analyzeCmd, universeCmd,
		exportJSONCmd, exportCSVCmd, svgCmd, presetsCmd, newArchiveCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	f.IntVar(&iterations, "iterations", 500, "scheduler iterations")
	f.Float64Var(&minStep, "min-step", 0.01, "smallest random time step")
	f.Float64Var(&maxStep, "max-step", 0.1, "largest random time step")
	f.Float64Var(&epsilon, "epsilon", 0.001, "read offset below an agent's clock")
	f.StringVar(&integrator, "integrator", "symplectic", "integrator (symplectic, euler, leapfrog)")
	f.StringVar(&onSingularity, "on-singularity", "abort", "singularity policy (abort, skip)")
	f.IntVar(&stallLimit, "stall-limit", 0, "abort when an agent makes no progress for this many iterations (0 disables)")
	f.Float64Var(&mu, "mu", 1, "gravitational parameter")
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
