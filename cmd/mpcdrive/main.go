package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dataDir     string
	verbose     bool
	configFile  string
	horizon     int
	maxTicks    int
	seed        int64
	integrator  string
	controller  string
	method      string
	warmStart   bool
	strict      bool
	pathFile    string
	output      string
	svgFile     string
	benchTrials int
	jitter      float64
	metricName  string
	gridParams  []string
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	progress    int

	logger = zap.NewNop()
)

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = !verbose
	return cfg.Build()
}

// addRunFlags registers the flags that override a run configuration.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&horizon, "horizon", 10, "number of waypoints the controller looks ahead")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 0, "stop after this many ticks (0 = whole path)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for jittered runs")
	cmd.Flags().StringVar(&integrator, "integrator", "euler", "integrator (euler, rk4)")
	cmd.Flags().StringVar(&controller, "controller", "mpc", "controller (mpc, pursuit, none)")
	cmd.Flags().StringVar(&method, "method", "lbfgs", "solver method (lbfgs, bfgs, nelder-mead)")
	cmd.Flags().BoolVar(&warmStart, "warm-start", false, "seed the solver with the previous plan")
	cmd.Flags().BoolVar(&strict, "strict", false, "coast instead of applying unconverged commands")
	cmd.Flags().StringVar(&pathFile, "path", "", "track waypoints from a csv or yaml file")
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "mpcdrive",
		Short:         "model predictive path tracking for a kinematic bicycle",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mpcdrive", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "drive a path and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDrive,
	}
	addRunFlags(runCmd)
	runCmd.Flags().IntVar(&progress, "progress", 25, "log progress every n ticks (0 = off, shown with -v)")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "drive a path with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also write the trajectory as svg")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [preset] [controller1] [controller2] ...",
		Short: "compare controllers on the same path",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareControllers,
	}
	addRunFlags(compareCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search the MPC weights",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneWeights,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridParams, "grid", []string{"q=0.5,1,2", "rd_steer=0.1,1"}, "weight=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&metricName, "metric", "tracking_rms", "metric to minimize")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "sweep one parameter across a range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepParameter,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "horizon", "horizon or an MPC weight")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 2, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 20, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "run jittered starts in parallel and time them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchRuns,
	}
	addRunFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchTrials, "runs", 8, "number of runs")
	benchCmd.Flags().Float64Var(&jitter, "jitter", 1.0, "start position noise half-width")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, presetsCmd, compareCmd, tuneCmd, sweepCmd, scenarioCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
