package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/mpcdrive/internal/automation"
	"github.com/san-kum/mpcdrive/internal/config"
	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/experiment"
	"github.com/san-kum/mpcdrive/internal/export"
	"github.com/san-kum/mpcdrive/internal/mpc"
	"github.com/san-kum/mpcdrive/internal/optim"
	"github.com/san-kum/mpcdrive/internal/sim"
	"github.com/san-kum/mpcdrive/internal/storage"
	"github.com/san-kum/mpcdrive/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// resolveConfig builds the run configuration: defaults, then the preset
// named by the first argument, then --config, then explicit flags.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if len(args) > 0 {
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %s)", args[0], strings.Join(config.ListPresets(), ", "))
		}
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("horizon") {
		cfg.Horizon = horizon
	}
	if flags.Changed("max-ticks") {
		cfg.MaxTicks = maxTicks
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	if flags.Changed("method") {
		cfg.MPC.Method = method
	}
	if flags.Changed("warm-start") {
		cfg.MPC.WarmStart = warmStart
	}
	if flags.Changed("strict") {
		cfg.MPC.FailurePolicy = mpc.PolicyAccept
		if strict {
			cfg.MPC.FailurePolicy = mpc.PolicyStrict
		}
	}
	if flags.Changed("path") {
		cfg.Path.Kind = "file"
		cfg.Path.File = pathFile
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func metadata(cfg *config.Config) storage.RunMetadata {
	return storage.RunMetadata{
		Scenario:   cfg.Name,
		Seed:       cfg.Seed,
		Dt:         cfg.Vehicle.Dt,
		Wheelbase:  cfg.Vehicle.Wheelbase,
		Horizon:    cfg.Horizon,
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
	}
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-16s %.6f\n", name+":", m[name])
	}
}

func runDrive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("driving %s: %d waypoints, controller=%s, integrator=%s, horizon=%d\n",
		cfg.Name, len(exp.Path()), cfg.Controller, cfg.Integrator, cfg.Horizon)

	start := time.Now()
	result, err := exp.Run(ctx, sim.WithObservers(sim.NewProgressLogger(logger, progress)))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	runID, err := st.Save(metadata(cfg), exp.Path(), result)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	fmt.Printf("run %s: %d ticks in %v, %d control failures\n", runID, result.StepsTaken, elapsed, len(result.Failures))
	printMetrics(result.Metrics)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal, keep the logger quiet.
	exp, err := experiment.New(cfg, experiment.WithLogger(zap.NewNop()))
	if err != nil {
		return err
	}

	build := func() (*sim.Simulator, error) {
		return exp.Simulator(dynamo.Point{})
	}

	m, err := viz.NewModel(build, exp.Path(), exp.RunConfig(), cfg.Name)
	if err != nil {
		return err
	}
	return viz.RunLive(m)
}

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
	fmt.Fprintln(w, "ID\tCONTROLLER\tINTEGRATOR\tH\tTICKS\tFAIL\tRMS\tTIME")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.4f\t%s\n",
			r.ID, r.Controller, r.Integrator, r.Horizon, r.Ticks, r.Failures,
			r.Metrics["tracking_rms"], r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	planned, err := st.LoadPath(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("run %s has no samples", runID)
	}

	driven := (&dynamo.Result{Samples: samples}).Trajectory()

	fmt.Printf("run %s (%s, %s)\n\n", meta.ID, meta.Controller, meta.Integrator)
	fmt.Println(viz.RenderTrajectory(planned, driven, 80, 24))
	fmt.Println()
	fmt.Println(viz.PlotSeries(viz.SampleSeries(samples), 70, 12))

	if svgFile != "" {
		f, err := os.Create(svgFile)
		if err != nil {
			return err
		}
		err = multierr.Append(export.WriteRunSVG(f, planned, driven, 800, 600), f.Close())
		if err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgFile)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if output == "" {
		return storage.ExportJSON(os.Stdout, *meta, samples)
	}
	if err := storage.ExportJSONFile(output, *meta, samples); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", output)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) (err error) {
	runID := args[0]
	st := storage.New(dataDir)

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if output == "" {
		return storage.WriteSamplesCSV(os.Stdout, samples)
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	if err := storage.WriteSamplesCSV(f, samples); err != nil {
		return err
	}
	fmt.Printf("exported %d samples to %s\n", len(samples), output)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPATH\tCONTROLLER\tINTEGRATOR\tHORIZON")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", name, p.Path.Kind, p.Controller, p.Integrator, p.Horizon)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	r := experiment.NewRegistry()
	fmt.Println()
	fmt.Println("paths:       ", strings.Join(r.ListPaths(), ", "))
	fmt.Println("controllers: ", strings.Join(r.ListControllers(), ", "))
	fmt.Println("integrators: ", strings.Join(r.ListIntegrators(), ", "))
	fmt.Println("methods:     ", strings.Join(mpc.Methods(), ", "))
	return nil
}

func compareControllers(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}

	names := args[1:]
	jobs := make([]sim.Job, 0, len(names))
	for _, name := range names {
		cfg := base.Clone()
		cfg.Controller = name
		if err := cfg.Validate(); err != nil {
			return err
		}
		exp, err := experiment.New(cfg, experiment.WithLogger(logger))
		if err != nil {
			return err
		}
		s, err := exp.Simulator(dynamo.Point{})
		if err != nil {
			return err
		}
		jobs = append(jobs, sim.Job{Name: name, Simulator: s, Path: exp.Path(), Config: exp.RunConfig()})
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	results, err := sim.RunBatch(ctx, jobs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONTROLLER\tTICKS\tFAIL\tRMS\tMAX DEV\tEFFORT\tSMOOTH")
	for i, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%.4f\t%.4f\t%.4f\n",
			names[i], r.StepsTaken, len(r.Failures),
			r.Metrics["tracking_rms"], r.Metrics["max_deviation"],
			r.Metrics["control_effort"], r.Metrics["smoothness"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d runs in %v\n", len(results), time.Since(start))
	return nil
}

// parseGrid turns "name=v1,v2,..." entries into parallel name/range slices.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		name, list, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("bad grid entry %q, want name=v1,v2", entry)
		}
		var vals []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func tuneWeights(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Controller != "mpc" {
		return fmt.Errorf("tune needs the mpc controller, got %q", cfg.Controller)
	}

	names, ranges, err := parseGrid(gridParams)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	gs := optim.NewGridSearch(names, ranges)
	best, value, trials, err := gs.Search(ctx, optim.WeightBuilder(cfg, experiment.WithLogger(logger)), metricName)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metricName))
	for _, tr := range trials {
		cols := make([]string, len(names))
		for i, name := range names {
			cols[i] = strconv.FormatFloat(tr.Params[name], 'g', 4, 64)
		}
		val := "error"
		if tr.Err == nil {
			val = strconv.FormatFloat(tr.Value, 'f', 6, 64)
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), val)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6f with", metricName, value)
	for _, name := range names {
		fmt.Printf(" %s=%g", name, best[name])
	}
	fmt.Println()
	return nil
}

func sweepParameter(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	rms := make([]float64, len(results))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tRMS\tMAX DEV\tFAIL\n", strings.ToUpper(sweepParam))
	for i, r := range results {
		rms[i] = r.Metrics["tracking_rms"]
		fmt.Fprintf(w, "%g\t%.4f\t%.4f\t%d\n", r.ParamValue, rms[i], r.Metrics["max_deviation"], r.Failures)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(rms) > 1 {
		fmt.Println()
		fmt.Println(viz.PlotSeries([]viz.Series{{Name: "tracking_rms", Values: rms}}, 60, 10))
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	results, runErr := automation.RunScenario(ctx, sc, experiment.NewRegistry(), logger)

	st := storage.New(dataDir)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tCONTROLLER\tTICKS\tFAIL\tRMS\tRUN")
	for _, r := range results {
		runID, err := st.Save(metadata(r.Config), r.Path, r.Result)
		if err != nil {
			runErr = multierr.Append(runErr, fmt.Errorf("save %s: %w", r.Name, err))
			runID = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.4f\t%s\n",
			r.Name, r.Config.Controller, r.Result.StepsTaken, len(r.Result.Failures),
			r.Result.Metrics["tracking_rms"], runID)
	}
	return multierr.Append(runErr, w.Flush())
}

func benchRuns(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Vehicle.Jitter = jitter

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	results, err := automation.RunMonteCarlo(ctx, cfg, benchTrials, 2*cfg.Path.Spacing, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	converged, diverged := automation.MonteCarloStats(results)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSTART X\tSTART Y\tRMS\tCONVERGED")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%.4f\t%t\n", r.TrialID, r.Start.X, r.Start.Y, r.Tracking, r.Converged)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ticks := len(results) * tickCount(cfg)
	fmt.Printf("\n%d runs in %v (%d converged, %d diverged)\n", len(results), elapsed, converged, diverged)
	if ticks > 0 {
		fmt.Printf("%.1f ticks/sec, %v per tick\n", float64(ticks)/elapsed.Seconds(), elapsed/time.Duration(ticks))
	}
	return nil
}

// tickCount is the number of ticks one run of cfg takes.
func tickCount(cfg *config.Config) int {
	exp, err := experiment.New(cfg, experiment.WithLogger(zap.NewNop()))
	if err != nil {
		return 0
	}
	n := len(exp.Path())
	if cfg.MaxTicks > 0 && cfg.MaxTicks < n {
		n = cfg.MaxTicks
	}
	return n
}
