package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/flexsim/internal/analysis"
	"github.com/san-kum/flexsim/internal/automation"
	"github.com/san-kum/flexsim/internal/config"
	"github.com/san-kum/flexsim/internal/experiment"
	"github.com/san-kum/flexsim/internal/export"
	"github.com/san-kum/flexsim/internal/memory"
	"github.com/san-kum/flexsim/internal/optim"
	"github.com/san-kum/flexsim/internal/sim"
	"github.com/san-kum/flexsim/internal/space"
	"github.com/san-kum/flexsim/internal/store"
	"github.com/san-kum/flexsim/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir   string
	verbosity int

	dt         float64
	duration   float64
	backend    string
	resolution int
	stiffness  float64
	height     float64
	configFile string
	preset     string
	jsonOut    bool

	frameRate int

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	sweepDt    float64
	sweepTime  float64

	trials  int
	perturb float64
	seed    int64

	inspectSteps int

	svgOut     string
	svgPath    bool
	tuneMetric string
)

func newLogger(v int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: v})
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "flexsim",
		Short: "particle physics space with shared solver buffers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive(newLogger(verbosity))
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".flexsim", "data directory")
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbose", "v", 0, "log verbosity")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addModelFlags(runCmd)
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run simulation with live terminal rendering",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addModelFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [model]",
		Short: "benchmark model across resolutions and backends",
		Args:  cobra.ExactArgs(1),
		RunE:  benchModel,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [model]",
		Short: "show buffer usage and chunk layout",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectModel,
	}
	addModelFlags(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectSteps, "steps", 1, "steps to run before inspecting")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario (yaml)",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "sweep one body parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "stiffness", "body parameter")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1.0, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().Float64Var(&sweepDt, "dt", config.DefaultDt, "timestep")
	sweepCmd.Flags().Float64Var(&sweepTime, "time", 2.0, "duration")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "run perturbed trials concurrently",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	addModelFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 8, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.01, "position jitter per axis")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 for time based")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and settling analysis of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render the final particle snapshot or center path as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file, stdout when empty")
	svgCmd.Flags().BoolVar(&svgPath, "path", false, "draw the center path instead of particles")

	tuneCmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid search stiffness and resolution for the lowest metric",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneModel,
	}
	addModelFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "energy_drift", "metric to minimize")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models and backends",
		Run: func(cmd *cobra.Command, args []string) {
			reg := experiment.NewRegistry()
			fmt.Println("models:")
			for _, m := range reg.ListModels() {
				fmt.Printf("  %s\n", m)
			}
			fmt.Println("backends:")
			for _, b := range reg.ListBackends() {
				fmt.Printf("  %s\n", b)
			}
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive(newLogger(verbosity))
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, benchCmd, inspectCmd,
		scenarioCmd, sweepCmd, monteCarloCmd, analyzeCmd, svgCmd, tuneCmd, presetsCmd, modelsCmd, initCmd, tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&backend, "backend", "auto", "solver backend (auto, cpu, flex)")
	cmd.Flags().IntVar(&resolution, "resolution", 0, "model resolution")
	cmd.Flags().Float64Var(&stiffness, "stiffness", 0, "constraint stiffness")
	cmd.Flags().Float64Var(&height, "height", 0, "initial height")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// buildConfig layers defaults, preset, config file and changed flags, in
// that order.
func buildConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.Model = model

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("resolution") {
		cfg.Body.Resolution = resolution
	}
	if flags.Changed("stiffness") {
		cfg.Body.Stiffness = float32(stiffness)
	}
	if flags.Changed("height") {
		cfg.Body.Height = float32(height)
	}
	if flags.Changed("verbose") {
		cfg.Verbosity = verbosity
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runInfo(cfg *config.Config, backendName string) store.RunInfo {
	return store.RunInfo{
		Model:    cfg.Model,
		Backend:  backendName,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	log := newLogger(cfg.Verbosity)

	registry := experiment.NewRegistry()
	exp := experiment.New(cfg, log)
	defer exp.Close()
	if err := exp.Setup(registry, registry.DefaultMetrics(cfg)); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if !jsonOut {
		fmt.Printf("running %s simulation (%d particles, %s)...\n",
			cfg.Model, exp.Body().ParticleCount(), exp.Space().Backend().Name())
	}
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	info := runInfo(cfg, exp.Space().Backend().Name())
	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(info, result, exp.Space())
	if err != nil {
		return err
	}

	if jsonOut {
		return store.WriteJSON(os.Stdout, info, result)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if exp.Contacts() > 0 {
		fmt.Printf("contacts: %d\n", exp.Contacts())
	}
	for _, err := range result.Errors {
		fmt.Printf("error: %v\n", err)
	}
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, newLogger(cfg.Verbosity))
	defer exp.Close()
	if err := exp.Setup(experiment.NewRegistry(), nil); err != nil {
		return err
	}

	renderer := tui.NewLiveRenderer(cfg.Model, frameRate)

	ctx, cancel := signalContext()
	defer cancel()

	renderer.Start()
	defer renderer.Stop()

	// Pace steps to real time so the rendering is watchable.
	pace := time.Duration(cfg.Dt * float64(time.Second))
	next := time.Now()
	step := 0
	err = exp.Simulator().RunWithCallback(ctx, experiment.SimConfig(cfg), func(sp *space.Space, t float64) bool {
		renderer.OnStep(sp, step, t)
		step++
		next = next.Add(pace)
		time.Sleep(time.Until(next))
		return true
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tBACKEND\tTIME\tDURATION\tDT\tSTEPS\tPARTICLES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Model,
			run.Backend,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
			run.Particles,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(sim.Sample) float64
	}{
		{"kinetic energy", func(s sim.Sample) float64 { return s.KineticEnergy }},
		{"center height", func(s sim.Sample) float64 { return float64(s.Center[1]) }},
		{"lowest particle", func(s sim.Sample) float64 { return float64(s.MinHeight) }},
		{"live particles", func(s sim.Sample) float64 { return float64(s.Particles) }},
	}
	for _, sr := range series {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = sr.value(s)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	result := &sim.Result{
		Samples:    samples,
		Metrics:    meta.Metrics,
		Events:     meta.Events,
		StepsTaken: meta.Steps,
	}
	info := store.RunInfo{Model: meta.Model, Backend: meta.Backend, Dt: meta.Dt, Duration: meta.Duration}
	return store.WriteJSON(os.Stdout, info, result)
}

func benchModel(cmd *cobra.Command, args []string) error {
	model := args[0]
	registry := experiment.NewRegistry()
	log := newLogger(verbosity)

	resolutions := []int{4, 8, 16}
	backends := []string{"cpu", "flex"}

	fmt.Printf("benchmarking %s\n\n", model)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RESOLUTION\tBACKEND\tPARTICLES\tSTEPS\tTIME\tSTEPS/SEC")

	for _, res := range resolutions {
		for _, be := range backends {
			cfg := config.DefaultConfig()
			cfg.Model = model
			cfg.Backend = be
			cfg.Duration = 1.0
			cfg.Body.Resolution = res

			exp := experiment.New(cfg, log)
			if err := exp.Setup(registry, nil); err != nil {
				exp.Close()
				return err
			}

			start := time.Now()
			result, err := exp.Run(context.Background())
			elapsed := time.Since(start)
			particles := exp.Body().ParticleCount()
			name := exp.Space().Backend().Name()
			exp.Close()
			if err != nil {
				return err
			}

			stepsPerSec := float64(result.StepsTaken) / elapsed.Seconds()
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%v\t%.0f\n",
				res, name, particles, result.StepsTaken, elapsed, stepsPerSec)
		}
	}

	return w.Flush()
}

func inspectModel(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, newLogger(cfg.Verbosity))
	defer exp.Close()
	if err := exp.Setup(experiment.NewRegistry(), nil); err != nil {
		return err
	}
	sp := exp.Space()
	for i := 0; i < inspectSteps; i++ {
		if err := sp.Step(float32(cfg.Dt)); err != nil {
			return err
		}
	}

	st := sp.Stats()
	fmt.Printf("backend: %s  bodies: %d  steps: %d\n\n", st.Backend, st.Bodies, st.Steps)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUFFER\tUSED\tCAPACITY\tOCCUPANCY\tCHUNKS\tREMOVED")
	for _, u := range st.Buffers {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\t%d\t%d\n",
			u.Kind, u.Used, u.Capacity, 100*u.Occupancy(), u.Chunks, u.Removed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nchunks:")
	for _, k := range memory.Kinds() {
		for _, c := range sp.Store().Allocator(k).Chunks() {
			fmt.Printf("  %s\n", c)
		}
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	log := newLogger(verbosity)
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODEL\tSTEPS\tEVENTS\tERRORS\tPARTICLES\tREMOVED")
	for _, r := range results {
		u := r.Stats.Usage(memory.KindParticles)
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.Name, r.Config.Model, r.Result.StepsTaken, len(r.Result.Events),
			len(r.Result.Errors), u.Used, u.Removed)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	sweep := &automation.ParameterSweep{
		Model:     args[0],
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Duration:  sweepTime,
		Dt:        sweepDt,
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, sweep, experiment.NewRegistry(), newLogger(verbosity))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL Y\tMIN KE\tMAX KE\tSTABLE\n", sweepParam)
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\t%.4f\t%v\n",
			r.ParamValue, r.FinalCenter[1], r.MinEnergy, r.MaxEnergy, r.Stable)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Config:       cfg,
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         seed,
	}, experiment.NewRegistry(), newLogger(verbosity))
	if err != nil {
		return err
	}

	heights := make([]float64, len(results))
	for i, r := range results {
		heights[i] = float64(r.FinalCenter[1])
	}
	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d  stable: %d  unstable: %d\n\n", len(results), stable, unstable)
	if len(heights) > 1 {
		fmt.Println(asciigraph.Plot(heights,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("final center height per trial"),
		))
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("not enough samples to analyze")
	}

	interval := analysis.SampleInterval(samples)
	fmt.Printf("run: %s (%s, %d samples every %.4fs)\n\n", meta.ID, meta.Model, len(samples), interval)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tDOMINANT HZ\tSETTLED AT")
	fields := []struct {
		name  string
		field analysis.Field
	}{
		{"center x", analysis.CenterX},
		{"center y", analysis.CenterY},
		{"lowest particle", analysis.MinHeight},
		{"kinetic energy", analysis.KineticEnergy},
	}
	for _, f := range fields {
		series := analysis.Series(samples, f.field)
		fmt.Fprintf(w, "%s\t%.3f\t%.3fs\n", f.name,
			analysis.DominantFrequency(series, interval),
			analysis.SettleTime(samples, f.field, 1e-3))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\ncenter path (x, y):")
	fmt.Print(analysis.PathToASCII(analysis.CenterPath(samples), 60, 16))
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)

	var svg string
	if svgPath {
		samples, err := st.LoadSamples(args[0])
		if err != nil {
			return err
		}
		svg = export.TrajectoryToSVG(analysis.CenterPath(samples), 640, 480, "#00d7af")
	} else {
		particles, err := st.LoadParticles(args[0])
		if err != nil {
			return err
		}
		svg = export.ParticlesToSVG(particles, 640, 480)
	}
	if svg == "" {
		return fmt.Errorf("nothing to draw")
	}

	if svgOut == "" {
		fmt.Println(svg)
		return nil
	}
	return os.WriteFile(svgOut, []byte(svg), 0644)
}

func tuneModel(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	log := newLogger(base.Verbosity)
	registry := experiment.NewRegistry()

	res := float64(base.Body.Resolution)
	g := optim.NewGridSearch(
		[]string{"stiffness", "resolution"},
		[][]float64{{0.25, 0.5, 0.75, 1.0}, {max(res/2, 1), res, res * 2}},
	)

	ctx, cancel := signalContext()
	defer cancel()

	best, val, err := g.Search(ctx, func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *base
		cfg.Body.Stiffness = float32(params["stiffness"])
		cfg.Body.Resolution = int(params["resolution"])
		exp := experiment.New(&cfg, log)
		if err := exp.Setup(registry, registry.DefaultMetrics(&cfg)); err != nil {
			exp.Close()
			return nil, err
		}
		return exp, nil
	}, tuneMetric)
	if err != nil {
		return err
	}

	fmt.Printf("best %s: %.6f\n", tuneMetric, val)
	for _, name := range sortedKeys(best) {
		fmt.Printf("  %s: %g\n", name, best[name])
	}
	return nil
}
