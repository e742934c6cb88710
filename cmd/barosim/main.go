package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/san-kum/barosim/internal/analysis"
	"github.com/san-kum/barosim/internal/automation"
	"github.com/san-kum/barosim/internal/config"
	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/experiment"
	"github.com/san-kum/barosim/internal/export"
	"github.com/san-kum/barosim/internal/initial"
	"github.com/san-kum/barosim/internal/ncio"
	"github.com/san-kum/barosim/internal/optim"
	"github.com/san-kum/barosim/internal/sim"
	"github.com/san-kum/barosim/internal/sphere"
	"github.com/san-kum/barosim/internal/storage"
	"github.com/san-kum/barosim/internal/viz"
)

var (
	dataDir    string
	cpuProfile string
	configFile string
	preset     string

	dt         float64
	runTime    float64
	truncation int
	integrator string
	diffusion  float64
	order      int
	robert     float64
	omega      float64
	interval   float64
	startTime  string
	output     string
	metrics    []string

	record int

	searchLo    float64
	searchHi    float64
	searchSteps int
	searchTol   float64
	workers     int

	sweepParam  string
	sweepValues string
	sweepMetric string

	pertSize   float64
	pertSteps  int
	pertRenorm int

	theme string

	trials    int
	posJitter float64
	ampJitter float64
	seed      int64

	svgMetric string
	svgField  string
	svgOut    string

	prof interface{ Stop() }
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("barosim: ")

	rootCmd := &cobra.Command{
		Use:   "barosim",
		Short: "barotropic vorticity model on the sphere",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cpuProfile != "" {
				prof = profile.Start(profile.CPUProfile, profile.ProfilePath(cpuProfile), profile.NoShutdownHook, profile.Quiet)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if prof != nil {
				prof.Stop()
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".barosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "write a CPU profile to this directory")

	runCmd := &cobra.Command{
		Use:   "run [initial]",
		Short: "run a forecast",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runForecast,
	}
	modelFlags(runCmd)
	runCmd.Flags().Float64Var(&interval, "interval", 0, "snapshot interval in seconds")
	runCmd.Flags().StringVar(&output, "output", "", "NetCDF snapshot file")
	runCmd.Flags().StringSliceVar(&metrics, "metric", nil, "extra metrics to record")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and diagnostics to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [initial]",
		Short: "list available presets for an initial condition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for initial condition: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [file.nc]",
		Short: "energy and enstrophy spectra of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrum,
	}
	spectrumCmd.Flags().IntVar(&record, "record", -1, "snapshot record (default last)")

	stabilityCmd := &cobra.Command{
		Use:   "stability [initial]",
		Short: "bracket the largest stable time step",
		Args:  cobra.MaximumNArgs(1),
		RunE:  stability,
	}
	modelFlags(stabilityCmd)
	def := optim.DefaultStepSearch()
	stabilityCmd.Flags().Float64Var(&searchLo, "lo", def.Lo, "smallest time step probed (s)")
	stabilityCmd.Flags().Float64Var(&searchHi, "hi", def.Hi, "largest time step probed (s)")
	stabilityCmd.Flags().IntVar(&searchSteps, "steps", def.Steps, "steps per probe")
	stabilityCmd.Flags().Float64Var(&searchTol, "tol", def.Tol, "relative bracket width to stop at")
	stabilityCmd.Flags().IntVar(&workers, "workers", 0, "concurrent probes (default GOMAXPROCS)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [initial]",
		Short: "run one forecast per parameter value and report the best",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweep,
	}
	modelFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "diffusion", "parameter to vary")
	sweepCmd.Flags().StringVar(&sweepValues, "values", "0,1e-5,1e-4", "comma separated values")
	sweepCmd.Flags().StringVar(&sweepMetric, "minimize", "enstrophy_growth", "metric to minimize")

	growthCmd := &cobra.Command{
		Use:   "growth [initial]",
		Short: "perturbation growth rate of a flow",
		Args:  cobra.MaximumNArgs(1),
		RunE:  growth,
	}
	modelFlags(growthCmd)
	growthCmd.Flags().Float64Var(&pertSize, "eps", 1e-3, "relative perturbation size")
	growthCmd.Flags().IntVar(&pertSteps, "steps", 360, "steps to integrate")
	growthCmd.Flags().IntVar(&pertRenorm, "renorm", 36, "steps between renormalizations")

	liveCmd := &cobra.Command{
		Use:   "live [initial]",
		Short: "run a forecast with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	modelFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "ocean", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run a scripted sequence of forecasts",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [initial]",
		Short: "Monte Carlo ensemble of perturbed vortex forecasts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	modelFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&trials, "trials", 16, "ensemble members")
	ensembleCmd.Flags().Float64Var(&posJitter, "pos", 2, "vortex position jitter (degrees)")
	ensembleCmd.Flags().Float64Var(&ampJitter, "amp", 0.1, "relative vortex amplitude jitter")
	ensembleCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "concurrent members (default GOMAXPROCS)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "chart a run diagnostic as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&svgMetric, "metric", "enstrophy", "diagnostic to chart")
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")

	snapshotSVGCmd := &cobra.Command{
		Use:   "snapshot-svg [file.nc]",
		Short: "draw a snapshot field as an SVG heat map",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotSVG,
	}
	snapshotSVGCmd.Flags().StringVar(&svgField, "field", "vorticity", "field to draw")
	snapshotSVGCmd.Flags().IntVar(&record, "record", -1, "snapshot record (default last)")
	snapshotSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, exportSVGCmd, presetsCmd, spectrumCmd, snapshotSVGCmd,
		stabilityCmd, sweepCmd, growthCmd, scenarioCmd, ensembleCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func modelFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", def.Dt, "time step (s)")
	cmd.Flags().Float64Var(&runTime, "time", def.RunTime, "run time (s)")
	cmd.Flags().IntVar(&truncation, "truncation", def.Truncation, "triangular truncation T")
	cmd.Flags().StringVar(&integrator, "integrator", def.Integrator, "integrator")
	cmd.Flags().Float64Var(&diffusion, "diffusion", def.Physics.Diffusion, "diffusion coefficient at the truncation wavenumber (s⁻¹)")
	cmd.Flags().IntVar(&order, "order", def.Physics.DiffusionOrder, "diffusion order")
	cmd.Flags().Float64Var(&robert, "robert", def.Filter.Robert, "Robert-Asselin coefficient")
	cmd.Flags().Float64Var(&omega, "omega", def.Physics.Omega, "planetary rotation rate (s⁻¹)")
	cmd.Flags().StringVar(&startTime, "start", "", "start time (RFC3339)")
}

// loadConfig resolves defaults, then a preset, then a config file, then the
// flags the user set.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Initial = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Initial, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Initial))
		}
		cfg = p
	}

	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			c.Initial = args[0]
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.RunTime = runTime
	}
	if flags.Changed("truncation") {
		cfg.Truncation = truncation
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("diffusion") {
		cfg.Physics.Diffusion = diffusion
	}
	if flags.Changed("order") {
		cfg.Physics.DiffusionOrder = order
	}
	if flags.Changed("robert") {
		cfg.Filter.Robert = robert
	}
	if flags.Changed("omega") {
		cfg.Physics.Omega = omega
	}
	if flags.Changed("start") {
		cfg.StartTime = startTime
	}
	if flags.Changed("interval") {
		cfg.Snapshot.Interval = interval
	}
	if flags.Changed("output") {
		cfg.Output = output
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runForecast(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry())
	if err := exp.Setup(metrics...); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.Printf("running %s at T%d, dt=%gs for %.2f days", cfg.Initial, cfg.Truncation, cfg.Dt, cfg.RunTime/86400)
	start := time.Now()
	result, runErr := exp.Run(ctx, func(st *dynamo.State) error {
		log.Printf("snapshot %d at %s", st.Step, exp.Model().ValidTime().UTC().Format(time.RFC3339))
		return nil
	})
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	meta := exp.Metadata(result, runErr)
	runID, err := st.Save(meta, result.Diagnostics)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.Steps)
	fmt.Printf("valid time: %s\n", result.ValidTime.UTC().Format(time.RFC3339))
	if result.Snapshots > 0 && cfg.Output != "" {
		fmt.Printf("snapshots: %d -> %s\n", result.Snapshots, cfg.Output)
	}
	fmt.Println("\nmetrics:")
	for _, name := range sortedNames(result.Metrics) {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}

	if runErr != nil {
		return fmt.Errorf("run %s failed: %w", runID, runErr)
	}
	return nil
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
	fmt.Fprintln(w, "ID\tINITIAL\tTIME\tTRUNC\tDT\tDAYS\tINTEG\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\tT%d\t%gs\t%.2f\t%s\t%s\n",
			run.ID,
			run.Initial,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Truncation,
			run.Dt,
			run.RunTime/86400,
			run.Integrator,
			status,
		)
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
	diag, err := st.LoadDiagnostics(runID)
	if err != nil {
		return err
	}
	if len(diag.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("initial: %s\n", meta.Initial)
	fmt.Printf("samples: %d over %.2f days\n\n", len(diag.Times), diag.Times[len(diag.Times)-1]/86400)

	for _, name := range diag.Names {
		graph := asciigraph.Plot(diag.Column(name),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs step"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	diag, err := st.LoadDiagnostics(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, diag)
}

func spectrum(cmd *cobra.Command, args []string) error {
	r, err := ncio.Open(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	rec := record
	if rec < 0 {
		rec = r.Records() - 1
	}
	vrt, err := r.Field("vorticity", rec)
	if err != nil {
		return err
	}
	nlat, nlon := r.Shape()
	eng, err := sphere.New(r.Truncation, nlat, nlon, r.Radius)
	if err != nil {
		return err
	}
	s, err := eng.ToSpectral(vrt)
	if err != nil {
		return err
	}
	times, err := r.Times()
	if err != nil {
		return err
	}

	valid := r.Start.Add(time.Duration(times[rec] * float64(time.Second)))
	fmt.Printf("snapshot %d of %s (T%d, valid %s)\n\n", rec, args[0], r.Truncation, valid.UTC().Format(time.RFC3339))

	ke := analysis.EnergySpectrum(s, r.Radius)
	ens := analysis.EnstrophySpectrum(s)
	for _, p := range []struct {
		caption string
		data    []float64
	}{
		{"kinetic energy by total wavenumber n", ke},
		{"enstrophy by total wavenumber n", ens},
	} {
		fmt.Println(asciigraph.Plot(p.data, asciigraph.Height(12), asciigraph.Width(2*len(p.data)), asciigraph.Caption(p.caption)))
		fmt.Println()
	}

	zonal := analysis.ZonalSpectrum(vrt, eng.Weights())
	fmt.Printf("energy centroid n: %.2f\n", analysis.Centroid(ke))
	fmt.Printf("enstrophy centroid n: %.2f\n", analysis.Centroid(ens))
	fmt.Printf("zonal vorticity centroid m: %.2f\n", analysis.Centroid(zonal))
	return nil
}

func stability(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	mc, err := cfg.ModelConfig()
	if err != nil {
		return err
	}
	vrt, err := cfg.InitialField(cfg.Grid())
	if err != nil {
		return err
	}

	s := optim.DefaultStepSearch()
	s.Lo, s.Hi, s.Steps, s.Tol, s.Workers = searchLo, searchHi, searchSteps, searchTol, workers

	ctx, cancel := signalContext()
	defer cancel()

	log.Printf("searching dt in [%g, %g] s for %s at T%d", s.Lo, s.Hi, cfg.Initial, cfg.Truncation)
	b, err := s.Search(ctx, mc, vrt)
	if err != nil {
		return err
	}
	fmt.Println(b)
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	var values []float64
	for _, f := range strings.Split(sweepValues, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return fmt.Errorf("bad value %q: %w", f, err)
		}
		values = append(values, v)
	}

	reg := experiment.NewRegistry()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *base
		for k, v := range params {
			if err := cfg.SetParam(k, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(&cfg, reg)
		if err := exp.Setup(sweepMetric); err != nil {
			log.Printf("%s=%v: %v", sweepParam, params[sweepParam], err)
			return nil, err
		}
		return exp, nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	gs := optim.NewGridSearch([]string{sweepParam}, [][]float64{values})
	best, val, err := gs.Search(ctx, build, sweepMetric)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no run of %v finished", values)
	}
	fmt.Printf("best %s: %g (%s = %.6g)\n", sweepParam, best[sweepParam], sweepMetric, val)
	return nil
}

func growth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	mc, err := cfg.ModelConfig()
	if err != nil {
		return err
	}
	g := cfg.Grid()
	vrt, err := cfg.InitialField(g)
	if err != nil {
		return err
	}
	v := cfg.Vortex
	pert := initial.Vortex(g, v.Lat+5, v.Lon+10, v.Amplitude, v.Width)

	ctx, cancel := signalContext()
	defer cancel()

	log.Printf("twin runs of %s for %d steps", cfg.Initial, pertSteps)
	rate, err := analysis.PerturbationGrowth(ctx, mc, vrt, pert, pertSize, pertSteps, pertRenorm)
	if err != nil {
		return err
	}
	fmt.Printf("growth rate: %.4g s⁻¹ (%.4g day⁻¹)\n", rate, rate*86400)
	if rate > 0 {
		fmt.Printf("e-folding time: %.2f days\n", 1/rate/86400)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	viz.SetTheme(theme)

	reg := experiment.NewRegistry()
	build := func() (*sim.Model, error) {
		exp := experiment.New(cfg, reg)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		return exp.Model(), nil
	}

	m, err := viz.NewModel(cfg.Initial, build, cfg.RunTime)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.Printf("scenario %s: %d steps", sc.Name, len(sc.Steps))
	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), st)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tSTEPS\tDAYS\tSTATUS")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\n", r.Name, r.RunID, r.Result.Steps, r.Result.Time/86400, status)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	mc := &automation.MonteCarloConfig{
		Base:      cfg,
		NumTrials: trials,
		PosJitter: posJitter,
		AmpJitter: ampJitter,
		Steps:     int(math.Ceil(cfg.RunTime/cfg.Dt - 1e-9)),
		Seed:      seed,
		Workers:   workers,
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.Printf("%d members of %s for %.2f days", trials, cfg.Initial, cfg.RunTime/86400)
	results, err := automation.RunMonteCarlo(ctx, mc)
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	mean, spread := automation.Spread(results)
	fmt.Printf("stable: %d  unstable: %d\n", stable, unstable)
	if stable > 0 {
		fmt.Printf("mean final vortex: %.2f°, %.2f°\n", mean.Lat, mean.Lon)
		fmt.Printf("spread: %.2f°\n", spread)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	diag, err := st.LoadDiagnostics(args[0])
	if err != nil {
		return err
	}
	values := diag.Column(svgMetric)
	if values == nil {
		return fmt.Errorf("run %s has no diagnostic %q (have %v)", args[0], svgMetric, diag.Names)
	}
	days := make([]float64, len(diag.Times))
	for i, t := range diag.Times {
		days[i] = t / 86400
	}
	svg := export.SeriesToSVG(days, values, 800, 300, "#00a8cc", args[0]+": "+svgMetric)
	if svg == "" {
		return fmt.Errorf("not enough finite samples to chart")
	}
	return writeOut(svg)
}

func snapshotSVG(cmd *cobra.Command, args []string) error {
	r, err := ncio.Open(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	rec := record
	if rec < 0 {
		rec = r.Records() - 1
	}
	g, err := r.Field(svgField, rec)
	if err != nil {
		return err
	}
	return writeOut(export.FieldToSVG(g, 6, fmt.Sprintf("%s record %d", svgField, rec)))
}

func writeOut(s string) error {
	if svgOut == "" {
		_, err := fmt.Println(s)
		return err
	}
	return os.WriteFile(svgOut, []byte(s+"\n"), 0644)
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
