package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/san-kum/pneumostab/internal/config"
	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/export"
	"github.com/san-kum/pneumostab/internal/logging"
	"github.com/san-kum/pneumostab/internal/metrics"
	"github.com/san-kum/pneumostab/internal/road"
	"github.com/san-kum/pneumostab/internal/sim"
	"github.com/san-kum/pneumostab/internal/storage"
	"github.com/san-kum/pneumostab/internal/viz"
	"github.com/spf13/cobra"
)

var (
	v        = config.NewViper()
	settings config.Settings
	log      zerolog.Logger

	dt         float64
	duration   float64
	configFile string
	preset     string
	series     string
	outFile    string
	force      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pneumostab",
		Short:         "pneumatic suspension simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			settings, err = config.LoadSettings(v)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			log = logging.New(os.Stderr, settings.LogLevel, settings.LogJSON)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("data", ".pneumostab", "data directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON lines")
	rootCmd.PersistentFlags().Int("workers", 4, "concurrent scenarios for sweep")
	for key, flag := range map[string]string{"data": "data", "log_level": "log-level", "log_json": "log-json", "workers": "workers"} {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario and store the result",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "pressure", "series: "+strings.Join(export.ListSeries(), ", "))

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "render a run series to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVar(&series, "series", "pressure", "series: "+strings.Join(export.ListSeries(), ", "))
	exportPNGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>_<series>.png)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenario presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a scenario file from a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  initScenario,
	}
	initCmd.Flags().StringVar(&preset, "preset", "default", "preset to start from")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	neutralCmd := &cobra.Command{
		Use:   "neutral",
		Short: "show the equal-volume piston position of each corner",
		Args:  cobra.NoArgs,
		RunE:  showNeutral,
	}
	scenarioFlags(neutralCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scenario with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset...]",
		Short: "run several presets concurrently and compare metrics",
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&duration, "time", 0, "override duration of every preset")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the tick driver",
		Args:  cobra.NoArgs,
		RunE:  benchDriver,
	}
	scenarioFlags(benchCmd)

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, exportPNGCmd,
		presetsCmd, initCmd, neutralCmd, liveCmd, sweepCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "default", "scenario preset")
	cmd.Flags().Float64Var(&dt, "dt", 0, "override timestep")
	cmd.Flags().Float64Var(&duration, "time", 0, "override duration")
}

// loadScenario resolves --config or --preset and applies flag overrides.
func loadScenario(cmd *cobra.Command) (*config.Scenario, error) {
	var sc *config.Scenario
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		sc = loaded
	} else {
		sc = config.GetPreset(preset)
		if sc == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if cmd.Flags().Changed("dt") {
		sc.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		sc.Duration = duration
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// setup builds the driver and road profile of a scenario.
func setup(sc *config.Scenario, logger zerolog.Logger) (*sim.Driver, sim.Profile, error) {
	p, err := sc.Params()
	if err != nil {
		return nil, nil, err
	}
	d, err := sim.NewDriver(p, sim.WithLogger(logger.With().Str("scenario", sc.Name).Logger()))
	if err != nil {
		return nil, nil, err
	}
	prof, err := road.NewRegistry().FromScenario(sc)
	if err != nil {
		return nil, nil, err
	}
	return d, prof, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	var runLog bytes.Buffer
	logger := logging.Tee(os.Stderr, settings.LogLevel, settings.LogJSON, &runLog)

	d, prof, err := setup(sc, logger)
	if err != nil {
		return err
	}

	st := storage.New(settings.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	r := sim.NewRunner(d, prof)
	for _, m := range metrics.Default(sc.Gas.GasConstant) {
		r.AddMetric(m)
	}

	cfg := sc.RunConfig()
	cfg.KeepHistory = true
	r.AddObserver(newProgress(logger, int(math.Round(cfg.Duration/cfg.Dt))))

	logger.Info().Str("scenario", sc.Name).Float64("dt", sc.Dt).Float64("duration", sc.Duration).Msg("running")
	start := time.Now()
	result, runErr := r.Run(context.Background(), cfg)
	if runErr != nil && !sim.IsTickError(runErr) {
		return runErr
	}
	elapsed := time.Since(start)

	if runErr != nil {
		logger.Error().Err(runErr).Int("steps", result.StepsTaken).Msg("run halted")
	} else {
		logger.Info().Int("steps", result.StepsTaken).Dur("elapsed", elapsed).Msg("run complete")
	}

	runID, err := st.Save(sc, result)
	if err != nil {
		return err
	}
	if err := st.SaveLog(runID, runLog.Bytes()); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	printMetrics(os.Stdout, result.Metrics)

	if runErr != nil {
		return fmt.Errorf("run %s halted: %w", runID, runErr)
	}
	return nil
}

// progress logs the simulation state about ten times per run.
type progress struct {
	log   zerolog.Logger
	every int
}

func newProgress(log zerolog.Logger, steps int) progress {
	return progress{log: log, every: max(1, steps/10)}
}

func (p progress) OnSnapshot(s sim.StateSnapshot) {
	if s.Step%p.every != 0 {
		return
	}
	p.log.Debug().
		Int("step", s.Step).
		Float64("t", s.Time).
		Float64("tank_kpa", s.Tank.Pressure/1e3).
		Float64("mass_kg", s.TotalMass()).
		Msg("progress")
}

func printMetrics(w io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6g\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(settings.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tMODE\tSTEPS\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "halted"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Mode,
			run.Steps,
			status,
		)
	}

	return w.Flush()
}

// stored is one run read back from the data directory.
type stored struct {
	meta     *storage.RunMetadata
	scenario *config.Scenario
	snaps    []sim.StateSnapshot
}

func loadRun(runID string) (*stored, error) {
	st := storage.New(settings.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	sc, err := st.LoadScenario(runID)
	if err != nil {
		return nil, err
	}
	snaps, err := st.LoadSnapshots(runID)
	if err != nil {
		return nil, err
	}
	return &stored{meta: meta, scenario: sc, snaps: snaps}, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	meta, snaps := run.meta, run.snaps
	if len(snaps) == 0 {
		return fmt.Errorf("no data to plot")
	}
	kind, ok := export.SeriesKinds[series]
	if !ok {
		return fmt.Errorf("unknown series: %s (available: %v)", series, export.ListSeries())
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	info := export.Summarize(run.scenario)
	fmt.Printf("gas: %s, road: %s, seed: %d\n", info.Mode, info.Road, info.Seed)
	if len(info.ValveLines) > 0 {
		fmt.Printf("valves: %s (flow rate %g)\n", strings.Join(info.ValveLines, " "), info.FlowRate)
	}
	fmt.Printf("samples: %d\n\n", len(snaps))

	for _, c := range dynamo.Corners {
		data := make([]float64, len(snaps))
		for i := range snaps {
			data[i] = kind.Corner(&snaps[i], c)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s %s, %s", strings.ToUpper(c.String()), strings.ToLower(kind.Title), kind.YLabel)),
		))
		fmt.Println()
	}

	if kind.Tank != nil {
		data := make([]float64, len(snaps))
		for i := range snaps {
			data[i] = kind.Tank(&snaps[i])
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption("tank, "+kind.YLabel),
		))
	}
	return nil
}

// output returns the --out file or stdout.
func output() (io.WriteCloser, error) {
	if outFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outFile)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportJSON(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := export.JSON(w, run.meta, run.scenario, run.snaps); err != nil {
		return err
	}
	return w.Close()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	snaps := run.snaps
	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := storage.WriteCSV(w, snaps); err != nil {
		return err
	}
	if outFile != "" {
		fmt.Fprintf(os.Stderr, "exported %d rows to %s\n", len(snaps), outFile)
	}
	return w.Close()
}

func exportPNG(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	snaps := run.snaps
	path := outFile
	if path == "" {
		path = fmt.Sprintf("%s_%s.png", args[0], series)
	}
	if err := export.SavePNG(path, series, snaps); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODE\tROAD\tVALVES\tFLOW RATE\tDURATION")
	for _, name := range config.ListPresets() {
		sc := config.GetPreset(name)
		flow := "instant"
		if sc.Valves.FlowRate > 0 {
			flow = fmt.Sprintf("%g", sc.Valves.FlowRate)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.1fs\n",
			name, sc.Gas.Mode, sc.Road.Profile, len(sc.Valves.Lines), flow, sc.Duration)
	}
	return w.Flush()
}

func initScenario(cmd *cobra.Command, args []string) error {
	path := args[0]
	sc := config.GetPreset(preset)
	if sc == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := config.Save(path, sc); err != nil {
		return err
	}
	fmt.Printf("wrote %s from preset %s\n", path, preset)
	return nil
}

func showNeutral(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	d, _, err := setup(sc, log)
	if err != nil {
		return err
	}

	rest := d.Snapshot()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CORNER\tHEAD mm\tROD mm\tRATIO\tHEAD cm³\tROD cm³\tREST mm")
	for _, c := range dynamo.Corners {
		n := d.Neutral(c)
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.4f\t%.2f\t%.2f\t%.3f\n",
			c, n.Head, n.Rod, n.Ratio(), n.HeadVolume()/1e3, n.RodVolume()/1e3, rest.Corners[c].PistonPosition)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	// The live view owns the terminal.
	log = log.Level(zerolog.Disabled)
	d, prof, err := setup(sc, log)
	if err != nil {
		return err
	}
	return viz.Run(d, prof, sc.Dt, sc.Name)
}

func runSweep(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = config.ListPresets()
	}

	e := sim.NewEnsemble(settings.Workers, sim.WithLogger(log))
	for _, name := range names {
		sc := config.GetPreset(name)
		if sc == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		if cmd.Flags().Changed("time") {
			sc.Duration = duration
		}
		p, err := sc.Params()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		prof, err := road.NewRegistry().FromScenario(sc)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r := sc.Gas.GasConstant
		e.Add(sim.Job{
			Name:    name,
			Params:  p,
			Profile: prof,
			Config:  sc.RunConfig(),
			Metrics: func() []sim.Metric { return metrics.Default(r) },
		})
	}

	start := time.Now()
	results, err := e.Run(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%d scenarios in %v\n\n", len(results), time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tSTEPS\tPEAK kPa\tSTROKE SPAN\tMARGIN\tMOVED g\tMASS DRIFT\tSTATUS")
	for i, res := range results {
		status := "ok"
		if res.Err != nil {
			status = res.Err.Error()
		}
		m := res.Metrics
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.3f\t%.3f\t%.3f\t%.2g\t%s\n",
			names[i], res.StepsTaken, m["peak_pressure"]/1e3, m["stroke_span"], m["stroke_margin"],
			m["transferred_mass"]*1e3, m["mass_drift"], status)
	}
	return w.Flush()
}

func benchDriver(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	durations := []float64{1.0, 5.0}
	dts := []float64{1e-4, 1e-3, 1e-2}

	fmt.Printf("benchmarking %s\n\n", sc.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, step := range dts {
			run := sc.Clone()
			run.Duration, run.Dt = dur, step
			d, prof, err := setup(run, log)
			if err != nil {
				return err
			}

			start := time.Now()
			result, err := sim.NewRunner(d, prof).Run(context.Background(), run.RunConfig())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%.1fs\t%.4fs\t%d\t%v\t%.0f\n",
				dur, step, result.StepsTaken, elapsed, float64(result.StepsTaken)/elapsed.Seconds())
		}
	}

	return w.Flush()
}
