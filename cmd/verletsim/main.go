package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/export"
	"github.com/san-kum/verletsim/internal/gui"
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/scenario"
	"github.com/san-kum/verletsim/internal/sim"
	"github.com/san-kum/verletsim/internal/storage"
	"github.com/san-kum/verletsim/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logFile  string
	// Config source
	configFile string
	preset     string
	// Overrides, applied only when set on the command line
	seed       int64
	subSteps   int
	maxObjects int
	workers    int
	// Headless run
	frames      int
	sampleEvery int
	frameEvery  int
	strict      bool
	numRuns     int
	noSave      bool
	// Exports
	outFile    string
	frameIndex int
	gifScale   float64
	gifDelay   int
	plotSVG    string
)

// main registers the commands and runs the root command; with no
// subcommand it opens the GUI preset menu.
func main() {
	rootCmd := &cobra.Command{
		Use:   "verletsim",
		Short: "verlet particle sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := newLogger(cmd, false)
			if err != nil {
				return err
			}
			defer closeLog()
			return gui.RunInteractive(resolveSeed(cmd, 0), logger)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".verletsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed (default: config seed or current time)")

	addConfigFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
		cmd.Flags().StringVar(&preset, "preset", "default", "use preset configuration")
		cmd.Flags().IntVar(&subSteps, "sub-steps", 0, "substeps per frame")
		cmd.Flags().IntVar(&maxObjects, "max-objects", 0, "particle cap")
		cmd.Flags().IntVar(&workers, "workers", 1, "solver workers (0 = one per CPU)")
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless and save the samples",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", 600, "frames to simulate")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", 10, "frames between samples")
	runCmd.Flags().IntVar(&frameEvery, "frame-every", 0, "frames between particle snapshots (0 = none)")
	runCmd.Flags().BoolVar(&strict, "strict", false, "stop on grid overflow")
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "number of runs on consecutive seeds")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print the summary only")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run in the terminal with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "terminal preset menu and parameter editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := newLogger(cmd, true)
			if err != nil {
				return err
			}
			defer closeLog()
			return viz.RunInteractive(resolveSeed(cmd, 0), logger)
		},
	}

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run in a window",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}
	addConfigFlags(guiCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time frames at increasing particle counts",
		Args:  cobra.NoArgs,
		RunE:  benchSolver,
	}
	addConfigFlags(benchCmd)
	benchCmd.Flags().IntVar(&frames, "frames", 120, "timed frames per count")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run samples",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotSVG, "svg", "", "also write kinetic energy over time to this svg file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render one stored snapshot to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&frameIndex, "frame", -1, "snapshot index (-1 = last)")
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportGIFCmd := &cobra.Command{
		Use:   "export-gif [run_id]",
		Short: "render stored snapshots to an animated GIF",
		Args:  cobra.ExactArgs(1),
		RunE:  exportGIF,
	}
	exportGIFCmd.Flags().StringVarP(&outFile, "out", "o", "verletsim.gif", "output file")
	exportGIFCmd.Flags().Float64Var(&gifScale, "scale", 0.5, "pixels per world unit")
	exportGIFCmd.Flags().IntVar(&gifDelay, "delay", 2, "frame delay in 100ths of a second")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [file]",
		Short: "write a preset as an editable config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(preset)
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s preset to %s\n", preset, args[0])
			return nil
		},
	}
	initCmd.Flags().StringVar(&preset, "preset", "default", "preset to write")

	rootCmd.AddCommand(runCmd, liveCmd, tuiCmd, guiCmd, benchCmd, scenarioCmd, listCmd, plotCmd,
		exportCmd, exportCSVCmd, exportSVGCmd, exportGIFCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger. Full screen modes log nowhere unless
// --log-file is given.
func newLogger(cmd *cobra.Command, fullscreen bool) (*log.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeLog := func() {}
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeLog = func() { f.Close() }
	case fullscreen:
		w = io.Discard
	}

	level := log.InfoLevel
	if logLevel != "" {
		lvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return nil, nil, err
		}
		level = lvl
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          cmd.Name(),
	})
	return logger, closeLog, nil
}

// loadConfig resolves --config or --preset and applies the overrides that
// were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		name string
	)
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", err
		}
		cfg, name = c, "custom"
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		name = preset
	}

	if cmd.Flags().Changed("sub-steps") {
		cfg.Solver.SubSteps = subSteps
	}
	if cmd.Flags().Changed("max-objects") {
		cfg.Spawn.MaxObjects = maxObjects
	}
	if cmd.Flags().Changed("workers") {
		cfg.Solver.Workers = workers
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func resolveSeed(cmd *cobra.Command, fallback int64) int64 {
	if cmd.Flags().Changed("seed") {
		return seed
	}
	if fallback != 0 {
		return fallback
	}
	return time.Now().UnixNano()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cmd, false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	baseSeed := resolveSeed(cmd, cfg.Seed)
	simCfg := sim.Config{
		Frames:      frames,
		SampleEvery: sampleEvery,
		FrameEvery:  frameEvery,
		Emit:        true,
		Strict:      strict,
	}

	ensemble := sim.NewEnsemble(func(seed int64) (*sim.Simulator, error) {
		s, err := sim.FromConfig(cfg, seed)
		if err != nil {
			return nil, err
		}
		s.SetLogger(logger.With("seed", seed))
		s.Solver().SetLogger(logger.With("seed", seed))
		return s, nil
	}, numRuns, baseSeed)

	logger.Info("running", "preset", name, "frames", frames, "runs", numRuns, "seed", baseSeed)
	start := time.Now()
	results, err := ensemble.Run(ctx, simCfg)
	if err != nil {
		return err
	}
	logger.Info("done", "elapsed", time.Since(start).Round(time.Millisecond))

	st := storage.New(dataDir)
	if !noSave {
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tFRAMES\tOBJECTS\tKE\tESCAPED\tOVERFLOW\tRUN")
	for i, res := range results {
		runSeed := baseSeed + int64(i)
		for _, e := range res.Errors {
			logger.Warn("run stopped early", "seed", runSeed, "err", e)
		}

		objects := 0
		if n := len(res.Samples); n > 0 {
			objects = res.Samples[n-1].Objects
		}

		runID := "-"
		if !noSave {
			runID, err = st.Save(storage.RunMetadata{
				Preset:   name,
				Seed:     runSeed,
				StepDt:   cfg.Solver.StepDt,
				SubSteps: cfg.Solver.SubSteps,
				Width:    cfg.Window.Width,
				Height:   cfg.Window.Height,
				Frames:   res.Steps,
				Objects:  objects,
				Overflow: res.Overflow,
				Metrics:  res.Metrics,
			}, res)
			if err != nil {
				return err
			}
		}

		fmt.Fprintf(w, "%d\t%d\t%d\t%.1f\t%.0f\t%d\t%s\n",
			runSeed, res.Steps, objects, res.Metrics["kinetic_energy"], res.Metrics["escaped"], res.Overflow, runID)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cmd, true)
	if err != nil {
		return err
	}
	defer closeLog()
	return viz.RunLive(cfg, name, resolveSeed(cmd, cfg.Seed), logger)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cmd, false)
	if err != nil {
		return err
	}
	defer closeLog()
	return gui.Run(cfg, name, resolveSeed(cmd, cfg.Seed), logger)
}

func benchSolver(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Solver.GravityY = 0

	counts := []int{250, 500, 1000, 2000, 4000}

	fmt.Printf("benchmarking %s, %d substeps, %d workers\n\n", name, cfg.Solver.SubSteps, cfg.Solver.Workers)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OBJECTS\tFRAMES\tTIME\tMS/FRAME\tCONTACTS")

	for _, n := range counts {
		s, err := cfg.NewSolver()
		if err != nil {
			return err
		}
		placed := fillLattice(s, cfg, n)

		for i := 0; i < 10; i++ {
			s.Update(s.Window())
		}

		contacts := 0
		start := time.Now()
		for i := 0; i < frames; i++ {
			s.Update(s.Window())
			contacts += s.Stats().Contacts
		}
		elapsed := time.Since(start)

		perFrame := float64(elapsed.Microseconds()) / 1000 / float64(max(frames, 1))
		fmt.Fprintf(w, "%d\t%d\t%v\t%.3f\t%d\n",
			placed, frames, elapsed.Round(time.Microsecond), perFrame, contacts/max(frames, 1))
	}

	return w.Flush()
}

// fillLattice places up to n particles of the minimum spawn radius on a
// square lattice inside the boundary and returns how many fit.
func fillLattice(s *physics.Solver, cfg *config.Config, n int) int {
	center, radius := s.Boundary()
	r := cfg.Spawn.MinRadius
	spacing := 2*r + 1
	limit := radius - r

	placed := 0
	for y := center.Y - limit; y <= center.Y+limit && placed < n; y += spacing {
		for x := center.X - limit; x <= center.X+limit && placed < n; x += spacing {
			p := r2.Vec{X: x, Y: y}
			if r2.Norm(r2.Sub(p, center)) > limit {
				continue
			}
			if _, err := s.AddObject(p, r); err != nil {
				return placed
			}
			placed++
		}
	}
	return placed
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenario.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		sc.Seed = seed
	}
	logger, closeLog, err := newLogger(cmd, false)
	if err != nil {
		return err
	}
	defer closeLog()

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	fmt.Println()

	results, runErr := scenario.RunScenario(cmd.Context(), sc, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tACTION\tTIME\tOBJECTS\tKE\tCONTACTS\tESCAPED")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%.3fs\t%d\t%.1f\t%d\t%d\n",
			r.Index, r.Action, r.Time, r.Objects, r.KineticEnergy, r.Contacts, r.Escaped)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tFRAMES\tOBJECTS\tSUBSTEPS\tSEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Objects,
			run.SubSteps,
			run.Seed,
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

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if len(samples) < 2 {
		return fmt.Errorf("not enough samples to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(sim.Sample) float64
	}{
		{"kinetic energy", func(s sim.Sample) float64 { return s.KineticEnergy }},
		{"objects", func(s sim.Sample) float64 { return float64(s.Objects) }},
		{"contacts", func(s sim.Sample) float64 { return float64(s.Contacts) }},
		{"max overlap", func(s sim.Sample) float64 { return s.MaxOverlap }},
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

	if plotSVG != "" {
		times := make([]float64, len(samples))
		energy := make([]float64, len(samples))
		for i, s := range samples {
			times[i], energy[i] = s.Time, s.KineticEnergy
		}
		if err := os.WriteFile(plotSVG, []byte(export.SeriesToSVG(times, energy, 800, 300, "#00ff88")), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", plotSVG)
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"time", "objects", "kinetic_energy", "contacts", "max_overlap"}); err != nil {
		return err
	}

	for _, s := range samples {
		row := []string{
			strconv.FormatFloat(s.Time, 'f', 6, 64),
			strconv.Itoa(s.Objects),
			strconv.FormatFloat(s.KineticEnergy, 'f', 6, 64),
			strconv.Itoa(s.Contacts),
			strconv.FormatFloat(s.MaxOverlap, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func loadFrames(runID string) (*storage.RunMetadata, []sim.Frame, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("run %s has no snapshots (rerun with --frame-every)", runID)
	}
	return meta, frames, nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadFrames(args[0])
	if err != nil {
		return err
	}

	idx := frameIndex
	if idx < 0 {
		idx = len(frames) - 1
	}
	if idx >= len(frames) {
		return fmt.Errorf("frame %d out of range (run has %d)", idx, len(frames))
	}

	svg := export.FrameToSVG(frames[idx], meta.Width, meta.Height)
	if outFile == "" {
		fmt.Println(svg)
		return nil
	}
	return os.WriteFile(outFile, []byte(svg), 0644)
}

func exportGIF(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadFrames(args[0])
	if err != nil {
		return err
	}

	images := make([]*image.Paletted, len(frames))
	for i, f := range frames {
		images[i] = viz.RenderFrame(f, meta.Width, meta.Height, gifScale)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := viz.EncodeGIF(f, images, gifDelay); err != nil {
		return err
	}
	fmt.Printf("wrote %d frames to %s\n", len(images), outFile)
	return nil
}
