package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/chasesim/internal/automation"
	"github.com/san-kum/chasesim/internal/chase"
	"github.com/san-kum/chasesim/internal/config"
	"github.com/san-kum/chasesim/internal/episode"
	"github.com/san-kum/chasesim/internal/export"
	"github.com/san-kum/chasesim/internal/optim"
	"github.com/san-kum/chasesim/internal/policy"
	"github.com/san-kum/chasesim/internal/storage"
	"github.com/san-kum/chasesim/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logger   *slog.Logger

	configFile  string
	preset      string
	ticks       int
	numSheep    int
	seed        uint64
	wolfPolicy  string
	sheepPolicy string
	stopOnKill  bool

	record  bool
	runs    int
	workers int
	outFile string

	sweepParams []string
	metricName  string
	maximize    bool
	svgSize     int
	themeName   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chasesim",
		Short: "wolves, sheep and blocks pursuit simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".chasesim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one episode and save it",
		Args:  cobra.NoArgs,
		RunE:  runEpisode,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&record, "transitions", false, "record the zstd transition log")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run independent episodes in parallel and summarize metrics",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	scenarioFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 8, "number of episodes")
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "parallel episodes (0 = unlimited)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search policy parameters over ensembles",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	scenarioFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&runs, "runs", 8, "episodes per grid point")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel episodes (0 = unlimited)")
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "grid axis as name=v1,v2,...; prefix sheep. for sheep policy params")
	sweepCmd.Flags().StringVar(&metricName, "metric", "kills", "metric to optimize")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "keep the largest mean instead of the smallest")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run an episode in the terminal viewer",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)

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

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "replay a saved run in the terminal viewer",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export per-agent rewards of a recorded run to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportTo(args[0], storage.New(dataDir).ExportRewards)
		},
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and frames to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportTo(args[0], storage.New(dataDir).ExportJSON)
		},
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run a scripted sequence of scenarios",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the trajectories of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportTo(args[0], writeSVG)
		},
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 600, "image size in pixels")
	exportSVGCmd.Flags().StringVar(&themeName, "theme", "meadow", "colour theme")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := config.ListGroups()
			if len(args) == 1 {
				groups = args
			}
			for _, g := range groups {
				presets := config.ListPresets(g)
				if len(presets) == 0 {
					fmt.Printf("no presets in group: %s\n", g)
					continue
				}
				fmt.Printf("%s:\n", g)
				for _, p := range presets {
					fmt.Printf("  %s/%s\n", g, p)
				}
			}
			return nil
		},
	}

	policiesCmd := &cobra.Command{
		Use:   "policies",
		Short: "list available action policies",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range policy.NewRegistry().List() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, ensembleCmd, sweepCmd, scriptCmd, liveCmd, listCmd, plotCmd, replayCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, policiesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset as group/name, e.g. chase/hunting")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultMaxTicks, "maximum ticks per episode")
	cmd.Flags().IntVar(&numSheep, "sheep", config.DefaultNumSheep, "number of sheep")
	cmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().StringVar(&wolfPolicy, "wolf-policy", config.DefaultWolfPolicy, "wolf action policy")
	cmd.Flags().StringVar(&sheepPolicy, "sheep-policy", "flee", "sheep action policy")
	cmd.Flags().BoolVar(&stopOnKill, "stop-on-kill", false, "end the episode at the first kill")
}

// loadScenario resolves preset, then config file, then explicitly set flags.
func loadScenario(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "chase"

	if preset != "" {
		group, p, ok := strings.Cut(preset, "/")
		if !ok {
			group, p = "chase", preset
		}
		cfg = config.GetPreset(group, p)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available in %s: %v)", preset, group, config.ListPresets(group))
		}
		name = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	if cmd.Flags().Changed("ticks") {
		cfg.MaxTicks = ticks
	}
	if cmd.Flags().Changed("sheep") {
		cfg.NumSheep = numSheep
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("wolf-policy") {
		cfg.WolfPolicy = config.PolicyConfig{Name: wolfPolicy}
	}
	if cmd.Flags().Changed("sheep-policy") {
		cfg.SheepPolicy = config.PolicyConfig{Name: sheepPolicy}
	}
	if cmd.Flags().Changed("stop-on-kill") {
		cfg.StopOnKill = stopOnKill
	}

	return cfg, name, cfg.Validate()
}

func runEpisode(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	st.SetLogger(logger)
	if err := st.Init(); err != nil {
		return err
	}

	runner, err := episode.FromConfig(cfg, policy.NewRegistry(), cfg.Seed)
	if err != nil {
		return err
	}
	runner.SetLogger(logger)

	runID := storage.NewRunID(name, cfg.Seed)
	var tw *storage.TransitionWriter
	if record {
		tw, err = st.OpenTransitions(runID)
		if err != nil {
			return err
		}
		runner.AddObserver(tw)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s episode...\n", name)
	start := time.Now()

	result, runErr := runner.Run(ctx, episode.ConfigFor(cfg, cfg.Seed))
	if tw != nil {
		if err := tw.Close(); err != nil {
			return err
		}
	}
	if result == nil {
		return runErr
	}
	if runErr != nil {
		logger.Warn("episode ended early", "err", runErr)
	}

	elapsed := time.Since(start)
	if err := st.SaveAs(runID, name, cfg, result); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d (%s)\n", result.Ticks, result.Termination)
	for _, k := range result.Kills {
		fmt.Printf("kill: sheep %d at tick %d\n", k.SheepID, k.Tick)
	}
	fmt.Println("\nmetrics:")
	for _, m := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", m, result.Metrics[m])
	}
	return runErr
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	reg := policy.NewRegistry()
	ens := episode.NewEnsemble(func(seed uint64) (*episode.Runner, error) {
		r, err := episode.FromConfig(cfg, reg, seed)
		if err != nil {
			return nil, err
		}
		r.SetLogger(logger)
		return r, nil
	}, runs, cfg.Seed)
	ens.SetWorkers(workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := ens.Run(ctx, episode.ConfigFor(cfg, cfg.Seed))
	if err != nil {
		return err
	}
	summary := episode.Summarize(results)
	logger.Info("ensemble finished", "scenario", name, "elapsed", time.Since(start), "summary", summary)

	fmt.Printf("%s: %d runs from seed %d\n\n", name, summary.Runs, cfg.Seed)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, m := range summary.Names() {
		s := summary.Metrics[m]
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n", m, s.Mean, s.StdDev, s.Min, s.Max)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, axis := range sweepParams {
		n, list, ok := strings.Cut(axis, "=")
		if !ok {
			return fmt.Errorf("invalid --param %q, expected name=v1,v2", axis)
		}
		var values []float64
		for _, v := range strings.Split(list, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("invalid value in --param %q: %w", axis, err)
			}
			values = append(values, f)
		}
		names = append(names, n)
		ranges = append(ranges, values)
	}

	reg := policy.NewRegistry()
	build := func(params map[string]float64) (*episode.Ensemble, error) {
		point := cfg.Clone()
		for k, v := range params {
			target := &point.WolfPolicy
			if after, ok := strings.CutPrefix(k, "sheep."); ok {
				target, k = &point.SheepPolicy, after
			}
			if target.Params == nil {
				target.Params = make(map[string]float64)
			}
			target.Params[k] = v
		}
		ens := episode.NewEnsemble(func(seed uint64) (*episode.Runner, error) {
			return episode.FromConfig(point, reg, seed)
		}, runs, point.Seed)
		ens.SetWorkers(workers)
		return ens, nil
	}

	g := optim.NewGridSearch(names, ranges)
	if maximize {
		g.Maximize()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, trials, err := g.Search(ctx, build, episode.ConfigFor(cfg, cfg.Seed), metricName)
	if err != nil {
		return err
	}
	logger.Info("sweep finished", "scenario", name, "points", len(trials), "best", best.Stat.Mean)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMEAN\tSTD\n", strings.ToUpper(strings.Join(names, "\t")))
	for _, t := range trials {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", t.Params[n])
		}
		fmt.Fprintf(w, "%.4f\t%.4f\n", t.Stat.Mean, t.Stat.StdDev)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest %s: %.4f at %v\n", metricName, best.Stat.Mean, best.Params)
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	st.SetLogger(logger)
	if err := st.Init(); err != nil {
		return err
	}
	save := func(name string, cfg *config.Config, res *episode.Result) error {
		runID, err := st.Save(name, cfg, res)
		if err == nil {
			fmt.Printf("saved %s\n", runID)
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunScenario(ctx, scenario, policy.NewRegistry(), save, logger)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNAME\tRUNS\tKILLS\tWOLF REWARD\tSHEEP REWARD")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.2f\t%.4f\t%.4f\n", i+1, r.Name, r.Summary.Runs,
			r.Summary.Metrics["kills"].Mean, r.Summary.Metrics["wolf_reward"].Mean, r.Summary.Metrics["sheep_reward"].Mean)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	runner, err := episode.FromConfig(cfg, policy.NewRegistry(), cfg.Seed)
	if err != nil {
		return err
	}
	m, err := viz.NewLive(runner, episode.ConfigFor(cfg, cfg.Seed), name)
	if err != nil {
		return err
	}
	return viz.Run(m)
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSEED\tAGENTS\tTICKS\tKILLS\tEND\tLOG")

	for _, run := range runs {
		log := "-"
		if run.HasTransitions {
			log = "zstd"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%dw/%ds/%db\t%d\t%d\t%s\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Roster.NumWolves, run.Roster.NumSheep, run.Roster.NumBlocks,
			run.Ticks,
			len(run.Kills),
			run.Termination,
			log,
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
	rows, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	frames, err := storage.Frames(rows, meta.Roster)
	if err != nil {
		return err
	}
	if len(frames) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("ticks: %d\n\n", meta.Ticks)

	if meta.Roster.NumWolves > 0 && meta.Roster.NumSheep > 0 {
		gap := make([]float64, len(frames))
		for i, s := range frames {
			gap[i] = pursuitGap(meta.Roster, s)
		}
		fmt.Println(asciigraph.Plot(gap,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("mean distance from sheep to nearest wolf"),
		))
		fmt.Println()
	}

	if meta.HasTransitions {
		wolf := make([]float64, 0, meta.Ticks)
		sheep := make([]float64, 0, meta.Ticks)
		err := st.ReadTransitions(runID, func(tr chase.Transition) error {
			f := viz.FrameFromTransition(tr)
			wolf = append(wolf, f.WolfReward)
			sheep = append(sheep, f.SheepReward)
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Println(viz.RewardChart(wolf, sheep, 80, 10))
		fmt.Println()
	}

	killTicks := make([]int, len(meta.Kills))
	for i, k := range meta.Kills {
		killTicks[i] = k.Tick
	}
	fmt.Println(viz.KillTimeline(meta.Ticks, killTicks, 80, 5))
	return nil
}

func pursuitGap(r chase.Roster, s chase.State) float64 {
	total := 0.0
	for _, sh := range r.Sheep() {
		best := -1.0
		for _, w := range r.Wolves() {
			if d := s[sh].Pos.Dist(s[w].Pos); best < 0 || d < best {
				best = d
			}
		}
		total += best
	}
	return total / float64(r.NumSheep)
}

func replayRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	states, err := storage.Frames(rows, meta.Roster)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("run %s has no frames", runID)
	}

	frames := viz.FramesFromStates(states)
	if meta.HasTransitions {
		frames = frames[:1]
		err := st.ReadTransitions(runID, func(tr chase.Transition) error {
			frames = append(frames, viz.FrameFromTransition(tr))
			return nil
		})
		if err != nil {
			return err
		}
	}

	sc := chase.NewScene(meta.Roster, cfg.Wolf, cfg.Sheep, cfg.Block, cfg.Killzone)
	return viz.Run(viz.NewReplay(sc, cfg.Arena.MapSize, frames, meta.ID))
}

func writeSVG(runID string, w io.Writer) error {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	frames, err := storage.Frames(rows, meta.Roster)
	if err != nil {
		return err
	}

	sc := chase.NewScene(meta.Roster, cfg.Wolf, cfg.Sheep, cfg.Block, cfg.Killzone)
	_, err = io.WriteString(w, export.TrajectoryToSVG(sc, frames, cfg.Arena.MapSize, svgSize, viz.GetTheme(themeName)))
	return err
}

func exportTo(runID string, write func(runID string, w io.Writer) error) error {
	if outFile == "" {
		return write(runID, os.Stdout)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := write(runID, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %s to %s\n", runID, outFile)
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
