package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mbdyn/internal/config"
	"github.com/san-kum/mbdyn/internal/integrators"
	"github.com/san-kum/mbdyn/internal/metrics"
	"github.com/san-kum/mbdyn/internal/sim"
	"github.com/san-kum/mbdyn/internal/storage"
	"github.com/san-kum/mbdyn/internal/tui"
)

var (
	dataDir    string
	dt         float64
	duration   float64
	integrator string
	configFile string
	preset     string
	stateIndex int
	plotEnergy bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mbdyn",
		Short: "articulated multibody dynamics lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mbdyn", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	runCmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integrator override")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&stateIndex, "state", 0, "state index to plot")
	plotCmd.Flags().BoolVar(&plotEnergy, "energy", false, "plot total energy instead of a state")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig(args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		preset = args[0]
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dt > 0 {
		cfg.Dt = dt
	}
	if duration > 0 {
		cfg.Duration = duration
	}
	if integrator != "" {
		cfg.Integrator = integrator
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}

	skel, err := cfg.Build()
	if err != nil {
		return err
	}
	stepper, err := integrators.New(cfg.Integrator)
	if err != nil {
		return err
	}

	simulator := sim.New(skel, stepper)
	simulator.AddMetric(metrics.NewEnergyDrift())
	simulator.AddMetric(metrics.NewCOMTravel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := simulator.Run(ctx, sim.Config{
		Dt:            cfg.Dt,
		Duration:      cfg.Duration,
		ValidateState: true,
	})
	if err != nil && result == nil {
		return err
	}

	fmt.Printf("%s: %d steps, %d coordinates\n", cfg.Name, result.StepsTaken, skel.NumGenCoords())
	for name, value := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, value)
	}
	for _, e := range result.Errors {
		fmt.Printf("  warning: %v\n", e)
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	runID, err := store.Save(cfg.Name, cfg.Dt, cfg.Duration, stepper.Name(), result)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", runID)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}
	return tui.Run(cfg)
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSKELETON\tINTEGRATOR\tDT\tDURATION\tSTEPS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%d\n", r.ID, r.Skeleton, r.Integrator, r.Dt, r.Duration, r.Steps)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	states, _, err := store.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("run %s has no states", args[0])
	}

	// Energy is stored as the trailing CSV column.
	col := stateIndex
	label := fmt.Sprintf("x%d", stateIndex)
	if plotEnergy {
		col = len(states[0]) - 1
		label = "energy"
	}
	if col < 0 || col >= len(states[0]) {
		return fmt.Errorf("state index %d out of range (0..%d)", col, len(states[0])-1)
	}

	series := make([]float64, len(states))
	for i, st := range states {
		series[i] = st[col]
	}

	graph := asciigraph.Plot(series,
		asciigraph.Height(15),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("%s  %s", args[0], label)))
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
