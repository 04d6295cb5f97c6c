package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxygene76/trajview/pkg/astronomy/nbody"
	"github.com/oxygene76/trajview/pkg/astronomy/orbital"
	"github.com/oxygene76/trajview/pkg/render"
	"github.com/oxygene76/trajview/pkg/serde"
	"github.com/oxygene76/trajview/pkg/trajectory"
	"github.com/oxygene76/trajview/pkg/utils"
)

func initCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, _ := cmd.Flags().GetString("policy")

			config := utils.DefaultConfig()
			if a.dir != "" {
				config.Trajectory.Dir = a.dir
			}
			if policy != "" {
				config.Retry.Policy = policy
			}

			path := a.cfgFile
			if path == "" {
				path = filepath.Join(utils.HomeDir(), "config.yaml")
			}

			if err := utils.SaveConfig(config, path); err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Configuration saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().String("policy", "", "retry policy: none, fixed, linear, exponential or watch")

	return cmd
}

func plotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [dir]",
		Short: "Summarise a finished trajectory",
		Long: `Load every snapshot of a trajectory directory whose producer has finished,
project it into one position series per body, and print per-body statistics.
Every iteration must already be present; a gap or a corrupt file aborts the run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			asJSON, _ := cmd.Flags().GetBool("json")
			dir := a.trajectoryDir(args)

			fetcher, closer, err := a.newFetcher(dir)
			if err != nil {
				return err
			}
			defer closer.Close()

			batch, err := fetcher.FetchAll(cmd.Context(), dir)
			if err != nil {
				return fmt.Errorf("failed to load trajectory: %w", err)
			}

			bundle, err := trajectory.Project(batch)
			if err != nil {
				return fmt.Errorf("failed to project trajectory: %w", err)
			}

			if csvPath != "" {
				if err := writeFile(a.outputPath(csvPath), func(w io.Writer) error {
					return render.WriteCSV(w, bundle)
				}); err != nil {
					return fmt.Errorf("failed to export CSV: %w", err)
				}
				a.logger.Info().Str("file", a.outputPath(csvPath)).Msg("Exported time series")
			}

			summaries := render.Summarize(bundle)
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}

			fmt.Fprintf(a.stdout, "Trajectory %s: %d iterations, %d bodies\n\n", dir, len(batch), len(bundle))
			return render.WriteSummary(a.stdout, summaries)
		},
	}

	cmd.Flags().String("csv", "", "export the time series as CSV (relative to output.dir)")
	cmd.Flags().Bool("json", false, "print the summary as JSON")

	return cmd
}

func liveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live [dir]",
		Short: "Follow a trajectory while it is being written",
		Long: `Follow a trajectory directory from iteration 0, waiting for each new
iteration to appear and streaming every update as a JSON line. Runs until
interrupted, until --limit iterations were read, or until --timeout expires.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			limit, _ := cmd.Flags().GetInt("limit")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			progress, _ := cmd.Flags().GetInt("progress")
			dir := a.trajectoryDir(args)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			fetcher, closer, err := a.newFetcher(dir)
			if err != nil {
				return err
			}
			defer closer.Close()

			var sink io.Writer = a.stdout
			if out != "" {
				f, err := os.Create(a.outputPath(out))
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				sink = f
			}

			jsonl := render.NewJSONLRenderer(sink)
			defer jsonl.Close()

			renderers := render.Multi{jsonl}
			if progress > 0 {
				renderers = append(renderers, render.NewLogRenderer(a.logger, progress))
			}

			live := trajectory.NewLive(fetcher, renderers,
				trajectory.WithMaxIterations(limit),
				trajectory.WithLiveLogger(a.logger),
			)

			err = live.Run(ctx, dir)
			if stoppedFollowing(err) {
				// interrupted or timed out: a normal way to stop following
				a.logger.Info().Int("iterations", live.Accumulator().Next()).Msg("Stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().String("out", "", "write JSON lines to this file instead of stdout (relative to output.dir)")
	cmd.Flags().Int("limit", 0, "stop after this many iterations (0 = follow forever)")
	cmd.Flags().Duration("timeout", 0, "stop following after this duration (0 = no timeout)")
	cmd.Flags().Int("progress", 100, "log progress every N iterations (0 = off)")

	return cmd
}

func infoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [dir]",
		Short: "Describe the last snapshot of a trajectory",
		Long: `Print the iteration count of a trajectory directory and the osculating
orbital elements of every body relative to body 0 at the last iteration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _ := cmd.Flags().GetFloat64("g")
			dir := a.trajectoryDir(args)

			n, err := trajectory.CountSnapshots(dir)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintf(a.stdout, "Trajectory %s: no snapshots yet\n", dir)
				return nil
			}

			fetcher, closer, err := a.newFetcher(dir)
			if err != nil {
				return err
			}
			defer closer.Close()

			last, err := fetcher.FetchOne(cmd.Context(), dir, n-1, trajectory.Strict)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Trajectory %s: %d iterations, %d bodies\n", dir, n, last.NumBodies())
			if last.NumBodies() < 2 {
				return nil
			}

			fmt.Fprintf(a.stdout, "\nOrbital elements relative to body 0 at iteration %d:\n", last.Iteration)
			fmt.Fprintf(a.stdout, "%-6s %14s %10s %10s %10s %10s\n", "BODY", "A", "E", "I(deg)", "NODE(deg)", "PERI(deg)")
			central := last.Bodies[0]
			for i, body := range last.Bodies[1:] {
				oe := orbital.Relative(central, body, g)
				fmt.Fprintf(a.stdout, "%-6d %14.6g %10.5f %10.4f %10.4f %10.4f\n",
					i+1, oe.SemiMajorAxis, oe.Eccentricity,
					degrees(oe.Inclination), degrees(oe.LongitudeAscendingNode), degrees(oe.ArgumentPerihelion))
			}
			return nil
		},
	}

	cmd.Flags().Float64("g", nbody.GaussianG, "gravitational constant in the units of the trajectory")

	return cmd
}

func simulateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a leapfrog N-body simulation and write a trajectory directory",
		Long: `Integrate initial conditions from a .csv (x,y,z,vx,vy,vz,mass per row) or
.bin file and write one <iteration>.bin file per step. Useful for producing
test data and for exercising "live" against a running producer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			icFile, _ := cmd.Flags().GetString("ic")
			dt, _ := cmd.Flags().GetFloat64("dt")
			iterations, _ := cmd.Flags().GetInt("iterations")
			maxBodies, _ := cmd.Flags().GetInt("bodies")
			delay, _ := cmd.Flags().GetDuration("delay")
			single, _ := cmd.Flags().GetBool("float32")
			g, _ := cmd.Flags().GetFloat64("g")
			dir := a.trajectoryDir(nil)

			if dt <= 0 {
				return fmt.Errorf("--dt must be positive")
			}
			if iterations < 0 {
				return fmt.Errorf("--iterations cannot be negative")
			}

			bodies, err := serde.LoadInitialConditions(icFile)
			if err != nil {
				return fmt.Errorf("failed to load initial conditions: %w", err)
			}
			if maxBodies >= 0 && maxBodies < len(bodies) {
				bodies = bodies[:maxBodies]
				a.logger.Info().Int("bodies", maxBodies).Msg("Limiting number of bodies")
			}

			floatSize := serde.Float64
			if single {
				floatSize = serde.Float32
			}
			writer, err := nbody.NewDirectoryWriter(dir, floatSize, delay)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			start := time.Now()
			if err := nbody.NewSystem(bodies, g).Run(ctx, iterations, dt, writer, a.logger); err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			fmt.Fprintf(a.stdout, "Wrote %d snapshots of %d bodies to %s in %s\n",
				iterations+1, len(bodies), dir, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().String("ic", "", "initial condition file (.csv or .bin)")
	cmd.Flags().Float64("dt", 1, "time step")
	cmd.Flags().Int("iterations", 100, "number of steps")
	cmd.Flags().Int("bodies", -1, "use at most this many bodies (negative = all)")
	cmd.Flags().Duration("delay", 0, "pause after writing each snapshot")
	cmd.Flags().Bool("float32", false, "write single precision snapshots")
	cmd.Flags().Float64("g", nbody.GaussianG, "gravitational constant")
	_ = cmd.MarkFlagRequired("ic")

	return cmd
}

func (a *app) outputPath(name string) string {
	if filepath.IsAbs(name) || a.cfg.Output.Dir == "" {
		return name
	}
	return filepath.Join(a.cfg.Output.Dir, name)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// stoppedFollowing reports whether live ended because it was interrupted or
// timed out rather than failing.
func stoppedFollowing(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
