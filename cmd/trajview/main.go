package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/oxygene76/trajview/pkg/utils"
)

const (
	appName = "trajview"
	version = "v0.3.0"
)

// app carries state shared by all commands after the root pre-run hook
type app struct {
	cfgFile string
	verbose bool
	dir     string

	cfg    *utils.Config
	logger zerolog.Logger

	stdout io.Writer
	stderr io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Follow and analyse N-body trajectory directories",
		Long: `trajview reads the per-iteration snapshot files (<iteration>.bin) that an
N-body simulator writes into a directory. It can analyse a finished run as a
batch or follow a run that is still being written, waiting for each new
iteration as it appears.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// init writes the config file, it must not require one
			if cmd.Name() == "init" {
				a.cfg = utils.DefaultConfig()
			} else {
				cfg, err := utils.LoadConfig(a.cfgFile)
				if err != nil {
					return fmt.Errorf("failed to initialize config: %w", err)
				}
				a.cfg = cfg
			}

			logger, err := utils.NewLogger(a.cfg.Log, a.stderr, a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.trajview/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&a.dir, "dir", "d", "", "trajectory directory (overrides trajectory.dir)")

	rootCmd.AddCommand(
		initCmd(a),
		plotCmd(a),
		liveCmd(a),
		infoCmd(a),
		simulateCmd(a),
	)

	return rootCmd
}

// trajectoryDir resolves the directory from args, --dir, then config.
func (a *app) trajectoryDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if a.dir != "" {
		return a.dir
	}
	return a.cfg.Trajectory.Dir
}
