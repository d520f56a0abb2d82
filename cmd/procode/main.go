package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SEMOSS/procode-training/internal/config"
	"github.com/SEMOSS/procode-training/internal/logging"
)

var (
	configPath string
	verbose    bool

	cfg      config.Config
	logger   = zap.NewNop()
	logLevel = zap.NewAtomicLevel()
)

var rootCmd = &cobra.Command{
	Use:   "procode",
	Short: "Terminal client for the pro-code training backend",
	Long: `procode signs in to a SEMOSS pixel backend and works with its models,
databases and vector databases. Without a subcommand it starts the
interactive terminal UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		logCfg := cfg.Log
		if cmd != cmd.Root() {
			// One-shot commands log to the terminal; only the TUI owns the screen.
			logCfg.File = ""
			logCfg.Format = "console"
		}
		if verbose {
			logCfg.Level = "debug"
		}
		l, level, err := logging.New(logCfg)
		if err != nil {
			return err
		}
		logger, logLevel = l, level
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $PROCODE_CONFIG or ~/.config/procode/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(pixelCmd, uploadCmd, enginesCmd, loginCmd, logoutCmd, devCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
