package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SEMOSS/procode-training/internal/config"
	"github.com/SEMOSS/procode-training/internal/devengine"
	"github.com/SEMOSS/procode-training/internal/devengine/store"
)

const devEmbedder = "Dev Embedder"

var devWriteConfig bool

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Local development helpers",
}

var devServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the development stand-in backend",
	Long: `Serve the animal and vector database reactors from a local sqlite database.
The API is mounted under the path of server.url, so the default configuration
talks to it without changes. Sign in with dev.username and dev.password.`,
	RunE: runDevServe,
}

func init() {
	devServeCmd.Flags().BoolVar(&devWriteConfig, "write-config", false, "point server.url and vector.embedder_engine at this backend and save the config")
	devCmd.AddCommand(devServeCmd)
}

func runDevServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if err := os.MkdirAll(filepath.Dir(cfg.Dev.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("mkdir dev db dir: %w", err)
	}
	db, err := store.Open(cfg.Dev.DatabasePath)
	if err != nil {
		return fmt.Errorf("open dev db: %w", err)
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrate dev db: %w", err)
	}
	if err := store.SeedDefaults(ctx, db); err != nil {
		return fmt.Errorf("seed dev db: %w", err)
	}

	prefix, err := mountPrefix(cfg.Server.URL)
	if err != nil {
		return err
	}
	if devWriteConfig {
		cfg.Server.URL = "http://" + cfg.Dev.Addr + prefix
		cfg.Vector.EmbedderEngine = store.EngineID(devEmbedder)
		if err := config.Save(cfg, configPath); err != nil {
			return err
		}
		logger.Info("config updated", zap.String("path", config.Path(configPath)), zap.String("server", cfg.Server.URL))
	}

	srv := devengine.New(db, devengine.Config{
		Addr:     cfg.Dev.Addr,
		Prefix:   prefix,
		Username: cfg.Dev.Username,
		Password: cfg.Dev.Password,
	}, logger.Named("dev"))
	fmt.Fprintf(cmd.OutOrStdout(), "dev backend on http://%s%s (embedder %s)\n", cfg.Dev.Addr, prefix, store.EngineID(devEmbedder))
	return srv.Run(ctx)
}

// mountPrefix returns the path part of the server URL, such as "/Monolith".
func mountPrefix(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	return strings.TrimRight(u.Path, "/"), nil
}
