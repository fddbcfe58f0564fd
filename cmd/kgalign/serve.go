package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/kgalign/kgalign/internal/server"
)

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Serve the alignment pipeline over HTTP",
	Long:  "Loads the data directory once and exposes REST endpoints: POST /align for single entities, POST /runs for a full run, GET /state and GET /healthz.",
	RunE:  serveCmd,
}

var serveConfigPath string

func init() {
	serveCommand.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.toml")

	rootCmd.AddCommand(serveCommand)
}

func serveCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	// Candidate and ground truth files are read from the data directory even
	// when attributes come from the graph.
	if cfg.Data.Dir == "" {
		return fmt.Errorf("a data directory is required ([data] dir in config)")
	}

	setupRunLog(cfg.Output)

	p, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := p.Load(ctx); err != nil {
		return err
	}

	srv := server.NewServer(p)
	r := srv.SetupRouter()

	log.Printf("Starting server on port %s", cfg.Server.Port)
	return r.Run(":" + cfg.Server.Port)
}
