package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kgalign/kgalign/internal/config"
	"github.com/kgalign/kgalign/internal/core/attributes"
	"github.com/kgalign/kgalign/internal/core/matching"
	"github.com/kgalign/kgalign/internal/core/pipeline"
	"github.com/kgalign/kgalign/internal/driver"
	"github.com/kgalign/kgalign/internal/llm"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full alignment pipeline end-to-end",
	Long:  "Loads entity attributes, candidate lists and ground truth from the data directory, matches every source entity via the configured LLM backend, evaluates against ground truth and writes results and metrics to the output directory.",
	RunE:  runAlignmentCmd,
}

var (
	runConfigPath    string
	runDataDir       string
	runOutputDir     string
	runNumCandidates int
	runMaxEntities   int
	runWorkers       int
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.toml (flags override config values)")
	runCommand.Flags().StringVarP(&runDataDir, "data-dir", "d", "", "Data directory with attribute, candidate and ground truth files")
	runCommand.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "Output directory for results and metrics")
	runCommand.Flags().IntVarP(&runNumCandidates, "num-candidates", "n", 0, "Number of candidates to consider per entity")
	runCommand.Flags().IntVar(&runMaxEntities, "max-entities", 0, "Maximum number of entities to process (0 = all)")
	runCommand.Flags().IntVar(&runWorkers, "workers", 0, "Maximum in-flight LLM requests (1 = sequential)")

	rootCmd.AddCommand(runCommand)
}

func runAlignmentCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.Data.Dir = runDataDir
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.Output.Dir = runOutputDir
	}
	if cmd.Flags().Changed("num-candidates") {
		cfg.Pipeline.NumCandidates = runNumCandidates
	}
	if cmd.Flags().Changed("max-entities") {
		cfg.Pipeline.MaxEntities = runMaxEntities
	}
	if cmd.Flags().Changed("workers") {
		cfg.Pipeline.Workers = runWorkers
	}
	if cfg.Data.Dir == "" {
		return fmt.Errorf("a data directory is required (--data-dir or [data] dir in config)")
	}

	setupRunLog(cfg.Output)

	p, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	results, metrics, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Aligned %d entities (run %s)\n", len(results), p.RunID())
	fmt.Printf("  correct:    %d\n", metrics.CorrectPredictions)
	fmt.Printf("  incorrect:  %d\n", metrics.IncorrectPredictions)
	fmt.Printf("  no match:   %d\n", metrics.NoMatchPredictions)
	fmt.Printf("  skipped:    %d\n", metrics.SkippedEntities)
	fmt.Printf("  failed:     %d\n", metrics.FailedEntities)
	fmt.Printf("  precision:  %.3f\n", metrics.Precision)
	fmt.Printf("  recall:     %.3f\n", metrics.Recall)
	fmt.Printf("  f1:         %.3f\n", metrics.F1)
	fmt.Printf("  confidence: %.3f\n", metrics.AverageConfidence)
	fmt.Printf("Results written to %s\n", cfg.Output.Dir)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// setupRunLog tees log output to a rotating file under the output directory.
func setupRunLog(out config.OutputConfig) {
	logger := &lumberjack.Logger{
		Filename:   filepath.Join(out.Dir, out.LogFile),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logger))
}

// buildPipeline wires the LLM backend, matcher and attribute source from
// config. The returned cleanup closes the graph driver when one was opened.
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	gen := llm.GenerationConfig{
		MaxNewTokens: cfg.Generation.MaxNewTokens,
		Temperature:  cfg.Generation.Temperature,
		TopP:         cfg.Generation.TopP,
		DoSample:     cfg.Generation.DoSample,
	}
	matcher := matching.NewMatcher(client, gen, cfg.Pipeline.NoMatchThreshold)

	p := pipeline.New(matcher, pipeline.Options{
		DataDir:       cfg.Data.Dir,
		OutputDir:     cfg.Output.Dir,
		NumCandidates: cfg.Pipeline.NumCandidates,
		MaxEntities:   cfg.Pipeline.MaxEntities,
		Workers:       cfg.Pipeline.Workers,
		Timeout:       time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})

	cleanup := func() {}
	if cfg.Data.Source == "graph" {
		d, err := driver.NewMemgraphDriver(cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to graph database: %w", err)
		}
		attrs, err := attributes.NewExtractorFromGraph(ctx, d, cfg.Graph.KG1Label, cfg.Graph.KG2Label)
		if err != nil {
			_ = d.Close(ctx)
			return nil, nil, err
		}
		p.UseExtractor(attrs)
		cleanup = func() { _ = d.Close(context.Background()) }
	}

	return p, cleanup, nil
}
