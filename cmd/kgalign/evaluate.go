package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kgalign/kgalign/internal/core/pipeline"
)

var evaluateCommand = &cobra.Command{
	Use:   "evaluate",
	Short: "Re-score an existing results file against ground truth",
	Long:  "Reads a previously written alignment_results.json and the ref_pairs ground truth file and recomputes precision, recall, F1 and average confidence. No LLM calls are made.",
	RunE:  evaluateCmd,
}

var (
	evalResultsPath string
	evalDataDir     string
	evalMetricsOut  string
)

func init() {
	evaluateCommand.Flags().StringVarP(&evalResultsPath, "results", "r", "", "Path to alignment_results.json")
	evaluateCommand.Flags().StringVarP(&evalDataDir, "data-dir", "d", "", "Data directory containing the ref_pairs file")
	evaluateCommand.Flags().StringVar(&evalMetricsOut, "metrics-out", "", "Optional path to write recomputed metrics JSON")
	_ = evaluateCommand.MarkFlagRequired("results")
	_ = evaluateCommand.MarkFlagRequired("data-dir")

	rootCmd.AddCommand(evaluateCommand)
}

func evaluateCmd(_ *cobra.Command, _ []string) error {
	results, err := pipeline.LoadResults(evalResultsPath)
	if err != nil {
		return err
	}
	groundTruth, err := pipeline.LoadGroundTruth(filepath.Join(evalDataDir, "ref_pairs"))
	if err != nil {
		return err
	}

	metrics := pipeline.Evaluate(results, groundTruth)

	fmt.Printf("Evaluated %d results against %d ground truth pairs\n", metrics.TotalEntities, metrics.GroundTruthPairs)
	fmt.Printf("  precision:  %.3f\n", metrics.Precision)
	fmt.Printf("  recall:     %.3f\n", metrics.Recall)
	fmt.Printf("  f1:         %.3f\n", metrics.F1)
	fmt.Printf("  confidence: %.3f\n", metrics.AverageConfidence)

	if evalMetricsOut != "" {
		if err := pipeline.SaveMetrics(metrics, evalMetricsOut); err != nil {
			return err
		}
		fmt.Printf("Metrics written to %s\n", evalMetricsOut)
	}
	return nil
}
