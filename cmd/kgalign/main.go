// Package main provides the kgalign CLI: LLM-refined entity alignment
// between two knowledge graphs.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kgalign",
	Short: "Entity alignment between knowledge graphs using LLM reasoning",
	Long:  "kgalign matches entities of one knowledge graph against pre-computed candidates from another by asking an LLM to discriminate among them, then scores the decisions against ground truth.",
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
