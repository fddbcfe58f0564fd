package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kgalign/kgalign/internal/core/model"
)

// SaveResults writes the result list as pretty-printed JSON.
func SaveResults(results []model.MatchResult, path string) error {
	return writeJSON(results, path)
}

// LoadResults reads a previously saved result list, for re-evaluation.
func LoadResults(path string) ([]model.MatchResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file '%s': %w", path, err)
	}
	var results []model.MatchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse results file '%s': %w", path, err)
	}
	return results, nil
}

// SaveMetrics writes the evaluation metrics as pretty-printed JSON.
func SaveMetrics(metrics model.Metrics, path string) error {
	return writeJSON(metrics, path)
}

func writeJSON(v interface{}, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory for '%s': %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output for '%s': %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	return nil
}
