package pipeline

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/kgalign/kgalign/internal/core/model"
)

// Evaluate scores a result list against ground truth. A prediction counts as
// correct only when it names a target and that target equals the reference
// pair for the source. Precision is over predictions that made a match,
// recall over all ground-truth pairs; both defined as 0 when their
// denominator is 0.
func Evaluate(results []model.MatchResult, groundTruth map[string]string) model.Metrics {
	m := model.Metrics{
		TotalEntities:    len(results),
		GroundTruthPairs: len(groundTruth),
	}

	var confidenceSum float64
	predictions := 0

	for _, r := range results {
		confidenceSum += r.Confidence

		if _, ok := groundTruth[r.SourceID]; !ok {
			m.NoGroundTruth++
		}

		if !r.Matched() {
			m.NoMatchPredictions++
			continue
		}

		predictions++
		if target, ok := groundTruth[r.SourceID]; ok && target == r.BestMatchID {
			m.CorrectPredictions++
		} else {
			m.IncorrectPredictions++
		}
	}

	if predictions > 0 {
		m.Precision = float64(m.CorrectPredictions) / float64(predictions)
	}
	if len(groundTruth) > 0 {
		m.Recall = float64(m.CorrectPredictions) / float64(len(groundTruth))
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	if len(results) > 0 {
		m.AverageConfidence = confidenceSum / float64(len(results))
	}

	return m
}

// LoadGroundTruth reads the tab-separated reference pairs file
// (source_id, target_id). Malformed lines are skipped with a warning.
func LoadGroundTruth(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ground truth file '%s': %w", path, err)
	}
	defer f.Close()

	pairs := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			log.Printf("Warning: skipping ground truth line %q", line)
			continue
		}
		pairs[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ground truth file '%s': %w", path, err)
	}

	log.Printf("Loaded %d ground truth pairs", len(pairs))
	return pairs, nil
}
