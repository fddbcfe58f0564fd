package candidates

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kgalign/kgalign/internal/core/model"
)

// Selector holds the pre-computed candidate shortlists, keyed by source
// entity ID and ordered by stored rank.
type Selector struct {
	bySource map[string][]model.Candidate
	skipped  int
}

// NewSelector loads a tab-separated candidate file. Each line is
// source_id, target_id, score, rank. Lines that fail to parse are skipped
// with a warning; a missing file is fatal.
func NewSelector(path string) (*Selector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates file '%s': %w", path, err)
	}
	defer f.Close()

	s := &Selector{bySource: make(map[string][]model.Candidate)}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cand, err := parseLine(line)
		if err != nil {
			log.Printf("Warning: skipping candidate line %q: %v", line, err)
			s.skipped++
			continue
		}
		s.bySource[cand.SourceID] = append(s.bySource[cand.SourceID], cand)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates file '%s': %w", path, err)
	}

	for id := range s.bySource {
		list := s.bySource[id]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Rank < list[j].Rank })
	}

	log.Printf("Loaded candidates for %d entities (%d malformed lines skipped)", len(s.bySource), s.skipped)
	return s, nil
}

func parseLine(line string) (model.Candidate, error) {
	parts := strings.Split(line, "\t")
	if len(parts) < 4 {
		return model.Candidate{}, fmt.Errorf("expected 4 tab-separated fields, got %d", len(parts))
	}
	score, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("bad score: %w", err)
	}
	rank, err := strconv.Atoi(parts[3])
	if err != nil {
		return model.Candidate{}, fmt.Errorf("bad rank: %w", err)
	}
	return model.Candidate{
		SourceID: parts[0],
		TargetID: parts[1],
		Score:    score,
		Rank:     rank,
	}, nil
}

// Get returns up to max candidates for one source entity, best rank first.
// An unknown source yields an empty list, not an error: no candidates means
// no match is possible.
func (s *Selector) Get(sourceID string, max int) []model.Candidate {
	list := s.bySource[sourceID]
	if max > 0 && len(list) > max {
		list = list[:max]
	}
	return list
}

// Top returns the best-ranked candidate for one source entity.
func (s *Selector) Top(sourceID string) (model.Candidate, bool) {
	list := s.bySource[sourceID]
	if len(list) == 0 {
		return model.Candidate{}, false
	}
	return list[0], true
}

// Count returns how many candidates one source entity has.
func (s *Selector) Count(sourceID string) int {
	return len(s.bySource[sourceID])
}

// SourceIDs returns every source entity ID with candidates, sorted.
func (s *Selector) SourceIDs() []string {
	ids := make([]string, 0, len(s.bySource))
	for id := range s.bySource {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SkippedLines reports how many malformed lines the load dropped.
func (s *Selector) SkippedLines() int {
	return s.skipped
}
