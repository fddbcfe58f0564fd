package matching

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kgalign/kgalign/internal/core/model"
	"github.com/kgalign/kgalign/internal/llm"
)

// Matcher decides which candidate (if any) aligns with a source entity by
// asking an LLM to discriminate among the shortlist.
type Matcher struct {
	LLM llm.LLMClient
	Gen llm.GenerationConfig

	// NoMatchThreshold demotes low-confidence matches to no-match.
	NoMatchThreshold float64
}

func NewMatcher(client llm.LLMClient, gen llm.GenerationConfig, noMatchThreshold float64) *Matcher {
	return &Matcher{
		LLM:              client,
		Gen:              gen,
		NoMatchThreshold: noMatchThreshold,
	}
}

// Match renders the discrimination prompt, invokes the LLM once, and parses
// the response into a MatchResult. An empty candidate list short-circuits to
// a no-match without calling the backend. Parse failures are recorded, not
// returned as errors: one bad generation must not abort a batch. The only
// error path is the LLM call itself.
func (m *Matcher) Match(ctx context.Context, source model.Entity, cands []model.Entity) (model.MatchResult, error) {
	result := model.MatchResult{SourceID: source.ID}

	if len(cands) == 0 {
		result.Reasoning = "no candidates available"
		return result, nil
	}

	prompt := buildPrompt(source, cands)

	response, err := m.LLM.Generate(ctx, prompt, m.Gen)
	if err != nil {
		return result, fmt.Errorf("failed to generate match decision for entity %s: %w", source.ID, err)
	}
	result.RawResponse = response

	idx, ok := parseBestMatch(response, len(cands))
	if !ok {
		log.Printf("Warning: could not extract a match decision for entity %s, recording no-match", source.ID)
		result.Reasoning = "unable to extract a match decision from response"
		return result, nil
	}

	result.Reasoning = parseReasoning(response)

	if idx < 0 {
		// Model answered NO_MATCH.
		return result, nil
	}

	confidence := parseConfidence(response)
	if confidence < m.NoMatchThreshold {
		log.Printf("Confidence %.3f below threshold %.3f for entity %s, treating as no-match", confidence, m.NoMatchThreshold, source.ID)
		return result, nil
	}

	result.BestMatchID = cands[idx].ID
	result.Confidence = confidence
	return result, nil
}

var (
	bestMatchRe  = regexp.MustCompile(`(?i)best match:\s*\[?\s*(NO_MATCH|\d+)`)
	confidenceRe = regexp.MustCompile(`(?i)confidence:\s*\[?\s*(-?[0-9]*\.?[0-9]+)`)
	reasoningRe  = regexp.MustCompile(`(?is)reasoning:\s*\[?\s*(.+)`)
)

// parseBestMatch extracts the match decision. Returns -1 for NO_MATCH. The
// identifier space is closed-world: an index outside the supplied candidate
// list, no decision at all, or several conflicting decisions are all parse
// failures (ok == false).
func parseBestMatch(response string, numCandidates int) (int, bool) {
	matches := bestMatchRe.FindAllStringSubmatch(response, -1)
	if len(matches) == 0 {
		return 0, false
	}

	distinct := map[string]bool{}
	for _, m := range matches {
		distinct[strings.ToUpper(m[1])] = true
	}
	if len(distinct) > 1 {
		// The model named several different answers; do not guess.
		return 0, false
	}

	answer := strings.ToUpper(matches[0][1])
	if answer == "NO_MATCH" {
		return -1, true
	}

	idx, err := strconv.Atoi(answer)
	if err != nil || idx < 0 || idx >= numCandidates {
		return 0, false
	}
	return idx, true
}

// parseConfidence extracts the confidence value. Non-numeric or out-of-range
// values are replaced by 0.0 with a warning.
func parseConfidence(response string) float64 {
	m := confidenceRe.FindStringSubmatch(response)
	if m == nil {
		log.Printf("Warning: no confidence value in response, defaulting to 0.0")
		return 0.0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0.0 || v > 1.0 {
		log.Printf("Warning: confidence %q outside [0,1], defaulting to 0.0", m[1])
		return 0.0
	}
	return v
}

func parseReasoning(response string) string {
	m := reasoningRe.FindStringSubmatch(response)
	if m == nil {
		return "No reasoning provided"
	}
	return strings.TrimSpace(m[1])
}

func buildPrompt(source model.Entity, cands []model.Entity) string {
	var sb strings.Builder

	sb.WriteString("You are an AI assistant that matches entities between two knowledge graphs. Given an entity and a list of candidates, determine the best match.\n\n")
	sb.WriteString("Entity to match:\n")
	sb.WriteString(formatEntity(source))
	sb.WriteString("\n\nCandidate entities:\n")

	for i, cand := range cands {
		sb.WriteString(fmt.Sprintf("\nCandidate %d:\n", i))
		sb.WriteString(formatEntity(cand))
		sb.WriteString("\n")
	}

	sb.WriteString(`
Analyze the entity and the candidates, then provide:
1. The index of the best matching candidate (0, 1, 2, etc.) OR "NO_MATCH" if none of the candidates is a suitable match
2. A confidence score between 0.0 and 1.0 (use 0.0 for NO_MATCH)
3. A brief explanation of your reasoning

Response format:
Best match: [candidate_index or NO_MATCH]
Confidence: [confidence_score]
Reasoning: [explanation]`)

	return sb.String()
}

// leadAttributes are rendered first, in this order, when present.
var leadAttributes = []struct{ key, label string }{
	{"type", "Type"},
	{"name", "Name"},
	{"description", "Description"},
}

func formatEntity(e model.Entity) string {
	var lines []string
	seen := map[string]bool{}

	for _, lead := range leadAttributes {
		if values := e.Attr(lead.key); len(values) > 0 {
			lines = append(lines, fmt.Sprintf("%s: %s", lead.label, strings.Join(values, ", ")))
			seen[lead.key] = true
		}
	}

	var rest []string
	for name := range e.Attributes {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		lines = append(lines, fmt.Sprintf("%s: %s", name, strings.Join(e.Attributes[name], ", ")))
	}

	return strings.Join(lines, "\n")
}
