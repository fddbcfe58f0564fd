package model

// MatchResult is the decision for one source entity. An empty BestMatchID
// means "no match". RawResponse keeps the unparsed LLM output for audit.
type MatchResult struct {
	SourceID    string  `json:"source_id"`
	BestMatchID string  `json:"best_match_id"`
	Confidence  float64 `json:"confidence_score"`
	Reasoning   string  `json:"reasoning"`
	RawResponse string  `json:"raw_response,omitempty"`
}

// Matched reports whether the result names a target entity.
func (r MatchResult) Matched() bool {
	return r.BestMatchID != ""
}

// Metrics summarizes one evaluation pass over a result list.
type Metrics struct {
	TotalEntities        int     `json:"total_entities"`
	CorrectPredictions   int     `json:"correct_predictions"`
	IncorrectPredictions int     `json:"incorrect_predictions"`
	NoMatchPredictions   int     `json:"no_match_predictions"`
	NoGroundTruth        int     `json:"no_ground_truth"`
	SkippedEntities      int     `json:"skipped_entities"`
	FailedEntities       int     `json:"failed_entities"`
	GroundTruthPairs     int     `json:"ground_truth_pairs"`
	NumCandidates        int     `json:"num_candidates"`
	Precision            float64 `json:"precision"`
	Recall               float64 `json:"recall"`
	F1                   float64 `json:"f1_score"`
	AverageConfidence    float64 `json:"average_confidence"`
}
