package model

import "fmt"

// Entity is one node of a knowledge graph: an ID plus multi-valued
// attributes. Attribute values are normalized to strings when loaded.
type Entity struct {
	ID         string              `json:"id"`
	Attributes map[string][]string `json:"attributes"`
}

// Attr returns the values for one attribute, or nil if absent.
func (e Entity) Attr(name string) []string {
	return e.Attributes[name]
}

// PlaceholderEntity stands in for a candidate whose attributes are missing
// from the target graph, so prompts stay aligned with the candidate list.
func PlaceholderEntity(id string) Entity {
	return Entity{
		ID:         id,
		Attributes: map[string][]string{"type": {"Unknown"}},
	}
}

// NormalizeValue converts a decoded JSON attribute value (scalar or list)
// into a list of strings.
func NormalizeValue(v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case []interface{}:
		var out []string
		for _, item := range val {
			out = append(out, NormalizeValue(item)...)
		}
		return out
	case float64:
		// JSON numbers decode as float64; render integers without a fraction.
		if val == float64(int64(val)) {
			return []string{fmt.Sprintf("%d", int64(val))}
		}
		return []string{fmt.Sprintf("%g", val)}
	default:
		return []string{fmt.Sprintf("%v", val)}
	}
}

// Candidate is one pre-computed alignment candidate: a target entity with
// the similarity score and rank assigned by the upstream blocking method.
type Candidate struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
}
