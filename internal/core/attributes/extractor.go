package attributes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/kgalign/kgalign/internal/core/model"
)

// ErrNotFound is returned when an entity ID is absent from the loaded
// attribute table.
var ErrNotFound = errors.New("entity not found")

// KG selects which of the two aligned knowledge graphs to read from.
type KG int

const (
	KG1 KG = 1
	KG2 KG = 2
)

// Extractor holds the per-entity attribute tables of both graphs. Tables are
// loaded eagerly and never mutated afterwards.
type Extractor struct {
	kg1 map[string]model.Entity
	kg2 map[string]model.Entity
}

// NewExtractor loads both attribute files. A missing or malformed file is
// fatal: the pipeline cannot run without attributes.
func NewExtractor(kg1Path, kg2Path string) (*Extractor, error) {
	kg1, err := loadAttributeFile(kg1Path)
	if err != nil {
		return nil, err
	}
	kg2, err := loadAttributeFile(kg2Path)
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded %d KG1 entities and %d KG2 entities", len(kg1), len(kg2))
	return &Extractor{kg1: kg1, kg2: kg2}, nil
}

// NewExtractorFromTables builds an Extractor from already-loaded tables,
// used by the graph-database source.
func NewExtractorFromTables(kg1, kg2 map[string]model.Entity) *Extractor {
	return &Extractor{kg1: kg1, kg2: kg2}
}

func loadAttributeFile(path string) (map[string]model.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attributes file '%s': %w", path, err)
	}

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse attributes file '%s': %w", path, err)
	}

	entities := make(map[string]model.Entity, len(raw))
	for id, attrs := range raw {
		entities[id] = model.Entity{
			ID:         id,
			Attributes: normalizeAttributes(attrs),
		}
	}
	return entities, nil
}

func normalizeAttributes(raw map[string]interface{}) map[string][]string {
	attrs := make(map[string][]string, len(raw))
	for name, value := range raw {
		if values := model.NormalizeValue(value); len(values) > 0 {
			attrs[name] = values
		}
	}
	return attrs
}

func (e *Extractor) table(kg KG) map[string]model.Entity {
	if kg == KG2 {
		return e.kg2
	}
	return e.kg1
}

// Get returns the entity with the given ID, or ErrNotFound.
func (e *Extractor) Get(entityID string, kg KG) (model.Entity, error) {
	ent, ok := e.table(kg)[entityID]
	if !ok {
		return model.Entity{}, fmt.Errorf("entity %q not in KG%d: %w", entityID, kg, ErrNotFound)
	}
	return ent, nil
}

// GetBatch looks up several entities at once. Missing IDs are skipped and
// returned separately rather than failing the batch.
func (e *Extractor) GetBatch(entityIDs []string, kg KG) (map[string]model.Entity, []string) {
	table := e.table(kg)
	found := make(map[string]model.Entity, len(entityIDs))
	var skipped []string
	for _, id := range entityIDs {
		if ent, ok := table[id]; ok {
			found[id] = ent
		} else {
			skipped = append(skipped, id)
		}
	}
	return found, skipped
}

// CandidateEntities returns one entity per candidate ID, in order,
// substituting a placeholder where attributes are missing so the list stays
// aligned with the candidate ranking.
func (e *Extractor) CandidateEntities(candidateIDs []string, kg KG) []model.Entity {
	table := e.table(kg)
	entities := make([]model.Entity, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if ent, ok := table[id]; ok {
			entities = append(entities, ent)
		} else {
			log.Printf("Warning: no attributes for candidate %s in KG%d", id, kg)
			entities = append(entities, model.PlaceholderEntity(id))
		}
	}
	return entities
}

// IDs returns all entity IDs of one graph in sorted order.
func (e *Extractor) IDs(kg KG) []string {
	table := e.table(kg)
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of entities in one graph.
func (e *Extractor) Count(kg KG) int {
	return len(e.table(kg))
}
