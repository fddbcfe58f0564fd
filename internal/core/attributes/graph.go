package attributes

import (
	"context"
	"fmt"
	"log"

	"github.com/kgalign/kgalign/internal/core/model"
	"github.com/kgalign/kgalign/internal/driver"
)

// NewExtractorFromGraph reads both attribute tables out of a property graph
// instead of JSON files. Each graph is a node label; the node's property map
// becomes the entity's attributes.
func NewExtractorFromGraph(ctx context.Context, d driver.GraphDriver, kg1Label, kg2Label string) (*Extractor, error) {
	kg1, err := loadLabel(ctx, d, kg1Label)
	if err != nil {
		return nil, err
	}
	kg2, err := loadLabel(ctx, d, kg2Label)
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded %d KG1 entities and %d KG2 entities from graph", len(kg1), len(kg2))
	return NewExtractorFromTables(kg1, kg2), nil
}

func loadLabel(ctx context.Context, d driver.GraphDriver, label string) (map[string]model.Entity, error) {
	query := fmt.Sprintf(driver.EntityAttributesQuery, label)
	result, err := d.ExecuteQuery(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities with label %s: %w", label, err)
	}

	entities := make(map[string]model.Entity, len(result.Records))
	for _, record := range result.Records {
		rawID, ok := record.Get("id")
		if !ok || rawID == nil {
			continue
		}
		id := fmt.Sprintf("%v", rawID)

		attrs := map[string][]string{}
		if rawProps, ok := record.Get("props"); ok {
			if props, ok := rawProps.(map[string]interface{}); ok {
				delete(props, "id")
				attrs = normalizeAttributes(props)
			}
		}

		entities[id] = model.Entity{ID: id, Attributes: attrs}
	}
	return entities, nil
}
