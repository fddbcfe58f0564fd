package attributes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	dir := t.TempDir()
	kg1 := writeFile(t, dir, "KG1_entity_attributes.json", `{
		"0": {"name": "Berlin", "type": "City", "foundedYear": 1237},
		"1": {"name": ["Hamburg", "Hamburg City"], "type": "City"}
	}`)
	kg2 := writeFile(t, dir, "KG2_entity_attributes.json", `{
		"408": {"name": "Berlin", "type": "City"},
		"512": {"name": "Hamburg", "type": "City"}
	}`)

	e, err := NewExtractor(kg1, kg2)
	require.NoError(t, err)
	return e
}

func TestGetEntity(t *testing.T) {
	e := newTestExtractor(t)

	ent, err := e.Get("0", KG1)
	require.NoError(t, err)
	assert.Equal(t, "0", ent.ID)
	assert.Equal(t, []string{"Berlin"}, ent.Attr("name"))
	assert.Equal(t, []string{"1237"}, ent.Attr("foundedYear"))

	// Multi-valued attribute keeps all values.
	ent, err = e.Get("1", KG1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hamburg", "Hamburg City"}, ent.Attr("name"))
}

func TestGetMissingEntity(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.Get("999", KG1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.Get("0", KG2)
	assert.ErrorIs(t, err, ErrNotFound, "IDs are scoped per graph")
}

func TestGetBatchSkipsMissing(t *testing.T) {
	e := newTestExtractor(t)

	found, skipped := e.GetBatch([]string{"408", "999", "512"}, KG2)

	assert.Len(t, found, 2)
	assert.Equal(t, []string{"999"}, skipped)
}

func TestCandidateEntitiesKeepsOrderWithPlaceholders(t *testing.T) {
	e := newTestExtractor(t)

	ents := e.CandidateEntities([]string{"512", "999", "408"}, KG2)

	require.Len(t, ents, 3)
	assert.Equal(t, "512", ents[0].ID)
	assert.Equal(t, "999", ents[1].ID)
	assert.Equal(t, []string{"Unknown"}, ents[1].Attr("type"))
	assert.Equal(t, "408", ents[2].ID)
}

func TestIDsSorted(t *testing.T) {
	e := newTestExtractor(t)

	assert.Equal(t, []string{"0", "1"}, e.IDs(KG1))
	assert.Equal(t, []string{"408", "512"}, e.IDs(KG2))
	assert.Equal(t, 2, e.Count(KG1))
}

func TestMalformedJSONNamesFile(t *testing.T) {
	dir := t.TempDir()
	kg1 := writeFile(t, dir, "KG1_entity_attributes.json", `{not json`)
	kg2 := writeFile(t, dir, "KG2_entity_attributes.json", `{}`)

	_, err := NewExtractor(kg1, kg2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KG1_entity_attributes.json")
}

func TestMissingFileFailsFast(t *testing.T) {
	dir := t.TempDir()
	kg2 := writeFile(t, dir, "KG2_entity_attributes.json", `{}`)

	_, err := NewExtractor(filepath.Join(dir, "nope.json"), kg2)
	assert.Error(t, err)
}
