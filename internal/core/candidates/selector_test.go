package candidates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSelector(t *testing.T, content string) *Selector {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alignment_candidates.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := NewSelector(path)
	require.NoError(t, err)
	return s
}

func TestGetCandidatesOrderedByRank(t *testing.T) {
	// Stored out of rank order on purpose.
	s := newTestSelector(t, "0\t512\t0.71\t2\n0\t408\t0.95\t1\n0\t777\t0.55\t3\n")

	cands := s.Get("0", 10)

	require.Len(t, cands, 3)
	assert.Equal(t, "408", cands[0].TargetID)
	assert.Equal(t, 0.95, cands[0].Score)
	assert.Equal(t, "512", cands[1].TargetID)
	assert.Equal(t, "777", cands[2].TargetID)
}

func TestGetTruncatesToMax(t *testing.T) {
	s := newTestSelector(t, "0\t408\t0.95\t1\n0\t512\t0.71\t2\n0\t777\t0.55\t3\n")

	cands := s.Get("0", 2)

	require.Len(t, cands, 2)
	assert.Equal(t, "408", cands[0].TargetID)
	assert.Equal(t, "512", cands[1].TargetID)
}

func TestUnknownSourceYieldsEmptyList(t *testing.T) {
	s := newTestSelector(t, "0\t408\t0.95\t1\n")

	assert.Empty(t, s.Get("999", 10))
	assert.Equal(t, 0, s.Count("999"))
}

func TestMalformedLinesSkipped(t *testing.T) {
	s := newTestSelector(t, "0\t408\t0.95\tnotanumber\n1\t512\t0.80\t1\nshort line\n# comment\n\n")

	assert.Empty(t, s.Get("0", 10), "line with bad rank must be dropped")
	assert.Len(t, s.Get("1", 10), 1)
	assert.Equal(t, 2, s.SkippedLines())
}

func TestTopCandidate(t *testing.T) {
	s := newTestSelector(t, "0\t512\t0.71\t2\n0\t408\t0.95\t1\n")

	top, ok := s.Top("0")
	require.True(t, ok)
	assert.Equal(t, "408", top.TargetID)

	_, ok = s.Top("nope")
	assert.False(t, ok)
}

func TestSourceIDsSorted(t *testing.T) {
	s := newTestSelector(t, "b\t1\t0.5\t1\na\t2\t0.5\t1\n")

	assert.Equal(t, []string{"a", "b"}, s.SourceIDs())
}

func TestMissingFileIsFatal(t *testing.T) {
	_, err := NewSelector(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
