package codes

import (
	"context"
	"strings"
	"testing"

	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/rules"
	"github.com/nexfix/manualbase/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCandidate(text, code string, exact bool) rules.Candidate {
	start := strings.Index(text, code)
	return rules.Candidate{Code: code, Start: start, End: start + len(code), Exact: exact}
}

func newTestExtractor(t *testing.T) (*Extractor, *badger.Repositories) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return NewExtractor(repos.ErrorCodes, repos.Parts, Config{}), repos
}

func chunkOf(docId core.ID, ordinal int, text string) *core.Chunk {
	return &core.Chunk{
		Id:         core.ChunkID(docId, 1, ordinal),
		DocumentId: docId,
		PageNumber: 1,
		Ordinal:    ordinal,
		Text:       text,
		TextHash:   core.IDFromContent(text),
	}
}

func TestExtractHierarchicalCodes(t *testing.T) {
	extractor, repos := newTestExtractor(t)
	ctx := context.Background()

	doc := core.NewDocument("h1", "hp-manual.pdf", "hp")
	chunk := chunkOf(doc.Id, 0,
		"13.B9.Az - Jam in fuser area\n"+
			"Recommended action: Replace the fuser unit.\n"+
			"See error 49.38.07 for firmware issues")

	summary, err := extractor.ExtractFromChunks(ctx, doc, []*core.Chunk{chunk})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Codes)
	assert.Equal(t, 2, summary.Categories) // 13.B9 and 49.38

	jam, err := repos.ErrorCodes.GetErrorCode(ctx, core.ErrorCodeID(doc.Id, "13.B9.Az"))
	require.NoError(t, err)
	assert.Equal(t, "13.B9", jam.ParentCode)
	assert.Equal(t, "Jam in fuser area", jam.Description)
	assert.Equal(t, "Replace the fuser unit.", jam.Solution)
	assert.InDelta(t, 0.9, jam.Confidence, 1e-6) // exact match + "fuser" keyword
	assert.Equal(t, chunk.Id, jam.ChunkId)
	assert.False(t, jam.IsCategory)

	category, err := repos.ErrorCodes.GetErrorCode(ctx, core.ErrorCodeID(doc.Id, "13.B9"))
	require.NoError(t, err)
	assert.True(t, category.IsCategory)
	assert.Empty(t, category.ParentCode)
}

func TestExtractDedupAcrossChunks(t *testing.T) {
	extractor, repos := newTestExtractor(t)
	ctx := context.Background()

	doc := core.NewDocument("h2", "hp-manual.pdf", "hp")
	first := chunkOf(doc.Id, 0, "Error 13.B9.Az may appear during startup")
	second := chunkOf(doc.Id, 1, "13.B9.Az - Jam in fuser area near the fuser rollers")

	summary, err := extractor.ExtractFromChunks(ctx, doc, []*core.Chunk{first, second})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Codes)

	row, err := repos.ErrorCodes.GetErrorCode(ctx, core.ErrorCodeID(doc.Id, "13.B9.Az"))
	require.NoError(t, err)
	// Confidence is the max across mentions; the chunk link is the first seen
	assert.InDelta(t, 0.9, row.Confidence, 1e-6)
	assert.Equal(t, first.Id, row.ChunkId)
}

func TestExtractFlatManufacturer(t *testing.T) {
	extractor, repos := newTestExtractor(t)
	ctx := context.Background()

	doc := core.NewDocument("c1", "canon-manual.pdf", "canon")
	chunk := chunkOf(doc.Id, 0, "E045 indicates a fixing film failure. Replace the fixing film unit.")

	summary, err := extractor.ExtractFromChunks(ctx, doc, []*core.Chunk{chunk})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Codes)
	assert.Equal(t, 0, summary.Categories, "flat code space derives no categories")

	row, err := repos.ErrorCodes.GetErrorCode(ctx, core.ErrorCodeID(doc.Id, "E045"))
	require.NoError(t, err)
	assert.Empty(t, row.ParentCode)
}

func TestExtractParts(t *testing.T) {
	extractor, repos := newTestExtractor(t)
	ctx := context.Background()

	doc := core.NewDocument("h3", "hp-manual.pdf", "hp")
	chunk := chunkOf(doc.Id, 0,
		"Replace the fuser assembly RM1-1044-000 if worn.\n"+
			"The pickup roller RM1-0699 wears after 100k pages. Order RM1-0699 as needed.")

	summary, err := extractor.ExtractFromChunks(ctx, doc, []*core.Chunk{chunk})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Parts)

	parts, err := repos.Parts.GetParts(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "RM1-0699", parts[0].PartNumber)
	assert.Equal(t, "RM1-1044-000", parts[1].PartNumber)
}

func TestExtractIdempotentRerun(t *testing.T) {
	extractor, repos := newTestExtractor(t)
	ctx := context.Background()

	doc := core.NewDocument("h4", "hp-manual.pdf", "hp")
	chunks := []*core.Chunk{chunkOf(doc.Id, 0, "13.B9.Az - Jam in fuser area")}

	_, err := extractor.ExtractFromChunks(ctx, doc, chunks)
	require.NoError(t, err)
	_, err = extractor.ExtractFromChunks(ctx, doc, chunks)
	require.NoError(t, err)

	rows, err := repos.ErrorCodes.GetErrorCodes(ctx, doc.Id)
	require.NoError(t, err)
	assert.Len(t, rows, 2) // one code plus its category, no duplicates
}

func TestScoreCandidateBounds(t *testing.T) {
	extractor := NewExtractor(nil, nil, Config{Keywords: []string{"fuser"}})

	text := "error 13.B9.Az near the fuser"
	cands := []struct {
		exact    bool
		expected float32
	}{
		{true, 0.9},
		{false, 0.6},
	}
	for _, tc := range cands {
		got := extractor.scoreCandidate(text, fakeCandidate(text, "13.B9.Az", tc.exact))
		assert.InDelta(t, tc.expected, got, 1e-6)
	}

	// No keyword nearby: base only
	plain := "error 13.B9.Az appears"
	got := extractor.scoreCandidate(plain, fakeCandidate(plain, "13.B9.Az", true))
	assert.InDelta(t, 0.7, got, 1e-6)
}
