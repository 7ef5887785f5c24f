package badger

import (
	"context"
	"testing"

	"github.com/nexfix/manualbase/core"
)

func TestErrorCodeUpsertMerge(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	docId := core.ID(1)
	chunkA := core.ChunkID(docId, 3, 0)
	chunkB := core.ChunkID(docId, 9, 2)

	first := &core.ErrorCode{
		Id:          core.ErrorCodeID(docId, "13.B9.Az"),
		DocumentId:  docId,
		Code:        "13.B9.Az",
		ParentCode:  "13.B9",
		Description: "Paper jam in fuser area",
		Confidence:  0.7,
		ChunkId:     chunkA,
	}
	if _, err := repos.ErrorCodes.UpsertErrorCode(ctx, first); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	// A later sighting with lower confidence and a different chunk must not
	// lower the confidence or move the chunk link
	second := &core.ErrorCode{
		Id:         core.ErrorCodeID(docId, "13.B9.Az"),
		DocumentId: docId,
		Code:       "13.B9.Az",
		ParentCode: "13.B9",
		Solution:   "Replace fuser unit.",
		Confidence: 0.4,
		ChunkId:    chunkB,
	}
	merged, err := repos.ErrorCodes.UpsertErrorCode(ctx, second)
	if err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	if merged.Confidence != 0.7 {
		t.Fatalf("Confidence must not decrease: got %f", merged.Confidence)
	}
	if merged.ChunkId != chunkA {
		t.Fatal("First chunk link must stick")
	}
	if merged.Description != "Paper jam in fuser area" {
		t.Fatalf("Description lost: '%s'", merged.Description)
	}
	if merged.Solution != "Replace fuser unit." {
		t.Fatalf("Solution should fill in: '%s'", merged.Solution)
	}

	// Higher confidence does raise it
	third := &core.ErrorCode{
		Id:         core.ErrorCodeID(docId, "13.B9.Az"),
		DocumentId: docId,
		Code:       "13.B9.Az",
		ParentCode: "13.B9",
		Confidence: 0.9,
	}
	merged, err = repos.ErrorCodes.UpsertErrorCode(ctx, third)
	if err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if merged.Confidence != 0.9 {
		t.Fatalf("Expected confidence 0.9, got %f", merged.Confidence)
	}
}

func TestEnsureCategory(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	docId := core.ID(1)

	cat, err := repos.ErrorCodes.EnsureCategory(ctx, docId, "13.B9")
	if err != nil {
		t.Fatalf("Failed to ensure category: %v", err)
	}
	if !cat.IsCategory {
		t.Fatal("Expected a category row")
	}
	if cat.ParentCode != "" {
		t.Fatalf("Category must not have a parent, got '%s'", cat.ParentCode)
	}

	// Second ensure is a no-op
	again, err := repos.ErrorCodes.EnsureCategory(ctx, docId, "13.B9")
	if err != nil {
		t.Fatalf("Failed to ensure category again: %v", err)
	}
	if again.Id != cat.Id {
		t.Fatal("Ensure must return the same row")
	}

	// A later leaf extraction of the same code string replaces the placeholder
	leaf := &core.ErrorCode{
		Id:          core.ErrorCodeID(docId, "13.B9"),
		DocumentId:  docId,
		Code:        "13.B9",
		ParentCode:  "13",
		Description: "Jam in duplexer",
		Confidence:  0.7,
	}
	merged, err := repos.ErrorCodes.UpsertErrorCode(ctx, leaf)
	if err != nil {
		t.Fatalf("Failed to upsert leaf: %v", err)
	}
	if merged.IsCategory {
		t.Fatal("Extracted leaf must replace placeholder category")
	}
	if merged.ParentCode != "13" {
		t.Fatalf("Expected parent '13', got '%s'", merged.ParentCode)
	}
}

func TestErrorCodeQueries(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	rows := []*core.ErrorCode{
		{Id: core.ErrorCodeID(1, "49.38.07"), DocumentId: 1, Code: "49.38.07", ParentCode: "49.38", Confidence: 0.7},
		{Id: core.ErrorCodeID(1, "13.B9.Az"), DocumentId: 1, Code: "13.B9.Az", ParentCode: "13.B9", Confidence: 0.7},
		{Id: core.ErrorCodeID(2, "13.B9.Az"), DocumentId: 2, Code: "13.B9.Az", ParentCode: "13.B9", Confidence: 0.4},
	}
	for _, row := range rows {
		if _, err := repos.ErrorCodes.UpsertErrorCode(ctx, row); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
	}

	docCodes, err := repos.ErrorCodes.GetErrorCodes(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to get codes: %v", err)
	}
	if len(docCodes) != 2 {
		t.Fatalf("Expected 2 codes for doc 1, got %d", len(docCodes))
	}
	// Ordered by code string
	if docCodes[0].Code != "13.B9.Az" || docCodes[1].Code != "49.38.07" {
		t.Fatalf("Codes out of order: %s, %s", docCodes[0].Code, docCodes[1].Code)
	}

	matches, err := repos.ErrorCodes.FindByCode(ctx, "13.B9.Az")
	if err != nil {
		t.Fatalf("Failed to find by code: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 cross-document matches, got %d", len(matches))
	}
}

func TestErrorCodeLinkAndTranslation(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	docId := core.ID(1)

	row := &core.ErrorCode{
		Id:         core.ErrorCodeID(docId, "E045"),
		DocumentId: docId,
		Code:       "E045",
		Solution:   "Check the fixing film unit.",
		Confidence: 0.7,
	}
	if _, err := repos.ErrorCodes.UpsertErrorCode(ctx, row); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	chunkId := core.ChunkID(docId, 12, 4)
	if err := repos.ErrorCodes.SetChunkLink(ctx, row.Id, chunkId); err != nil {
		t.Fatalf("Failed to set chunk link: %v", err)
	}
	if err := repos.ErrorCodes.SetSolutionTranslation(ctx, row.Id, "Fixiereinheit prüfen."); err != nil {
		t.Fatalf("Failed to set translation: %v", err)
	}

	got, err := repos.ErrorCodes.GetErrorCode(ctx, row.Id)
	if err != nil {
		t.Fatalf("Failed to get code: %v", err)
	}
	if got.ChunkId != chunkId {
		t.Fatal("Chunk link not persisted")
	}
	if got.SolutionTranslated != "Fixiereinheit prüfen." {
		t.Fatalf("Translation not persisted: '%s'", got.SolutionTranslated)
	}
}
