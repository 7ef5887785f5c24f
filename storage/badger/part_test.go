package badger

import (
	"context"
	"testing"

	"github.com/nexfix/manualbase/core"
)

func TestPartUpsertAndQueries(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	parts := []*core.Part{
		{Id: core.PartID(1, "RM1-1044-000"), DocumentId: 1, PartNumber: "RM1-1044-000", Description: "Fuser assembly", Confidence: 0.7},
		{Id: core.PartID(1, "RM1-0699"), DocumentId: 1, PartNumber: "RM1-0699", Confidence: 0.4},
		{Id: core.PartID(2, "RM1-1044-000"), DocumentId: 2, PartNumber: "RM1-1044-000", Confidence: 0.7},
	}
	for _, part := range parts {
		if _, err := repos.Parts.UpsertPart(ctx, part); err != nil {
			t.Fatalf("Failed to upsert part: %v", err)
		}
	}

	docParts, err := repos.Parts.GetParts(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to get parts: %v", err)
	}
	if len(docParts) != 2 {
		t.Fatalf("Expected 2 parts for doc 1, got %d", len(docParts))
	}
	// Ordered by part number
	if docParts[0].PartNumber != "RM1-0699" {
		t.Fatalf("Parts out of order: %s first", docParts[0].PartNumber)
	}

	matches, err := repos.Parts.FindByPartNumber(ctx, "RM1-1044-000")
	if err != nil {
		t.Fatalf("Failed to find by part number: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 cross-document matches, got %d", len(matches))
	}
}

func TestPartUpsertMerge(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	chunkA := core.ChunkID(1, 2, 0)

	first := &core.Part{Id: core.PartID(1, "RM1-0699"), DocumentId: 1, PartNumber: "RM1-0699", Description: "Pickup roller", Confidence: 0.7, ChunkId: chunkA}
	if _, err := repos.Parts.UpsertPart(ctx, first); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	second := &core.Part{Id: core.PartID(1, "RM1-0699"), DocumentId: 1, PartNumber: "RM1-0699", Confidence: 0.4, ChunkId: core.ChunkID(1, 8, 3)}
	merged, err := repos.Parts.UpsertPart(ctx, second)
	if err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	if merged.Confidence != 0.7 {
		t.Fatalf("Confidence must not decrease: got %f", merged.Confidence)
	}
	if merged.ChunkId != chunkA {
		t.Fatal("First chunk link must stick")
	}
	if merged.Description != "Pickup roller" {
		t.Fatalf("Description lost: '%s'", merged.Description)
	}
}
