package badger

import (
	"context"
	"testing"

	"github.com/nexfix/manualbase/core"
)

func TestImageReplaceAndOrdering(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	docId := core.ID(5)

	images := []*core.Image{
		{Id: core.ImageID(docId, 12, 0), DocumentId: docId, PageNumber: 12, Index: 0, Data: []byte{1}},
		{Id: core.ImageID(docId, 3, 1), DocumentId: docId, PageNumber: 3, Index: 1, Data: []byte{2}},
		{Id: core.ImageID(docId, 3, 0), DocumentId: docId, PageNumber: 3, Index: 0, Data: []byte{3}},
	}
	if _, err := repos.Images.ReplaceImages(ctx, docId, images); err != nil {
		t.Fatalf("Failed to replace images: %v", err)
	}

	got, err := repos.Images.GetImages(ctx, docId)
	if err != nil {
		t.Fatalf("Failed to get images: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 images, got %d", len(got))
	}
	// Ordered by page, then index within a page
	if got[0].PageNumber != 3 || got[0].Index != 0 {
		t.Fatalf("Expected page 3 index 0 first, got page %d index %d", got[0].PageNumber, got[0].Index)
	}
	if got[1].PageNumber != 3 || got[1].Index != 1 {
		t.Fatalf("Expected page 3 index 1 second, got page %d index %d", got[1].PageNumber, got[1].Index)
	}
	if got[2].PageNumber != 12 {
		t.Fatalf("Expected page 12 last, got page %d", got[2].PageNumber)
	}
}

func TestImageUpdateAnalysisAndFigureLink(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	docId := core.ID(5)

	img := &core.Image{Id: core.ImageID(docId, 7, 0), DocumentId: docId, PageNumber: 7, Index: 0, Data: []byte{0x89}}
	if _, err := repos.Images.ReplaceImages(ctx, docId, []*core.Image{img}); err != nil {
		t.Fatalf("Failed to replace images: %v", err)
	}

	if err := repos.Images.UpdateAnalysis(ctx, img.Id, "Fuser assembly exploded view", []string{"fuser", "diagram"}, 0.82); err != nil {
		t.Fatalf("Failed to update analysis: %v", err)
	}

	chunkId := core.ChunkID(docId, 7, 1)
	if err := repos.Images.UpdateFigureLink(ctx, img.Id, "4-12", "Figure 4-12 shows the fuser assembly.", chunkId); err != nil {
		t.Fatalf("Failed to update figure link: %v", err)
	}

	got, err := repos.Images.GetImage(ctx, img.Id)
	if err != nil {
		t.Fatalf("Failed to get image: %v", err)
	}
	if got.AIDescription != "Fuser assembly exploded view" {
		t.Fatalf("Analysis not persisted: '%s'", got.AIDescription)
	}
	if got.AIConfidence != 0.82 {
		t.Fatalf("Expected confidence 0.82, got %f", got.AIConfidence)
	}
	if got.FigureNumber != "4-12" || got.ChunkId != chunkId {
		t.Fatal("Figure link not persisted")
	}
	if len(got.Data) != 1 || got.Data[0] != 0x89 {
		t.Fatal("Image data must survive metadata updates")
	}
}
