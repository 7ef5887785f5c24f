package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

func makeChunks(docId core.ID, texts ...string) []*core.Chunk {
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{
			Id:         core.ChunkID(docId, 1, i),
			DocumentId: docId,
			PageNumber: 1,
			Ordinal:    i,
			Text:       text,
			TextHash:   core.IDFromContent(text),
		}
	}
	return chunks
}

func TestChunkReplaceAndGet(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	docId := core.ID(42)

	chunks := makeChunks(docId, "first chunk", "second chunk", "third chunk")
	if _, err := repos.Chunks.ReplaceChunks(ctx, docId, chunks); err != nil {
		t.Fatalf("Failed to replace chunks: %v", err)
	}

	got, err := repos.Chunks.GetChunks(ctx, docId)
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(got))
	}
	for i, chunk := range got {
		if chunk.Ordinal != i {
			t.Fatalf("Chunk %d out of order: ordinal %d", i, chunk.Ordinal)
		}
	}

	single, err := repos.Chunks.GetChunk(ctx, chunks[1].Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if single.Text != "second chunk" {
		t.Fatalf("Expected 'second chunk', got '%s'", single.Text)
	}

	count, err := repos.Chunks.CountChunks(ctx, docId)
	if err != nil {
		t.Fatalf("Failed to count chunks: %v", err)
	}
	if count != 3 {
		t.Fatalf("Expected count 3, got %d", count)
	}
}

func TestChunkReplaceShrinks(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	docId := core.ID(7)

	first := makeChunks(docId, "one", "two", "three", "four")
	if _, err := repos.Chunks.ReplaceChunks(ctx, docId, first); err != nil {
		t.Fatalf("Failed to replace chunks: %v", err)
	}

	// Re-extraction produces fewer chunks; the tail must not survive
	second := makeChunks(docId, "one", "two")
	if _, err := repos.Chunks.ReplaceChunks(ctx, docId, second); err != nil {
		t.Fatalf("Failed to replace chunks: %v", err)
	}

	got, err := repos.Chunks.GetChunks(ctx, docId)
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 chunks after shrink, got %d", len(got))
	}

	_, err = repos.Chunks.GetChunk(ctx, first[3].Id)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for removed chunk, got %v", err)
	}
}

func TestChunkIsolationBetweenDocuments(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	if _, err := repos.Chunks.ReplaceChunks(ctx, 1, makeChunks(1, "doc one text")); err != nil {
		t.Fatalf("Failed to replace chunks: %v", err)
	}
	if _, err := repos.Chunks.ReplaceChunks(ctx, 2, makeChunks(2, "doc two text", "more text")); err != nil {
		t.Fatalf("Failed to replace chunks: %v", err)
	}

	one, err := repos.Chunks.GetChunks(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(one) != 1 {
		t.Fatalf("Expected 1 chunk for doc 1, got %d", len(one))
	}

	two, err := repos.Chunks.GetChunks(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(two) != 2 {
		t.Fatalf("Expected 2 chunks for doc 2, got %d", len(two))
	}
}
