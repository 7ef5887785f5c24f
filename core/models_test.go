package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "Error 13.B9.Az: Paper Jam in fuser area. Solution: Replace fuser unit."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash([]byte("manual bytes"))
	h2 := ContentHash([]byte("manual bytes"))
	h3 := ContentHash([]byte("other bytes"))

	if h1 != h2 {
		t.Errorf("ContentHash() produced different digests for same bytes")
	}
	if h1 == h3 {
		t.Errorf("ContentHash() produced same digest for different bytes")
	}
	if len(h1) != 64 {
		t.Errorf("ContentHash() expected 64 hex chars, got %d", len(h1))
	}
}

func TestChunkID_Stable(t *testing.T) {
	doc := IDFromContent("hash")

	if ChunkID(doc, 3, 7) != ChunkID(doc, 3, 7) {
		t.Error("ChunkID() not stable for same position")
	}
	if ChunkID(doc, 3, 7) == ChunkID(doc, 3, 8) {
		t.Error("ChunkID() collided for different ordinals")
	}
	if ChunkID(doc, 3, 7) == ChunkID(doc, 4, 7) {
		t.Error("ChunkID() collided for different pages")
	}
}

func TestErrorCodeID_CollapsesPerDocument(t *testing.T) {
	doc1 := IDFromContent("hash1")
	doc2 := IDFromContent("hash2")

	if ErrorCodeID(doc1, "13.B9.Az") != ErrorCodeID(doc1, "13.B9.Az") {
		t.Error("ErrorCodeID() not stable for same document+code")
	}
	if ErrorCodeID(doc1, "13.B9.Az") == ErrorCodeID(doc2, "13.B9.Az") {
		t.Error("ErrorCodeID() collided across documents")
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("abc123", "printer.pdf", "hp")

	if doc.Id != IDFromContent("abc123") {
		t.Errorf("NewDocument() id not derived from content hash")
	}
	if len(doc.StageStatus) != len(Stages) {
		t.Fatalf("Expected %d stage entries, got %d", len(Stages), len(doc.StageStatus))
	}
	for _, s := range Stages {
		if doc.StageStatus[s] != StateNotStarted {
			t.Errorf("Stage %s expected not_started, got %s", s, doc.StageStatus[s])
		}
	}
}

func TestDocument_OverallState(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
		want   StageState
	}{
		{
			name:   "fresh document",
			mutate: func(d *Document) {},
			want:   StateNotStarted,
		},
		{
			name: "all completed",
			mutate: func(d *Document) {
				for _, s := range Stages {
					d.StageStatus[s] = StateCompleted
				}
			},
			want: StateCompleted,
		},
		{
			name: "one failed stage dominates",
			mutate: func(d *Document) {
				for _, s := range Stages {
					d.StageStatus[s] = StateCompleted
				}
				d.StageStatus[StageVision] = StateFailed
			},
			want: StateFailed,
		},
		{
			name: "in progress beats not started",
			mutate: func(d *Document) {
				d.StageStatus[StageExtract] = StateInProgress
			},
			want: StateInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument("hash", "m.pdf", "hp")
			tt.mutate(doc)
			if got := doc.OverallState(); got != tt.want {
				t.Errorf("OverallState() = %s, want %s", got, tt.want)
			}
		})
	}
}
