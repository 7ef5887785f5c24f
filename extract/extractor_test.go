package extract

import (
	"strings"
	"testing"

	pdftext "github.com/tsawler/tabula/text"
)

func TestSplitIntoChunks(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		size     int
		expected int
	}{
		{"empty text", "", 100, 0},
		{"whitespace only", "   \n  ", 100, 0},
		{"fits in one chunk", "short page text", 100, 1},
		{"splits at lines", strings.Repeat("a line of manual text\n", 20), 100, 5},
		{"oversized single line", strings.Repeat("x", 500), 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitIntoChunks(tt.text, tt.size)
			if len(chunks) != tt.expected {
				t.Errorf("Expected %d chunks, got %d", tt.expected, len(chunks))
			}
			for i, chunk := range chunks {
				if strings.TrimSpace(chunk) == "" {
					t.Errorf("Chunk %d is blank", i)
				}
			}
		})
	}
}

func TestSplitIntoChunksPreservesOrderAndContent(t *testing.T) {
	text := "first line\nsecond line\nthird line"
	chunks := splitIntoChunks(text, 15)

	joined := strings.Join(chunks, "\n")
	if joined != text {
		t.Fatalf("Content lost or reordered:\n%s", joined)
	}
}

func TestAssemblePageText(t *testing.T) {
	fragments := []pdftext.TextFragment{
		{Text: "13.B9.Az", X: 50, Y: 700, Height: 10},
		{Text: "Fuser jam", X: 120, Y: 700, Height: 10},
		{Text: "Replace the fuser unit.", X: 50, Y: 680, Height: 10},
	}

	got := assemblePageText(fragments)
	expected := "13.B9.Az Fuser jam\nReplace the fuser unit."
	if got != expected {
		t.Fatalf("Expected %q, got %q", expected, got)
	}
}

func TestAssemblePageTextSkipsEmptyFragments(t *testing.T) {
	fragments := []pdftext.TextFragment{
		{Text: "  ", Y: 700, Height: 10},
		{Text: "visible", Y: 700, Height: 10},
	}
	if got := assemblePageText(fragments); got != "visible" {
		t.Fatalf("Expected 'visible', got %q", got)
	}
}
