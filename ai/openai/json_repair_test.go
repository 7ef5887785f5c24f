package openai

import "testing"

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"valid passes through",
			`{"description":"a roller","tags":[],"confidence":0.5}`,
			`{"description":"a roller","tags":[],"confidence":0.5}`,
		},
		{
			"missing opening quote on key",
			`{"description":"x", tags":["photo"]}`,
			`{"description":"x", "tags":["photo"]}`,
		},
		{
			"trailing comma in object",
			`{"description":"x","confidence":0.5,}`,
			`{"description":"x","confidence":0.5}`,
		},
		{
			"trailing comma in array",
			`{"tags":["photo","table",]}`,
			`{"tags":["photo","table"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repairJSON(tt.input); got != tt.expected {
				t.Errorf("repairJSON(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	input := "```json\n{\"description\":\"x\"}\n```"
	expected := `{"description":"x"}`
	if got := stripCodeFences(input); got != expected {
		t.Errorf("stripCodeFences = %q, want %q", got, expected)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := normalizeTags([]string{"Exploded View", "photo", "hallucinated_tag", "photo"})
	if len(got) != 2 {
		t.Fatalf("Expected 2 tags, got %v", got)
	}
	if got[0] != "exploded_view" || got[1] != "photo" {
		t.Fatalf("Unexpected tags: %v", got)
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		input    float32
		expected float32
	}{
		{0.85, 0.85},
		{85, 0.85},
		{-0.2, 0},
		{150, 1},
	}
	for _, tt := range tests {
		if got := clampConfidence(tt.input); got != tt.expected {
			t.Errorf("clampConfidence(%f) = %f, want %f", tt.input, got, tt.expected)
		}
	}
}
