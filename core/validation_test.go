package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "valid document",
			doc:     NewDocument("abc", "m.pdf", "hp"),
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "missing content hash",
			doc:     &Document{Manufacturer: "hp"},
			wantErr: ErrEmptyContentHash,
		},
		{
			name:    "missing manufacturer",
			doc:     &Document{ContentHash: "abc"},
			wantErr: ErrEmptyManufacturer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &Chunk{PageNumber: 1, Text: "Remove the rear cover."},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty text",
			chunk:   &Chunk{PageNumber: 1},
			wantErr: ErrEmptyChunkText,
		},
		{
			name:    "page zero",
			chunk:   &Chunk{PageNumber: 0, Text: "text"},
			wantErr: ErrInvalidPageNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateErrorCode(t *testing.T) {
	tests := []struct {
		name    string
		code    *ErrorCode
		wantErr error
	}{
		{
			name:    "valid specific code",
			code:    &ErrorCode{Code: "13.B9.Az", ParentCode: "13.B9", Confidence: 0.9},
			wantErr: nil,
		},
		{
			name:    "valid category",
			code:    &ErrorCode{Code: "13.B9", IsCategory: true, Confidence: 1},
			wantErr: nil,
		},
		{
			name:    "empty code",
			code:    &ErrorCode{Confidence: 0.5},
			wantErr: ErrEmptyCode,
		},
		{
			name:    "confidence above one",
			code:    &ErrorCode{Code: "E01", Confidence: 1.2},
			wantErr: ErrConfidenceOutOfRange,
		},
		{
			name:    "category with parent",
			code:    &ErrorCode{Code: "13.B9", IsCategory: true, ParentCode: "13", Confidence: 1},
			wantErr: ErrCategoryWithParent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateErrorCode(tt.code)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateErrorCode() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateErrorCode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateImage(t *testing.T) {
	valid := &Image{PageNumber: 2, AIConfidence: 0.5}
	if err := ValidateImage(valid); err != nil {
		t.Errorf("ValidateImage() unexpected error: %v", err)
	}

	if err := ValidateImage(nil); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("ValidateImage(nil) error = %v, want %v", err, ErrInvalidImage)
	}

	bad := &Image{PageNumber: 1, AIConfidence: -0.1}
	if err := ValidateImage(bad); !errors.Is(err, ErrConfidenceOutOfRange) {
		t.Errorf("ValidateImage() error = %v, want %v", err, ErrConfidenceOutOfRange)
	}
}
