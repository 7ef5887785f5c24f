// Copyright 2025 Nexfix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/nexfix/manualbase/core"
)

// Record values are stored as JSON; IDs inside index values are stored as
// fixed-width big-endian bytes so they sort lexicographically.

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("%w: id needs 8 bytes, got %d", ErrSerializationFailed, len(data))
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) ([]byte, error) {
	return marshal(doc)
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	return unmarshal[core.Document](data)
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) ([]byte, error) {
	return marshal(chunk)
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	return unmarshal[core.Chunk](data)
}

// MarshalErrorCode serializes an ErrorCode to bytes.
func MarshalErrorCode(code *core.ErrorCode) ([]byte, error) {
	return marshal(code)
}

// UnmarshalErrorCode deserializes an ErrorCode from bytes.
func UnmarshalErrorCode(data []byte) (*core.ErrorCode, error) {
	return unmarshal[core.ErrorCode](data)
}

// MarshalImage serializes an Image to bytes.
func MarshalImage(img *core.Image) ([]byte, error) {
	return marshal(img)
}

// UnmarshalImage deserializes an Image from bytes.
func UnmarshalImage(data []byte) (*core.Image, error) {
	return unmarshal[core.Image](data)
}

// MarshalEmbedding serializes an Embedding to bytes.
func MarshalEmbedding(emb *core.Embedding) ([]byte, error) {
	return marshal(emb)
}

// UnmarshalEmbedding deserializes an Embedding from bytes.
func UnmarshalEmbedding(data []byte) (*core.Embedding, error) {
	return unmarshal[core.Embedding](data)
}

// MarshalPart serializes a Part to bytes.
func MarshalPart(part *core.Part) ([]byte, error) {
	return marshal(part)
}

// UnmarshalPart deserializes a Part from bytes.
func UnmarshalPart(data []byte) (*core.Part, error) {
	return unmarshal[core.Part](data)
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshal[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &v, nil
}
