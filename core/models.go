package core

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// IDs are derived from content so that identical inputs always map to the
// same entity: re-running a stage overwrites rows instead of duplicating them.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentHash computes the hex-encoded BLAKE2b digest of raw file bytes.
// Two documents with the same content hash are the same logical document.
func ContentHash(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Stage names one independently trackable phase of document processing.
type Stage string

const (
	// StageExtract segments the source PDF into ordered text chunks and images.
	StageExtract Stage = "text_extraction"
	// StageCodes extracts and categorizes error codes from chunks.
	StageCodes Stage = "error_codes"
	// StageVision analyzes embedded images with the vision model.
	StageVision Stage = "vision"
	// StageLink associates images and error codes with their context chunks.
	StageLink Stage = "linking"
	// StageEmbed computes vector embeddings per chunk.
	StageEmbed Stage = "embedding"
	// StageTranslate optionally translates remediation text.
	StageTranslate Stage = "translation"
)

// Stages lists all pipeline stages in dependency order.
var Stages = []Stage{StageExtract, StageCodes, StageVision, StageLink, StageEmbed, StageTranslate}

// StageState is the persisted status of a single stage for one document.
type StageState string

const (
	StateNotStarted StageState = "not_started"
	StatePending    StageState = "pending"
	StateInProgress StageState = "in_progress"
	StateCompleted  StageState = "completed"
	StateFailed     StageState = "failed"
)

// Document is the root record for one ingested service manual.
// It is created on first sight of a new content hash and mutated only by the
// stage orchestrator. The pipeline never deletes documents.
type Document struct {
	Id           ID
	ContentHash  string
	Filename     string
	Manufacturer string
	PageCount    int
	StageStatus  map[Stage]StageState
	StageReasons map[Stage]string // failure reasons, keyed by failed stage
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// NewDocument creates a Document with every stage marked not_started.
// The document ID is derived from the content hash.
func NewDocument(contentHash, filename, manufacturer string) *Document {
	status := make(map[Stage]StageState, len(Stages))
	for _, s := range Stages {
		status[s] = StateNotStarted
	}
	return &Document{
		Id:           IDFromContent(contentHash),
		ContentHash:  contentHash,
		Filename:     filename,
		Manufacturer: manufacturer,
		StageStatus:  status,
		StageReasons: make(map[Stage]string),
	}
}

// stateRank orders stage states from least to most successful.
var stateRank = map[StageState]int{
	StateFailed:     0,
	StateInProgress: 1,
	StatePending:    2,
	StateNotStarted: 3,
	StateCompleted:  4,
}

// OverallState reports the document's status as the status of its
// least-successful stage. Partial completion is a valid end state.
func (d *Document) OverallState() StageState {
	overall := StateCompleted
	for _, s := range Stages {
		state, ok := d.StageStatus[s]
		if !ok {
			state = StateNotStarted
		}
		if stateRank[state] < stateRank[overall] {
			overall = state
		}
	}
	return overall
}

// Chunk is a contiguous, ordered span of extracted document text. It is the
// atomic unit for linking and embedding. Chunks are created once by the text
// extraction stage and immutable thereafter; re-extraction replaces them.
type Chunk struct {
	Id         ID
	DocumentId ID
	PageNumber int // 1-indexed
	Ordinal    int // position within the document
	Text       string
	TextHash   ID // hash of Text, used to detect stale embeddings
	InsertedAt time.Time
}

// ChunkID derives the stable identity of a chunk from its position within a
// document. Re-extracting the same page yields the same ID, so replacement
// overwrites in place.
func ChunkID(documentId ID, pageNumber, ordinal int) ID {
	return IDFromContent("chunk|" + itoa(uint64(documentId)) + "|" + itoa(uint64(pageNumber)) + "|" + itoa(uint64(ordinal)))
}

// ErrorCode is a diagnostic code extracted from manual text.
// ParentCode and ChunkId are weak references: they are not enforced and a
// dangling value is a valid state.
type ErrorCode struct {
	Id                 ID
	DocumentId         ID
	Code               string
	ParentCode         string // empty when the code has no hierarchy
	IsCategory         bool
	Description        string
	Solution           string
	SolutionTranslated string
	Confidence         float32 // in [0,1]
	ChunkId            ID      // 0 when no contextual chunk is known
	InsertedAt         time.Time
	UpdatedAt          time.Time
}

// ErrorCodeID derives the per-document identity of an error code, so the same
// code string within one document always collapses to a single row.
func ErrorCodeID(documentId ID, code string) ID {
	return IDFromContent("errcode|" + itoa(uint64(documentId)) + "|" + code)
}

// Image is an embedded picture extracted from a document page.
// AIDescription and AIConfidence are always populated after the vision stage,
// even when the model is disabled or fails. ManualDescription is written only
// by external reviewers, never by the pipeline.
type Image struct {
	Id                ID
	DocumentId        ID
	PageNumber        int // 1-indexed
	Index             int // position within the page
	Data              []byte
	ChunkId           ID // 0 until a contextual link is found
	AIDescription     string
	AITags            []string
	AIConfidence      float32
	FigureNumber      string
	FigureContext     string
	ManualDescription string
	InsertedAt        time.Time
	UpdatedAt         time.Time
}

// ImageID derives the stable identity of an image from its position.
func ImageID(documentId ID, pageNumber, index int) ID {
	return IDFromContent("image|" + itoa(uint64(documentId)) + "|" + itoa(uint64(pageNumber)) + "|" + itoa(uint64(index)))
}

// Embedding is a vector representation of one chunk, one-to-one.
// TextHash records the chunk text the vector was computed from; a mismatch
// with the chunk's current TextHash marks the embedding stale.
type Embedding struct {
	ChunkId    ID
	DocumentId ID
	Vector     []float32
	TextHash   ID
	Model      string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Part is a replaceable component referenced by the manual.
type Part struct {
	Id          ID
	DocumentId  ID
	PartNumber  string
	Description string
	ChunkId     ID
	Confidence  float32
	InsertedAt  time.Time
}

// PartID derives the per-document identity of a part number.
func PartID(documentId ID, partNumber string) ID {
	return IDFromContent("part|" + itoa(uint64(documentId)) + "|" + partNumber)
}

// ChunkMatch is a chunk returned from vector similarity search.
type ChunkMatch struct {
	Chunk *Chunk
	Score float32
}

// itoa renders a uint64 in decimal without pulling strconv into every ID
// derivation call site.
func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
