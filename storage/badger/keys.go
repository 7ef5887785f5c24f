package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/nexfix/manualbase/core"
)

// Key prefixes for different data types. Prefixes are chosen so that no
// prefix is a prefix of another, which keeps prefix iteration exact.
const (
	documentPrefix     = "docrec"
	documentHashPrefix = "dochash"
	chunkPrefix        = "chkrec"
	chunkOrdinalPrefix = "chkord"
	errorCodePrefix    = "errrec"
	errorDocPrefix     = "errdoc"
	errorLookupPrefix  = "errcod"
	imagePrefix        = "imgrec"
	imageDocPrefix     = "imgdoc"
	embeddingPrefix    = "embrec"
	partPrefix         = "prtrec"
	partDocPrefix      = "prtdoc"
	partLookupPrefix   = "prtnum"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentHashKey generates a key for the content-hash index.
func makeDocumentHashKey(contentHash string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentHashPrefix, contentHash))
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkOrdinalKey generates a composite key for the per-document
// ordinal index. Format: prefix:documentID:ordinal
func makeChunkOrdinalKey(documentId core.ID, ordinal int) []byte {
	prefix := chunkOrdinalPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for documentID + 8 bytes for ordinal
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(ordinal))
	return buf
}

// makePartialChunkOrdinalKey generates a partial key for per-document
// chunk iteration. Format: prefix:documentID
func makePartialChunkOrdinalKey(documentId core.ID) []byte {
	prefix := chunkOrdinalPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}

// makeErrorCodeKey generates a key for an error code by ID.
func makeErrorCodeKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", errorCodePrefix, id))
}

// makeErrorDocKey generates a composite key for the per-document error
// code index. The code string sits at the tail so lexicographic
// iteration yields codes in string order. Format: prefix:documentID:code
func makeErrorDocKey(documentId core.ID, code string) []byte {
	prefix := errorDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 + len(code)
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	offset += 8
	copy(buf[offset:], []byte(code))
	return buf
}

// makePartialErrorDocKey generates a partial key for per-document error
// code iteration. Format: prefix:documentID
func makePartialErrorDocKey(documentId core.ID) []byte {
	prefix := errorDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}

// makeErrorLookupKey generates a composite key for cross-document code
// lookup. Format: prefix:code:recordID
func makeErrorLookupKey(code string, id core.ID) []byte {
	prefix := errorLookupPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + len(code) + 1 + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	offset += copy(buf[offset:], []byte(code))
	buf[offset] = ':'
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialErrorLookupKey generates a partial key for code lookup.
// Format: prefix:code:
func makePartialErrorLookupKey(code string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", errorLookupPrefix, code))
}

// makeImageKey generates a key for an image by ID.
func makeImageKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", imagePrefix, id))
}

// makeImageDocKey generates a composite key for the per-document image
// index, ordered by page then index. Format: prefix:documentID:page:index
func makeImageDocKey(documentId core.ID, pageNumber, index int) []byte {
	prefix := imageDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 24
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(pageNumber))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}

// makePartialImageDocKey generates a partial key for per-document image
// iteration. Format: prefix:documentID
func makePartialImageDocKey(documentId core.ID) []byte {
	prefix := imageDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}

// makeEmbeddingKey generates a key for a chunk embedding by chunk ID.
func makeEmbeddingKey(chunkId core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", embeddingPrefix, chunkId))
}

// makePartKey generates a key for a part by ID.
func makePartKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", partPrefix, id))
}

// makePartDocKey generates a composite key for the per-document part
// index, ordered by part number. Format: prefix:documentID:partNumber
func makePartDocKey(documentId core.ID, partNumber string) []byte {
	prefix := partDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 + len(partNumber)
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	offset += 8
	copy(buf[offset:], []byte(partNumber))
	return buf
}

// makePartialPartDocKey generates a partial key for per-document part
// iteration. Format: prefix:documentID
func makePartialPartDocKey(documentId core.ID) []byte {
	prefix := partDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}

// makePartLookupKey generates a composite key for cross-document part
// number lookup. Format: prefix:partNumber:recordID
func makePartLookupKey(partNumber string, id core.ID) []byte {
	prefix := partLookupPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + len(partNumber) + 1 + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	offset += copy(buf[offset:], []byte(partNumber))
	buf[offset] = ':'
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialPartLookupKey generates a partial key for part number lookup.
// Format: prefix:partNumber:
func makePartialPartLookupKey(partNumber string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", partLookupPrefix, partNumber))
}
