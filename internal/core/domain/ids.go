package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// DocumentIDLength is the length of every content-derived document id.
const DocumentIDLength = sha256.Size * 2

// DocumentIDFromContent derives a stable identifier from raw document bytes.
// Identical bytes always yield the same id.
func DocumentIDFromContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ChunkID builds the identifier of the chunk at position index in a document.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s:%d", documentID, index)
}

// ParseChunkID splits a chunk id into its document id and index.
func ParseChunkID(id string) (documentID string, index int, err error) {
	i := strings.LastIndexByte(id, ':')
	if i <= 0 {
		return "", 0, fmt.Errorf("chunk id %q: %w", id, ErrInvalidInput)
	}
	index, err = strconv.Atoi(id[i+1:])
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("chunk id %q: %w", id, ErrInvalidInput)
	}
	return id[:i], index, nil
}
