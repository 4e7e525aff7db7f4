package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// ChunkID derives a deterministic vector ID from chunk content. The same
// (text, source, position) always hashes to the same ID, so re-ingesting
// identical text overwrites instead of duplicating.
func ChunkID(text, source string, position int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%d", text, source, position)))
	return hex.EncodeToString(sum[:])
}

// DocumentID derives a short stable identifier for a raw input document.
func DocumentID(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:12]
}
