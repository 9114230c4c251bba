package badger

import (
	"encoding/binary"

	"github.com/poiesic/sift/core"
)

// Key prefixes for different data types
const (
	documentPrefix    = "docrec:"
	documentKeyPrefix = "dockey:"
	documentIDSeq     = "docseq"
)

// makeDocumentKey generates a key for a document by ID.
// Format: prefix + big-endian ID, so prefix scans follow insertion order.
func makeDocumentKey(id core.ID) []byte {
	buf := make([]byte, len(documentPrefix)+8)
	offset := copy(buf, documentPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// documentIDFromKey extracts the ID from a document key.
func documentIDFromKey(key []byte) (core.ID, bool) {
	if len(key) != len(documentPrefix)+8 || string(key[:len(documentPrefix)]) != documentPrefix {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(documentPrefix):])), true
}

// makeDocumentKeyIndexKey generates the unique index key for a document key.
// Format: prefix:key
func makeDocumentKeyIndexKey(key string) []byte {
	buf := make([]byte, len(documentKeyPrefix)+len(key))
	offset := copy(buf, documentKeyPrefix)
	copy(buf[offset:], key)
	return buf
}
