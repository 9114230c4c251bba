package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for catalog entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Field is one searchable facet of an item, such as a single property or the
// item's own string form. Entirely forces case and whitespace insensitive
// equality instead of substring containment.
type Field struct {
	Text     string
	Entirely bool
}

// Searchable is implemented by item types that declare their own search fields.
// The order of the returned fields is significant: earlier fields rank higher.
type Searchable interface {
	SearchFields() []Field
}

// Attribute is a named value on a catalog document.
type Attribute struct {
	Name  string
	Value string
	Exact bool // Match only when a keyword equals the whole value
}

// Document is a catalog item loaded from a file or stored in the database.
type Document struct {
	Id         ID
	Key        string      // Caller supplied identifier, unique within a catalog
	Attributes []Attribute // Searchable values in priority order
	InsertedAt time.Time   // When the document was inserted into the database
	UpdatedAt  time.Time   // When the document was last updated
}

var _ Searchable = (*Document)(nil)

// SearchFields returns one field per attribute, skipping identifier-like
// attributes named "id" or "key".
func (d *Document) SearchFields() []Field {
	if d == nil {
		return nil
	}
	fields := make([]Field, 0, len(d.Attributes))
	for _, attr := range d.Attributes {
		if IsIdentifierName(attr.Name) {
			continue
		}
		fields = append(fields, Field{Text: attr.Value, Entirely: attr.Exact})
	}
	return fields
}

// Get returns the value of the named attribute.
func (d *Document) Get(name string) (string, bool) {
	for _, attr := range d.Attributes {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Title returns the first searchable attribute value, or the key when the
// document has none.
func (d *Document) Title() string {
	for _, attr := range d.Attributes {
		if !IsIdentifierName(attr.Name) {
			return attr.Value
		}
	}
	return d.Key
}

// Fingerprint hashes the attribute listing so identical documents share an ID.
func (d *Document) Fingerprint() ID {
	var sb strings.Builder
	for _, attr := range d.Attributes {
		sb.WriteString(attr.Name)
		sb.WriteByte('=')
		sb.WriteString(attr.Value)
		if attr.Exact {
			sb.WriteByte('!')
		}
		sb.WriteByte('\n')
	}
	return IDFromContent(sb.String())
}

// EffectiveKey returns the document's key, or the hex form of its
// fingerprint when the key is empty.
func (d *Document) EffectiveKey() string {
	if d.Key != "" {
		return d.Key
	}
	return fmt.Sprintf("%016x", uint64(d.Fingerprint()))
}

// IsIdentifierName reports whether a property name is excluded from
// automatically derived search fields.
func IsIdentifierName(name string) bool {
	return strings.EqualFold(name, "id") || strings.EqualFold(name, "key")
}
