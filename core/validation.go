// Copyright 2025 Poiesic Systems
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


package core

import (
	"fmt"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Document must have at least one attribute
//   - Attribute names must not be empty
//   - Attribute names must be unique
//
// NOT validated:
//   - Attribute values (empty values are searchable but never match)
//   - Key (defaulted from the fingerprint when empty)
//   - ID (0 is valid before insertion)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if len(doc.Attributes) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrNoAttributes)
	}

	seen := make(map[string]bool, len(doc.Attributes))
	for i, attr := range doc.Attributes {
		if attr.Name == "" {
			return fmt.Errorf("%w: attribute %d: %w", ErrInvalidDocument, i, ErrEmptyAttributeName)
		}
		if seen[attr.Name] {
			return fmt.Errorf("%w: %q: %w", ErrInvalidDocument, attr.Name, ErrDuplicateAttribute)
		}
		seen[attr.Name] = true
	}

	return nil
}
