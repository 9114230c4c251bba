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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrNoAttributes indicates a Document has no attributes.
	ErrNoAttributes = errors.New("document has no attributes")

	// ErrEmptyAttributeName indicates an attribute Name field is empty.
	ErrEmptyAttributeName = errors.New("attribute name cannot be empty")

	// ErrDuplicateAttribute indicates two attributes share a name.
	ErrDuplicateAttribute = errors.New("duplicate attribute name")

	// ErrInvalidMode indicates an unknown search mode name.
	ErrInvalidMode = errors.New("invalid search mode")
)
