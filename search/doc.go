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

// Package search filters and ranks in-memory collections against a
// free-text query.
//
// A query is split into keywords on whitespace and hyphens. Each item is
// reduced to an ordered list of fields, either from a FieldsProvider, from
// the item's own core.Searchable implementation, or by reflecting over its
// shape. Every keyword is tested against every field:
//   - case-insensitive substring containment by default
//   - case and whitespace insensitive equality for Entirely fields
//
// The search mode decides which items survive:
//   - eagle: every keyword matches some field
//   - fuzzy: any keyword matches any field
//   - greedy (default): as eagle, and the keywords together touch at least
//     as many distinct fields as there are keywords
//
// Survivors are ordered by a signature built from which fields matched
// exactly and which only partially, with earlier fields weighing more (see
// Score). Ties keep input order.
//
// Items is the plain entry point. Searcher adds a worker pool for large
// collections, context cancellation, logging and monitoring hooks.
package search
