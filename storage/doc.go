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


// Package storage provides the storage abstraction layer for the sift catalog.
//
// The catalog is a persistent collection of core.Document values that can be
// loaded into memory and ranked with the search package. This package defines
// the repository interface and the binary encoding; badger implements it.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the repository interface:
//
//	repo, backend, err := badger.NewMemoryRepository()  // storage.DocumentRepository
//
// Internal helpers may return concrete types since they're only used within
// the implementation package.
//
// # Ordering
//
// Document IDs come from a monotonically increasing sequence, so listing the
// catalog yields documents in insertion order. The search engine breaks score
// ties by input order, which makes catalog searches deterministic.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewDocumentRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	docs, err := repo.ListDocuments(ctx)
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation.
// Long scans check the context between batches.
package storage
