// Package ingestion loads item files into the document catalog.
//
// Decode and LoadFile turn YAML or JSON item lists into core.Document values.
// The Pipeline type manages bulk imports:
//   - Parsing files concurrently on a worker pool
//   - Validating documents and skipping keys already in the catalog
//   - Adding new documents in batches, retrying transaction conflicts
//
// Documents from earlier files are inserted before those from later files, so
// catalog order follows the order files were named in.
package ingestion
