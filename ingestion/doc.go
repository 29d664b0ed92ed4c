// Package ingestion imports note files from disk into the document store.
//
// The Pipeline type manages the import workflow, including:
//   - Discovering markdown and plain-text files under a root directory
//   - Parsing each file into a document concurrently via a worker pool
//   - Persisting the parsed documents as a single batch
//
// Per-file parse failures are logged and reported in the import result;
// they do not abort the rest of the batch.
package ingestion
