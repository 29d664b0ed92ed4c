package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when no document repository is provided.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrRootRequired is returned when ImportDirectory is given an empty root.
	ErrRootRequired = errors.New("import root is required")
)
