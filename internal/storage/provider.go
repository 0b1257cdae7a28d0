// Package storage owns the on-disk representation of the inventory document
// and the local directory trees used for uploads.
package storage

import (
	"context"

	"github.com/bhbtrucksales/storefront/internal/models"
)

// DocumentStore reads and replaces the whole inventory document. Every call
// goes to disk; there is no cache.
type DocumentStore interface {
	// Read loads the document. Missing file → apperr.ErrNotFound, unparsable
	// content → apperr.ErrDataCorruption.
	Read(ctx context.Context) (*models.Document, error)
	// Write backs up the current file, stamps LastUpdated and atomically
	// replaces the file with doc.
	Write(ctx context.Context, doc *models.Document) error
}

var _ DocumentStore = (*JSONStore)(nil)
