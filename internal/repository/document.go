// Package repository declares the persistence contracts for documents and
// analyses. The postgres subpackage implements them.
package repository

import (
	"context"

	"patentcheck/internal/model"
)

// DocumentRepository stores metadata of accepted uploads. The bytes live in
// object storage under StoragePath.
type DocumentRepository interface {
	// Create inserts doc and returns the row as stored.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns sql.ErrNoRows when no document has that ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List pages through documents newest first. A non-empty contentType
	// restricts the result and the total to that media type.
	List(ctx context.Context, contentType string, pq PageQuery) (*PageResult[model.Document], error)

	// Delete removes the row and, through the foreign key, its analyses.
	// Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error
}

// PageQuery is a LIMIT/OFFSET window.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is one window of rows plus the total matching the filter.
type PageResult[T any] struct {
	Items []T
	Total int
}
