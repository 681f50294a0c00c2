// Package docstore defines the document store contract the marketplace
// services persist through: schemaless JSON documents grouped into named
// collections, with per-document atomic read-modify-write.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a document does not exist in a collection.
var ErrNotFound = errors.New("docstore: document not found")

// Document is a stored document together with its id.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document payload into out.
func (d Document) Decode(out interface{}) error {
	return json.Unmarshal(d.Data, out)
}

// Store is a minimal document store. Implementations must make Mutate an
// atomic read-modify-write on a single document; nothing here spans more than
// one document.
type Store interface {
	// Get returns the document with the given id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Find returns all documents in the collection for which match returns
	// true. A nil match returns the whole collection. Order is unspecified.
	Find(ctx context.Context, collection string, match func(Document) bool) ([]Document, error)

	// Set creates or replaces the document with the given id.
	Set(ctx context.Context, collection, id string, doc interface{}) error

	// Update merges the given top-level fields into an existing document.
	// Returns ErrNotFound if the document does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error

	// Add stores doc under a newly generated id and returns that id.
	Add(ctx context.Context, collection string, doc interface{}) (string, error)

	// Delete removes the document. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, collection, id string) error

	// Mutate atomically applies fn to the current document payload and
	// persists the returned value. If fn returns an error nothing is written
	// and the error is returned as-is. Returns ErrNotFound if the document
	// does not exist.
	Mutate(ctx context.Context, collection, id string, fn func(data json.RawMessage) (interface{}, error)) error
}
