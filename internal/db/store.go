// Package db provides the document store used for video records, staged
// upload metadata and user profiles.
//
// All backends store documents as flat records keyed by an "id" field. The
// Upsert operation replaces the whole document, which is what lets duplicate
// worker invocations overwrite each other without merging partial state.
package db

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is the document store contract.
type Store interface {
	// Upsert replaces the document stored under id, creating it if needed.
	Upsert(ctx context.Context, collection, id string, doc interface{}) error
	// Get decodes the document stored under id into out. found is false when
	// no such document exists; that case is not an error.
	Get(ctx context.Context, collection, id string, out interface{}) (found bool, err error)
	// Delete removes the document stored under id. Deleting a missing
	// document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Query decodes the matching documents into out, which must be a pointer
	// to a slice.
	Query(ctx context.Context, collection string, q Query, out interface{}) error
}

// Filter is an equality match on one top-level field.
type Filter struct {
	Field string
	Value string
}

// Query selects documents from one collection.
type Query struct {
	Where      []Filter // every filter must match
	AnyOf      []Filter // when non-empty, at least one filter must match
	OrderBy    string
	Descending bool
	Limit      int
}

// toMap turns doc into a JSON object and sets its "id" key.
func toMap(doc interface{}, id string) (map[string]interface{}, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document %s: %w", id, err)
	}
	m := make(map[string]interface{})
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("document %s is not a JSON object: %w", id, err)
	}
	m["id"] = id
	return m, nil
}
