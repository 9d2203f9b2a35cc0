package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	postgrest "github.com/supabase-community/postgrest-go"
)

// Querier is satisfied by both *supabase.Client and *postgrest.Client.
type Querier interface {
	From(table string) *postgrest.QueryBuilder
}

// PostgrestStore stores documents as rows in PostgREST-exposed tables. Each
// collection maps to a table with an "id" primary key; dashes in collection
// names become underscores.
type PostgrestStore struct {
	client Querier
}

// NewPostgrestStore creates a PostgrestStore on top of a Supabase or PostgREST client.
func NewPostgrestStore(client Querier) *PostgrestStore {
	return &PostgrestStore{client: client}
}

func tableName(collection string) string {
	return strings.ReplaceAll(collection, "-", "_")
}

// Upsert posts the whole document with resolution=merge-duplicates, which
// overwrites only the columns present in the payload. Documents therefore
// serialize every column, sending null for cleared ones.
func (s *PostgrestStore) Upsert(ctx context.Context, collection, id string, doc interface{}) error {
	row, err := toMap(doc, id)
	if err != nil {
		return err
	}
	_, _, err = s.client.From(tableName(collection)).
		Insert(row, true, "id", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgrestStore) Get(ctx context.Context, collection, id string, out interface{}) (bool, error) {
	body, _, err := s.client.From(tableName(collection)).
		Select("*", "", false).
		Eq("id", id).
		Limit(1, "").
		Execute()
	if err != nil {
		return false, fmt.Errorf("failed to fetch %s/%s: %w", collection, id, err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return false, fmt.Errorf("error unmarshalling %s/%s: %w", collection, id, err)
	}
	if len(rows) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return false, fmt.Errorf("error decoding %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func (s *PostgrestStore) Delete(ctx context.Context, collection, id string) error {
	_, _, err := s.client.From(tableName(collection)).
		Delete("minimal", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgrestStore) Query(ctx context.Context, collection string, q Query, out interface{}) error {
	fb := s.client.From(tableName(collection)).Select("*", "", false)
	for _, f := range q.Where {
		fb = fb.Eq(f.Field, f.Value)
	}
	if len(q.AnyOf) > 0 {
		fb = fb.Or(orFilter(q.AnyOf), "")
	}
	if q.OrderBy != "" {
		fb = fb.Order(q.OrderBy, &postgrest.OrderOpts{Ascending: !q.Descending})
	}
	if q.Limit > 0 {
		fb = fb.Limit(q.Limit, "")
	}

	body, _, err := fb.Execute()
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error unmarshalling %s query result: %w", collection, err)
	}
	return nil
}

// orFilter renders filters in PostgREST's or=(a.eq."x",b.eq."y") syntax.
func orFilter(filters []Filter) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		v := strings.ReplaceAll(f.Value, `"`, `\"`)
		parts[i] = fmt.Sprintf(`%s.eq."%s"`, f.Field, v)
	}
	return strings.Join(parts, ",")
}
