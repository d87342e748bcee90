package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Row is one record as a column -> value map.
type Row map[string]any

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Decode converts a row into dst, a pointer to a struct with json tags.
func Decode(r Row, dst any) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to decode row: %w", err)
	}
	return nil
}

// DecodeAll converts rows into dst, a pointer to a slice.
func DecodeAll(rows []Row, dst any) error {
	if rows == nil {
		rows = []Row{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to decode rows: %w", err)
	}
	return nil
}

// First returns the first row matching q or ErrNotFound.
func First(ctx context.Context, db Querier, table string, q Query) (Row, error) {
	rows, err := db.Select(ctx, table, q.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", table, ErrNotFound)
	}
	return rows[0], nil
}

// Get decodes the first row matching q into dst.
func Get(ctx context.Context, db Querier, table string, q Query, dst any) error {
	row, err := First(ctx, db, table, q)
	if err != nil {
		return err
	}
	return Decode(row, dst)
}
