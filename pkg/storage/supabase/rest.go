package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
)

func (c *Client) Select(ctx context.Context, table string, q storage.Query) ([]storage.Row, error) {
	params := filterParams(q.Filters)
	if len(q.Columns) > 0 {
		params.Set("select", strings.Join(q.Columns, ","))
	} else {
		params.Set("select", "*")
	}
	if len(q.Orders) > 0 {
		parts := make([]string, len(q.Orders))
		for i, o := range q.Orders {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		params.Set("order", strings.Join(parts, ","))
	}
	if q.MaxRows > 0 {
		params.Set("limit", fmt.Sprint(q.MaxRows))
	}

	var rows []storage.Row
	err := c.do(ctx, request{method: "GET", path: "/rest/v1/" + table, query: params}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}
	return rows, nil
}

func (c *Client) Insert(ctx context.Context, table string, record storage.Row) (storage.Row, error) {
	body, err := jsonBody(record)
	if err != nil {
		return nil, err
	}

	var rows []storage.Row
	err = c.do(ctx, request{
		method:      "POST",
		path:        "/rest/v1/" + table,
		body:        body,
		contentType: "application/json",
		headers:     map[string]string{"Prefer": "return=representation"},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	if len(rows) == 0 {
		return record, nil
	}
	return rows[0], nil
}

func (c *Client) Update(ctx context.Context, table string, patch storage.Row, filters ...storage.Filter) ([]storage.Row, error) {
	if len(filters) == 0 {
		return nil, storage.ErrUnfilteredUpdate
	}
	body, err := jsonBody(patch)
	if err != nil {
		return nil, err
	}

	var rows []storage.Row
	err = c.do(ctx, request{
		method:      "PATCH",
		path:        "/rest/v1/" + table,
		query:       filterParams(filters),
		body:        body,
		contentType: "application/json",
		headers:     map[string]string{"Prefer": "return=representation"},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", table, err)
	}
	return rows, nil
}

func (c *Client) Delete(ctx context.Context, table string, filters ...storage.Filter) error {
	if len(filters) == 0 {
		return storage.ErrUnfilteredDelete
	}
	err := c.do(ctx, request{method: "DELETE", path: "/rest/v1/" + table, query: filterParams(filters)}, nil)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// filterParams renders filters in PostgREST's column=op.value syntax.
func filterParams(filters []storage.Filter) url.Values {
	params := url.Values{}
	for _, f := range filters {
		var expr string
		switch f.Op {
		case storage.OpEq:
			expr = "eq." + literal(f.Value)
		case storage.OpIsNull:
			expr = "is.null"
		case storage.OpIn:
			vals := f.Values()
			parts := make([]string, len(vals))
			for i, v := range vals {
				parts[i] = quoteListItem(literal(v))
			}
			expr = "in.(" + strings.Join(parts, ",") + ")"
		case storage.OpILike:
			expr = "ilike.*" + literal(f.Value) + "*"
		case storage.OpGte:
			expr = "gte." + literal(f.Value)
		case storage.OpLte:
			expr = "lte." + literal(f.Value)
		default:
			continue
		}
		params.Add(f.Column, expr)
	}
	return params
}

func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// quoteListItem wraps values containing list-reserved characters in double quotes.
func quoteListItem(s string) string {
	if strings.ContainsAny(s, `,()" `) {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}
