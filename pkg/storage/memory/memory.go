// Package memory is an in-process implementation of the regional storage interfaces.
// It backs tests and STORAGE_DRIVER=memory local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
)

// Store holds the tables, auth users and objects of one region.
type Store struct {
	mu        sync.Mutex
	region    region.Region
	tables    map[string][]storage.Row
	users     []storage.AuthUser
	passwords map[string]string
	objects   map[string][]byte
	// Unique lists, per table, columns whose values must not repeat.
	Unique map[string][]string
	// Fail makes every Select, Insert and Update on a table return the given error.
	Fail map[string]error
}

// NewStore returns an empty store for r.
func NewStore(r region.Region) *Store {
	return &Store{
		region:    r,
		tables:    map[string][]storage.Row{},
		passwords: map[string]string{},
		objects:   map[string][]byte{},
		Unique:    map[string][]string{},
		Fail:      map[string]error{},
	}
}

var _ storage.Client = (*Store)(nil)

func (s *Store) Region() region.Region { return s.region }

func (s *Store) Close() error { return nil }

// Seed appends rows to table as-is.
func (s *Store) Seed(table string, rows ...storage.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], r.Clone())
	}
}

// Rows returns a copy of every row of table.
func (s *Store) Rows(table string) []storage.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.Row, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		out = append(out, r.Clone())
	}
	return out
}

// AddUser registers an auth user.
func (s *Store) AddUser(u storage.AuthUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
}

// Password returns the password last set for userID.
func (s *Store) Password(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passwords[userID]
}

// Object returns the bytes stored at bucket/path.
func (s *Store) Object(bucket, path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[bucket+"/"+path]
	return b, ok
}

func (s *Store) Select(ctx context.Context, table string, q storage.Query) ([]storage.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Fail[table]; err != nil {
		return nil, err
	}

	var out []storage.Row
	for _, r := range s.tables[table] {
		if matchesAll(r, q.Filters) {
			out = append(out, project(r, q.Columns))
		}
	}

	if len(q.Orders) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.Orders {
				c := compare(out[i][o.Column], out[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.MaxRows > 0 && len(out) > q.MaxRows {
		out = out[:q.MaxRows]
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, table string, record storage.Row) (storage.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Fail[table]; err != nil {
		return nil, err
	}

	r := record.Clone()
	if _, ok := r["id"]; !ok {
		r["id"] = uuid.New().String()
	}
	if _, ok := r["created_at"]; !ok {
		r["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	for _, col := range s.Unique[table] {
		for _, existing := range s.tables[table] {
			if compare(existing[col], r[col]) == 0 {
				return nil, apperr.Backend(storage.UniqueViolation, fmt.Sprintf("duplicate key value violates unique constraint on %s.%s", table, col), nil)
			}
		}
	}

	s.tables[table] = append(s.tables[table], r)
	return r.Clone(), nil
}

func (s *Store) Update(ctx context.Context, table string, patch storage.Row, filters ...storage.Filter) ([]storage.Row, error) {
	if len(filters) == 0 {
		return nil, storage.ErrUnfilteredUpdate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Fail[table]; err != nil {
		return nil, err
	}

	var out []storage.Row
	for _, r := range s.tables[table] {
		if !matchesAll(r, filters) {
			continue
		}
		for k, v := range patch {
			r[k] = v
		}
		out = append(out, r.Clone())
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, table string, filters ...storage.Filter) error {
	if len(filters) == 0 {
		return storage.ErrUnfilteredDelete
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tables[table][:0]
	for _, r := range s.tables[table] {
		if !matchesAll(r, filters) {
			kept = append(kept, r)
		}
	}
	s.tables[table] = kept
	return nil
}

func (s *Store) ListUsers(ctx context.Context, page, perPage int) ([]storage.AuthUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(s.users) {
		return nil, nil
	}
	end := start + perPage
	if end > len(s.users) {
		end = len(s.users)
	}
	return append([]storage.AuthUser(nil), s.users[start:end]...), nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == userID {
			s.passwords[userID] = password
			return nil
		}
	}
	return apperr.NotFound("사용자를 찾을 수 없습니다.")
}

func (s *Store) Upload(ctx context.Context, bucket, path, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bucket + "/" + path
	if _, exists := s.objects[key]; exists {
		return apperr.Backend("409", "The resource already exists", nil)
	}
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *Store) PublicURL(bucket, path string) string {
	return fmt.Sprintf("memory://%s/storage/v1/object/public/%s/%s", s.region, bucket, path)
}

func project(r storage.Row, columns []string) storage.Row {
	if len(columns) == 0 || (len(columns) == 1 && columns[0] == "*") {
		return r.Clone()
	}
	out := make(storage.Row, len(columns))
	for _, c := range columns {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func matchesAll(r storage.Row, filters []storage.Filter) bool {
	for _, f := range filters {
		if !matches(r, f) {
			return false
		}
	}
	return true
}

func matches(r storage.Row, f storage.Filter) bool {
	v := r[f.Column]
	switch f.Op {
	case storage.OpEq:
		return v != nil && compare(v, f.Value) == 0
	case storage.OpIsNull:
		return v == nil
	case storage.OpIn:
		for _, candidate := range f.Values() {
			if v != nil && compare(v, candidate) == 0 {
				return true
			}
		}
		return false
	case storage.OpILike:
		s, ok := v.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(fmt.Sprint(f.Value)))
	case storage.OpGte:
		return v != nil && compare(v, f.Value) >= 0
	case storage.OpLte:
		return v != nil && compare(v, f.Value) <= 0
	}
	return false
}

// compare orders numbers numerically and everything else by its string form.
func compare(a, b any) int {
	fa, aNum := number(a)
	fb, bNum := number(b)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
