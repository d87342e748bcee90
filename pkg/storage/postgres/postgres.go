// Package postgres runs table operations over a direct database connection when a region
// exposes a DSN. Auth and object operations stay on the REST client.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Querier implements storage.Querier on gorm.
type Querier struct {
	DB *gorm.DB
}

// Make sure we conform to the interface
var _ storage.Querier = (*Querier)(nil)

// Connect opens a pooled connection to dsn.
func Connect(dsn string) (*Querier, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Querier{DB: db}, nil
}

// Close releases the connection pool.
func (q *Querier) Close() error {
	sqlDB, err := q.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (q *Querier) Select(ctx context.Context, table string, query storage.Query) ([]storage.Row, error) {
	var out []map[string]any
	if err := buildSelect(q.DB.WithContext(ctx), table, query).Find(&out).Error; err != nil {
		return nil, wrap(err, "failed to select from "+table)
	}
	rows := make([]storage.Row, len(out))
	for i, m := range out {
		rows[i] = storage.Row(m)
	}
	return rows, nil
}

func (q *Querier) Insert(ctx context.Context, table string, record storage.Row) (storage.Row, error) {
	rec := record.Clone()
	if _, ok := rec["id"]; !ok {
		rec["id"] = uuid.NewString()
	}
	if err := q.DB.WithContext(ctx).Table(table).Create(map[string]any(rec)).Error; err != nil {
		return nil, wrap(err, "failed to insert into "+table)
	}
	stored, err := storage.First(ctx, q, table, storage.Select().Where(storage.Eq("id", rec["id"])))
	if err != nil {
		return rec, nil
	}
	return stored, nil
}

// Update patches the rows matching filters in one statement and returns them as written.
// The filters are part of the UPDATE itself, so a status guard holds under concurrent writers.
func (q *Querier) Update(ctx context.Context, table string, patch storage.Row, filters ...storage.Filter) ([]storage.Row, error) {
	if len(filters) == 0 {
		return nil, storage.ErrUnfilteredUpdate
	}
	var out []map[string]any
	if err := buildUpdate(q.DB.WithContext(ctx), table, patch, filters).Find(&out).Error; err != nil {
		return nil, wrap(err, "failed to update "+table)
	}
	rows := make([]storage.Row, len(out))
	for i, m := range out {
		rows[i] = storage.Row(m)
	}
	return rows, nil
}

func (q *Querier) Delete(ctx context.Context, table string, filters ...storage.Filter) error {
	if len(filters) == 0 {
		return storage.ErrUnfilteredDelete
	}
	err := q.DB.WithContext(ctx).
		Exec("DELETE FROM ? WHERE ?", clause.Table{Name: table}, clause.AndConditions{Exprs: expressions(filters)}).
		Error
	if err != nil {
		return wrap(err, "failed to delete from "+table)
	}
	return nil
}

func buildUpdate(db *gorm.DB, table string, patch storage.Row, filters []storage.Filter) *gorm.DB {
	columns := make([]string, 0, len(patch))
	for c := range patch {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	set := make(clause.Set, len(columns))
	for i, c := range columns {
		set[i] = clause.Assignment{Column: clause.Column{Name: c}, Value: patch[c]}
	}
	return db.Raw("UPDATE ? SET ? WHERE ? RETURNING *",
		clause.Table{Name: table}, set, clause.AndConditions{Exprs: expressions(filters)})
}

func buildSelect(db *gorm.DB, table string, q storage.Query) *gorm.DB {
	tx := db.Table(table)
	if len(q.Columns) > 0 {
		tx = tx.Select(q.Columns)
	}
	if exprs := expressions(q.Filters); len(exprs) > 0 {
		tx = tx.Clauses(clause.Where{Exprs: exprs})
	}
	for _, o := range q.Orders {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if q.MaxRows > 0 {
		tx = tx.Limit(q.MaxRows)
	}
	return tx
}

func expressions(filters []storage.Filter) []clause.Expression {
	exprs := make([]clause.Expression, 0, len(filters))
	for _, f := range filters {
		col := clause.Column{Name: f.Column}
		switch f.Op {
		case storage.OpEq:
			exprs = append(exprs, clause.Eq{Column: col, Value: f.Value})
		case storage.OpIsNull:
			exprs = append(exprs, clause.Eq{Column: col, Value: nil})
		case storage.OpIn:
			exprs = append(exprs, clause.IN{Column: col, Values: f.Values()})
		case storage.OpILike:
			exprs = append(exprs, clause.Expr{SQL: "? ILIKE ?", Vars: []any{col, fmt.Sprintf("%%%v%%", f.Value)}})
		case storage.OpGte:
			exprs = append(exprs, clause.Gte{Column: col, Value: f.Value})
		case storage.OpLte:
			exprs = append(exprs, clause.Lte{Column: col, Value: f.Value})
		}
	}
	return exprs
}

func wrap(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Backend(storage.UniqueViolation, msg, err)
	}
	return apperr.Backend("", msg, err)
}
