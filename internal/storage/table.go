package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"financas/internal/core"
)

type scanner interface {
	Scan(dest ...any) error
}

// columns maps one record kind onto its table. Every table starts with the
// shared id, user_id, created_at, updated_at columns; names lists the rest.
type columns[T any] struct {
	table   string
	names   []string
	orderBy string
	// dateColumn is the column range queries filter on; empty when the kind
	// has no date.
	dateColumn string
	meta       func(*T) *core.Meta
	values     func(*T) []any
	dest       func(*T) []any
}

// Table is the generic CRUD access for one record kind. Mutations are
// always scoped by owner.
type Table[T any] struct {
	db   *sql.DB
	cols columns[T]

	selectSQL string
	insertSQL string
	updateSQL string
	deleteSQL string
}

func newTable[T any](db *sql.DB, cols columns[T]) *Table[T] {
	all := append([]string{"id", "user_id", "created_at", "updated_at"}, cols.names...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(all)), ", ")

	sets := make([]string, 0, len(cols.names)+1)
	for _, n := range cols.names {
		sets = append(sets, n+" = ?")
	}
	sets = append(sets, "updated_at = ?")

	return &Table[T]{
		db:        db,
		cols:      cols,
		selectSQL: fmt.Sprintf("SELECT %s FROM %s", strings.Join(all, ", "), cols.table),
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", cols.table, strings.Join(all, ", "), placeholders),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND user_id = ?", cols.table, strings.Join(sets, ", ")),
		deleteSQL: fmt.Sprintf("DELETE FROM %s WHERE id = ? AND user_id = ?", cols.table),
	}
}

func (t *Table[T]) scan(s scanner) (T, error) {
	var rec T
	m := t.cols.meta(&rec)
	dest := append([]any{
		&m.ID,
		&m.UserID,
		(*timeText)(&m.CreatedAt),
		(*timeText)(&m.UpdatedAt),
	}, t.cols.dest(&rec)...)
	err := s.Scan(dest...)
	return rec, err
}

func (t *Table[T]) query(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", t.cols.table, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// List returns every record of the user in the kind's listing order.
func (t *Table[T]) List(ctx context.Context, userID string) ([]T, error) {
	recs, err := t.query(ctx, t.selectSQL+" WHERE user_id = ? ORDER BY "+t.cols.orderBy, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.cols.table, err)
	}
	return recs, nil
}

// Between returns the user's records dated in [from, to).
func (t *Table[T]) Between(ctx context.Context, userID string, from, to time.Time) ([]T, error) {
	if t.cols.dateColumn == "" {
		return nil, fmt.Errorf("%s has no date column", t.cols.table)
	}
	q := fmt.Sprintf("%s WHERE user_id = ? AND %s >= ? AND %s < ? ORDER BY %s",
		t.selectSQL, t.cols.dateColumn, t.cols.dateColumn, t.cols.orderBy)
	recs, err := t.query(ctx, q, userID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("list %s between: %w", t.cols.table, err)
	}
	return recs, nil
}

// Get returns a record by id regardless of owner; callers check ownership.
func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	rec, err := t.scan(t.db.QueryRowContext(ctx, t.selectSQL+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("get %s: %w", t.cols.table, err)
	}
	return rec, nil
}

func (t *Table[T]) Create(ctx context.Context, rec T) error {
	m := t.cols.meta(&rec)
	args := append([]any{m.ID, m.UserID, formatTime(m.CreatedAt), formatTime(m.UpdatedAt)}, t.cols.values(&rec)...)
	if _, err := t.db.ExecContext(ctx, t.insertSQL, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create %s: %w", t.cols.table, err)
	}
	return nil
}

// Update rewrites every column of rec. It returns ErrNotFound when no row
// with rec's id belongs to rec's owner.
func (t *Table[T]) Update(ctx context.Context, rec T) error {
	m := t.cols.meta(&rec)
	args := append(t.cols.values(&rec), formatTime(m.UpdatedAt), m.ID, m.UserID)
	res, err := t.db.ExecContext(ctx, t.updateSQL, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.cols.table, err)
	}
	return requireAffected(res)
}

// Delete removes the record if it belongs to userID.
func (t *Table[T]) Delete(ctx context.Context, id, userID string) error {
	res, err := t.db.ExecContext(ctx, t.deleteSQL, id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.cols.table, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
