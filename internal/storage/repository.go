package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"financas/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type SQLiteRepository struct {
	db *sql.DB

	monthlyBills     *Table[core.MonthlyBill]
	installments     *Table[core.Installment]
	variableExpenses *Table[core.VariableExpense]
	incomes          *Table[core.Income]
	futureBills      *Table[core.FutureBill]
}

// dsn enables foreign keys and WAL on every connection of the pool.
func dsn(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:               db,
		monthlyBills:     newTable(db, monthlyBillColumns),
		installments:     newTable(db, installmentColumns),
		variableExpenses: newTable(db, variableExpenseColumns),
		incomes:          newTable(db, incomeColumns),
		futureBills:      newTable(db, futureBillColumns),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) MonthlyBills() *Table[core.MonthlyBill]         { return r.monthlyBills }
func (r *SQLiteRepository) Installments() *Table[core.Installment]         { return r.installments }
func (r *SQLiteRepository) VariableExpenses() *Table[core.VariableExpense] { return r.variableExpenses }
func (r *SQLiteRepository) Incomes() *Table[core.Income]                   { return r.incomes }
func (r *SQLiteRepository) FutureBills() *Table[core.FutureBill]           { return r.futureBills }

// AllMonthlyBills returns every bill of the user; bills recur each month.
func (r *SQLiteRepository) AllMonthlyBills(ctx context.Context, userID string) ([]core.MonthlyBill, error) {
	return r.monthlyBills.List(ctx, userID)
}

func (r *SQLiteRepository) IncomesBetween(ctx context.Context, userID string, from, to time.Time) ([]core.Income, error) {
	return r.incomes.Between(ctx, userID, from, to)
}

func (r *SQLiteRepository) InstallmentsBetween(ctx context.Context, userID string, from, to time.Time) ([]core.Installment, error) {
	return r.installments.Between(ctx, userID, from, to)
}

func (r *SQLiteRepository) VariableExpensesBetween(ctx context.Context, userID string, from, to time.Time) ([]core.VariableExpense, error) {
	return r.variableExpenses.Between(ctx, userID, from, to)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(core.ISOLayout)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(core.ISOLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// timeText scans the fixed-width ISO text columns into a time.Time.
type timeText time.Time

func (t *timeText) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = timeText(time.Time{})
	case time.Time:
		*t = timeText(v.UTC())
	case string:
		parsed, err := parseTime(v)
		if err != nil {
			return fmt.Errorf("parse time %q: %w", v, err)
		}
		*t = timeText(parsed)
	case []byte:
		return t.Scan(string(v))
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
