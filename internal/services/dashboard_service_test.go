package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"financas/internal/core"
)

type fakeMonthReader struct {
	calls   atomic.Int32
	err     error
	from    time.Time
	to      time.Time
	bills   []core.MonthlyBill
	incomes []core.Income
	insts   []core.Installment
	exps    []core.VariableExpense
}

func (f *fakeMonthReader) AllMonthlyBills(_ context.Context, _ string) ([]core.MonthlyBill, error) {
	f.calls.Add(1)
	return f.bills, nil
}

func (f *fakeMonthReader) IncomesBetween(_ context.Context, _ string, from, to time.Time) ([]core.Income, error) {
	f.from, f.to = from, to
	return f.incomes, f.err
}

func (f *fakeMonthReader) InstallmentsBetween(_ context.Context, _ string, _, _ time.Time) ([]core.Installment, error) {
	return f.insts, nil
}

func (f *fakeMonthReader) VariableExpensesBetween(_ context.Context, _ string, _, _ time.Time) ([]core.VariableExpense, error) {
	return f.exps, nil
}

func TestDashboardService_MonthUsesLocalBounds(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	reader := &fakeMonthReader{
		bills:   []core.MonthlyBill{{Description: "Aluguel", Amount: core.Money{Cents: 100000}, DueDay: 5}},
		incomes: []core.Income{{Description: "Salário", Amount: core.Money{Cents: 300000}}},
		exps: []core.VariableExpense{
			{Description: "Feira", Category: "Mercado", Amount: core.Money{Cents: 20000}},
		},
	}
	svc := NewDashboardService(reader, loc, 0)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC) }

	d, err := svc.Current(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}

	wantFrom := time.Date(2025, 2, 1, 0, 0, 0, 0, loc)
	if !reader.from.Equal(wantFrom) || !reader.to.Equal(wantFrom.AddDate(0, 1, 0)) {
		t.Errorf("range = [%v, %v), want February in BRT", reader.from, reader.to)
	}
	if d.Balance.Cents != 300000-100000-20000 {
		t.Errorf("saldo = %d", d.Balance.Cents)
	}
	if !d.Period.Start.Equal(wantFrom) {
		t.Errorf("period start = %v", d.Period.Start)
	}
}

func TestDashboardService_CachesUntilInvalidated(t *testing.T) {
	reader := &fakeMonthReader{}
	svc := NewDashboardService(reader, time.UTC, time.Minute)
	ctx := context.Background()

	for range 3 {
		if _, err := svc.Month(ctx, "u1", 2025, time.May); err != nil {
			t.Fatalf("Month: %v", err)
		}
	}
	if n := reader.calls.Load(); n != 1 {
		t.Fatalf("reader called %d times, want 1", n)
	}

	if _, err := svc.Month(ctx, "u2", 2025, time.May); err != nil {
		t.Fatalf("Month(u2): %v", err)
	}
	svc.Invalidate("u2")
	if _, err := svc.Month(ctx, "u1", 2025, time.May); err != nil {
		t.Fatalf("Month: %v", err)
	}
	if n := reader.calls.Load(); n != 2 {
		t.Fatalf("reader called %d times after invalidating another user, want 2", n)
	}

	svc.Invalidate("u1")
	svc.Month(ctx, "u1", 2025, time.May)
	if n := reader.calls.Load(); n != 3 {
		t.Fatalf("reader called %d times after invalidation, want 3", n)
	}
	if svc.Cache() == nil {
		t.Fatal("Cache() = nil with a positive TTL")
	}
}

// gatedBillsReader serves an empty bill list to the first read and blocks it
// until release is closed; later reads see the committed bill.
type gatedBillsReader struct {
	fakeMonthReader
	entered chan struct{}
	release chan struct{}
	reads   atomic.Int32
}

func (g *gatedBillsReader) AllMonthlyBills(ctx context.Context, _ string) ([]core.MonthlyBill, error) {
	if g.reads.Add(1) == 1 {
		close(g.entered)
		<-g.release
		return nil, nil
	}
	return []core.MonthlyBill{{Description: "Aluguel", Amount: core.Money{Cents: 100000}, DueDay: 5}}, nil
}

func TestDashboardService_InvalidateDuringRead(t *testing.T) {
	reader := &gatedBillsReader{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewDashboardService(reader, time.UTC, time.Minute)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Month(ctx, "u1", 2025, time.May)
		done <- err
	}()

	<-reader.entered
	// A mutation commits while the first read is still in flight.
	svc.Invalidate("u1")
	close(reader.release)
	if err := <-done; err != nil {
		t.Fatalf("Month: %v", err)
	}

	d, err := svc.Month(ctx, "u1", 2025, time.May)
	if err != nil {
		t.Fatalf("Month: %v", err)
	}
	if d.MonthlyBillsTotal.Cents != 100000 {
		t.Fatalf("contasMensaisTotal = %d after invalidation, want 100000", d.MonthlyBillsTotal.Cents)
	}

	// With no further mutation the fresh dashboard is cached.
	svc.Month(ctx, "u1", 2025, time.May)
	if n := reader.reads.Load(); n != 2 {
		t.Fatalf("bills read %d times, want 2", n)
	}
}

func TestDashboardService_Errors(t *testing.T) {
	boom := errors.New("db down")
	svc := NewDashboardService(&fakeMonthReader{err: boom}, time.UTC, time.Minute)

	if _, err := svc.Month(context.Background(), "u1", 2025, time.April); !errors.Is(err, boom) {
		t.Fatalf("Month = %v, want wrapped reader error", err)
	}
	if _, err := svc.Month(context.Background(), "u1", 2025, 13); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("Month(13) = %v, want ErrInvalidPeriod", err)
	}
	if NewDashboardService(&fakeMonthReader{}, nil, 0).Cache() != nil {
		t.Fatal("Cache() should be nil when disabled")
	}
}
