package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"financas/internal/cache"
	"financas/internal/core"

	"golang.org/x/sync/errgroup"
)

var ErrInvalidPeriod = errors.New("invalid period")

// MonthReader loads the records a dashboard is built from.
type MonthReader interface {
	AllMonthlyBills(ctx context.Context, userID string) ([]core.MonthlyBill, error)
	IncomesBetween(ctx context.Context, userID string, from, to time.Time) ([]core.Income, error)
	InstallmentsBetween(ctx context.Context, userID string, from, to time.Time) ([]core.Installment, error)
	VariableExpensesBetween(ctx context.Context, userID string, from, to time.Time) ([]core.VariableExpense, error)
}

const dashboardCacheSize = 512

// DashboardService computes monthly dashboards and caches them per user and month.
type DashboardService struct {
	reader MonthReader
	loc    *time.Location
	cache  *cache.LRUCache[core.Dashboard]
	now    func() time.Time

	// generations counts invalidations per user. A dashboard is cached only
	// if no invalidation happened while its data was being read.
	genMu       sync.Mutex
	generations map[string]uint64
}

// NewDashboardService returns a service reading from reader. Months are cut in
// loc; a cacheTTL of zero disables caching.
func NewDashboardService(reader MonthReader, loc *time.Location, cacheTTL time.Duration) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	s := &DashboardService{reader: reader, loc: loc, now: time.Now, generations: make(map[string]uint64)}
	if cacheTTL > 0 {
		s.cache = cache.NewLRUCache[core.Dashboard](dashboardCacheSize, cacheTTL)
	}
	return s
}

// Cache exposes the dashboard cache for periodic cleanup; nil when disabled.
func (s *DashboardService) Cache() cache.Cleaner {
	if s.cache == nil {
		return nil
	}
	return s.cache
}

// Current returns the dashboard of the month containing now.
func (s *DashboardService) Current(ctx context.Context, userID string) (core.Dashboard, error) {
	now := s.now().In(s.loc)
	return s.Month(ctx, userID, now.Year(), now.Month())
}

// Month returns the dashboard of the given calendar month.
func (s *DashboardService) Month(ctx context.Context, userID string, year int, month time.Month) (core.Dashboard, error) {
	if year < 1 || year > 9999 || month < time.January || month > time.December {
		return core.Dashboard{}, ErrInvalidPeriod
	}

	key := cacheKey(userID, year, month)
	var gen uint64
	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			return d, nil
		}
		gen = s.generation(userID)
	}

	from, to := core.MonthBounds(time.Date(year, month, 1, 12, 0, 0, 0, s.loc), s.loc)

	var data core.MonthData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.MonthlyBills, err = s.reader.AllMonthlyBills(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		data.Incomes, err = s.reader.IncomesBetween(gctx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		data.Installments, err = s.reader.InstallmentsBetween(gctx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		data.VariableExpenses, err = s.reader.VariableExpensesBetween(gctx, userID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, fmt.Errorf("load dashboard data: %w", err)
	}

	period := core.Period{Start: core.Date{Time: from}, End: core.Date{Time: to}}
	d := core.BuildDashboard(s.now(), period, data)
	if s.cache != nil {
		s.store(userID, gen, key, d)
	}
	return d, nil
}

func (s *DashboardService) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

// store caches d unless userID was invalidated after gen was read.
func (s *DashboardService) store(userID string, gen uint64, key string, d core.Dashboard) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generations[userID] != gen {
		return
	}
	s.cache.Set(key, d)
}

// Invalidate drops every cached month of userID.
func (s *DashboardService) Invalidate(userID string) {
	if s.cache == nil {
		return
	}
	s.genMu.Lock()
	s.generations[userID]++
	s.genMu.Unlock()

	prefix := userID + "|"
	s.cache.DeleteFunc(func(key string) bool { return strings.HasPrefix(key, prefix) })
}

func cacheKey(userID string, year int, month time.Month) string {
	return fmt.Sprintf("%s|%04d-%02d", userID, year, int(month))
}
