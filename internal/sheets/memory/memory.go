package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"financas/internal/core"
	ports "financas/internal/sheets"
)

// Store is an in-memory activity log used when no spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	loc  *time.Location
	rows [][]string
}

var _ ports.ActivityWriter = (*Store)(nil)

func New(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{loc: loc}
}

// AppendActivity stores the rendered row and returns a synthetic row reference.
func (s *Store) AppendActivity(_ context.Context, ev core.RecordEvent) (string, error) {
	row := ports.Row(ev, s.loc)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the stored rows in append order.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
