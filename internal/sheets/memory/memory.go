// Package memory is an in-process spreadsheet mirror used when no Google
// credentials are configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"tracker/internal/sheets"
)

var _ sheets.Mirror = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	rows map[int64]sheets.Row
}

func New() *Store {
	return &Store{rows: make(map[int64]sheets.Row)}
}

func (s *Store) Upsert(_ context.Context, row sheets.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.TransactionID] = row
	return nil
}

func (s *Store) Remove(_ context.Context, transactionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, transactionID)
	return nil
}

// Rows returns a snapshot ordered by transaction id.
func (s *Store) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sheets.Row, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionID < out[j].TransactionID })
	return out
}

// Row returns the row for id, if present.
func (s *Store) Row(id int64) (sheets.Row, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	return r, ok
}
