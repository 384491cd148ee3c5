package memory

import (
	"context"
	"fmt"
	"sync"

	ports "outgo/internal/sheets"
	"outgo/internal/services"
)

// Store is an in-memory report exporter for tests and local runs.
type Store struct {
	mu      sync.Mutex
	reports []services.ImportReport
}

var _ ports.ReportExporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendImportReport stores the report and returns a synthetic row reference.
func (s *Store) AppendImportReport(_ context.Context, report services.ImportReport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// Reports returns a copy of everything exported so far.
func (s *Store) Reports() []services.ImportReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]services.ImportReport(nil), s.reports...)
}
