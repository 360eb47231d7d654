package memory

import (
	"context"
	"fmt"
	"sync"

	"kantong/internal/core"
	"kantong/internal/sheets"
)

var _ sheets.SummaryExporter = (*Exporter)(nil)

// Exporter keeps exported rows in memory. Used when no spreadsheet is configured.
type Exporter struct {
	mu   sync.Mutex
	rows [][]any
}

func New() *Exporter {
	return &Exporter{}
}

// ExportSummary stores the row and returns a synthetic row reference.
func (e *Exporter) ExportSummary(_ context.Context, s core.BudgetSummary) (string, error) {
	if s.Budget.ID == "" {
		return "", fmt.Errorf("summary has no budget")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, sheets.Row(s))
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// Rows returns a copy of every exported row.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]any, len(e.rows))
	for i, r := range e.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
