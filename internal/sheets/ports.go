package sheets

import (
	"context"
	"strconv"

	"kantong/internal/core"
)

// SummaryExporter appends budget summaries to an external sheet.
type SummaryExporter interface {
	// ExportSummary appends one row and returns a reference to where it landed.
	ExportSummary(ctx context.Context, s core.BudgetSummary) (rowRef string, err error)
}

// Header names the columns written by Row, in order.
var Header = []string{
	"Budget ID", "User ID", "Year", "Month", "Total Income",
	"Needs Budget", "Wants Budget", "Savings Budget",
	"Needs Spent", "Wants Spent", "Savings Spent", "Total Spent",
	"Remaining", "Status", "Adherence %",
}

// Row flattens a summary into spreadsheet cells. Amounts keep two decimals so
// USER_ENTERED parsing turns them into numbers; a missing adherence stays blank.
func Row(s core.BudgetSummary) []any {
	b := s.Budget
	adherence := ""
	if s.AdherencePercentage != nil {
		adherence = s.AdherencePercentage.StringFixed(2)
	}
	return []any{
		b.ID, b.UserID, strconv.Itoa(b.Year), strconv.Itoa(b.Month), b.TotalIncome.StringFixed(2),
		b.NeedsAmount.StringFixed(2), b.WantsAmount.StringFixed(2), b.SavingsAmount.StringFixed(2),
		s.Spending.NeedsSpent.StringFixed(2), s.Spending.WantsSpent.StringFixed(2),
		s.Spending.SavingsSpent.StringFixed(2), s.Spending.TotalSpent.StringFixed(2),
		s.Remaining.Total.StringFixed(2), string(s.Status), adherence,
	}
}
