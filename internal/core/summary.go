package core

import "github.com/shopspring/decimal"

// BudgetStatus is the reconciliation verdict of a budget against its spending.
type BudgetStatus string

const (
	StatusOnTrack    BudgetStatus = "on_track"
	StatusWarning    BudgetStatus = "warning"
	StatusOverBudget BudgetStatus = "over_budget"
)

var (
	warningThreshold    = decimal.NewFromInt(90)
	overBudgetThreshold = decimal.NewFromInt(100)
)

type Spending struct {
	TotalSpent   decimal.Decimal `json:"totalSpent"`
	NeedsSpent   decimal.Decimal `json:"needsSpent"`
	WantsSpent   decimal.Decimal `json:"wantsSpent"`
	SavingsSpent decimal.Decimal `json:"savingsSpent"`
}

type Remaining struct {
	Total   decimal.Decimal `json:"total"`
	Needs   decimal.Decimal `json:"needs"`
	Wants   decimal.Decimal `json:"wants"`
	Savings decimal.Decimal `json:"savings"`
}

// BudgetSummary is derived on every read and never stored.
type BudgetSummary struct {
	Budget    Budget       `json:"budget"`
	From      Date         `json:"from"`
	To        Date         `json:"to"`
	Spending  Spending     `json:"spending"`
	Remaining Remaining    `json:"remaining"`
	Status    BudgetStatus `json:"status"`
	// AdherencePercentage is nil when the budget has no income to measure against.
	AdherencePercentage *decimal.Decimal `json:"adherencePercentage"`
}

// ReconcileBudget buckets the lines by category type and compares them with the
// budget's derived amounts. Lines are expected to be already limited to the budget
// and its month window.
func ReconcileBudget(b Budget, lines []ExpenseLine) BudgetSummary {
	var sp Spending
	for _, l := range lines {
		switch l.CategoryType {
		case Needs:
			sp.NeedsSpent = sp.NeedsSpent.Add(l.Amount)
		case Wants:
			sp.WantsSpent = sp.WantsSpent.Add(l.Amount)
		case Savings:
			sp.SavingsSpent = sp.SavingsSpent.Add(l.Amount)
		}
	}
	sp.TotalSpent = SumAmounts(sp.NeedsSpent, sp.WantsSpent, sp.SavingsSpent)

	rem := Remaining{
		Needs:   b.NeedsAmount.Sub(sp.NeedsSpent),
		Wants:   b.WantsAmount.Sub(sp.WantsSpent),
		Savings: b.SavingsAmount.Sub(sp.SavingsSpent),
	}
	rem.Total = SumAmounts(rem.Needs, rem.Wants, rem.Savings)

	from, to := MonthWindow(b.Year, b.Month)
	status, adherence := DetermineBudgetStatus(sp.TotalSpent, b.TotalIncome)
	return BudgetSummary{
		Budget:              b,
		From:                from,
		To:                  to,
		Spending:            sp,
		Remaining:           rem,
		Status:              status,
		AdherencePercentage: adherence,
	}
}

// DetermineBudgetStatus compares total spend with planned income.
//
// With zero income the ratio is undefined: nothing spent is on track, anything
// spent is over budget, and adherence is reported as nil.
func DetermineBudgetStatus(spent, income decimal.Decimal) (BudgetStatus, *decimal.Decimal) {
	if income.IsZero() {
		zero := decimal.Zero
		if spent.IsPositive() {
			return StatusOverBudget, nil
		}
		return StatusOnTrack, &zero
	}
	ratio := spent.Div(income).Mul(hundred)
	adherence := ratio.RoundBank(2)
	switch {
	case ratio.GreaterThanOrEqual(overBudgetThreshold):
		return StatusOverBudget, &adherence
	case ratio.GreaterThanOrEqual(warningThreshold):
		return StatusWarning, &adherence
	default:
		return StatusOnTrack, &adherence
	}
}

// CategoryTotal aggregates spending for one category.
type CategoryTotal struct {
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	CategoryType BucketType      `json:"categoryType"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"count"`
}

// PeriodTotal is the amount and number of expenses over a period.
type PeriodTotal struct {
	From  Date            `json:"from"`
	To    Date            `json:"to"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// TotalLines sums lines into a period total.
func TotalLines(from, to Date, lines []ExpenseLine) PeriodTotal {
	pt := PeriodTotal{From: from, To: to, Total: decimal.Zero, Count: len(lines)}
	for _, l := range lines {
		pt.Total = pt.Total.Add(l.Amount)
	}
	return pt
}

// BreakdownByCategory groups lines per category, keeping first-seen order.
func BreakdownByCategory(lines []ExpenseLine) []CategoryTotal {
	index := make(map[string]int)
	var out []CategoryTotal
	for _, l := range lines {
		i, ok := index[l.CategoryID]
		if !ok {
			i = len(out)
			index[l.CategoryID] = i
			out = append(out, CategoryTotal{
				CategoryID:   l.CategoryID,
				CategoryName: l.CategoryName,
				CategoryType: l.CategoryType,
				Total:        decimal.Zero,
			})
		}
		out[i].Total = out[i].Total.Add(l.Amount)
		out[i].Count++
	}
	return out
}
