package core

import (
	"github.com/shopspring/decimal"
)

// Percentages is the needs/wants/savings split of a budget, in whole percent.
type Percentages struct {
	Needs   int `json:"needsPercentage"`
	Wants   int `json:"wantsPercentage"`
	Savings int `json:"savingsPercentage"`
}

// DefaultPercentages is the 50/30/20 rule.
var DefaultPercentages = Percentages{Needs: 50, Wants: 30, Savings: 20}

func (p Percentages) Sum() int {
	return p.Needs + p.Wants + p.Savings
}

// ValidatePercentages checks each bucket is within 0..100 and that together they make 100.
// The error lists every offending field and the computed sum.
func ValidatePercentages(p Percentages) error {
	var v validator
	v.check(p.Needs >= 0 && p.Needs <= 100, "needsPercentage", "must be between 0 and 100")
	v.check(p.Wants >= 0 && p.Wants <= 100, "wantsPercentage", "must be between 0 and 100")
	v.check(p.Savings >= 0 && p.Savings <= 100, "savingsPercentage", "must be between 0 and 100")
	sum := p.Sum()
	if sum != 100 {
		for _, f := range []string{"needsPercentage", "savingsPercentage", "wantsPercentage"} {
			v.fields = append(v.fields, FieldError{Field: f, Message: "percentages must add up to 100"})
		}
	}
	if len(v.fields) == 0 {
		return nil
	}
	err := v.err("needs, wants and savings percentages must add up to 100").(*ValidationError)
	err.Sum = &sum
	return err
}

// Allocation holds the derived amount of each bucket.
type Allocation struct {
	Needs   decimal.Decimal
	Wants   decimal.Decimal
	Savings decimal.Decimal
}

// Total returns the sum of all buckets.
func (a Allocation) Total() decimal.Decimal {
	return a.Needs.Add(a.Wants).Add(a.Savings)
}

// Allocate splits income across the buckets. Callers validate the percentages first.
// Each bucket is rounded half-even to the smallest currency unit on its own, so the
// buckets add up to income within one unit per bucket.
func Allocate(totalIncome decimal.Decimal, p Percentages) Allocation {
	share := func(pct int) decimal.Decimal {
		return RoundMoney(totalIncome.Mul(decimal.NewFromInt(int64(pct))).Div(hundred))
	}
	return Allocation{
		Needs:   share(p.Needs),
		Wants:   share(p.Wants),
		Savings: share(p.Savings),
	}
}

// BudgetDraft is the input for creating a budget. Nil percentages take the 50/30/20 defaults.
type BudgetDraft struct {
	Month             int              `json:"month"`
	Year              int              `json:"year"`
	TotalIncome       decimal.Decimal  `json:"totalIncome"`
	NeedsPercentage   *int             `json:"needsPercentage"`
	WantsPercentage   *int             `json:"wantsPercentage"`
	SavingsPercentage *int             `json:"savingsPercentage"`
	DailyBudget       *decimal.Decimal `json:"dailyBudget"`
	GoalID            *string          `json:"goalId"`
	Notes             string           `json:"notes"`
}

func (d BudgetDraft) Percentages() Percentages {
	p := DefaultPercentages
	if d.NeedsPercentage != nil {
		p.Needs = *d.NeedsPercentage
	}
	if d.WantsPercentage != nil {
		p.Wants = *d.WantsPercentage
	}
	if d.SavingsPercentage != nil {
		p.Savings = *d.SavingsPercentage
	}
	return p
}

func (d BudgetDraft) Validate() error {
	var v validator
	v.check(ValidMonth(d.Month), "month", "must be between 1 and 12")
	v.check(d.Year >= 2000 && d.Year <= 9999, "year", "must be between 2000 and 9999")
	v.check(!d.TotalIncome.IsNegative(), "totalIncome", "must be greater than or equal to 0")
	if d.DailyBudget != nil {
		v.check(!d.DailyBudget.IsNegative(), "dailyBudget", "must be greater than or equal to 0")
	}
	if err := v.err("invalid budget"); err != nil {
		return err
	}
	return ValidatePercentages(d.Percentages())
}

// BudgetPatch carries optional budget changes. Omitted income or percentages fall back
// to the stored values before the amounts are recomputed.
type BudgetPatch struct {
	TotalIncome       *decimal.Decimal `json:"totalIncome"`
	NeedsPercentage   *int             `json:"needsPercentage"`
	WantsPercentage   *int             `json:"wantsPercentage"`
	SavingsPercentage *int             `json:"savingsPercentage"`
	DailyBudget       *decimal.Decimal `json:"dailyBudget"`
	GoalID            *string          `json:"goalId"`
	UnlinkGoal        bool             `json:"unlinkGoal"`
	Notes             *string          `json:"notes"`
}

// Merge resolves the patch against the stored budget.
func (p BudgetPatch) Merge(b Budget) (decimal.Decimal, Percentages) {
	income := b.TotalIncome
	if p.TotalIncome != nil {
		income = *p.TotalIncome
	}
	pct := b.Percentages()
	if p.NeedsPercentage != nil {
		pct.Needs = *p.NeedsPercentage
	}
	if p.WantsPercentage != nil {
		pct.Wants = *p.WantsPercentage
	}
	if p.SavingsPercentage != nil {
		pct.Savings = *p.SavingsPercentage
	}
	return income, pct
}

func (p BudgetPatch) Validate() error {
	var v validator
	if p.TotalIncome != nil {
		v.check(!p.TotalIncome.IsNegative(), "totalIncome", "must be greater than or equal to 0")
	}
	if p.DailyBudget != nil {
		v.check(!p.DailyBudget.IsNegative(), "dailyBudget", "must be greater than or equal to 0")
	}
	v.check(p.GoalID == nil || !p.UnlinkGoal, "goalId", "cannot link and unlink a goal at once")
	return v.err("invalid budget")
}
