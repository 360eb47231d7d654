package core

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// BucketType is one of the three budget buckets a category belongs to.
type BucketType string

const (
	Needs   BucketType = "needs"
	Wants   BucketType = "wants"
	Savings BucketType = "savings"
)

func (t BucketType) Valid() bool {
	switch t {
	case Needs, Wants, Savings:
		return true
	}
	return false
}

type (
	Category struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		Type      BucketType `json:"type"`
		Icon      string     `json:"icon,omitempty"`
		Color     string     `json:"color,omitempty"`
		IsSystem  bool       `json:"isSystem"`
		ParentID  *string    `json:"parentCategoryId,omitempty"`
		UserID    *string    `json:"userId,omitempty"`
		CreatedAt time.Time  `json:"createdAt"`
		UpdatedAt time.Time  `json:"updatedAt"`
		DeletedAt *time.Time `json:"deletedAt,omitempty"`
	}

	// GoalRef is the slice of a goal embedded in budget responses.
	GoalRef struct {
		ID           string           `json:"id"`
		Title        string           `json:"title"`
		TargetAmount *decimal.Decimal `json:"targetAmount"`
	}

	Budget struct {
		ID                string           `json:"id"`
		UserID            string           `json:"userId"`
		Month             int              `json:"month"`
		Year              int              `json:"year"`
		TotalIncome       decimal.Decimal  `json:"totalIncome"`
		NeedsPercentage   int              `json:"needsPercentage"`
		WantsPercentage   int              `json:"wantsPercentage"`
		SavingsPercentage int              `json:"savingsPercentage"`
		NeedsAmount       decimal.Decimal  `json:"needsAmount"`
		WantsAmount       decimal.Decimal  `json:"wantsAmount"`
		SavingsAmount     decimal.Decimal  `json:"savingsAmount"`
		DailyBudget       *decimal.Decimal `json:"dailyBudget"`
		GoalID            *string          `json:"goalId"`
		Goal              *GoalRef         `json:"goal"`
		Notes             string           `json:"notes,omitempty"`
		CreatedAt         time.Time        `json:"createdAt"`
		UpdatedAt         time.Time        `json:"updatedAt"`
	}

	Goal struct {
		ID           string           `json:"id"`
		UserID       string           `json:"userId"`
		Title        string           `json:"title"`
		Description  string           `json:"description,omitempty"`
		TargetAmount *decimal.Decimal `json:"targetAmount"`
		TargetDate   *Date            `json:"targetDate"`
		Icon         string           `json:"icon,omitempty"`
		Color        string           `json:"color,omitempty"`
		IsActive     bool             `json:"isActive"`
		AchievedAt   *time.Time       `json:"achievedAt"`
		CreatedAt    time.Time        `json:"createdAt"`
		UpdatedAt    time.Time        `json:"updatedAt"`
		DeletedAt    *time.Time       `json:"deletedAt,omitempty"`
	}

	Expense struct {
		ID              string          `json:"id"`
		UserID          string          `json:"userId"`
		Name            string          `json:"name"`
		Amount          decimal.Decimal `json:"amount"`
		Quantity        decimal.Decimal `json:"quantity"`
		Unit            string          `json:"unit,omitempty"`
		ExpenseDate     Date            `json:"expenseDate"`
		ExpenseTime     string          `json:"expenseTime,omitempty"`
		CategoryID      string          `json:"categoryId"`
		Category        *Category       `json:"category,omitempty"`
		BudgetID        *string         `json:"budgetId"`
		ParentExpenseID *string         `json:"parentExpenseId"`
		IsGroup         bool            `json:"isGroup"`
		PaymentMethod   string          `json:"paymentMethod,omitempty"`
		ReceiptURL      string          `json:"receiptUrl,omitempty"`
		Notes           string          `json:"notes,omitempty"`
		Location        string          `json:"location,omitempty"`
		Children        []Expense       `json:"childExpenses,omitempty"`
		CreatedAt       time.Time       `json:"createdAt"`
		UpdatedAt       time.Time       `json:"updatedAt"`
		DeletedAt       *time.Time      `json:"deletedAt,omitempty"`
	}

	// ExpenseLine is the projection of an expense the aggregations need.
	ExpenseLine struct {
		ExpenseID    string
		CategoryID   string
		CategoryName string
		CategoryType BucketType
		Amount       decimal.Decimal
	}

	// EntryLogged is emitted once per successfully created expense. LoggedAt is the
	// moment the entry was recorded, not the expense's own date.
	EntryLogged struct {
		UserID    string    `json:"userId"`
		ExpenseID string    `json:"expenseId"`
		LoggedAt  time.Time `json:"loggedAt"`
	}
)

// Percentages returns the stored bucket split of the budget.
func (b Budget) Percentages() Percentages {
	return Percentages{Needs: b.NeedsPercentage, Wants: b.WantsPercentage, Savings: b.SavingsPercentage}
}

// Apply writes percentages and their derived amounts together; the two are never set apart.
func (b *Budget) Apply(income decimal.Decimal, p Percentages) {
	alloc := Allocate(income, p)
	b.TotalIncome = income
	b.NeedsPercentage = p.Needs
	b.WantsPercentage = p.Wants
	b.SavingsPercentage = p.Savings
	b.NeedsAmount = alloc.Needs
	b.WantsAmount = alloc.Wants
	b.SavingsAmount = alloc.Savings
}

var (
	timeOfDayPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)
	hexColorPattern  = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

func maxLen(s string, n int) bool {
	return utf8.RuneCountInString(s) <= n
}

// CategoryDraft is the input for creating a user category.
type CategoryDraft struct {
	Name     string     `json:"name"`
	Type     BucketType `json:"type"`
	Icon     string     `json:"icon"`
	Color    string     `json:"color"`
	ParentID *string    `json:"parentCategoryId"`
}

func (d CategoryDraft) Validate() error {
	var v validator
	v.check(strings.TrimSpace(d.Name) != "", "name", "must not be empty")
	v.check(maxLen(d.Name, 100), "name", "must be at most 100 characters")
	v.check(d.Type.Valid(), "type", "must be one of needs, wants, savings")
	v.check(maxLen(d.Icon, 50), "icon", "must be at most 50 characters")
	v.check(d.Color == "" || hexColorPattern.MatchString(d.Color), "color", "must be a hex color like #10b981")
	return v.err("invalid category")
}

// CategoryPatch carries optional category changes.
type CategoryPatch struct {
	Name     *string     `json:"name"`
	Type     *BucketType `json:"type"`
	Icon     *string     `json:"icon"`
	Color    *string     `json:"color"`
	ParentID *string     `json:"parentCategoryId"`
}

func (p CategoryPatch) Validate() error {
	var v validator
	if p.Name != nil {
		v.check(strings.TrimSpace(*p.Name) != "", "name", "must not be empty")
		v.check(maxLen(*p.Name, 100), "name", "must be at most 100 characters")
	}
	if p.Type != nil {
		v.check(p.Type.Valid(), "type", "must be one of needs, wants, savings")
	}
	if p.Color != nil {
		v.check(*p.Color == "" || hexColorPattern.MatchString(*p.Color), "color", "must be a hex color like #10b981")
	}
	return v.err("invalid category")
}

// GoalDraft is the input for creating a goal.
type GoalDraft struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	TargetAmount *decimal.Decimal `json:"targetAmount"`
	TargetDate   *Date            `json:"targetDate"`
	Icon         string           `json:"icon"`
	Color        string           `json:"color"`
}

// Validate checks the draft; targetDate may not lie before today.
func (d GoalDraft) Validate(today Date) error {
	var v validator
	v.check(strings.TrimSpace(d.Title) != "", "title", "must not be empty")
	v.check(maxLen(d.Title, 200), "title", "must be at most 200 characters")
	if d.TargetAmount != nil {
		v.check(!d.TargetAmount.IsNegative(), "targetAmount", "must be greater than or equal to 0")
	}
	if d.TargetDate != nil && !d.TargetDate.IsZero() {
		v.check(!d.TargetDate.Before(today.Time), "targetDate", "must not be in the past")
	}
	v.check(maxLen(d.Icon, 50), "icon", "must be at most 50 characters")
	v.check(d.Color == "" || hexColorPattern.MatchString(d.Color), "color", "must be a hex color like #10b981")
	return v.err("invalid goal")
}

// GoalPatch carries optional goal changes. It never touches isActive or achievedAt;
// those move only through the achieve action.
type GoalPatch struct {
	Title             *string          `json:"title"`
	Description       *string          `json:"description"`
	TargetAmount      *decimal.Decimal `json:"targetAmount"`
	ClearTargetAmount bool             `json:"clearTargetAmount"`
	TargetDate        *Date            `json:"targetDate"`
	ClearTargetDate   bool             `json:"clearTargetDate"`
	Icon              *string          `json:"icon"`
	Color             *string          `json:"color"`
}

func (p GoalPatch) Validate(today Date) error {
	var v validator
	if p.Title != nil {
		v.check(strings.TrimSpace(*p.Title) != "", "title", "must not be empty")
		v.check(maxLen(*p.Title, 200), "title", "must be at most 200 characters")
	}
	if p.TargetAmount != nil {
		v.check(!p.TargetAmount.IsNegative(), "targetAmount", "must be greater than or equal to 0")
	}
	if p.TargetDate != nil && !p.TargetDate.IsZero() {
		v.check(!p.TargetDate.Before(today.Time), "targetDate", "must not be in the past")
	}
	if p.Color != nil {
		v.check(*p.Color == "" || hexColorPattern.MatchString(*p.Color), "color", "must be a hex color like #10b981")
	}
	v.check(p.TargetAmount == nil || !p.ClearTargetAmount, "targetAmount", "cannot set and clear the target amount at once")
	v.check(p.TargetDate == nil || !p.ClearTargetDate, "targetDate", "cannot set and clear the target date at once")
	return v.err("invalid goal")
}

// ExpenseDraft is the input for logging an expense.
type ExpenseDraft struct {
	Name            string           `json:"name"`
	Amount          decimal.Decimal  `json:"amount"`
	Quantity        *decimal.Decimal `json:"quantity"`
	Unit            string           `json:"unit"`
	ExpenseDate     Date             `json:"expenseDate"`
	ExpenseTime     string           `json:"expenseTime"`
	CategoryID      string           `json:"categoryId"`
	BudgetID        *string          `json:"budgetId"`
	ParentExpenseID *string          `json:"parentExpenseId"`
	IsGroup         bool             `json:"isGroup"`
	PaymentMethod   string           `json:"paymentMethod"`
	ReceiptURL      string           `json:"receiptUrl"`
	Notes           string           `json:"notes"`
	Location        string           `json:"location"`
}

func (d ExpenseDraft) Validate() error {
	var v validator
	v.check(strings.TrimSpace(d.Name) != "", "name", "must not be empty")
	v.check(maxLen(d.Name, 200), "name", "must be at most 200 characters")
	v.check(!d.Amount.IsNegative(), "amount", "must be greater than or equal to 0")
	if d.Quantity != nil {
		v.check(!d.Quantity.IsNegative(), "quantity", "must be greater than or equal to 0")
	}
	v.check(maxLen(d.Unit, 20), "unit", "must be at most 20 characters")
	v.check(!d.ExpenseDate.IsZero(), "expenseDate", "must use YYYY-MM-DD")
	v.check(d.ExpenseTime == "" || timeOfDayPattern.MatchString(d.ExpenseTime), "expenseTime", "must use HH:mm or HH:mm:ss")
	v.check(strings.TrimSpace(d.CategoryID) != "", "categoryId", "is required")
	v.check(maxLen(d.PaymentMethod, 50), "paymentMethod", "must be at most 50 characters")
	v.check(maxLen(d.ReceiptURL, 500), "receiptUrl", "must be at most 500 characters")
	v.check(maxLen(d.Location, 255), "location", "must be at most 255 characters")
	// A child lives under a group and is never a group itself.
	v.check(d.ParentExpenseID == nil || !d.IsGroup, "isGroup", "a child expense cannot be a group")
	return v.err("invalid expense")
}

// QuantityOrDefault returns the quantity, defaulting to 1.
func (d ExpenseDraft) QuantityOrDefault() decimal.Decimal {
	if d.Quantity == nil {
		return decimal.NewFromInt(1)
	}
	return *d.Quantity
}

// ExpensePatch carries optional expense changes. Parent and group shape are fixed at creation.
type ExpensePatch struct {
	Name          *string          `json:"name"`
	Amount        *decimal.Decimal `json:"amount"`
	Quantity      *decimal.Decimal `json:"quantity"`
	Unit          *string          `json:"unit"`
	ExpenseDate   *Date            `json:"expenseDate"`
	ExpenseTime   *string          `json:"expenseTime"`
	CategoryID    *string          `json:"categoryId"`
	BudgetID      *string          `json:"budgetId"`
	UnlinkBudget  bool             `json:"unlinkBudget"`
	PaymentMethod *string          `json:"paymentMethod"`
	ReceiptURL    *string          `json:"receiptUrl"`
	Notes         *string          `json:"notes"`
	Location      *string          `json:"location"`
}

func (p ExpensePatch) Validate() error {
	var v validator
	if p.Name != nil {
		v.check(strings.TrimSpace(*p.Name) != "", "name", "must not be empty")
		v.check(maxLen(*p.Name, 200), "name", "must be at most 200 characters")
	}
	if p.Amount != nil {
		v.check(!p.Amount.IsNegative(), "amount", "must be greater than or equal to 0")
	}
	if p.Quantity != nil {
		v.check(!p.Quantity.IsNegative(), "quantity", "must be greater than or equal to 0")
	}
	if p.Unit != nil {
		v.check(maxLen(*p.Unit, 20), "unit", "must be at most 20 characters")
	}
	if p.ExpenseDate != nil {
		v.check(!p.ExpenseDate.IsZero(), "expenseDate", "must use YYYY-MM-DD")
	}
	if p.ExpenseTime != nil {
		v.check(*p.ExpenseTime == "" || timeOfDayPattern.MatchString(*p.ExpenseTime), "expenseTime", "must use HH:mm or HH:mm:ss")
	}
	if p.CategoryID != nil {
		v.check(strings.TrimSpace(*p.CategoryID) != "", "categoryId", "must not be empty")
	}
	v.check(p.BudgetID == nil || !p.UnlinkBudget, "budgetId", "cannot link and unlink a budget at once")
	return v.err("invalid expense")
}

// ExpenseFilter selects a user's live expenses.
type ExpenseFilter struct {
	UserID     string
	From       *Date
	To         *Date
	CategoryID string
	BudgetID   string
	Page       int
	Limit      int
}

const DefaultPageSize = 20

// Normalize applies pagination defaults.
func (f ExpenseFilter) Normalize() ExpenseFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	return f
}

// Offset returns the number of rows skipped by the current page.
func (f ExpenseFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// LineQuery selects live expenses for aggregation. Empty fields do not filter.
type LineQuery struct {
	UserID   string
	BudgetID string
	From     Date
	To       Date
}
