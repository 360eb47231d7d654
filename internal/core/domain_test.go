package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2025-01-11"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !d.Equal(NewDate(2025, 1, 11).Time) {
		t.Fatalf("expected 2025-01-11, got %s", d)
	}
	if err := json.Unmarshal([]byte(`"2025-01-11T23:30:00+07:00"`), &d); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if d.String() != "2025-01-11" {
		t.Fatalf("expected calendar day of the timestamp, got %s", d)
	}
	if err := json.Unmarshal([]byte(`"11/01/2025"`), &d); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestMonthWindow(t *testing.T) {
	cases := []struct {
		year, month int
		last        string
	}{
		{2025, 1, "2025-01-31"},
		{2024, 2, "2024-02-29"},
		{2025, 2, "2025-02-28"},
		{2025, 12, "2025-12-31"},
	}
	for _, tc := range cases {
		first, last := MonthWindow(tc.year, tc.month)
		if first.Day() != 1 || first.Month() != tc.month {
			t.Fatalf("%d-%d: unexpected first day %s", tc.year, tc.month, first)
		}
		if last.String() != tc.last {
			t.Fatalf("%d-%d: expected last day %s, got %s", tc.year, tc.month, tc.last, last)
		}
	}
}

func TestExpenseDraftValidate(t *testing.T) {
	parent := "p1"
	good := ExpenseDraft{
		Name:        "Lunch",
		Amount:      decimal.NewFromInt(25000),
		ExpenseDate: NewDate(2025, 1, 1),
		ExpenseTime: "14:30",
		CategoryID:  "c1",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !good.QuantityOrDefault().Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected default quantity 1")
	}

	neg := decimal.NewFromInt(-1)
	bads := []ExpenseDraft{
		{Name: "", Amount: decimal.NewFromInt(1), ExpenseDate: NewDate(2025, 1, 1), CategoryID: "c"},
		{Name: "a", Amount: neg, ExpenseDate: NewDate(2025, 1, 1), CategoryID: "c"},
		{Name: "a", Amount: decimal.NewFromInt(1), Quantity: &neg, ExpenseDate: NewDate(2025, 1, 1), CategoryID: "c"},
		{Name: "a", Amount: decimal.NewFromInt(1), CategoryID: "c"}, // zero date
		{Name: "a", Amount: decimal.NewFromInt(1), ExpenseDate: NewDate(2025, 1, 1), CategoryID: ""},
		{Name: "a", Amount: decimal.NewFromInt(1), ExpenseDate: NewDate(2025, 1, 1), CategoryID: "c", ExpenseTime: "25:00"},
		{Name: "a", Amount: decimal.NewFromInt(1), ExpenseDate: NewDate(2025, 1, 1), CategoryID: "c", ParentExpenseID: &parent, IsGroup: true},
	}
	for i, e := range bads {
		err := e.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestGoalDraftRejectsPastTargetDate(t *testing.T) {
	today := NewDate(2025, 3, 10)
	past := NewDate(2025, 3, 9)
	same := NewDate(2025, 3, 10)

	if err := (GoalDraft{Title: "Laptop", TargetDate: &past}).Validate(today); err == nil {
		t.Fatalf("expected past target date to be rejected")
	}
	if err := (GoalDraft{Title: "Laptop", TargetDate: &same}).Validate(today); err != nil {
		t.Fatalf("expected today to be accepted, got %v", err)
	}
	if err := (GoalDraft{Title: "Laptop", Color: "green"}).Validate(today); err == nil {
		t.Fatalf("expected non hex color to be rejected")
	}
}

func TestErrorKinds(t *testing.T) {
	if !errors.Is(NotFound("budget not found"), ErrNotFound) {
		t.Fatalf("expected not found to match sentinel")
	}
	if errors.Is(NotFound("budget not found"), ErrConflict) {
		t.Fatalf("kinds must not cross-match")
	}
	if KindOf(Invalid("month", "bad")) != KindValidation {
		t.Fatalf("expected validation kind")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("expected internal kind")
	}
}
