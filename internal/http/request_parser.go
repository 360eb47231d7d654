// Package http provides the JSON API server and its handlers.
//
// This file implements the helpers that turn request bodies, path values and
// query strings into domain inputs. Every failure comes back as a
// *core.ValidationError so it maps to 400.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"kantong/internal/core"
)

const (
	maxBodyBytes = 1 << 20
	maxPageSize  = 100
)

// UserIDHeader carries the caller identity set by the fronting auth gateway.
const UserIDHeader = "X-User-ID"

// userID returns the trusted caller identity, or "" when the gateway sent none.
func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserIDHeader))
}

// DecodeJSON reads a single JSON object from the body into v. Unknown fields
// are rejected so derived values such as bucket amounts cannot be posted.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Invalid("body", "request body is required")
		}
		return core.Invalid("body", err.Error())
	}
	if dec.More() {
		return core.Invalid("body", "request body must contain a single JSON object")
	}
	return nil
}

// PathInt parses an integer path value.
func PathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, core.Invalid(name, "must be an integer")
	}
	return v, nil
}

// MonthParams holds a year and month taken from the path.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads {year}/{month} path values and checks the month range.
func ParseMonthParams(r *http.Request) (MonthParams, error) {
	year, err := PathInt(r, "year")
	if err != nil {
		return MonthParams{}, err
	}
	month, err := PathInt(r, "month")
	if err != nil {
		return MonthParams{}, err
	}
	if !core.ValidMonth(month) {
		return MonthParams{}, core.Invalid("month", "must be between 1 and 12")
	}
	return MonthParams{Year: year, Month: month}, nil
}

// queryDate parses an optional YYYY-MM-DD query value.
func queryDate(query url.Values, key string) (*core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, core.Invalid(key, "must be a date in YYYY-MM-DD format")
	}
	return &d, nil
}

// queryPositiveInt parses an optional integer >= 1. Zero means unset.
func queryPositiveInt(query url.Values, key string) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, core.Invalid(key, "must be an integer greater than or equal to 1")
	}
	return n, nil
}

// DateRange is an optional inclusive date window from the query string.
type DateRange struct {
	From *core.Date
	To   *core.Date
}

// ParseDateRange reads startDate and endDate.
func ParseDateRange(query url.Values) (DateRange, error) {
	from, err := queryDate(query, "startDate")
	if err != nil {
		return DateRange{}, err
	}
	to, err := queryDate(query, "endDate")
	if err != nil {
		return DateRange{}, err
	}
	if from != nil && to != nil && to.Before(from.Time) {
		return DateRange{}, core.Invalid("endDate", "must not be before startDate")
	}
	return DateRange{From: from, To: to}, nil
}

// ParseExpenseFilter builds the list filter for the caller from the query string.
func ParseExpenseFilter(uid string, query url.Values) (core.ExpenseFilter, error) {
	rng, err := ParseDateRange(query)
	if err != nil {
		return core.ExpenseFilter{}, err
	}
	page, err := queryPositiveInt(query, "page")
	if err != nil {
		return core.ExpenseFilter{}, err
	}
	limit, err := queryPositiveInt(query, "limit")
	if err != nil {
		return core.ExpenseFilter{}, err
	}
	if limit > maxPageSize {
		return core.ExpenseFilter{}, core.Invalid("limit", fmt.Sprintf("must be at most %d", maxPageSize))
	}

	f := core.ExpenseFilter{
		UserID:     uid,
		From:       rng.From,
		To:         rng.To,
		CategoryID: strings.TrimSpace(query.Get("categoryId")),
		BudgetID:   strings.TrimSpace(query.Get("budgetId")),
		Page:       page,
		Limit:      limit,
	}
	return f.Normalize(), nil
}
