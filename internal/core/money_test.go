package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"0", "0", true},
		{"1.005", "1", true},    // half-even rounds to the even cent
		{"1.015", "1.02", true}, // half-even rounds to the even cent
		{"1.0151", "1.02", true},
		{" 2.50 ", "2.5", true},
		{"500000", "500000", true},
		{"-1", "", false},
		{"+1", "", false},
		{"1e3", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestPercent(t *testing.T) {
	pct, ok := Percent(decimal.NewFromInt(1), decimal.NewFromInt(3))
	if !ok || !pct.Equal(decimal.RequireFromString("33.33")) {
		t.Fatalf("expected 33.33, got %s (ok=%v)", pct, ok)
	}
	if _, ok := Percent(decimal.NewFromInt(1), decimal.Zero); ok {
		t.Fatalf("expected zero whole to be undefined")
	}
}

func TestMoneyMarshalsAsNumber(t *testing.T) {
	b, err := decimal.RequireFromString("1500.50").MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "1500.5" {
		t.Fatalf("expected bare number, got %s", b)
	}
}
