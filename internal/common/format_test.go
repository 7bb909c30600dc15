package common

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "GH₵ 0.00"},
		{"50", "GH₵ 50.00"},
		{"1234.5", "GH₵ 1,234.50"},
		{"1234567.89", "GH₵ 1,234,567.89"},
		{"-80", "GH₵ -80.00"},
		{"-1234.5", "GH₵ -1,234.50"},
	}
	for _, tc := range cases {
		amount, err := decimal.NewFromString(tc.in)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", tc.in, err)
		}
		if got := FormatAmount(amount); got != tc.want {
			t.Errorf("FormatAmount(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDateAndTime(t *testing.T) {
	ts := time.Date(2025, 6, 10, 9, 30, 15, 0, time.FixedZone("GMT+2", 2*3600))

	if got := FormatDate(ts); got != "2025-06-10" {
		t.Errorf("FormatDate = %s", got)
	}
	// Rendering is pinned to UTC regardless of the input zone.
	if got := FormatTime(ts); got != "07:30:15" {
		t.Errorf("FormatTime = %s", got)
	}
	if got := FormatDateTime(ts); got != "2025-06-10 07:30:15" {
		t.Errorf("FormatDateTime = %s", got)
	}
}
