package parser

import (
	"testing"
	"time"
)

func TestStartsWithDate(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"04/03   DEBIT CARD PURCHASE", true},
		{"12/28,\"EXXONMOBIL\"", true},
		{"Subtotal:   260.00", false},
		{"4/3 DEBIT", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := startsWithDate(tt.input)
			if got != tt.expected {
				t.Errorf("startsWithDate(%q): got %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseMMDD(t *testing.T) {
	tests := []struct {
		input string
		month time.Month
		day   int
		ok    bool
	}{
		{"04/03   DEBIT", time.April, 3, true},
		{"12/31 end of year", time.December, 31, true},
		{"13/01 bad month", 0, 0, false},
		{"04/32 bad day", 0, 0, false},
		{"no date here", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			month, day, ok := parseMMDD(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseMMDD(%q): ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if month != tt.month || day != tt.day {
				t.Errorf("parseMMDD(%q): got %v/%d, want %v/%d", tt.input, month, day, tt.month, tt.day)
			}
		})
	}
}

func TestSplitColumns(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"04/03   DEBIT CARD PURCHASE   120.00", []string{"04/03", "DEBIT CARD PURCHASE", "120.00"}},
		{"   Ending Balance     1,120.00  ", []string{"Ending Balance", "1,120.00"}},
		{"single", []string{"single"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := splitColumns(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("splitColumns(%q): got %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("splitColumns(%q)[%d]: got %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestCollapseSpaces(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"EXXONMOBIL    97662472", "EXXONMOBIL 97662472"},
		{"  leading and trailing  ", "leading and trailing"},
		{"already clean", "already clean"},
	}

	for _, tt := range tests {
		if got := collapseSpaces(tt.input); got != tt.expected {
			t.Errorf("collapseSpaces(%q): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLastFour(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Card Purchase 05/11 Coffee Shop Card ************2238", "2238"},
		{"Purchase Store 4082", "4082"},
		{"Card ************2238 then store 4082", "2238"},
		{"no digits", ""},
	}

	for _, tt := range tests {
		if got := lastFour(tt.input); got != tt.expected {
			t.Errorf("lastFour(%q): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}
