package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Common patterns shared by the statement layouts.
var (
	// MM/DD at the start of a line (statements print no year)
	dateMMDD = regexp.MustCompile(`^(\d{2})/(\d{2})`)
	// runs of whitespace
	blanks = regexp.MustCompile(` +`)
	// two or more blanks, the de facto column separator in
	// layout-preserving statement text
	twoBlanks = regexp.MustCompile(`  +`)
	// masked card number, e.g. "************4082"
	cardNumber = regexp.MustCompile(`\*+(\d{4})\b`)
	// a trailing block of four digits, e.g. "Purchase Store 4082"
	trailingFour = regexp.MustCompile(`(\d{4})$`)
)

// startsWithDate reports whether the line opens with an MM/DD token.
func startsWithDate(line string) bool {
	return dateMMDD.MatchString(line)
}

// parseMMDD extracts the leading MM/DD token from a line.
func parseMMDD(line string) (month time.Month, day int, ok bool) {
	m := dateMMDD.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	mm, _ := strconv.Atoi(m[1])
	dd, _ := strconv.Atoi(m[2])
	if mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return 0, 0, false
	}
	return time.Month(mm), dd, true
}

// splitColumns splits a layout-preserving line on runs of two or more
// spaces, dropping empty cells.
func splitColumns(line string) []string {
	var out []string
	for _, part := range twoBlanks.Split(strings.TrimSpace(line), -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// collapseSpaces folds internal whitespace runs into single spaces.
func collapseSpaces(s string) string {
	return blanks.ReplaceAllString(strings.TrimSpace(s), " ")
}

// stripDateToken drops the leading MM/DD token, and the blank after
// it, from a note. A note too short to carry the full token reduces
// to "".
func stripDateToken(note string) string {
	if len(note) < 5 {
		return ""
	}
	return strings.TrimSpace(note[5:])
}

// lastFour pulls the last four card digits out of a note, preferring
// an explicit masked card number over a bare trailing digit block.
func lastFour(note string) string {
	if m := cardNumber.FindStringSubmatch(note); m != nil {
		return m[1]
	}
	if m := trailingFour.FindStringSubmatch(strings.TrimSpace(note)); m != nil {
		return m[1]
	}
	return ""
}
