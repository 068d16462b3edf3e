package statement

import (
	"fmt"
	"time"

	"github.com/insightdelivered/statement-reconciler/internal/money"
)

// The error types below are all fatal: any of them means either a
// parsing bug or real corruption in the statement text, and the run
// must abort before output is written.

// SectionNotFoundError reports a statement that should contain a named
// section but doesn't.
type SectionNotFoundError struct {
	SourceFile string
	Section    string
}

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("in %s: section %q not found", e.SourceFile, e.Section)
}

// UnparseableLineError reports a line inside a recognized section that
// matches no expected shape.
type UnparseableLineError struct {
	SourceFile string
	Section    string
	Line       string
}

func (e *UnparseableLineError) Error() string {
	return fmt.Sprintf("in %s: can't parse this %s line:\n%s", e.SourceFile, e.Section, e.Line)
}

// UnknownCategoryError reports a transaction category the ledger
// renderer was never taught. New statement shapes must be added
// explicitly, never guessed.
type UnknownCategoryError struct {
	Category string
	Date     time.Time
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("can't handle category %q in tx dated %s", e.Category, e.Date.Format("2006-01-02"))
}

// AttributionError reports a card transaction whose last-4 digits
// resolve to no configured cardholder. Ambiguous liability never
// passes silently.
type AttributionError struct {
	SourceFile string
	Note       string
}

func (e *AttributionError) Error() string {
	return fmt.Sprintf("in %s: unknown cardholder for %q", e.SourceFile, e.Note)
}

// InvariantViolationError reports a cross-footing mismatch: a section
// subtotal, the begin/end balance equation, or a daily balance that
// the parsed transactions fail to reproduce.
type InvariantViolationError struct {
	SourceFile string
	Section    string // "" for statement-level checks
	Detail     string
	Expected   money.Money
	Computed   money.Money
}

func (e *InvariantViolationError) Error() string {
	where := e.SourceFile
	if e.Section != "" {
		where += " section " + e.Section
	}
	delta := e.Computed.Sub(e.Expected)
	return fmt.Sprintf("in %s: %s: expected %s, computed %s (delta %s)",
		where, e.Detail, e.Expected, e.Computed, delta)
}
