// Package models holds the normalized data types shared between the
// statement parsers, the validator, and the reconciler.
package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/insightdelivered/statement-reconciler/internal/money"
)

// Category is the closed transaction vocabulary. Each institution
// declares its own constants; the ledger renderers switch on them and
// reject anything they were not explicitly taught.
type Category string

// TD Bank section categories. These match the section headings printed
// in the statement.
const (
	CategoryChecksPaid         Category = "Checks Paid"
	CategoryDeposits           Category = "Deposits"
	CategoryElectronicDeposits Category = "Electronic Deposits"
	CategoryElectronicPayments Category = "Electronic Payments"
	CategoryOtherCredits       Category = "Other Credits"
	CategoryOtherWithdrawals   Category = "Other Withdrawals"
)

// Chase categories.
const (
	CategoryDeposit       Category = "DEPOSIT"
	CategoryCheck         Category = "CHECK"
	CategoryATMDebit      Category = "ATM/DEBIT"
	CategoryEWithdraw     Category = "E-WITHDRAW"
	CategoryOtherWithdraw Category = "OTHER-WITHDRAW"
	CategoryFees          Category = "FEES"
)

// Capital One card categories. The statement's transaction log mixes
// purchases, refunds, and fees; the split is made at parse time from
// the amount's sign and the posting description.
const (
	CategoryTransactions Category = "Transactions"
	CategoryCredits      Category = "Credits"
	CategoryCardFees     Category = "Fees"
)

// Card CSV categories.
const (
	CategoryCardDebit  Category = "debit"
	CategoryCardCredit Category = "credit"
)

// TransactionRecord is one normalized, signed, dated monetary entry.
// The sign convention is fixed at parse time (deposits and credits
// positive, checks, withdrawals and fees negative) and never
// re-derived afterwards.
type TransactionRecord struct {
	Date          time.Time   `json:"date"`
	SecondaryDate *time.Time  `json:"secondaryDate,omitempty"` // e.g. transaction date vs posting date
	Category      Category    `json:"category"`
	Amount        money.Money `json:"amount"`
	Note          string      `json:"note"`
	CheckNumber   int         `json:"checkNumber,omitempty"` // 0 when not a check
	Cardholder    string      `json:"cardholder,omitempty"`  // resolved from the card last-4 table
	Type          string      `json:"type,omitempty"`        // statement-printed transaction type, when present

	// Meta carries fields attached by rule-based post-processing
	// (payee, narration, tags). Keys are renderer-specific.
	Meta map[string]string `json:"meta,omitempty"`
}

// SetMeta records a post-processing field, allocating the map lazily.
func (t *TransactionRecord) SetMeta(key, value string) {
	if t.Meta == nil {
		t.Meta = make(map[string]string)
	}
	t.Meta[key] = value
}

// GetMeta returns a post-processing field or "".
func (t *TransactionRecord) GetMeta(key string) string {
	return t.Meta[key]
}

func (t *TransactionRecord) String() string {
	note := string(t.Category)
	if t.Note != "" {
		note += " " + t.Note
	}
	if t.CheckNumber != 0 {
		note += fmt.Sprintf(" #%d", t.CheckNumber)
	}
	return fmt.Sprintf("%s %-60s%12s", t.Date.Format("2006/01/02"), note, t.Amount.Format())
}

// Day normalizes a calendar date for use as a map key. Every date in
// this codebase is constructed through Day or DayOf so map lookups on
// time.Time keys are safe.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayOf truncates t to its calendar date.
func DayOf(t time.Time) time.Time {
	return Day(t.Year(), t.Month(), t.Day())
}

// SortByDate orders records by date ascending, preserving the original
// scan order within a day (stable sort).
func SortByDate(txs []TransactionRecord) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
}

// SortByAmountDesc orders records by amount descending; ties keep the
// original order so repeated runs produce identical output.
func SortByAmountDesc(txs []TransactionRecord) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Amount.Cmp(txs[j].Amount) > 0
	})
}
