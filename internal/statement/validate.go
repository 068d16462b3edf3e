package statement

import (
	"sort"
	"time"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// Validate cross-foots the parsed transactions against every figure
// the statement printed. Section subtotals are checked first, then the
// daily-balance replay, then the begin/end balance equation. The
// statement-level check runs last so a more specific section mismatch
// surfaces first. Any inequality, to the cent, is fatal.
func (s *Statement) Validate() error {
	names := make([]string, 0, len(s.Sections))
	for name := range s.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.validateSection(s.Sections[name]); err != nil {
			return err
		}
	}

	if err := s.validateDailyBalances(); err != nil {
		return err
	}

	computed := s.BeginBalance.Add(s.Sum(""))
	if !computed.Equal(s.EndBalance) {
		return &InvariantViolationError{
			SourceFile: s.SourceFile,
			Detail:     "transactions don't add up to ending balance",
			Expected:   s.EndBalance,
			Computed:   computed,
		}
	}
	return nil
}

// validateSection asserts the computed category sum equals both the
// subtotal printed inside the block and the one printed in the account
// summary. Subtotals are printed unsigned, so comparison is on
// absolute values.
func (s *Statement) validateSection(sec *Section) error {
	computed := s.Sum(sec.Category).Abs()

	if sec.Subtotal != nil && !computed.Equal(sec.Subtotal.Abs()) {
		return &InvariantViolationError{
			SourceFile: s.SourceFile,
			Section:    sec.Name,
			Detail:     "postings don't add up to the subtotal printed in the block",
			Expected:   sec.Subtotal.Abs(),
			Computed:   computed,
		}
	}
	if sec.SummaryTotal != nil && !computed.Equal(sec.SummaryTotal.Abs()) {
		return &InvariantViolationError{
			SourceFile: s.SourceFile,
			Section:    sec.Name,
			Detail:     "postings don't add up to the account-summary subtotal",
			Expected:   sec.SummaryTotal.Abs(),
			Computed:   computed,
		}
	}
	return nil
}

// validateDailyBalances replays the transactions in date order from
// the beginning balance and checks the running total against every
// printed daily balance.
func (s *Statement) validateDailyBalances() error {
	if len(s.DailyBalance) == 0 {
		return nil
	}

	txs := make([]models.TransactionRecord, len(s.Transactions))
	copy(txs, s.Transactions)
	models.SortByDate(txs)

	dates := make([]time.Time, 0, len(s.DailyBalance))
	for d := range s.DailyBalance {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	running := s.BeginBalance
	i := 0
	for _, d := range dates {
		for i < len(txs) && !txs[i].Date.After(d) {
			running = running.Add(txs[i].Amount)
			i++
		}
		if printed := s.DailyBalance[d]; !running.Equal(printed) {
			return &InvariantViolationError{
				SourceFile: s.SourceFile,
				Detail:     "daily balance for " + d.Format("2006-01-02") + " not reproduced by replaying transactions",
				Expected:   printed,
				Computed:   running,
			}
		}
	}
	return nil
}
