// Package reconcile finds where two independently derived transaction
// histories last agreed and aligns their differences from that point
// forward for human review.
package reconcile

import (
	"time"

	"github.com/pkg/errors"

	"github.com/insightdelivered/statement-reconciler/internal/ledger"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/money"
)

// ErrNoAgreeingDate means the backward scan ran out of history without
// finding a day on which both registers carry equal running totals. It
// is a legitimate end state of reconciliation, not a crash.
var ErrNoAgreeingDate = errors.New("no day on which the registers agree")

// Reconciler compares two account registers. Today anchors the
// backward scan and defaults to the current date.
type Reconciler struct {
	Left  *ledger.Register
	Right *ledger.Register
	Today time.Time
}

func New(left, right *ledger.Register) *Reconciler {
	return &Reconciler{Left: left, Right: right, Today: models.DayOf(time.Now())}
}

// LatestGoodDate scans backward from today one calendar day at a time.
// Days in neither register are skipped. The scan stops at the first
// day present in both registers whose cumulative totals are equal, and
// also reports the earliest day visited that failed that test.
func (r *Reconciler) LatestGoodDate() (latestGood, earliestBad time.Time, err error) {
	day := models.DayOf(r.Today)
	earliestBad = day
	first := r.Left.FirstDate()

	for !day.Before(first) {
		_, inLeft := r.Left.Dailies[day]
		_, inRight := r.Right.Dailies[day]

		if !inLeft && !inRight {
			day = day.AddDate(0, 0, -1)
			continue
		}
		if inLeft && inRight && r.Left.Dailies[day].Equal(r.Right.Dailies[day]) {
			return day, earliestBad, nil
		}
		earliestBad = day
		day = day.AddDate(0, 0, -1)
	}
	return time.Time{}, earliestBad, ErrNoAgreeingDate
}

// Row is one line of the diff report: a confirmed match when both
// sides are set, otherwise an unmatched entry on whichever side is
// set, with suggested matches from the other register.
type Row struct {
	Left       *ledger.Entry
	Right      *ledger.Entry
	Candidates []ledger.Entry
}

// Matched reports whether both sides consumed an entry on this row.
func (row Row) Matched() bool {
	return row.Left != nil && row.Right != nil
}

// Report is the structured diff for one date: unmatched rows first so
// they cannot hide below a scroll boundary, confirmed matches after,
// and per-column totals for the date's streams.
type Report struct {
	Date       time.Time
	LeftName   string
	RightName  string
	Rows       []Row
	LeftTotal  money.Money
	RightTotal money.Money
}

// Diff aligns the two registers' entries for date. Both day slices are
// walked amount descending with independent cursors: equal amounts are
// consumed together as a match; on a mismatch the larger side is
// flagged unmatched and advanced alone, with the other side's full
// register searched for candidate matches dated on or after the date.
func (r *Reconciler) Diff(date time.Time) *Report {
	day := models.DayOf(date)
	left := r.Left.DateTxs(day)
	right := r.Right.DateTxs(day)

	rep := &Report{
		Date:       day,
		LeftName:   r.Left.Account.Name,
		RightName:  r.Right.Account.Name,
		LeftTotal:  sumEntries(left),
		RightTotal: sumEntries(right),
	}

	var unmatched, matched []Row
	i, j := 0, 0
	for i < len(left) || j < len(right) {
		switch {
		case i >= len(left):
			unmatched = append(unmatched, Row{
				Right:      &right[j],
				Candidates: candidates(r.Left, right[j].Amount, day),
			})
			j++
		case j >= len(right):
			unmatched = append(unmatched, Row{
				Left:       &left[i],
				Candidates: candidates(r.Right, left[i].Amount, day),
			})
			i++
		case left[i].Amount.Equal(right[j].Amount):
			matched = append(matched, Row{Left: &left[i], Right: &right[j]})
			i++
			j++
		case left[i].Amount.Cmp(right[j].Amount) > 0:
			unmatched = append(unmatched, Row{
				Left:       &left[i],
				Candidates: candidates(r.Right, left[i].Amount, day),
			})
			i++
		default:
			unmatched = append(unmatched, Row{
				Right:      &right[j],
				Candidates: candidates(r.Left, right[j].Amount, day),
			})
			j++
		}
	}

	rep.Rows = append(unmatched, matched...)
	return rep
}

// Reconcile runs the backward scan and, when the registers ever
// agreed, builds the diff report for the earliest disagreeing day.
func (r *Reconciler) Reconcile() (latestGood time.Time, rep *Report, err error) {
	latestGood, earliestBad, err := r.LatestGoodDate()
	if err != nil {
		return time.Time{}, nil, err
	}
	return latestGood, r.Diff(earliestBad), nil
}

// candidates searches reg for entries dated on or after date carrying
// exactly the wanted amount.
func candidates(reg *ledger.Register, want money.Money, date time.Time) []ledger.Entry {
	var out []ledger.Entry
	for _, e := range reg.Entries {
		if e.Date.Before(date) {
			continue
		}
		if e.Amount.Equal(want) {
			out = append(out, e)
		}
	}
	return out
}

func sumEntries(es []ledger.Entry) money.Money {
	total := money.Zero()
	for _, e := range es {
		total = total.Add(e.Amount)
	}
	return total
}
