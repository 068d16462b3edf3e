package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/money"
)

// Posting is one leg of a ledger entry.
type Posting struct {
	Account string
	Amount  money.Money
}

// Entry is one ledger transaction restricted to the postings that hit
// the register's configured account prefixes. Amount is the sum of
// those postings.
type Entry struct {
	ID        string
	Date      time.Time
	Payee     string
	Narration string
	Postings  []Posting
	Amount    money.Money
}

// HitsAccount reports whether any posting's account starts with the
// given prefix.
func (e *Entry) HitsAccount(prefix string) bool {
	for _, p := range e.Postings {
		if strings.HasPrefix(p.Account, prefix) {
			return true
		}
	}
	return false
}

// HitsAccounts reports whether any posting hits any of the prefixes.
func (e *Entry) HitsAccounts(prefixes []string) bool {
	for _, prefix := range prefixes {
		if e.HitsAccount(prefix) {
			return true
		}
	}
	return false
}

func (e *Entry) String() string {
	desc := e.Payee
	if e.Narration != "" {
		if desc != "" {
			desc += " "
		}
		desc += e.Narration
	}
	return fmt.Sprintf("%s %-50s%12s", e.Date.Format("2006-01-02"), desc, e.Amount.Format())
}

// Register is one account's transaction history, date ascending, with
// a running cumulative total per date. The totals are what
// reconciliation anchors on.
type Register struct {
	Account config.ReconcileAccount
	Entries []Entry
	Dailies map[time.Time]money.Money
}

// registerQuery pulls every posting under the register's account
// prefixes, one row per posting.
func registerQuery(prefixes []string) string {
	quoted := make([]string, len(prefixes))
	for i, p := range prefixes {
		quoted[i] = strings.ReplaceAll(p, "'", "")
	}
	return fmt.Sprintf(
		"SELECT id, date, payee, narration, account, position WHERE account ~ '^(%s)'",
		strings.Join(quoted, "|"))
}

// Load materializes the register for acct by querying its ledger file.
func Load(ctx context.Context, runner *Runner, acct config.ReconcileAccount) (*Register, error) {
	if len(acct.LedgerAccounts) == 0 {
		return nil, errors.Errorf("account %s: no ledger accounts configured", acct.Name)
	}
	out, err := runner.Query(ctx, acct.LedgerFile, registerQuery(acct.LedgerAccounts))
	if err != nil {
		return nil, err
	}
	reg, err := Parse(acct, out)
	if err != nil {
		return nil, err
	}
	if len(reg.Entries) == 0 {
		return nil, errors.Errorf("account %s: register is empty of journal entries", acct.Name)
	}
	return reg, nil
}

// Parse builds a register from bean-query CSV output. Rows are one
// posting each; rows sharing an id fold into a single entry.
func Parse(acct config.ReconcileAccount, csvText string) (*Register, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "register for %s", acct.Name)
	}

	reg := &Register{Account: acct, Dailies: make(map[time.Time]money.Money)}
	index := make(map[string]int)

	for _, rec := range records {
		if len(rec) < 6 || rec[0] == "id" {
			continue
		}
		id := rec[0]
		date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, errors.Wrapf(err, "register for %s: bad date %q", acct.Name, rec[1])
		}
		amt, err := money.Parse(rec[5])
		if err != nil {
			return nil, errors.Wrapf(err, "register for %s: bad position %q", acct.Name, rec[5])
		}

		posting := Posting{Account: strings.TrimSpace(rec[4]), Amount: amt}
		if i, ok := index[id]; ok {
			e := &reg.Entries[i]
			e.Postings = append(e.Postings, posting)
			e.Amount = e.Amount.Add(amt)
			continue
		}
		index[id] = len(reg.Entries)
		reg.Entries = append(reg.Entries, Entry{
			ID:        id,
			Date:      models.DayOf(date),
			Payee:     strings.TrimSpace(rec[2]),
			Narration: strings.TrimSpace(rec[3]),
			Postings:  []Posting{posting},
			Amount:    amt,
		})
	}

	sort.SliceStable(reg.Entries, func(i, j int) bool {
		return reg.Entries[i].Date.Before(reg.Entries[j].Date)
	})
	reg.calcDailies()
	return reg, nil
}

// calcDailies computes the running cumulative total per date. Entries
// are already date ascending, so the last write for a date holds the
// end-of-day total.
func (r *Register) calcDailies() {
	total := money.Zero()
	for _, e := range r.Entries {
		total = total.Add(e.Amount)
		r.Dailies[e.Date] = total
	}
}

// DateTxs returns the entries on date, amount descending. Ties keep
// register order so repeated runs produce identical reports.
func (r *Register) DateTxs(date time.Time) []Entry {
	day := models.DayOf(date)
	var out []Entry
	for _, e := range r.Entries {
		if e.Date.Equal(day) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cmp(out[j].Amount) > 0
	})
	return out
}

// FirstDate returns the earliest entry date, or zero when empty.
func (r *Register) FirstDate() time.Time {
	if len(r.Entries) == 0 {
		return time.Time{}
	}
	return r.Entries[0].Date
}
