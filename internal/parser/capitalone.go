package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/money"
	"github.com/insightdelivered/statement-reconciler/internal/statement"
)

const capOneBanner = "Platinum MasterCard Account"

var (
	// The payment information and account summary print side by side;
	// the summary's last row names the cash credit line.
	capOneSummaryRx = regexp.MustCompile(`(?ms)^ +Payment Information +Account Summary\n.*?Available Credit for Cash.*?\n\n`)
	// The transaction log runs from its heading to the interest
	// calculation table.
	capOneTxBlockRx = regexp.MustCompile(`(?ms)^       +Transactions.*?    Interest Charge Calculation.*`)
	// One posting: "Mon D  DESCRIPTION  $1,234.56", possibly twice per
	// line because the log prints in two columns.
	capOneEntryRx = regexp.MustCompile(` ?[A-Z][a-z][a-z] \d\d?[^$\n]+\$[\d,]+\.\d\d`)
)

// capOneSummaryKeys are the account-summary labels that carry money.
var capOneSummaryKeys = []string{
	"Available Credit",
	"Cash Advances",
	"Credit Limit",
	"Fees Charged",
	"Interest Charged",
	"New Balance",
	"Other Credits",
	"Previous Balance",
	"Payments",
	"Transactions",
}

// capOneSummary is the parsed Account Summary region. The new balance
// prints twice, once in the payment column and once in the summary
// column; both are kept so they can be checked against each other.
type capOneSummary struct {
	amounts        map[string]money.Money
	newBalanceLeft money.Money
	minimumDue     money.Money
	dueDate        time.Time
}

func (s *capOneSummary) amount(st *statement.Statement, key string) (money.Money, error) {
	m, ok := s.amounts[key]
	if !ok {
		return money.Money{}, errors.Errorf("in %s: account summary has no %s", st.SourceFile, key)
	}
	return m, nil
}

// CapitalOneParser handles the Capital One Platinum Mastercard
// statement layout: a two-column account summary and a two-column
// transaction log with the carried-over balance arithmetic printed in
// the summary.
type CapitalOneParser struct {
	cfg *config.Custom
}

func NewCapitalOneParser(cfg *config.Custom) *CapitalOneParser {
	return &CapitalOneParser{cfg: cfg}
}

func (p *CapitalOneParser) BankName() string { return "Capital One Platinum Mastercard" }

func (p *CapitalOneParser) Identify(text string) bool {
	return strings.Contains(text, capOneBanner)
}

func (p *CapitalOneParser) Parse(st *statement.Statement) error {
	st.Preamble = ";; -*- mode: org; mode: beancount; -*-\n"
	st.Renderer = &capOneRenderer{cfg: p.cfg}

	summary, err := p.parseAccountSummary(st)
	if err != nil {
		return err
	}
	if err := p.parseTransactions(st); err != nil {
		return err
	}
	if err := p.checkSummary(st, summary); err != nil {
		return err
	}

	transactions, err := summary.amount(st, "Transactions")
	if err != nil {
		return err
	}
	st.AddSection(&statement.Section{
		Name:         "Transactions",
		Category:     models.CategoryTransactions,
		SummaryTotal: &transactions,
	})

	// The log omits payments and interest, so the card balance can't
	// be replayed from it; the balance arithmetic is checked against
	// the summary instead, and the statement total is the log's sum.
	st.EndBalance = st.Sum("")
	return nil
}

// parseAccountSummary reads the two-column payment/summary region.
// Rows are split on column gaps; a money value belongs to the label
// left of it, and the arithmetic markers the summary column prints
// before its amounts are dropped.
func (p *CapitalOneParser) parseAccountSummary(st *statement.Statement) (*capOneSummary, error) {
	region, err := statement.ExtractRegion(st.SourceFile, st.Text, "Account Summary", capOneSummaryRx)
	if err != nil {
		return nil, err
	}

	summary := &capOneSummary{amounts: make(map[string]money.Money)}
	lines := strings.Split(region, "\n")
	for i, line := range lines {
		parts := twoBlanks.Split(strings.TrimSpace(line), -1)

		if len(parts) >= 2 {
			for _, key := range capOneSummaryKeys {
				if !strings.HasPrefix(parts[len(parts)-2], key) {
					continue
				}
				val := parts[len(parts)-1]
				if strings.IndexAny(val, "-+=") == 0 {
					val = strings.TrimSpace(val[1:])
				}
				if !strings.HasPrefix(val, "$") {
					continue
				}
				amt, err := money.Parse(val)
				if err != nil {
					return nil, &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Account Summary", Line: line}
				}
				summary.amounts[key] = amt
			}
		}

		if parts[0] == "Payment Due Date" && i+2 < len(lines) {
			cell := twoBlanks.Split(strings.TrimSpace(lines[i+2]), -1)[0]
			due, err := parseCapOneDate(cell)
			if err != nil {
				return nil, &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Account Summary", Line: lines[i+2]}
			}
			summary.dueDate = due
		}

		if len(parts) >= 2 && parts[0] == "New Balance" && parts[1] == "Minimum Payment Due" && i+1 < len(lines) {
			next := twoBlanks.Split(strings.TrimSpace(lines[i+1]), -1)
			if len(next) < 2 {
				return nil, &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Account Summary", Line: lines[i+1]}
			}
			left, err := money.Parse(next[0])
			if err != nil {
				return nil, &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Account Summary", Line: lines[i+1]}
			}
			due, err := money.Parse(next[1])
			if err != nil {
				return nil, &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Account Summary", Line: lines[i+1]}
			}
			summary.newBalanceLeft = left
			summary.minimumDue = due
		}
	}
	return summary, nil
}

// checkSummary cross-foots the account summary: the two printed new
// balances must agree, and the previous balance plus the summary's
// charge totals minus its credit totals must reproduce the new
// balance.
func (p *CapitalOneParser) checkSummary(st *statement.Statement, summary *capOneSummary) error {
	newBalance, err := summary.amount(st, "New Balance")
	if err != nil {
		return err
	}
	if !summary.newBalanceLeft.Equal(newBalance) {
		return &statement.InvariantViolationError{
			SourceFile: st.SourceFile,
			Section:    "Account Summary",
			Detail:     "new balance in the payment column doesn't match the account summary",
			Expected:   newBalance,
			Computed:   summary.newBalanceLeft,
		}
	}

	total := money.Zero()
	for _, key := range []string{"Previous Balance", "Transactions", "Cash Advances", "Fees Charged", "Interest Charged"} {
		amt, err := summary.amount(st, key)
		if err != nil {
			return err
		}
		total = total.Add(amt)
	}
	for _, key := range []string{"Payments", "Other Credits"} {
		amt, err := summary.amount(st, key)
		if err != nil {
			return err
		}
		total = total.Sub(amt)
	}
	if !total.Equal(newBalance) {
		return &statement.InvariantViolationError{
			SourceFile: st.SourceFile,
			Section:    "Account Summary",
			Detail:     "account summary doesn't add up to the new balance",
			Expected:   newBalance,
			Computed:   total,
		}
	}
	return nil
}

// parseTransactions scans the two-column transaction log. Each line
// can carry up to two postings; a posting's description sometimes
// continues on the facing half of the following line, unless that
// half opens the next posting.
func (p *CapitalOneParser) parseTransactions(st *statement.Statement) error {
	block, err := statement.ExtractRegion(st.SourceFile, st.Text, "Transactions", capOneTxBlockRx)
	if err != nil {
		return err
	}

	lines := strings.Split(block, "\n")
	found := 0
	for i, line := range lines {
		if line == "" {
			continue
		}
		for _, entry := range capOneEntryRx.FindAllString(line, -1) {
			parts := twoBlanks.Split(strings.TrimSpace(entry), -1)
			if len(parts) < 3 {
				return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Transactions", Line: line}
			}

			date, err := parseCapOneDay(st, parts[0])
			if err != nil {
				return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Transactions", Line: line}
			}
			note := strings.Join(parts[1:len(parts)-1], " ")
			amt, err := money.Parse(parts[len(parts)-1])
			if err != nil {
				return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Transactions", Line: line}
			}

			if half := facingHalf(lines, i, strings.Index(line, entry)); half != "" {
				note += " " + half
			}

			category := models.CategoryTransactions
			if amt.Cmp(money.Zero()) < 0 {
				category = models.CategoryCredits
			}
			if note == "PAST DUE FEE" {
				category = models.CategoryCardFees
			}

			st.Append(models.TransactionRecord{
				Category: category,
				Date:     date,
				Amount:   amt,
				Note:     note,
			})
			found++
		}
	}
	if found == 0 {
		return errors.Errorf("in %s: no postings found in Transactions block", st.SourceFile)
	}
	return nil
}

// facingHalf returns the continuation text under a posting: the half
// of the following line on the posting's side of the column split,
// empty when that half is blank or opens a posting of its own.
func facingHalf(lines []string, i, col int) string {
	if i+1 >= len(lines) {
		return ""
	}
	next := lines[i+1]
	var half string
	switch {
	case col < 40:
		if len(next) > 72 {
			half = next[:72]
		} else {
			half = next
		}
	case len(next) > 72:
		half = next[72:]
	}
	half = strings.TrimSpace(half)
	if startsWithMonth(half) {
		return ""
	}
	return half
}

var capOneMonths = map[string]bool{
	"Jan": true, "Feb": true, "Mar": true, "Apr": true, "May": true, "Jun": true,
	"Jul": true, "Aug": true, "Sep": true, "Oct": true, "Nov": true, "Dec": true,
}

func startsWithMonth(s string) bool {
	return len(s) >= 3 && capOneMonths[s[:3]]
}

// parseCapOneDay resolves a "Mon D" posting date against the
// statement's period.
func parseCapOneDay(st *statement.Statement, token string) (time.Time, error) {
	t, err := time.Parse("Jan 2", token)
	if err != nil {
		return time.Time{}, err
	}
	return st.ResolveDate(t.Month(), t.Day()), nil
}

var capOneDateLayouts = []string{"Jan 2, 2006", "Jan. 2, 2006", "01/02/2006", "01/02/06"}

func parseCapOneDate(cell string) (time.Time, error) {
	for _, layout := range capOneDateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return models.DayOf(t), nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized date %q", cell)
}

// capOneRenderer emits beancount entries for the card's posting
// categories.
type capOneRenderer struct {
	cfg *config.Custom
}

func (r *capOneRenderer) Render(tx models.TransactionRecord) (string, error) {
	switch tx.Category {
	case models.CategoryTransactions, models.CategoryCredits, models.CategoryCardFees:
	default:
		return "", &statement.UnknownCategoryError{Category: string(tx.Category), Date: tx.Date}
	}

	v := entryVals{
		Date:     tx.Date,
		Comment:  tx.Note,
		Account:  r.cfg.Accounts.Debit,
		Account2: r.cfg.Accounts.Credit,
		Amount:   tx.Amount,
	}
	applyCommentRules(r.cfg, &v)
	if v.Payee == "" && v.Narration == "" {
		v.Narration = tx.Note
	}

	v.Meta = []metaField{
		{"category", string(tx.Category)},
		{"comment", v.Comment},
	}
	return renderEntry(v), nil
}
