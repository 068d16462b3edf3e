// Package statement models one monthly statement: its typed sections,
// its normalized transactions, and the cross-footing validation that
// decides whether the parse can be trusted.
package statement

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/money"
)

// Section is one named, regex-delimited region of a statement. The
// parser fills in the subtotal it printed inside the block and the
// matching figure from the account summary; the validator cross-foots
// both against the transactions carrying the section's category.
type Section struct {
	Name     string
	Category models.Category
	Text     string

	// Subtotal is the figure printed at the bottom of the block,
	// nil when the layout prints none.
	Subtotal *money.Money
	// SummaryTotal is the matching figure from the statement's
	// account-summary region, nil when absent.
	SummaryTotal *money.Money
}

// Renderer turns a normalized transaction into ledger text. Each
// institution parser supplies its own; an unrecognized category is an
// UnknownCategoryError.
type Renderer interface {
	Render(tx models.TransactionRecord) (string, error)
}

// Statement is one institution's monthly export: raw text, the
// resolved period, parsed transactions in scan order, and the printed
// figures the validator checks against.
type Statement struct {
	SourceFile string
	Bank       string // set by whichever parser claims the text
	Year       int
	Month      time.Month
	Text       string

	Transactions []models.TransactionRecord
	BeginBalance money.Money
	EndBalance   money.Money
	Sections     map[string]*Section
	DailyBalance map[time.Time]money.Money

	Preamble string
	Renderer Renderer
}

// New builds a Statement around raw text, resolving the period from
// the source filename, which follows the YYYY_MM.<ext> convention.
func New(sourceFile, text string) (*Statement, error) {
	stub := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	parts := strings.SplitN(stub, "_", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("statement filename %q: want YYYY_MM.<ext>", sourceFile)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("statement filename %q: bad year: %v", sourceFile, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return nil, fmt.Errorf("statement filename %q: bad month", sourceFile)
	}

	return &Statement{
		SourceFile:   filepath.Base(sourceFile),
		Year:         year,
		Month:        time.Month(month),
		Text:         text,
		Sections:     make(map[string]*Section),
		DailyBalance: make(map[time.Time]money.Money),
	}, nil
}

// ResolveDate attaches a year to a month/day printed without one. A
// January date in a December statement belongs to the next year; a
// December date in a January statement belongs to the previous year.
func (s *Statement) ResolveDate(month time.Month, day int) time.Time {
	year := s.Year
	if s.Month == time.December && month == time.January {
		year++
	}
	if s.Month == time.January && month == time.December {
		year--
	}
	return models.Day(year, month, day)
}

// Append adds a parsed transaction in scan order.
func (s *Statement) Append(tx models.TransactionRecord) {
	s.Transactions = append(s.Transactions, tx)
}

// AddSection registers a parsed section under its name.
func (s *Statement) AddSection(sec *Section) {
	s.Sections[sec.Name] = sec
}

// Sum totals all transactions, or just those in the given category
// when category is non-empty.
func (s *Statement) Sum(category models.Category) money.Money {
	total := money.Zero()
	for _, tx := range s.Transactions {
		if category == "" || tx.Category == category {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// PeriodKey returns the YYYY_MM key this statement sorts under.
func (s *Statement) PeriodKey() string {
	return fmt.Sprintf("%04d_%02d", s.Year, int(s.Month))
}

// RenderLedger renders every transaction, date-ordered, as ledger
// text using the institution's renderer.
func (s *Statement) RenderLedger() (string, error) {
	txs := make([]models.TransactionRecord, len(s.Transactions))
	copy(txs, s.Transactions)
	models.SortByDate(txs)

	var b strings.Builder
	for _, tx := range txs {
		entry, err := s.Renderer.Render(tx)
		if err != nil {
			return "", err
		}
		b.WriteString(entry)
	}
	return b.String(), nil
}

// BalanceAssertions renders one balance-assertion line per recorded
// daily balance. The assertion is dated the following day because a
// balance assertion applies to the start of that day in the target
// ledger format.
func (s *Statement) BalanceAssertions(account string) string {
	dates := make([]time.Time, 0, len(s.DailyBalance))
	for d := range s.DailyBalance {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var b strings.Builder
	for _, d := range dates {
		bal := s.DailyBalance[d]
		fmt.Fprintf(&b, "%s balance %s        %s %s\n",
			d.AddDate(0, 0, 1).Format("2006-01-02"),
			account, bal.Format(), bal.Currency)
	}
	return b.String()
}
