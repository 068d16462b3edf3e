package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/money"
	"github.com/insightdelivered/statement-reconciler/internal/statement"
)

const tdBanner = "Bank Deposits FDIC Insured | TD Bank, N.A. | Equal Housing Lender"

var (
	subtotalRx    = regexp.MustCompile(`   Subtotal: `)
	tdSummaryRx   = regexp.MustCompile(`(?ms)ACCOUNT SUMMARY.*?\n\n`)
	tdDailyRx     = regexp.MustCompile(`(?ms)^DAILY BALANCE SUMMARY\n.*?\n\n`)
	tdChecksStart = `^Checks Paid +No\. Checks[^\n]*\n`
)

// TDBankParser handles the TD Bank checking statement layout: an
// account summary naming every section and its subtotal, one posting
// block per section, and a daily balance summary.
type TDBankParser struct {
	cfg *config.Custom
}

func NewTDBankParser(cfg *config.Custom) *TDBankParser {
	return &TDBankParser{cfg: cfg}
}

func (p *TDBankParser) BankName() string { return "TD Bank" }

func (p *TDBankParser) Identify(text string) bool {
	return strings.Contains(text, tdBanner)
}

// tdSummary is the parsed ACCOUNT SUMMARY region. The left column
// lists credit subtotals, then debit subtotals; the layout marks the
// switch with a right-column-only row.
type tdSummary struct {
	creditNames []string
	debitNames  []string
	amounts     map[string]money.Money
}

func (s *tdSummary) amount(name string) (money.Money, bool) {
	m, ok := s.amounts[name]
	return m, ok
}

// sectionNames returns every summary entry that has a posting block
// of its own.
func (s *tdSummary) sectionNames() []string {
	var names []string
	for _, n := range s.creditNames {
		if n != "Beginning Balance" {
			names = append(names, n)
		}
	}
	for _, n := range s.debitNames {
		if n != "Ending Balance" {
			names = append(names, n)
		}
	}
	return names
}

func (s *tdSummary) isCredit(name string) bool {
	for _, n := range s.creditNames {
		if n == name {
			return true
		}
	}
	return false
}

func (p *TDBankParser) Parse(st *statement.Statement) error {
	st.Preamble = ";; -*- mode: org; mode: beancount; -*-\n"
	st.Renderer = &tdRenderer{cfg: p.cfg}

	summary, err := p.parseSummary(st)
	if err != nil {
		return err
	}

	begin, ok := summary.amount("Beginning Balance")
	if !ok {
		return errors.Errorf("in %s: account summary has no Beginning Balance", st.SourceFile)
	}
	end, ok := summary.amount("Ending Balance")
	if !ok {
		return errors.Errorf("in %s: account summary has no Ending Balance", st.SourceFile)
	}
	st.BeginBalance = begin
	st.EndBalance = end

	for _, name := range summary.sectionNames() {
		if err := p.parseSection(st, summary, name); err != nil {
			return err
		}
	}

	return p.parseDailyBalances(st)
}

// parseSummary reads the ACCOUNT SUMMARY region. The left half of
// each row is a section name and its subtotal; rows with only a right
// half split on the leading empty cell and mark where the credit
// subtotals end and the debit subtotals begin.
func (p *TDBankParser) parseSummary(st *statement.Statement) (*tdSummary, error) {
	region, err := statement.ExtractRegion(st.SourceFile, st.Text, "ACCOUNT SUMMARY", tdSummaryRx)
	if err != nil {
		return nil, err
	}

	summary := &tdSummary{amounts: make(map[string]money.Money)}
	names := &summary.creditNames

	lines := strings.Split(region, "\n")
	for _, line := range lines[1:] {
		parts := twoBlanks.Split(line, -1)
		if len(parts) == 2 || len(parts) == 4 {
			amt, err := money.Parse(parts[1])
			if err != nil {
				return nil, &statement.UnparseableLineError{
					SourceFile: st.SourceFile, Section: "ACCOUNT SUMMARY", Line: line,
				}
			}
			*names = append(*names, parts[0])
			summary.amounts[parts[0]] = amt
		}
		if len(parts) == 3 {
			names = &summary.debitNames
		}
	}
	return summary, nil
}

// parseSection extracts one posting block, records the subtotal
// printed inside it, and scans its posting lines. Credit sections
// post positive amounts, debit sections negative.
func (p *TDBankParser) parseSection(st *statement.Statement, summary *tdSummary, name string) error {
	spec := statement.BlockSpec{Name: name, Marker: "POSTING", Subtotal: subtotalRx}
	if name == "Checks Paid" {
		spec.Start = tdChecksStart
	}

	block, err := statement.ExtractBlock(st.SourceFile, st.Text, spec)
	if err != nil {
		return err
	}

	subtotal, err := parseBlockSubtotal(st, name, block)
	if err != nil {
		return err
	}
	summaryTotal, _ := summary.amount(name)

	sec := &statement.Section{
		Name:         name,
		Category:     models.Category(name),
		Text:         block,
		Subtotal:     &subtotal,
		SummaryTotal: &summaryTotal,
	}
	st.AddSection(sec)

	if name == "Checks Paid" {
		return p.parseChecks(st, name, block)
	}
	if summary.isCredit(name) {
		return p.parseCreditBlock(st, name, block)
	}
	return p.parseDebitBlock(st, name, block)
}

// parseBlockSubtotal finds the subtotal line inside a posting block.
func parseBlockSubtotal(st *statement.Statement, name, block string) (money.Money, error) {
	for _, line := range strings.Split(block, "\n") {
		if !strings.Contains(line, "Subtotal") {
			continue
		}
		parts := blanks.Split(strings.TrimSpace(line), -1)
		return money.Parse(parts[len(parts)-1])
	}
	return money.Money{}, &statement.SectionNotFoundError{
		SourceFile: st.SourceFile, Section: name + " subtotal",
	}
}

func (p *TDBankParser) parseCreditBlock(st *statement.Statement, name, block string) error {
	lines := strings.Split(block, "\n")
	if len(lines) <= 2 {
		return nil
	}
	lines = lines[2:]
	for i, line := range lines {
		if !startsWithDate(line) {
			continue
		}
		parts := twoBlanks.Split(line, -1)
		if len(parts) != 3 {
			return &statement.UnparseableLineError{
				SourceFile: st.SourceFile, Section: name, Line: line,
			}
		}
		amt, err := money.Parse(parts[2])
		if err != nil {
			return &statement.UnparseableLineError{
				SourceFile: st.SourceFile, Section: name, Line: line,
			}
		}
		date, ok := resolveToken(st, parts[0])
		if !ok {
			return &statement.UnparseableLineError{
				SourceFile: st.SourceFile, Section: name, Line: line,
			}
		}
		st.Append(models.TransactionRecord{
			Category: models.Category(name),
			Date:     date,
			Amount:   amt,
			Note:     continuationNote(lines, i, parts[1]),
		})
	}
	return nil
}

func (p *TDBankParser) parseDebitBlock(st *statement.Statement, name, block string) error {
	lines := strings.Split(block, "\n")
	if len(lines) <= 2 {
		return nil
	}
	lines = lines[2:]
	for i, line := range lines {
		if startsWithDate(line) {
			parts := twoBlanks.Split(line, -1)
			if len(parts) < 3 {
				return &statement.UnparseableLineError{
					SourceFile: st.SourceFile, Section: name, Line: line,
				}
			}
			amt, err := money.Parse(parts[2])
			if err != nil {
				return &statement.UnparseableLineError{
					SourceFile: st.SourceFile, Section: name, Line: line,
				}
			}
			date, ok := resolveToken(st, parts[0])
			if !ok {
				return &statement.UnparseableLineError{
					SourceFile: st.SourceFile, Section: name, Line: line,
				}
			}
			st.Append(models.TransactionRecord{
				Category: models.Category(name),
				Date:     date,
				Amount:   amt.Neg(),
				Note:     continuationNote(lines, i, parts[1]),
			})
			continue
		}
		if line == "" || strings.HasPrefix(line, " ") ||
			strings.HasPrefix(line, "POSTING DATE") ||
			line == name+" (continued)" {
			continue
		}
		return &statement.UnparseableLineError{
			SourceFile: st.SourceFile, Section: name, Line: line,
		}
	}
	return nil
}

// parseChecks scans the Checks Paid block, whose rows carry either one
// or two check postings: date, check number, amount, repeated.
func (p *TDBankParser) parseChecks(st *statement.Statement, name, block string) error {
	lines := strings.Split(block, "\n")
	if len(lines) <= 2 {
		return nil
	}
	for _, line := range lines[2:] {
		if line == "" || !startsWithDate(line) {
			continue
		}
		parts := blanks.Split(strings.TrimSpace(line), -1)
		if len(parts) != 3 && len(parts) != 6 {
			return &statement.UnparseableLineError{
				SourceFile: st.SourceFile, Section: name, Line: line,
			}
		}
		for i := 0; i < len(parts); i += 3 {
			num, err := strconv.Atoi(parts[i+1])
			if err != nil {
				return &statement.UnparseableLineError{
					SourceFile: st.SourceFile, Section: name, Line: line,
				}
			}
			amt, err := money.Parse(parts[i+2])
			if err != nil {
				return &statement.UnparseableLineError{
					SourceFile: st.SourceFile, Section: name, Line: line,
				}
			}
			date, ok := resolveToken(st, parts[i])
			if !ok {
				return &statement.UnparseableLineError{
					SourceFile: st.SourceFile, Section: name, Line: line,
				}
			}
			st.Append(models.TransactionRecord{
				Category:    models.Category(name),
				Date:        date,
				Amount:      amt.Neg(),
				CheckNumber: num,
			})
		}
	}
	return nil
}

// parseDailyBalances reads every DAILY BALANCE SUMMARY region. Rows
// carry either one date/balance pair or two side by side.
func (p *TDBankParser) parseDailyBalances(st *statement.Statement) error {
	regions := tdDailyRx.FindAllString(st.Text, -1)
	if len(regions) == 0 {
		return &statement.SectionNotFoundError{
			SourceFile: st.SourceFile, Section: "DAILY BALANCE SUMMARY",
		}
	}
	for _, region := range regions {
		lines := strings.Split(strings.TrimSpace(region), "\n")
		if len(lines) <= 2 {
			continue
		}
		for _, line := range lines[2:] {
			if line == "" || !startsWithDate(line) {
				continue
			}
			parts := blanks.Split(strings.TrimSpace(line), -1)
			if len(parts) != 2 && len(parts) != 4 {
				return &statement.UnparseableLineError{
					SourceFile: st.SourceFile, Section: "DAILY BALANCE SUMMARY", Line: line,
				}
			}
			for i := 0; i < len(parts); i += 2 {
				amt, err := money.Parse(parts[i+1])
				if err != nil {
					return &statement.UnparseableLineError{
						SourceFile: st.SourceFile, Section: "DAILY BALANCE SUMMARY", Line: line,
					}
				}
				date, ok := resolveToken(st, parts[i])
				if !ok {
					return &statement.UnparseableLineError{
						SourceFile: st.SourceFile, Section: "DAILY BALANCE SUMMARY", Line: line,
					}
				}
				st.DailyBalance[date] = amt
			}
		}
	}
	return nil
}

// resolveToken turns a printed MM/DD token into a full date using the
// statement's period for year resolution.
func resolveToken(st *statement.Statement, token string) (time.Time, bool) {
	m, d, ok := parseMMDD(token)
	if !ok {
		return time.Time{}, false
	}
	return st.ResolveDate(m, d), true
}

// continuationNote joins a posting's note with the following line when
// that line continues the description rather than starting a new
// posting or terminating the block.
func continuationNote(lines []string, i int, note string) string {
	if i+1 >= len(lines) {
		return note
	}
	next := lines[i+1]
	if startsWithDate(next) || subtotalRx.MatchString(next) || strings.TrimSpace(next) == "" {
		return note
	}
	return collapseSpaces(next) + " " + note
}

// tdRenderer emits beancount entries for TD Bank's closed category
// set. Anything else is a layout this parser was never taught.
type tdRenderer struct {
	cfg *config.Custom
}

func (r *tdRenderer) Render(tx models.TransactionRecord) (string, error) {
	switch tx.Category {
	case models.CategoryChecksPaid, models.CategoryDeposits,
		models.CategoryElectronicDeposits, models.CategoryElectronicPayments,
		models.CategoryOtherCredits, models.CategoryOtherWithdrawals:
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
		{"cardholder", tx.Cardholder},
		{"category", string(tx.Category)},
		{"code", checkCode(tx.CheckNumber)},
		{"comment", v.Comment},
	}
	return renderEntry(v), nil
}

func checkCode(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
