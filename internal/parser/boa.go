package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/money"
	"github.com/insightdelivered/statement-reconciler/internal/statement"
)

const boaBanner = "Bank of America, N.A."

// Account summary rows: a label, then an amount with an optional
// dollar sign.
var boaSummaryRx = regexp.MustCompile(`^([,\w ]+)\b +\$?(-?[\d.,]+)`)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// boaMode is the scanner state, switched by the section heading lines.
type boaMode int

const (
	boaStart boaMode = iota
	boaSummary
	boaDeposits
	boaWithdrawals
	boaChecks
	boaFees
	boaDaily
)

// BoAParser handles the Bank of America checking statement layout: an
// account summary with signed section totals, per-category posting
// sections whose rows print full MM/DD/YY dates, and a daily ledger
// balance table. Withdrawal rows name the card on the following line,
// which attributes the posting to a configured cardholder.
type BoAParser struct {
	cfg *config.Custom
}

func NewBoAParser(cfg *config.Custom) *BoAParser {
	return &BoAParser{cfg: cfg}
}

func (p *BoAParser) BankName() string { return "Bank of America" }

func (p *BoAParser) Identify(text string) bool {
	return strings.Contains(text, boaBanner)
}

func (p *BoAParser) Parse(st *statement.Statement) error {
	st.Preamble = ";; -*- mode: org; mode: beancount; -*-\n"
	st.Renderer = &boaRenderer{cfg: p.cfg}

	mode := boaStart
	lines := strings.Split(st.Text, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		mode = boaHeaderMode(line, mode)

		var err error
		switch mode {
		case boaSummary:
			err = p.parseSummaryLine(st, line)
		case boaDeposits:
			err = p.parseDeposit(st, line)
		case boaWithdrawals:
			err = p.parseWithdrawal(st, line, lines, i)
		case boaChecks:
			err = p.parseChecks(st, line)
		case boaFees:
			err = p.parseFee(st, line, lines, i)
		case boaDaily:
			err = p.parseDailyBalance(st, line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// boaHeaderMode switches the scanner state on section headings. The
// posting sections are headed by the bare section name; inside the
// account summary the same names carry amounts, so only an exact
// match starts a posting section.
func boaHeaderMode(line string, mode boaMode) boaMode {
	switch line {
	case "Deposits and other credits":
		return boaDeposits
	case "Withdrawals and other debits":
		return boaWithdrawals
	case "Checks":
		return boaChecks
	case "Service fees":
		return boaFees
	}
	switch {
	case strings.HasPrefix(line, "Account summary"):
		return boaSummary
	case strings.HasPrefix(line, "Total withdrawals and other debits"):
		return boaStart
	case strings.HasPrefix(line, "Daily ledger balance"):
		return boaDaily
	}
	return mode
}

var boaSummaryLabels = []struct {
	label    string
	section  string
	category models.Category
}{
	{"Deposits and other credits", "Deposits and other credits", models.CategoryDeposit},
	{"Withdrawals and other debits", "Withdrawals and other debits", models.CategoryOtherWithdraw},
	{"Checks", "Checks", models.CategoryCheck},
	{"Service fees", "Service fees", models.CategoryFees},
}

func (p *BoAParser) parseSummaryLine(st *statement.Statement, line string) error {
	m := boaSummaryRx.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	amt, err := money.Parse(m[2])
	if err != nil {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Account summary", Line: line}
	}
	label := strings.TrimSpace(m[1])

	if strings.HasPrefix(line, "Beginning balance on") {
		st.BeginBalance = amt
		return nil
	}
	if strings.HasPrefix(line, "Ending balance on") {
		st.EndBalance = amt
		return nil
	}
	for _, s := range boaSummaryLabels {
		// The deposits label runs into the balance wording, so it
		// matches on prefix; the rest are whole labels.
		if label != s.label && !strings.HasPrefix(line, s.label) {
			continue
		}
		total := amt
		st.AddSection(&statement.Section{
			Name:         s.section,
			Category:     s.category,
			SummaryTotal: &total,
		})
		return nil
	}
	return nil
}

func (p *BoAParser) parseDeposit(st *statement.Statement, line string) error {
	if !isDataLine(line) {
		return nil
	}
	parts := splitColumns(line)
	if len(parts) < 2 {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Deposits and other credits", Line: line}
	}
	amt, err := money.Parse(parts[len(parts)-1])
	if err != nil {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Deposits and other credits", Line: line}
	}
	date, ok := resolveToken(st, parts[0])
	if !ok {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Deposits and other credits", Line: line}
	}
	st.Append(models.TransactionRecord{
		Category: models.CategoryDeposit,
		Date:     date,
		Amount:   amt,
		Note:     strings.Join(parts[1:len(parts)-1], " "),
	})
	return nil
}

// parseWithdrawal reads one withdrawal row. The line after a row often
// continues the description and ends with the purchasing card's last
// four digits; those digits must resolve to a configured cardholder.
func (p *BoAParser) parseWithdrawal(st *statement.Statement, line string, lines []string, i int) error {
	if !isDataLine(line) {
		return nil
	}
	parts := splitColumns(line)
	if len(parts) < 2 {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Withdrawals and other debits", Line: line}
	}
	amt, err := money.Parse(parts[len(parts)-1])
	if err != nil {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Withdrawals and other debits", Line: line}
	}
	date, ok := resolveToken(st, parts[0])
	if !ok {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Withdrawals and other debits", Line: line}
	}

	tx := models.TransactionRecord{
		Category: models.CategoryOtherWithdraw,
		Date:     date,
		Amount:   amt,
		Note:     strings.Join(parts[1:len(parts)-1], " "),
	}

	if i+1 < len(lines) && len(lines[i+1]) >= 4 && !isDataLine(strings.TrimSpace(lines[i+1])) {
		next := lines[i+1]
		digits := nonDigits.ReplaceAllString(next[len(next)-4:], "")
		if len(digits) == 4 {
			holder, ok := p.cfg.Holder(digits)
			if !ok {
				return &statement.AttributionError{SourceFile: st.SourceFile, Note: tx.Note}
			}
			tx.Cardholder = holder
		}
	}

	st.Append(tx)
	return nil
}

// parseChecks reads check rows: date, check number, amount, with one
// or more postings per line.
func (p *BoAParser) parseChecks(st *statement.Statement, line string) error {
	if !isDataLine(line) {
		return nil
	}
	parts := splitColumns(line)
	if len(parts)%3 != 0 {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Checks", Line: line}
	}
	for j := 0; j < len(parts); j += 3 {
		num, err := strconv.Atoi(nonDigits.ReplaceAllString(parts[j+1], ""))
		if err != nil {
			return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Checks", Line: line}
		}
		amt, err := money.Parse(parts[j+2])
		if err != nil {
			return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Checks", Line: line}
		}
		date, ok := resolveToken(st, parts[j])
		if !ok {
			return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Checks", Line: line}
		}
		st.Append(models.TransactionRecord{
			Category:    models.CategoryCheck,
			Date:        date,
			Amount:      amt,
			CheckNumber: num,
		})
	}
	return nil
}

// parseFee reads a service fee row. A colon after the date token means
// the line is a timestamped notice, not a posting. The following line
// sometimes carries the card's last four digits; fee attribution is
// best effort, unknown digits stay unattributed.
func (p *BoAParser) parseFee(st *statement.Statement, line string, lines []string, i int) error {
	if !isDataLine(line) || (len(line) > 8 && line[8] == ':') {
		return nil
	}
	parts := splitColumns(line)
	if len(parts) < 2 {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Service fees", Line: line}
	}
	amt, err := money.Parse(parts[len(parts)-1])
	if err != nil {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Service fees", Line: line}
	}
	date, ok := resolveToken(st, parts[0])
	if !ok {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Service fees", Line: line}
	}

	tx := models.TransactionRecord{
		Category: models.CategoryFees,
		Date:     date,
		Amount:   amt,
		Note:     strings.Join(parts[1:len(parts)-1], " "),
	}
	if i+1 < len(lines) {
		if holder, ok := p.cfg.Holder(lastFour(strings.TrimSpace(lines[i+1]))); ok {
			tx.Cardholder = holder
		}
	}
	st.Append(tx)
	return nil
}

// parseDailyBalance reads daily ledger balance rows, which hold one or
// more date/balance pairs.
func (p *BoAParser) parseDailyBalance(st *statement.Statement, line string) error {
	if len(line) < 3 || line[2] != '/' || !startsWithDate(line) {
		return nil
	}
	parts := strings.Fields(line)
	if len(parts)%2 != 0 {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Daily ledger balance", Line: line}
	}
	for j := 0; j < len(parts); j += 2 {
		date, ok := resolveToken(st, parts[j])
		if !ok {
			return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Daily ledger balance", Line: line}
		}
		amt, err := money.Parse(parts[j+1])
		if err != nil {
			return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "Daily ledger balance", Line: line}
		}
		st.DailyBalance[date] = amt
	}
	return nil
}

// boaRenderer emits beancount entries for the Bank of America category
// set.
type boaRenderer struct {
	cfg *config.Custom
}

func (r *boaRenderer) Render(tx models.TransactionRecord) (string, error) {
	switch tx.Category {
	case models.CategoryDeposit, models.CategoryCheck,
		models.CategoryOtherWithdraw, models.CategoryFees:
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
	if tx.Category == models.CategoryDeposit {
		v.Account2 = "Income"
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
