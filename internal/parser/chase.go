package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/money"
	"github.com/insightdelivered/statement-reconciler/internal/statement"
)

// Check register rows: number, clearing symbols, description, date,
// amount.
var chaseCheckRx = regexp.MustCompile(`^(\d+)\s+([* ^]*) *(\S*) *(\d\d/\d\d) *(\S*)`)

// A date token anywhere inside a column.
var chaseInnerDateRx = regexp.MustCompile(`\d\d/\d\d`)

// chaseMode is the scanner state. Each section header line switches
// the mode; every following line is interpreted under it.
type chaseMode int

const (
	chaseStart chaseMode = iota
	chaseSummary
	chaseDeposits
	chaseChecks
	chaseCardWithdrawals
	chaseCardSummary
	chaseEWithdrawals
	chaseOtherWithdrawals
	chaseFees
	chaseDailyBalance
	chaseServiceCharge
)

var chaseHeaders = []struct {
	prefix string
	mode   chaseMode
}{
	{"CHECKING SUMMARY", chaseSummary},
	{"DEPOSITS AND ADDITIONS", chaseDeposits},
	{"CHECKS PAID", chaseChecks},
	{"ATM & DEBIT CARD SUMMARY", chaseCardSummary},
	{"ATM & DEBIT CARD WITHDRAWALS", chaseCardWithdrawals},
	{"ELECTRONIC WITHDRAWALS", chaseEWithdrawals},
	{"OTHER WITHDRAWALS", chaseOtherWithdrawals},
	{"FEES AND OTHER WITHDRAWALS", chaseFees},
	{"FEES", chaseFees},
	{"DAILY ENDING BALANCE", chaseDailyBalance},
	{"SERVICE CHARGE SUMMARY", chaseServiceCharge},
}

// ChaseParser handles the Chase checking statement layout: a checking
// summary with signed section totals, per-category posting sections,
// and a daily ending balance table.
type ChaseParser struct {
	cfg *config.Custom
}

func NewChaseParser(cfg *config.Custom) *ChaseParser {
	return &ChaseParser{cfg: cfg}
}

func (p *ChaseParser) BankName() string { return "Chase" }

func (p *ChaseParser) Identify(text string) bool {
	return strings.Contains(text, "JPMorgan Chase Bank, N.A.") &&
		strings.Contains(text, "Chase.com")
}

func (p *ChaseParser) Parse(st *statement.Statement) error {
	st.Preamble = chasePreamble(p.cfg)
	st.Renderer = &chaseRenderer{cfg: p.cfg}

	mode := chaseStart
	lines := strings.Split(st.Text, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if m, ok := headerMode(line); ok {
			mode = m
		}

		var err error
		switch mode {
		case chaseSummary:
			err = p.parseSummaryLine(st, line)
		case chaseDeposits:
			err = p.parseDeposit(st, line)
		case chaseChecks:
			err = p.parseCheck(st, line)
		case chaseCardWithdrawals:
			err = p.parseCardWithdrawal(st, line, lines, i)
		case chaseEWithdrawals:
			err = p.parseWithdrawal(st, line, models.CategoryEWithdraw)
		case chaseOtherWithdrawals:
			err = p.parseWithdrawal(st, line, models.CategoryOtherWithdraw)
		case chaseFees:
			err = p.parseWithdrawal(st, line, models.CategoryFees)
		case chaseDailyBalance:
			err = p.parseDailyBalance(st, line, lines, i)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func headerMode(line string) (chaseMode, bool) {
	for _, h := range chaseHeaders {
		if strings.HasPrefix(line, h.prefix) {
			return h.mode, true
		}
	}
	return chaseStart, false
}

// isDataLine reports whether a line opens with the MM/DD token that
// marks a posting row.
func isDataLine(line string) bool {
	return len(line) > 2 && line[2] == '/' && startsWithDate(line)
}

var chaseSummaryLabels = []struct {
	label    string
	section  string
	category models.Category
}{
	{"Deposits and Additions", "DEPOSITS AND ADDITIONS", models.CategoryDeposit},
	{"Checks Paid", "CHECKS PAID", models.CategoryCheck},
	{"ATM & Debit Card Withdrawals", "ATM & DEBIT CARD WITHDRAWALS", models.CategoryATMDebit},
	{"Electronic Withdrawals", "ELECTRONIC WITHDRAWALS", models.CategoryEWithdraw},
	{"Other Withdrawals", "OTHER WITHDRAWALS", models.CategoryOtherWithdraw},
	{"Fees", "FEES", models.CategoryFees},
}

// parseSummaryLine reads one CHECKING SUMMARY row. Withdrawal totals
// print their minus sign as a separate token, so it is re-attached
// before parsing.
func (p *ChaseParser) parseSummaryLine(st *statement.Statement, line string) error {
	amount := func() (money.Money, error) {
		parts := strings.Fields(line)
		last := parts[len(parts)-1]
		if len(parts) > 1 && parts[len(parts)-2] == "-" {
			last = "-" + last
		}
		return money.Parse(last)
	}

	if strings.HasPrefix(line, "Beginning Balance") {
		bal, err := amount()
		if err != nil {
			return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "CHECKING SUMMARY", Line: line}
		}
		st.BeginBalance = bal
		return nil
	}
	if strings.HasPrefix(line, "Ending Balance") {
		bal, err := amount()
		if err != nil {
			return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "CHECKING SUMMARY", Line: line}
		}
		st.EndBalance = bal
		return nil
	}
	for _, s := range chaseSummaryLabels {
		if !strings.HasPrefix(line, s.label) {
			continue
		}
		total, err := amount()
		if err != nil {
			return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "CHECKING SUMMARY", Line: line}
		}
		st.AddSection(&statement.Section{
			Name:         s.section,
			Category:     s.category,
			SummaryTotal: &total,
		})
		return nil
	}
	return nil
}

func (p *ChaseParser) parseDeposit(st *statement.Statement, line string) error {
	if !isDataLine(line) || !strings.ContainsAny(line[len(line)-1:], "0123456789") {
		return nil
	}
	parts := splitColumns(line)
	amt, err := money.Parse(parts[len(parts)-1])
	if err != nil {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "DEPOSITS AND ADDITIONS", Line: line}
	}
	date, ok := resolveToken(st, parts[0])
	if !ok {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "DEPOSITS AND ADDITIONS", Line: line}
	}

	tx := models.TransactionRecord{
		Category: models.CategoryDeposit,
		Date:     date,
		Amount:   amt,
	}
	switch len(parts) {
	case 4:
		tx.Type = parts[1]
		tx.Note = parts[2]
		// A leading date in the note is the transaction date as
		// opposed to the posting date.
		if second, ok := secondaryDate(st, date, tx.Note); ok {
			tx.SecondaryDate = second
		}
	case 3:
		tx.Type = parts[1]
	}
	st.Append(tx)
	return nil
}

func (p *ChaseParser) parseCheck(st *statement.Statement, line string) error {
	m := chaseCheckRx.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	num, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	amt, err := money.Parse(m[5])
	if err != nil {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "CHECKS PAID", Line: line}
	}
	date, ok := resolveToken(st, m[4])
	if !ok {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "CHECKS PAID", Line: line}
	}
	st.Append(models.TransactionRecord{
		Category:    models.CategoryCheck,
		Date:        date,
		Amount:      amt.Neg(),
		Note:        strings.TrimSpace(m[3]),
		Type:        strings.TrimSpace(m[2]),
		CheckNumber: num,
	})
	return nil
}

// parseCardWithdrawal reads one ATM & DEBIT CARD WITHDRAWALS row and
// resolves the cardholder from the card's last four digits. Text
// extraction sometimes pushes a row's data two lines below its date;
// the marker line between them identifies that case.
func (p *ChaseParser) parseCardWithdrawal(st *statement.Statement, line string, lines []string, i int) error {
	if !isDataLine(line) {
		return nil
	}
	parts := splitColumns(line)
	if len(parts) == 1 && i+2 < len(lines) &&
		strings.Contains(lines[i+1], "*end*atm debit withdrawal") {
		parts = splitColumns(line + lines[i+2])
		lines[i+2] = ""
	}

	amt, err := money.Parse(parts[len(parts)-1])
	if err != nil {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "ATM & DEBIT CARD WITHDRAWALS", Line: line}
	}
	date, ok := resolveToken(st, parts[0])
	if !ok {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "ATM & DEBIT CARD WITHDRAWALS", Line: line}
	}

	tx := models.TransactionRecord{
		Category: models.CategoryATMDebit,
		Date:     date,
		Amount:   amt.Neg(),
	}

	switch len(parts) {
	case 3:
		// Type, transaction date, and description share a column.
		loc := chaseInnerDateRx.FindStringIndex(parts[1])
		if loc == nil {
			return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "ATM & DEBIT CARD WITHDRAWALS", Line: line}
		}
		token := parts[1][loc[0]:loc[1]]
		if second, ok := secondaryDate(st, date, token); ok {
			tx.SecondaryDate = second
		}
		tx.Type = strings.TrimSpace(parts[1][:loc[0]])
		tx.Note = strings.TrimSpace(parts[1][loc[1]:])
	case 4:
		tx.Type = parts[1]
		tx.Note = parts[2]
	case 5, 6:
		tx.Type = parts[1]
		desc := parts[3]
		if len(parts) == 6 {
			desc += parts[4]
		}
		if second, ok := secondaryDate(st, date, parts[2]); ok {
			tx.SecondaryDate = second
			tx.Note = stripDateToken(parts[2]) + " " + desc
		} else if len(parts[2]) > 2 && parts[2][2] == '/' {
			tx.Note = stripDateToken(parts[2]) + " " + desc
		} else {
			tx.Note = parts[2] + " " + desc
		}
	default:
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "ATM & DEBIT CARD WITHDRAWALS", Line: line}
	}

	if second, ok := secondaryDate(st, date, tx.Note); ok {
		tx.SecondaryDate = second
		tx.Note = stripDateToken(tx.Note)
	} else if len(tx.Note) > 2 && tx.Note[2] == '/' {
		tx.Note = stripDateToken(tx.Note)
	}
	tx.Note = strings.TrimSpace(tx.Note)

	holder, ok := p.cfg.Holder(lastFour(tx.Note))
	if !ok {
		return &statement.AttributionError{SourceFile: st.SourceFile, Note: tx.Note}
	}
	tx.Cardholder = holder

	st.Append(tx)
	return nil
}

func (p *ChaseParser) parseWithdrawal(st *statement.Statement, line string, cat models.Category) error {
	if !isDataLine(line) {
		return nil
	}
	parts := splitColumns(line)
	if len(parts) < 2 {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: string(cat), Line: line}
	}
	amt, err := money.Parse(parts[len(parts)-1])
	if err != nil {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: string(cat), Line: line}
	}
	date, ok := resolveToken(st, parts[0])
	if !ok {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: string(cat), Line: line}
	}

	tx := models.TransactionRecord{
		Category: cat,
		Date:     date,
		Amount:   amt.Neg(),
		Note:     strings.Join(parts[1:len(parts)-1], " "),
	}
	if second, ok := secondaryDate(st, date, tx.Note); ok {
		tx.SecondaryDate = second
		tx.Note = stripDateToken(tx.Note)
	} else if len(tx.Note) > 2 && tx.Note[2] == '/' {
		tx.Note = stripDateToken(tx.Note)
	}
	st.Append(tx)
	return nil
}

// parseDailyBalance reads DAILY ENDING BALANCE rows, which hold one or
// more date/balance pairs. The same extraction quirk as card
// withdrawals applies.
func (p *ChaseParser) parseDailyBalance(st *statement.Statement, line string, lines []string, i int) error {
	if !isDataLine(line) {
		return nil
	}
	parts := strings.Fields(line)
	if len(parts) == 1 && i+2 < len(lines) &&
		strings.Contains(lines[i+1], "*end*daily ending balance2") {
		parts = strings.Fields(line + lines[i+2])
		lines[i+2] = ""
	}
	if len(parts)%2 != 0 {
		return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "DAILY ENDING BALANCE", Line: line}
	}
	for j := 0; j < len(parts); j += 2 {
		date, ok := resolveToken(st, parts[j])
		if !ok {
			return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "DAILY ENDING BALANCE", Line: line}
		}
		amt, err := money.Parse(parts[j+1])
		if err != nil {
			return &statement.UnparseableLineError{SourceFile: st.SourceFile, Section: "DAILY ENDING BALANCE", Line: line}
		}
		st.DailyBalance[date] = amt
	}
	return nil
}

// secondaryDate checks whether s opens with an MM/DD token naming a
// different date than the posting date.
func secondaryDate(st *statement.Statement, posted time.Time, s string) (*time.Time, bool) {
	if len(s) < 5 || s[2] != '/' {
		return nil, false
	}
	m, d, ok := parseMMDD(s[:5])
	if !ok {
		return nil, false
	}
	resolved := st.ResolveDate(m, d)
	if resolved.Equal(posted) {
		return nil, false
	}
	return &resolved, true
}

// chasePreamble emits the ledger file header. When cardholders are
// configured, postings are shared between them via the share_postings
// plugin.
func chasePreamble(cfg *config.Custom) string {
	pre := ";; -*- mode: org; mode: beancount; -*-\n"
	names := holderNames(cfg)
	if len(names) > 0 {
		pre += "plugin \"plugins.share_postings\" \"" + strings.Join(names, " ") + "\"\n\n"
	}
	return pre
}

func holderNames(cfg *config.Custom) []string {
	names := make([]string, 0, len(cfg.Cardholders))
	for name := range cfg.Cardholders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// chaseRenderer emits beancount entries for the Chase category set.
// Shared accounts carry every cardholder as a subaccount chain; card
// withdrawals post to the attributed holder's subaccount instead.
type chaseRenderer struct {
	cfg *config.Custom
}

func (r *chaseRenderer) Render(tx models.TransactionRecord) (string, error) {
	suffix := ""
	if names := holderNames(r.cfg); len(names) > 0 {
		suffix = ":" + strings.Join(names, ":")
	}

	v := entryVals{
		Date:     tx.Date,
		Comment:  tx.Note,
		Account:  r.cfg.Accounts.Debit + suffix,
		Account2: r.cfg.Accounts.Credit + suffix,
		Amount:   tx.Amount,
	}

	switch tx.Category {
	case models.CategoryFees:
		v.Payee = "Chase Bank"
		v.Narration = "Bank Fees"
	case models.CategoryCheck:
		v.Narration = "Check Paid"
	case models.CategoryDeposit:
		v.Narration = "Deposit"
		v.Account2 = "Income" + suffix
	case models.CategoryATMDebit:
		v.Narration = "ATM/Debit Card"
		v.Split = tx.Cardholder
		applyCommentRules(r.cfg, &v)
		v.Account = r.cfg.Accounts.Debit + ":" + v.Split
		v.Account2 = r.cfg.Accounts.Credit + ":" + v.Split
	case models.CategoryEWithdraw:
		v.Narration = "E-Withdraw"
	case models.CategoryOtherWithdraw:
		v.Narration = "Other-Withdraw"
	default:
		return "", &statement.UnknownCategoryError{Category: string(tx.Category), Date: tx.Date}
	}

	v.Meta = []metaField{
		{"cardholder", tx.Cardholder},
		{"category", string(tx.Category)},
		{"code", checkCode(tx.CheckNumber)},
		{"comment", v.Comment},
	}
	return renderEntry(v), nil
}
