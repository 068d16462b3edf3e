package parser

import (
	"encoding/csv"
	"strings"
	"time"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/money"
	"github.com/insightdelivered/statement-reconciler/internal/statement"
)

// AAdvantageParser handles the CSV export of the Barclays AAdvantage
// card site. Rows are date, description, debit/credit, signed amount,
// preceded by a few lines of account boilerplate. The export carries
// no balances or subtotals to cross-foot, so the ending balance is
// defined as the sum of the rows.
type AAdvantageParser struct {
	cfg *config.Custom
}

func NewAAdvantageParser(cfg *config.Custom) *AAdvantageParser {
	return &AAdvantageParser{cfg: cfg}
}

func (p *AAdvantageParser) BankName() string { return "Barclays AAdvantage Card" }

func (p *AAdvantageParser) Identify(text string) bool {
	return strings.HasPrefix(text, "Barclays Bank Delaware")
}

func (p *AAdvantageParser) Parse(st *statement.Statement) error {
	st.Preamble = ";; -*- mode: org; mode: beancount; -*-\n"
	st.Renderer = &aaRenderer{cfg: p.cfg}

	reader := csv.NewReader(strings.NewReader(st.Text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return &statement.UnparseableLineError{
			SourceFile: st.SourceFile, Section: "csv", Line: err.Error(),
		}
	}

	for _, rec := range records {
		if len(rec) != 4 {
			continue
		}
		date, err := time.Parse("01/02/2006", strings.TrimSpace(rec[0]))
		if err != nil {
			// Boilerplate above the transaction rows.
			continue
		}
		amt, err := money.Parse(rec[3])
		if err != nil {
			return &statement.UnparseableLineError{
				SourceFile: st.SourceFile, Section: "csv", Line: strings.Join(rec, ","),
			}
		}
		st.Append(models.TransactionRecord{
			Category: models.Category(strings.ToLower(rec[2])),
			Date:     models.DayOf(date),
			Amount:   amt,
			Note:     collapseSpaces(rec[1]),
		})
	}

	st.EndBalance = st.Sum("")
	return nil
}

// aaRenderer emits beancount entries for the card's debit/credit rows.
type aaRenderer struct {
	cfg *config.Custom
}

func (r *aaRenderer) Render(tx models.TransactionRecord) (string, error) {
	if tx.Category != models.CategoryCardDebit && tx.Category != models.CategoryCardCredit {
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
		{"comment", v.Comment},
	}
	return renderEntry(v), nil
}
