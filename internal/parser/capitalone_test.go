package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/statement"
)

const capOneFixture = `         1234 5678 9012 3456    Platinum MasterCard Account

                    Payment Information                          Account Summary
         New Balance            Minimum Payment Due              Previous Balance             $500.00
         $618.00                $25.00                           Payments                   - $200.00
                                                                 Other Credits              - $30.00
         Payment Due Date                                        Transactions               + $300.00
                                                                 Cash Advances              + $0.00
         Feb 18, 2019                                            Fees Charged               + $35.00
                                                                 Interest Charged           + $13.00
                                                                 New Balance                = $618.00
                                                                 Credit Limit                 $2,000.00
                                                                 Available Credit             $1,382.00
                                                                 Available Credit for Cash    $1,382.00

       Transactions
         Trans Date   Description                        Amount

         Jan 3    AMAZON MKTPLACE PMTS      $120.00                     Jan 17   WHOLEFDS MKT 10245        $95.00
           AMZN.COM/BILL WA                                               AUSTIN TX
         Jan 9    SHELL OIL 5744            $52.00                      Jan 22   CREDIT ADJUSTMENT        -$30.00
         Jan 12   PAST DUE FEE              $35.00                      Jan 25   CHIPOTLE 1338             $33.00

    Interest Charge Calculation
`

func capOneTestConfig() *config.Custom {
	return &config.Custom{
		Accounts: config.Accounts{Debit: "Expenses:CapitalOne", Credit: "Liabilities:CapitalOne"},
	}
}

func TestCapitalOneParser_Identify(t *testing.T) {
	p := NewCapitalOneParser(capOneTestConfig())

	if !p.Identify(capOneFixture) {
		t.Error("Identify: got false, want true for Capital One statement")
	}
	if p.Identify("Some Unknown Bank\nStatement") {
		t.Error("Identify: got true, want false")
	}
}

func TestCapitalOneParser_Parse(t *testing.T) {
	st, err := statement.New("2019_01.txt", capOneFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := NewCapitalOneParser(capOneTestConfig())
	if err := p.Parse(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(st.Transactions) != 6 {
		t.Fatalf("transactions: got %d, want 6", len(st.Transactions))
	}

	// Postings come out row by row, left column then right. The
	// description continues on the facing half of the next line.
	txn := st.Transactions[0]
	if txn.Category != models.CategoryTransactions {
		t.Errorf("txn[0].Category: got %q, want %q", txn.Category, models.CategoryTransactions)
	}
	if got, want := txn.Date.Format("2006-01-02"), "2019-01-03"; got != want {
		t.Errorf("txn[0].Date: got %s, want %s", got, want)
	}
	if got, want := txn.Note, "AMAZON MKTPLACE PMTS AMZN.COM/BILL WA"; got != want {
		t.Errorf("txn[0].Note: got %q, want %q", got, want)
	}
	if got, want := txn.Amount.Format(), "120.00"; got != want {
		t.Errorf("txn[0].Amount: got %s, want %s", got, want)
	}

	txn = st.Transactions[1]
	if got, want := txn.Note, "WHOLEFDS MKT 10245 AUSTIN TX"; got != want {
		t.Errorf("txn[1].Note: got %q, want %q", got, want)
	}

	// A negative amount is a credit.
	txn = st.Transactions[3]
	if txn.Category != models.CategoryCredits {
		t.Errorf("txn[3].Category: got %q, want %q", txn.Category, models.CategoryCredits)
	}
	if got, want := txn.Amount.Format(), "-30.00"; got != want {
		t.Errorf("txn[3].Amount: got %s, want %s", got, want)
	}
	if got, want := txn.Note, "CREDIT ADJUSTMENT"; got != want {
		t.Errorf("txn[3].Note: got %q, want %q", got, want)
	}

	txn = st.Transactions[4]
	if txn.Category != models.CategoryCardFees {
		t.Errorf("txn[4].Category: got %q, want %q", txn.Category, models.CategoryCardFees)
	}

	sec := st.Sections["Transactions"]
	if sec == nil {
		t.Fatal("missing Transactions section")
	}
	if got, want := sec.SummaryTotal.Format(), "300.00"; got != want {
		t.Errorf("transactions summary total: got %s, want %s", got, want)
	}

	if got, want := st.EndBalance.Format(), "305.00"; got != want {
		t.Errorf("end balance: got %s, want %s", got, want)
	}

	if err := st.Validate(); err != nil {
		t.Errorf("Validate: unexpected error: %v", err)
	}
}

func TestCapitalOneParser_AccountSummary(t *testing.T) {
	st, err := statement.New("2019_01.txt", capOneFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := NewCapitalOneParser(capOneTestConfig())
	summary, err := p.parseAccountSummary(st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for key, want := range map[string]string{
		"Previous Balance": "500.00",
		"Payments":         "200.00",
		"Other Credits":    "30.00",
		"Transactions":     "300.00",
		"Cash Advances":    "0.00",
		"Fees Charged":     "35.00",
		"Interest Charged": "13.00",
		"New Balance":      "618.00",
		"Credit Limit":     "2000.00",
	} {
		got, err := summary.amount(st, key)
		if err != nil {
			t.Errorf("%s: %v", key, err)
			continue
		}
		if got.Format() != want {
			t.Errorf("%s: got %s, want %s", key, got.Format(), want)
		}
	}

	if got, want := summary.newBalanceLeft.Format(), "618.00"; got != want {
		t.Errorf("new balance left: got %s, want %s", got, want)
	}
	if got, want := summary.minimumDue.Format(), "25.00"; got != want {
		t.Errorf("minimum payment due: got %s, want %s", got, want)
	}
	if got, want := summary.dueDate.Format("2006-01-02"), "2019-02-18"; got != want {
		t.Errorf("payment due date: got %s, want %s", got, want)
	}
}

func TestCapitalOneParser_SummaryMismatch(t *testing.T) {
	text := strings.Replace(capOneFixture, "New Balance                = $618.00", "New Balance                = $620.00", 1)
	st, err := statement.New("2019_01.txt", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := NewCapitalOneParser(capOneTestConfig())
	err = p.Parse(st)
	if err == nil {
		t.Fatal("Parse: expected error for summary mismatch, got nil")
	}
	var inv *statement.InvariantViolationError
	if !errors.As(err, &inv) {
		t.Fatalf("Parse: got %T, want *statement.InvariantViolationError", err)
	}
}

func TestCapitalOneParser_Render(t *testing.T) {
	st, err := statement.New("2019_01.txt", capOneFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := NewCapitalOneParser(capOneTestConfig())
	if err := p.Parse(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := st.Renderer.Render(st.Transactions[2])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `2019-01-09 txn "" "SHELL OIL 5744"
   category: "Transactions"
   comment: "SHELL OIL 5744"
   Expenses:CapitalOne            52.00 USD
   Liabilities:CapitalOne

`
	if got != want {
		t.Errorf("card entry:\ngot:\n%s\nwant:\n%s", got, want)
	}

	_, err = st.Renderer.Render(models.TransactionRecord{Category: "Cash Advance", Date: st.Transactions[0].Date})
	var unk *statement.UnknownCategoryError
	if !errors.As(err, &unk) {
		t.Fatalf("Render: got %v, want *statement.UnknownCategoryError", err)
	}
}
