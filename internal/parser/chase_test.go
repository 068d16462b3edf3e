package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/statement"
)

const chaseFixture = `JPMorgan Chase Bank, N.A.
Questions? Visit Chase.com

CHECKING SUMMARY
Beginning Balance                             $2,000.00
Deposits and Additions                         1,000.00
Checks Paid                               -      150.00
ATM & Debit Card Withdrawals              -      200.00
Electronic Withdrawals                    -      100.00
Fees                                      -       25.00
Ending Balance                                $2,525.00

DEPOSITS AND ADDITIONS
DATE         DESCRIPTION                                    AMOUNT
05/02        Remote Online Deposit                        1,000.00

CHECKS PAID
CHECK NO.    DESCRIPTION          DATE PAID                 AMOUNT
1234         ^                    05/10                     150.00

ATM & DEBIT CARD WITHDRAWALS
DATE    DESCRIPTION                                         AMOUNT
05/12   Card Purchase        05/11 Coffee Shop Card 4082      60.00
05/15   ATM Withdrawal       05/15 Main St Branch Card 2238   140.00

ELECTRONIC WITHDRAWALS
DATE         DESCRIPTION                                    AMOUNT
05/20        Online Payment To Electric Co                   100.00

FEES
DATE         DESCRIPTION                                    AMOUNT
05/25        Monthly Service Fee                              25.00

DAILY ENDING BALANCE
DATE             AMOUNT            DATE              AMOUNT
05/02            3,000.00          05/10             2,850.00
05/12            2,790.00          05/15             2,650.00
05/20            2,550.00          05/25             2,525.00

SERVICE CHARGE SUMMARY
Monthly Service Fee                                           25.00
`

func chaseTestConfig() *config.Custom {
	return &config.Custom{
		Accounts: config.Accounts{Debit: "Assets:Chase", Credit: "Expenses:Shared"},
		Cardholders: map[string][]string{
			"James": {"9743", "5071", "4082"},
			"Karl":  {"2238", "7681"},
		},
	}
}

func TestChaseParser_Identify(t *testing.T) {
	p := NewChaseParser(chaseTestConfig())

	if !p.Identify(chaseFixture) {
		t.Error("Identify: got false, want true for Chase statement")
	}
	if p.Identify("JPMorgan Chase Bank, N.A. only") {
		t.Error("Identify: got true, want false without Chase.com marker")
	}
}

func TestChaseParser_Parse(t *testing.T) {
	st, err := statement.New("2023_05.txt", chaseFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := NewChaseParser(chaseTestConfig())
	if err := p.Parse(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := st.BeginBalance.Format(), "2000.00"; got != want {
		t.Errorf("begin balance: got %s, want %s", got, want)
	}
	if got, want := st.EndBalance.Format(), "2525.00"; got != want {
		t.Errorf("end balance: got %s, want %s", got, want)
	}

	if len(st.Transactions) != 6 {
		t.Fatalf("transactions: got %d, want 6", len(st.Transactions))
	}

	txn := st.Transactions[0]
	if txn.Category != models.CategoryDeposit {
		t.Errorf("txn[0].Category: got %q, want %q", txn.Category, models.CategoryDeposit)
	}
	if got, want := txn.Amount.Format(), "1000.00"; got != want {
		t.Errorf("txn[0].Amount: got %s, want %s", got, want)
	}
	if txn.Type != "Remote Online Deposit" {
		t.Errorf("txn[0].Type: got %q, want %q", txn.Type, "Remote Online Deposit")
	}

	txn = st.Transactions[1]
	if txn.Category != models.CategoryCheck {
		t.Errorf("txn[1].Category: got %q, want %q", txn.Category, models.CategoryCheck)
	}
	if txn.CheckNumber != 1234 {
		t.Errorf("txn[1].CheckNumber: got %d, want 1234", txn.CheckNumber)
	}
	if got, want := txn.Amount.Format(), "-150.00"; got != want {
		t.Errorf("txn[1].Amount: got %s, want %s", got, want)
	}

	// Card purchase: transaction date differs from posting date and
	// the cardholder comes from the card's last four digits.
	txn = st.Transactions[2]
	if txn.Cardholder != "James" {
		t.Errorf("txn[2].Cardholder: got %q, want %q", txn.Cardholder, "James")
	}
	if txn.SecondaryDate == nil {
		t.Fatal("txn[2].SecondaryDate: got nil, want 05/11")
	}
	if got, want := txn.SecondaryDate.Format("2006-01-02"), "2023-05-11"; got != want {
		t.Errorf("txn[2].SecondaryDate: got %s, want %s", got, want)
	}
	if got, want := txn.Note, "Coffee Shop Card 4082"; got != want {
		t.Errorf("txn[2].Note: got %q, want %q", got, want)
	}

	// Same transaction and posting date: no secondary date.
	txn = st.Transactions[3]
	if txn.Cardholder != "Karl" {
		t.Errorf("txn[3].Cardholder: got %q, want %q", txn.Cardholder, "Karl")
	}
	if txn.SecondaryDate != nil {
		t.Errorf("txn[3].SecondaryDate: got %v, want nil", txn.SecondaryDate)
	}
	if got, want := txn.Note, "Main St Branch Card 2238"; got != want {
		t.Errorf("txn[3].Note: got %q, want %q", got, want)
	}

	txn = st.Transactions[5]
	if txn.Category != models.CategoryFees {
		t.Errorf("txn[5].Category: got %q, want %q", txn.Category, models.CategoryFees)
	}
	if got, want := txn.Amount.Format(), "-25.00"; got != want {
		t.Errorf("txn[5].Amount: got %s, want %s", got, want)
	}

	if len(st.DailyBalance) != 6 {
		t.Fatalf("daily balances: got %d, want 6", len(st.DailyBalance))
	}
	if got, want := st.DailyBalance[models.Day(2023, 5, 15)].Format(), "2650.00"; got != want {
		t.Errorf("daily balance 05/15: got %s, want %s", got, want)
	}

	if len(st.Sections) != 5 {
		t.Errorf("sections: got %d, want 5", len(st.Sections))
	}
	sec := st.Sections["ATM & DEBIT CARD WITHDRAWALS"]
	if sec == nil {
		t.Fatal("missing ATM & DEBIT CARD WITHDRAWALS section")
	}
	if got, want := sec.SummaryTotal.Format(), "-200.00"; got != want {
		t.Errorf("card withdrawals summary total: got %s, want %s", got, want)
	}

	if err := st.Validate(); err != nil {
		t.Errorf("Validate: unexpected error: %v", err)
	}

	if !strings.Contains(st.Preamble, `plugin "plugins.share_postings" "James Karl"`) {
		t.Errorf("preamble missing share_postings plugin:\n%s", st.Preamble)
	}
}

func TestChaseParser_UnknownCardholder(t *testing.T) {
	text := strings.Replace(chaseFixture, "Card 2238", "Card 9999", 1)
	st, err := statement.New("2023_05.txt", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := NewChaseParser(chaseTestConfig())
	err = p.Parse(st)
	if err == nil {
		t.Fatal("Parse: expected error for unknown cardholder, got nil")
	}
	var attr *statement.AttributionError
	if !errors.As(err, &attr) {
		t.Fatalf("Parse: got %T, want *statement.AttributionError", err)
	}
}

func TestChaseParser_ShortSlashNote(t *testing.T) {
	// A description token can carry a slash in third position without
	// being a date ("AB/Z"). Such a token is dropped like a date
	// prefix, never sliced past its end.
	const text = `JPMorgan Chase Bank, N.A.
Questions? Visit Chase.com

ATM & DEBIT CARD WITHDRAWALS
DATE    DESCRIPTION                                         AMOUNT
05/12   Card Purchase        AB/Z  Coffee Shop Card 4082      60.00

ELECTRONIC WITHDRAWALS
DATE         DESCRIPTION                                    AMOUNT
12/05        AB/Z                                             45.00
`
	st, err := statement.New("2023_05.txt", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := NewChaseParser(chaseTestConfig())
	if err := p.Parse(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.Transactions) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(st.Transactions))
	}

	txn := st.Transactions[0]
	if got, want := txn.Note, "Coffee Shop Card 4082"; got != want {
		t.Errorf("txn[0].Note: got %q, want %q", got, want)
	}
	if txn.Cardholder != "James" {
		t.Errorf("txn[0].Cardholder: got %q, want %q", txn.Cardholder, "James")
	}

	txn = st.Transactions[1]
	if txn.Category != models.CategoryEWithdraw {
		t.Errorf("txn[1].Category: got %q, want %q", txn.Category, models.CategoryEWithdraw)
	}
	if txn.Note != "" {
		t.Errorf("txn[1].Note: got %q, want %q", txn.Note, "")
	}
	if got, want := txn.Amount.Format(), "-45.00"; got != want {
		t.Errorf("txn[1].Amount: got %s, want %s", got, want)
	}
}

func TestChaseParser_Render(t *testing.T) {
	st, err := statement.New("2023_05.txt", chaseFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := chaseTestConfig()
	cfg.Comment = []config.CommentRule{
		{Match: "Coffee Shop", Split: "Karl", Tags: []string{"coffee"}},
	}
	p := NewChaseParser(cfg)
	if err := p.Parse(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Deposits post to the shared income account.
	got, err := st.Renderer.Render(st.Transactions[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `2023-05-02 txn "" "Deposit"
   category: "DEPOSIT"
   Assets:Chase:James:Karl            1000.00 USD
   Income:James:Karl

`
	if got != want {
		t.Errorf("deposit entry:\ngot:\n%s\nwant:\n%s", got, want)
	}

	// A split rule reassigns the card expense to another holder's
	// subaccounts.
	got, err = st.Renderer.Render(st.Transactions[2])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = `2023-05-12 txn "" "ATM/Debit Card" #coffee
   cardholder: "James"
   category: "ATM/DEBIT"
   comment: "Coffee Shop Card 4082"
   Assets:Chase:Karl            -60.00 USD
   Expenses:Shared:Karl

`
	if got != want {
		t.Errorf("card entry:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
