package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/models"
)

const registerCSV = `id,date,payee,narration,account,position
a1,2023-04-03,,Deposit,Assets:Checking,500.00 USD
b2,2023-04-10,,Check Paid,Assets:Checking,-70.00 USD
b2,2023-04-10,,Check Paid,Assets:Checking:Sub,-5.00 USD
c3,2023-04-10,Acme Corp,Vendor,Assets:Checking,-30.00 USD
d4,2023-04-15,,E-Withdraw,Assets:Checking,-100.00 USD
`

func testAccount() config.ReconcileAccount {
	return config.ReconcileAccount{
		Name:           "checking",
		LedgerFile:     "checking.beancount",
		LedgerAccounts: []string{"Assets:Checking"},
	}
}

func TestParse(t *testing.T) {
	reg, err := Parse(testAccount(), registerCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(reg.Entries) != 4 {
		t.Fatalf("entries: got %d, want 4", len(reg.Entries))
	}

	// Two postings under the same id fold into one entry.
	e := reg.Entries[1]
	if e.ID != "b2" {
		t.Errorf("entries[1].ID: got %q, want %q", e.ID, "b2")
	}
	if len(e.Postings) != 2 {
		t.Errorf("entries[1] postings: got %d, want 2", len(e.Postings))
	}
	if got, want := e.Amount.Format(), "-75.00"; got != want {
		t.Errorf("entries[1].Amount: got %s, want %s", got, want)
	}

	if !e.HitsAccount("Assets:Checking") {
		t.Error("HitsAccount: got false, want true for Assets:Checking")
	}
	if e.HitsAccounts([]string{"Liabilities"}) {
		t.Error("HitsAccounts: got true, want false for Liabilities")
	}
}

func TestRegisterDailies(t *testing.T) {
	reg, err := Parse(testAccount(), registerCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		day  time.Time
		want string
	}{
		{models.Day(2023, 4, 3), "500.00"},
		{models.Day(2023, 4, 10), "395.00"}, // 500 - 75 - 30
		{models.Day(2023, 4, 15), "295.00"},
	}
	for _, c := range cases {
		got, ok := reg.Dailies[c.day]
		if !ok {
			t.Errorf("dailies[%s]: missing", c.day.Format("2006-01-02"))
			continue
		}
		if got.Format() != c.want {
			t.Errorf("dailies[%s]: got %s, want %s", c.day.Format("2006-01-02"), got.Format(), c.want)
		}
	}
	if len(reg.Dailies) != 3 {
		t.Errorf("dailies: got %d days, want 3", len(reg.Dailies))
	}
}

func TestRegisterDateTxs(t *testing.T) {
	reg, err := Parse(testAccount(), registerCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	txs := reg.DateTxs(models.Day(2023, 4, 10))
	if len(txs) != 2 {
		t.Fatalf("date txs: got %d, want 2", len(txs))
	}
	// Amount descending: -30 sorts before -75.
	if got, want := txs[0].Amount.Format(), "-30.00"; got != want {
		t.Errorf("txs[0].Amount: got %s, want %s", got, want)
	}
	if got, want := txs[1].Amount.Format(), "-75.00"; got != want {
		t.Errorf("txs[1].Amount: got %s, want %s", got, want)
	}
}

func TestRegisterQuery(t *testing.T) {
	q := registerQuery([]string{"Assets:Checking", "Assets:Savings"})
	if !strings.Contains(q, "'^(Assets:Checking|Assets:Savings)'") {
		t.Errorf("query missing prefix alternation: %s", q)
	}
}
