package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const customYAML = `accounts:
  debit: Assets:Checking
  credit: Expenses
  other:
    - Income
cardholders:
  Karl: ["2238", "7681"]
  James: ["9743", "5071", "4082"]
comment:
  - match: "Amazon Web Services"
    payee: AWS
    tags: [cloud]
  - match: '^Lyft \*Ride'
    payee: Lyft
  - match: "Refund"
    narration: "One-off refund"
    dates: ["2024-03-02"]
`

func writeCustom(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCustom(t *testing.T) {
	c, err := LoadCustom(writeCustom(t, customYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Accounts.Debit != "Assets:Checking" {
		t.Errorf("debit account: got %q", c.Accounts.Debit)
	}
	if len(c.Accounts.Other) != 1 || c.Accounts.Other[0] != "Income" {
		t.Errorf("other accounts: got %v", c.Accounts.Other)
	}

	holder, ok := c.Holder("4082")
	if !ok || holder != "James" {
		t.Errorf("Holder(4082): got %q, %v", holder, ok)
	}
	if _, ok := c.Holder("0000"); ok {
		t.Error("Holder(0000) should not resolve")
	}
}

func TestLoadCustomMissingFile(t *testing.T) {
	c, err := LoadCustom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults, got error: %v", err)
	}
	if c.Accounts.Debit != "Assets:Checking" || c.Accounts.Credit != "Expenses" {
		t.Errorf("defaults: got %+v", c.Accounts)
	}
}

func TestMatchComment(t *testing.T) {
	c, err := LoadCustom(writeCustom(t, customYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// Literal substring match
	hits := c.MatchComment("Amazon Web Services Aws.Amazon.CO", day)
	if len(hits) != 1 || hits[0].Payee != "AWS" {
		t.Fatalf("literal rule: got %d hits", len(hits))
	}

	// Regex match (anchored)
	if hits := c.MatchComment("Lyft *Ride Tue 4pm", day); len(hits) != 1 {
		t.Errorf("regex rule should match at start: got %d hits", len(hits))
	}
	if hits := c.MatchComment("Not Lyft *Ride", day); len(hits) != 0 {
		t.Errorf("anchored regex should not match mid-string: got %d hits", len(hits))
	}

	// Date-scoped rule only fires on its date
	if hits := c.MatchComment("Refund issued", day); len(hits) != 0 {
		t.Errorf("date-scoped rule fired on wrong day")
	}
	onDay := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	if hits := c.MatchComment("Refund issued", onDay); len(hits) != 1 {
		t.Errorf("date-scoped rule did not fire on its day")
	}
}

func TestLoadReconcileDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `accounts:
  - name: statements
    ledger_file: statements/all.ledger
    ledger_accounts: [Assets:Checking]
  - name: books
    ledger_file: books/main.ledger
    ledger_accounts: [Assets:Checking, Assets:Savings]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadReconcile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.QueryCommand != "bean-query" || c.CheckCommand != "bean-check" {
		t.Errorf("command defaults: got %q, %q", c.QueryCommand, c.CheckCommand)
	}

	acct, ok := c.Account("books")
	if !ok {
		t.Fatal("Account(books) not found")
	}
	if len(acct.LedgerAccounts) != 2 {
		t.Errorf("ledger accounts: got %v", acct.LedgerAccounts)
	}
	if _, ok := c.Account("missing"); ok {
		t.Error("Account(missing) should not resolve")
	}
}
