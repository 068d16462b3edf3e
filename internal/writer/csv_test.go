package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/money"
	"github.com/insightdelivered/statement-reconciler/internal/statement"
)

func testStatement(t *testing.T) *statement.Statement {
	t.Helper()
	st, err := statement.New("2023_04.txt", "")
	if err != nil {
		t.Fatal(err)
	}
	st.Bank = "TD Bank"
	st.Append(models.TransactionRecord{
		Date:     models.Day(2023, 4, 3),
		Category: models.CategoryDeposits,
		Amount:   money.MustParse("500.00"),
		Note:     "DEPOSIT",
	})
	st.Append(models.TransactionRecord{
		Date:        models.Day(2023, 4, 10),
		Category:    models.CategoryChecksPaid,
		Amount:      money.MustParse("-70.00"),
		CheckNumber: 1031,
		Note:        "CHECK PAYMENT",
	})
	return st
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, testStatement(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"# Bank,TD Bank",
		"# Period,2023_04",
		"# Source,2023_04.txt",
		"Date,Category,Check,Cardholder,Amount,Note",
		"2023-04-03,Deposits,,,500.00,DEPOSIT",
		"2023-04-10,Checks Paid,1031,,-70.00,CHECK PAYMENT",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWriteWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	if err := w.Write(&buf, testStatement(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if first != "Date,Category,Check,Cardholder,Amount,Note" {
		t.Errorf("first line = %q, want column header", first)
	}
}
