// Package writer exports parsed statements as CSV for spreadsheet
// review alongside the ledger output.
package writer

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/insightdelivered/statement-reconciler/internal/statement"
)

// CSVWriter writes a parsed statement's transactions as CSV rows.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the statement to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, st *statement.Statement) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	return w.Write(f, st)
}

// Write writes the statement in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, st *statement.Statement) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	if w.IncludeHeader {
		if st.Bank != "" {
			writer.Write([]string{"# Bank", st.Bank})
		}
		writer.Write([]string{"# Period", st.PeriodKey()})
		writer.Write([]string{"# Source", st.SourceFile})
	}

	header := []string{"Date", "Category", "Check", "Cardholder", "Amount", "Note"}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}

	for _, tx := range st.Transactions {
		check := ""
		if tx.CheckNumber != 0 {
			check = strconv.Itoa(tx.CheckNumber)
		}
		row := []string{
			tx.Date.Format("2006-01-02"),
			string(tx.Category),
			check,
			tx.Cardholder,
			tx.Amount.Format(),
			tx.Note,
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, "writing CSV row")
		}
	}

	return writer.Error()
}
