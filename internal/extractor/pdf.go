// Package extractor turns a PDF statement into layout-preserving text.
// Column alignment matters downstream, so the external pdftotext
// -layout renderer is preferred and the pure-Go library is the
// fallback for hosts without poppler-utils.
package extractor

import (
	"io"
	"math"
	"os/exec"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// Extract returns the full text of a PDF statement, pages joined by a
// blank line. Garbage output from broken font encodings is rejected
// rather than passed downstream.
func Extract(filePath string) (string, error) {
	text, layoutErr := extractWithPdftotext(filePath)
	if layoutErr == nil && isReadable(text) {
		return text, nil
	}

	text, libErr := extractWithLibrary(filePath)
	if libErr == nil && isReadable(text) {
		return text, nil
	}

	if libErr != nil {
		return "", errors.Wrap(libErr, "PDF text extraction failed; the file may be image-based or use custom font encodings")
	}
	return "", errors.New("no readable text could be extracted from PDF; the file may be image-based or use custom font encodings")
}

func extractWithPdftotext(filePath string) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", errors.Wrap(err, "pdftotext not available")
	}
	out, err := exec.Command("pdftotext", "-layout", filePath, "-").Output()
	if err != nil {
		return "", errors.Wrap(err, "pdftotext failed")
	}
	return string(out), nil
}

func extractWithLibrary(filePath string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return "", errors.New("PDF has no pages")
	}

	// Coordinate reconstruction keeps column gaps the row-based
	// readers collapse.
	pages := extractByCoordinates(r, numPages)
	if isReadable(strings.Join(pages, "\n\n")) {
		return strings.Join(pages, "\n\n"), nil
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// extractByCoordinates groups text objects by Y coordinate into rows,
// orders each row by X, and widens large horizontal gaps into the
// multi-space column separators the statement parsers key on.
func extractByCoordinates(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		type textItem struct {
			x float64
			s string
		}
		rows := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			rows[y] = append(rows[y], textItem{x: t.X, s: t.S})
		}

		// PDF Y runs bottom to top.
		ys := make([]int, 0, len(rows))
		for y := range rows {
			ys = append(ys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		var lines []string
		for _, y := range ys {
			items := rows[y]
			sort.Slice(items, func(a, b int) bool { return items[a].x < items[b].x })

			var b strings.Builder
			var prevEnd float64
			for j, item := range items {
				if j > 0 {
					if item.x-prevEnd > 15 {
						b.WriteString("   ")
					} else {
						b.WriteString(" ")
					}
				}
				b.WriteString(item.s)
				prevEnd = item.x + float64(len(item.s))*4
			}
			lines = append(lines, strings.TrimRight(b.String(), " "))
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// statementWords appear in virtually every bank statement. Extracted
// text containing none of them is treated as garbage.
var statementWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction",
	"deposit", "withdrawal", "beginning", "ending", "period",
}

func isReadable(text string) bool {
	if len(strings.TrimSpace(text)) <= 50 {
		return false
	}
	if textQuality(text) <= 0.6 {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range statementWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// textQuality is the ratio of plain ASCII statement characters to the
// total. Strict ASCII on purpose; identity-encoded font garbage is
// full of accented letters that unicode.IsLetter would accept.
func textQuality(text string) float64 {
	total := 0
	readable := 0
	for _, r := range text {
		total++
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			readable++
		case r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '\f':
			readable++
		case strings.ContainsRune(`.,-/:;()'"$%&@#!?+=*`, r):
			readable++
		case r == '£' || r == '€':
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}
