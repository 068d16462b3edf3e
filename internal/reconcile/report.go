package reconcile

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/insightdelivered/statement-reconciler/internal/ledger"
)

var (
	headerPaint  = color.New(color.BgBlue, color.FgWhite)
	flaggedPaint = color.New(color.BgRed, color.FgWhite)
	matchPaint   = color.New(color.FgGreen)
	hintPaint    = color.New(color.FgYellow)
)

const colWidth = 66

// Render writes the diff report as a two-column terminal table.
// Unmatched entries are painted for attention; candidate matches from
// the other register print indented under them.
func (rep *Report) Render(w io.Writer) {
	headerPaint.Fprintf(w, " %s  %-*s %-*s ",
		rep.Date.Format("2006-01-02"), colWidth-12, rep.LeftName, colWidth, rep.RightName)
	fmt.Fprintln(w)

	for _, row := range rep.Rows {
		left, right := cell(row.Left), cell(row.Right)
		if row.Matched() {
			matchPaint.Fprintf(w, "%-*s %-*s", colWidth, left, colWidth, right)
			fmt.Fprintln(w)
			continue
		}
		if row.Left != nil {
			flaggedPaint.Fprintf(w, "%-*s", colWidth, left)
			fmt.Fprintf(w, " %-*s\n", colWidth, "")
		} else {
			fmt.Fprintf(w, "%-*s ", colWidth, "")
			flaggedPaint.Fprintf(w, "%-*s", colWidth, right)
			fmt.Fprintln(w)
		}
		if len(row.Candidates) == 0 {
			hintPaint.Fprintf(w, "    no candidate match on or after %s", rep.Date.Format("2006-01-02"))
			fmt.Fprintln(w)
			continue
		}
		for _, c := range row.Candidates {
			hintPaint.Fprintf(w, "    candidate: %s", c.String())
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "%s\n", strings.Repeat("-", colWidth*2+1))
	fmt.Fprintf(w, "%-*s %-*s\n",
		colWidth, "total: "+rep.LeftTotal.Format(),
		colWidth, "total: "+rep.RightTotal.Format())
}

func cell(e *ledger.Entry) string {
	if e == nil {
		return ""
	}
	s := e.String()
	if len(s) > colWidth {
		s = s[:colWidth]
	}
	return s
}
