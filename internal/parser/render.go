package parser

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/money"
)

// metaField is one key/value pair attached to a rendered entry as
// metadata, in a fixed emission order.
type metaField struct {
	Key   string
	Value string
}

// entryVals collects everything a ledger entry interpolates. The
// institution renderers fill one in per transaction, run the comment
// rules over it, and hand it to renderEntry.
type entryVals struct {
	Date      time.Time
	Payee     string
	Narration string
	Comment   string
	Split     string
	Tags      []string
	Meta      []metaField
	Account   string
	Account2  string
	Amount    money.Money
}

// applyCommentRules rewrites v according to the configured comment
// rules that match its comment on its date. Later rules win for
// scalar fields; tags accumulate; a rule's comment is prepended to
// the existing one.
func applyCommentRules(cfg *config.Custom, v *entryVals) {
	for _, rule := range cfg.MatchComment(v.Comment, v.Date) {
		if rule.Payee != "" {
			v.Payee = rule.Payee
		}
		if rule.Narration != "" {
			v.Narration = rule.Narration
		}
		if rule.Comment != "" {
			v.Comment = rule.Comment + "\n             " + v.Comment
		}
		if rule.Split != "" {
			v.Split = rule.Split
		}
		v.Tags = append(v.Tags, rule.Tags...)
	}
}

// renderEntry interpolates one ledger entry. Metadata lines come out
// in the order the renderer added them; tags are sorted so repeated
// runs emit identical text.
func renderEntry(v entryVals) string {
	tags := ""
	if len(v.Tags) > 0 {
		uniq := dedupe(v.Tags)
		sort.Strings(uniq)
		tags = " #" + strings.Join(uniq, " #")
	}

	var meta strings.Builder
	for _, f := range v.Meta {
		if f.Value == "" {
			continue
		}
		fmt.Fprintf(&meta, "   %s: \"%s\"\n", f.Key, f.Value)
	}

	return fmt.Sprintf("%s txn \"%s\" \"%s\"%s\n%s   %s            %s %s\n   %s\n\n",
		v.Date.Format("2006-01-02"), v.Payee, v.Narration, tags,
		meta.String(),
		v.Account, v.Amount.Format(), v.Amount.Currency,
		v.Account2)
}

func dedupe(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	var out []string
	for _, s := range ss {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
