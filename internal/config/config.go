// Package config loads the externally supplied customization data:
// ledger account names, the cardholder last-4 table, comment rewrite
// rules, and the account pairs used for reconciliation.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Accounts names the ledger accounts a statement's entries post to.
type Accounts struct {
	Debit  string   `yaml:"debit"`
	Credit string   `yaml:"credit"`
	Other  []string `yaml:"other"`
}

// CommentRule rewrites rendered transactions whose comment matches.
// Match is treated as a literal substring when it contains only plain
// text characters, and as a regular expression otherwise.
type CommentRule struct {
	Match     string   `yaml:"match"`
	Payee     string   `yaml:"payee"`
	Narration string   `yaml:"narration"`
	Comment   string   `yaml:"comment"`
	Split     string   `yaml:"split"` // reassign a card expense to this person
	Tags      []string `yaml:"tags"`
	Dates     []string `yaml:"dates"` // restrict the rule to these YYYY-MM-DD dates

	re *regexp.Regexp
}

// Custom is the per-statement-directory customization, one per
// institution directory (custom.yaml).
type Custom struct {
	Accounts    Accounts            `yaml:"accounts"`
	Cardholders map[string][]string `yaml:"cardholders"`
	Comment     []CommentRule       `yaml:"comment"`
}

// literalPattern decides whether a rule match is a dumb string rather
// than a regex, mirroring how rules are written in practice.
var literalPattern = regexp.MustCompile(`^[A-Za-z0-9-/_, ]+$`)

// DefaultCustom is used when a statement directory carries no
// custom.yaml.
func DefaultCustom() *Custom {
	return &Custom{
		Accounts: Accounts{Debit: "Assets:Checking", Credit: "Expenses"},
	}
}

// LoadCustom reads custom.yaml from path. A missing file yields the
// defaults; a malformed file is an error.
func LoadCustom(path string) (*Custom, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultCustom(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	c := DefaultCustom()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if err := c.compileRules(); err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return c, nil
}

func (c *Custom) compileRules() error {
	for i := range c.Comment {
		r := &c.Comment[i]
		if literalPattern.MatchString(r.Match) {
			continue
		}
		re, err := regexp.Compile(r.Match)
		if err != nil {
			return errors.Wrapf(err, "comment rule %q", r.Match)
		}
		r.re = re
	}
	return nil
}

// Holder resolves the last four digits of a card number to a
// configured cardholder name. The second return is false when no
// holder claims those digits.
func (c *Custom) Holder(lastFour string) (string, bool) {
	for name, cards := range c.Cardholders {
		for _, card := range cards {
			if card == lastFour {
				return name, true
			}
		}
	}
	return "", false
}

// MatchComment returns the rules whose pattern matches the comment and
// whose date restriction (if any) covers date.
func (c *Custom) MatchComment(comment string, date time.Time) []*CommentRule {
	var hits []*CommentRule
	for i := range c.Comment {
		r := &c.Comment[i]
		if !r.matches(comment) {
			continue
		}
		if !r.coversDate(date) {
			continue
		}
		hits = append(hits, r)
	}
	return hits
}

func (r *CommentRule) matches(comment string) bool {
	if r.re != nil {
		return r.re.MatchString(comment)
	}
	return r.Match != "" && containsLiteral(comment, r.Match)
}

func (r *CommentRule) coversDate(date time.Time) bool {
	if len(r.Dates) == 0 {
		return true
	}
	day := date.Format("2006-01-02")
	for _, d := range r.Dates {
		if d == day {
			return true
		}
	}
	return false
}

func containsLiteral(s, sub string) bool {
	return sub != "" && strings.Contains(s, sub)
}

// ReconcileAccount describes one side of a reconciliation: where its
// ledger file lives and which account prefixes count toward it.
type ReconcileAccount struct {
	Name           string   `yaml:"name"`
	LedgerFile     string   `yaml:"ledger_file"`
	LedgerAccounts []string `yaml:"ledger_accounts"`
}

// ReconcileConfig is the top-level config.yaml for cmd/reconcile.
type ReconcileConfig struct {
	QueryCommand string             `yaml:"query_command"` // defaults to bean-query
	CheckCommand string             `yaml:"check_command"` // defaults to bean-check
	Accounts     []ReconcileAccount `yaml:"accounts"`
}

// LoadReconcile reads the reconciliation config from path.
func LoadReconcile(path string) (*ReconcileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var c ReconcileConfig
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if c.QueryCommand == "" {
		c.QueryCommand = "bean-query"
	}
	if c.CheckCommand == "" {
		c.CheckCommand = "bean-check"
	}
	return &c, nil
}

// Account finds a configured reconcile account by name.
func (c *ReconcileConfig) Account(name string) (*ReconcileAccount, bool) {
	for i := range c.Accounts {
		if c.Accounts[i].Name == name {
			return &c.Accounts[i], true
		}
	}
	return nil, false
}
