// Package collection drives a whole statement directory: discover
// statement files, probe institution parsers, parse and validate every
// statement, and emit the per-period and aggregate ledger files.
package collection

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/extractor"
	"github.com/insightdelivered/statement-reconciler/internal/ledger"
	"github.com/insightdelivered/statement-reconciler/internal/parser"
	"github.com/insightdelivered/statement-reconciler/internal/statement"
)

// statementFile matches the YYYY_MM.<ext> naming convention.
var statementFile = regexp.MustCompile(`^\d{4}_\d{2}\.(pdf|txt|csv)$`)

// Collection is every statement found in one directory, parsed and
// validated. Nothing is written until the whole directory passes.
type Collection struct {
	Dir        string
	Custom     *config.Custom
	Parsers    []parser.Parser
	Runner     *ledger.Runner
	Statements []*statement.Statement

	log zerolog.Logger
}

func New(dir string, cfg *config.Custom, runner *ledger.Runner, log zerolog.Logger) *Collection {
	return &Collection{
		Dir:     dir,
		Custom:  cfg,
		Parsers: parser.Registry(cfg),
		Runner:  runner,
		log:     log.With().Str("run_id", uuid.New().String()).Str("dir", dir).Logger(),
	}
}

// Load discovers, parses, and validates every statement file in the
// directory, in name order. The first failure aborts the run; no
// partial state survives for writing.
func (c *Collection) Load() error {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return errors.Wrapf(err, "reading %s", c.Dir)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "#") {
			continue
		}
		if statementFile.MatchString(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return errors.Errorf("no statements found in %s", c.Dir)
	}

	for _, name := range names {
		st, err := c.loadOne(filepath.Join(c.Dir, name))
		if err != nil {
			return err
		}
		c.Statements = append(c.Statements, st)
	}

	sort.Slice(c.Statements, func(i, j int) bool {
		return c.Statements[i].PeriodKey() < c.Statements[j].PeriodKey()
	})
	return nil
}

func (c *Collection) loadOne(path string) (*statement.Statement, error) {
	text, err := readStatement(path)
	if err != nil {
		return nil, err
	}

	p, ok := parser.Probe(c.Parsers, text)
	if !ok {
		return nil, errors.Errorf("couldn't match statement to any bank for %s", path)
	}

	st, err := statement.New(path, text)
	if err != nil {
		return nil, err
	}
	st.Bank = p.BankName()
	if err := p.Parse(st); err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}

	c.log.Info().
		Str("statement", st.SourceFile).
		Str("bank", p.BankName()).
		Int("transactions", len(st.Transactions)).
		Msg("statement validated")
	return st, nil
}

func readStatement(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractor.Extract(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return string(raw), nil
}

// OpenAccounts emits the open declarations for every configured
// account. The bare Expenses root is left to the ledger's own
// defaults.
func (c *Collection) OpenAccounts() string {
	var accounts []string
	if c.Custom.Accounts.Debit != "Expenses" {
		accounts = append(accounts, c.Custom.Accounts.Debit)
	}
	if c.Custom.Accounts.Credit != "Expenses" {
		accounts = append(accounts, c.Custom.Accounts.Credit)
	}
	accounts = append(accounts, c.Custom.Accounts.Other...)

	var b strings.Builder
	for _, a := range accounts {
		b.WriteString("1975-01-01 open " + a + "\n")
	}
	return b.String()
}

// BalanceAssertions renders every statement's daily balances as
// assertion lines against the debit account.
func (c *Collection) BalanceAssertions() string {
	var b strings.Builder
	for _, st := range c.Statements {
		b.WriteString(st.BalanceAssertions(c.Custom.Accounts.Debit))
	}
	return b.String()
}

// AggregateFile is the name of the combined output ledger.
const AggregateFile = "all.ledger"

// Write renders one <period>.ledger per statement plus the aggregate
// file, then runs the external checker over the aggregate as the final
// acceptance gate.
func (c *Collection) Write(ctx context.Context) error {
	if len(c.Statements) == 0 {
		return errors.New("nothing loaded")
	}

	opens := c.OpenAccounts()
	var aggregate strings.Builder
	aggregate.WriteString(c.Statements[0].Preamble)
	aggregate.WriteString(opens)

	for _, st := range c.Statements {
		body, err := st.RenderLedger()
		if err != nil {
			return err
		}

		path := filepath.Join(c.Dir, st.PeriodKey()+".ledger")
		content := st.Preamble + opens + body
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
		c.log.Info().Str("file", path).Msg("wrote statement ledger")

		aggregate.WriteString(body)
		aggregate.WriteString("\n")
	}

	aggregate.WriteString("\n;;;;;;;;;;;;;;;;;;;;;;;;\n;; Balance assertions\n")
	aggregate.WriteString(c.BalanceAssertions())
	aggregate.WriteString("\n")

	path := filepath.Join(c.Dir, AggregateFile)
	if err := os.WriteFile(path, []byte(aggregate.String()), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	c.log.Info().Str("file", path).Msg("wrote aggregate ledger")

	if err := c.Runner.Check(ctx, path); err != nil {
		return errors.Wrap(err, "acceptance check failed")
	}
	c.log.Info().Msg("acceptance check passed")
	return nil
}
