// Package ledger loads account registers out of plain-text beancount
// files by shelling out to the beancount query tools, and models the
// result as dated, amount-carrying entries.
package ledger

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Runner invokes the external beancount tools. Both calls are
// synchronous; a nonzero exit is an error carrying the tool's stderr.
type Runner struct {
	QueryCommand string // bean-query
	CheckCommand string // bean-check
}

// NewRunner builds a Runner, defaulting any command left empty.
func NewRunner(queryCmd, checkCmd string) *Runner {
	if queryCmd == "" {
		queryCmd = "bean-query"
	}
	if checkCmd == "" {
		checkCmd = "bean-check"
	}
	return &Runner{QueryCommand: queryCmd, CheckCommand: checkCmd}
}

// Query runs a BQL query against ledgerFile and returns the result as
// CSV text.
func (r *Runner) Query(ctx context.Context, ledgerFile, query string) (string, error) {
	cmd := exec.CommandContext(ctx, r.QueryCommand, "-f", "csv", ledgerFile, query)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(err, "%s %s: %s", r.QueryCommand, ledgerFile, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// Check runs the ledger checker over ledgerFile. Any reported error
// fails the run.
func (r *Runner) Check(ctx context.Context, ledgerFile string) error {
	cmd := exec.CommandContext(ctx, r.CheckCommand, ledgerFile)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s %s: %s", r.CheckCommand, ledgerFile, strings.TrimSpace(string(out)))
	}
	return nil
}
