// Package parser holds the institution-specific statement parsers.
// Each parser is a line-oriented state machine for one bank's layout;
// the registry is probed in order until a parser claims the text.
package parser

import (
	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/statement"
)

// Parser is the capability every institution variant implements.
type Parser interface {
	// BankName returns the human-readable institution name.
	BankName() string
	// Identify reports whether the statement text carries this
	// institution's banner. A false return means "not this bank",
	// never an error; probing moves on to the next variant.
	Identify(text string) bool
	// Parse scans the statement text into normalized transactions,
	// section subtotals, and daily balances, and installs the
	// institution's ledger renderer on the statement.
	Parse(st *statement.Statement) error
}

// Registry returns every registered institution parser, configured
// with the caller's customization. Probing order is fixed.
func Registry(cfg *config.Custom) []Parser {
	return []Parser{
		NewTDBankParser(cfg),
		NewChaseParser(cfg),
		NewBoAParser(cfg),
		NewCapitalOneParser(cfg),
		NewAAdvantageParser(cfg),
	}
}

// Probe tries each parser in turn and returns the first that accepts
// the text.
func Probe(parsers []Parser, text string) (Parser, bool) {
	for _, p := range parsers {
		if p.Identify(text) {
			return p, true
		}
	}
	return nil, false
}
