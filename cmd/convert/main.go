// Command convert turns a directory of monthly bank statements into
// ledger files: one per statement plus an aggregate that must pass the
// external checker before the run is considered good.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/insightdelivered/statement-reconciler/internal/collection"
	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/ledger"
	"github.com/insightdelivered/statement-reconciler/internal/logger"
	"github.com/insightdelivered/statement-reconciler/internal/writer"
)

const version = "2.0.0"

func main() {
	dirFlag := flag.String("dir", ".", "Directory of YYYY_MM statement files")
	configFlag := flag.String("config", "", "Path to custom.yaml (accounts, cardholders, comment rules)")
	checkFlag := flag.String("check-command", "bean-check", "Ledger checker run over the aggregate output")
	csvFlag := flag.Bool("csv", false, "Also write one <period>.transactions.csv per statement")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Bank statement to ledger converter

Discovers YYYY_MM.pdf, .txt, and .csv statement files in a directory,
parses and cross-checks each against its printed totals, and writes
one <period>.ledger per statement plus an aggregate all.ledger.

Usage:
  convert [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert the current directory with default accounts
  convert

  # Convert a statement archive with site-specific rules
  convert -dir ~/bank/2023 -config ~/bank/custom.yaml
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("convert v%s\n", version)
		os.Exit(0)
	}

	log := logger.New()

	cfg := config.DefaultCustom()
	if *configFlag != "" {
		loaded, err := config.LoadCustom(*configFlag)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configFlag).Msg("loading config")
		}
		cfg = loaded
	}

	runner := ledger.NewRunner("", *checkFlag)
	c := collection.New(*dirFlag, cfg, runner, log)

	if err := c.Load(); err != nil {
		log.Fatal().Err(err).Msg("loading statements")
	}
	if err := c.Write(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("writing ledgers")
	}

	if *csvFlag {
		w := &writer.CSVWriter{IncludeHeader: true}
		for _, st := range c.Statements {
			path := filepath.Join(*dirFlag, st.PeriodKey()+".transactions.csv")
			if err := w.WriteToFile(path, st); err != nil {
				log.Fatal().Err(err).Str("file", path).Msg("writing csv")
			}
		}
	}

	fmt.Printf("Converted %d statement(s); output in %s\n", len(c.Statements), *dirFlag)
}
