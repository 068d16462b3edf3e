// Command reconcile compares two ledger registers of the same real
// account, reports the latest date on which they agree, and renders a
// side-by-side diff of the earliest disagreeing day.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/ledger"
	"github.com/insightdelivered/statement-reconciler/internal/logger"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/reconcile"
)

func main() {
	configFlag := flag.String("config", "config.yaml", "Reconciliation config file")
	todayFlag := flag.String("today", "", "Anchor date for the backward scan (YYYY-MM-DD, defaults to today)")
	jsonFlag := flag.Bool("json", false, "Emit the diff report as JSON instead of a table")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Cross-ledger reconciler

Loads the register of each configured account pair from its ledger
file, scans backward from today for the latest date on which the
running totals agree, and prints a two-column diff of the earliest
disagreeing day with candidate matches for every unmatched entry.

Usage:
  reconcile [flags] <left-account> <right-account>

Flags:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	log := logger.New()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadReconcile(*configFlag)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configFlag).Msg("loading config")
	}

	runner := ledger.NewRunner(cfg.QueryCommand, cfg.CheckCommand)
	ctx := context.Background()

	left, err := loadSide(ctx, cfg, runner, flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("loading left register")
	}
	right, err := loadSide(ctx, cfg, runner, flag.Arg(1))
	if err != nil {
		log.Fatal().Err(err).Msg("loading right register")
	}

	r := reconcile.New(left, right)
	if *todayFlag != "" {
		day, err := time.Parse("2006-01-02", *todayFlag)
		if err != nil {
			log.Fatal().Err(err).Str("today", *todayFlag).Msg("bad anchor date")
		}
		r.Today = models.DayOf(day)
	}

	latestGood, rep, err := r.Reconcile()
	if errors.Is(err, reconcile.ErrNoAgreeingDate) {
		fmt.Printf("%s and %s never agree; no common good date in history\n",
			left.Account.Name, right.Account.Name)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("reconciling")
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.Fatal().Err(err).Msg("encoding report")
		}
		return
	}

	fmt.Printf("registers agree through %s\n\n", latestGood.Format("2006-01-02"))
	rep.Render(os.Stdout)
}

func loadSide(ctx context.Context, cfg *config.ReconcileConfig, runner *ledger.Runner, name string) (*ledger.Register, error) {
	acct, ok := cfg.Account(name)
	if !ok {
		return nil, errors.Errorf("account %q not in config", name)
	}
	return ledger.Load(ctx, runner, *acct)
}
