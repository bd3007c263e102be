package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jask/aidat/internal/config"
	"github.com/jask/aidat/internal/database"
	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/logging"
	"github.com/jask/aidat/internal/service"
	"github.com/jask/aidat/internal/store"
)

// app owns the database handle and the services every command shares.
type app struct {
	cfg config.Config
	log      zerolog.Logger
	logClose io.Closer
	db       *sql.DB

	dbPath   string
	logLevel string

	memory      *service.MatchMemory
	ledger      *service.Ledger
	reconciler  *service.Reconciler
	duplicates  *service.DuplicateDetector
	ingest      *service.IngestService
	maintenance *service.MaintenanceService
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	if cfg.Log.Output != "" {
		logCfg.Output = cfg.Log.Output
	}
	a.log, a.logClose = logging.Open(logCfg)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	a.db = db
	a.log.Debug().Str("path", cfg.Database.Path).Msg("database ready")

	a.wire(store.NewSQLiteStore(db))
	return nil
}

// wire builds the services over s using the loaded configuration.
func (a *app) wire(s store.Store) {
	sink := logging.NewLogSink(a.log)

	a.memory = service.NewMatchMemory(s)
	a.memory.Key = a.cfg.Store.MemoryKey
	a.memory.FuzzyThreshold = a.cfg.Matching.MemoryFuzzyThreshold
	a.memory.LearnThreshold = a.cfg.Matching.LearnThreshold
	a.memory.Log = a.log.With().Str("component", "memory").Logger()
	a.memory.Sink = sink

	a.ledger = service.NewLedger(s)
	a.ledger.PaymentsKey = a.cfg.Store.PaymentsKey
	a.ledger.EntriesKey = a.cfg.Store.EntriesKey
	a.ledger.Log = a.log.With().Str("component", "ledger").Logger()
	a.ledger.Now = database.Now

	a.reconciler = service.NewReconciler(a.memory)
	a.reconciler.MatchThreshold = a.cfg.Matching.MatchThreshold
	a.reconciler.ReviewThreshold = a.cfg.Matching.ReviewThreshold
	a.reconciler.Log = a.log.With().Str("component", "reconciler").Logger()
	a.reconciler.Sink = sink

	a.duplicates = service.NewDuplicateDetector(a.ledger)
	a.duplicates.Tolerance = a.cfg.Dedup.Tolerance()
	a.duplicates.Log = a.log.With().Str("component", "dedup").Logger()
	a.duplicates.Sink = sink

	a.ingest = &service.IngestService{Log: a.log.With().Str("component", "ingest").Logger()}
	a.maintenance = &service.MaintenanceService{Memory: a.memory, Ledger: a.ledger, Duplicates: a.duplicates}
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	if a.logClose != nil {
		_ = a.logClose.Close()
		a.logClose = nil
	}
}

func (a *app) readStatement(path string) ([]domain.TransactionRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open statement: %w", err)
	}
	defer f.Close()

	res, err := a.ingest.ParseStatementCSV(f)
	if err != nil {
		return nil, err
	}
	printRowErrors(os.Stderr, "statement lines", res.Errors)
	return res.Rows, nil
}

func (a *app) readRoster(path string) ([]domain.AthleteIdentity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	res, err := a.ingest.ParseRosterCSV(f)
	if err != nil {
		return nil, err
	}
	printRowErrors(os.Stderr, "roster lines", res.Errors)
	return res.Athletes, nil
}

func findAthlete(athletes []domain.AthleteIdentity, id string) (domain.AthleteIdentity, error) {
	id = strings.TrimSpace(id)
	for _, a := range athletes {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.AthleteIdentity{}, fmt.Errorf("athlete %q: %w", id, domain.ErrNotFound)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
