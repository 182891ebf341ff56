package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/libertypay/card-reconciliation/internal/config"
	"github.com/libertypay/card-reconciliation/internal/model"
	"github.com/libertypay/card-reconciliation/internal/observability"
	"github.com/libertypay/card-reconciliation/internal/recon"
	"github.com/libertypay/card-reconciliation/internal/sheets"
)

// MetricsStore persists run snapshots. Satisfied by repository.MetricsRepository.
type MetricsStore interface {
	Save(ctx context.Context, snap model.MetricsSnapshot) error
	GetByDate(ctx context.Context, runDate string) (*model.MetricsSnapshot, error)
	GetLatest(ctx context.Context) (*model.MetricsSnapshot, error)
	List(ctx context.Context, limit, offset int) ([]model.MetricsSnapshot, int, error)
}

// WorkbookLoader reads the six input tables, either from the configured
// path or from an uploaded workbook.
type WorkbookLoader interface {
	LoadAll() (model.Tables, error)
	LoadAllFrom(r io.Reader) (model.Tables, error)
}

// RunOptions selects the inputs for one reconciliation run. The zero value
// uses the configured workbook and the default backdated run date.
type RunOptions struct {
	// RunDate pins the run to an exact date. When nil, the run date is
	// today minus DaysOffset days.
	RunDate *time.Time

	// DaysOffset overrides the configured backdating offset. Ignored when
	// RunDate is set.
	DaysOffset *int

	// Workbook, when non-nil, is read instead of the configured file path.
	Workbook io.Reader

	// Debug includes the diagnostic report in the outcome.
	Debug bool
}

// RunOutcome is everything one run produced.
type RunOutcome struct {
	RunID       uuid.UUID             `json:"run_id"`
	RunDate     string                `json:"run_date"`
	Metrics     model.MetricsSnapshot `json:"metrics"`
	Summary     string                `json:"summary"`
	Datasets    []model.Dataset       `json:"datasets"`
	Debug       *recon.DebugReport    `json:"debug,omitempty"`
	ResultsPath string                `json:"results_path,omitempty"`
}

// ReconciliationService orchestrates a full run: load the workbook, execute
// the engine, persist the snapshot, render the summary, write the results
// workbook.
type ReconciliationService struct {
	engine     *recon.Engine
	loader     WorkbookLoader
	store      MetricsStore
	summarizer *SummaryService
	cfg        *config.Config
	log        zerolog.Logger

	mu        sync.RWMutex
	lastDebug *recon.DebugReport
}

func NewReconciliationService(engine *recon.Engine, loader WorkbookLoader, store MetricsStore, cfg *config.Config, log zerolog.Logger) *ReconciliationService {
	return &ReconciliationService{
		engine:     engine,
		loader:     loader,
		store:      store,
		summarizer: NewSummaryService(),
		cfg:        cfg,
		log:        log,
	}
}

// ResolveRunDate applies the backdating rule from opts against now.
func (s *ReconciliationService) ResolveRunDate(opts RunOptions, now time.Time) time.Time {
	if opts.RunDate != nil {
		d := *opts.RunDate
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	offset := s.cfg.DaysOffset
	if opts.DaysOffset != nil {
		offset = *opts.DaysOffset
	}
	d := now.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Run executes a reconciliation run end to end. Persistence and workbook
// export failures are logged but do not fail the run: the caller still gets
// the computed result.
func (s *ReconciliationService) Run(ctx context.Context, opts RunOptions) (*RunOutcome, error) {
	start := time.Now()
	runDate := s.ResolveRunDate(opts, time.Now())

	var (
		tables model.Tables
		err    error
	)
	if opts.Workbook != nil {
		tables, err = s.loader.LoadAllFrom(opts.Workbook)
	} else {
		tables, err = s.loader.LoadAll()
	}
	if err != nil {
		observability.RunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load workbook: %w", err)
	}

	result, err := s.engine.Run(ctx, tables, runDate)
	if err != nil {
		observability.RunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("reconciliation run: %w", err)
	}

	summary, err := s.summarizer.Render(result.Metrics)
	if err != nil {
		observability.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	outcome := &RunOutcome{
		RunID:    uuid.New(),
		RunDate:  result.Metrics.RunDate,
		Metrics:  result.Metrics,
		Summary:  summary,
		Datasets: result.Datasets,
	}
	if opts.Debug {
		outcome.Debug = result.Debug
	}

	// The diagnostic report is built during the run, so it stays servable
	// without reconciling again.
	s.mu.Lock()
	s.lastDebug = result.Debug
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(ctx, result.Metrics); err != nil {
			s.log.Error().Err(err).Str("run_date", outcome.RunDate).Msg("failed to persist snapshot")
		}
	}

	if s.cfg.OutputDir != "" {
		path, err := sheets.WriteResults(s.cfg.OutputDir, outcome.RunDate, result.Datasets, summary)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to write results workbook")
		} else {
			outcome.ResultsPath = path
		}
	}

	observability.RunsTotal.WithLabelValues("success").Inc()
	observability.RunDuration.Observe(time.Since(start).Seconds())
	observability.LastRunTimestamp.SetToCurrentTime()

	s.log.Info().
		Str("run_id", outcome.RunID.String()).
		Str("run_date", outcome.RunDate).
		Str("results_path", outcome.ResultsPath).
		Dur("elapsed", time.Since(start)).
		Msg("reconciliation service run finished")

	return outcome, nil
}

// SnapshotByDate returns the persisted snapshot for a run date.
func (s *ReconciliationService) SnapshotByDate(ctx context.Context, runDate string) (*model.MetricsSnapshot, error) {
	if _, err := time.Parse("2006-01-02", runDate); err != nil {
		return nil, fmt.Errorf("invalid run date %q: expected YYYY-MM-DD", runDate)
	}
	return s.store.GetByDate(ctx, runDate)
}

// LatestSnapshot returns the most recently persisted snapshot.
func (s *ReconciliationService) LatestSnapshot(ctx context.Context) (*model.MetricsSnapshot, error) {
	return s.store.GetLatest(ctx)
}

// ListSnapshots returns persisted snapshots newest first with the total count.
func (s *ReconciliationService) ListSnapshots(ctx context.Context, limit, offset int) ([]model.MetricsSnapshot, int, error) {
	return s.store.List(ctx, limit, offset)
}

// LastDebugReport returns the diagnostic report of the most recent run in
// this process, or nil when no run has happened yet.
func (s *ReconciliationService) LastDebugReport() *recon.DebugReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastDebug
}
