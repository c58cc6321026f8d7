package services

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/feedbackforge/backend/internal/models"
	"github.com/feedbackforge/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Orchestrator states.
const (
	StateIdle    = "idle"
	StateRunning = "running"
)

// RecordSource is the read side of the record store the orchestrator needs.
type RecordSource interface {
	Query(QueryFilter) ([]models.InteractionRecord, error)
}

// DatasetWriter writes a record subset in a training-file format.
type DatasetWriter interface {
	Export([]models.InteractionRecord, ExportFormat) (string, int, error)
}

// ImprovementReport summarizes one completed improvement cycle.
type ImprovementReport struct {
	CycleID           string                   `json:"cycle_id"`
	WindowDays        int                      `json:"window_days"`
	Status            string                   `json:"status"`
	CategoriesFlagged []string                 `json:"categories_flagged"`
	SkippedCategories []string                 `json:"skipped_categories,omitempty"`
	CategoryStats     map[string]CategoryStats `json:"category_stats"`
	ExamplesExported  int                      `json:"examples_exported"`
	FilePaths         []string                 `json:"file_paths"`
	StartedAt         time.Time                `json:"started_at"`
	CompletedAt       time.Time                `json:"completed_at"`
}

// Orchestrator runs the improvement cycle: query a time window, aggregate
// per-category performance, filter records through the classifier and
// export the keepers. One cycle at a time per process; concurrent Run
// calls fail fast with ErrBusy instead of interleaving exports.
type Orchestrator struct {
	store         RecordSource
	exporter      DatasetWriter
	classifier    Classifier
	aggOpts       AggregatorOptions
	defaultFormat ExportFormat
	db            *gorm.DB // run history + snapshots; may be nil in tests

	running atomic.Bool
	cron    *cron.Cron
	now     func() time.Time
}

func NewOrchestrator(store RecordSource, exporter DatasetWriter, classifier Classifier, aggOpts AggregatorOptions, defaultFormat ExportFormat, db *gorm.DB) *Orchestrator {
	return &Orchestrator{
		store:         store,
		exporter:      exporter,
		classifier:    classifier,
		aggOpts:       aggOpts,
		defaultFormat: defaultFormat,
		db:            db,
		now:           time.Now,
	}
}

// State reports whether a cycle is currently in flight.
func (o *Orchestrator) State() string {
	if o.running.Load() {
		return StateRunning
	}
	return StateIdle
}

// Run executes one improvement cycle over the last windowDays of records,
// exporting to the default format plus any extra requested formats.
// Returns ErrBusy when a cycle is already running. On a step failure the
// run is recorded as failed with the step name and no partial run is
// reported as completed.
func (o *Orchestrator) Run(windowDays int, extraFormats ...ExportFormat) (*ImprovementReport, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("%w: window days must be positive", ErrValidation)
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.running.Store(false)

	started := o.now().UTC()
	run := &models.ImprovementRun{
		CycleID:    newCycleID(),
		WindowDays: windowDays,
		Status:     models.RunStatusRunning,
		StartedAt:  started,
	}
	if o.db != nil {
		if err := o.db.Create(run).Error; err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}

	report, err := o.execute(run, started, windowDays, extraFormats)
	if err != nil {
		o.markFailed(run, err)
		return nil, err
	}
	return report, nil
}

func (o *Orchestrator) execute(run *models.ImprovementRun, started time.Time, windowDays int, extraFormats []ExportFormat) (*ImprovementReport, error) {
	since := started.AddDate(0, 0, -windowDays)

	records, err := o.store.Query(QueryFilter{Since: since, Until: started})
	if err != nil {
		run.FailedStep = "query"
		return nil, fmt.Errorf("step query: %w", err)
	}

	stats, skipped := ComputeStats(records, o.aggOpts)
	flagged := FlaggedCategories(stats)
	for _, category := range skipped {
		logger.Warn().Str("category", category).Msg("category skipped during aggregation")
	}

	var included []models.InteractionRecord
	for i := range records {
		if o.classifier.Classify(&records[i]).Include {
			included = append(included, records[i])
		}
	}

	formats := []ExportFormat{o.defaultFormat}
	for _, f := range extraFormats {
		if f != o.defaultFormat {
			formats = append(formats, f)
		}
	}

	exported := 0
	var paths []string
	for _, format := range formats {
		path, count, err := o.exporter.Export(included, format)
		if err != nil {
			run.FailedStep = "export"
			return nil, fmt.Errorf("step export (%s): %w", format, err)
		}
		paths = append(paths, path)
		if format == o.defaultFormat {
			exported = count
		}
	}

	completed := o.now().UTC()
	report := &ImprovementReport{
		CycleID:           run.CycleID,
		WindowDays:        windowDays,
		Status:            models.RunStatusCompleted,
		CategoriesFlagged: flagged,
		SkippedCategories: skipped,
		CategoryStats:     stats,
		ExamplesExported:  exported,
		FilePaths:         paths,
		StartedAt:         started,
		CompletedAt:       completed,
	}

	if o.db != nil {
		run.Status = models.RunStatusCompleted
		run.CategoriesFlagged = marshalJSON(flagged)
		run.ExamplesExported = exported
		run.FilePaths = marshalJSON(paths)
		run.CompletedAt = &completed
		if err := o.db.Save(run).Error; err != nil {
			logger.Error().Err(err).Str("cycle_id", run.CycleID).Msg("failed to persist run result")
		}
		o.snapshot(run.CycleID, records, len(flagged))
	}

	logger.Info().
		Str("cycle_id", run.CycleID).
		Int("records", len(records)).
		Int("exported", exported).
		Strs("flagged", flagged).
		Msg("improvement cycle completed")

	return report, nil
}

func (o *Orchestrator) markFailed(run *models.ImprovementRun, cause error) {
	logger.Error().Err(cause).Str("cycle_id", run.CycleID).Str("step", run.FailedStep).Msg("improvement cycle failed")
	if o.db == nil {
		return
	}
	now := o.now().UTC()
	run.Status = models.RunStatusFailed
	run.ErrorMessage = cause.Error()
	run.CompletedAt = &now
	if err := o.db.Save(run).Error; err != nil {
		logger.Error().Err(err).Str("cycle_id", run.CycleID).Msg("failed to persist run failure")
	}
}

func (o *Orchestrator) snapshot(cycleID string, records []models.InteractionRecord, flaggedCount int) {
	var rated int64
	sum := 0
	for i := range records {
		if records[i].Rating != nil {
			rated++
			sum += *records[i].Rating
		}
	}
	avg := 0.0
	if rated > 0 {
		avg = float64(sum) / float64(rated)
	}
	snap := &models.PerformanceSnapshot{
		CycleID:           cycleID,
		TotalInteractions: int64(len(records)),
		TotalFeedback:     rated,
		AverageRating:     avg,
		FlaggedCategories: flaggedCount,
	}
	if err := o.db.Create(snap).Error; err != nil {
		logger.Error().Err(err).Str("cycle_id", cycleID).Msg("failed to persist performance snapshot")
	}
}

// ListRuns returns recent cycle history, newest first.
func (o *Orchestrator) ListRuns(limit int) ([]models.ImprovementRun, error) {
	if o.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	var runs []models.ImprovementRun
	if err := o.db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// StartScheduler runs cycles on the given cron spec. No-op for an empty spec.
func (o *Orchestrator) StartScheduler(spec string, windowDays int) error {
	if spec == "" {
		return nil
	}
	o.cron = cron.New()
	_, err := o.cron.AddFunc(spec, func() {
		if _, err := o.Run(windowDays); err != nil {
			if err == ErrBusy {
				logger.Warn().Msg("scheduled cycle skipped: previous run still in flight")
				return
			}
			logger.Error().Err(err).Msg("scheduled improvement cycle failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule improvement cycle: %w", err)
	}
	o.cron.Start()
	logger.Info().Str("schedule", spec).Int("window_days", windowDays).Msg("improvement cycle scheduler started")
	return nil
}

// StopScheduler stops scheduled cycles, waiting for none.
func (o *Orchestrator) StopScheduler() {
	if o.cron != nil {
		o.cron.Stop()
	}
}

func newCycleID() string {
	return fmt.Sprintf("improvement_%s", time.Now().UTC().Format("20060102_150405.000000"))
}

func marshalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}
