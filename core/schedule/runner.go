package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newsgraph/core/collect"
	"newsgraph/core/enrich"
	"newsgraph/core/extract"
	"newsgraph/core/filter"
	"newsgraph/core/graph"
	"newsgraph/model"
)

// ErrRunInProgress is returned when a run is requested while another
// run is still executing. Overlapping runs are rejected, not queued.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Runner composes the pipeline stages and executes them as one run.
// It is the error boundary of the system: stage failures are folded
// into the run summary and never escape as panics or raw errors.
type Runner struct {
	collector *collect.Collector
	scorer    *filter.Scorer
	enricher  *enrich.Enricher
	extractor *extract.Extractor
	upserter  *graph.Upserter
	config    model.PipelineConfig
	log       *slog.Logger

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
}

// NewRunner wires the pipeline stages into a runner.
func NewRunner(
	collector *collect.Collector,
	scorer *filter.Scorer,
	enricher *enrich.Enricher,
	extractor *extract.Extractor,
	upserter *graph.Upserter,
	config model.PipelineConfig,
	logger *slog.Logger,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		collector: collector,
		scorer:    scorer,
		enricher:  enricher,
		extractor: extractor,
		upserter:  upserter,
		config:    config,
		log:       logger,
	}
}

// RunOnce executes one full pipeline run and always returns a summary.
// A second call while a run is in flight returns ErrRunInProgress with
// no summary.
func (r *Runner) RunOnce(ctx context.Context, lookbackDays int) (*model.RunSummary, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrRunInProgress
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	summary := &model.RunSummary{
		StartedAt: time.Now().UTC(),
		Status:    model.RunStatusSuccess,
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			summary.Status = model.RunStatusError
			summary.Message = fmt.Sprintf("pipeline panic: %v", recovered)
			r.log.Error("Pipeline run panicked", slog.String("panic", summary.Message))
		}
		summary.Elapsed = time.Since(summary.StartedAt)
		r.logSummary(summary)
	}()

	r.run(ctx, lookbackDays, summary)
	return summary, nil
}

// run executes the stages in order, writing progress into the summary.
func (r *Runner) run(ctx context.Context, lookbackDays int, summary *model.RunSummary) {
	if lookbackDays <= 0 {
		lookbackDays = r.config.LookbackDays
	}

	articles, err := r.collector.Collect(ctx, lookbackDays)
	if err != nil {
		summary.Status = model.RunStatusError
		summary.Message = fmt.Sprintf("collect: %v", err)
		return
	}
	summary.Collected = len(articles)

	articles = r.scorer.Filter(articles)
	summary.Filtered = len(articles)
	if len(articles) == 0 {
		summary.Message = "no relevant articles in window"
		return
	}

	articles = r.enricher.Enrich(ctx, articles)
	for _, article := range articles {
		if len(article.Embedding) > 0 {
			summary.Enriched++
		}
	}

	_, triples := r.extractor.Extract(articles)
	summary.Triples = len(triples)

	result, err := r.upserter.Upsert(ctx, articles, triples)
	if err != nil {
		summary.Status = model.RunStatusError
		summary.Message = fmt.Sprintf("graph upsert: %v", err)
		return
	}

	summary.NewArticles = result.NewArticles
	summary.UpdatedArticles = result.UpdatedArticles
	summary.NewEntities = result.NewEntities
	summary.UpdatedEntities = result.UpdatedEntities
	summary.NewEdges = result.NewEdges
	summary.UpdatedEdges = result.UpdatedEdges
}

// Schedule starts a daily run at the given hour and minute. Scheduled
// runs that would overlap an in-flight run are skipped by the overlap
// guard in RunOnce.
func (r *Runner) Schedule(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid schedule time %02d:%02d", hour, minute)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return errors.New("scheduler already started")
	}

	c := cron.New()
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	_, err := c.AddFunc(spec, func() {
		if _, err := r.RunOnce(context.Background(), r.config.LookbackDays); err != nil {
			r.log.Warn("Scheduled run skipped", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	c.Start()
	r.cron = c
	r.log.Info("Scheduler started", slog.String("daily_at", fmt.Sprintf("%02d:%02d", hour, minute)))

	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	if c == nil {
		return
	}

	<-c.Stop().Done()
	r.log.Info("Scheduler stopped")
}

func (r *Runner) logSummary(summary *model.RunSummary) {
	attrs := []any{
		slog.String("status", string(summary.Status)),
		slog.Duration("elapsed", summary.Elapsed),
		slog.Int("collected", summary.Collected),
		slog.Int("filtered", summary.Filtered),
		slog.Int("enriched", summary.Enriched),
		slog.Int("triples", summary.Triples),
		slog.Int("new_articles", summary.NewArticles),
		slog.Int("updated_articles", summary.UpdatedArticles),
		slog.Int("new_edges", summary.NewEdges),
	}
	if summary.Message != "" {
		attrs = append(attrs, slog.String("message", summary.Message))
	}

	if summary.Status == model.RunStatusError {
		r.log.Error("Pipeline run finished", attrs...)
		return
	}
	r.log.Info("Pipeline run finished", attrs...)
}
